package costing

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"kitchen-inventory/internal/inventory"
)

// ComputeInheritedAllergens collects the allergens declared anywhere below
// root. Allergens root declares itself are left out because callers show
// them separately. Names are compared case-insensitively and the first
// spelling found is kept. The result is sorted with German collation.
func ComputeInheritedAllergens(root inventory.Item, items inventory.Catalog) []string {
	found := newAllergenSet()
	visited := make(map[string]struct{})
	if root.ID != "" {
		visited[root.ID] = struct{}{}
	}
	collectAllergens(root, items, visited, found)

	for _, a := range root.Allergens {
		found.remove(a)
	}

	out := found.names()
	SortAllergens(out)
	return out
}

// OwnAllergens returns root's declared allergens, trimmed, deduplicated and sorted.
func OwnAllergens(root inventory.Item) []string {
	own := newAllergenSet()
	for _, a := range root.Allergens {
		own.add(a)
	}
	out := own.names()
	SortAllergens(out)
	return out
}

// SortAllergens sorts in place using German collation. A collator keeps
// internal buffers, so each call builds its own.
func SortAllergens(s []string) {
	collate.New(language.German).SortStrings(s)
}

// collectAllergens visits every item reachable from it once. The union of
// allergens does not depend on the path an item is reached by, so a shared
// visited set both stops cycles and keeps the walk linear.
func collectAllergens(it inventory.Item, items inventory.Catalog, visited map[string]struct{}, found *allergenSet) {
	for _, c := range it.Components {
		if c.IsGhost() {
			continue
		}
		id := *c.ItemID
		if _, done := visited[id]; done || id == "" {
			continue
		}
		child, ok := items.Lookup(id)
		if !ok {
			continue
		}
		visited[id] = struct{}{}
		for _, a := range child.Allergens {
			found.add(a)
		}
		collectAllergens(child, items, visited, found)
	}
}

// allergenSet keys names by their lowercase form and remembers the first
// spelling added.
type allergenSet struct {
	byKey map[string]string
}

func newAllergenSet() *allergenSet {
	return &allergenSet{byKey: make(map[string]string)}
}

func allergenKey(a string) string {
	return strings.ToLower(strings.TrimSpace(a))
}

func (s *allergenSet) add(a string) {
	a = strings.TrimSpace(a)
	if a == "" {
		return
	}
	key := allergenKey(a)
	if _, ok := s.byKey[key]; !ok {
		s.byKey[key] = a
	}
}

func (s *allergenSet) remove(a string) {
	delete(s.byKey, allergenKey(a))
}

func (s *allergenSet) names() []string {
	out := make([]string, 0, len(s.byKey))
	for _, a := range s.byKey {
		out = append(out, a)
	}
	return out
}
