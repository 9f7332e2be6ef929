package inventory

import (
	"sort"
	"strings"
)

// Catalog is an immutable snapshot of the whole inventory keyed by item id.
// It may contain cycles and components that do not resolve.
type Catalog map[string]Item

// NewCatalog indexes items by id. Later duplicates replace earlier ones.
func NewCatalog(items ...Item) Catalog {
	c := make(Catalog, len(items))
	for _, it := range items {
		c[it.ID] = it
	}
	return c
}

// Lookup resolves an id.
func (c Catalog) Lookup(id string) (Item, bool) {
	it, ok := c[id]
	return it, ok
}

// Items returns all items ordered by name, then id, so callers that iterate
// (for example the name matcher) see a stable order.
func (c Catalog) Items() []Item {
	out := make([]Item, 0, len(c))
	for _, it := range c {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GhostRef locates a component whose referenced item was deleted.
type GhostRef struct {
	ParentID        string `json:"parent_id"`
	ParentName      string `json:"parent_name"`
	Index           int    `json:"index"`
	DeletedItemName string `json:"deleted_item_name"`
}

// Ghosts lists every ghost component, ordered like Items.
func (c Catalog) Ghosts() []GhostRef {
	var out []GhostRef
	for _, it := range c.Items() {
		for idx, comp := range it.Components {
			if comp.IsGhost() {
				out = append(out, GhostRef{
					ParentID:        it.ID,
					ParentName:      it.Name,
					Index:           idx,
					DeletedItemName: comp.DeletedItemName,
				})
			}
		}
	}
	return out
}
