// Package matcher links free-text ingredient names, such as the component
// suggestions on a manufacturer datasheet, to items already in the inventory.
package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"kitchen-inventory/internal/inventory"
)

// MinSimilarity is the lowest score FindBestMatch accepts as a link.
const MinSimilarity = 0.7

// Normalize lowercases s, strips diacritics and collapses every run of
// non-alphanumeric characters into a single space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		stripped = strings.ToLower(s)
	}
	fields := strings.FieldsFunc(stripped, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// Similarity scores two names between 0 (nothing in common, or either name
// empty) and 1 (identical after normalization).
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	la, lb := utf8.RuneCountInString(na), utf8.RuneCountInString(nb)
	if la == 0 || lb == 0 {
		return 0
	}
	longest := max(la, lb)
	return 1 - float64(levenshtein.ComputeDistance(na, nb))/float64(longest)
}

// FindBestMatch returns the candidate whose name is most similar to target.
// Scores below MinSimilarity are rejected; on ties the earlier candidate wins.
func FindBestMatch(target string, candidates []inventory.Item) (inventory.Item, bool) {
	var best inventory.Item
	bestScore := 0.0
	for _, c := range candidates {
		score := Similarity(target, c.Name)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < MinSimilarity {
		return inventory.Item{}, false
	}
	return best, true
}

// FindExactProduced returns the first produced item whose name equals name,
// ignoring case and surrounding whitespace.
func FindExactProduced(name string, candidates []inventory.Item) (inventory.Item, bool) {
	want := strings.TrimSpace(name)
	if want == "" {
		return inventory.Item{}, false
	}
	for _, c := range candidates {
		if c.Type != inventory.TypeProduced {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(c.Name), want) {
			return c, true
		}
	}
	return inventory.Item{}, false
}
