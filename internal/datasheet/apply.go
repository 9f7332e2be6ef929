package datasheet

import (
	"strings"

	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/matcher"
)

// LinkedComponent records how a suggestion was linked.
type LinkedComponent struct {
	Suggested string  `json:"suggested"`
	ItemID    string  `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Exact     bool    `json:"exact"`
	Score     float64 `json:"score"`
}

// ApplyResult is the draft after linking plus a report of what happened.
type ApplyResult struct {
	Item      inventory.Item       `json:"item"`
	Linked    []LinkedComponent    `json:"linked"`
	Unmatched []SuggestedComponent `json:"unmatched"`
}

// ApplySuggestedComponents links datasheet component suggestions to
// inventory items and appends them to a copy of draft. An exact name match
// against a produced item wins; otherwise the most similar item is used if
// it clears matcher.MinSimilarity. The draft itself is never a candidate.
// A suggestion resolving to an item the draft already references updates
// that component instead of adding a second one.
func ApplySuggestedComponents(draft inventory.Item, suggestions []SuggestedComponent, candidates []inventory.Item) ApplyResult {
	pool := make([]inventory.Item, 0, len(candidates))
	for _, c := range candidates {
		if draft.ID != "" && c.ID == draft.ID {
			continue
		}
		pool = append(pool, c)
	}

	res := ApplyResult{Item: draft.Clone()}
	for _, s := range suggestions {
		if strings.TrimSpace(s.Name) == "" {
			continue
		}

		match, exact := matcher.FindExactProduced(s.Name, pool)
		if !exact {
			var ok bool
			match, ok = matcher.FindBestMatch(s.Name, pool)
			if !ok {
				res.Unmatched = append(res.Unmatched, s)
				continue
			}
		}

		unit := strings.TrimSpace(s.Unit)
		if unit == "" {
			unit = match.Unit
		}
		comp := inventory.Ref(match.ID, 0, unit)
		comp.Quantity = s.Quantity

		replaced := false
		for i, existing := range res.Item.Components {
			if existing.TargetID() == match.ID {
				res.Item.Components[i] = comp
				replaced = true
				break
			}
		}
		if !replaced {
			res.Item.Components = append(res.Item.Components, comp)
		}

		res.Linked = append(res.Linked, LinkedComponent{
			Suggested: s.Name,
			ItemID:    match.ID,
			ItemName:  match.Name,
			Exact:     exact,
			Score:     matcher.Similarity(s.Name, match.Name),
		})
	}
	return res
}
