package costing

import (
	"strings"

	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/units"
)

// CostResult is the cost breakdown of one item. Pointer fields are nil when
// the inputs they depend on are absent.
type CostResult struct {
	TotalCost         float64  `json:"total_cost"`
	CostPerPortion    *float64 `json:"cost_per_portion"`
	MarginPerPortion  *float64 `json:"margin_per_portion"`
	GoodsSharePercent *float64 `json:"goods_share_percent"`
	HasMissingPrices  bool     `json:"has_missing_prices"`
}

// ComputeCost returns the batch cost of root and the per-portion figures
// derived from its target portions and target sales price.
//
// Unusable prices, unresolved or cyclic components, invalid quantities and
// incompatible units contribute nothing and set HasMissingPrices; the
// remaining components are still summed.
func ComputeCost(root inventory.Item, items inventory.Catalog) CostResult {
	w := costWalk{items: items, memo: make(map[string]costEntry)}
	c := w.itemCost(root, rootPath(root))
	res := CostResult{TotalCost: c.total, HasMissingPrices: c.missing}

	portions, ok := root.TargetPortions.Positive()
	if !ok {
		return res
	}
	perPortion := c.total / portions
	res.CostPerPortion = &perPortion

	sales, ok := root.TargetSalesPrice.Float()
	if !ok {
		return res
	}
	margin := sales - perPortion
	res.MarginPerPortion = &margin
	if sales > 0 {
		share := perPortion / sales * 100
		res.GoodsSharePercent = &share
	}
	return res
}

// costEntry is the cost of one item. cut is set when a cycle edge was
// dropped somewhere below; the entry then depends on the path and is not
// memoized.
type costEntry struct {
	total   float64
	missing bool
	cut     bool
}

// costWalk holds the per-call memo. An item whose subtree cut no cycle edge
// reaches no ancestor of any path it appears on, so its cost is the same
// wherever it is reached.
type costWalk struct {
	items inventory.Catalog
	memo  map[string]costEntry
}

// itemCost returns the cost of one unit of it (for a recipe: one batch).
func (w costWalk) itemCost(it inventory.Item, path *ancestors) costEntry {
	if e, ok := w.memo[it.ID]; ok && it.ID != "" {
		return e
	}

	var e costEntry
	if it.IsLeaf() {
		price, ok := it.PurchasePrice.Positive()
		if !ok {
			e.missing = true
		} else {
			e.total = price
		}
	}

	for _, c := range it.Components {
		child, res := resolve(c, w.items, path)
		if res != edgeResolved {
			e.missing = true
			e.cut = e.cut || res == edgeCycle
			continue
		}
		qty, ok := c.Quantity.Positive()
		if !ok {
			e.missing = true
			continue
		}
		ratio, ok := unitRatio(c.Unit, child.Unit)
		if !ok {
			e.missing = true
			continue
		}
		sub := w.itemCost(child, path.push(child.ID))
		e.total += sub.total * qty * ratio
		e.missing = e.missing || sub.missing
		e.cut = e.cut || sub.cut
	}

	if !e.cut && it.ID != "" {
		w.memo[it.ID] = e
	}
	return e
}

// unitRatio converts a quantity expressed in from into the child's own unit.
// Two known mass or volume units convert by their factors. When one side is
// a mass or volume unit and the other a different named unit such as
// "Stück", there is no conversion and ok is false. Otherwise the quantity is
// taken to already be in the child's unit.
func unitRatio(from, to string) (float64, bool) {
	ff, fromMass := units.MassFactor(from)
	tf, toMass := units.MassFactor(to)
	switch {
	case fromMass && toMass:
		return ff / tf, true
	case fromMass != toMass && strings.TrimSpace(from) != "" && strings.TrimSpace(to) != "":
		return 0, false
	default:
		return 1, true
	}
}
