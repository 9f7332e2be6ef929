package costing

import (
	"math"

	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/units"
)

// NutritionResult holds the rolled-up nutrition of a recipe. PerRecipe is
// nil when nothing could be aggregated; PerPortion is nil when the recipe
// has no usable target portions.
type NutritionResult struct {
	PerRecipe      *inventory.Nutrition `json:"per_recipe"`
	PerPortion     *inventory.Nutrition `json:"per_portion"`
	HasMissingData bool                 `json:"has_missing_data"`
}

// leafReferenceGrams is the mass item nutrition facts are declared for.
const leafReferenceGrams = 100

// ComputeNutrition aggregates nutrition through root's components, weighted
// by the mass each component contributes.
//
// yieldWeightGrams overrides the recipe mass (for example to account for
// water lost while baking); nil or a non-positive value falls back to the
// summed component mass.
func ComputeNutrition(root inventory.Item, items inventory.Catalog, yieldWeightGrams *float64) NutritionResult {
	if root.IsLeaf() {
		return NutritionResult{HasMissingData: true}
	}

	w := nutritionWalk{items: items, memo: make(map[string]profile)}
	p := w.itemProfile(root, rootPath(root))
	if !p.ok {
		return NutritionResult{HasMissingData: true}
	}

	recipeMass := p.mass
	if yieldWeightGrams != nil && isPositive(*yieldWeightGrams) {
		recipeMass = *yieldWeightGrams
	}

	perRecipe := p.perGram.Scale(recipeMass)
	res := NutritionResult{PerRecipe: &perRecipe, HasMissingData: p.missing}
	if portions, ok := root.TargetPortions.Positive(); ok {
		perPortion := perRecipe.Scale(1 / portions)
		res.PerPortion = &perPortion
	}
	return res
}

// YieldWeight parses the item's free-text weight field into grams.
func YieldWeight(it inventory.Item) *float64 {
	g, ok := units.ParseYieldWeight(it.Weight)
	if !ok {
		return nil
	}
	return &g
}

type profile struct {
	perGram inventory.Nutrition
	mass    float64
	ok      bool
	missing bool
	cut     bool
}

// nutritionWalk memoizes profiles per call the same way costWalk does.
type nutritionWalk struct {
	items inventory.Catalog
	memo  map[string]profile
}

func (w nutritionWalk) itemProfile(it inventory.Item, path *ancestors) profile {
	if p, ok := w.memo[it.ID]; ok && it.ID != "" {
		return p
	}
	p := w.buildProfile(it, path)
	if !p.cut && it.ID != "" {
		w.memo[it.ID] = p
	}
	return p
}

func (w nutritionWalk) buildProfile(it inventory.Item, path *ancestors) profile {
	if it.IsLeaf() {
		if it.Nutrition == nil {
			return profile{missing: true}
		}
		return profile{
			perGram: it.Nutrition.Scale(1.0 / leafReferenceGrams),
			mass:    leafReferenceGrams,
			ok:      true,
		}
	}

	var batch inventory.Nutrition
	var mass float64
	missing, cut := false, false
	for _, c := range it.Components {
		child, res := resolve(c, w.items, path)
		if res != edgeResolved {
			missing = true
			cut = cut || res == edgeCycle
			continue
		}
		grams, ok := componentGrams(c, child)
		if !ok {
			missing = true
			continue
		}
		cp := w.itemProfile(child, path.push(child.ID))
		missing = missing || cp.missing
		cut = cut || cp.cut
		if !cp.ok {
			missing = true
			continue
		}
		batch = batch.Add(cp.perGram.Scale(grams))
		mass += grams
	}

	if !isPositive(mass) {
		return profile{missing: true, cut: cut}
	}
	return profile{
		perGram: batch.Scale(1 / mass),
		mass:    mass,
		ok:      true,
		missing: missing,
		cut:     cut,
	}
}

// componentGrams converts the component quantity to grams, preferring the
// component's unit and falling back to the referenced item's own unit.
func componentGrams(c inventory.Component, child inventory.Item) (float64, bool) {
	qty, ok := c.Quantity.Positive()
	if !ok {
		return 0, false
	}
	if g, ok := units.ToGrams(qty, c.Unit); ok {
		return g, true
	}
	return units.ToGrams(qty, child.Unit)
}

func isPositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
