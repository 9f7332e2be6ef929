package costing

import "kitchen-inventory/internal/inventory"

// Report bundles every figure the engine derives for one item.
type Report struct {
	ItemID             string          `json:"item_id"`
	Name               string          `json:"name"`
	Cost               CostResult      `json:"cost"`
	Nutrition          NutritionResult `json:"nutrition"`
	OwnAllergens       []string        `json:"own_allergens"`
	InheritedAllergens []string        `json:"inherited_allergens"`
}

// Evaluate runs the cost, nutrition and allergen aggregations for root.
// The item's own weight field is used as the yield-weight override.
func Evaluate(root inventory.Item, items inventory.Catalog) Report {
	return Report{
		ItemID:             root.ID,
		Name:               root.Name,
		Cost:               ComputeCost(root, items),
		Nutrition:          ComputeNutrition(root, items, YieldWeight(root)),
		OwnAllergens:       OwnAllergens(root),
		InheritedAllergens: ComputeInheritedAllergens(root, items),
	}
}
