// Package datasheet turns manufacturer datasheets and supplier pages into
// draft inventory items with the help of a language model.
package datasheet

import (
	"strings"

	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/units"
)

// Datasheet is the structured data the model extracted from one source.
type Datasheet struct {
	Source        string               `json:"source,omitempty"`
	Name          string               `json:"name"`
	Unit          string               `json:"unit"`
	PurchasePrice units.Number         `json:"purchase_price"`
	Nutrition     *NutritionFacts      `json:"nutrition_per_100g"`
	Allergens     []string             `json:"allergens"`
	Components    []SuggestedComponent `json:"components"`
}

// NutritionFacts mirrors inventory.Nutrition with lenient numbers, since
// models return values as strings with comma decimals or null.
type NutritionFacts struct {
	EnergyKcal   units.Number `json:"energy_kcal"`
	Fat          units.Number `json:"fat"`
	SaturatedFat units.Number `json:"saturated_fat"`
	Carbs        units.Number `json:"carbs"`
	Sugar        units.Number `json:"sugar"`
	Protein      units.Number `json:"protein"`
	Salt         units.Number `json:"salt"`
	Fiber        units.Number `json:"fiber"`
}

// SuggestedComponent is an ingredient the datasheet lists with a quantity.
type SuggestedComponent struct {
	Name     string       `json:"name"`
	Quantity units.Number `json:"quantity"`
	Unit     string       `json:"unit"`
}

// ToNutrition converts the facts. It returns nil when the core values
// (energy, fat, carbs, protein) are all absent, so an empty table does
// not masquerade as zero nutrition.
func (n *NutritionFacts) ToNutrition() *inventory.Nutrition {
	if n == nil {
		return nil
	}
	if !n.EnergyKcal.IsSet() && !n.Fat.IsSet() && !n.Carbs.IsSet() && !n.Protein.IsSet() {
		return nil
	}
	val := func(x units.Number) float64 {
		f, _ := x.Float()
		return f
	}
	return &inventory.Nutrition{
		EnergyKcal:   val(n.EnergyKcal),
		Fat:          val(n.Fat),
		SaturatedFat: val(n.SaturatedFat),
		Carbs:        val(n.Carbs),
		Sugar:        val(n.Sugar),
		Protein:      val(n.Protein),
		Salt:         val(n.Salt),
		Fiber:        val(n.Fiber),
	}
}

// ToItem builds a draft item without an id. Datasheets listing components
// become produced items; their components still have to be linked with
// ApplySuggestedComponents.
func (d Datasheet) ToItem() inventory.Item {
	it := inventory.Item{
		Name:          strings.TrimSpace(d.Name),
		Type:          inventory.TypePurchased,
		Unit:          strings.TrimSpace(d.Unit),
		PurchasePrice: d.PurchasePrice,
		Nutrition:     d.Nutrition.ToNutrition(),
		Allergens:     cleanAllergens(d.Allergens),
	}
	if len(d.Components) > 0 {
		it.Type = inventory.TypeProduced
		it.PurchasePrice = units.Number{}
	}
	return it
}

func cleanAllergens(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
