package costing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-inventory/internal/inventory"
	"kitchen-inventory/internal/units"
)

func flour(price float64) inventory.Item {
	return inventory.Item{
		ID:            "flour",
		Name:          "Weizenmehl",
		Type:          inventory.TypePurchased,
		Unit:          "kg",
		PurchasePrice: units.Num(price),
		Nutrition:     &inventory.Nutrition{EnergyKcal: 348, Carbs: 72, Protein: 10},
		Allergens:     []string{"Gluten"},
	}
}

func dough(components ...inventory.Component) inventory.Item {
	return inventory.Item{
		ID:             "dough",
		Name:           "Teig",
		Type:           inventory.TypeProduced,
		Unit:           "kg",
		TargetPortions: units.Num(4),
		Components:     components,
	}
}

func TestComputeCost(t *testing.T) {
	t.Run("LeafWithPrice", func(t *testing.T) {
		f := flour(0.9)
		res := ComputeCost(f, inventory.NewCatalog(f))
		assert.Equal(t, 0.9, res.TotalCost)
		assert.False(t, res.HasMissingPrices)
	})

	t.Run("LeafWithoutPrice", func(t *testing.T) {
		for _, price := range []units.Number{units.Num(0), units.Num(-2), {}, units.ParseNumber("n/a")} {
			f := flour(0)
			f.PurchasePrice = price
			res := ComputeCost(f, inventory.NewCatalog(f))
			assert.Equal(t, 0.0, res.TotalCost)
			assert.True(t, res.HasMissingPrices)
		}
	})

	t.Run("Dough", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 0.5, "kg"))
		res := ComputeCost(d, inventory.NewCatalog(f, d))

		assert.InDelta(t, 0.45, res.TotalCost, 1e-9)
		require.NotNil(t, res.CostPerPortion)
		assert.InDelta(t, 0.1125, *res.CostPerPortion, 1e-9)
		assert.False(t, res.HasMissingPrices)
		assert.Nil(t, res.MarginPerPortion)
		assert.Nil(t, res.GoodsSharePercent)
	})

	t.Run("DoughWithMissingPrice", func(t *testing.T) {
		f := flour(0)
		d := dough(inventory.Ref("flour", 0.5, "kg"))
		res := ComputeCost(d, inventory.NewCatalog(f, d))

		assert.Equal(t, 0.0, res.TotalCost)
		assert.True(t, res.HasMissingPrices)
	})

	t.Run("MarginAndGoodsShare", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 0.5, "kg"))
		d.TargetSalesPrice = units.Num(0.5)
		res := ComputeCost(d, inventory.NewCatalog(f, d))

		require.NotNil(t, res.MarginPerPortion)
		assert.InDelta(t, 0.3875, *res.MarginPerPortion, 1e-9)
		require.NotNil(t, res.GoodsSharePercent)
		assert.InDelta(t, 22.5, *res.GoodsSharePercent, 1e-9)
	})

	t.Run("ZeroSalesPriceHasMarginButNoShare", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 0.5, "kg"))
		d.TargetSalesPrice = units.Num(0)
		res := ComputeCost(d, inventory.NewCatalog(f, d))

		require.NotNil(t, res.MarginPerPortion)
		assert.Nil(t, res.GoodsSharePercent)
	})

	t.Run("NoPortions", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 0.5, "kg"))
		d.TargetPortions = units.Num(0)
		d.TargetSalesPrice = units.Num(3)
		res := ComputeCost(d, inventory.NewCatalog(f, d))

		assert.Nil(t, res.CostPerPortion)
		assert.Nil(t, res.MarginPerPortion)
		assert.Nil(t, res.GoodsSharePercent)
	})

	t.Run("CommaDecimalQuantity", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Component{ItemID: ptr("flour"), Quantity: units.ParseNumber("0,5"), Unit: "kg"})
		res := ComputeCost(d, inventory.NewCatalog(f, d))
		assert.InDelta(t, 0.45, res.TotalCost, 1e-9)
	})

	t.Run("ConvertsKnownUnits", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 500, "g"))
		res := ComputeCost(d, inventory.NewCatalog(f, d))
		assert.InDelta(t, 0.45, res.TotalCost, 1e-9)
	})

	t.Run("PartialFailureKeepsSiblings", func(t *testing.T) {
		f := flour(0.9)
		d := dough(
			inventory.Ref("flour", 1, "kg"),
			inventory.Ref("unknown", 1, "kg"),
			inventory.Component{DeletedItemName: "Hefe", Quantity: units.Num(1), Unit: "kg"},
			inventory.Component{ItemID: ptr("flour"), Quantity: units.ParseNumber(""), Unit: "kg"},
			inventory.Ref("flour", -1, "kg"),
		)
		res := ComputeCost(d, inventory.NewCatalog(f, d))
		assert.InDelta(t, 0.9, res.TotalCost, 1e-9)
		assert.True(t, res.HasMissingPrices)
	})

	t.Run("Cycle", func(t *testing.T) {
		a := inventory.Item{ID: "a", Name: "A", Type: inventory.TypeProduced, Components: []inventory.Component{inventory.Ref("b", 1, "kg")}}
		b := inventory.Item{ID: "b", Name: "B", Type: inventory.TypeProduced, Components: []inventory.Component{inventory.Ref("a", 1, "kg")}}
		res := ComputeCost(a, inventory.NewCatalog(a, b))
		assert.True(t, res.HasMissingPrices)
		assert.Equal(t, 0.0, res.TotalCost)
	})

	t.Run("SelfReference", func(t *testing.T) {
		f := flour(1)
		a := inventory.Item{ID: "a", Name: "A", Type: inventory.TypeProduced, Components: []inventory.Component{
			inventory.Ref("a", 1, "kg"),
			inventory.Ref("flour", 2, "kg"),
		}}
		res := ComputeCost(a, inventory.NewCatalog(a, f))
		assert.True(t, res.HasMissingPrices)
		assert.InDelta(t, 2.0, res.TotalCost, 1e-9)
	})

	t.Run("DiamondIsNotACycle", func(t *testing.T) {
		f := flour(1)
		base := inventory.Item{ID: "base", Name: "Grundteig", Type: inventory.TypeProduced, Unit: "kg",
			Components: []inventory.Component{inventory.Ref("flour", 1, "kg")}}
		left := inventory.Item{ID: "left", Name: "Links", Type: inventory.TypeProduced, Unit: "kg",
			Components: []inventory.Component{inventory.Ref("base", 1, "kg")}}
		right := inventory.Item{ID: "right", Name: "Rechts", Type: inventory.TypeProduced, Unit: "kg",
			Components: []inventory.Component{inventory.Ref("base", 2, "kg")}}
		top := inventory.Item{ID: "top", Name: "Oben", Type: inventory.TypeProduced, Unit: "kg",
			Components: []inventory.Component{inventory.Ref("left", 1, "kg"), inventory.Ref("right", 1, "kg")}}

		res := ComputeCost(top, inventory.NewCatalog(f, base, left, right, top))
		assert.False(t, res.HasMissingPrices)
		assert.InDelta(t, 3.0, res.TotalCost, 1e-9)
	})

	t.Run("CyclePathsAreNotShared", func(t *testing.T) {
		// a and b reference each other; which edge is cut depends on which
		// of them is reached first, so b costs 1 under a but 3 under top.
		f := flour(1)
		a := inventory.Item{ID: "a", Name: "A", Type: inventory.TypeProduced, Unit: "kg", Components: []inventory.Component{
			inventory.Ref("b", 1, "kg"),
			inventory.Ref("flour", 2, "kg"),
		}}
		b := inventory.Item{ID: "b", Name: "B", Type: inventory.TypeProduced, Unit: "kg", Components: []inventory.Component{
			inventory.Ref("a", 1, "kg"),
			inventory.Ref("flour", 1, "kg"),
		}}
		top := inventory.Item{ID: "top", Name: "Oben", Type: inventory.TypeProduced, Components: []inventory.Component{
			inventory.Ref("a", 1, "kg"),
			inventory.Ref("b", 1, "kg"),
		}}

		res := ComputeCost(top, inventory.NewCatalog(f, a, b, top))
		assert.True(t, res.HasMissingPrices)
		assert.InDelta(t, 6.0, res.TotalCost, 1e-9)
	})

	t.Run("PieceUnitAgainstMassIsMissing", func(t *testing.T) {
		f := flour(1)
		egg := inventory.Item{ID: "egg", Name: "Ei", Type: inventory.TypePurchased, Unit: "Stück", PurchasePrice: units.Num(0.3)}
		d := dough(inventory.Ref("flour", 1, "kg"), inventory.Ref("egg", 60, "g"))
		res := ComputeCost(d, inventory.NewCatalog(f, egg, d))
		assert.InDelta(t, 1.0, res.TotalCost, 1e-9)
		assert.True(t, res.HasMissingPrices)
	})

	t.Run("MatchingPieceUnits", func(t *testing.T) {
		egg := inventory.Item{ID: "egg", Name: "Ei", Type: inventory.TypePurchased, Unit: "Stück", PurchasePrice: units.Num(0.3)}
		d := dough(inventory.Ref("egg", 2, "Stück"))
		res := ComputeCost(d, inventory.NewCatalog(egg, d))
		assert.InDelta(t, 0.6, res.TotalCost, 1e-9)
		assert.False(t, res.HasMissingPrices)
	})

	t.Run("UnitlessRecipeTakesQuantityAsIs", func(t *testing.T) {
		f := flour(1)
		base := inventory.Item{ID: "base", Name: "Grundteig", Type: inventory.TypeProduced,
			Components: []inventory.Component{inventory.Ref("flour", 1, "kg")}}
		d := dough(inventory.Ref("base", 2, "kg"))
		res := ComputeCost(d, inventory.NewCatalog(f, base, d))
		assert.InDelta(t, 2.0, res.TotalCost, 1e-9)
		assert.False(t, res.HasMissingPrices)
	})

	t.Run("LinearInQuantity", func(t *testing.T) {
		f := flour(0.9)
		salt := inventory.Item{ID: "salt", Name: "Salz", Type: inventory.TypePurchased, Unit: "kg", PurchasePrice: units.Num(0.4)}
		single := dough(inventory.Ref("flour", 0.5, "kg"), inventory.Ref("salt", 0.01, "kg"))
		double := dough(inventory.Ref("flour", 1, "kg"), inventory.Ref("salt", 0.02, "kg"))
		items := inventory.NewCatalog(f, salt)

		a := ComputeCost(single, items)
		b := ComputeCost(double, items)
		assert.InDelta(t, 2*a.TotalCost, b.TotalCost, 1e-9)
	})
}

func TestComputeNutrition(t *testing.T) {
	t.Run("Dough", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 500, "g"))
		res := ComputeNutrition(d, inventory.NewCatalog(f, d), nil)

		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 1740, res.PerRecipe.EnergyKcal, 1e-6)
		require.NotNil(t, res.PerPortion)
		assert.InDelta(t, 435, res.PerPortion.EnergyKcal, 1e-6)
		assert.False(t, res.HasMissingData)
	})

	t.Run("SingleComponentRoundTrip", func(t *testing.T) {
		sugar := inventory.Item{ID: "sugar", Name: "Zucker", Type: inventory.TypePurchased, Unit: "kg",
			Nutrition: &inventory.Nutrition{EnergyKcal: 200}}
		r := inventory.Item{ID: "r", Name: "R", Type: inventory.TypeProduced,
			Components: []inventory.Component{inventory.Ref("sugar", 250, "g")}}
		res := ComputeNutrition(r, inventory.NewCatalog(sugar, r), nil)
		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 500, res.PerRecipe.EnergyKcal, 1e-6)
		assert.Nil(t, res.PerPortion)
	})

	t.Run("NoComponents", func(t *testing.T) {
		f := flour(0.9)
		res := ComputeNutrition(f, inventory.NewCatalog(f), nil)
		assert.Nil(t, res.PerRecipe)
		assert.Nil(t, res.PerPortion)
		assert.True(t, res.HasMissingData)
	})

	t.Run("YieldWeightOverride", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 500, "g"))
		override := 250.0
		res := ComputeNutrition(d, inventory.NewCatalog(f, d), &override)
		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 870, res.PerRecipe.EnergyKcal, 1e-6)
	})

	t.Run("NonPositiveOverrideIgnored", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 500, "g"))
		override := 0.0
		res := ComputeNutrition(d, inventory.NewCatalog(f, d), &override)
		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 1740, res.PerRecipe.EnergyKcal, 1e-6)
	})

	t.Run("FallsBackToItemUnit", func(t *testing.T) {
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 0.5, "Packung"))
		res := ComputeNutrition(d, inventory.NewCatalog(f, d), nil)
		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 1740, res.PerRecipe.EnergyKcal, 1e-6)
		assert.False(t, res.HasMissingData)
	})

	t.Run("UnknownUnitIsMissing", func(t *testing.T) {
		egg := inventory.Item{ID: "egg", Name: "Ei", Type: inventory.TypePurchased, Unit: "Stück",
			Nutrition: &inventory.Nutrition{EnergyKcal: 155}}
		f := flour(0.9)
		d := dough(inventory.Ref("flour", 500, "g"), inventory.Ref("egg", 2, "Stück"))
		res := ComputeNutrition(d, inventory.NewCatalog(f, egg, d), nil)
		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 1740, res.PerRecipe.EnergyKcal, 1e-6)
		assert.True(t, res.HasMissingData)
	})

	t.Run("MissingLeafNutrition", func(t *testing.T) {
		water := inventory.Item{ID: "water", Name: "Wasser", Type: inventory.TypePurchased, Unit: "l"}
		d := dough(inventory.Ref("water", 1, "l"))
		res := ComputeNutrition(d, inventory.NewCatalog(water, d), nil)
		assert.Nil(t, res.PerRecipe)
		assert.True(t, res.HasMissingData)
	})

	t.Run("NestedRecipeIsMassWeighted", func(t *testing.T) {
		f := flour(0.9)
		butter := inventory.Item{ID: "butter", Name: "Butter", Type: inventory.TypePurchased, Unit: "kg",
			Nutrition: &inventory.Nutrition{EnergyKcal: 740, Fat: 82}}
		base := inventory.Item{ID: "base", Name: "Mürbeteig", Type: inventory.TypeProduced, Unit: "kg",
			Components: []inventory.Component{inventory.Ref("flour", 300, "g"), inventory.Ref("butter", 200, "g")}}
		tart := inventory.Item{ID: "tart", Name: "Tarte", Type: inventory.TypeProduced, TargetPortions: units.Num(10),
			Components: []inventory.Component{inventory.Ref("base", 1, "kg")}}

		res := ComputeNutrition(tart, inventory.NewCatalog(f, butter, base, tart), nil)
		require.NotNil(t, res.PerRecipe)
		// base: (3*348 + 2*740) kcal over 500 g = 5.048 kcal/g, used at 1000 g
		assert.InDelta(t, 5048, res.PerRecipe.EnergyKcal, 1e-6)
		assert.InDelta(t, 328, res.PerRecipe.Fat, 1e-6)
		require.NotNil(t, res.PerPortion)
		assert.InDelta(t, 504.8, res.PerPortion.EnergyKcal, 1e-6)
	})

	t.Run("Cycle", func(t *testing.T) {
		f := flour(0.9)
		a := inventory.Item{ID: "a", Name: "A", Type: inventory.TypeProduced,
			Components: []inventory.Component{inventory.Ref("b", 100, "g")}}
		b := inventory.Item{ID: "b", Name: "B", Type: inventory.TypeProduced,
			Components: []inventory.Component{inventory.Ref("a", 100, "g"), inventory.Ref("flour", 100, "g")}}
		res := ComputeNutrition(a, inventory.NewCatalog(a, b, f), nil)
		require.NotNil(t, res.PerRecipe)
		assert.InDelta(t, 348, res.PerRecipe.EnergyKcal, 1e-6)
		assert.True(t, res.HasMissingData)
	})
}

func TestYieldWeight(t *testing.T) {
	assert.Nil(t, YieldWeight(inventory.Item{}))
	g := YieldWeight(inventory.Item{Weight: "1,2 kg"})
	require.NotNil(t, g)
	assert.InDelta(t, 1200, *g, 1e-9)
}

func TestComputeInheritedAllergens(t *testing.T) {
	t.Run("NestedTwoLevels", func(t *testing.T) {
		c1 := inventory.Item{ID: "c1", Name: "C1", Type: inventory.TypePurchased, Allergens: []string{"Gluten"}}
		mid := inventory.Item{ID: "mid", Name: "Mid", Type: inventory.TypeProduced, Allergens: []string{" ", "Ei"},
			Components: []inventory.Component{inventory.Ref("c1", 1, "kg")}}
		other := inventory.Item{ID: "other", Name: "Other", Type: inventory.TypeProduced,
			Components: []inventory.Component{inventory.Ref("c1", 1, "kg")}}
		r := inventory.Item{ID: "r", Name: "R", Type: inventory.TypeProduced,
			Components: []inventory.Component{inventory.Ref("mid", 1, "kg"), inventory.Ref("other", 1, "kg")}}

		got := ComputeInheritedAllergens(r, inventory.NewCatalog(c1, mid, other, r))
		assert.Equal(t, []string{"Ei", "Gluten"}, got)
	})

	t.Run("ExcludesOwnAllergens", func(t *testing.T) {
		c1 := inventory.Item{ID: "c1", Name: "C1", Allergens: []string{"Milch", "Sellerie"}}
		r := inventory.Item{ID: "r", Name: "R", Allergens: []string{"Milch"},
			Components: []inventory.Component{inventory.Ref("c1", 1, "kg")}}
		got := ComputeInheritedAllergens(r, inventory.NewCatalog(c1, r))
		assert.Equal(t, []string{"Sellerie"}, got)
	})

	t.Run("GermanCollation", func(t *testing.T) {
		c1 := inventory.Item{ID: "c1", Name: "C1", Allergens: []string{"Weichtiere", "Erdnüsse", "Ei", "Äpfel"}}
		r := inventory.Item{ID: "r", Name: "R", Components: []inventory.Component{inventory.Ref("c1", 1, "kg")}}
		got := ComputeInheritedAllergens(r, inventory.NewCatalog(c1, r))
		assert.Equal(t, []string{"Äpfel", "Ei", "Erdnüsse", "Weichtiere"}, got)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		c1 := inventory.Item{ID: "c1", Name: "C1", Allergens: []string{"Gluten", "Ei"}}
		c2 := inventory.Item{ID: "c2", Name: "C2", Allergens: []string{"gluten", " ei ", "Senf"}}
		r := inventory.Item{ID: "r", Name: "R", Allergens: []string{"GLUTEN"}, Components: []inventory.Component{
			inventory.Ref("c1", 1, "kg"),
			inventory.Ref("c2", 1, "kg"),
		}}
		got := ComputeInheritedAllergens(r, inventory.NewCatalog(c1, c2, r))
		assert.Equal(t, []string{"Ei", "Senf"}, got)
	})

	t.Run("CycleTerminates", func(t *testing.T) {
		a := inventory.Item{ID: "a", Name: "A", Allergens: []string{"Soja"},
			Components: []inventory.Component{inventory.Ref("b", 1, "kg")}}
		b := inventory.Item{ID: "b", Name: "B", Allergens: []string{"Senf"},
			Components: []inventory.Component{inventory.Ref("a", 1, "kg")}}
		got := ComputeInheritedAllergens(a, inventory.NewCatalog(a, b))
		assert.Equal(t, []string{"Senf"}, got)
	})
}

func TestEvaluateDoesNotMutateInputs(t *testing.T) {
	f := flour(0.9)
	d := dough(inventory.Ref("flour", 0.5, "kg"))
	d.Allergens = []string{"Milch", "Milch "}
	d.Weight = "400 g"
	items := inventory.NewCatalog(f, d)
	before := d.Clone()

	r1 := Evaluate(d, items)
	r2 := Evaluate(d, items)

	assert.Equal(t, r1, r2)
	assert.Equal(t, before, d)
	assert.Equal(t, []string{"Milch"}, r1.OwnAllergens)
	assert.Equal(t, []string{"Gluten"}, r1.InheritedAllergens)
	require.NotNil(t, r1.Nutrition.PerRecipe)
	assert.InDelta(t, 0.45, r1.Cost.TotalCost, 1e-9)
}

func TestConcurrentEvaluation(t *testing.T) {
	f := flour(0.9)
	d := dough(inventory.Ref("flour", 0.5, "kg"))
	items := inventory.NewCatalog(f, d)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := Evaluate(d, items)
			assert.InDelta(t, 0.45, r.Cost.TotalCost, 1e-9)
		}()
	}
	wg.Wait()
}

// layeredChain builds l0..l<depth> where every level uses the previous one
// twice, so the number of paths to l0 doubles with each level.
func layeredChain(depth int) (inventory.Item, inventory.Catalog) {
	base := inventory.Item{
		ID: "l0", Name: "Ebene 0", Type: inventory.TypePurchased, Unit: "kg",
		PurchasePrice: units.Num(1),
		Nutrition:     &inventory.Nutrition{EnergyKcal: 100},
		Allergens:     []string{"Ei"},
	}
	all := []inventory.Item{base}
	prev := base
	for k := 1; k <= depth; k++ {
		it := inventory.Item{
			ID: fmt.Sprintf("l%d", k), Name: fmt.Sprintf("Ebene %d", k), Type: inventory.TypeProduced, Unit: "kg",
			Components: []inventory.Component{
				inventory.Ref(prev.ID, 0.5, "kg"),
				inventory.Ref(prev.ID, 0.5, "kg"),
			},
		}
		all = append(all, it)
		prev = it
	}
	return prev, inventory.NewCatalog(all...)
}

func TestEvaluateSharedSubRecipes(t *testing.T) {
	top, items := layeredChain(30)

	done := make(chan Report, 1)
	go func() { done <- Evaluate(top, items) }()

	select {
	case rep := <-done:
		assert.InDelta(t, 1.0, rep.Cost.TotalCost, 1e-9)
		assert.False(t, rep.Cost.HasMissingPrices)
		require.NotNil(t, rep.Nutrition.PerRecipe)
		assert.InDelta(t, 1000, rep.Nutrition.PerRecipe.EnergyKcal, 1e-6)
		assert.False(t, rep.Nutrition.HasMissingData)
		assert.Equal(t, []string{"Ei"}, rep.InheritedAllergens)
	case <-time.After(5 * time.Second):
		t.Fatal("Evaluate did not finish on a catalog with shared sub-recipes")
	}
}

func ptr(s string) *string { return &s }
