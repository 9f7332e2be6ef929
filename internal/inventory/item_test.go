package inventory

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-inventory/internal/units"
)

func TestItemJSON(t *testing.T) {
	in := `{
		"id": "dough",
		"name": "Pizzateig",
		"type": "Eigenproduktion",
		"target_portions": "4",
		"target_sales_price": "",
		"nutrition_per_unit": {"energy_kcal": 250, "fat": 3},
		"components": [
			{"item_id": "flour", "quantity": "1,5", "unit": "kg"},
			{"item_id": null, "quantity": 2, "unit": "g", "deleted_item_name": "Hefe"}
		]
	}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(in), &it))
	assert.Equal(t, TypeProduced, it.Type)
	assert.Equal(t, units.Num(4), it.TargetPortions)
	assert.False(t, it.TargetSalesPrice.IsSet())
	require.NotNil(t, it.Nutrition)
	assert.Equal(t, 250.0, it.Nutrition.EnergyKcal)

	require.Len(t, it.Components, 2)
	assert.Equal(t, "flour", it.Components[0].TargetID())
	assert.Equal(t, units.Num(1.5), it.Components[0].Quantity)
	assert.True(t, it.Components[1].IsGhost())
	assert.Equal(t, "", it.Components[1].TargetID())
	assert.NoError(t, Validate(it))

	var zukauf ItemType
	require.NoError(t, json.Unmarshal([]byte(`"zukauf"`), &zukauf))
	assert.Equal(t, TypePurchased, zukauf)
}

func TestValidate(t *testing.T) {
	valid := Item{ID: "a", Name: "Salz", Type: TypePurchased}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, Validate(valid))
	})

	t.Run("MissingName", func(t *testing.T) {
		it := valid
		it.Name = ""
		err := Validate(it)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidItem))
		assert.Contains(t, err.Error(), "Name")
	})

	t.Run("UnknownType", func(t *testing.T) {
		it := valid
		it.Type = "frozen"
		assert.ErrorIs(t, Validate(it), ErrInvalidItem)
	})

	t.Run("ComponentWithoutTarget", func(t *testing.T) {
		it := valid
		it.Components = []Component{{Quantity: units.Num(1), Unit: "g"}}
		assert.ErrorIs(t, Validate(it), ErrInvalidItem)
	})
}

func TestCloneIsDeep(t *testing.T) {
	orig := Item{
		ID:         "r",
		Nutrition:  &Nutrition{Fat: 1},
		Allergens:  []string{"Ei"},
		Components: []Component{Ref("x", 1, "g")},
	}
	cp := orig.Clone()
	cp.Nutrition.Fat = 9
	cp.Allergens[0] = "Milch"
	*cp.Components[0].ItemID = "y"

	assert.Equal(t, 1.0, orig.Nutrition.Fat)
	assert.Equal(t, "Ei", orig.Allergens[0])
	assert.Equal(t, "x", orig.Components[0].TargetID())
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(
		Item{ID: "2", Name: "butter"},
		Item{ID: "1", Name: "Apfel"},
		Item{ID: "3", Name: "Butter", Components: []Component{{DeletedItemName: "Sahne"}}},
	)

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{items[0].ID, items[1].ID, items[2].ID})

	ghosts := c.Ghosts()
	require.Len(t, ghosts, 1)
	assert.Equal(t, GhostRef{ParentID: "3", ParentName: "Butter", Index: 0, DeletedItemName: "Sahne"}, ghosts[0])

	_, ok := c.Lookup("missing")
	assert.False(t, ok)
}
