package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen-inventory/internal/units"
)

// ErrNotFound is returned when an item id does not resolve.
var ErrNotFound = errors.New("item not found")

// ItemType distinguishes purchased goods from recipes produced in-house.
type ItemType string

const (
	TypePurchased ItemType = "purchased"
	TypeProduced  ItemType = "produced"
)

// UnmarshalJSON also accepts the German labels used by older exports.
func (t *ItemType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode item type: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchased", "zukauf":
		*t = TypePurchased
	case "produced", "eigenproduktion":
		*t = TypeProduced
	default:
		*t = ItemType(s)
	}
	return nil
}

// Item is a purchased ingredient or a produced recipe.
type Item struct {
	ID               string       `json:"id" validate:"required"`
	Name             string       `json:"name" validate:"required"`
	Type             ItemType     `json:"type" validate:"required,oneof=purchased produced"`
	Unit             string       `json:"unit"`
	PurchasePrice    units.Number `json:"purchase_price"`
	Nutrition        *Nutrition   `json:"nutrition_per_unit,omitempty"`
	Allergens        []string     `json:"allergens,omitempty"`
	TargetPortions   units.Number `json:"target_portions"`
	TargetSalesPrice units.Number `json:"target_sales_price"`
	Weight           string       `json:"weight,omitempty"`
	Components       []Component  `json:"components,omitempty" validate:"dive"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Component is a weighted reference from a recipe to another item.
// A component whose referenced item was deleted keeps the deleted item's
// name and has a nil ItemID until someone reconciles it.
type Component struct {
	ItemID          *string      `json:"item_id" validate:"required_without=DeletedItemName"`
	Quantity        units.Number `json:"quantity"`
	Unit            string       `json:"unit"`
	DeletedItemName string       `json:"deleted_item_name,omitempty"`
}

// Ref builds a component pointing at id.
func Ref(id string, quantity float64, unit string) Component {
	return Component{ItemID: &id, Quantity: units.Num(quantity), Unit: unit}
}

// IsGhost reports whether the component points at a deleted item.
func (c Component) IsGhost() bool {
	return c.ItemID == nil
}

// TargetID returns the referenced id, or "" for ghosts.
func (c Component) TargetID() string {
	if c.ItemID == nil {
		return ""
	}
	return *c.ItemID
}

// IsLeaf reports whether the item has no components.
func (i Item) IsLeaf() bool {
	return len(i.Components) == 0
}

// WithComponents returns a copy of the item with a replaced component list,
// used to evaluate unsaved drafts.
func (i Item) WithComponents(components []Component) Item {
	i.Components = append([]Component(nil), components...)
	return i
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	if i.Nutrition != nil {
		n := *i.Nutrition
		out.Nutrition = &n
	}
	out.Allergens = append([]string(nil), i.Allergens...)
	out.Components = make([]Component, len(i.Components))
	for idx, c := range i.Components {
		if c.ItemID != nil {
			id := *c.ItemID
			c.ItemID = &id
		}
		out.Components[idx] = c
	}
	if len(i.Components) == 0 {
		out.Components = nil
	}
	return out
}
