package quotations

import (
	"encoding/json"
	"fmt"
)

// ItemType discriminates the item union stored in the quotation's JSON array.
type ItemType string

const (
	ItemTypeCatalog ItemType = "catalog"
	ItemTypeManual  ItemType = "manual"
)

// Material is one raw material line nested in an item.
type Material struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ServiceLine is one labor line nested in an item.
type ServiceLine struct {
	Name       string  `json:"name"`
	Hours      float64 `json:"hours"`
	HourlyRate float64 `json:"hourly_rate"`
}

// Item is one line of a quotation, either a catalog product or a free-form
// manual entry. The two variants share quantity and the nested material and
// service lines; catalog items carry a reference and a baked line total,
// manual items carry a name plus optional extra charges and their own margin.
type Item struct {
	Type ItemType `json:"type"`

	// catalog
	CatalogRefID int64             `json:"catalog_ref_id,omitempty"`
	Options      map[string]string `json:"options,omitempty"`
	UnitPrice    float64           `json:"unit_price,omitempty"`
	LineTotal    float64           `json:"line_total,omitempty"`

	// manual
	Name          string   `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	ExtraCharges  float64  `json:"extra_charges,omitempty"`
	MarginPercent *float64 `json:"margin_percent,omitempty"`

	Quantity  float64       `json:"quantity"`
	Materials []Material    `json:"materials"`
	Services  []ServiceLine `json:"services"`
}

type itemAlias Item

// UnmarshalJSON enforces exhaustive matching on the item union: unknown or
// missing type tags are an error, not a silently tolerated shape.
func (it *Item) UnmarshalJSON(data []byte) error {
	var alias itemAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	switch alias.Type {
	case ItemTypeCatalog:
		if alias.CatalogRefID <= 0 {
			return fmt.Errorf("catalog item: catalog_ref_id required")
		}
	case ItemTypeManual:
		if alias.Name == "" {
			return fmt.Errorf("manual item: name required")
		}
	default:
		return fmt.Errorf("unknown item type %q", alias.Type)
	}
	*it = Item(alias)
	return nil
}

// Validate checks value ranges shared by both variants.
func (it Item) Validate() error {
	if it.Quantity < 0 {
		return fmt.Errorf("item quantity must not be negative")
	}
	for _, m := range it.Materials {
		if m.Quantity < 0 || m.UnitPrice < 0 {
			return fmt.Errorf("material %q: negative quantity or price", m.Name)
		}
	}
	for _, s := range it.Services {
		if s.Hours < 0 || s.HourlyRate < 0 {
			return fmt.Errorf("service %q: negative hours or rate", s.Name)
		}
	}
	return nil
}

// MaterialsSubtotal sums the nested material lines.
func (it Item) MaterialsSubtotal() float64 {
	var sum float64
	for _, m := range it.Materials {
		sum += m.Quantity * m.UnitPrice
	}
	return sum
}

// ServicesSubtotal sums the nested labor lines.
func (it Item) ServicesSubtotal() float64 {
	var sum float64
	for _, s := range it.Services {
		sum += s.Hours * s.HourlyRate
	}
	return sum
}

// EncodeItems serialises the item list for JSONB storage.
func EncodeItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// DecodeItems parses the stored JSONB array.
func DecodeItems(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}
