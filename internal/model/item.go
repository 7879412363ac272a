package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ItemKind separates ready-made catalog pieces from made-to-measure work.
type ItemKind string

const (
	ItemCatalog ItemKind = "catalog"
	ItemCustom  ItemKind = "custom"
)

// FabricSource says who supplies the cloth for a custom piece.
type FabricSource string

const (
	FabricStudio   FabricSource = "studio"
	FabricCustomer FabricSource = "customer"
)

// OrderItem is one line of an order. UnitPrice is a snapshot in paisa taken at
// order time, with any rush surcharge already folded in. Custom fields are
// empty for catalog items and vice versa.
type OrderItem struct {
	Kind      ItemKind `json:"kind"`
	Name      string   `json:"name"`
	UnitPrice int64    `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Rush      bool     `json:"rush,omitempty"`

	// Catalog.
	ProductID string `json:"product_id,omitempty"`

	// Custom work.
	Description     string            `json:"description,omitempty"`
	Measurements    map[string]string `json:"measurements,omitempty"`
	ReferenceImages []string          `json:"reference_images,omitempty"`
	FabricSource    FabricSource      `json:"fabric_source,omitempty"`
}

func (it OrderItem) Validate() error {
	switch it.Kind {
	case ItemCatalog:
		if it.ProductID == "" {
			return fmt.Errorf("%w: catalog item missing product id", ErrInvalidItem)
		}
	case ItemCustom:
		if strings.TrimSpace(it.Description) == "" {
			return fmt.Errorf("%w: custom item missing description", ErrInvalidItem)
		}
		if it.FabricSource != FabricStudio && it.FabricSource != FabricCustomer {
			return fmt.Errorf("%w: unknown fabric source %q", ErrInvalidItem, it.FabricSource)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, it.Kind)
	}
	if it.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidItem)
	}
	if it.UnitPrice <= 0 {
		return fmt.Errorf("%w: unit price must be positive", ErrInvalidItem)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	return nil
}

// LineTotal is the item's contribution to the subtotal, in paisa.
func (it OrderItem) LineTotal() int64 {
	return it.UnitPrice * int64(it.Quantity)
}

func (it OrderItem) clone() OrderItem {
	c := it
	c.Measurements = maps.Clone(it.Measurements)
	c.ReferenceImages = slices.Clone(it.ReferenceImages)
	return c
}
