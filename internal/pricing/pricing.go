// Package pricing computes charge breakdowns and completion estimates for
// orders. It is pure: no storage, no clock of its own, no side effects.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

var (
	ErrUnknownRegion   = errors.New("unknown shipping region")
	ErrInvalidDiscount = errors.New("invalid discount")
)

// Calculator holds the studio's rates. All money fields are in paisa.
type Calculator struct {
	TaxRate       float64
	RushSurcharge int64
	Shipping      map[string]int64

	// Lead times, in days.
	BaseLeadDays   int
	CustomLeadDays int
	ExtraPieceDays int
	MinLeadDays    int
}

// NewCalculator returns a calculator with the studio's current rates.
func NewCalculator() *Calculator {
	return &Calculator{
		TaxRate:       0.05,
		RushSurcharge: 150000,
		Shipping: map[string]int64{
			"karachi":       20000,
			"pakistan":      35000,
			"international": 450000,
		},
		BaseLeadDays:   5,
		CustomLeadDays: 14,
		ExtraPieceDays: 3,
		MinLeadDays:    3,
	}
}

// UnitPrice folds the rush surcharge into a base price. Order intake applies
// this before snapshotting items, so stored prices are always final.
func (c *Calculator) UnitPrice(base int64, rush bool) int64 {
	if rush {
		return base + c.RushSurcharge
	}
	return base
}

// Compute builds the charge breakdown for a set of items shipped to a region.
// Item prices are taken as final (see UnitPrice). Tax applies to the full
// subtotal; the discount comes off afterwards and shipping is untaxed.
func (c *Calculator) Compute(items []model.OrderItem, region string, discount int64) (model.Pricing, error) {
	if len(items) == 0 {
		return model.Pricing{}, fmt.Errorf("%w: no items to price", model.ErrInvalidItem)
	}
	var subtotal int64
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return model.Pricing{}, fmt.Errorf("item %d: %w", i, err)
		}
		subtotal += it.LineTotal()
	}

	shipping, ok := c.Shipping[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		return model.Pricing{}, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}

	if discount < 0 {
		return model.Pricing{}, fmt.Errorf("%w: negative", ErrInvalidDiscount)
	}
	if discount > subtotal {
		return model.Pricing{}, fmt.Errorf("%w: %d exceeds subtotal %d", ErrInvalidDiscount, discount, subtotal)
	}

	tax := int64(math.Round(float64(subtotal) * c.TaxRate))
	return model.Pricing{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Tax:      tax,
		Total:    subtotal - discount + tax + shipping,
	}, nil
}

// EstimateCompletion projects a completion date from the order's mix. Catalog
// pieces ship on the base lead; custom work starts from a longer lead and
// each additional custom piece adds days. A fully rush order halves the lead,
// floored at MinLeadDays.
func (c *Calculator) EstimateCompletion(items []model.OrderItem, now time.Time) time.Time {
	days := c.BaseLeadDays
	custom := 0
	allRush := len(items) > 0
	for _, it := range items {
		if it.Kind == model.ItemCustom {
			custom++
		}
		if !it.Rush {
			allRush = false
		}
	}
	if custom > 0 {
		days = c.CustomLeadDays + c.ExtraPieceDays*(custom-1)
	}
	if allRush {
		days = (days + 1) / 2
	}
	if days < c.MinLeadDays {
		days = c.MinLeadDays
	}
	return now.AddDate(0, 0, days)
}
