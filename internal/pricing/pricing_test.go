package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

func catalogItem(price int64, qty int) model.OrderItem {
	return model.OrderItem{
		Kind:      model.ItemCatalog,
		ProductID: "prt-001",
		Name:      "Luxury Pret Kurta",
		UnitPrice: price,
		Quantity:  qty,
	}
}

func customItem(price int64, rush bool) model.OrderItem {
	return model.OrderItem{
		Kind:         model.ItemCustom,
		Name:         "Bridal Lehenga",
		UnitPrice:    price,
		Quantity:     1,
		Rush:         rush,
		Description:  "full embroidery, maroon",
		FabricSource: model.FabricStudio,
	}
}

func TestCompute(t *testing.T) {
	c := NewCalculator()

	t.Run("catalog order", func(t *testing.T) {
		p, err := c.Compute([]model.OrderItem{catalogItem(500000, 2)}, "karachi", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1000000), p.Subtotal)
		assert.Equal(t, int64(20000), p.Shipping)
		assert.Equal(t, int64(50000), p.Tax)
		assert.Equal(t, int64(1070000), p.Total)
	})

	t.Run("discount does not shrink tax", func(t *testing.T) {
		p, err := c.Compute([]model.OrderItem{catalogItem(500000, 2)}, "pakistan", 200000)
		require.NoError(t, err)
		assert.Equal(t, int64(200000), p.Discount)
		assert.Equal(t, int64(50000), p.Tax)
		assert.Equal(t, int64(1000000-200000+50000+35000), p.Total)
	})

	t.Run("region is case insensitive", func(t *testing.T) {
		p, err := c.Compute([]model.OrderItem{catalogItem(100000, 1)}, "  Karachi ", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20000), p.Shipping)
	})

	t.Run("unknown region", func(t *testing.T) {
		_, err := c.Compute([]model.OrderItem{catalogItem(100000, 1)}, "mars", 0)
		assert.ErrorIs(t, err, ErrUnknownRegion)
	})

	t.Run("negative discount", func(t *testing.T) {
		_, err := c.Compute([]model.OrderItem{catalogItem(100000, 1)}, "karachi", -1)
		assert.ErrorIs(t, err, ErrInvalidDiscount)
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		_, err := c.Compute([]model.OrderItem{catalogItem(100000, 1)}, "karachi", 100001)
		assert.ErrorIs(t, err, ErrInvalidDiscount)
	})

	t.Run("no items", func(t *testing.T) {
		_, err := c.Compute(nil, "karachi", 0)
		assert.ErrorIs(t, err, model.ErrInvalidItem)
	})

	t.Run("invalid item rejected", func(t *testing.T) {
		bad := catalogItem(100000, 0)
		_, err := c.Compute([]model.OrderItem{bad}, "karachi", 0)
		assert.ErrorIs(t, err, model.ErrInvalidItem)
	})
}

func TestUnitPrice(t *testing.T) {
	c := NewCalculator()
	assert.Equal(t, int64(500000), c.UnitPrice(500000, false))
	assert.Equal(t, int64(650000), c.UnitPrice(500000, true))
}

func TestEstimateCompletion(t *testing.T) {
	c := NewCalculator()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("catalog only uses base lead", func(t *testing.T) {
		got := c.EstimateCompletion([]model.OrderItem{catalogItem(100000, 1)}, now)
		assert.Equal(t, now.AddDate(0, 0, 5), got)
	})

	t.Run("custom work extends lead per piece", func(t *testing.T) {
		items := []model.OrderItem{customItem(2000000, false), customItem(1500000, false)}
		got := c.EstimateCompletion(items, now)
		assert.Equal(t, now.AddDate(0, 0, 17), got)
	})

	t.Run("fully rush order halves the lead", func(t *testing.T) {
		items := []model.OrderItem{customItem(2000000, true)}
		got := c.EstimateCompletion(items, now)
		assert.Equal(t, now.AddDate(0, 0, 7), got)
	})

	t.Run("mixed rush does not shorten", func(t *testing.T) {
		items := []model.OrderItem{customItem(2000000, true), customItem(1500000, false)}
		got := c.EstimateCompletion(items, now)
		assert.Equal(t, now.AddDate(0, 0, 17), got)
	})

	t.Run("rush never goes below minimum", func(t *testing.T) {
		it := catalogItem(100000, 1)
		it.Rush = true
		got := c.EstimateCompletion([]model.OrderItem{it}, now)
		assert.Equal(t, now.AddDate(0, 0, 3), got)
	})
}
