package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/pricing"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

var fixedTime = time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)

var (
	staff    = model.Actor{ID: "staff-1", Role: model.RoleStaff}
	customer = model.Actor{ID: "cust-1", Role: model.RoleCustomer}
	stranger = model.Actor{ID: "cust-2", Role: model.RoleCustomer}
)

type services struct {
	st        *store.Memory
	authority *lifecycle.Authority
	orders    *OrderService
	payments  *PaymentService
	queue     *QueueService
	tracking  *TrackingService
}

func newServices(t *testing.T) *services {
	t.Helper()
	policy, err := lifecycle.NewPolicy()
	require.NoError(t, err)
	st := store.NewMemory()
	authority, err := lifecycle.NewAuthority(st, policy, lifecycle.Config{}, nil)
	require.NoError(t, err)

	orders := NewOrderService(st, authority, pricing.NewCalculator())
	orders.now = func() time.Time { return fixedTime }
	payments := NewPaymentService(st, authority, nil)
	payments.now = func() time.Time { return fixedTime }
	queue := NewQueueService(st, authority, nil)
	queue.now = func() time.Time { return fixedTime }
	tracking, err := NewTrackingService(st)
	require.NoError(t, err)
	tracking.now = func() time.Time { return fixedTime }

	return &services{
		st:        st,
		authority: authority,
		orders:    orders,
		payments:  payments,
		queue:     queue,
		tracking:  tracking,
	}
}

func codInput(advance int64) CreateOrderInput {
	return CreateOrderInput{
		Contact: model.ContactSnapshot{
			Name:    "Ayesha Khan",
			Phone:   "+92 300 1234567",
			Address: "House 12, DHA Phase 5",
			Region:  "karachi",
		},
		Items: []ItemInput{
			{
				Kind:         model.ItemCustom,
				Name:         "Bridal Lehenga",
				UnitPrice:    4500000,
				Quantity:     1,
				Description:  "full embroidery, maroon",
				FabricSource: model.FabricStudio,
			},
			{
				Kind:      model.ItemCatalog,
				ProductID: "prt-001",
				Name:      "Luxury Pret Kurta",
				UnitPrice: 500000,
				Quantity:  2,
			},
		},
		Payment: model.PaymentDeclaration{
			Method:        model.MethodCOD,
			AdvanceAmount: advance,
			ReceiptRef:    "JAZZ-778812",
		},
	}
}

func TestCreateOrderPricesAndPersists(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	in := CreateOrderInput{
		Contact: model.ContactSnapshot{
			Name:    "Ayesha Khan",
			Phone:   "+92 300 1234567",
			Address: "House 12, DHA Phase 5",
			Region:  "karachi",
		},
		Items: []ItemInput{
			{Kind: model.ItemCatalog, ProductID: "prt-001", Name: "Luxury Pret Kurta", UnitPrice: 500000, Quantity: 2},
		},
		Payment: model.PaymentDeclaration{Method: model.MethodOnline, TransactionRef: "TXN-1001"},
	}

	o, err := s.orders.Create(ctx, customer.ID, in)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendingPayment, o.Status)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "LC-250710-"))
	assert.Equal(t, int64(1), o.Version)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, "order placed", o.StatusHistory[0].Note)

	// 2 x 500000, karachi shipping 20000, 5% tax on the subtotal.
	assert.Equal(t, int64(1000000), o.Pricing.Subtotal)
	assert.Equal(t, int64(50000), o.Pricing.Tax)
	assert.Equal(t, int64(20000), o.Pricing.Shipping)
	assert.Equal(t, int64(1070000), o.Pricing.Total)

	// Catalog pieces alone lead with the base window.
	assert.Equal(t, fixedTime.AddDate(0, 0, 5), o.EstimatedCompletion)

	// Online payment covers the full total and still awaits verification.
	assert.Equal(t, int64(1070000), o.Payment.AdvanceAmount)
	assert.Equal(t, int64(0), o.Payment.RemainingAmount)
	assert.False(t, o.Payment.Verified())

	pending, err := s.st.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventOrderCreated, pending[0].Type)
}

func TestCreateOrderRushSurcharge(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	in := CreateOrderInput{
		Contact: model.ContactSnapshot{Name: "Ayesha Khan", Phone: "+92 300 1234567", Address: "House 12", Region: "karachi"},
		Items: []ItemInput{
			{Kind: model.ItemCatalog, ProductID: "prt-002", Name: "Festive Kurta", UnitPrice: 500000, Quantity: 1, Rush: true},
		},
		Payment: model.PaymentDeclaration{Method: model.MethodOnline, TransactionRef: "TXN-2002"},
	}

	o, err := s.orders.Create(ctx, customer.ID, in)
	require.NoError(t, err)

	assert.Equal(t, int64(650000), o.Items[0].UnitPrice)
	assert.Equal(t, int64(650000), o.Pricing.Subtotal)
	assert.Equal(t, int64(32500), o.Pricing.Tax)
	assert.Equal(t, int64(702500), o.Pricing.Total)
	// Rush halves the catalog window but never dips under the floor.
	assert.Equal(t, fixedTime.AddDate(0, 0, 3), o.EstimatedCompletion)
}

func TestCreateOrderAdvanceRule(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	// Full fixture totals 5795000, so half is 2897500.
	t.Run("advance below half rejected", func(t *testing.T) {
		_, err := s.orders.Create(ctx, customer.ID, codInput(2897499))
		assert.ErrorIs(t, err, model.ErrInsufficientAdvance)
	})

	t.Run("exactly half accepted", func(t *testing.T) {
		o, err := s.orders.Create(ctx, customer.ID, codInput(2897500))
		require.NoError(t, err)
		assert.Equal(t, int64(2897500), o.Payment.AdvanceAmount)
		assert.Equal(t, int64(2897500), o.Payment.RemainingAmount)
	})

	t.Run("missing receipt rejected", func(t *testing.T) {
		in := codInput(3000000)
		in.Payment.ReceiptRef = ""
		_, err := s.orders.Create(ctx, customer.ID, in)
		assert.ErrorIs(t, err, model.ErrInvalidPayment)
	})

	t.Run("online without transaction rejected", func(t *testing.T) {
		in := codInput(0)
		in.Payment = model.PaymentDeclaration{Method: model.MethodOnline}
		_, err := s.orders.Create(ctx, customer.ID, in)
		assert.ErrorIs(t, err, model.ErrInvalidPayment)
	})
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	t.Run("unknown region", func(t *testing.T) {
		in := codInput(3000000)
		in.Contact.Region = "atlantis"
		_, err := s.orders.Create(ctx, customer.ID, in)
		assert.ErrorIs(t, err, pricing.ErrUnknownRegion)
	})

	t.Run("custom piece without description", func(t *testing.T) {
		in := codInput(3000000)
		in.Items[0].Description = ""
		_, err := s.orders.Create(ctx, customer.ID, in)
		assert.ErrorIs(t, err, model.ErrInvalidItem)
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		in := codInput(3000000)
		in.Discount = 99000000
		_, err := s.orders.Create(ctx, customer.ID, in)
		assert.ErrorIs(t, err, pricing.ErrInvalidDiscount)
	})
}

func TestGetForHidesForeignOrders(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	_, err = s.orders.GetFor(ctx, stranger, o.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	got, err := s.orders.GetFor(ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	got, err = s.orders.GetFor(ctx, staff, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestListByStatusValidatesInput(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.orders.ListByStatus(ctx, model.Status("shipped"))
	assert.ErrorIs(t, err, model.ErrInvalidStatus)

	_, err = s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	list, err := s.orders.ListByStatus(ctx, model.StatusPendingPayment)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCustomerCancelBeforeProduction(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	got, err := s.orders.Cancel(ctx, o.ID, customer, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
}
