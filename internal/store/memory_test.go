package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func testOrder(t *testing.T) *model.Order {
	t.Helper()
	o, err := model.NewOrder(model.NewOrderParams{
		CustomerID: "cust-1",
		Customer: model.ContactSnapshot{
			Name:    "Ayesha Khan",
			Phone:   "+92 300 1234567",
			Address: "House 12, DHA Phase 5",
			Region:  "karachi",
		},
		Items: []model.OrderItem{{
			Kind:      model.ItemCatalog,
			ProductID: "prt-001",
			Name:      "Luxury Pret Kurta",
			UnitPrice: 500000,
			Quantity:  1,
		}},
		Payment: model.PaymentDeclaration{
			Method:         model.MethodOnline,
			TransactionRef: "TXN-1001",
		},
		Pricing:             model.Pricing{Subtotal: 500000, Tax: 25000, Shipping: 20000, Total: 545000},
		EstimatedCompletion: testTime.AddDate(0, 0, 5),
		Now:                 testTime,
	})
	require.NoError(t, err)
	return o
}

func createdEvent(o *model.Order) *model.DomainEvent {
	return model.NewOrderEvent(model.EventOrderCreated, o, "", o.Status, model.Actor{ID: o.CustomerID, Role: model.RoleCustomer}, testTime)
}

func TestMemoryOrderCAS(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	o := testOrder(t)
	require.NoError(t, m.CreateOrder(ctx, o, createdEvent(o)))

	first := o.Clone()
	first.Version = 2
	first.RecordStatus(model.StatusPaymentVerified, model.Actor{ID: "staff-1", Role: model.RoleStaff}, "", testTime)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpdateOrder(ctx, first, 1))
	require.NoError(t, tx.Commit())

	// A writer still holding version 1 must lose.
	stale := o.Clone()
	stale.Version = 2
	tx, err = m.Begin(ctx)
	require.NoError(t, err)
	err = tx.UpdateOrder(ctx, stale, 1)
	assert.ErrorIs(t, err, model.ErrConcurrentModification)
	require.NoError(t, tx.Rollback())

	got, err := m.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaymentVerified, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestMemoryRollbackUndoesEverything(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	o := testOrder(t)
	require.NoError(t, m.CreateOrder(ctx, o, createdEvent(o)))
	require.NoError(t, m.CreateTailor(ctx, &model.Tailor{ID: "t-1", Name: "Usman", CapacityLimit: 2, CreatedAt: testTime}))

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ClaimTailor(ctx, "t-1"))
	items := model.BuildQueueItems(o, testTime)
	require.NoError(t, tx.CreateQueueItems(ctx, items))
	evt := model.NewOrderEvent(model.EventStatusChanged, o, o.Status, model.StatusPaymentVerified, model.System, testTime)
	require.NoError(t, tx.AppendEvent(ctx, evt))
	require.NoError(t, tx.Rollback())

	tailor, err := m.GetTailor(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 0, tailor.ActiveAssignments)

	queued, err := m.ListQueueItemsByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, queued)

	pending, err := m.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1) // only the creation event survives
	assert.Equal(t, model.EventOrderCreated, pending[0].Type)
}

func TestMemoryClaimReleaseCapacity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateTailor(ctx, &model.Tailor{ID: "t-1", Name: "Usman", CapacityLimit: 1, CreatedAt: testTime}))

	claim := func() error {
		tx, err := m.Begin(ctx)
		require.NoError(t, err)
		if err := tx.ClaimTailor(ctx, "t-1"); err != nil {
			require.NoError(t, tx.Rollback())
			return err
		}
		return tx.Commit()
	}

	require.NoError(t, claim())
	assert.ErrorIs(t, claim(), model.ErrCapacityExceeded)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ReleaseTailor(ctx, "t-1"))
	require.NoError(t, tx.Commit())

	require.NoError(t, claim())

	tx, err = m.Begin(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, tx.ClaimTailor(ctx, "ghost"), model.ErrTailorNotFound)
	require.NoError(t, tx.Rollback())
}

func TestMemoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	o := testOrder(t)
	require.NoError(t, m.CreateOrder(ctx, o, createdEvent(o)))

	got, err := m.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	got.Status = model.StatusCancelled
	got.Items[0].Name = "tampered"
	got.StatusHistory[0].Note = "tampered"

	again, err := m.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingPayment, again.Status)
	assert.Equal(t, "Luxury Pret Kurta", again.Items[0].Name)
	assert.Equal(t, "order placed", again.StatusHistory[0].Note)
}

func TestMemoryOutboxFlow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	o := testOrder(t)
	require.NoError(t, m.CreateOrder(ctx, o, createdEvent(o)))

	pending, err := m.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventOrderCreated, pending[0].Type)

	require.NoError(t, m.MarkEventSent(ctx, pending[0].ID, testTime))
	pending, err = m.PendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
