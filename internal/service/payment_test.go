package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

func TestApprovePaymentSpawnsQueue(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	got, err := s.payments.Decide(ctx, o.ID, DecisionApprove, staff, "jazzcash receipt matches")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPaymentVerified, got.Status)
	assert.True(t, got.Payment.Verified())
	assert.Equal(t, staff.ID, got.Payment.VerifiedBy)
	require.NotNil(t, got.Payment.VerifiedAt)
	assert.Equal(t, fixedTime, *got.Payment.VerifiedAt)

	items, err := s.st.ListQueueItemsByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	pending, err := s.st.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.EventPaymentVerified, pending[1].Type)
}

func TestRejectPaymentNeedsReason(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	_, err = s.payments.Decide(ctx, o.ID, DecisionReject, staff, "  ")
	assert.ErrorIs(t, err, model.ErrMissingReason)

	got, err := s.payments.Decide(ctx, o.ID, DecisionReject, staff, "receipt number not found in jazzcash")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaymentFailed, got.Status)
	assert.Equal(t, model.PaymentFailed, got.Payment.Status)

	// No production work spawns from a failed payment.
	items, err := s.st.ListQueueItemsByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecideIsFinalOnceVerified(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	_, err = s.payments.Decide(ctx, o.ID, DecisionApprove, staff, "")
	require.NoError(t, err)

	_, err = s.payments.Decide(ctx, o.ID, DecisionApprove, staff, "")
	assert.ErrorIs(t, err, model.ErrAlreadyVerified)

	_, err = s.payments.Decide(ctx, o.ID, DecisionReject, staff, "too late")
	assert.ErrorIs(t, err, model.ErrAlreadyVerified)
}

func TestDecideUnknownVerdict(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	_, err = s.payments.Decide(ctx, o.ID, Decision("maybe"), staff, "")
	assert.ErrorIs(t, err, model.ErrInvalidPayment)
}

func TestResubmitAfterRejection(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)
	_, err = s.payments.Decide(ctx, o.ID, DecisionReject, staff, "receipt unreadable")
	require.NoError(t, err)

	t.Run("new declaration must clear the advance rule", func(t *testing.T) {
		_, err := s.payments.Resubmit(ctx, o.ID, model.PaymentDeclaration{
			Method:        model.MethodCOD,
			AdvanceAmount: 100,
			ReceiptRef:    "JAZZ-000001",
		}, customer)
		assert.ErrorIs(t, err, model.ErrInsufficientAdvance)
	})

	t.Run("strangers cannot resubmit", func(t *testing.T) {
		_, err := s.payments.Resubmit(ctx, o.ID, model.PaymentDeclaration{
			Method: model.MethodOnline, TransactionRef: "TXN-9",
		}, stranger)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("fresh declaration reopens the order", func(t *testing.T) {
		got, err := s.payments.Resubmit(ctx, o.ID, model.PaymentDeclaration{
			Method:         model.MethodOnline,
			TransactionRef: "TXN-RETRY-77",
		}, customer)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPendingPayment, got.Status)
		assert.Equal(t, model.MethodOnline, got.Payment.Method)
		assert.Equal(t, model.PaymentPending, got.Payment.Status)

		// The second attempt can now be approved like the first.
		approved, err := s.payments.Decide(ctx, o.ID, DecisionApprove, staff, "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPaymentVerified, approved.Status)
	})
}

func TestResubmitOnlyFromFailedPayment(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	_, err = s.payments.Resubmit(ctx, o.ID, model.PaymentDeclaration{
		Method: model.MethodOnline, TransactionRef: "TXN-10",
	}, customer)
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

func TestEventTrailAcrossPaymentLoop(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	o, err := s.orders.Create(ctx, customer.ID, codInput(3000000))
	require.NoError(t, err)

	_, err = s.payments.Decide(ctx, o.ID, DecisionReject, staff, "amount mismatch")
	require.NoError(t, err)
	_, err = s.payments.Resubmit(ctx, o.ID, model.PaymentDeclaration{
		Method: model.MethodOnline, TransactionRef: "TXN-11",
	}, customer)
	require.NoError(t, err)

	pending, err := s.st.PendingEvents(ctx, 10)
	require.NoError(t, err)
	types := make([]model.EventType, 0, len(pending))
	for _, e := range pending {
		types = append(types, e.Type)
	}
	assert.Equal(t, []model.EventType{
		model.EventOrderCreated,
		model.EventPaymentRejected,
		model.EventPaymentResubmitted,
	}, types)
	for _, e := range pending {
		assert.Nil(t, e.SentAt)
	}
}
