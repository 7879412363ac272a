package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/metrics"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// PaymentService is the verification gate. Staff decide whether the declared
// money actually arrived; the decision and the matching status move commit as
// one write through the authority.
type PaymentService struct {
	store     store.Store
	authority *lifecycle.Authority
	m         *metrics.Metrics
	now       func() time.Time
}

func NewPaymentService(st store.Store, authority *lifecycle.Authority, m *metrics.Metrics) *PaymentService {
	return &PaymentService{
		store:     st,
		authority: authority,
		m:         m,
		now:       time.Now,
	}
}

// Decide records a staff verdict on a pending payment. Approval moves the
// order to payment-verified (spawning production work items); rejection moves
// it to payment-failed and requires an explanation for the customer.
func (s *PaymentService) Decide(ctx context.Context, orderID string, decision Decision, actor model.Actor, note string) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Payment.Verified() {
		return nil, model.ErrAlreadyVerified
	}

	switch decision {
	case DecisionApprove:
		pay := o.Payment
		pay.Status = model.PaymentVerified
		pay.VerifiedBy = actor.ID
		now := s.now()
		pay.VerifiedAt = &now

		out, err := s.authority.Apply(ctx, lifecycle.Request{
			OrderID:      orderID,
			Target:       model.StatusPaymentVerified,
			Actor:        actor,
			Note:         note,
			PaymentPatch: &pay,
			EventType:    model.EventPaymentVerified,
		})
		if err != nil {
			return nil, err
		}
		s.m.ObservePaymentDecision("approve")
		return out, nil

	case DecisionReject:
		if strings.TrimSpace(note) == "" {
			return nil, fmt.Errorf("%w: rejection needs an explanation for the customer", model.ErrMissingReason)
		}
		pay := o.Payment
		pay.Status = model.PaymentFailed

		out, err := s.authority.Apply(ctx, lifecycle.Request{
			OrderID:      orderID,
			Target:       model.StatusPaymentFailed,
			Actor:        actor,
			Note:         note,
			PaymentPatch: &pay,
			EventType:    model.EventPaymentRejected,
			Payload:      map[string]any{"reason": note},
		})
		if err != nil {
			return nil, err
		}
		s.m.ObservePaymentDecision("reject")
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown decision %q", model.ErrInvalidPayment, decision)
	}
}

// Resubmit lets the customer declare a fresh payment after a rejection. The
// declaration is validated exactly like at order intake, including the
// cash-on-delivery advance rule against the original total.
func (s *PaymentService) Resubmit(ctx context.Context, orderID string, decl model.PaymentDeclaration, actor model.Actor) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleCustomer && o.CustomerID != actor.ID {
		return nil, model.ErrOrderNotFound
	}

	pay, err := model.NewPayment(decl, o.Pricing.Total)
	if err != nil {
		return nil, err
	}

	return s.authority.Apply(ctx, lifecycle.Request{
		OrderID:      orderID,
		Target:       model.StatusPendingPayment,
		Actor:        actor,
		PaymentPatch: &pay,
		EventType:    model.EventPaymentResubmitted,
	})
}
