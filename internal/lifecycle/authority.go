package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/metrics"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

// successors is the edge list of the lifecycle graph. Cancellation edges are
// listed here unconditionally; the role and production-lock rules decide who
// may actually walk them.
var successors = map[model.Status][]model.Status{
	model.StatusPendingPayment:   {model.StatusPaymentVerified, model.StatusPaymentFailed, model.StatusCancelled},
	model.StatusPaymentVerified:  {model.StatusInProduction, model.StatusCancelled},
	model.StatusInProduction:     {model.StatusQualityCheck, model.StatusCancelled},
	model.StatusQualityCheck:     {model.StatusReadyForDispatch, model.StatusCancelled},
	model.StatusReadyForDispatch: {model.StatusOutForDelivery, model.StatusCancelled},
	model.StatusOutForDelivery:   {model.StatusDelivered, model.StatusCancelled},
	model.StatusDelivered:        nil,
	model.StatusCancelled:        nil,
	model.StatusPaymentFailed:    {model.StatusPendingPayment, model.StatusCancelled},
}

// rank orders the forward chain for production-lock comparisons. Cancelled is
// deliberately absent: it is terminal and never compared.
var rank = map[model.Status]int{
	model.StatusPendingPayment:   0,
	model.StatusPaymentFailed:    0,
	model.StatusPaymentVerified:  1,
	model.StatusInProduction:     2,
	model.StatusQualityCheck:     3,
	model.StatusReadyForDispatch: 4,
	model.StatusOutForDelivery:   5,
	model.StatusDelivered:        6,
}

// Successors returns the statuses an order may legally move to next,
// before any role or payment rule is applied.
func Successors(s model.Status) []model.Status {
	return slices.Clone(successors[s])
}

// TransitionError explains a rejected transition and carries the legal
// successors so callers can offer a corrected action. It unwraps to one of
// the model sentinels.
type TransitionError struct {
	From    model.Status
	To      model.Status
	Allowed []model.Status
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Config tunes the Authority.
type Config struct {
	// ProductionLock is the first status at or past which customers can no
	// longer cancel and staff cancellations require a reason note.
	// Defaults to in-production.
	ProductionLock model.Status
}

// Authority is the only writer of Order.Status. Every transition passes the
// same pipeline: edge check, ownership, role policy, cancellation lock,
// payment gate; then the update, its side effects, and the notification event
// commit in a single versioned transaction.
type Authority struct {
	store  store.Store
	policy *Policy
	lock   int
	m      *metrics.Metrics
	now    func() time.Time
}

func NewAuthority(st store.Store, policy *Policy, cfg Config, m *metrics.Metrics) (*Authority, error) {
	lock := cfg.ProductionLock
	if lock == "" {
		lock = model.StatusInProduction
	}
	r, ok := rank[lock]
	if !ok {
		return nil, fmt.Errorf("%w: %q cannot serve as production lock", model.ErrInvalidStatus, lock)
	}
	return &Authority{
		store:  st,
		policy: policy,
		lock:   r,
		m:      m,
		now:    time.Now,
	}, nil
}

// Policy exposes the authorization table for capability checks outside the
// state machine (queue, tailors, notices).
func (a *Authority) Policy() *Policy {
	return a.policy
}

// Request describes one attempted transition. PaymentPatch, when set,
// replaces the payment sub-record in the same write; the payment gate is the
// only caller that uses it.
type Request struct {
	OrderID      string
	Target       model.Status
	Actor        model.Actor
	Note         string
	PaymentPatch *model.Payment
	EventType    model.EventType
	Payload      map[string]any
}

// Transition moves an order to target with no payment patch and the default
// event type.
func (a *Authority) Transition(ctx context.Context, orderID string, target model.Status, actor model.Actor, note string) (*model.Order, error) {
	return a.Apply(ctx, Request{OrderID: orderID, Target: target, Actor: actor, Note: note})
}

// Apply validates and commits a transition request, returning the updated
// order. Repeated delivery confirmations are answered idempotently with the
// current record and no new history entry.
func (a *Authority) Apply(ctx context.Context, req Request) (*model.Order, error) {
	if !req.Target.Valid() {
		return nil, &TransitionError{To: req.Target, Err: fmt.Errorf("%w: %q", model.ErrInvalidStatus, req.Target)}
	}

	o, err := a.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if o.Status == model.StatusDelivered && req.Target == model.StatusDelivered {
		return o, nil
	}

	if err := a.validate(o, req); err != nil {
		a.m.ObserveRejection(reasonLabel(err))
		return nil, err
	}

	now := a.now()
	updated := o.Clone()
	if req.PaymentPatch != nil {
		updated.Payment = *req.PaymentPatch
	}
	updated.RecordStatus(req.Target, req.Actor, req.Note, now)
	if req.Target == model.StatusDelivered {
		updated.ActualCompletion = &now
	}
	updated.Version = o.Version + 1

	evtType := req.EventType
	if evtType == "" {
		evtType = model.EventStatusChanged
	}
	evt := model.NewOrderEvent(evtType, updated, o.Status, req.Target, req.Actor, now)
	if req.Note != "" {
		evt.With("note", req.Note)
	}
	for k, v := range req.Payload {
		evt.With(k, v)
	}

	// Terminal transitions archive the order's work items; load them before
	// opening the transaction.
	var queued []*model.QueueItem
	if req.Target.Terminal() {
		queued, err = a.store.ListQueueItemsByOrder(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
	}

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.UpdateOrder(ctx, updated, o.Version); err != nil {
		return nil, err
	}

	if req.Target == model.StatusPaymentVerified {
		if err := tx.CreateQueueItems(ctx, model.BuildQueueItems(updated, now)); err != nil {
			return nil, err
		}
	}

	for _, q := range queued {
		if q.Archived {
			continue
		}
		upd := q.Clone()
		if upd.Assignment != nil {
			if err := tx.ReleaseTailor(ctx, upd.Assignment.TailorID); err != nil {
				return nil, err
			}
		}
		upd.Archived = true
		upd.ArchivedAt = &now
		upd.UpdatedAt = now
		upd.Version = q.Version + 1
		if err := tx.UpdateQueueItem(ctx, upd, q.Version); err != nil {
			return nil, err
		}
	}

	if err := tx.AppendEvent(ctx, evt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	a.m.ObserveTransition(string(o.Status), string(req.Target))
	slog.Info("order transitioned",
		"number", updated.OrderNumber,
		"from", o.Status,
		"to", req.Target,
		"actor", req.Actor.Role,
	)
	return updated, nil
}

func (a *Authority) validate(o *model.Order, req Request) error {
	fail := func(err error) error {
		return &TransitionError{From: o.Status, To: req.Target, Allowed: Successors(o.Status), Err: err}
	}

	if !slices.Contains(successors[o.Status], req.Target) {
		return fail(fmt.Errorf("%w: no edge from %s to %s", model.ErrInvalidStatus, o.Status, req.Target))
	}

	// Customers only ever touch their own orders.
	if req.Actor.Role == model.RoleCustomer && req.Actor.ID != o.CustomerID {
		return fail(model.ErrUnauthorizedTransition)
	}

	allowed, err := a.policy.CanTransition(req.Actor.Role, req.Target)
	if err != nil {
		return fmt.Errorf("enforce policy: %w", err)
	}
	if !allowed {
		return fail(model.ErrUnauthorizedTransition)
	}

	if req.Target == model.StatusCancelled {
		if r, ok := rank[o.Status]; ok && r >= a.lock {
			if req.Actor.Role == model.RoleCustomer {
				return fail(model.ErrProductionLocked)
			}
			if strings.TrimSpace(req.Note) == "" {
				return fail(model.ErrMissingReason)
			}
		}
	}

	// Everything at or past verification requires verified money; cancellation
	// and the payment-failure loop are exempt.
	switch req.Target {
	case model.StatusCancelled, model.StatusPendingPayment, model.StatusPaymentFailed:
	default:
		pay := o.Payment
		if req.PaymentPatch != nil {
			pay = *req.PaymentPatch
		}
		if !pay.Verified() {
			return fail(model.ErrPaymentNotVerified)
		}
	}

	// Leaving payment-failed needs a fresh declaration, not a bare move.
	if o.Status == model.StatusPaymentFailed && req.Target == model.StatusPendingPayment && req.PaymentPatch == nil {
		return fail(fmt.Errorf("%w: resubmission requires a new payment declaration", model.ErrInvalidPayment))
	}

	return nil
}

func reasonLabel(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidStatus):
		return "invalid-edge"
	case errors.Is(err, model.ErrUnauthorizedTransition):
		return "unauthorized"
	case errors.Is(err, model.ErrProductionLocked):
		return "production-locked"
	case errors.Is(err, model.ErrMissingReason):
		return "missing-reason"
	case errors.Is(err, model.ErrPaymentNotVerified):
		return "payment-not-verified"
	case errors.Is(err, model.ErrInvalidPayment):
		return "invalid-payment"
	default:
		return "other"
	}
}
