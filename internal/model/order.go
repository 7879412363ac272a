// Package model defines the records shared across the platform: orders,
// production queue items, tailors, actors, and domain events.
package model

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the customer-facing lifecycle state of an order.
type Status string

const (
	StatusPendingPayment   Status = "pending-payment"
	StatusPaymentVerified  Status = "payment-verified"
	StatusInProduction     Status = "in-production"
	StatusQualityCheck     Status = "quality-check"
	StatusReadyForDispatch Status = "ready-for-dispatch"
	StatusOutForDelivery   Status = "out-for-delivery"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
	StatusPaymentFailed    Status = "payment-failed"
)

var allStatuses = []Status{
	StatusPendingPayment,
	StatusPaymentVerified,
	StatusInProduction,
	StatusQualityCheck,
	StatusReadyForDispatch,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusPaymentFailed,
}

func (s Status) Valid() bool {
	return slices.Contains(allStatuses, s)
}

// Terminal reports whether the status ends the lifecycle. Terminal orders are
// immutable except for archival bookkeeping.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ContactSnapshot is the customer contact captured at order time. It is stored
// with the order so later profile edits do not rewrite history.
type ContactSnapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Region  string `json:"region"`
}

// StatusEntry is one step of the order's audit trail.
type StatusEntry struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
	Actor  Actor     `json:"actor"`
	Note   string    `json:"note,omitempty"`
}

// Order is the aggregate root. Items, payment, and pricing are snapshots taken
// at creation; only status, history, payment verification fields, the tailor
// mirror, and completion stamps change afterwards. Version guards every write.
type Order struct {
	ID                  string          `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CustomerID          string          `json:"customer_id"`
	Customer            ContactSnapshot `json:"customer"`
	Items               []OrderItem     `json:"items"`
	Payment             Payment         `json:"payment"`
	Pricing             Pricing         `json:"pricing"`
	Status              Status          `json:"status"`
	StatusHistory       []StatusEntry   `json:"status_history"`
	AssignedTailor      *string         `json:"assigned_tailor,omitempty"`
	EstimatedCompletion time.Time       `json:"estimated_completion"`
	ActualCompletion    *time.Time      `json:"actual_completion,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int64           `json:"version"`
}

// NewOrderParams carries everything needed to construct a valid order.
type NewOrderParams struct {
	CustomerID          string
	Customer            ContactSnapshot
	Items               []OrderItem
	Payment             PaymentDeclaration
	Pricing             Pricing
	EstimatedCompletion time.Time
	Now                 time.Time
}

// NewOrder validates the params and builds an order in pending-payment with a
// seeded history entry. The cash-on-delivery advance rule is enforced here:
// an order that fails it is never created.
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.CustomerID == "" {
		return nil, fmt.Errorf("%w: missing customer id", ErrInvalidItem)
	}
	if p.Customer.Name == "" || p.Customer.Phone == "" || p.Customer.Address == "" {
		return nil, fmt.Errorf("%w: incomplete contact", ErrInvalidItem)
	}
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidItem)
	}
	for i, it := range p.Items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	pay, err := NewPayment(p.Payment, p.Pricing.Total)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:                  NewID(),
		OrderNumber:         NewOrderNumber(p.Now),
		CustomerID:          p.CustomerID,
		Customer:            p.Customer,
		Items:               p.Items,
		Payment:             pay,
		Pricing:             p.Pricing,
		Status:              StatusPendingPayment,
		EstimatedCompletion: p.EstimatedCompletion,
		CreatedAt:           p.Now,
		UpdatedAt:           p.Now,
		Version:             1,
	}
	o.RecordStatus(StatusPendingPayment, Actor{ID: p.CustomerID, Role: RoleCustomer}, "order placed", p.Now)
	return o, nil
}

// RecordStatus sets the status and appends the matching audit entry. It does
// not touch Version; the caller owns concurrency.
func (o *Order) RecordStatus(s Status, actor Actor, note string, at time.Time) {
	o.Status = s
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: s, At: at, Actor: actor, Note: note})
	o.UpdatedAt = at
}

// Clone returns a deep copy safe to mutate without aliasing the original.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		c.Items[i] = it.clone()
	}
	c.StatusHistory = slices.Clone(o.StatusHistory)
	if o.AssignedTailor != nil {
		v := *o.AssignedTailor
		c.AssignedTailor = &v
	}
	if o.ActualCompletion != nil {
		t := *o.ActualCompletion
		c.ActualCompletion = &t
	}
	c.Payment = o.Payment.clone()
	return &c
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewOrderNumber builds a human-quotable reference like LC-250823-4F21A9:
// a date stamp plus six hex characters of entropy. Uniqueness is ultimately
// enforced by the store.
func NewOrderNumber(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("LC-%s-%s", now.Format("060102"), strings.ToUpper(hex.EncodeToString(u[:3])))
}
