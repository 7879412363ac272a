package model

import "time"

// EventType names what happened, in topic form.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventStatusChanged      EventType = "order.status_changed"
	EventPaymentVerified    EventType = "payment.verified"
	EventPaymentRejected    EventType = "payment.rejected"
	EventPaymentResubmitted EventType = "payment.resubmitted"
	EventQueueAssigned      EventType = "queue.assigned"
	EventQueueReassigned    EventType = "queue.reassigned"
	EventQueueProgress      EventType = "queue.substatus_changed"
	EventStaffNotice        EventType = "staff.notice"
)

// DomainEvent is the notification emitted after a state change commits. It is
// advisory: consumers send WhatsApp/email/dashboard updates from it, and losing
// one never affects the order itself.
type DomainEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	OrderID     string         `json:"order_id,omitempty"`
	OrderNumber string         `json:"order_number,omitempty"`
	From        Status         `json:"from,omitempty"`
	To          Status         `json:"to,omitempty"`
	Actor       Actor          `json:"actor"`
	At          time.Time      `json:"at"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// NewOrderEvent builds an event tied to an order, carrying the contact
// snapshot so notification consumers do not need a read back.
func NewOrderEvent(t EventType, o *Order, from, to Status, actor Actor, at time.Time) *DomainEvent {
	return &DomainEvent{
		ID:          NewID(),
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		From:        from,
		To:          to,
		Actor:       actor,
		At:          at,
		Payload:     map[string]any{"customer": o.Customer},
	}
}

// With adds a payload entry and returns the event for chaining.
func (e *DomainEvent) With(key string, value any) *DomainEvent {
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	e.Payload[key] = value
	return e
}
