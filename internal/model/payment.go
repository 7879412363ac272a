package model

import (
	"fmt"
	"time"
)

type PaymentMethod string

const (
	MethodOnline PaymentMethod = "online"
	MethodCOD    PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentFailed   PaymentStatus = "failed"
)

// Pricing is the immutable charge breakdown computed at order time.
// All amounts are in paisa.
type Pricing struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// PaymentDeclaration is what the customer claims at checkout or when
// resubmitting after a rejection. It is unverified input.
type PaymentDeclaration struct {
	Method         PaymentMethod `json:"method"`
	AdvanceAmount  int64         `json:"advance_amount"`
	ReceiptRef     string        `json:"receipt_ref,omitempty"`
	TransactionRef string        `json:"transaction_ref,omitempty"`
}

// Payment is the order's payment sub-record. Status moves pending -> verified
// or pending -> failed, only ever by a staff decision; a fresh declaration
// resets it to pending.
type Payment struct {
	Method          PaymentMethod `json:"method"`
	Status          PaymentStatus `json:"status"`
	AdvanceAmount   int64         `json:"advance_amount"`
	RemainingAmount int64         `json:"remaining_amount"`
	ReceiptRef      string        `json:"receipt_ref,omitempty"`
	TransactionRef  string        `json:"transaction_ref,omitempty"`
	VerifiedBy      string        `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time    `json:"verified_at,omitempty"`
}

// NewPayment validates a declaration against the order total and returns the
// pending payment record. Cash-on-delivery requires an advance of at least
// half the total, backed by a receipt reference; online payments cover the
// full total and require a transaction reference.
func NewPayment(d PaymentDeclaration, total int64) (Payment, error) {
	switch d.Method {
	case MethodOnline:
		if d.TransactionRef == "" {
			return Payment{}, fmt.Errorf("%w: online payment missing transaction ref", ErrInvalidPayment)
		}
		return Payment{
			Method:         MethodOnline,
			Status:         PaymentPending,
			AdvanceAmount:  total,
			TransactionRef: d.TransactionRef,
		}, nil
	case MethodCOD:
		if d.AdvanceAmount < 0 || d.AdvanceAmount > total {
			return Payment{}, fmt.Errorf("%w: advance %d out of range for total %d", ErrInvalidPayment, d.AdvanceAmount, total)
		}
		if d.AdvanceAmount*2 < total {
			return Payment{}, fmt.Errorf("%w: advance %d below half of total %d", ErrInsufficientAdvance, d.AdvanceAmount, total)
		}
		if d.ReceiptRef == "" {
			return Payment{}, fmt.Errorf("%w: cod advance missing receipt ref", ErrInvalidPayment)
		}
		return Payment{
			Method:          MethodCOD,
			Status:          PaymentPending,
			AdvanceAmount:   d.AdvanceAmount,
			RemainingAmount: total - d.AdvanceAmount,
			ReceiptRef:      d.ReceiptRef,
		}, nil
	default:
		return Payment{}, fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, d.Method)
	}
}

// Verified reports whether a staff member has confirmed the money arrived.
func (p Payment) Verified() bool {
	return p.Status == PaymentVerified
}

func (p Payment) clone() Payment {
	c := p
	if p.VerifiedAt != nil {
		t := *p.VerifiedAt
		c.VerifiedAt = &t
	}
	return c
}
