package model

import "errors"

// Validation errors: the request itself is malformed or breaks an intake rule.
var (
	ErrInvalidItem    = errors.New("invalid order item")
	ErrInvalidPayment = errors.New("invalid payment declaration")

	// ErrInsufficientAdvance rejects cash-on-delivery orders whose declared
	// advance is below half the order total.
	ErrInsufficientAdvance = errors.New("advance below required threshold")

	ErrMissingReason    = errors.New("reason note required")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidSubStatus = errors.New("invalid production sub-status")
	ErrInvalidNote      = errors.New("invalid note")
	ErrInvalidTailor    = errors.New("invalid tailor")
)

// Lookup errors.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrQueueItemNotFound = errors.New("queue item not found")
	ErrTailorNotFound    = errors.New("tailor not found")
	ErrUserNotFound      = errors.New("user not found")
)

// State errors: the request is well formed but the record cannot accept it.
var (
	ErrUnauthorizedTransition = errors.New("transition not allowed for actor")
	ErrForbidden              = errors.New("operation not allowed for role")
	ErrPaymentNotVerified     = errors.New("payment not verified")
	ErrAlreadyVerified        = errors.New("payment already verified")
	ErrProductionLocked       = errors.New("order is in production and can no longer be cancelled")
	ErrAlreadyAssigned        = errors.New("queue item already assigned")
	ErrNotAssigned            = errors.New("queue item has no assignment")
	ErrQueueItemArchived      = errors.New("queue item archived")
	ErrCapacityExceeded       = errors.New("tailor has no free capacity")
)

// ErrConcurrentModification means the record changed between read and write;
// the caller should reload and retry.
var ErrConcurrentModification = errors.New("concurrent modification")

// Credential errors.
var (
	ErrLoginTaken         = errors.New("login already taken")
	ErrInvalidCredentials = errors.New("invalid login or password")
)
