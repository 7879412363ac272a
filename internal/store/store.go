// Package store persists orders, production queue items, tailors, users, and
// the event outbox. Two implementations exist: Postgres for deployment and an
// in-memory store for development and tests.
package store

import (
	"context"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

// QueueFilter narrows ListQueueItems. Zero value lists the active board.
type QueueFilter struct {
	TailorID        string
	Status          model.SubStatus
	IncludeArchived bool
}

// OutboxRecord is one staged notification. Payload is the marshaled
// model.DomainEvent; SentAt is nil until the relay delivers it.
type OutboxRecord struct {
	ID        int64
	EventID   string
	Type      model.EventType
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}

// Store is the persistence boundary. Reads return deep copies; mutating a
// returned record never changes stored state without an explicit write.
type Store interface {
	// CreateOrder writes the order and its creation event atomically.
	CreateOrder(ctx context.Context, o *model.Order, evt *model.DomainEvent) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*model.Order, error)
	ListOrdersByStatus(ctx context.Context, st model.Status) ([]*model.Order, error)

	GetQueueItem(ctx context.Context, id string) (*model.QueueItem, error)
	ListQueueItems(ctx context.Context, f QueueFilter) ([]*model.QueueItem, error)
	ListQueueItemsByOrder(ctx context.Context, orderID string) ([]*model.QueueItem, error)

	CreateTailor(ctx context.Context, t *model.Tailor) error
	GetTailor(ctx context.Context, id string) (*model.Tailor, error)
	ListTailors(ctx context.Context) ([]*model.Tailor, error)

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)

	// AppendEvent stages a single event outside any transaction.
	AppendEvent(ctx context.Context, evt *model.DomainEvent) error
	PendingEvents(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkEventSent(ctx context.Context, id int64, at time.Time) error

	// Begin opens a unit of work for multi-record writes. Callers must not
	// issue Store reads between Begin and Commit/Rollback.
	Begin(ctx context.Context) (Tx, error)
}

// Tx groups writes that must land together. Versioned updates compare against
// expectedVersion and fail with model.ErrConcurrentModification on a miss;
// the caller passes the record with its version already advanced.
type Tx interface {
	UpdateOrder(ctx context.Context, o *model.Order, expectedVersion int64) error
	CreateQueueItems(ctx context.Context, items []*model.QueueItem) error
	UpdateQueueItem(ctx context.Context, q *model.QueueItem, expectedVersion int64) error

	// ClaimTailor takes one capacity slot, failing with
	// model.ErrCapacityExceeded when the tailor is full.
	ClaimTailor(ctx context.Context, tailorID string) error
	ReleaseTailor(ctx context.Context, tailorID string) error

	AppendEvent(ctx context.Context, evt *model.DomainEvent) error

	Commit() error
	Rollback() error
}
