package store

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

// Memory is an in-process Store used for development and tests. A single
// mutex serializes all access; Begin holds it until Commit or Rollback, and
// Rollback replays an undo log, so transactions are all-or-nothing.
type Memory struct {
	mu       sync.Mutex
	orders   map[string]*model.Order
	byNumber map[string]string
	queue    map[string]*model.QueueItem
	tailors  map[string]*model.Tailor
	users    map[string]*model.User
	outbox   []*OutboxRecord
	seq      int64
}

func NewMemory() *Memory {
	return &Memory{
		orders:   make(map[string]*model.Order),
		byNumber: make(map[string]string),
		queue:    make(map[string]*model.QueueItem),
		tailors:  make(map[string]*model.Tailor),
		users:    make(map[string]*model.User),
	}
}

func (m *Memory) CreateOrder(_ context.Context, o *model.Order, evt *model.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	if _, ok := m.byNumber[o.OrderNumber]; ok {
		return fmt.Errorf("order number %s already taken", o.OrderNumber)
	}
	if err := m.appendEventLocked(evt); err != nil {
		return err
	}
	m.orders[o.ID] = o.Clone()
	m.byNumber[o.OrderNumber] = o.ID
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (m *Memory) GetOrderByNumber(_ context.Context, number string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byNumber[number]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return m.orders[id].Clone(), nil
}

func (m *Memory) ListOrdersByCustomer(_ context.Context, customerID string) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*model.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			orders = append(orders, o.Clone())
		}
	}
	slices.SortFunc(orders, func(a, b *model.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

func (m *Memory) ListOrdersByStatus(_ context.Context, st model.Status) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*model.Order
	for _, o := range m.orders {
		if o.Status == st {
			orders = append(orders, o.Clone())
		}
	}
	slices.SortFunc(orders, func(a, b *model.Order) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return orders, nil
}

func (m *Memory) GetQueueItem(_ context.Context, id string) (*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queue[id]
	if !ok {
		return nil, model.ErrQueueItemNotFound
	}
	return q.Clone(), nil
}

func (m *Memory) ListQueueItems(_ context.Context, f QueueFilter) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*model.QueueItem
	for _, q := range m.queue {
		if q.Archived && !f.IncludeArchived {
			continue
		}
		if f.TailorID != "" && (q.Assignment == nil || q.Assignment.TailorID != f.TailorID) {
			continue
		}
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		items = append(items, q.Clone())
	}
	slices.SortFunc(items, func(a, b *model.QueueItem) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return items, nil
}

func (m *Memory) ListQueueItemsByOrder(_ context.Context, orderID string) ([]*model.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*model.QueueItem
	for _, q := range m.queue {
		if q.OrderID == orderID {
			items = append(items, q.Clone())
		}
	}
	slices.SortFunc(items, func(a, b *model.QueueItem) int {
		return cmp.Compare(a.ItemIndex, b.ItemIndex)
	})
	return items, nil
}

func (m *Memory) CreateTailor(_ context.Context, t *model.Tailor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tailors[t.ID]; ok {
		return fmt.Errorf("tailor %s already exists", t.ID)
	}
	m.tailors[t.ID] = t.Clone()
	return nil
}

func (m *Memory) GetTailor(_ context.Context, id string) (*model.Tailor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tailors[id]
	if !ok {
		return nil, model.ErrTailorNotFound
	}
	return t.Clone(), nil
}

func (m *Memory) ListTailors(_ context.Context) ([]*model.Tailor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tailors []*model.Tailor
	for _, t := range m.tailors {
		tailors = append(tailors, t.Clone())
	}
	slices.SortFunc(tailors, func(a, b *model.Tailor) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return tailors, nil
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Login]; ok {
		return model.ErrLoginTaken
	}
	m.users[u.Login] = cloneUser(u)
	return nil
}

func (m *Memory) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[login]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) AppendEvent(_ context.Context, evt *model.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEventLocked(evt)
}

func (m *Memory) PendingEvents(_ context.Context, limit int) ([]OutboxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recs []OutboxRecord
	for _, r := range m.outbox {
		if r.SentAt != nil {
			continue
		}
		cp := *r
		cp.Payload = bytes.Clone(r.Payload)
		recs = append(recs, cp)
		if len(recs) == limit {
			break
		}
	}
	return recs, nil
}

func (m *Memory) MarkEventSent(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.outbox {
		if r.ID == id {
			r.SentAt = &at
			return nil
		}
	}
	return fmt.Errorf("outbox record %d not found", id)
}

func (m *Memory) Begin(_ context.Context) (Tx, error) {
	m.mu.Lock()
	return &memTx{m: m}, nil
}

func (m *Memory) appendEventLocked(evt *model.DomainEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	m.seq++
	m.outbox = append(m.outbox, &OutboxRecord{
		ID:        m.seq,
		EventID:   evt.ID,
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: evt.At,
	})
	return nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.PasswordHash = bytes.Clone(u.PasswordHash)
	return &c
}

type memTx struct {
	m    *Memory
	undo []func()
	done bool
}

func (t *memTx) UpdateOrder(_ context.Context, o *model.Order, expectedVersion int64) error {
	cur, ok := t.m.orders[o.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if cur.Version != expectedVersion {
		return model.ErrConcurrentModification
	}
	prev := cur
	t.m.orders[o.ID] = o.Clone()
	t.undo = append(t.undo, func() { t.m.orders[o.ID] = prev })
	return nil
}

func (t *memTx) CreateQueueItems(_ context.Context, items []*model.QueueItem) error {
	for _, q := range items {
		if _, ok := t.m.queue[q.ID]; ok {
			return fmt.Errorf("queue item %s already exists", q.ID)
		}
		id := q.ID
		t.m.queue[id] = q.Clone()
		t.undo = append(t.undo, func() { delete(t.m.queue, id) })
	}
	return nil
}

func (t *memTx) UpdateQueueItem(_ context.Context, q *model.QueueItem, expectedVersion int64) error {
	cur, ok := t.m.queue[q.ID]
	if !ok {
		return model.ErrQueueItemNotFound
	}
	if cur.Version != expectedVersion {
		return model.ErrConcurrentModification
	}
	prev := cur
	t.m.queue[q.ID] = q.Clone()
	t.undo = append(t.undo, func() { t.m.queue[q.ID] = prev })
	return nil
}

func (t *memTx) ClaimTailor(_ context.Context, tailorID string) error {
	cur, ok := t.m.tailors[tailorID]
	if !ok {
		return model.ErrTailorNotFound
	}
	if !cur.Available() {
		return model.ErrCapacityExceeded
	}
	prev := cur
	next := cur.Clone()
	next.ActiveAssignments++
	t.m.tailors[tailorID] = next
	t.undo = append(t.undo, func() { t.m.tailors[tailorID] = prev })
	return nil
}

func (t *memTx) ReleaseTailor(_ context.Context, tailorID string) error {
	cur, ok := t.m.tailors[tailorID]
	if !ok {
		return model.ErrTailorNotFound
	}
	prev := cur
	next := cur.Clone()
	if next.ActiveAssignments > 0 {
		next.ActiveAssignments--
	}
	t.m.tailors[tailorID] = next
	t.undo = append(t.undo, func() { t.m.tailors[tailorID] = prev })
	return nil
}

func (t *memTx) AppendEvent(_ context.Context, evt *model.DomainEvent) error {
	if err := t.m.appendEventLocked(evt); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.m.outbox = t.m.outbox[:len(t.m.outbox)-1] })
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("tx already finished")
	}
	t.done = true
	t.m.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.m.mu.Unlock()
	return nil
}
