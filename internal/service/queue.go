package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/metrics"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

// bulkWorkers bounds the parallelism of bulk board operations.
const bulkWorkers = 4

// QueueService runs the production board: tailor assignment under the
// capacity rule, sub-status progress, notes, and tailor administration.
type QueueService struct {
	store     store.Store
	authority *lifecycle.Authority
	m         *metrics.Metrics
	now       func() time.Time
}

func NewQueueService(st store.Store, authority *lifecycle.Authority, m *metrics.Metrics) *QueueService {
	return &QueueService{
		store:     st,
		authority: authority,
		m:         m,
		now:       time.Now,
	}
}

func (s *QueueService) allow(actor model.Actor, object, action string) error {
	ok, err := s.authority.Policy().Can(actor.Role, object, action)
	if err != nil {
		return fmt.Errorf("enforce policy: %w", err)
	}
	if !ok {
		return model.ErrForbidden
	}
	return nil
}

func (s *QueueService) Items(ctx context.Context, f store.QueueFilter) ([]*model.QueueItem, error) {
	return s.store.ListQueueItems(ctx, f)
}

func (s *QueueService) Item(ctx context.Context, id string) (*model.QueueItem, error) {
	return s.store.GetQueueItem(ctx, id)
}

// AssignTailor puts a work item in a tailor's hands. The capacity claim, the
// item update, and the order's tailor mirror commit atomically: if the tailor
// is full nothing changes anywhere.
func (s *QueueService) AssignTailor(ctx context.Context, itemID, tailorID string, actor model.Actor, estimate *time.Time) (*model.QueueItem, error) {
	if err := s.allow(actor, "queue", "assign"); err != nil {
		return nil, err
	}

	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, model.ErrQueueItemArchived
	}
	if item.Assignment != nil {
		return nil, fmt.Errorf("%w: held by tailor %s", model.ErrAlreadyAssigned, item.Assignment.TailorID)
	}

	order, err := s.store.GetOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upd := item.Clone()
	upd.Assignment = &model.TailorAssignment{
		TailorID:            tailorID,
		AssignedAt:          now,
		EstimatedCompletion: estimate,
	}
	upd.UpdatedAt = now
	upd.Version = item.Version + 1

	mirrored := order.Clone()
	mirrored.AssignedTailor = &tailorID
	mirrored.UpdatedAt = now
	mirrored.Version = order.Version + 1

	evt := model.NewOrderEvent(model.EventQueueAssigned, order, order.Status, order.Status, actor, now).
		With("queue_item_id", item.ID).
		With("tailor_id", tailorID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.ClaimTailor(ctx, tailorID); err != nil {
		return nil, err
	}
	if err := tx.UpdateQueueItem(ctx, upd, item.Version); err != nil {
		return nil, err
	}
	if err := tx.UpdateOrder(ctx, mirrored, order.Version); err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.m.ObserveAssignment("assign")
	slog.Info("work item assigned", "item", item.ID, "order", item.OrderNumber, "tailor", tailorID)
	return upd, nil
}

// ReassignTailor moves a held work item to another tailor. The new slot is
// claimed before the old one is released, so a full target rejects the whole
// move and the current tailor keeps the item. Reassigning to the holder is a
// no-op.
func (s *QueueService) ReassignTailor(ctx context.Context, itemID, tailorID string, actor model.Actor) (*model.QueueItem, error) {
	if err := s.allow(actor, "queue", "assign"); err != nil {
		return nil, err
	}

	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, model.ErrQueueItemArchived
	}
	if item.Assignment == nil {
		return nil, model.ErrNotAssigned
	}
	prev := item.Assignment.TailorID
	if prev == tailorID {
		return item, nil
	}

	order, err := s.store.GetOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upd := item.Clone()
	upd.Assignment = &model.TailorAssignment{
		TailorID:            tailorID,
		AssignedAt:          now,
		EstimatedCompletion: item.Assignment.EstimatedCompletion,
	}
	upd.UpdatedAt = now
	upd.Version = item.Version + 1

	mirrored := order.Clone()
	mirrored.AssignedTailor = &tailorID
	mirrored.UpdatedAt = now
	mirrored.Version = order.Version + 1

	evt := model.NewOrderEvent(model.EventQueueReassigned, order, order.Status, order.Status, actor, now).
		With("queue_item_id", item.ID).
		With("from_tailor", prev).
		With("to_tailor", tailorID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.ClaimTailor(ctx, tailorID); err != nil {
		return nil, err
	}
	if err := tx.ReleaseTailor(ctx, prev); err != nil {
		return nil, err
	}
	if err := tx.UpdateQueueItem(ctx, upd, item.Version); err != nil {
		return nil, err
	}
	if err := tx.UpdateOrder(ctx, mirrored, order.Version); err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.m.ObserveAssignment("reassign")
	slog.Info("work item reassigned", "item", item.ID, "from", prev, "to", tailorID)
	return upd, nil
}

// UpdateSubStatus advances a work item on the board and appends the matching
// note. Setting the current value again is a no-op. When the last active work
// item of an order completes, the order itself is nudged to quality check on
// the system's behalf; a failure there is logged and never undoes the board
// write.
func (s *QueueService) UpdateSubStatus(ctx context.Context, itemID string, sub model.SubStatus, actor model.Actor, note string) (*model.QueueItem, error) {
	if err := s.allow(actor, "queue", "substatus"); err != nil {
		return nil, err
	}
	if !sub.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidSubStatus, sub)
	}

	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, model.ErrQueueItemArchived
	}
	if item.Status == sub {
		return item, nil
	}

	now := s.now()
	body := note
	if body == "" {
		body = fmt.Sprintf("moved to %s", sub)
	}
	upd := item.Clone()
	upd.Status = sub
	upd.Notes = append(upd.Notes, model.QueueNote{
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Kind:       model.NoteStatus,
		Body:       body,
		CreatedAt:  now,
	})
	upd.UpdatedAt = now
	upd.Version = item.Version + 1

	evt := &model.DomainEvent{
		ID:          model.NewID(),
		Type:        model.EventQueueProgress,
		OrderID:     item.OrderID,
		OrderNumber: item.OrderNumber,
		Actor:       actor,
		At:          now,
		Payload: map[string]any{
			"queue_item_id": item.ID,
			"from":          item.Status,
			"to":            sub,
		},
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.UpdateQueueItem(ctx, upd, item.Version); err != nil {
		return nil, err
	}
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if sub == model.SubCompleted {
		s.maybeAdvanceOrder(ctx, item.OrderID)
	}
	return upd, nil
}

// maybeAdvanceOrder moves an in-production order to quality-check once every
// active work item is completed. Sub-status flows upward into the lifecycle
// only here, and only in this one direction.
func (s *QueueService) maybeAdvanceOrder(ctx context.Context, orderID string) {
	items, err := s.store.ListQueueItemsByOrder(ctx, orderID)
	if err != nil {
		slog.Error("check order progress failed", "order", orderID, "error", err)
		return
	}
	for _, q := range items {
		if q.Archived {
			continue
		}
		if q.Status != model.SubCompleted {
			return
		}
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		slog.Error("check order progress failed", "order", orderID, "error", err)
		return
	}
	if order.Status != model.StatusInProduction {
		return
	}
	if _, err := s.authority.Transition(ctx, orderID, model.StatusQualityCheck, model.System, "all work items completed"); err != nil {
		slog.Error("auto-advance to quality check failed", "order", orderID, "error", err)
	}
}

// AddNote appends a remark to a work item without touching its status.
func (s *QueueService) AddNote(ctx context.Context, itemID string, actor model.Actor, kind model.NoteKind, body string) (*model.QueueItem, error) {
	if err := s.allow(actor, "queue", "substatus"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: note body required", model.ErrMissingReason)
	}
	switch kind {
	case "":
		kind = model.NoteInfo
	case model.NoteStatus, model.NoteIssue, model.NoteInfo:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", model.ErrInvalidNote, kind)
	}

	item, err := s.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, model.ErrQueueItemArchived
	}

	now := s.now()
	upd := item.Clone()
	upd.Notes = append(upd.Notes, model.QueueNote{
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Kind:       kind,
		Body:       body,
		CreatedAt:  now,
	})
	upd.UpdatedAt = now
	upd.Version = item.Version + 1

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if err := tx.UpdateQueueItem(ctx, upd, item.Version); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return upd, nil
}

// BulkResult reports a per-id fan-out: which ids changed and why the rest
// did not.
type BulkResult struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// BulkUpdateSubStatus applies one sub-status to many work items. Items are
// independent: each failure is recorded against its id and never stops the
// others.
func (s *QueueService) BulkUpdateSubStatus(ctx context.Context, ids []string, sub model.SubStatus, actor model.Actor) (*BulkResult, error) {
	if err := s.allow(actor, "queue", "substatus"); err != nil {
		return nil, err
	}
	if !sub.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidSubStatus, sub)
	}

	res := &BulkResult{Failed: make(map[string]string)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(bulkWorkers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := s.UpdateSubStatus(ctx, id, sub, actor, ""); err != nil {
				mu.Lock()
				res.Failed[id] = err.Error()
				mu.Unlock()
				return nil
			}
			mu.Lock()
			res.Updated = append(res.Updated, id)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res, nil
}

// RegisterTailor adds a worker to the roster.
func (s *QueueService) RegisterTailor(ctx context.Context, actor model.Actor, name, phone, specialty string, capacity int) (*model.Tailor, error) {
	if err := s.allow(actor, "tailor", "manage"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name required", model.ErrInvalidTailor)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", model.ErrInvalidTailor)
	}

	t := &model.Tailor{
		ID:            model.NewID(),
		Name:          name,
		Phone:         phone,
		Specialty:     specialty,
		CapacityLimit: capacity,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateTailor(ctx, t); err != nil {
		return nil, fmt.Errorf("create tailor: %w", err)
	}
	slog.Info("tailor registered", "tailor", t.ID, "name", t.Name, "capacity", t.CapacityLimit)
	return t, nil
}

func (s *QueueService) Tailors(ctx context.Context) ([]*model.Tailor, error) {
	return s.store.ListTailors(ctx)
}

// NotifyTailors stages a staff notice event per tailor. Unknown tailors are
// reported individually; the rest still get their notice.
func (s *QueueService) NotifyTailors(ctx context.Context, tailorIDs []string, message string, actor model.Actor) (*BulkResult, error) {
	if err := s.allow(actor, "notice", "send"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: notice message required", model.ErrMissingReason)
	}

	res := &BulkResult{Failed: make(map[string]string)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(bulkWorkers)

	for _, id := range tailorIDs {
		id := id
		g.Go(func() error {
			t, err := s.store.GetTailor(ctx, id)
			if err != nil {
				mu.Lock()
				res.Failed[id] = err.Error()
				mu.Unlock()
				return nil
			}
			evt := &model.DomainEvent{
				ID:    model.NewID(),
				Type:  model.EventStaffNotice,
				Actor: actor,
				At:    s.now(),
				Payload: map[string]any{
					"tailor_id":   t.ID,
					"tailor_name": t.Name,
					"phone":       t.Phone,
					"message":     message,
				},
			}
			if err := s.store.AppendEvent(ctx, evt); err != nil {
				mu.Lock()
				res.Failed[id] = err.Error()
				mu.Unlock()
				return nil
			}
			mu.Lock()
			res.Updated = append(res.Updated, id)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res, nil
}
