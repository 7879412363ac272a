package service

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/lifecycle"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

const (
	trackCacheSize = 512
	trackCacheTTL  = 30 * time.Second
)

// HistoryStep is one lifecycle hop as shown to the public. The acting user
// never leaves the building.
type HistoryStep struct {
	Status model.Status `json:"status"`
	At     time.Time    `json:"at"`
}

// ItemProgress is the public view of one work item on the production board.
type ItemProgress struct {
	Description string          `json:"description"`
	Status      model.SubStatus `json:"status"`
}

// Projection is everything a customer may see about an order from its
// number alone.
type Projection struct {
	OrderNumber         string         `json:"order_number"`
	Status              model.Status   `json:"status"`
	History             []HistoryStep  `json:"history"`
	EstimatedCompletion time.Time      `json:"estimated_completion"`
	ActualCompletion    *time.Time     `json:"actual_completion,omitempty"`
	NextStatuses        []model.Status `json:"next_statuses"`
	Production          []ItemProgress `json:"production,omitempty"`
}

type trackEntry struct {
	proj      *Projection
	expiresAt time.Time
}

// TrackingService serves the unauthenticated order-number lookup. Projections
// are cached for a short window and dropped early whenever an event for the
// order comes through, so the page is cheap to hammer yet never more than one
// hop behind.
type TrackingService struct {
	store store.Store
	cache *lru.Cache[string, trackEntry]
	ttl   time.Duration
	now   func() time.Time
}

func NewTrackingService(st store.Store) (*TrackingService, error) {
	cache, err := lru.New[string, trackEntry](trackCacheSize)
	if err != nil {
		return nil, err
	}
	return &TrackingService{
		store: st,
		cache: cache,
		ttl:   trackCacheTTL,
		now:   time.Now,
	}, nil
}

// Track resolves an order number to its public projection.
func (s *TrackingService) Track(ctx context.Context, orderNumber string) (*Projection, error) {
	if entry, ok := s.cache.Get(orderNumber); ok && s.now().Before(entry.expiresAt) {
		return entry.proj, nil
	}

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListQueueItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	proj := &Projection{
		OrderNumber:         order.OrderNumber,
		Status:              order.Status,
		History:             make([]HistoryStep, 0, len(order.StatusHistory)),
		EstimatedCompletion: order.EstimatedCompletion,
		ActualCompletion:    order.ActualCompletion,
		NextStatuses:        lifecycle.Successors(order.Status),
	}
	for _, h := range order.StatusHistory {
		proj.History = append(proj.History, HistoryStep{Status: h.Status, At: h.At})
	}
	for _, q := range items {
		if q.Archived {
			continue
		}
		proj.Production = append(proj.Production, ItemProgress{
			Description: q.Description,
			Status:      q.Status,
		})
	}

	s.cache.Add(orderNumber, trackEntry{proj: proj, expiresAt: s.now().Add(s.ttl)})
	return proj, nil
}

// HandleEvent drops the cached projection for the event's order so the next
// lookup sees the change immediately.
func (s *TrackingService) HandleEvent(evt model.DomainEvent) {
	if evt.OrderNumber == "" {
		return
	}
	s.cache.Remove(evt.OrderNumber)
}
