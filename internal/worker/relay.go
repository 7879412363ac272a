// Package worker runs the background loops of the platform.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/metrics"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/notify"
	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/store"
)

// Relay drains the event outbox: every tick it loads unsent events in insert
// order and hands them to the publisher. An event is marked sent only after a
// successful publish, so delivery is at-least-once and a broker outage simply
// leaves events queued for the next tick.
type Relay struct {
	store     store.Store
	pub       notify.Publisher
	m         *metrics.Metrics
	interval  time.Duration
	batchSize int
}

func NewRelay(st store.Store, pub notify.Publisher, m *metrics.Metrics) *Relay {
	return &Relay{
		store:     st,
		pub:       pub,
		m:         m,
		interval:  2 * time.Second,
		batchSize: 20,
	}
}

func (r *Relay) Start(ctx context.Context) {
	slog.Info("starting outbox relay")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.processBatch(ctx); err != nil {
				slog.Error("relay batch failed", "error", err)
			}
		}
	}
}

func (r *Relay) processBatch(ctx context.Context) error {
	recs, err := r.store.PendingEvents(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("load pending events: %w", err)
	}

	for _, rec := range recs {
		if err := r.pub.Publish(ctx, rec.EventID, string(rec.Type), rec.Payload); err != nil {
			r.m.ObserveDispatch("failed")
			slog.Error("publish event failed", "event", rec.EventID, "type", rec.Type, "error", err)
			continue
		}
		if err := r.store.MarkEventSent(ctx, rec.ID, time.Now()); err != nil {
			slog.Error("mark event sent failed", "event", rec.EventID, "error", err)
			continue
		}
		r.m.ObserveDispatch("sent")
	}
	return nil
}
