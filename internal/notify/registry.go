package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

// Registry fans events out to named in-process subscribers. Sends never
// block: a subscriber whose buffer is full misses the event and a warning is
// logged. Subscriptions live for the life of the process.
type Registry struct {
	mu     sync.RWMutex
	subs   map[string]chan model.DomainEvent
	buffer int
	closed bool
}

func NewRegistry(buffer int) *Registry {
	if buffer < 1 {
		buffer = 1
	}
	return &Registry{
		subs:   make(map[string]chan model.DomainEvent),
		buffer: buffer,
	}
}

// Subscribe registers id and returns its event channel. Subscribing an
// existing id replaces the old subscription and closes its channel.
func (r *Registry) Subscribe(id string) <-chan model.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		ch := make(chan model.DomainEvent)
		close(ch)
		return ch
	}
	if old, ok := r.subs[id]; ok {
		close(old)
	}
	ch := make(chan model.DomainEvent, r.buffer)
	r.subs[id] = ch
	return ch
}

// Unsubscribe removes id and closes its channel. Unknown ids are a no-op.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.subs[id]; ok {
		close(ch)
		delete(r.subs, id)
	}
}

// Broadcast offers the event to every subscriber and returns how many
// accepted it.
func (r *Registry) Broadcast(evt model.DomainEvent) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0
	}
	delivered := 0
	for id, ch := range r.subs {
		select {
		case ch <- evt:
			delivered++
		default:
			slog.Warn("subscriber buffer full, event dropped", "subscriber", id, "event", evt.Type)
		}
	}
	return delivered
}

// Close shuts every subscription down. Further broadcasts are dropped.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
}

// RegistryPublisher adapts the Registry to the Publisher interface so the
// outbox relay can feed in-process subscribers.
type RegistryPublisher struct {
	reg *Registry
}

func NewRegistryPublisher(reg *Registry) *RegistryPublisher {
	return &RegistryPublisher{reg: reg}
}

func (p *RegistryPublisher) Publish(_ context.Context, id string, _ string, payload []byte) error {
	var evt model.DomainEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("decode event %s: %w", id, err)
	}
	p.reg.Broadcast(evt)
	return nil
}
