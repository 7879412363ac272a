// Package notify delivers domain events to their consumers: in-process
// subscribers (dashboard, tracking cache) and, when configured, a RabbitMQ
// queue for the WhatsApp/email senders. Delivery is advisory; order state
// never depends on it.
package notify

import (
	"context"
	"errors"
)

// Publisher hands one staged event to a destination. Implementations must be
// safe for use from the relay goroutine.
type Publisher interface {
	Publish(ctx context.Context, id string, topic string, payload []byte) error
}

// Fanout publishes to every destination, attempting all of them even when
// some fail, and reports the combined failure.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, id, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
