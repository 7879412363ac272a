package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

func event(t model.EventType) model.DomainEvent {
	return model.DomainEvent{ID: model.NewID(), Type: t, Actor: model.System}
}

func TestRegistryBroadcast(t *testing.T) {
	r := NewRegistry(2)
	defer r.Close()

	a := r.Subscribe("whatsapp")
	b := r.Subscribe("dashboard")

	n := r.Broadcast(event(model.EventPaymentVerified))
	assert.Equal(t, 2, n)

	assert.Equal(t, model.EventPaymentVerified, (<-a).Type)
	assert.Equal(t, model.EventPaymentVerified, (<-b).Type)
}

func TestRegistrySlowSubscriberDropsNotBlocks(t *testing.T) {
	r := NewRegistry(1)
	defer r.Close()

	slow := r.Subscribe("slow")
	r.Broadcast(event(model.EventOrderCreated))

	// Buffer full now; the next broadcast must not block and must report
	// zero deliveries.
	n := r.Broadcast(event(model.EventStatusChanged))
	assert.Equal(t, 0, n)

	assert.Equal(t, model.EventOrderCreated, (<-slow).Type)
}

func TestRegistryUnsubscribe(t *testing.T) {
	r := NewRegistry(1)
	defer r.Close()

	ch := r.Subscribe("tmp")
	r.Unsubscribe("tmp")

	_, open := <-ch
	assert.False(t, open, "channel closes on unsubscribe")
	assert.Equal(t, 0, r.Broadcast(event(model.EventOrderCreated)))
}

func TestRegistryResubscribeReplaces(t *testing.T) {
	r := NewRegistry(1)
	defer r.Close()

	old := r.Subscribe("dup")
	fresh := r.Subscribe("dup")

	_, open := <-old
	assert.False(t, open, "old channel closes when id is reused")

	r.Broadcast(event(model.EventQueueAssigned))
	assert.Equal(t, model.EventQueueAssigned, (<-fresh).Type)
}

func TestRegistryClose(t *testing.T) {
	r := NewRegistry(1)
	ch := r.Subscribe("x")
	r.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, r.Broadcast(event(model.EventOrderCreated)))

	// Subscribing after close yields a dead channel rather than a panic.
	dead := r.Subscribe("late")
	_, open = <-dead
	assert.False(t, open)
}

func TestRegistryPublisherDecodes(t *testing.T) {
	r := NewRegistry(1)
	defer r.Close()
	sub := r.Subscribe("s")

	evt := event(model.EventPaymentRejected)
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	p := NewRegistryPublisher(r)
	require.NoError(t, p.Publish(context.Background(), evt.ID, string(evt.Type), payload))
	got := <-sub
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, model.EventPaymentRejected, got.Type)

	err = p.Publish(context.Background(), "bad", "t", []byte("{not json"))
	assert.Error(t, err)
}

func TestFanoutTriesAll(t *testing.T) {
	r := NewRegistry(1)
	defer r.Close()
	sub := r.Subscribe("s")

	failing := publisherFunc(func(context.Context, string, string, []byte) error {
		return errors.New("broker down")
	})

	evt := event(model.EventStaffNotice)
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	f := Fanout{failing, NewRegistryPublisher(r)}
	err = f.Publish(context.Background(), evt.ID, string(evt.Type), payload)
	assert.Error(t, err, "failure is reported")
	assert.Equal(t, evt.ID, (<-sub).ID, "but later publishers still run")
}

type publisherFunc func(ctx context.Context, id string, topic string, payload []byte) error

func (f publisherFunc) Publish(ctx context.Context, id string, topic string, payload []byte) error {
	return f(ctx, id, topic, payload)
}
