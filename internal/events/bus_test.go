package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/events"
	"github.com/atacadocell/backend-atacado/internal/store"
)

type stubStore struct {
	lastTopic     string
	lastAggregate string
	lastPayload   []byte
}

func (s *stubStore) Append(_ context.Context, topic, aggregateID string, payload []byte) (store.DomainEvent, error) {
	s.lastTopic = topic
	s.lastAggregate = aggregateID
	s.lastPayload = payload
	return store.DomainEvent{
		ID:          store.NewUUID(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}, nil
}

type captureScheduler struct {
	events []store.DomainEvent
	err    error
}

func (c *captureScheduler) Schedule(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

type captureNotifier struct {
	events []store.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	st := &stubStore{}
	scheduler := &captureScheduler{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     st,
		Scheduler: scheduler,
		Notifiers: []events.Notifier{notifier},
	}

	payload := map[string]any{"orderId": "123"}
	event, err := bus.Emit(context.Background(), events.TopicOrderCreated, "order-123", payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, st.lastTopic)
	require.Equal(t, "order-123", st.lastAggregate)
	require.JSONEq(t, `{"orderId":"123"}`, string(st.lastPayload))
	require.Len(t, scheduler.events, 1)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, scheduler.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["orderId"])
}

func TestEmitRejectsMissingTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), " ", "lead-1", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicLeadCaptured, "", nil)
	require.Error(t, err)
}

func TestEmitReturnsEventDespiteSchedulerError(t *testing.T) {
	scheduler := &captureScheduler{err: errors.New("queue down")}
	bus := events.Bus{Store: &stubStore{}, Scheduler: scheduler}

	event, err := bus.Emit(context.Background(), events.TopicLeadCaptured, "lead-1", `{"phone":"+5511999999999"}`)
	require.Error(t, err)
	require.True(t, event.ID.Valid)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), events.TopicKitUpdated, "kit-1", "{not json")
	require.Error(t, err)
}
