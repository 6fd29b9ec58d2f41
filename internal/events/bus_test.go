package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/selara/backend-store/internal/domain"
)

type memEventStore struct {
	events []domain.Event
	err    error
}

func (m *memEventStore) Insert(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (domain.Event, error) {
	if m.err != nil {
		return domain.Event{}, m.err
	}
	ev := domain.Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	m.events = append(m.events, ev)
	return ev, nil
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &memEventStore{}
	var notified []string
	bus := &Bus{
		Store: store,
		Notifiers: []Notifier{NotifierFunc(func(_ context.Context, ev domain.Event) error {
			notified = append(notified, ev.Topic)
			return nil
		})},
	}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, uuid.New(), map[string]any{"total": 22925})
	require.NoError(t, err)
	require.Equal(t, TopicOrderCreated, ev.Topic)
	require.JSONEq(t, `{"total":22925}`, string(ev.Payload))
	require.Equal(t, []string{TopicOrderCreated}, notified)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &Bus{Store: &memEventStore{}}
	_, err := bus.Emit(context.Background(), "  ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), TopicOrderCreated, uuid.Nil, nil)
	require.Error(t, err)
}

func TestEmitStoreFailureAborts(t *testing.T) {
	bus := &Bus{Store: &memEventStore{err: errors.New("down")}}
	_, err := bus.Emit(context.Background(), TopicOrderCreated, uuid.New(), nil)
	require.Error(t, err)
}

func TestEmitNotifierFailureKeepsEvent(t *testing.T) {
	store := &memEventStore{}
	bus := &Bus{
		Store: store,
		Notifiers: []Notifier{NotifierFunc(func(context.Context, domain.Event) error {
			return errors.New("queue full")
		})},
	}
	_, err := bus.Emit(context.Background(), TopicOrderCreated, uuid.New(), nil)
	require.Error(t, err)
	require.Len(t, store.events, 1)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := &Bus{Store: &memEventStore{}}
	_, err := bus.Emit(context.Background(), TopicOrderCreated, uuid.New(), []byte("{broken"))
	require.Error(t, err)
}
