package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/domain"
)

// Store defines the persistence operations required by the event bus.
type Store interface {
	Insert(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (domain.Event, error)
}

// Notifier reacts to emitted events, e.g. task enqueuers or metrics.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event) error
}

// NotifierFunc adapts a plain function into a Notifier.
type NotifierFunc func(ctx context.Context, event domain.Event) error

func (f NotifierFunc) Notify(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// Bus persists domain events and fans them out to downstream handlers.
// Persistence failures abort the emit; notifier failures are joined and
// reported without undoing the persisted event.
type Bus struct {
	Store     Store
	Notifiers []Notifier
}

// Emit records the event and dispatches it to all configured handlers.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (domain.Event, error) {
	if b == nil || b.Store == nil {
		return domain.Event{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domain.Event{}, errors.New("events: topic is required")
	}
	if aggregateID == uuid.Nil {
		return domain.Event{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev, err := b.Store.Insert(ctx, topic, aggregateID, encoded)
	if err != nil {
		return domain.Event{}, fmt.Errorf("events: persist event: %w", err)
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	switch v := payload.(type) {
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	case json.RawMessage:
		return encodePayload([]byte(v))
	case string:
		return encodePayload([]byte(strings.TrimSpace(v)))
	default:
		return json.Marshal(v)
	}
}
