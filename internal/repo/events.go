package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/domain"
)

// Events is an append-only log of domain events.
type Events struct {
	DB DBTX
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r Events) WithTx(tx DBTX) Events {
	return Events{DB: tx}
}

// Insert appends one event.
func (r Events) Insert(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (domain.Event, error) {
	var ev domain.Event
	err := r.DB.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	if err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// ListByAggregate returns the events of one aggregate in order of occurrence.
func (r Events) ListByAggregate(ctx context.Context, aggregateID uuid.UUID) ([]domain.Event, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events WHERE aggregate_id = $1
		ORDER BY occurred_at, id`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
