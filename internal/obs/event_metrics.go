package obs

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/events"
)

// EventMetrics translates domain events into Prometheus counters. It is wired
// into the event bus as a notifier, so every emitter feeds the same metrics.
type EventMetrics struct {
	Metrics *StoreMetrics
}

// Notify increments the counter matching the event topic.
func (e EventMetrics) Notify(_ context.Context, ev domain.Event) error {
	if e.Metrics == nil {
		return nil
	}
	switch ev.Topic {
	case events.TopicOrderCreated:
		var payload struct {
			Discounted bool `json:"discounted"`
			Upsell     bool `json:"upsell"`
		}
		_ = json.Unmarshal(ev.Payload, &payload)
		e.Metrics.OrdersCreated.
			WithLabelValues(strconv.FormatBool(payload.Discounted), strconv.FormatBool(payload.Upsell)).
			Inc()
	case events.TopicDiscountSettled:
		e.Metrics.DiscountSettlements.WithLabelValues("settled").Inc()
	case events.TopicDiscountReleased:
		e.Metrics.DiscountSettlements.WithLabelValues("released").Inc()
	}
	return nil
}
