package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/selara/backend-store/internal/events"
)

// Settler commits a reserved discount usage exactly once per order.
type Settler interface {
	Settle(ctx context.Context, code string, orderID uuid.UUID) (bool, error)
}

// Worker handles queued storefront tasks.
type Worker struct {
	Discounts Settler
	Events    *events.Bus
	Log       zerolog.Logger
}

// Register attaches the worker's handlers to an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDiscountSettle, w.HandleSettle)
}

// HandleSettle commits the discount usage reserved at checkout. Settlement is
// idempotent in storage, so retried deliveries are safe.
func (w *Worker) HandleSettle(ctx context.Context, t *asynq.Task) error {
	var payload SettlePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode settle payload: %w", asynq.SkipRetry)
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("settle payload missing order id: %w", asynq.SkipRetry)
	}

	settled, err := w.Discounts.Settle(ctx, payload.Code, payload.OrderID)
	if err != nil {
		w.Log.Error().Err(err).
			Str("order_id", payload.OrderID.String()).
			Str("code", payload.Code).
			Msg("settle discount usage")
		return err
	}
	if !settled {
		return nil
	}

	if w.Events != nil {
		if _, err := w.Events.Emit(ctx, events.TopicDiscountSettled, payload.OrderID, map[string]any{
			"code": payload.Code,
		}); err != nil {
			w.Log.Warn().Err(err).Msg("emit discount settled")
		}
	}
	w.Log.Info().
		Str("order_id", payload.OrderID.String()).
		Str("code", payload.Code).
		Msg("discount usage settled")
	return nil
}
