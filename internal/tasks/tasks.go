package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeDiscountSettle commits a reserved discount usage after checkout.
const TypeDiscountSettle = "discount:settle"

// QueueDefault is the queue all storefront tasks run on.
const QueueDefault = "default"

// SettlePayload carries the discount usage to commit.
type SettlePayload struct {
	OrderID uuid.UUID `json:"orderId"`
	Code    string    `json:"code"`
}

// NewSettleTask builds the settlement task for an order's discount usage.
func NewSettleTask(orderID uuid.UUID, code string) (*asynq.Task, error) {
	if orderID == uuid.Nil {
		return nil, errors.New("order id required")
	}
	payload, err := json.Marshal(SettlePayload{OrderID: orderID, Code: code})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDiscountSettle, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// Enqueuer schedules storefront tasks on the asynq queue.
type Enqueuer struct {
	Client *asynq.Client
}

// EnqueueSettlement queues the discount usage commit for an order.
func (e Enqueuer) EnqueueSettlement(ctx context.Context, orderID uuid.UUID, code string) error {
	if e.Client == nil {
		return errors.New("task client not configured")
	}
	task, err := NewSettleTask(orderID, code)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, task)
	return err
}
