package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubSettler struct {
	settled bool
	err     error
	calls   int
	code    string
	orderID uuid.UUID
}

func (s *stubSettler) Settle(_ context.Context, code string, orderID uuid.UUID) (bool, error) {
	s.calls++
	s.code = code
	s.orderID = orderID
	return s.settled, s.err
}

func TestHandleSettle(t *testing.T) {
	settler := &stubSettler{settled: true}
	worker := &Worker{Discounts: settler}

	orderID := uuid.New()
	task, err := NewSettleTask(orderID, "SUMMER15")
	require.NoError(t, err)

	require.NoError(t, worker.HandleSettle(context.Background(), task))
	require.Equal(t, 1, settler.calls)
	require.Equal(t, "SUMMER15", settler.code)
	require.Equal(t, orderID, settler.orderID)
}

func TestHandleSettleRetriesOnError(t *testing.T) {
	settler := &stubSettler{err: errors.New("db down")}
	worker := &Worker{Discounts: settler}

	task, err := NewSettleTask(uuid.New(), "SUMMER15")
	require.NoError(t, err)

	err = worker.HandleSettle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSettleSkipsMalformedPayload(t *testing.T) {
	worker := &Worker{Discounts: &stubSettler{}}

	task := asynq.NewTask(TypeDiscountSettle, []byte("not json"))
	err := worker.HandleSettle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)

	payload, _ := json.Marshal(SettlePayload{})
	err = worker.HandleSettle(context.Background(), asynq.NewTask(TypeDiscountSettle, payload))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNewSettleTaskRequiresOrder(t *testing.T) {
	_, err := NewSettleTask(uuid.Nil, "SUMMER15")
	require.Error(t, err)
}
