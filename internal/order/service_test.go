package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

type memOrderStore struct {
	orders map[uuid.UUID]*domain.Order
}

func (m *memOrderStore) GetByID(_ context.Context, id uuid.UUID) (domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return *o, nil
}

func (m *memOrderStore) ListByUser(_ context.Context, userID uuid.UUID, _ common.Page) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderStore) List(_ context.Context, status *domain.OrderStatus, _ common.Page) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if status == nil || o.Status == *status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Status = status
	return *o, nil
}

func (m *memOrderStore) ListItems(context.Context, uuid.UUID) ([]domain.OrderItem, error) {
	return nil, nil
}

type recordingReleaser struct {
	released []uuid.UUID
}

func (r *recordingReleaser) Release(_ context.Context, orderID uuid.UUID) error {
	r.released = append(r.released, orderID)
	return nil
}

func seedOrder(store *memOrderStore, userID *uuid.UUID, status domain.OrderStatus) uuid.UUID {
	id := uuid.New()
	store.orders[id] = &domain.Order{ID: id, UserID: userID, Status: status}
	return id
}

func TestCancelPendingOrder(t *testing.T) {
	store := &memOrderStore{orders: map[uuid.UUID]*domain.Order{}}
	releaser := &recordingReleaser{}
	svc := &Service{Store: store, Discount: releaser}

	userID := uuid.New()
	orderID := seedOrder(store, &userID, domain.OrderPending)

	o, err := svc.Cancel(context.Background(), orderID, &userID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCanceled, o.Status)
	require.Equal(t, []uuid.UUID{orderID}, releaser.released)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	store := &memOrderStore{orders: map[uuid.UUID]*domain.Order{}}
	svc := &Service{Store: store}

	userID := uuid.New()
	orderID := seedOrder(store, &userID, domain.OrderShipped)

	_, err := svc.Cancel(context.Background(), orderID, &userID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelForeignOrderForbidden(t *testing.T) {
	store := &memOrderStore{orders: map[uuid.UUID]*domain.Order{}}
	svc := &Service{Store: store}

	owner := uuid.New()
	orderID := seedOrder(store, &owner, domain.OrderPending)

	other := uuid.New()
	_, err := svc.Cancel(context.Background(), orderID, &other)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSetStatusFollowsLifecycle(t *testing.T) {
	store := &memOrderStore{orders: map[uuid.UUID]*domain.Order{}}
	svc := &Service{Store: store}

	orderID := seedOrder(store, nil, domain.OrderPending)

	o, err := svc.SetStatus(context.Background(), orderID, domain.OrderConfirmed)
	require.NoError(t, err)
	require.Equal(t, domain.OrderConfirmed, o.Status)

	_, err = svc.SetStatus(context.Background(), orderID, domain.OrderCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)

	o, err = svc.SetStatus(context.Background(), orderID, domain.OrderShipped)
	require.NoError(t, err)
	require.Equal(t, domain.OrderShipped, o.Status)

	o, err = svc.SetStatus(context.Background(), orderID, domain.OrderCompleted)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCompleted, o.Status)
}
