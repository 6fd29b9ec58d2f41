package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/events"
)

// ErrNotFound indicates the order could not be located.
var ErrNotFound = errors.New("order not found")

// ErrForbidden is returned when the caller does not own the order.
var ErrForbidden = errors.New("order belongs to a different user")

// ErrInvalidTransition is returned for status changes the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// Store captures the persistence methods required by the order service.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page common.Page) ([]domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus, page common.Page) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
}

// UsageReleaser drops unsettled discount reservations on cancellation.
type UsageReleaser interface {
	Release(ctx context.Context, orderID uuid.UUID) error
}

// Service handles order lifecycle after placement.
type Service struct {
	Store    Store
	Discount UsageReleaser
	Events   *events.Bus
	Log      zerolog.Logger
}

// transitions lists the allowed next states of the lifecycle.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderPending:   {domain.OrderConfirmed, domain.OrderCanceled},
	domain.OrderConfirmed: {domain.OrderShipped, domain.OrderCanceled},
	domain.OrderShipped:   {domain.OrderCompleted},
}

func canTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Get loads one order with its items, enforcing ownership when userID is set.
func (s *Service) Get(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (domain.Order, []domain.OrderItem, error) {
	if s == nil || s.Store == nil {
		return domain.Order{}, nil, errors.New("order service not configured")
	}
	o, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, nil, ErrNotFound
		}
		return domain.Order{}, nil, err
	}
	if userID != nil && (o.UserID == nil || *o.UserID != *userID) {
		return domain.Order{}, nil, ErrForbidden
	}
	items, err := s.Store.ListItems(ctx, o.ID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, items, nil
}

// ListByUser returns the user's orders.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, page common.Page) ([]domain.Order, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("order service not configured")
	}
	return s.Store.ListByUser(ctx, userID, page)
}

// List returns orders for the admin view, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *domain.OrderStatus, page common.Page) ([]domain.Order, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("order service not configured")
	}
	return s.Store.List(ctx, status, page)
}

// Cancel moves an order to CANCELED and releases its discount reservation.
// Customers may only cancel pending orders they own.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (domain.Order, error) {
	if s == nil || s.Store == nil {
		return domain.Order{}, errors.New("order service not configured")
	}
	o, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, err
	}
	if userID != nil && (o.UserID == nil || *o.UserID != *userID) {
		return domain.Order{}, ErrForbidden
	}
	if !canTransition(o.Status, domain.OrderCanceled) {
		return domain.Order{}, ErrInvalidTransition
	}
	updated, err := s.Store.UpdateStatus(ctx, id, domain.OrderCanceled)
	if err != nil {
		return domain.Order{}, err
	}
	if s.Discount != nil {
		if err := s.Discount.Release(ctx, id); err != nil {
			s.Log.Warn().Err(err).Str("order_id", id.String()).Msg("release discount reservation")
		}
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderCanceled, id, map[string]any{"orderId": id.String()}); err != nil {
			s.Log.Warn().Err(err).Str("order_id", id.String()).Msg("emit order canceled")
		}
	}
	return updated, nil
}

// SetStatus applies an admin status change, enforcing the lifecycle.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	if s == nil || s.Store == nil {
		return domain.Order{}, errors.New("order service not configured")
	}
	if status == domain.OrderCanceled {
		return s.Cancel(ctx, id, nil)
	}
	o, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, err
	}
	if !canTransition(o.Status, status) {
		return domain.Order{}, ErrInvalidTransition
	}
	updated, err := s.Store.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.Order{}, err
	}
	if status == domain.OrderConfirmed && s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicOrderConfirmed, id, map[string]any{"orderId": id.String()}); err != nil {
			s.Log.Warn().Err(err).Str("order_id", id.String()).Msg("emit order confirmed")
		}
	}
	return updated, nil
}
