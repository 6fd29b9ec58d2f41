package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/events"
)

// ErrInvalidInput is returned when the submitted review is malformed.
var ErrInvalidInput = errors.New("invalid review")

// ErrNotFound indicates the review could not be located.
var ErrNotFound = errors.New("review not found")

// Store captures the persistence methods required by the reviews service.
type Store interface {
	Create(ctx context.Context, rv domain.Review) (domain.Review, error)
	ListApprovedByProduct(ctx context.Context, productID uuid.UUID, page common.Page) ([]domain.Review, error)
	ListPending(ctx context.Context, page common.Page) ([]domain.Review, error)
	Approve(ctx context.Context, id uuid.UUID) (domain.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service moderates product reviews. New reviews are hidden until approved.
type Service struct {
	Store  Store
	Events *events.Bus
	Log    zerolog.Logger
}

// Submit stores a review awaiting moderation.
func (s *Service) Submit(ctx context.Context, productID uuid.UUID, author string, rating int, body string) (domain.Review, error) {
	if s == nil || s.Store == nil {
		return domain.Review{}, errors.New("reviews service not configured")
	}
	author = strings.TrimSpace(author)
	body = strings.TrimSpace(body)
	if author == "" || body == "" {
		return domain.Review{}, ErrInvalidInput
	}
	if rating < 1 || rating > 5 {
		return domain.Review{}, ErrInvalidInput
	}
	created, err := s.Store.Create(ctx, domain.Review{
		ProductID: productID,
		Author:    author,
		Rating:    rating,
		Body:      body,
	})
	if err != nil {
		return domain.Review{}, err
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicReviewSubmitted, created.ProductID, map[string]any{
			"reviewId": created.ID.String(),
			"rating":   created.Rating,
		}); err != nil {
			s.Log.Warn().Err(err).Msg("emit review submitted")
		}
	}
	return created, nil
}

// ListApproved returns published reviews for a product.
func (s *Service) ListApproved(ctx context.Context, productID uuid.UUID, page common.Page) ([]domain.Review, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("reviews service not configured")
	}
	return s.Store.ListApprovedByProduct(ctx, productID, page)
}

// ListPending returns reviews awaiting moderation.
func (s *Service) ListPending(ctx context.Context, page common.Page) ([]domain.Review, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("reviews service not configured")
	}
	return s.Store.ListPending(ctx, page)
}

// Approve publishes a review.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (domain.Review, error) {
	if s == nil || s.Store == nil {
		return domain.Review{}, errors.New("reviews service not configured")
	}
	rv, err := s.Store.Approve(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicReviewApproved, rv.ProductID, map[string]any{
			"reviewId": rv.ID.String(),
		}); err != nil {
			s.Log.Warn().Err(err).Msg("emit review approved")
		}
	}
	return rv, nil
}

// Delete removes a review.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("reviews service not configured")
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
