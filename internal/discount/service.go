package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/pricing"
)

// Store captures the persistence methods required by the discount service.
type Store interface {
	GetByCode(ctx context.Context, code string) (domain.DiscountCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.DiscountCode, error)
	List(ctx context.Context, page common.Page) ([]domain.DiscountCode, error)
	Create(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error)
	Update(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
	InsertUsage(ctx context.Context, codeID, orderID uuid.UUID, amount int64) error
	SettleUsage(ctx context.Context, codeID, orderID uuid.UUID) (bool, error)
	ReleaseUsage(ctx context.Context, orderID uuid.UUID) error
}

// PreviewResult describes the outcome of evaluating a code without mutating state.
type PreviewResult struct {
	Code     string        `json:"code"`
	CodeID   uuid.UUID     `json:"-"`
	Base     pricing.Money `json:"base"`
	Discount pricing.Money `json:"discount"`
}

// Service evaluates discount codes and settles their usage.
type Service struct {
	Store Store
	Now   func() time.Time
	// Observe, when set, receives the outcome of each validation.
	Observe func(result string)
}

// Preview performs a dry-run evaluation of a code against the given cart lines.
// A failed lookup is reported as a wrapped transport error, never as ErrCodeNotFound.
func (s *Service) Preview(ctx context.Context, code string, lines []Line) (PreviewResult, error) {
	res, err := s.preview(ctx, code, lines)
	if s != nil && s.Observe != nil {
		s.Observe(outcomeFor(err))
	}
	return res, err
}

func (s *Service) preview(ctx context.Context, code string, lines []Line) (PreviewResult, error) {
	if s == nil || s.Store == nil {
		return PreviewResult{}, errors.New("discount service not configured")
	}
	normalized := Normalize(code)
	if normalized == "" {
		return PreviewResult{}, ErrEmptyCode
	}
	stored, err := s.Store.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return PreviewResult{}, ErrCodeNotFound
		}
		return PreviewResult{}, fmt.Errorf("look up discount code: %w", err)
	}
	rule := RuleFromCode(stored)
	if err := rule.Validate(s.now()); err != nil {
		return PreviewResult{}, err
	}
	base, err := rule.Base(lines)
	if err != nil {
		return PreviewResult{}, err
	}
	amount := rule.Amount(base)
	return PreviewResult{Code: stored.Code, CodeID: stored.ID, Base: base, Discount: amount}, nil
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, ErrEmptyCode):
		return "empty"
	case errors.Is(err, ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrUsageLimitReached):
		return "exhausted"
	case errors.Is(err, ErrNotApplicable):
		return "not_applicable"
	default:
		return "error"
	}
}

// Reserve records a pending usage row for the order inside the caller's transaction.
func (s *Service) Reserve(ctx context.Context, store Store, codeID, orderID uuid.UUID, amount pricing.Money) error {
	if amount < 0 {
		amount = 0
	}
	return store.InsertUsage(ctx, codeID, orderID, amount)
}

// Settle commits a reserved usage, bumping the counter exactly once per order.
// Settling an unknown or already settled order is a no-op.
func (s *Service) Settle(ctx context.Context, code string, orderID uuid.UUID) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("discount service not configured")
	}
	normalized := Normalize(code)
	if normalized == "" {
		return false, nil
	}
	stored, err := s.Store.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up discount code: %w", err)
	}
	return s.Store.SettleUsage(ctx, stored.ID, orderID)
}

// Release drops an unsettled reservation when an order is canceled.
func (s *Service) Release(ctx context.Context, orderID uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("discount service not configured")
	}
	return s.Store.ReleaseUsage(ctx, orderID)
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
