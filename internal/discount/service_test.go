package discount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

type fakeStore struct {
	codes   map[string]domain.DiscountCode
	lookup  error
	usages  map[string]bool
	settled map[string]bool
}

func newFakeStore(codes ...domain.DiscountCode) *fakeStore {
	s := &fakeStore{
		codes:   map[string]domain.DiscountCode{},
		usages:  map[string]bool{},
		settled: map[string]bool{},
	}
	for _, c := range codes {
		s.codes[Normalize(c.Code)] = c
	}
	return s
}

func (s *fakeStore) GetByCode(_ context.Context, code string) (domain.DiscountCode, error) {
	if s.lookup != nil {
		return domain.DiscountCode{}, s.lookup
	}
	c, ok := s.codes[Normalize(code)]
	if !ok {
		return domain.DiscountCode{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) GetByID(context.Context, uuid.UUID) (domain.DiscountCode, error) {
	return domain.DiscountCode{}, domain.ErrNotFound
}

func (s *fakeStore) List(context.Context, common.Page) ([]domain.DiscountCode, error) {
	return nil, nil
}

func (s *fakeStore) Create(_ context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	return d, nil
}

func (s *fakeStore) Update(_ context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	return d, nil
}

func (s *fakeStore) Delete(context.Context, uuid.UUID) error { return nil }

func (s *fakeStore) InsertUsage(_ context.Context, codeID, orderID uuid.UUID, _ int64) error {
	s.usages[codeID.String()+orderID.String()] = true
	return nil
}

func (s *fakeStore) SettleUsage(_ context.Context, codeID, orderID uuid.UUID) (bool, error) {
	key := codeID.String() + orderID.String()
	if !s.usages[key] || s.settled[key] {
		return false, nil
	}
	s.settled[key] = true
	return true, nil
}

func (s *fakeStore) ReleaseUsage(context.Context, uuid.UUID) error { return nil }

func fixedNow() time.Time {
	return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
}

func activeCode(code string) domain.DiscountCode {
	end := fixedNow().AddDate(0, 1, 0)
	return domain.DiscountCode{
		ID:             uuid.New(),
		Code:           code,
		Type:           domain.DiscountPercentage,
		Value:          1500,
		Scope:          domain.ScopeCart,
		LimitationType: domain.LimitationDateRange,
		EndDate:        &end,
		IsActive:       true,
	}
}

func TestPreviewEmptyCode(t *testing.T) {
	svc := &Service{Store: newFakeStore(), Now: fixedNow}
	if _, err := svc.Preview(context.Background(), "   ", nil); err != ErrEmptyCode {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}

func TestPreviewUnknownCode(t *testing.T) {
	svc := &Service{Store: newFakeStore(), Now: fixedNow}
	if _, err := svc.Preview(context.Background(), "NOPE", nil); err != ErrCodeNotFound {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestPreviewLookupFailureIsNotCodeNotFound(t *testing.T) {
	store := newFakeStore()
	store.lookup = errors.New("connection refused")
	svc := &Service{Store: store, Now: fixedNow}
	_, err := svc.Preview(context.Background(), "SUMMER", nil)
	if err == nil || errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestPreviewCaseInsensitive(t *testing.T) {
	svc := &Service{Store: newFakeStore(activeCode("SUMMER15")), Now: fixedNow}
	lines := []Line{{ProductID: uuid.New(), Qty: 2, UnitPrice: 5000, Subtotal: 10000}}
	res, err := svc.Preview(context.Background(), " summer15 ", lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Discount != 1500 {
		t.Fatalf("expected 1500 off 10000 at 15%%, got %d", res.Discount)
	}
}

func TestPreviewExpired(t *testing.T) {
	code := activeCode("OLD")
	past := fixedNow().AddDate(0, -1, 0)
	code.EndDate = &past
	svc := &Service{Store: newFakeStore(code), Now: fixedNow}
	if _, err := svc.Preview(context.Background(), "OLD", nil); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestPreviewUsageLimit(t *testing.T) {
	limit := int32(10)
	code := activeCode("CAPPED")
	code.LimitationType = domain.LimitationUsageLimit
	code.EndDate = nil
	code.UsageLimit = &limit
	code.TimesUsed = 10
	svc := &Service{Store: newFakeStore(code), Now: fixedNow}
	if _, err := svc.Preview(context.Background(), "CAPPED", nil); err != ErrUsageLimitReached {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestPreviewProductScopedUsesUnitPrice(t *testing.T) {
	prodID := uuid.New()
	code := activeCode("ITEM10")
	code.Scope = domain.ScopeProduct
	code.ProductID = &prodID
	code.Value = 1000
	svc := &Service{Store: newFakeStore(code), Now: fixedNow}
	lines := []Line{{ProductID: prodID, Qty: 3, UnitPrice: 8990, Subtotal: 26970}}
	res, err := svc.Preview(context.Background(), "ITEM10", lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Base != 8990 {
		t.Fatalf("expected unit price base 8990, got %d", res.Base)
	}
	if res.Discount != 899 {
		t.Fatalf("expected 899, got %d", res.Discount)
	}
}

func TestSettleIdempotent(t *testing.T) {
	code := activeCode("ONCE")
	store := newFakeStore(code)
	svc := &Service{Store: store, Now: fixedNow}
	orderID := uuid.New()

	if err := svc.Reserve(context.Background(), store, code.ID, orderID, 1500); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	first, err := svc.Settle(context.Background(), "ONCE", orderID)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !first {
		t.Fatal("expected first settle to apply")
	}
	second, err := svc.Settle(context.Background(), "ONCE", orderID)
	if err != nil {
		t.Fatalf("second settle failed: %v", err)
	}
	if second {
		t.Fatal("expected second settle to be a no-op")
	}
}

func TestSettleUnknownCodeIsNoOp(t *testing.T) {
	svc := &Service{Store: newFakeStore(), Now: fixedNow}
	applied, err := svc.Settle(context.Background(), "GHOST", uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatal("expected no-op for unknown code")
	}
}
