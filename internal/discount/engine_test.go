package discount

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/domain"
)

func TestNormalize(t *testing.T) {
	if got := Normalize("  summer10 "); got != "SUMMER10" {
		t.Fatalf("expected SUMMER10, got %q", got)
	}
}

func TestValidateInactive(t *testing.T) {
	rule := Rule{IsActive: false, LimitationType: domain.LimitationDateRange}
	if err := rule.Validate(time.Now()); err != ErrInactive {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestValidateBeforeStartDate(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rule := Rule{IsActive: true, LimitationType: domain.LimitationDateRange, StartDate: &start, EndDate: &end}
	if err := rule.Validate(start.Add(-time.Hour)); err != ErrInactive {
		t.Fatalf("expected ErrInactive before start, got %v", err)
	}
	if err := rule.Validate(start.Add(time.Hour)); err != nil {
		t.Fatalf("expected valid inside window, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rule := Rule{IsActive: true, LimitationType: domain.LimitationDateRange, EndDate: &end}
	if err := rule.Validate(end.Add(time.Hour)); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateUsageLimit(t *testing.T) {
	limit := int32(5)
	rule := Rule{IsActive: true, LimitationType: domain.LimitationUsageLimit, UsageLimit: &limit, TimesUsed: 5}
	if err := rule.Validate(time.Now()); err != ErrUsageLimitReached {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
	rule.TimesUsed = 4
	if err := rule.Validate(time.Now()); err != nil {
		t.Fatalf("expected valid with quota remaining, got %v", err)
	}
}

func TestBaseCartScope(t *testing.T) {
	rule := Rule{Scope: domain.ScopeCart}
	lines := []Line{
		{ProductID: uuid.New(), Qty: 2, UnitPrice: 5000, Subtotal: 10000},
		{ProductID: uuid.New(), Qty: 1, UnitPrice: 3000, Subtotal: 3000},
	}
	base, err := rule.Base(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 13000 {
		t.Fatalf("expected base 13000, got %d", base)
	}
}

func TestBaseProductScopeUnitPrice(t *testing.T) {
	prodID := uuid.New()
	rule := Rule{Scope: domain.ScopeProduct, ProductID: &prodID}
	lines := []Line{{ProductID: prodID, Qty: 3, UnitPrice: 8990, Subtotal: 26970}}
	base, err := rule.Base(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 8990 {
		t.Fatalf("expected unit price base 8990, got %d", base)
	}
}

func TestBaseProductScopeLineTotal(t *testing.T) {
	prodID := uuid.New()
	rule := Rule{Scope: domain.ScopeProduct, ProductID: &prodID, BaseOnLineTotal: true}
	lines := []Line{{ProductID: prodID, Qty: 3, UnitPrice: 8990, Subtotal: 26970}}
	base, err := rule.Base(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 26970 {
		t.Fatalf("expected line total base 26970, got %d", base)
	}
}

func TestBaseProductScopeNoMatch(t *testing.T) {
	prodID := uuid.New()
	rule := Rule{Scope: domain.ScopeProduct, ProductID: &prodID}
	lines := []Line{{ProductID: uuid.New(), Qty: 1, UnitPrice: 5000, Subtotal: 5000}}
	if _, err := rule.Base(lines); err != ErrNotApplicable {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}

func TestAmountPercentage(t *testing.T) {
	rule := Rule{Type: domain.DiscountPercentage, Value: 1000}
	if got := rule.Amount(10000); got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
	// 15% of 269.70 is 40.455, rounds half-up to 40.46.
	rule = Rule{Type: domain.DiscountPercentage, Value: 1500}
	if got := rule.Amount(26970); got != 4046 {
		t.Fatalf("expected 4046, got %d", got)
	}
}

func TestAmountFixedClamped(t *testing.T) {
	rule := Rule{Type: domain.DiscountFixedAmount, Value: 20000}
	if got := rule.Amount(15000); got != 15000 {
		t.Fatalf("expected clamp to base 15000, got %d", got)
	}
}

func TestAmountZeroBase(t *testing.T) {
	rule := Rule{Type: domain.DiscountFixedAmount, Value: 500}
	if got := rule.Amount(0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
