package discount

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/pricing"
)

var (
	// ErrEmptyCode is returned when the submitted code is blank after trimming.
	ErrEmptyCode = errors.New("discount code is empty")
	// ErrCodeNotFound indicates no code matched; distinct from lookup failures.
	ErrCodeNotFound = errors.New("discount code not found")
	// ErrInactive is returned for disabled codes or codes before their start date.
	ErrInactive = errors.New("discount code not active")
	// ErrExpired is returned when the code's validity window has passed.
	ErrExpired = errors.New("discount code expired")
	// ErrUsageLimitReached indicates the code exhausted its global quota.
	ErrUsageLimitReached = errors.New("discount code usage limit reached")
	// ErrNotApplicable is returned when a product-scoped code matches nothing in the cart.
	ErrNotApplicable = errors.New("discount code not applicable to this cart")
)

// Rule captures the runtime constraints of a discount code.
type Rule struct {
	ID             uuid.UUID
	Code           string
	Type           domain.DiscountType
	Value          int64
	Scope          domain.DiscountScope
	ProductID      *uuid.UUID
	LimitationType domain.LimitationType
	StartDate      *time.Time
	EndDate        *time.Time
	UsageLimit     *int32
	TimesUsed      int32
	IsActive       bool

	// BaseOnLineTotal computes product-scoped discounts from the matching
	// line's subtotal instead of its unit price.
	BaseOnLineTotal bool
}

// Line is the slice of cart state the engine needs.
type Line struct {
	ProductID uuid.UUID
	Qty       int
	UnitPrice pricing.Money
	Subtotal  pricing.Money
}

// Normalize canonicalizes user input before lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RuleFromCode maps a stored code onto an engine rule.
func RuleFromCode(d domain.DiscountCode) Rule {
	return Rule{
		ID:             d.ID,
		Code:           d.Code,
		Type:           d.Type,
		Value:          d.Value,
		Scope:          d.Scope,
		ProductID:      d.ProductID,
		LimitationType: d.LimitationType,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		UsageLimit:     d.UsageLimit,
		TimesUsed:      d.TimesUsed,
		IsActive:       d.IsActive,
	}
}

// Validate checks the rule against the clock and its usage quota.
// The check order is fixed: active flag, then dates, then usage.
func (r Rule) Validate(now time.Time) error {
	if !r.IsActive {
		return ErrInactive
	}
	if r.LimitationType == domain.LimitationDateRange {
		if r.StartDate != nil && now.Before(*r.StartDate) {
			return ErrInactive
		}
		if r.EndDate != nil && now.After(*r.EndDate) {
			return ErrExpired
		}
	}
	if r.LimitationType == domain.LimitationUsageLimit {
		if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.TimesUsed >= *r.UsageLimit {
			return ErrUsageLimitReached
		}
	}
	return nil
}

// Base resolves the amount the discount applies to. Cart-scoped codes use the
// cart subtotal; product-scoped codes use the matching line's unit price, or
// its subtotal when BaseOnLineTotal is set.
func (r Rule) Base(lines []Line) (pricing.Money, error) {
	if r.Scope == domain.ScopeCart {
		var total pricing.Money
		for _, l := range lines {
			if l.Subtotal > 0 {
				total += l.Subtotal
			}
		}
		return total, nil
	}
	if r.ProductID == nil {
		return 0, ErrNotApplicable
	}
	for _, l := range lines {
		if l.ProductID == *r.ProductID && l.Qty > 0 {
			if r.BaseOnLineTotal {
				return l.Subtotal, nil
			}
			return l.UnitPrice, nil
		}
	}
	return 0, ErrNotApplicable
}

// Amount computes the discount for the given base, clamped to never exceed it.
func (r Rule) Amount(base pricing.Money) pricing.Money {
	if base <= 0 {
		return 0
	}
	var amount pricing.Money
	switch r.Type {
	case domain.DiscountPercentage:
		amount = pricing.PercentOf(base, int(r.Value))
	case domain.DiscountFixedAmount:
		amount = r.Value
	default:
		return 0
	}
	if amount > base {
		amount = base
	}
	if amount < 0 {
		return 0
	}
	return amount
}
