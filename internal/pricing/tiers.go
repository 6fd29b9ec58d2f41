package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// TierSpec is one entry of the quantity discount schedule: buy Qty units with
// OffBps basis points off the base unit price.
type TierSpec struct {
	Qty    int
	OffBps int
}

// Tier is a purchase option derived from a product's base price.
type Tier struct {
	Qty           int
	UnitPrice     Money
	TotalPrice    Money
	OriginalTotal Money
}

// Discounted reports whether the tier is cheaper than buying at the base price.
func (t Tier) Discounted() bool {
	return t.OriginalTotal > t.TotalPrice
}

// DefaultSchedule mirrors the storefront's standard 1/2/3 unit offer.
func DefaultSchedule() []TierSpec {
	return []TierSpec{{Qty: 1, OffBps: 0}, {Qty: 2, OffBps: 1000}, {Qty: 3, OffBps: 1500}}
}

// ParseSchedule reads a "qty:bps,qty:bps" list, e.g. "1:0,2:1000,3:1500".
func ParseSchedule(csv string) ([]TierSpec, error) {
	trimmed := strings.TrimSpace(csv)
	if trimmed == "" {
		return DefaultSchedule(), nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]TierSpec, 0, len(parts))
	for _, part := range parts {
		pair := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("tier schedule entry %q: %w", part, ErrInvalidInput)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(pair[0]))
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("tier schedule qty %q: %w", pair[0], ErrInvalidInput)
		}
		bps, err := strconv.Atoi(strings.TrimSpace(pair[1]))
		if err != nil || bps < 0 || bps >= 10000 {
			return nil, fmt.Errorf("tier schedule bps %q: %w", pair[1], ErrInvalidInput)
		}
		out = append(out, TierSpec{Qty: qty, OffBps: bps})
	}
	return out, nil
}

// ResolveTiers derives the purchase option menu from an undiscounted base
// unit price. Total prices are rounded once from base*qty so the displayed
// total never accumulates per-unit rounding error; the per-unit price may
// therefore differ from total/qty by at most one minor unit.
func ResolveTiers(base Money, schedule []TierSpec) []Tier {
	if base <= 0 {
		return nil
	}
	if len(schedule) == 0 {
		schedule = DefaultSchedule()
	}
	tiers := make([]Tier, 0, len(schedule))
	for _, spec := range schedule {
		if spec.Qty < 1 {
			continue
		}
		original := base * Money(spec.Qty)
		tiers = append(tiers, Tier{
			Qty:           spec.Qty,
			UnitPrice:     ApplyBps(base, spec.OffBps),
			TotalPrice:    ApplyBps(original, spec.OffBps),
			OriginalTotal: original,
		})
	}
	return tiers
}

// SelectedTier finds the tier matching the cart line's current quantity and
// unit price. Unit prices within one minor unit are considered equal to absorb
// the single-rounding drift of ResolveTiers. No match is a valid state.
func SelectedTier(qty int, unitPrice Money, tiers []Tier) (Tier, bool) {
	for _, tier := range tiers {
		if tier.Qty != qty {
			continue
		}
		diff := unitPrice - tier.UnitPrice
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			return tier, true
		}
	}
	return Tier{}, false
}
