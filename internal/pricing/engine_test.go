package pricing

import "testing"

func TestSubtotalPlainCart(t *testing.T) {
	// 2 x 50.00, no discount, no upsell.
	items := []Item{{Qty: 2, UnitPrice: 5000}}
	summary := Compute(items, 0, 0)
	if summary.Subtotal != 10000 {
		t.Fatalf("expected subtotal 10000, got %d", summary.Subtotal)
	}
	if summary.Total != 10000 {
		t.Fatalf("expected total 10000, got %d", summary.Total)
	}
}

func TestComputeDiscountAndUpsell(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: 20000}}
	summary := Compute(items, 2000, 1500)
	if summary.Total != 19500 {
		t.Fatalf("expected total 19500, got %d", summary.Total)
	}
}

func TestComputeClampsDiscountToSubtotal(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: 3000}}
	summary := Compute(items, 5000, 0)
	if summary.Discount != 3000 {
		t.Fatalf("expected discount clamped to 3000, got %d", summary.Discount)
	}
	if summary.Total != 0 {
		t.Fatalf("expected total 0, got %d", summary.Total)
	}
}

func TestComputeTotalNeverNegative(t *testing.T) {
	summary := Compute(nil, 9999, 0)
	if summary.Total != 0 {
		t.Fatalf("expected floored total 0, got %d", summary.Total)
	}
	if summary.Discount != 0 {
		t.Fatalf("expected discount clamped to empty subtotal, got %d", summary.Discount)
	}
}

func TestOriginalSubtotalUsesBaseline(t *testing.T) {
	baseline := Money(8990)
	items := []Item{
		// Discounted line with a captured pre-promotion price.
		{Qty: 3, UnitPrice: 7642, Original: &baseline},
		// Untouched line falls back to its unit price.
		{Qty: 1, UnitPrice: 5000},
	}
	if got := OriginalSubtotal(items); got != 3*8990+5000 {
		t.Fatalf("expected original subtotal %d, got %d", 3*8990+5000, got)
	}
	if got := Subtotal(items); got != 3*7642+5000 {
		t.Fatalf("expected subtotal %d, got %d", 3*7642+5000, got)
	}
}

func TestComputeFillsItemCount(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitPrice: 1000},
		{Qty: 0, UnitPrice: 9999},
		{Qty: 3, UnitPrice: 500},
	}
	summary := Compute(items, 0, 0)
	if summary.ItemCount != 5 {
		t.Fatalf("expected item count 5, got %d", summary.ItemCount)
	}
	if summary.OriginalSubtotal != summary.Subtotal {
		t.Fatalf("expected matching subtotals without baselines, got %d vs %d",
			summary.OriginalSubtotal, summary.Subtotal)
	}
}

func TestSubtotalSkipsRemovedLines(t *testing.T) {
	items := []Item{
		{Qty: 0, UnitPrice: 5000},
		{Qty: 3, UnitPrice: 1000},
	}
	if got := Subtotal(items); got != 3000 {
		t.Fatalf("expected subtotal 3000, got %d", got)
	}
}
