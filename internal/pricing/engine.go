package pricing

// Item describes a line item used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice Money
	// Original is the pre-promotion baseline unit price, when one was captured.
	Original *Money
}

func (it Item) baseline() Money {
	if it.Original != nil {
		return *it.Original
	}
	return it.UnitPrice
}

// Summary aggregates computed order components.
type Summary struct {
	Subtotal Money
	// OriginalSubtotal values the cart at pre-promotion prices.
	OriginalSubtotal Money
	Discount         Money
	Upsell           Money
	Total            Money
	ItemCount        int
}

// Subtotal sums unit price times quantity over all items. Lines with a
// non-positive quantity are treated as removed.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// OriginalSubtotal sums baseline price times quantity, falling back to the
// current unit price for lines that never had a promotion applied.
func OriginalSubtotal(items []Item) Money {
	var total Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		total += Money(it.Qty) * it.baseline()
	}
	return total
}

// ItemCount sums quantities over all live lines.
func ItemCount(items []Item) int {
	var count int
	for _, it := range items {
		if it.Qty > 0 {
			count += it.Qty
		}
	}
	return count
}

// Compute combines subtotal, discount and an optional upsell add-on into the
// payable total. The discount is clamped to the subtotal and the final total
// is floored at zero.
func Compute(items []Item, discount Money, upsell Money) Summary {
	subtotal := Subtotal(items)
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	if upsell < 0 {
		upsell = 0
	}
	total := subtotal - discount + upsell
	if total < 0 {
		total = 0
	}
	return Summary{
		Subtotal:         subtotal,
		OriginalSubtotal: OriginalSubtotal(items),
		Discount:         discount,
		Upsell:           upsell,
		Total:            total,
		ItemCount:        ItemCount(items),
	}
}
