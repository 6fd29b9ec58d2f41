// Package whatsapp builds the order handoff message and deep link used to
// complete checkout over chat.
package whatsapp

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"

	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/pricing"
)

// ErrNoContacts is returned when no destination numbers are configured.
var ErrNoContacts = errors.New("no whatsapp contacts configured")

// Order is the slice of an order the message needs.
type Order struct {
	ID            string
	CustomerName  string
	CustomerPhone string
	Address       string
	PaymentMethod string
	Currency      string
	Items         []Item
	Subtotal      pricing.Money
	DiscountCode  *string
	Discount      pricing.Money
	UpsellTitle   string
	Upsell        pricing.Money
	Total         pricing.Money
	Notes         *string
}

// Item is one order line in the message.
type Item struct {
	Title     string
	Qty       int
	UnitPrice pricing.Money
	Subtotal  pricing.Money
}

// FromDomain assembles the message order from a stored order and its items.
func FromDomain(o domain.Order, items []domain.OrderItem, upsellTitle string) Order {
	out := Order{
		ID:            o.ID.String(),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		Currency:      o.Currency,
		Subtotal:      o.Subtotal,
		DiscountCode:  o.DiscountCode,
		Discount:      o.DiscountAmount,
		Total:         o.Total,
		Notes:         o.Notes,
	}
	if o.UpsellIncluded {
		out.UpsellTitle = upsellTitle
		out.Upsell = o.UpsellAmount
	}
	for _, it := range items {
		out.Items = append(out.Items, Item{
			Title:     it.Title,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}

// BuildMessage renders the plain-text order summary. Lines appear in the
// order they were added to the cart.
func BuildMessage(o Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n\n", o.ID)
	fmt.Fprintf(&b, "Customer: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", o.CustomerPhone)
	if o.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", o.Address)
	}
	if o.PaymentMethod != "" {
		fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	}
	b.WriteString("\nItems:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s = %s\n",
			it.Title, it.Qty,
			pricing.FormatAmount(o.Currency, it.UnitPrice),
			pricing.FormatAmount(o.Currency, it.Subtotal))
	}
	if o.UpsellTitle != "" {
		fmt.Fprintf(&b, "- %s = %s\n", o.UpsellTitle, pricing.FormatAmount(o.Currency, o.Upsell))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", pricing.FormatAmount(o.Currency, o.Subtotal))
	if o.Discount > 0 {
		code := ""
		if o.DiscountCode != nil {
			code = " (" + *o.DiscountCode + ")"
		}
		fmt.Fprintf(&b, "Discount%s: -%s\n", code, pricing.FormatAmount(o.Currency, o.Discount))
	}
	fmt.Fprintf(&b, "Total: %s\n", pricing.FormatAmount(o.Currency, o.Total))
	if o.Notes != nil && strings.TrimSpace(*o.Notes) != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", strings.TrimSpace(*o.Notes))
	}
	return b.String()
}

// DeepLink builds the wa.me URL carrying the prefilled message.
func DeepLink(contact string, message string) string {
	return "https://wa.me/" + normalizeContact(contact) + "?text=" + url.QueryEscape(message)
}

// PickContact deterministically routes an order to one of the configured
// numbers. The same order always maps to the same contact so retries never
// split a conversation across agents.
func PickContact(orderID string, contacts []string) (string, error) {
	if len(contacts) == 0 {
		return "", ErrNoContacts
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return contacts[h.Sum32()%uint32(len(contacts))], nil
}

func normalizeContact(contact string) string {
	var b strings.Builder
	for _, r := range contact {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
