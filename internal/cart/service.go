package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/discount"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmptyCart is returned when an operation requires at least one line.
var ErrEmptyCart = errors.New("cart is empty")

// Store captures the persistence methods required by the cart service.
type Store interface {
	Create(ctx context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (domain.Cart, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Cart, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	GetActiveByAnon(ctx context.Context, anonID string) (domain.Cart, error)
	Touch(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	SetDiscountCode(ctx context.Context, id uuid.UUID, code *string) error
	TransferToUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error)
	FindLineByProduct(ctx context.Context, cartID, productID uuid.UUID) (domain.CartLine, error)
	CreateLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error)
	UpdateLine(ctx context.Context, id uuid.UUID, qty int, unitPrice int64, originalUnitPrice *int64, subtotal int64) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	DeleteLinesByCart(ctx context.Context, cartID uuid.UUID) error
}

// ProductStore resolves products when lines are created.
type ProductStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Store    Store
	Products ProductStore
	Discount *discount.Service
	Tiers    []pricing.TierSpec
	TTL      time.Duration
	Now      func() time.Time
}

// View is the assembled cart returned to callers.
type View struct {
	Cart     domain.Cart       `json:"cart"`
	Lines    []domain.CartLine `json:"lines"`
	Summary  pricing.Summary   `json:"summary"`
	Discount pricing.Money     `json:"discount"`
	Tiers    []pricing.Tier    `json:"tiers,omitempty"`
	Selected *pricing.Tier     `json:"selectedTier,omitempty"`
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads or creates a cart for the provided identifiers.
func (s *Service) EnsureCart(ctx context.Context, userID *uuid.UUID, anonID *string) (domain.Cart, error) {
	if s == nil || s.Store == nil {
		return domain.Cart{}, errors.New("cart service not configured")
	}
	expires := s.now().Add(s.ttl())

	if userID != nil {
		cart, err := s.Store.GetActiveByUser(ctx, *userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return s.Store.Create(ctx, userID, nil, expires)
			}
			return domain.Cart{}, err
		}
		_ = s.Store.Touch(ctx, cart.ID, expires)
		return cart, nil
	}

	if anonID != nil && *anonID != "" {
		cart, err := s.Store.GetActiveByAnon(ctx, *anonID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return s.Store.Create(ctx, nil, anonID, expires)
			}
			return domain.Cart{}, err
		}
		_ = s.Store.Touch(ctx, cart.ID, expires)
		return cart, nil
	}

	return domain.Cart{}, ErrInvalidInput
}

// Get assembles the full cart view including pricing and, for single-product
// carts, the quantity tier menu.
func (s *Service) Get(ctx context.Context, cartID uuid.UUID) (View, error) {
	if s == nil || s.Store == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.Store.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return View{}, ErrNotFound
		}
		return View{}, err
	}
	lines, err := s.Store.ListLines(ctx, cart.ID)
	if err != nil {
		return View{}, err
	}

	view := View{Cart: cart, Lines: lines}
	var applied pricing.Money
	if cart.DiscountCode != nil && s.Discount != nil {
		res, err := s.Discount.Preview(ctx, *cart.DiscountCode, engineLines(lines))
		if err == nil {
			applied = res.Discount
		}
		// An invalid code stays on the cart but contributes nothing; checkout
		// re-validates and rejects it with a concrete reason.
	}
	view.Discount = applied
	view.Summary = pricing.Compute(pricingItems(lines), applied, 0)

	if len(lines) == 1 && len(s.Tiers) > 0 {
		base := lines[0].BaselineUnitPrice()
		tiers := pricing.ResolveTiers(base, s.Tiers)
		view.Tiers = tiers
		if sel, ok := pricing.SelectedTier(lines[0].Qty, lines[0].UnitPrice, tiers); ok {
			view.Selected = &sel
		}
	}
	return view, nil
}

// AddItem inserts a line or increments an existing one for the product.
func (s *Service) AddItem(ctx context.Context, cartID, productID uuid.UUID, qty int) error {
	if s == nil || s.Store == nil || s.Products == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}

	expires := s.now().Add(s.ttl())
	line, err := s.Store.FindLineByProduct(ctx, cartID, productID)
	if err == nil {
		newQty := line.Qty + qty
		subtotal := int64(newQty) * line.UnitPrice
		if err := s.Store.UpdateLine(ctx, line.ID, newQty, line.UnitPrice, line.OriginalUnitPrice, subtotal); err != nil {
			return err
		}
		_ = s.Store.Touch(ctx, cartID, expires)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	product, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.InStock {
		return fmt.Errorf("product out of stock: %w", ErrInvalidInput)
	}
	unitPrice := product.Price
	if unitPrice < 0 {
		unitPrice = 0
	}
	if _, err := s.Store.CreateLine(ctx, domain.CartLine{
		CartID:    cartID,
		ProductID: productID,
		Title:     product.Title,
		Image:     product.Thumbnail,
		Qty:       qty,
		UnitPrice: unitPrice,
		Subtotal:  int64(qty) * unitPrice,
	}); err != nil {
		return err
	}
	_ = s.Store.Touch(ctx, cartID, expires)
	return nil
}

// SetQuantityAndPrice applies a tier selection to a line. The pre-promotion
// unit price is captured exactly once, the first time the price changes, so
// repeated tier switches always discount from the same baseline. A zero or
// negative quantity removes the line.
func (s *Service) SetQuantityAndPrice(ctx context.Context, cartID, productID uuid.UUID, qty int, unitPrice int64) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	line, err := s.Store.FindLineByProduct(ctx, cartID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	expires := s.now().Add(s.ttl())
	if qty <= 0 {
		if err := s.Store.DeleteLine(ctx, cartID, line.ID); err != nil {
			return err
		}
		_ = s.Store.Touch(ctx, cartID, expires)
		return nil
	}
	if unitPrice < 0 {
		return fmt.Errorf("unit price must not be negative: %w", ErrInvalidInput)
	}

	original := line.OriginalUnitPrice
	if original == nil && unitPrice != line.UnitPrice {
		baseline := line.UnitPrice
		original = &baseline
	}
	subtotal := int64(qty) * unitPrice
	if err := s.Store.UpdateLine(ctx, line.ID, qty, unitPrice, original, subtotal); err != nil {
		return err
	}
	_ = s.Store.Touch(ctx, cartID, expires)
	return nil
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, lineID uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Store.DeleteLine(ctx, cartID, lineID); err != nil {
		return err
	}
	_ = s.Store.Touch(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// ApplyDiscount validates and attaches a code, returning the discount amount.
func (s *Service) ApplyDiscount(ctx context.Context, cartID uuid.UUID, code string) (pricing.Money, error) {
	if s == nil || s.Store == nil || s.Discount == nil {
		return 0, errors.New("cart service not configured")
	}
	cart, err := s.Store.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	lines, err := s.Store.ListLines(ctx, cart.ID)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, ErrEmptyCart
	}
	res, err := s.Discount.Preview(ctx, code, engineLines(lines))
	if err != nil {
		return 0, err
	}
	if err := s.Store.SetDiscountCode(ctx, cart.ID, &res.Code); err != nil {
		return 0, err
	}
	_ = s.Store.Touch(ctx, cart.ID, s.now().Add(s.ttl()))
	return res.Discount, nil
}

// RemoveDiscount clears an applied code.
func (s *Service) RemoveDiscount(ctx context.Context, cartID uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Store.SetDiscountCode(ctx, cartID, nil); err != nil {
		return err
	}
	_ = s.Store.Touch(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// EvaluateDiscount re-runs validation for the cart's applied code without
// mutating anything. Carts without a code evaluate to zero.
func (s *Service) EvaluateDiscount(ctx context.Context, cart domain.Cart, lines []domain.CartLine) (discount.PreviewResult, error) {
	if s == nil || s.Discount == nil {
		return discount.PreviewResult{}, errors.New("cart service not configured")
	}
	if cart.DiscountCode == nil {
		return discount.PreviewResult{}, nil
	}
	return s.Discount.Preview(ctx, *cart.DiscountCode, engineLines(lines))
}

// Merge folds a guest cart into the user's active cart. On quantity conflict
// the larger quantity wins; the guest cart is expired afterwards.
func (s *Service) Merge(ctx context.Context, guestCartID, userID uuid.UUID) (uuid.UUID, error) {
	if s == nil || s.Store == nil {
		return uuid.Nil, errors.New("cart service not configured")
	}
	guestCart, err := s.Store.GetByID(ctx, guestCartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	userCart, err := s.EnsureCart(ctx, &userID, nil)
	if err != nil {
		return uuid.Nil, err
	}
	guestLines, err := s.Store.ListLines(ctx, guestCart.ID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, line := range guestLines {
		existing, err := s.Store.FindLineByProduct(ctx, userCart.ID, line.ProductID)
		if err == nil {
			if existing.Qty < line.Qty {
				subtotal := int64(line.Qty) * existing.UnitPrice
				if err := s.Store.UpdateLine(ctx, existing.ID, line.Qty, existing.UnitPrice, existing.OriginalUnitPrice, subtotal); err != nil {
					return uuid.Nil, err
				}
			}
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, err
		}
		moved := line
		moved.ID = uuid.Nil
		moved.CartID = userCart.ID
		if _, err := s.Store.CreateLine(ctx, moved); err != nil {
			return uuid.Nil, err
		}
	}
	_ = s.Store.Touch(ctx, userCart.ID, s.now().Add(s.ttl()))
	_ = s.Store.Touch(ctx, guestCart.ID, s.now())
	_ = s.Store.SetDiscountCode(ctx, guestCart.ID, nil)
	_ = s.Store.TransferToUser(ctx, guestCart.ID, userID)
	return userCart.ID, nil
}

func engineLines(lines []domain.CartLine) []discount.Line {
	out := make([]discount.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, discount.Line{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return out
}

func pricingItems(lines []domain.CartLine) []pricing.Item {
	out := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		item := pricing.Item{Qty: l.Qty, UnitPrice: l.UnitPrice}
		if l.OriginalUnitPrice != nil {
			orig := pricing.Money(*l.OriginalUnitPrice)
			item.Original = &orig
		}
		out = append(out, item)
	}
	return out
}
