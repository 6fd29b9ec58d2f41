package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/selara/backend-store/internal/cart"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/events"
	"github.com/selara/backend-store/internal/pricing"
	"github.com/selara/backend-store/internal/repo"
	"github.com/selara/backend-store/internal/whatsapp"
)

// ErrEmptyCart is returned when checkout is attempted on a cart without lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrCartNotOwned is returned when the cart belongs to a different user.
var ErrCartNotOwned = errors.New("cart does not belong to user")

// Input carries the customer details collected by the checkout form.
type Input struct {
	CartID        string  `json:"cartId"`
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	Address       string  `json:"address"`
	PaymentMethod string  `json:"paymentMethod"`
	IncludeUpsell bool    `json:"includeUpsell"`
	Notes         *string `json:"notes"`
	CaptchaToken  string  `json:"captchaToken"`
}

// Output is returned after a successful order placement.
type Output struct {
	OrderID      string          `json:"orderId"`
	Status       string          `json:"status"`
	Summary      pricing.Summary `json:"summary"`
	WhatsAppLink string          `json:"whatsappLink"`
	Message      string          `json:"message"`
}

// SettlementEnqueuer schedules the asynchronous discount usage commit.
type SettlementEnqueuer interface {
	EnqueueSettlement(ctx context.Context, orderID uuid.UUID, code string) error
}

// Upsell is the optional add-on offered at checkout.
type Upsell struct {
	Title string
	Price pricing.Money
}

// Service turns a cart into a pending order and hands it off over WhatsApp.
type Service struct {
	Pool      *pgxpool.Pool
	Carts     repo.Carts
	Orders    repo.Orders
	Discounts repo.Discounts
	CartSvc   *cart.Service
	Events    *events.Bus
	Tasks     SettlementEnqueuer
	Currency  string
	Upsell    Upsell
	Contacts  []string
	Log       zerolog.Logger
}

// Create places the order. The cart is re-priced and the applied discount
// code re-validated inside the transaction; a code that stopped being valid
// fails the checkout with its concrete reason.
func (s *Service) Create(ctx context.Context, userID *uuid.UUID, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.CartSvc == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	cartID, err := uuid.Parse(strings.TrimSpace(in.CartID))
	if err != nil {
		return Output{}, fmt.Errorf("invalid cart id: %w", err)
	}
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.CustomerPhone) == "" {
		return Output{}, errors.New("customer name and phone are required")
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	carts := s.Carts.WithTx(tx)
	orders := s.Orders.WithTx(tx)
	discounts := s.Discounts.WithTx(tx)

	cartRow, err := carts.GetByID(ctx, cartID)
	if err != nil {
		return Output{}, err
	}
	if cartRow.UserID != nil && userID != nil && *cartRow.UserID != *userID {
		return Output{}, ErrCartNotOwned
	}
	lines, err := carts.ListLines(ctx, cartID)
	if err != nil {
		return Output{}, err
	}
	if len(lines) == 0 {
		return Output{}, ErrEmptyCart
	}

	eval, err := s.CartSvc.EvaluateDiscount(ctx, cartRow, lines)
	if err != nil {
		return Output{}, err
	}

	var upsellAmount pricing.Money
	if in.IncludeUpsell && s.Upsell.Price > 0 {
		upsellAmount = s.Upsell.Price
	}
	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		item := pricing.Item{Qty: l.Qty, UnitPrice: l.UnitPrice}
		if l.OriginalUnitPrice != nil {
			orig := pricing.Money(*l.OriginalUnitPrice)
			item.Original = &orig
		}
		items = append(items, item)
	}
	summary := pricing.Compute(items, eval.Discount, upsellAmount)

	snapshot, err := cart.EncodeSnapshot(cartRow, lines)
	if err != nil {
		return Output{}, fmt.Errorf("encode cart snapshot: %w", err)
	}

	var discountCode *string
	if eval.Discount > 0 {
		code := eval.Code
		discountCode = &code
	}
	order, err := orders.Create(ctx, domain.Order{
		UserID:         userID,
		CartID:         cartID,
		Status:         domain.OrderPending,
		Currency:       s.Currency,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		CustomerPhone:  strings.TrimSpace(in.CustomerPhone),
		Address:        strings.TrimSpace(in.Address),
		PaymentMethod:  strings.TrimSpace(in.PaymentMethod),
		Subtotal:       summary.Subtotal,
		DiscountCode:   discountCode,
		DiscountAmount: summary.Discount,
		UpsellIncluded: upsellAmount > 0,
		UpsellAmount:   summary.Upsell,
		Total:          summary.Total,
		CartSnapshot:   snapshot,
		Notes:          in.Notes,
	})
	if err != nil {
		return Output{}, err
	}
	for _, l := range lines {
		if err := orders.CreateItem(ctx, domain.OrderItem{
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Title:     l.Title,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		}); err != nil {
			return Output{}, err
		}
	}
	if discountCode != nil {
		if err := discounts.InsertUsage(ctx, eval.CodeID, order.ID, summary.Discount); err != nil {
			return Output{}, fmt.Errorf("reserve discount usage: %w", err)
		}
	}
	if err := carts.DeleteLinesByCart(ctx, cartID); err != nil {
		return Output{}, err
	}
	if err := carts.SetDiscountCode(ctx, cartID, nil); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if s.Events != nil {
		payload := map[string]any{
			"orderId":    order.ID.String(),
			"total":      summary.Total,
			"discounted": summary.Discount > 0,
			"upsell":     in.IncludeUpsell,
		}
		if userID != nil {
			payload["userId"] = userID.String()
		}
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, order.ID, payload); err != nil {
			s.Log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("emit order created")
		}
	}
	if discountCode != nil && s.Tasks != nil {
		if err := s.Tasks.EnqueueSettlement(ctx, order.ID, *discountCode); err != nil {
			s.Log.Error().Err(err).Str("order_id", order.ID.String()).Msg("enqueue discount settlement")
		}
	}

	msgOrder := whatsapp.Order{
		ID:            order.ID.String(),
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Address:       order.Address,
		PaymentMethod: order.PaymentMethod,
		Currency:      s.Currency,
		Subtotal:      summary.Subtotal,
		DiscountCode:  discountCode,
		Discount:      summary.Discount,
		Total:         summary.Total,
		Notes:         in.Notes,
	}
	for _, l := range lines {
		msgOrder.Items = append(msgOrder.Items, whatsapp.Item{
			Title:     l.Title,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	if upsellAmount > 0 {
		msgOrder.UpsellTitle = s.Upsell.Title
		msgOrder.Upsell = upsellAmount
	}
	message := whatsapp.BuildMessage(msgOrder)
	var link string
	if contact, err := whatsapp.PickContact(order.ID.String(), s.Contacts); err == nil {
		link = whatsapp.DeepLink(contact, message)
	} else {
		s.Log.Warn().Err(err).Msg("whatsapp handoff unavailable")
	}

	return Output{
		OrderID:      order.ID.String(),
		Status:       string(order.Status),
		Summary:      summary,
		WhatsAppLink: link,
		Message:      message,
	}, nil
}
