package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals a missing record, distinct from transport failures.
var ErrNotFound = errors.New("not found")

// Product is a catalog entry sold by the storefront.
type Product struct {
	ID          uuid.UUID
	Title       string
	Slug        string
	Description string
	// Price is the base unit price in minor units, before tier promotions.
	Price     int64
	CompareAt *int64
	InStock   bool
	Thumbnail *string
	Images    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cart is a persisted shopping cart owned by a user or an anonymous visitor.
type Cart struct {
	ID           uuid.UUID
	UserID       *uuid.UUID
	AnonID       *string
	DiscountCode *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

// CartLine is one product entry in a cart. OriginalUnitPrice is the baseline
// captured exactly once, the first time a promotional price replaces the
// regular one; nil means no promotion has touched the line yet.
type CartLine struct {
	ID                uuid.UUID
	CartID            uuid.UUID
	ProductID         uuid.UUID
	Title             string
	Image             *string
	Qty               int
	UnitPrice         int64
	OriginalUnitPrice *int64
	Subtotal          int64
}

// BaselineUnitPrice returns the pre-promotion reference price for the line.
func (l CartLine) BaselineUnitPrice() int64 {
	if l.OriginalUnitPrice != nil {
		return *l.OriginalUnitPrice
	}
	return l.UnitPrice
}

// DiscountType enumerates how a discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// DiscountScope enumerates what a code applies to.
type DiscountScope string

const (
	ScopeCart    DiscountScope = "cart"
	ScopeProduct DiscountScope = "product"
)

// LimitationType enumerates how code redemption is restricted.
type LimitationType string

const (
	LimitationDateRange  LimitationType = "date_range"
	LimitationUsageLimit LimitationType = "usage_limit"
)

// DiscountCode is an admin-managed promotion code record.
type DiscountCode struct {
	ID   uuid.UUID
	Code string
	Type DiscountType
	// Value is minor units for fixed_amount codes and basis points for
	// percentage codes.
	Value          int64
	Scope          DiscountScope
	ProductID      *uuid.UUID
	LimitationType LimitationType
	StartDate      *time.Time
	EndDate        *time.Time
	UsageLimit     *int32
	TimesUsed      int32
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderStatus tracks the order lifecycle after the WhatsApp handoff.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCanceled  OrderStatus = "CANCELED"
)

// Order is the write-once record produced by checkout.
type Order struct {
	ID             uuid.UUID
	UserID         *uuid.UUID
	CartID         uuid.UUID
	Status         OrderStatus
	Currency       string
	CustomerName   string
	CustomerPhone  string
	Address        string
	PaymentMethod  string
	Subtotal       int64
	DiscountCode   *string
	DiscountAmount int64
	UpsellIncluded bool
	UpsellAmount   int64
	Total          int64
	CartSnapshot   []byte
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is one line of the order's immutable cart snapshot.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Title     string
	Qty       int
	UnitPrice int64
	Subtotal  int64
}

// User is an account with optional admin role membership.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Review is a customer product review pending moderation.
type Review struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Author     string
	Rating     int
	Body       string
	IsApproved bool
	CreatedAt  time.Time
}

// Event is a persisted domain event.
type Event struct {
	ID          uuid.UUID
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}
