package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Orders persists placed orders and their items.
type Orders struct {
	DB DBTX
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r Orders) WithTx(tx DBTX) Orders {
	return Orders{DB: tx}
}

const orderColumns = `id, user_id, cart_id, status, currency, customer_name, customer_phone, address, payment_method, subtotal, discount_code, discount_amount, upsell_included, upsell_amount, total, cart_snapshot, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.Status, &o.Currency, &o.CustomerName, &o.CustomerPhone,
		&o.Address, &o.PaymentMethod, &o.Subtotal, &o.DiscountCode, &o.DiscountAmount,
		&o.UpsellIncluded, &o.UpsellAmount, &o.Total, &o.CartSnapshot, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create inserts a new order in PENDING state.
func (r Orders) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO orders (user_id, cart_id, status, currency, customer_name, customer_phone, address,
			payment_method, subtotal, discount_code, discount_amount, upsell_included, upsell_amount,
			total, cart_snapshot, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+orderColumns,
		o.UserID, o.CartID, o.Status, o.Currency, o.CustomerName, o.CustomerPhone, o.Address,
		o.PaymentMethod, o.Subtotal, o.DiscountCode, o.DiscountAmount, o.UpsellIncluded, o.UpsellAmount,
		o.Total, o.CartSnapshot, o.Notes)
	created, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

// CreateItem inserts one order line.
func (r Orders) CreateItem(ctx context.Context, it domain.OrderItem) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, title, qty, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		it.OrderID, it.ProductID, it.Title, it.Qty, it.UnitPrice, it.Subtotal)
	return err
}

// GetByID fetches one order.
func (r Orders) GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, mapNoRows(err)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r Orders) ListByUser(ctx context.Context, userID uuid.UUID, page common.Page) ([]domain.Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// List returns all orders, optionally filtered by status, for the admin view.
func (r Orders) List(ctx context.Context, status *domain.OrderStatus, page common.Page) ([]domain.Order, error) {
	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = r.DB.Query(ctx, `
			SELECT `+orderColumns+` FROM orders WHERE status = $1
			ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, *status, page.Limit, page.Offset)
	} else {
		rows, err = r.DB.Query(ctx, `
			SELECT `+orderColumns+` FROM orders
			ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus transitions an order to the given status.
func (r Orders) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, status)
	o, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, mapNoRows(err)
	}
	return o, nil
}

// ListItems returns the order's lines in insertion order.
func (r Orders) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, title, qty, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var out []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Qty, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
