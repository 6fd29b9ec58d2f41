package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/domain"
)

// Carts persists shopping carts and their lines.
type Carts struct {
	DB DBTX
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r Carts) WithTx(tx DBTX) Carts {
	return Carts{DB: tx}
}

const cartColumns = `id, user_id, anon_id, discount_code, created_at, updated_at, expires_at`

func scanCart(row interface{ Scan(...any) error }) (domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AnonID, &c.DiscountCode, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, err
}

// Create inserts a new cart for a user or an anonymous visitor.
func (r Carts) Create(ctx context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (domain.Cart, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO carts (user_id, anon_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+cartColumns, userID, anonID, expiresAt)
	cart, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

// GetByID fetches a cart by identifier.
func (r Carts) GetByID(ctx context.Context, id uuid.UUID) (domain.Cart, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	cart, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, mapNoRows(err)
	}
	return cart, nil
}

// GetActiveByUser returns the user's newest unexpired cart.
func (r Carts) GetActiveByUser(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY updated_at DESC LIMIT 1`, userID)
	cart, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, mapNoRows(err)
	}
	return cart, nil
}

// GetActiveByAnon returns the visitor's newest unexpired cart.
func (r Carts) GetActiveByAnon(ctx context.Context, anonID string) (domain.Cart, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE anon_id = $1 AND expires_at > now()
		ORDER BY updated_at DESC LIMIT 1`, anonID)
	cart, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, mapNoRows(err)
	}
	return cart, nil
}

// Touch extends the cart's expiry window.
func (r Carts) Touch(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx, `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	return err
}

// SetDiscountCode records or clears the applied discount code.
func (r Carts) SetDiscountCode(ctx context.Context, id uuid.UUID, code *string) error {
	_, err := r.DB.Exec(ctx, `UPDATE carts SET discount_code = $2, updated_at = now() WHERE id = $1`, id, code)
	return err
}

// TransferToUser reassigns a guest cart to an authenticated user.
func (r Carts) TransferToUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `UPDATE carts SET user_id = $2, anon_id = NULL, updated_at = now() WHERE id = $1`, id, userID)
	return err
}

const lineColumns = `id, cart_id, product_id, title, image, qty, unit_price, original_unit_price, subtotal`

func scanLine(row interface{ Scan(...any) error }) (domain.CartLine, error) {
	var l domain.CartLine
	err := row.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Title, &l.Image, &l.Qty, &l.UnitPrice, &l.OriginalUnitPrice, &l.Subtotal)
	return l, err
}

// ListLines returns the cart's lines in insertion order.
func (r Carts) ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+lineColumns+` FROM cart_lines
		WHERE cart_id = $1 ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()
	var lines []domain.CartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// FindLineByProduct locates the line for a given product; at most one exists.
func (r Carts) FindLineByProduct(ctx context.Context, cartID, productID uuid.UUID) (domain.CartLine, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+lineColumns+` FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	line, err := scanLine(row)
	if err != nil {
		return domain.CartLine{}, mapNoRows(err)
	}
	return line, nil
}

// CreateLine inserts a new cart line.
func (r Carts) CreateLine(ctx context.Context, line domain.CartLine) (domain.CartLine, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO cart_lines (cart_id, product_id, title, image, qty, unit_price, original_unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+lineColumns,
		line.CartID, line.ProductID, line.Title, line.Image, line.Qty, line.UnitPrice, line.OriginalUnitPrice, line.Subtotal)
	created, err := scanLine(row)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("create cart line: %w", err)
	}
	return created, nil
}

// UpdateLine replaces quantity, pricing and baseline for a line.
func (r Carts) UpdateLine(ctx context.Context, id uuid.UUID, qty int, unitPrice int64, originalUnitPrice *int64, subtotal int64) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE cart_lines
		SET qty = $2, unit_price = $3, original_unit_price = $4, subtotal = $5
		WHERE id = $1`, id, qty, unitPrice, originalUnitPrice, subtotal)
	return err
}

// DeleteLine removes one line from the cart.
func (r Carts) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineID, cartID)
	return err
}

// DeleteLinesByCart clears all lines, used after a successful checkout.
func (r Carts) DeleteLinesByCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	return err
}
