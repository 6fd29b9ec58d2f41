package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Discounts persists discount codes and their usage ledger.
type Discounts struct {
	DB DBTX
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r Discounts) WithTx(tx DBTX) Discounts {
	return Discounts{DB: tx}
}

const discountColumns = `id, code, type, value, scope, product_id, limitation_type, start_date, end_date, usage_limit, times_used, is_active, created_at, updated_at`

func scanDiscount(row interface{ Scan(...any) error }) (domain.DiscountCode, error) {
	var d domain.DiscountCode
	err := row.Scan(&d.ID, &d.Code, &d.Type, &d.Value, &d.Scope, &d.ProductID, &d.LimitationType,
		&d.StartDate, &d.EndDate, &d.UsageLimit, &d.TimesUsed, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// GetByCode fetches a code case-insensitively.
func (r Discounts) GetByCode(ctx context.Context, code string) (domain.DiscountCode, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+discountColumns+` FROM discount_codes
		WHERE upper(code) = $1`, strings.ToUpper(strings.TrimSpace(code)))
	d, err := scanDiscount(row)
	if err != nil {
		return domain.DiscountCode{}, mapNoRows(err)
	}
	return d, nil
}

// GetByID fetches a code by identifier.
func (r Discounts) GetByID(ctx context.Context, id uuid.UUID) (domain.DiscountCode, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+discountColumns+` FROM discount_codes WHERE id = $1`, id)
	d, err := scanDiscount(row)
	if err != nil {
		return domain.DiscountCode{}, mapNoRows(err)
	}
	return d, nil
}

// List returns a page of codes, newest first.
func (r Discounts) List(ctx context.Context, page common.Page) ([]domain.DiscountCode, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+discountColumns+` FROM discount_codes
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list discount codes: %w", err)
	}
	defer rows.Close()
	var out []domain.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create inserts a new code. Codes are stored as entered but matched case-insensitively.
func (r Discounts) Create(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO discount_codes (code, type, value, scope, product_id, limitation_type, start_date, end_date, usage_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+discountColumns,
		d.Code, d.Type, d.Value, d.Scope, d.ProductID, d.LimitationType, d.StartDate, d.EndDate, d.UsageLimit, d.IsActive)
	created, err := scanDiscount(row)
	if err != nil {
		return domain.DiscountCode{}, fmt.Errorf("create discount code: %w", err)
	}
	return created, nil
}

// Update replaces the mutable fields of a code.
func (r Discounts) Update(ctx context.Context, d domain.DiscountCode) (domain.DiscountCode, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE discount_codes
		SET code = $2, type = $3, value = $4, scope = $5, product_id = $6, limitation_type = $7,
		    start_date = $8, end_date = $9, usage_limit = $10, is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+discountColumns,
		d.ID, d.Code, d.Type, d.Value, d.Scope, d.ProductID, d.LimitationType,
		d.StartDate, d.EndDate, d.UsageLimit, d.IsActive)
	updated, err := scanDiscount(row)
	if err != nil {
		return domain.DiscountCode{}, mapNoRows(err)
	}
	return updated, nil
}

// Delete removes a code.
func (r Discounts) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM discount_codes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InsertUsage records that an order reserved the code. The unique (code_id, order_id)
// pair keeps retries from reserving twice.
func (r Discounts) InsertUsage(ctx context.Context, codeID, orderID uuid.UUID, amount int64) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO discount_usages (code_id, order_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (code_id, order_id) DO NOTHING`, codeID, orderID, amount)
	return err
}

// SettleUsage marks a usage row settled and bumps the counter exactly once.
// Returns false when the row was already settled or never reserved.
func (r Discounts) SettleUsage(ctx context.Context, codeID, orderID uuid.UUID) (bool, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE discount_usages SET settled_at = now()
		WHERE code_id = $1 AND order_id = $2 AND settled_at IS NULL`, codeID, orderID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	_, err = r.DB.Exec(ctx, `
		UPDATE discount_codes SET times_used = times_used + 1, updated_at = now()
		WHERE id = $1`, codeID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseUsage drops the reservation for a canceled order if it was never settled.
func (r Discounts) ReleaseUsage(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM discount_usages WHERE order_id = $1 AND settled_at IS NULL`, orderID)
	return err
}
