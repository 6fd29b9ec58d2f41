package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Products provides catalog persistence.
type Products struct {
	DB DBTX
}

const productColumns = `id, title, slug, description, price, compare_at, in_stock, thumbnail, images, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.CompareAt, &p.InStock, &p.Thumbnail, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns a page of products, newest first.
func (r Products) List(ctx context.Context, page common.Page, inStockOnly bool) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if inStockOnly {
		q += ` WHERE in_stock`
	}
	q += ` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.DB.Query(ctx, q, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count reports the total product count for pagination.
func (r Products) Count(ctx context.Context, inStockOnly bool) (int64, error) {
	q := `SELECT count(*) FROM products`
	if inStockOnly {
		q += ` WHERE in_stock`
	}
	var n int64
	if err := r.DB.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// GetBySlug fetches one product by its URL slug.
func (r Products) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, mapNoRows(err)
	}
	return p, nil
}

// GetByID fetches one product by identifier.
func (r Products) GetByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, mapNoRows(err)
	}
	return p, nil
}

// ListRelated returns other in-stock products, newest first.
func (r Products) ListRelated(ctx context.Context, excludeID uuid.UUID, limit int) ([]domain.Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id <> $1 AND in_stock
		ORDER BY created_at DESC LIMIT $2`, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	defer rows.Close()
	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a product.
func (r Products) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products (title, slug, description, price, compare_at, in_stock, thumbnail, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		p.Title, p.Slug, p.Description, p.Price, p.CompareAt, p.InStock, p.Thumbnail, p.Images)
	created, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update replaces the mutable fields of a product.
func (r Products) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE products
		SET title = $2, slug = $3, description = $4, price = $5, compare_at = $6,
		    in_stock = $7, thumbnail = $8, images = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Title, p.Slug, p.Description, p.Price, p.CompareAt, p.InStock, p.Thumbnail, p.Images)
	updated, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, mapNoRows(err)
	}
	return updated, nil
}

// Delete removes a product.
func (r Products) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
