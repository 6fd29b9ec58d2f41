package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// Reviews persists product reviews and their moderation state.
type Reviews struct {
	DB DBTX
}

const reviewColumns = `id, product_id, author, rating, body, is_approved, created_at`

func scanReview(row interface{ Scan(...any) error }) (domain.Review, error) {
	var rv domain.Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.Author, &rv.Rating, &rv.Body, &rv.IsApproved, &rv.CreatedAt)
	return rv, err
}

// Create inserts a review awaiting moderation.
func (r Reviews) Create(ctx context.Context, rv domain.Review) (domain.Review, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO reviews (product_id, author, rating, body, is_approved)
		VALUES ($1, $2, $3, $4, false)
		RETURNING `+reviewColumns, rv.ProductID, rv.Author, rv.Rating, rv.Body)
	created, err := scanReview(row)
	if err != nil {
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}
	return created, nil
}

// ListApprovedByProduct returns published reviews for a product, newest first.
func (r Reviews) ListApprovedByProduct(ctx context.Context, productID uuid.UUID, page common.Page) ([]domain.Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE product_id = $1 AND is_approved
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list approved reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

// ListPending returns reviews waiting for moderation, oldest first.
func (r Reviews) ListPending(ctx context.Context, page common.Page) ([]domain.Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE NOT is_approved
		ORDER BY created_at, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func collectReviews(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Approve publishes a review.
func (r Reviews) Approve(ctx context.Context, id uuid.UUID) (domain.Review, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE reviews SET is_approved = true
		WHERE id = $1
		RETURNING `+reviewColumns, id)
	rv, err := scanReview(row)
	if err != nil {
		return domain.Review{}, mapNoRows(err)
	}
	return rv, nil
}

// Delete removes a review.
func (r Reviews) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
