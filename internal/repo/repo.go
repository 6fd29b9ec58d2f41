package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/selara/backend-store/internal/domain"
)

// DBTX is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx,
// so every repository works both standalone and inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// mapNoRows converts pgx.ErrNoRows into the domain sentinel so callers never
// have to import pgx to distinguish "missing" from transport failures.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
