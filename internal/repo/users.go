package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/selara/backend-store/internal/common"
	"github.com/selara/backend-store/internal/domain"
)

// ErrDuplicateEmail is returned when a registration reuses an existing email.
var ErrDuplicateEmail = errors.New("email already registered")

// Users persists accounts and refresh sessions.
type Users struct {
	DB DBTX
}

const userColumns = `id, name, email, password_hash, roles, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a new account. The email unique index enforces one account per address.
func (r Users) Create(ctx context.Context, name, email, passwordHash string, roles []string) (domain.User, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns, name, email, passwordHash, roles)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches an account by email.
func (r Users) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNoRows(err)
	}
	return u, nil
}

// GetByID fetches an account by identifier.
func (r Users) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNoRows(err)
	}
	return u, nil
}

// List returns a page of accounts, newest first.
func (r Users) List(ctx context.Context, page common.Page) ([]domain.User, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update replaces name and roles on an account.
func (r Users) Update(ctx context.Context, id uuid.UUID, name string, roles []string) (domain.User, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE users SET name = $2, roles = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, name, roles)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNoRows(err)
	}
	return u, nil
}

// Delete removes an account and, via cascade, its sessions.
func (r Users) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateSession stores a hashed refresh token for the user.
func (r Users) CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`, userID, tokenHash, expiresAt)
	return err
}

// GetSessionUser resolves an unexpired session to its user id.
func (r Users) GetSessionUser(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.DB.QueryRow(ctx, `
		SELECT user_id FROM sessions
		WHERE token_hash = $1 AND expires_at > now()`, tokenHash).Scan(&userID)
	if err != nil {
		return uuid.Nil, mapNoRows(err)
	}
	return userID, nil
}

// RotateSession atomically replaces the token hash of a live session.
// Returns domain.ErrNotFound when the old token was already rotated or expired.
func (r Users) RotateSession(ctx context.Context, oldHash, newHash string, expiresAt time.Time) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE sessions SET token_hash = $2, expires_at = $3
		WHERE token_hash = $1 AND expires_at > now()`, oldHash, newHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteSession revokes one session.
func (r Users) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteSessionsByUser revokes every session of a user.
func (r Users) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
