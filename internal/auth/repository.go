package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fundflow/fundflow/internal/platform/db"
	"github.com/fundflow/fundflow/internal/platform/httpx"
)

// ErrAccountNotFound indicates no account matches the email.
var ErrAccountNotFound = fmt.Errorf("auth: account: %w", httpx.ErrNotFound)

// Repository provides PostgreSQL backed account and session persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// FindByEmail fetches an account by case-insensitive email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	var acc Account
	err := r.db.QueryRow(ctx, `SELECT id, email, password_hash, is_active, is_superuser
		FROM users WHERE lower(email) = $1`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.IsActive, &acc.IsSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("auth: find by email: %w", err)
	}
	return acc, nil
}

// CreateSession records a login.
func (r *Repository) CreateSession(ctx context.Context, rec SessionRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO user_sessions (id, user_id, created_at, expires_at, ip, user_agent)
		VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`,
		rec.ID, rec.UserID, rec.ExpiresAt.UTC(), rec.IP, rec.UserAgent)
	if err != nil {
		return fmt.Errorf("auth: create session: %w", err)
	}
	return nil
}

// DeleteSession removes a login record.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}
