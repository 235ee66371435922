// Package auth signs users in with email and password and binds the session
// to their account. Every other endpoint reads identity from that session.
package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = fmt.Errorf("auth: invalid email or password: %w", httpx.ErrUnauthorized)

// Account is a user row including its password hash.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionRecord mirrors a login in user_sessions for auditing.
type SessionRecord struct {
	ID        string
	UserID    uuid.UUID
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
