package shared

import (
	"fmt"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

var (
	// ErrNoSession indicates that the request carries no authenticated session.
	ErrNoSession = fmt.Errorf("session: %w", httpx.ErrUnauthorized)
	// ErrMalformedSession marks a stored user id that is not a UUID.
	ErrMalformedSession = fmt.Errorf("session: malformed user id: %w", ErrNoSession)
)
