package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// SessionUserID returns the account bound to the request session.
// ErrNoSession covers a missing session, an anonymous one and a garbled id alike.
func SessionUserID(ctx context.Context) (uuid.UUID, error) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return uuid.Nil, ErrNoSession
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return uuid.Nil, ErrNoSession
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrMalformedSession
	}
	return id, nil
}
