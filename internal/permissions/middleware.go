package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/shared"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// URL parameters the middleware resolves into a Scope.
const (
	WorkspaceParam = "workspaceID"
	TeamParam      = "teamID"
)

// UserLoader resolves the session user.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (tenancy.User, error)
}

// ScopeLoader resolves workspaces and teams named in the URL.
type ScopeLoader interface {
	GetWorkspace(ctx context.Context, id uuid.UUID) (tenancy.Workspace, error)
	GetTeam(ctx context.Context, id uuid.UUID) (tenancy.Team, error)
}

// DecisionObserver counts permission decisions.
type DecisionObserver interface {
	ObserveDecision(permission, outcome string)
}

// Middleware wires permission checks into HTTP handlers.
type Middleware struct {
	Checker *Checker
	Users   UserLoader
	Scopes  ScopeLoader
	Metrics DecisionObserver
	Logger  *slog.Logger
}

// Authenticate loads the session user into the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.currentUser(r)
		if err != nil {
			if !errors.Is(err, httpx.ErrUnauthorized) {
				m.logger().Error("permissions authenticate", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.ContextWithUser(r.Context(), user)))
	})
}

// Require resolves the scope from URL parameters and ensures the current user
// holds every listed permission. With no permissions it only resolves the scope.
func (m Middleware) Require(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := tenancy.UserFromContext(r.Context())
			if user == nil {
				httpx.RespondError(w, shared.ErrNoSession)
				return
			}
			scope, err := m.resolveScope(r)
			if err != nil {
				if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
					m.logger().Error("permissions resolve scope", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			for _, p := range perms {
				err := m.Checker.Check(r.Context(), user, p, scope)
				m.observe(p, err)
				if err == nil {
					continue
				}
				var denied *DeniedError
				if errors.As(err, &denied) {
					m.logger().Warn("permission denied",
						slog.String("user_id", user.ID.String()),
						slog.String("permission", string(p)),
						slog.String("reason", string(denied.Reason)))
				} else {
					m.logger().Error("permission check", slog.String("permission", string(p)), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithScope(r.Context(), scope)))
		})
	}
}

func (m Middleware) currentUser(r *http.Request) (*tenancy.User, error) {
	id, err := shared.SessionUserID(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrMalformedSession) {
			m.logger().Error("permissions parse session user", slog.Any("error", err))
		}
		return nil, shared.ErrNoSession
	}
	user, err := m.Users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, tenancy.ErrNotFound) {
			return nil, shared.ErrNoSession
		}
		return nil, err
	}
	return &user, nil
}

func (m Middleware) resolveScope(r *http.Request) (Scope, error) {
	var scope Scope
	if raw := chi.URLParam(r, WorkspaceParam); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, fmt.Errorf("invalid workspace id: %w", httpx.ErrValidation)
		}
		ws, err := m.Scopes.GetWorkspace(r.Context(), id)
		if err != nil {
			return Scope{}, err
		}
		scope.Workspace = &ws
	}
	if raw := chi.URLParam(r, TeamParam); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, fmt.Errorf("invalid team id: %w", httpx.ErrValidation)
		}
		team, err := m.Scopes.GetTeam(r.Context(), id)
		if err != nil {
			return Scope{}, err
		}
		scope.Team = &team
	}
	return scope, nil
}

func (m Middleware) observe(p Permission, err error) {
	if m.Metrics == nil {
		return
	}
	m.Metrics.ObserveDecision(string(p), outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "allowed"
	case errors.Is(err, ErrPermissionDenied):
		return "denied"
	default:
		return "error"
	}
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

type scopeContextKey struct{}

// ContextWithScope stores the resolved scope in context.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the resolved scope from context.
func ScopeFromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeContextKey{}).(Scope)
	return scope
}
