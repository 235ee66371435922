package permissions

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/shared"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// Handler exposes the caller's effective permissions for UI gating.
type Handler struct {
	checker *Checker
	guard   Middleware
}

// NewHandler builds Handler instance.
func NewHandler(checker *Checker, guard Middleware) *Handler {
	return &Handler{checker: checker, guard: guard}
}

type permissionsResponse struct {
	Superuser   bool         `json:"superuser"`
	Permissions []Permission `json:"permissions"`
}

// MountRoutes registers permission routes. The router must already run Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require()).Get("/workspaces/{"+WorkspaceParam+"}/permissions", h.listPermissions)
	r.With(h.guard.Require()).Get("/teams/{"+TeamParam+"}/permissions", h.listPermissions)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	user := tenancy.UserFromContext(r.Context())
	scope := ScopeFromContext(r.Context())
	perms := h.checker.UserPermissions(r.Context(), user, scope)
	if sess := shared.SessionFromContext(r.Context()); sess != nil && scope.Workspace != nil {
		sess.Set(shared.LastWorkspaceKey, scope.Workspace.ID.String())
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{
		Superuser:   user != nil && user.IsSuperuser,
		Permissions: perms,
	})
}
