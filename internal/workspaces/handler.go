package workspaces

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// Handler exposes workspace administration over JSON.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers workspace routes. The router must already run Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/organizations/{organizationID}/workspaces", h.create)
	r.Route("/workspaces/{"+permissions.WorkspaceParam+"}", func(r chi.Router) {
		r.Post("/lock", h.lock)
		r.Post("/unlock", h.unlock)
		r.Put("/deadline", h.setDeadline)
		r.Post("/teams", h.assignTeam)
		r.Patch("/organization", h.updateOrganization)
	})
}

type workspaceResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	Locked         bool       `json:"locked"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

func toResponse(ws tenancy.Workspace) workspaceResponse {
	return workspaceResponse{
		ID:             ws.ID,
		OrganizationID: ws.OrganizationID,
		Title:          ws.Title,
		Status:         string(ws.Status),
		Locked:         ws.Locked,
		Deadline:       ws.Deadline,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user := tenancy.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	orgID, err := uuid.Parse(chi.URLParam(r, "organizationID"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid organization id", httpx.ErrValidation))
		return
	}
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ws, err := h.service.Create(r.Context(), user, orgID, input)
	if err != nil {
		h.fail(w, "create workspace", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(ws))
}

func (h *Handler) lock(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ws, err := h.service.Lock(r.Context(), user, id)
	if err != nil {
		h.fail(w, "lock workspace", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(ws))
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ws, err := h.service.Unlock(r.Context(), user, id)
	if err != nil {
		h.fail(w, "unlock workspace", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(ws))
}

func (h *Handler) setDeadline(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var input DeadlineInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ws, err := h.service.SetDeadline(r.Context(), user, id, input)
	if err != nil {
		h.fail(w, "set deadline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(ws))
}

type assignTeamRequest struct {
	TeamID uuid.UUID `json:"team_id"`
}

func (h *Handler) assignTeam(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var req assignTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.TeamID == uuid.Nil {
		httpx.RespondError(w, fmt.Errorf("%w: team_id is required", httpx.ErrValidation))
		return
	}
	if err := h.service.AssignTeam(r.Context(), user, id, req.TeamID); err != nil {
		h.fail(w, "assign team", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var input OrganizationInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	org, err := h.service.UpdateOrganization(r.Context(), user, id, input)
	if err != nil {
		h.fail(w, "update organization", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": org.ID, "title": org.Title})
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*tenancy.User, uuid.UUID, bool) {
	user := tenancy.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, permissions.WorkspaceParam))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid workspace id", httpx.ErrValidation))
		return nil, uuid.Nil, false
	}
	return user, id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, httpx.ErrForbidden) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) {
		h.logger.Info(op+" rejected", slog.Any("error", err))
	} else {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
