package reports

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// Handler exposes report endpoints.
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

// MountRoutes registers report routes. The router must already run Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/workspaces/{"+permissions.WorkspaceParam+"}/reports/summary", h.summary)
	r.Get("/workspaces/{"+permissions.WorkspaceParam+"}/reports/export.csv", h.export)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), user, id)
	if err != nil {
		h.logger.Info("report summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	user, id, ok := h.target(w, r)
	if !ok {
		return
	}
	// Buffer so a failure can still produce a problem response.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), user, id, &buf); err != nil {
		h.logger.Info("report export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "entries-"+id.String()+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
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
