package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/shared"
)

// LoginObserver counts login outcomes.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// Handler serves the JSON login and logout endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	observer LoginObserver
}

// NewHandler builds Handler instance. observer may be nil.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, observer LoginObserver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessions: sessions, observer: observer}
}

func (h *Handler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveLogin(outcome)
	}
}

// MountRoutes registers the public auth routes. The router must already load sessions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginResponse struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	Superuser     bool   `json:"superuser"`
	LastWorkspace string `json:"last_workspace,omitempty"`
}

type sessionResponse struct {
	UserID        string `json:"user_id"`
	LastWorkspace string `json:"last_workspace,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("auth: session middleware not installed"))
		return
	}
	var input LoginInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	acc, err := h.service.Authenticate(r.Context(), input)
	if err != nil {
		h.logger.Info("login rejected", slog.String("email", input.Email))
		h.observe("rejected")
		httpx.RespondError(w, err)
		return
	}
	h.sessions.Renew(sess)
	sess.SetUser(acc.ID.String())
	rec := SessionRecord{
		ID:        sess.ID,
		UserID:    acc.ID,
		ExpiresAt: time.Now().Add(h.sessions.TTL()),
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if err := h.service.RegisterSession(r.Context(), rec); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.observe("success")
	httpx.JSON(w, http.StatusOK, loginResponse{
		UserID:        acc.ID.String(),
		Email:         acc.Email,
		Superuser:     acc.IsSuperuser,
		LastWorkspace: sess.Get(shared.LastWorkspaceKey),
	})
}

// Current describes the signed-in session. Mount it behind authentication.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.SessionUserID(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:        userID.String(),
		LastWorkspace: sess.Get(shared.LastWorkspaceKey),
	})
}

// Logout drops the login record and destroys the session. Mount it behind authentication.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.User() != "" {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
	}
	h.sessions.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}
