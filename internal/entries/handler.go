package entries

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

const (
	entryParam      = "entryID"
	attachmentParam = "attachmentID"
)

// Handler exposes entry endpoints over JSON.
type Handler struct {
	service     *Service
	attachments *AttachmentService
	logger      *slog.Logger
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// WithAttachments enables the attachment routes.
func (h *Handler) WithAttachments(service *AttachmentService) *Handler {
	h.attachments = service
	return h
}

// MountRoutes registers entry routes. The router must already run Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/workspaces/{"+permissions.WorkspaceParam+"}/entries", h.list)
	r.Post("/workspaces/{"+permissions.WorkspaceParam+"}/entries", h.submit)
	r.Patch("/entries/{"+entryParam+"}", h.edit)
	r.Post("/entries/{"+entryParam+"}/review", h.review)
	r.Post("/entries/{"+entryParam+"}/flag", h.flag)
	if h.attachments != nil {
		r.Get("/entries/{"+entryParam+"}/attachments", h.listAttachments)
		r.Post("/entries/{"+entryParam+"}/attachments", h.uploadAttachments)
		r.Delete("/attachments/{"+attachmentParam+"}", h.deleteAttachment)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	workspaceID, ok := h.id(w, r, permissions.WorkspaceParam)
	if !ok {
		return
	}
	filter := ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Type:   Type(r.URL.Query().Get("type")),
	}
	if raw := r.URL.Query().Get("team_id"); raw != "" {
		teamID, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid team_id", httpx.ErrValidation))
			return
		}
		filter.TeamID = teamID
	}
	items, err := h.service.List(r.Context(), user, workspaceID, filter)
	if err != nil {
		h.fail(w, "list entries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": items})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	workspaceID, ok := h.id(w, r, permissions.WorkspaceParam)
	if !ok {
		return
	}
	var input SubmitInput
	if !h.decode(w, r, &input) {
		return
	}
	entry, err := h.service.Submit(r.Context(), user, workspaceID, input)
	if err != nil {
		h.fail(w, "submit entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	entryID, ok := h.id(w, r, entryParam)
	if !ok {
		return
	}
	var input EditInput
	if !h.decode(w, r, &input) {
		return
	}
	entry, err := h.service.Edit(r.Context(), user, entryID, input)
	if err != nil {
		h.fail(w, "edit entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	entryID, ok := h.id(w, r, entryParam)
	if !ok {
		return
	}
	var input ReviewInput
	if !h.decode(w, r, &input) {
		return
	}
	entry, err := h.service.Review(r.Context(), user, entryID, input)
	if err != nil {
		h.fail(w, "review entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) flag(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	entryID, ok := h.id(w, r, entryParam)
	if !ok {
		return
	}
	var input FlagInput
	if !h.decode(w, r, &input) {
		return
	}
	entry, err := h.service.Flag(r.Context(), user, entryID, input)
	if err != nil {
		h.fail(w, "flag entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	entryID, ok := h.id(w, r, entryParam)
	if !ok {
		return
	}
	items, err := h.attachments.List(r.Context(), user, entryID)
	if err != nil {
		h.fail(w, "list attachments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"attachments": items})
}

// uploadAttachments reads multipart "files" parts. replace=true swaps out the
// current attachments instead of appending.
func (h *Handler) uploadAttachments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	entryID, ok := h.id(w, r, entryParam)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxAttachmentsPerUpload*MaxAttachmentSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid multipart body", httpx.ErrValidation))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	replace := false
	if raw := r.FormValue("replace"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid replace flag", httpx.ErrValidation))
			return
		}
		replace = parsed
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			h.fail(w, "upload attachments", err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, MaxAttachmentSize+1))
		_ = file.Close()
		if err != nil {
			h.fail(w, "upload attachments", err)
			return
		}
		uploads = append(uploads, Upload{Name: header.Filename, Data: data})
	}

	items, err := h.attachments.Upload(r.Context(), user, entryID, uploads, replace)
	if err != nil {
		h.fail(w, "upload attachments", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"attachments": items})
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	attachmentID, ok := h.id(w, r, attachmentParam)
	if !ok {
		return
	}
	if err := h.attachments.Delete(r.Context(), user, attachmentID); err != nil {
		h.fail(w, "delete attachment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (*tenancy.User, bool) {
	user := tenancy.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

func (h *Handler) id(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, param))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, httpx.ErrForbidden), errors.Is(err, httpx.ErrValidation),
		errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrConflict):
		h.logger.Info(op+" rejected", slog.Any("error", err))
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
