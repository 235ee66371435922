package entries

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/audit"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/blob"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// AttachmentType classifies an uploaded file by its extension.
type AttachmentType string

// Attachment types. AttachmentOther covers rows whose extension is no longer recognised.
const (
	AttachmentImage       AttachmentType = "image"
	AttachmentPDF         AttachmentType = "pdf"
	AttachmentSpreadsheet AttachmentType = "spreadsheet"
	AttachmentOther       AttachmentType = "other"
)

// Upload limits.
const (
	MaxAttachmentSize       = 5 << 20
	MaxAttachmentsPerUpload = 10
)

var attachmentExtensions = map[string]AttachmentType{
	".jpg":  AttachmentImage,
	".jpeg": AttachmentImage,
	".png":  AttachmentImage,
	".pdf":  AttachmentPDF,
	".xls":  AttachmentSpreadsheet,
	".xlsx": AttachmentSpreadsheet,
	".csv":  AttachmentSpreadsheet,
}

// AttachmentTypeFor maps a file name to its attachment type.
func AttachmentTypeFor(name string) AttachmentType {
	if t, ok := attachmentExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return AttachmentOther
}

// accepts checks the sniffed content against the declared type. Spreadsheets
// arrive as CSV text, legacy OLE or OOXML archives, so any content is taken.
func (t AttachmentType) accepts(m *mimetype.MIME) bool {
	switch t {
	case AttachmentImage:
		return m.Is("image/jpeg") || m.Is("image/png")
	case AttachmentPDF:
		return m.Is("application/pdf")
	default:
		return true
	}
}

var (
	// ErrAttachmentNotFound indicates a missing or removed attachment.
	ErrAttachmentNotFound = fmt.Errorf("entries: attachment: %w", httpx.ErrNotFound)
	// ErrNoAttachments rejects an upload without files.
	ErrNoAttachments = fmt.Errorf("entries: at least one file is required: %w", httpx.ErrValidation)
	// ErrTooManyAttachments rejects uploads above MaxAttachmentsPerUpload files.
	ErrTooManyAttachments = fmt.Errorf("entries: at most %d files per upload: %w", MaxAttachmentsPerUpload, httpx.ErrValidation)
	// ErrInvalidAttachment rejects a file by size, extension or content.
	ErrInvalidAttachment = fmt.Errorf("entries: invalid attachment: %w", httpx.ErrValidation)
	// ErrLastAttachment keeps at least one attachment on an entry.
	ErrLastAttachment = fmt.Errorf("entries: cannot delete the last attachment: %w", httpx.ErrConflict)
)

// Attachment is a receipt or supporting document stored for an entry.
type Attachment struct {
	ID          uuid.UUID      `json:"id"`
	EntryID     uuid.UUID      `json:"entry_id"`
	Key         string         `json:"-"`
	FileName    string         `json:"file_name"`
	Type        AttachmentType `json:"file_type"`
	ContentType string         `json:"content_type"`
	Size        int64          `json:"size"`
	UploadedBy  uuid.UUID      `json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Upload is a file received for an entry.
type Upload struct {
	Name string
	Data []byte
}

// AttachmentRepositoryPort describes the attachment persistence used by AttachmentService.
type AttachmentRepositoryPort interface {
	ListAttachments(ctx context.Context, entryID uuid.UUID) ([]Attachment, error)
	GetAttachment(ctx context.Context, id uuid.UUID) (Attachment, error)
	// SaveAttachments inserts items, first soft deleting the live attachments of
	// entryID when replace is set. It returns how many were removed.
	SaveAttachments(ctx context.Context, entryID uuid.UUID, replace bool, items []Attachment) (int, error)
	DeleteAttachment(ctx context.Context, id uuid.UUID) error
}

// AttachmentService manages the files attached to entries. Permission checks and
// audit records go through the entry service.
type AttachmentService struct {
	entries *Service
	repo    AttachmentRepositoryPort
	store   blob.Store
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(entries *Service, repo AttachmentRepositoryPort, store blob.Store) *AttachmentService {
	return &AttachmentService{entries: entries, repo: repo, store: store}
}

// Upload stores files for an entry, appending to or replacing its current attachments.
func (s *AttachmentService) Upload(ctx context.Context, user *tenancy.User, entryID uuid.UUID, uploads []Upload, replace bool) ([]Attachment, error) {
	entry, ws, err := s.entries.authorizeEntry(ctx, user, entryID, permissions.UploadAttachments)
	if err != nil {
		return nil, err
	}
	if err := s.entries.writable(ws); err != nil {
		return nil, err
	}
	switch {
	case len(uploads) == 0:
		return nil, ErrNoAttachments
	case len(uploads) > MaxAttachmentsPerUpload:
		return nil, ErrTooManyAttachments
	}

	now := s.entries.now().UTC()
	items := make([]Attachment, 0, len(uploads))
	for _, up := range uploads {
		item, err := prepareAttachment(entry.ID, user.ID, up, now)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	stored := make([]string, 0, len(items))
	for i, item := range items {
		if err := s.store.Put(ctx, item.Key, bytes.NewReader(uploads[i].Data), item.ContentType); err != nil {
			s.discard(ctx, stored)
			return nil, err
		}
		stored = append(stored, item.Key)
	}

	removed, err := s.repo.SaveAttachments(ctx, entry.ID, replace, items)
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.FileName)
	}
	s.entries.record(ctx, user, audit.ActionEntryAttach, entry, map[string]any{
		"files":    names,
		"replace":  replace,
		"replaced": removed,
	})
	return items, nil
}

// List returns the live attachments of an entry to members of its team.
func (s *AttachmentService) List(ctx context.Context, user *tenancy.User, entryID uuid.UUID) ([]Attachment, error) {
	entry, _, err := s.entries.authorizeEntry(ctx, user, entryID, permissions.ViewWorkspace)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAttachments(ctx, entry.ID)
}

// Delete soft deletes an attachment. The last attachment of an entry stays.
func (s *AttachmentService) Delete(ctx context.Context, user *tenancy.User, attachmentID uuid.UUID) error {
	item, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	entry, ws, err := s.entries.authorizeEntry(ctx, user, item.EntryID, permissions.UploadAttachments)
	if err != nil {
		return err
	}
	if err := s.entries.writable(ws); err != nil {
		return err
	}
	live, err := s.repo.ListAttachments(ctx, entry.ID)
	if err != nil {
		return err
	}
	if len(live) <= 1 {
		return ErrLastAttachment
	}
	if err := s.repo.DeleteAttachment(ctx, item.ID); err != nil {
		return err
	}
	s.entries.record(ctx, user, audit.ActionEntryDetach, entry, map[string]any{
		"attachment_id": item.ID.String(),
		"file":          item.FileName,
	})
	return nil
}

func (s *AttachmentService) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.entries.logger.Warn("discard attachment", slog.String("key", key), slog.Any("error", err))
		}
	}
}

func prepareAttachment(entryID, userID uuid.UUID, up Upload, now time.Time) (Attachment, error) {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(up.Name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return Attachment{}, fmt.Errorf("%w: file name is required", ErrInvalidAttachment)
	}
	if len(up.Data) == 0 {
		return Attachment{}, fmt.Errorf("%w: %s is empty", ErrInvalidAttachment, name)
	}
	if len(up.Data) > MaxAttachmentSize {
		return Attachment{}, fmt.Errorf("%w: %s exceeds %dMB size limit", ErrInvalidAttachment, name, MaxAttachmentSize>>20)
	}
	ext := strings.ToLower(filepath.Ext(name))
	kind, ok := attachmentExtensions[ext]
	if !ok {
		return Attachment{}, fmt.Errorf("%w: %s has unsupported file type %q", ErrInvalidAttachment, name, ext)
	}
	detected := mimetype.Detect(up.Data)
	if !kind.accepts(detected) {
		return Attachment{}, fmt.Errorf("%w: %s content is %s", ErrInvalidAttachment, name, detected.String())
	}

	id := uuid.New()
	return Attachment{
		ID:          id,
		EntryID:     entryID,
		Key:         "entries/" + entryID.String() + "/" + id.String() + ext,
		FileName:    name,
		Type:        kind,
		ContentType: detected.String(),
		Size:        int64(len(up.Data)),
		UploadedBy:  userID,
		CreatedAt:   now,
	}, nil
}
