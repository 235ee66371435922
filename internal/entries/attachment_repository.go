package entries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fundflow/fundflow/internal/platform/db"
)

// AttachmentRepository persists attachment metadata in PostgreSQL. File bodies
// live in the blob store under Attachment.Key.
type AttachmentRepository struct {
	conn db.Conn
}

// NewAttachmentRepository constructs an attachment repository.
func NewAttachmentRepository(conn db.Conn) *AttachmentRepository {
	return &AttachmentRepository{conn: conn}
}

const attachmentColumns = `id, entry_id, file_key, file_name, file_type, content_type, size, uploaded_by, created_at`

// ListAttachments returns the live attachments of an entry, oldest first.
func (r *AttachmentRepository) ListAttachments(ctx context.Context, entryID uuid.UUID) ([]Attachment, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+attachmentColumns+` FROM attachments
		WHERE entry_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("entries: list attachments: %w", err)
	}
	defer rows.Close()
	out := make([]Attachment, 0)
	for rows.Next() {
		item, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("entries: scan attachment: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entries: list attachments: %w", err)
	}
	return out, nil
}

// GetAttachment fetches a live attachment.
func (r *AttachmentRepository) GetAttachment(ctx context.Context, id uuid.UUID) (Attachment, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = $1 AND deleted_at IS NULL`, id)
	item, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, ErrAttachmentNotFound
		}
		return Attachment{}, fmt.Errorf("entries: get attachment: %w", err)
	}
	return item, nil
}

// SaveAttachments inserts items in one transaction, soft deleting the current
// attachments first when replace is set.
func (r *AttachmentRepository) SaveAttachments(ctx context.Context, entryID uuid.UUID, replace bool, items []Attachment) (int, error) {
	var removed int
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		if replace {
			tag, err := tx.Exec(ctx, `UPDATE attachments SET deleted_at = NOW()
				WHERE entry_id = $1 AND deleted_at IS NULL`, entryID)
			if err != nil {
				return fmt.Errorf("entries: replace attachments: %w", err)
			}
			removed = int(tag.RowsAffected())
		}
		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(`INSERT INTO attachments (`+attachmentColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				item.ID, entryID, item.Key, item.FileName, string(item.Type), item.ContentType, item.Size, item.UploadedBy, item.CreatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("entries: insert attachments: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE entries SET updated_at = NOW() WHERE id = $1`, entryID); err != nil {
			return fmt.Errorf("entries: touch entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteAttachment soft deletes an attachment.
func (r *AttachmentRepository) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn.Exec(ctx, `UPDATE attachments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("entries: delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

func scanAttachment(row scanner) (Attachment, error) {
	var (
		item     Attachment
		fileType string
	)
	err := row.Scan(&item.ID, &item.EntryID, &item.Key, &item.FileName, &fileType, &item.ContentType,
		&item.Size, &item.UploadedBy, &item.CreatedAt)
	if err != nil {
		return Attachment{}, err
	}
	item.Type = AttachmentType(fileType)
	if item.Type == "" {
		item.Type = AttachmentOther
	}
	return item, nil
}
