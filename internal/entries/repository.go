package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fundflow/fundflow/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for entries.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const entryColumns = `id, workspace_id, team_id, submitted_by, entry_type, amount, currency, description,
	status, reviewed_by, review_note, created_at, updated_at`

// Create inserts a new entry and returns it with database timestamps.
func (r *Repository) Create(ctx context.Context, entry Entry) (Entry, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO entries (id, workspace_id, team_id, submitted_by, entry_type, amount, currency, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+entryColumns,
		entry.ID, entry.WorkspaceID, entry.TeamID, entry.SubmittedBy, string(entry.Type), entry.Amount, entry.Currency, entry.Description, string(entry.Status))
	created, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("entries: create: %w", err)
	}
	return created, nil
}

// Get fetches a live entry.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = $1 AND deleted_at IS NULL`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("entries: get: %w", err)
	}
	return entry, nil
}

// Update persists the mutable fields of entry.
func (r *Repository) Update(ctx context.Context, entry Entry) (Entry, error) {
	row := r.db.QueryRow(ctx, `UPDATE entries
		SET entry_type = $2, amount = $3, currency = $4, description = $5, status = $6,
			reviewed_by = $7, review_note = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+entryColumns,
		entry.ID, string(entry.Type), entry.Amount, entry.Currency, entry.Description, string(entry.Status), entry.ReviewedBy, entry.ReviewNote)
	updated, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("entries: update: %w", err)
	}
	return updated, nil
}

// List returns the workspace entries matching filter, newest first.
func (r *Repository) List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Entry, error) {
	var (
		sb   strings.Builder
		args = []interface{}{workspaceID}
	)
	sb.WriteString(`SELECT ` + entryColumns + ` FROM entries WHERE workspace_id = $1 AND deleted_at IS NULL`)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		fmt.Fprintf(&sb, " AND entry_type = $%d", len(args))
	}
	if filter.TeamID != uuid.Nil {
		args = append(args, filter.TeamID)
		fmt.Fprintf(&sb, " AND team_id = $%d", len(args))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("entries: list: %w", err)
	}
	defer rows.Close()
	out := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("entries: scan: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entries: list: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry      Entry
		entryType  string
		status     string
		reviewNote *string
	)
	err := row.Scan(&entry.ID, &entry.WorkspaceID, &entry.TeamID, &entry.SubmittedBy, &entryType, &entry.Amount,
		&entry.Currency, &entry.Description, &status, &entry.ReviewedBy, &reviewNote, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	entry.Type = Type(entryType)
	entry.Status = Status(status)
	if reviewNote != nil {
		entry.ReviewNote = *reviewNote
	}
	return entry, nil
}
