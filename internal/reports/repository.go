package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/entries"
	"github.com/fundflow/fundflow/internal/platform/db"
)

// Repository runs report aggregates in PostgreSQL.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Aggregate groups the live workspace entries by type, status and currency.
func (r *Repository) Aggregate(ctx context.Context, workspaceID uuid.UUID) ([]Line, error) {
	rows, err := r.db.Query(ctx, `SELECT entry_type, status, currency, COUNT(*), COALESCE(SUM(amount), 0)
		FROM entries
		WHERE workspace_id = $1 AND deleted_at IS NULL
		GROUP BY entry_type, status, currency
		ORDER BY currency, entry_type, status`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("reports: aggregate: %w", err)
	}
	defer rows.Close()
	lines := make([]Line, 0)
	for rows.Next() {
		var (
			line      Line
			entryType string
			status    string
		)
		if err := rows.Scan(&entryType, &status, &line.Currency, &line.Count, &line.Amount); err != nil {
			return nil, fmt.Errorf("reports: scan aggregate: %w", err)
		}
		line.Type = entries.Type(entryType)
		line.Status = entries.Status(status)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: aggregate: %w", err)
	}
	return lines, nil
}
