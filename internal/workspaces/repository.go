package workspaces

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fundflow/fundflow/internal/platform/db"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// Repository persists workspace changes in PostgreSQL.
type Repository struct {
	conn db.Conn
}

// NewRepository constructs a repository.
func NewRepository(conn db.Conn) *Repository {
	return &Repository{conn: conn}
}

// TxRepository exposes the operations run inside a transaction.
type TxRepository interface {
	CreateWorkspace(ctx context.Context, ws tenancy.Workspace) (tenancy.Workspace, error)
	LinkTeam(ctx context.Context, workspaceID, teamID uuid.UUID) error
	Touch(ctx context.Context, workspaceID uuid.UUID) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// SetLocked flips the workspace lock flag.
func (r *Repository) SetLocked(ctx context.Context, workspaceID uuid.UUID, locked bool) error {
	tag, err := r.conn.Exec(ctx, `UPDATE workspaces SET locked = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, workspaceID, locked)
	if err != nil {
		return fmt.Errorf("workspaces: set locked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenancy.ErrNotFound
	}
	return nil
}

// SetDeadline stores the submission deadline.
func (r *Repository) SetDeadline(ctx context.Context, workspaceID uuid.UUID, deadline time.Time) error {
	tag, err := r.conn.Exec(ctx, `UPDATE workspaces SET deadline = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, workspaceID, deadline)
	if err != nil {
		return fmt.Errorf("workspaces: set deadline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenancy.ErrNotFound
	}
	return nil
}

// RenameOrganization updates the organization title.
func (r *Repository) RenameOrganization(ctx context.Context, organizationID uuid.UUID, title string) error {
	tag, err := r.conn.Exec(ctx, `UPDATE organizations SET title = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, organizationID, title)
	if err != nil {
		return fmt.Errorf("workspaces: rename organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenancy.ErrNotFound
	}
	return nil
}

func (t *txRepo) CreateWorkspace(ctx context.Context, ws tenancy.Workspace) (tenancy.Workspace, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO workspaces (id, organization_id, title, status, locked, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, NOW(), NOW())
		RETURNING created_at, updated_at`,
		ws.ID, ws.OrganizationID, ws.Title, string(ws.Status), ws.Deadline)
	if err := row.Scan(&ws.CreatedAt, &ws.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return tenancy.Workspace{}, ErrWorkspaceExists
		}
		return tenancy.Workspace{}, fmt.Errorf("workspaces: create: %w", err)
	}
	return ws, nil
}

func (t *txRepo) LinkTeam(ctx context.Context, workspaceID, teamID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO workspace_teams (id, workspace_id, team_id, created_at)
		VALUES ($1, $2, $3, NOW())`, uuid.New(), workspaceID, teamID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrTeamAlreadyAssigned
		}
		return fmt.Errorf("workspaces: link team: %w", err)
	}
	return nil
}

func (t *txRepo) Touch(ctx context.Context, workspaceID uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `UPDATE workspaces SET updated_at = NOW() WHERE id = $1`, workspaceID); err != nil {
		return fmt.Errorf("workspaces: touch: %w", err)
	}
	return nil
}
