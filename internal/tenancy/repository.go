package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fundflow/fundflow/internal/platform/db"
)

// Repository provides PostgreSQL backed lookups for the tenancy hierarchy.
// Soft-deleted rows (deleted_at IS NOT NULL) are never returned.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const memberColumns = `tm.id, tm.team_id, tm.user_id, tm.role, tm.created_at, tm.deleted_at`

// FindTeamMembership returns the live membership of userID in teamID.
func (r *Repository) FindTeamMembership(ctx context.Context, userID, teamID uuid.UUID) (TeamMember, error) {
	row := r.db.QueryRow(ctx, `SELECT `+memberColumns+`
		FROM team_members tm
		WHERE tm.team_id = $1 AND tm.user_id = $2 AND tm.deleted_at IS NULL`, teamID, userID)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TeamMember{}, ErrNotFound
		}
		return TeamMember{}, fmt.Errorf("tenancy: find team membership: %w", err)
	}
	return member, nil
}

// FindTeamMemberships returns the live memberships of userID in every team linked to
// workspaceID, ordered by team creation time.
func (r *Repository) FindTeamMemberships(ctx context.Context, userID, workspaceID uuid.UUID) ([]TeamMember, error) {
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+`
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id AND t.deleted_at IS NULL
		JOIN workspace_teams wt ON wt.team_id = t.id AND wt.deleted_at IS NULL
		WHERE wt.workspace_id = $1 AND tm.user_id = $2 AND tm.deleted_at IS NULL
		ORDER BY t.created_at, t.id`, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("tenancy: find team memberships: %w", err)
	}
	defer rows.Close()
	var members []TeamMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("tenancy: scan team membership: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenancy: find team memberships: %w", err)
	}
	return members, nil
}

// UserHasObjectPermission reports whether userID holds an object-level grant for permission
// on organizationID. The organization owner implicitly holds every organization grant.
func (r *Repository) UserHasObjectPermission(ctx context.Context, userID uuid.UUID, permission string, organizationID uuid.UUID) (bool, error) {
	var granted bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
			SELECT 1 FROM organizations o
			WHERE o.id = $1 AND o.owner_id = $2 AND o.deleted_at IS NULL
		) OR EXISTS (
			SELECT 1 FROM organization_permissions op
			WHERE op.organization_id = $1 AND op.user_id = $2 AND op.permission = $3
		)`, organizationID, userID, permission).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("tenancy: object permission: %w", err)
	}
	return granted, nil
}

// GetUser fetches an active user by ID.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	var user User
	err := r.db.QueryRow(ctx, `SELECT id, email, is_superuser FROM users WHERE id = $1 AND is_active`, id).
		Scan(&user.ID, &user.Email, &user.IsSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("tenancy: get user: %w", err)
	}
	return user, nil
}

// GetWorkspace fetches a workspace together with its organization.
func (r *Repository) GetWorkspace(ctx context.Context, id uuid.UUID) (Workspace, error) {
	var (
		ws  Workspace
		org Organization
	)
	err := r.db.QueryRow(ctx, `SELECT w.id, w.organization_id, w.title, w.status, w.locked, w.deadline, w.created_at, w.updated_at,
			o.id, o.title, o.owner_id, o.created_at, o.updated_at
		FROM workspaces w
		JOIN organizations o ON o.id = w.organization_id AND o.deleted_at IS NULL
		WHERE w.id = $1 AND w.deleted_at IS NULL`, id).
		Scan(&ws.ID, &ws.OrganizationID, &ws.Title, &ws.Status, &ws.Locked, &ws.Deadline, &ws.CreatedAt, &ws.UpdatedAt,
			&org.ID, &org.Title, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, ErrNotFound
		}
		return Workspace{}, fmt.Errorf("tenancy: get workspace: %w", err)
	}
	ws.Organization = &org
	return ws, nil
}

// GetTeam fetches a team by ID.
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (Team, error) {
	var team Team
	err := r.db.QueryRow(ctx, `SELECT id, organization_id, title, created_at FROM teams WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&team.ID, &team.OrganizationID, &team.Title, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrNotFound
		}
		return Team{}, fmt.Errorf("tenancy: get team: %w", err)
	}
	return team, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row scanner) (TeamMember, error) {
	var (
		member TeamMember
		role   string
	)
	if err := row.Scan(&member.ID, &member.TeamID, &member.UserID, &role, &member.CreatedAt, &member.DeletedAt); err != nil {
		return TeamMember{}, err
	}
	member.Role = Role(role)
	return member, nil
}
