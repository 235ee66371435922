package tenancy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

// ErrNotFound indicates that the requested record does not exist or was soft-deleted.
var ErrNotFound = fmt.Errorf("tenancy: %w", httpx.ErrNotFound)

// Role identifies the job function a member holds inside a team.
type Role string

// Team member roles.
const (
	RoleWorkspaceAdmin     Role = "workspace_admin"
	RoleOperationsReviewer Role = "operations_reviewer"
	RoleTeamCoordinator    Role = "team_coordinator"
	RoleSubmitter          Role = "submitter"
	RoleAuditor            Role = "auditor"
)

// Roles lists every defined role.
func Roles() []Role {
	return []Role{
		RoleWorkspaceAdmin,
		RoleOperationsReviewer,
		RoleTeamCoordinator,
		RoleSubmitter,
		RoleAuditor,
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWorkspaceAdmin, RoleOperationsReviewer, RoleTeamCoordinator, RoleSubmitter, RoleAuditor:
		return true
	}
	return false
}

// Label returns the human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleWorkspaceAdmin:
		return "Workspace Admin"
	case RoleOperationsReviewer:
		return "Operations Reviewer"
	case RoleTeamCoordinator:
		return "Team Coordinator"
	case RoleSubmitter:
		return "Submitter"
	case RoleAuditor:
		return "Auditor"
	}
	return string(r)
}

// User is an authenticated account.
type User struct {
	ID          uuid.UUID
	Email       string
	IsSuperuser bool
}

// Organization is the top level tenant.
type Organization struct {
	ID        uuid.UUID
	Title     string
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkspaceStatus tracks the lifecycle of a workspace.
type WorkspaceStatus string

// Workspace statuses.
const (
	WorkspaceActive   WorkspaceStatus = "active"
	WorkspaceArchived WorkspaceStatus = "archived"
	WorkspaceClosed   WorkspaceStatus = "closed"
)

// Workspace groups teams of one organization around a fundraising campaign.
type Workspace struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Organization   *Organization
	Title          string
	Status         WorkspaceStatus
	Locked         bool
	Deadline       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasOrganization reports whether the parent organization can be resolved.
func (w *Workspace) HasOrganization() bool {
	return w != nil && w.OrganizationID != uuid.Nil
}

// Team is a group of members working inside one or more workspaces.
type Team struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	CreatedAt      time.Time
}

// TeamMember binds a user to a team with a role.
type TeamMember struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	UserID    uuid.UUID
	Role      Role
	CreatedAt time.Time
	DeletedAt *time.Time
}

// Active reports whether the membership has not been soft-deleted.
func (m TeamMember) Active() bool {
	return m.DeletedAt == nil
}
