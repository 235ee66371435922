// Package workspaces administers fundraising workspaces: locking, deadlines,
// team assignment and the owning organization's details.
package workspaces

import (
	"fmt"

	"github.com/fundflow/fundflow/internal/platform/httpx"
)

var (
	// ErrTeamAlreadyAssigned indicates the team is already linked to the workspace.
	ErrTeamAlreadyAssigned = fmt.Errorf("workspaces: team already assigned: %w", httpx.ErrDuplicate)
	// ErrForeignTeam indicates a team from another organization.
	ErrForeignTeam = fmt.Errorf("workspaces: team belongs to another organization: %w", httpx.ErrValidation)
	// ErrDeadlineInPast rejects deadlines that are not in the future.
	ErrDeadlineInPast = fmt.Errorf("workspaces: deadline must be in the future: %w", httpx.ErrValidation)
	// ErrWorkspaceExists indicates the organization already has a workspace with that title.
	ErrWorkspaceExists = fmt.Errorf("workspaces: title already in use: %w", httpx.ErrDuplicate)
	// ErrNoOrganization indicates a workspace without an owning organization.
	ErrNoOrganization = fmt.Errorf("workspaces: workspace has no organization: %w", httpx.ErrConflict)
)

// Entity names used for audit events.
const (
	entityWorkspace    = "workspace"
	entityOrganization = "organization"
)
