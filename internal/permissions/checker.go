package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/tenancy"
)

// MembershipLookup resolves live (non soft-deleted) team memberships.
type MembershipLookup interface {
	// FindTeamMembership returns tenancy.ErrNotFound when the user is not in the team.
	FindTeamMembership(ctx context.Context, userID, teamID uuid.UUID) (tenancy.TeamMember, error)
	// FindTeamMemberships returns memberships in every team linked to the workspace.
	FindTeamMemberships(ctx context.Context, userID, workspaceID uuid.UUID) ([]tenancy.TeamMember, error)
}

// OrganizationAuthorizer answers object-level grants on an organization.
type OrganizationAuthorizer interface {
	UserHasObjectPermission(ctx context.Context, userID uuid.UUID, permission string, organizationID uuid.UUID) (bool, error)
}

// Scope is the tenancy context a permission is evaluated against.
// When Team is set it takes precedence over Workspace.
type Scope struct {
	Workspace *tenancy.Workspace
	Team      *tenancy.Team
}

// WorkspaceScope builds a workspace-only scope.
func WorkspaceScope(ws *tenancy.Workspace) Scope {
	return Scope{Workspace: ws}
}

// TeamScope builds a team scope.
func TeamScope(team *tenancy.Team) Scope {
	return Scope{Team: team}
}

// Empty reports whether neither workspace nor team is set.
func (s Scope) Empty() bool {
	return s.Workspace == nil && s.Team == nil
}

// Checker evaluates permissions. It holds no mutable state and re-queries
// memberships on every call.
type Checker struct {
	memberships   MembershipLookup
	organizations OrganizationAuthorizer
	logger        *slog.Logger
}

// NewChecker constructs a Checker.
func NewChecker(memberships MembershipLookup, organizations OrganizationAuthorizer, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{memberships: memberships, organizations: organizations, logger: logger}
}

// Check returns nil when user holds p within scope. Denials are *DeniedError;
// malformed calls wrap ErrInvalidArgument; lookup failures are returned wrapped.
func (c *Checker) Check(ctx context.Context, user *tenancy.User, p Permission, scope Scope) error {
	if user == nil {
		return invalidArgument("user is required for permission checks")
	}
	if user.IsSuperuser {
		return nil
	}

	if p.OrganizationLevel() && scope.Workspace.HasOrganization() {
		return c.checkOrganization(ctx, user, p, scope.Workspace.OrganizationID)
	}

	if scope.Empty() {
		return invalidArgument("either workspace or team context is required")
	}

	if scope.Team != nil {
		return c.checkTeam(ctx, user, p, scope.Team.ID)
	}
	if scope.Workspace != nil {
		return c.checkWorkspace(ctx, user, p, scope.Workspace.ID)
	}

	return deny(p, ReasonGeneric, "")
}

func (c *Checker) checkOrganization(ctx context.Context, user *tenancy.User, p Permission, orgID uuid.UUID) error {
	if c.organizations == nil {
		return deny(p, ReasonOrganizationDenied, "")
	}
	ok, err := c.organizations.UserHasObjectPermission(ctx, user.ID, string(p), orgID)
	if err != nil {
		return fmt.Errorf("permissions: organization grant: %w", err)
	}
	if !ok {
		return deny(p, ReasonOrganizationDenied, "")
	}
	return nil
}

func (c *Checker) checkTeam(ctx context.Context, user *tenancy.User, p Permission, teamID uuid.UUID) error {
	member, err := c.memberships.FindTeamMembership(ctx, user.ID, teamID)
	if err != nil {
		if errors.Is(err, tenancy.ErrNotFound) {
			return deny(p, ReasonNotTeamMember, "")
		}
		return fmt.Errorf("permissions: team membership: %w", err)
	}
	if RoleHasPermission(member.Role, p) {
		return nil
	}
	return deny(p, ReasonRoleLacksPerm, member.Role)
}

func (c *Checker) checkWorkspace(ctx context.Context, user *tenancy.User, p Permission, workspaceID uuid.UUID) error {
	members, err := c.memberships.FindTeamMemberships(ctx, user.ID, workspaceID)
	if err != nil {
		return fmt.Errorf("permissions: workspace memberships: %w", err)
	}
	if len(members) == 0 {
		return deny(p, ReasonNotWorkspaceMember, "")
	}
	if p.WorkspaceOnly() {
		return nil
	}
	for _, member := range members {
		res := evaluate(member, p)
		if res.err != nil {
			c.logger.Debug("permissions: skip membership",
				slog.String("team_id", member.TeamID.String()),
				slog.Any("error", res.err))
			continue
		}
		if res.granted {
			c.logger.Debug("permissions: granted",
				slog.String("permission", string(p)),
				slog.String("team_id", member.TeamID.String()),
				slog.String("role", string(member.Role)))
			return nil
		}
	}
	return deny(p, ReasonMissingPermission, "")
}

var (
	errUnknownRole        = errors.New("permissions: unknown role")
	errInactiveMembership = errors.New("permissions: membership deleted")
)

// membershipResult is the outcome of evaluating a single membership.
type membershipResult struct {
	granted bool
	err     error
}

func evaluate(member tenancy.TeamMember, p Permission) membershipResult {
	if !member.Active() {
		return membershipResult{err: errInactiveMembership}
	}
	if !member.Role.Valid() {
		return membershipResult{err: fmt.Errorf("%w %q", errUnknownRole, member.Role)}
	}
	return membershipResult{granted: RoleHasPermission(member.Role, p)}
}
