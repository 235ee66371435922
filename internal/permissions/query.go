package permissions

import (
	"context"
	"log/slog"

	"github.com/fundflow/fundflow/internal/tenancy"
)

// UserPermissions returns the permissions user holds within scope, in declaration order.
// Superusers hold every permission. A team scope yields the caller's role grants in that
// team; a workspace scope yields the union across the caller's teams in the workspace.
// Lookup failures and missing scope yield an empty result.
func (c *Checker) UserPermissions(ctx context.Context, user *tenancy.User, scope Scope) []Permission {
	if user == nil {
		return []Permission{}
	}
	if user.IsSuperuser {
		return All()
	}

	if scope.Team != nil {
		member, err := c.memberships.FindTeamMembership(ctx, user.ID, scope.Team.ID)
		if err != nil {
			c.logLookupFailure("team", err)
			return []Permission{}
		}
		return ForRole(member.Role)
	}

	if scope.Workspace != nil {
		members, err := c.memberships.FindTeamMemberships(ctx, user.ID, scope.Workspace.ID)
		if err != nil {
			c.logLookupFailure("workspace", err)
			return []Permission{}
		}
		granted := make(permissionSet)
		for _, member := range members {
			if evaluate(member, "").err != nil {
				continue
			}
			for p := range matrix[member.Role] {
				granted[p] = struct{}{}
			}
		}
		out := make([]Permission, 0, len(granted))
		for _, p := range all {
			if _, ok := granted[p]; ok {
				out = append(out, p)
			}
		}
		return out
	}

	return []Permission{}
}

// Has reports whether p is among the permissions UserPermissions yields for
// scope. It never fails: denials, lookup failures and malformed calls all
// yield false. Unlike Check it ignores organization grants and does not let a
// workspace scope stand in for a team one.
func (c *Checker) Has(ctx context.Context, user *tenancy.User, p Permission, scope Scope) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}

	if scope.Team != nil {
		member, err := c.memberships.FindTeamMembership(ctx, user.ID, scope.Team.ID)
		if err != nil {
			c.logLookupFailure("team", err)
			return false
		}
		return RoleHasPermission(member.Role, p)
	}

	if scope.Workspace != nil {
		members, err := c.memberships.FindTeamMemberships(ctx, user.ID, scope.Workspace.ID)
		if err != nil {
			c.logLookupFailure("workspace", err)
			return false
		}
		for _, member := range members {
			if evaluate(member, "").err != nil {
				continue
			}
			if RoleHasPermission(member.Role, p) {
				return true
			}
		}
	}

	return false
}

func (c *Checker) logLookupFailure(scope string, err error) {
	if err == nil || isNotFound(err) {
		return
	}
	c.logger.Error("permissions: lookup failed", slog.String("scope", scope), slog.Any("error", err))
}
