package permissions

import (
	"errors"
	"fmt"

	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

var (
	// ErrPermissionDenied matches every *DeniedError.
	ErrPermissionDenied = fmt.Errorf("permissions: %w", httpx.ErrForbidden)
	// ErrInvalidArgument marks a malformed call, such as a missing user or scope.
	ErrInvalidArgument = errors.New("permissions: invalid argument")
)

// Reason classifies why access was denied.
type Reason string

// Denial reasons.
const (
	ReasonNotTeamMember      Reason = "not_team_member"
	ReasonNotWorkspaceMember Reason = "not_workspace_member"
	ReasonRoleLacksPerm      Reason = "role_lacks_permission"
	ReasonMissingPermission  Reason = "missing_permission"
	ReasonOrganizationDenied Reason = "organization_denied"
	ReasonGeneric            Reason = "generic"
)

// DeniedError reports that a known actor lacks the required grant.
// Role is set only when the caller's own role in a team was evaluated.
type DeniedError struct {
	Permission Permission
	Reason     Reason
	Role       tenancy.Role
	msg        string
}

func (e *DeniedError) Error() string {
	return e.msg
}

// Unwrap exposes ErrPermissionDenied so callers can use errors.Is.
func (e *DeniedError) Unwrap() error {
	return ErrPermissionDenied
}

func deny(p Permission, reason Reason, role tenancy.Role) *DeniedError {
	var msg string
	switch reason {
	case ReasonNotTeamMember:
		msg = "You are not a member of this team"
	case ReasonNotWorkspaceMember:
		msg = "You are not a member of any team in this workspace"
	case ReasonRoleLacksPerm:
		msg = fmt.Sprintf("Your role '%s' doesn't have the required permission: %s", role, p)
	case ReasonMissingPermission:
		msg = fmt.Sprintf("You don't have the required permission: %s", p)
	case ReasonOrganizationDenied:
		msg = fmt.Sprintf("You don't have %s permission for this organization", p)
	default:
		msg = "Permission denied"
	}
	return &DeniedError{Permission: p, Reason: reason, Role: role, msg: msg}
}

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, tenancy.ErrNotFound)
}
