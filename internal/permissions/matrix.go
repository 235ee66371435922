package permissions

import "github.com/fundflow/fundflow/internal/tenancy"

type permissionSet map[Permission]struct{}

func newSet(perms ...Permission) permissionSet {
	set := make(permissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// matrix is read-only after package initialisation.
var matrix = map[tenancy.Role]permissionSet{
	tenancy.RoleWorkspaceAdmin: newSet(
		CreateWorkspace,
		AssignTeams,
		ConfigDeadlines,
		ViewWorkspace,
		SubmitEntries,
		UploadAttachments,
		EditEntries,
		ReviewEntries,
		FlagEntries,
		ViewReports,
		ExportReports,
		LockWorkspace,
	),
	tenancy.RoleOperationsReviewer: newSet(
		ViewWorkspace,
		EditEntries,
		ReviewEntries,
		FlagEntries,
		ViewReports,
		ExportReports,
	),
	tenancy.RoleTeamCoordinator: newSet(
		ViewWorkspace,
		SubmitEntries,
		UploadAttachments,
		EditEntries,
		ReviewEntries,
		FlagEntries,
		ViewReports,
	),
	tenancy.RoleSubmitter: newSet(
		ViewWorkspace,
		SubmitEntries,
		UploadAttachments,
		EditEntries,
	),
	tenancy.RoleAuditor: newSet(
		ViewWorkspace,
		ReviewEntries,
		FlagEntries,
		ViewReports,
		ExportReports,
	),
}

// RoleHasPermission reports whether role grants p. Unknown roles grant nothing.
func RoleHasPermission(role tenancy.Role, p Permission) bool {
	_, ok := matrix[role][p]
	return ok
}

// ForRole lists the permissions granted to role in declaration order.
func ForRole(role tenancy.Role) []Permission {
	granted := matrix[role]
	out := make([]Permission, 0, len(granted))
	for _, p := range all {
		if _, ok := granted[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
