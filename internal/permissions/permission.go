// Package permissions evaluates role based grants against the
// organization → workspace → team → member hierarchy.
//
// The decision procedure lives in Checker.Check. Read-only variants
// (UserPermissions, Has) follow the same resolution order but never fail,
// which makes them suitable for UI gating. Role grants come from a single
// static matrix so the enforcement and query paths cannot drift apart.
package permissions

// Permission names a capability that an operation requires.
type Permission string

// Workspace and team permissions, resolved through the role matrix.
const (
	CreateWorkspace   Permission = "create_workspace"
	AssignTeams       Permission = "assign_teams"
	ConfigDeadlines   Permission = "config_deadlines"
	ViewWorkspace     Permission = "view_workspace"
	SubmitEntries     Permission = "submit_entries"
	UploadAttachments Permission = "upload_attachments"
	EditEntries       Permission = "edit_entries"
	ReviewEntries     Permission = "review_entries"
	FlagEntries       Permission = "flag_entries"
	ViewReports       Permission = "view_reports"
	ExportReports     Permission = "export_reports"
	LockWorkspace     Permission = "lock_workspace"
)

// Organization permissions, resolved through object-level grants.
const (
	EditOrganization   Permission = "edit_organization"
	DeleteOrganization Permission = "delete_organization"
)

var all = []Permission{
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
	EditOrganization,
	DeleteOrganization,
}

// All returns the full permission universe in declaration order.
func All() []Permission {
	out := make([]Permission, len(all))
	copy(out, all)
	return out
}

// Parse resolves a wire identifier into a Permission.
func Parse(raw string) (Permission, bool) {
	for _, p := range all {
		if string(p) == raw {
			return p, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// OrganizationLevel reports whether p is granted per organization instead of per role.
func (p Permission) OrganizationLevel() bool {
	return p == EditOrganization || p == DeleteOrganization
}

// WorkspaceOnly reports whether p is satisfied by membership in any team of a workspace.
func (p Permission) WorkspaceOnly() bool {
	return p == ViewWorkspace || p == ViewReports
}
