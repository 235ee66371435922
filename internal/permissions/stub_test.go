package permissions_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/tenancy"
)

type membershipKey struct {
	user  uuid.UUID
	scope uuid.UUID
}

type stubLookup struct {
	teams      map[membershipKey]tenancy.TeamMember
	workspaces map[membershipKey][]tenancy.TeamMember
	teamErr    error
	wsErr      error
	calls      int
}

func newStubLookup() *stubLookup {
	return &stubLookup{
		teams:      make(map[membershipKey]tenancy.TeamMember),
		workspaces: make(map[membershipKey][]tenancy.TeamMember),
	}
}

// join places user in team (linked to workspace) with role.
func (s *stubLookup) join(user *tenancy.User, ws *tenancy.Workspace, team *tenancy.Team, role tenancy.Role) {
	member := tenancy.TeamMember{ID: uuid.New(), TeamID: team.ID, UserID: user.ID, Role: role}
	s.teams[membershipKey{user.ID, team.ID}] = member
	if ws != nil {
		key := membershipKey{user.ID, ws.ID}
		s.workspaces[key] = append(s.workspaces[key], member)
	}
}

func (s *stubLookup) FindTeamMembership(_ context.Context, userID, teamID uuid.UUID) (tenancy.TeamMember, error) {
	s.calls++
	if s.teamErr != nil {
		return tenancy.TeamMember{}, s.teamErr
	}
	member, ok := s.teams[membershipKey{userID, teamID}]
	if !ok {
		return tenancy.TeamMember{}, tenancy.ErrNotFound
	}
	return member, nil
}

func (s *stubLookup) FindTeamMemberships(_ context.Context, userID, workspaceID uuid.UUID) ([]tenancy.TeamMember, error) {
	s.calls++
	if s.wsErr != nil {
		return nil, s.wsErr
	}
	return s.workspaces[membershipKey{userID, workspaceID}], nil
}

type stubOrgs struct {
	grants map[membershipKey]map[string]bool
	err    error
	calls  int
}

func (s *stubOrgs) grant(user *tenancy.User, orgID uuid.UUID, perm string) {
	if s.grants == nil {
		s.grants = make(map[membershipKey]map[string]bool)
	}
	key := membershipKey{user.ID, orgID}
	if s.grants[key] == nil {
		s.grants[key] = make(map[string]bool)
	}
	s.grants[key][perm] = true
}

func (s *stubOrgs) UserHasObjectPermission(_ context.Context, userID uuid.UUID, perm string, orgID uuid.UUID) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.grants[membershipKey{userID, orgID}][perm], nil
}

type fixture struct {
	org       tenancy.Organization
	workspace *tenancy.Workspace
	teamA     *tenancy.Team
	teamB     *tenancy.Team
	user      *tenancy.User
}

func newFixture() fixture {
	org := tenancy.Organization{ID: uuid.New(), Title: "Relief Fund", OwnerID: uuid.New()}
	return fixture{
		org:       org,
		workspace: &tenancy.Workspace{ID: uuid.New(), OrganizationID: org.ID, Organization: &org, Title: "Winter Drive", Status: tenancy.WorkspaceActive},
		teamA:     &tenancy.Team{ID: uuid.New(), OrganizationID: org.ID, Title: "North"},
		teamB:     &tenancy.Team{ID: uuid.New(), OrganizationID: org.ID, Title: "South"},
		user:      &tenancy.User{ID: uuid.New(), Email: "member@fundflow.test"},
	}
}
