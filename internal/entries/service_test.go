package entries

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundflow/fundflow/internal/audit"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

type memoryRepo struct {
	entries map[uuid.UUID]Entry
	clock   time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[uuid.UUID]Entry), clock: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
}

func (r *memoryRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *memoryRepo) Create(_ context.Context, entry Entry) (Entry, error) {
	entry.CreatedAt = r.tick()
	entry.UpdatedAt = entry.CreatedAt
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r *memoryRepo) Update(_ context.Context, entry Entry) (Entry, error) {
	if _, ok := r.entries[entry.ID]; !ok {
		return Entry{}, ErrNotFound
	}
	entry.UpdatedAt = r.tick()
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *memoryRepo) List(_ context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.WorkspaceID != workspaceID {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		if filter.TeamID != uuid.Nil && entry.TeamID != filter.TeamID {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type directory struct {
	workspaces map[uuid.UUID]tenancy.Workspace
	teams      map[uuid.UUID]tenancy.Team
}

func (d *directory) GetWorkspace(_ context.Context, id uuid.UUID) (tenancy.Workspace, error) {
	ws, ok := d.workspaces[id]
	if !ok {
		return tenancy.Workspace{}, tenancy.ErrNotFound
	}
	return ws, nil
}

func (d *directory) GetTeam(_ context.Context, id uuid.UUID) (tenancy.Team, error) {
	team, ok := d.teams[id]
	if !ok {
		return tenancy.Team{}, tenancy.ErrNotFound
	}
	return team, nil
}

type roster struct {
	roles map[[2]uuid.UUID]tenancy.Role
	links map[uuid.UUID][]uuid.UUID
}

func (m *roster) FindTeamMembership(_ context.Context, userID, teamID uuid.UUID) (tenancy.TeamMember, error) {
	role, ok := m.roles[[2]uuid.UUID{userID, teamID}]
	if !ok {
		return tenancy.TeamMember{}, tenancy.ErrNotFound
	}
	return tenancy.TeamMember{ID: uuid.New(), TeamID: teamID, UserID: userID, Role: role}, nil
}

func (m *roster) FindTeamMemberships(ctx context.Context, userID, workspaceID uuid.UUID) ([]tenancy.TeamMember, error) {
	var out []tenancy.TeamMember
	for _, teamID := range m.links[workspaceID] {
		if member, err := m.FindTeamMembership(ctx, userID, teamID); err == nil {
			out = append(out, member)
		}
	}
	return out, nil
}

type auditLog struct {
	actions []string
}

func (a *auditLog) Record(_ context.Context, event audit.Event) error {
	a.actions = append(a.actions, event.Action)
	return nil
}

type env struct {
	service     *Service
	attachments *AttachmentService
	files       *memoryAttachments
	blobs       *memoryBlobs
	repo        *memoryRepo
	dir         *directory
	roster      *roster
	audit       *auditLog
	ws          tenancy.Workspace
	north       tenancy.Team
	south       tenancy.Team
	submitter   *tenancy.User
	reviewer    *tenancy.User
	outsider    *tenancy.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	org := tenancy.Organization{ID: uuid.New(), Title: "Relief Fund"}
	ws := tenancy.Workspace{ID: uuid.New(), OrganizationID: org.ID, Organization: &org, Title: "Winter Drive", Status: tenancy.WorkspaceActive}
	north := tenancy.Team{ID: uuid.New(), OrganizationID: org.ID, Title: "North"}
	south := tenancy.Team{ID: uuid.New(), OrganizationID: org.ID, Title: "South"}

	e := &env{
		repo:      newMemoryRepo(),
		dir:       &directory{workspaces: map[uuid.UUID]tenancy.Workspace{ws.ID: ws}, teams: map[uuid.UUID]tenancy.Team{north.ID: north, south.ID: south}},
		roster:    &roster{roles: map[[2]uuid.UUID]tenancy.Role{}, links: map[uuid.UUID][]uuid.UUID{ws.ID: {north.ID, south.ID}}},
		audit:     &auditLog{},
		ws:        ws,
		north:     north,
		south:     south,
		submitter: &tenancy.User{ID: uuid.New(), Email: "submitter@fundflow.test"},
		reviewer:  &tenancy.User{ID: uuid.New(), Email: "reviewer@fundflow.test"},
		outsider:  &tenancy.User{ID: uuid.New(), Email: "outsider@fundflow.test"},
	}
	e.roster.roles[[2]uuid.UUID{e.submitter.ID, north.ID}] = tenancy.RoleSubmitter
	e.roster.roles[[2]uuid.UUID{e.reviewer.ID, north.ID}] = tenancy.RoleOperationsReviewer

	checker := permissions.NewChecker(e.roster, nil, nil)
	e.service = NewService(e.repo, e.dir, checker, e.audit, nil)
	e.service.now = func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) }
	e.files = newMemoryAttachments()
	e.blobs = newMemoryBlobs()
	e.attachments = NewAttachmentService(e.service, e.files, e.blobs)
	return e
}

func (e *env) setWorkspace(fn func(*tenancy.Workspace)) {
	ws := e.dir.workspaces[e.ws.ID]
	fn(&ws)
	e.dir.workspaces[e.ws.ID] = ws
}

func validSubmit(teamID uuid.UUID) SubmitInput {
	return SubmitInput{TeamID: teamID, Type: TypeIncome, Amount: 150000, Currency: "usd", Description: " Bake sale "}
}

func TestSubmit(t *testing.T) {
	e := newEnv(t)

	entry, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, validSubmit(e.north.ID))
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, entry.Status)
	assert.Equal(t, "USD", entry.Currency)
	assert.Equal(t, "Bake sale", entry.Description)
	assert.Equal(t, e.submitter.ID, entry.SubmittedBy)
	assert.Equal(t, []string{audit.ActionEntrySubmit}, e.audit.actions)
}

func TestSubmitDeniedOutsideOwnTeam(t *testing.T) {
	e := newEnv(t)

	_, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, validSubmit(e.south.ID))
	require.ErrorIs(t, err, permissions.ErrPermissionDenied)
	assert.EqualError(t, err, "You are not a member of this team")

	_, err = e.service.Submit(context.Background(), e.reviewer, e.ws.ID, validSubmit(e.north.ID))
	require.ErrorIs(t, err, permissions.ErrPermissionDenied)
	assert.EqualError(t, err, "Your role 'operations_reviewer' doesn't have the required permission: submit_entries")
	assert.Empty(t, e.repo.entries)
}

func TestSubmitValidation(t *testing.T) {
	e := newEnv(t)
	cases := map[string]func(*SubmitInput){
		"zero amount":    func(in *SubmitInput) { in.Amount = 0 },
		"bad currency":   func(in *SubmitInput) { in.Currency = "ZZZ" },
		"unknown type":   func(in *SubmitInput) { in.Type = "donation" },
		"missing team":   func(in *SubmitInput) { in.TeamID = uuid.Nil },
		"missing amount": func(in *SubmitInput) { in.Amount = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validSubmit(e.north.ID)
			mutate(&input)
			_, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, input)
			assert.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestSubmitNormalizesCurrencyBeforeValidation(t *testing.T) {
	e := newEnv(t)

	input := validSubmit(e.north.ID)
	input.Currency = " eur "
	entry, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "EUR", entry.Currency)

	input.Currency = "usx"
	_, err = e.service.Submit(context.Background(), e.submitter, e.ws.ID, input)
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Len(t, e.repo.entries, 1)
	assert.Equal(t, []string{audit.ActionEntrySubmit}, e.audit.actions)

	edited, err := e.service.Edit(context.Background(), e.submitter, entry.ID, EditInput{
		Type: TypeIncome, Amount: 2000, Currency: "gbp", Description: "Raffle",
	})
	require.NoError(t, err)
	assert.Equal(t, "GBP", edited.Currency)
}

func TestSubmitRejectedWhenLockedOrPastDeadline(t *testing.T) {
	e := newEnv(t)
	e.setWorkspace(func(ws *tenancy.Workspace) { ws.Locked = true })

	_, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, validSubmit(e.north.ID))
	assert.ErrorIs(t, err, ErrWorkspaceLocked)

	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.setWorkspace(func(ws *tenancy.Workspace) { ws.Locked = false; ws.Deadline = &past })
	_, err = e.service.Submit(context.Background(), e.submitter, e.ws.ID, validSubmit(e.north.ID))
	assert.ErrorIs(t, err, ErrDeadlinePassed)
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestSubmitRejectsForeignTeam(t *testing.T) {
	e := newEnv(t)
	foreign := tenancy.Team{ID: uuid.New(), OrganizationID: uuid.New(), Title: "Other org"}
	e.dir.teams[foreign.ID] = foreign
	e.roster.roles[[2]uuid.UUID{e.submitter.ID, foreign.ID}] = tenancy.RoleSubmitter

	_, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, validSubmit(foreign.ID))
	assert.ErrorIs(t, err, ErrTeamNotInWorkspace)
}

func TestEditLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	entry, err := e.service.Submit(ctx, e.submitter, e.ws.ID, validSubmit(e.north.ID))
	require.NoError(t, err)

	edit := EditInput{Type: TypeDisbursement, Amount: 9900, Currency: "eur", Description: "Blankets"}
	edited, err := e.service.Edit(ctx, e.submitter, entry.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, TypeDisbursement, edited.Type)
	assert.Equal(t, "EUR", edited.Currency)

	_, err = e.service.Review(ctx, e.reviewer, entry.ID, ReviewInput{Decision: StatusApproved})
	require.NoError(t, err)

	_, err = e.service.Edit(ctx, e.submitter, entry.ID, edit)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = e.service.Edit(ctx, e.outsider, entry.ID, edit)
	assert.ErrorIs(t, err, permissions.ErrPermissionDenied)
}

func TestEditRejectedOnLockedWorkspace(t *testing.T) {
	e := newEnv(t)
	entry, err := e.service.Submit(context.Background(), e.submitter, e.ws.ID, validSubmit(e.north.ID))
	require.NoError(t, err)
	e.setWorkspace(func(ws *tenancy.Workspace) { ws.Locked = true })

	_, err = e.service.Edit(context.Background(), e.submitter, entry.ID, EditInput{Type: TypeIncome, Amount: 1, Currency: "USD"})
	assert.ErrorIs(t, err, ErrWorkspaceLocked)
}

func TestReviewAndFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	entry, err := e.service.Submit(ctx, e.submitter, e.ws.ID, validSubmit(e.north.ID))
	require.NoError(t, err)

	_, err = e.service.Review(ctx, e.submitter, entry.ID, ReviewInput{Decision: StatusApproved})
	assert.ErrorIs(t, err, permissions.ErrPermissionDenied)

	_, err = e.service.Review(ctx, e.reviewer, entry.ID, ReviewInput{Decision: StatusFlagged})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = e.service.Flag(ctx, e.reviewer, entry.ID, FlagInput{})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	flagged, err := e.service.Flag(ctx, e.reviewer, entry.ID, FlagInput{Note: "receipt missing"})
	require.NoError(t, err)
	assert.Equal(t, StatusFlagged, flagged.Status)
	require.NotNil(t, flagged.ReviewedBy)
	assert.Equal(t, e.reviewer.ID, *flagged.ReviewedBy)

	rejected, err := e.service.Review(ctx, e.reviewer, entry.ID, ReviewInput{Decision: StatusRejected, Note: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate", rejected.ReviewNote)

	_, err = e.service.Review(ctx, e.reviewer, entry.ID, ReviewInput{Decision: StatusApproved})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = e.service.Flag(ctx, e.reviewer, entry.ID, FlagInput{Note: "again"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{audit.ActionEntrySubmit, audit.ActionEntryFlag, audit.ActionEntryReview}, e.audit.actions)
}

func TestListRequiresWorkspaceMembership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.service.Submit(ctx, e.submitter, e.ws.ID, validSubmit(e.north.ID))
	require.NoError(t, err)
	second := validSubmit(e.north.ID)
	second.Type = TypeRemittance
	_, err = e.service.Submit(ctx, e.submitter, e.ws.ID, second)
	require.NoError(t, err)

	items, err := e.service.List(ctx, e.reviewer, e.ws.ID, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, TypeRemittance, items[0].Type)

	items, err = e.service.List(ctx, e.reviewer, e.ws.ID, ListFilter{Type: TypeIncome})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = e.service.List(ctx, e.outsider, e.ws.ID, ListFilter{})
	require.ErrorIs(t, err, permissions.ErrPermissionDenied)
	assert.EqualError(t, err, "You are not a member of any team in this workspace")

	_, err = e.service.List(ctx, e.reviewer, uuid.New(), ListFilter{})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
