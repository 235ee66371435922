package entries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/audit"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	Update(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, workspaceID uuid.UUID, filter ListFilter) ([]Entry, error)
}

// Directory loads the workspace and team an entry belongs to.
type Directory interface {
	GetWorkspace(ctx context.Context, id uuid.UUID) (tenancy.Workspace, error)
	GetTeam(ctx context.Context, id uuid.UUID) (tenancy.Team, error)
}

// Service orchestrates entry submission and review.
type Service struct {
	repo      RepositoryPort
	directory Directory
	authz     permissions.Authorizer
	audit     audit.Recorder
	validator *httpx.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the entry service.
func NewService(repo RepositoryPort, directory Directory, authz permissions.Authorizer, recorder audit.Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		directory: directory,
		authz:     authz,
		audit:     recorder,
		validator: httpx.NewValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitInput is the payload of Submit.
type SubmitInput struct {
	TeamID      uuid.UUID `json:"team_id" validate:"required"`
	Type        Type      `json:"type" validate:"required,oneof=income disbursement remittance"`
	Amount      int64     `json:"amount" validate:"gt=0"`
	Currency    string    `json:"currency" validate:"required,iso4217"`
	Description string    `json:"description" validate:"max=1000"`
}

func (in *SubmitInput) normalize() {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.Description = strings.TrimSpace(in.Description)
}

// EditInput is the payload of Edit.
type EditInput struct {
	Type        Type   `json:"type" validate:"required,oneof=income disbursement remittance"`
	Amount      int64  `json:"amount" validate:"gt=0"`
	Currency    string `json:"currency" validate:"required,iso4217"`
	Description string `json:"description" validate:"max=1000"`
}

func (in *EditInput) normalize() {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.Description = strings.TrimSpace(in.Description)
}

// ReviewInput is the payload of Review.
type ReviewInput struct {
	Decision Status `json:"decision" validate:"required,oneof=approved rejected"`
	Note     string `json:"note" validate:"max=1000"`
}

// FlagInput is the payload of Flag.
type FlagInput struct {
	Note string `json:"note" validate:"required,max=1000"`
}

// Submit records a new entry for a team in the workspace.
func (s *Service) Submit(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, input SubmitInput) (Entry, error) {
	input.normalize()
	if err := s.validator.Struct(input); err != nil {
		return Entry{}, err
	}
	ws, team, err := s.load(ctx, workspaceID, input.TeamID)
	if err != nil {
		return Entry{}, err
	}
	if err := s.authz.Require(ctx, user, permissions.TeamScope(&team), permissions.SubmitEntries); err != nil {
		return Entry{}, err
	}
	if err := s.writable(ws); err != nil {
		return Entry{}, err
	}
	if ws.Deadline != nil && s.now().After(*ws.Deadline) {
		return Entry{}, ErrDeadlinePassed
	}
	created, err := s.repo.Create(ctx, Entry{
		ID:          uuid.New(),
		WorkspaceID: ws.ID,
		TeamID:      team.ID,
		SubmittedBy: user.ID,
		Type:        input.Type,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Description: input.Description,
		Status:      StatusPendingReview,
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, user, audit.ActionEntrySubmit, created, map[string]any{"amount": created.Amount, "currency": created.Currency})
	return created, nil
}

// Edit changes an entry that is still pending review or flagged.
func (s *Service) Edit(ctx context.Context, user *tenancy.User, entryID uuid.UUID, input EditInput) (Entry, error) {
	input.normalize()
	if err := s.validator.Struct(input); err != nil {
		return Entry{}, err
	}
	entry, ws, err := s.authorizeEntry(ctx, user, entryID, permissions.EditEntries)
	if err != nil {
		return Entry{}, err
	}
	if err := s.writable(ws); err != nil {
		return Entry{}, err
	}
	if !entry.Status.Editable() {
		return Entry{}, ErrInvalidTransition
	}
	entry.Type = input.Type
	entry.Amount = input.Amount
	entry.Currency = input.Currency
	entry.Description = input.Description
	entry.Status = StatusPendingReview
	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, user, audit.ActionEntryEdit, updated, nil)
	return updated, nil
}

// Review approves or rejects an entry.
func (s *Service) Review(ctx context.Context, user *tenancy.User, entryID uuid.UUID, input ReviewInput) (Entry, error) {
	if err := s.validator.Struct(input); err != nil {
		return Entry{}, err
	}
	entry, _, err := s.authorizeEntry(ctx, user, entryID, permissions.ReviewEntries)
	if err != nil {
		return Entry{}, err
	}
	if !entry.Status.Reviewable() {
		return Entry{}, ErrInvalidTransition
	}
	from := entry.Status
	reviewer := user.ID
	entry.Status = input.Decision
	entry.ReviewedBy = &reviewer
	entry.ReviewNote = strings.TrimSpace(input.Note)
	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, user, audit.ActionEntryReview, updated, map[string]any{"from": string(from), "to": string(updated.Status)})
	return updated, nil
}

// Flag marks an entry for follow-up. A note explaining the flag is required.
func (s *Service) Flag(ctx context.Context, user *tenancy.User, entryID uuid.UUID, input FlagInput) (Entry, error) {
	if err := s.validator.Struct(input); err != nil {
		return Entry{}, err
	}
	entry, _, err := s.authorizeEntry(ctx, user, entryID, permissions.FlagEntries)
	if err != nil {
		return Entry{}, err
	}
	if !entry.Status.Flaggable() {
		return Entry{}, ErrInvalidTransition
	}
	reviewer := user.ID
	entry.Status = StatusFlagged
	entry.ReviewedBy = &reviewer
	entry.ReviewNote = strings.TrimSpace(input.Note)
	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, user, audit.ActionEntryFlag, updated, map[string]any{"note": updated.ReviewNote})
	return updated, nil
}

// List returns the workspace entries visible to user.
func (s *Service) List(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, filter ListFilter) ([]Entry, error) {
	ws, err := s.directory.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return permissions.Guard(ctx, s.authz, user, permissions.WorkspaceScope(&ws), []permissions.Permission{permissions.ViewWorkspace},
		func(ctx context.Context) ([]Entry, error) {
			return s.repo.List(ctx, ws.ID, filter)
		})
}

func (s *Service) load(ctx context.Context, workspaceID, teamID uuid.UUID) (tenancy.Workspace, tenancy.Team, error) {
	ws, err := s.directory.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return tenancy.Workspace{}, tenancy.Team{}, err
	}
	team, err := s.directory.GetTeam(ctx, teamID)
	if err != nil {
		return tenancy.Workspace{}, tenancy.Team{}, err
	}
	if team.OrganizationID != ws.OrganizationID {
		return tenancy.Workspace{}, tenancy.Team{}, ErrTeamNotInWorkspace
	}
	return ws, team, nil
}

// authorizeEntry checks perm against the team that owns the entry.
func (s *Service) authorizeEntry(ctx context.Context, user *tenancy.User, entryID uuid.UUID, perm permissions.Permission) (Entry, tenancy.Workspace, error) {
	entry, err := s.repo.Get(ctx, entryID)
	if err != nil {
		return Entry{}, tenancy.Workspace{}, err
	}
	ws, team, err := s.load(ctx, entry.WorkspaceID, entry.TeamID)
	if err != nil {
		return Entry{}, tenancy.Workspace{}, err
	}
	if err := s.authz.Require(ctx, user, permissions.TeamScope(&team), perm); err != nil {
		return Entry{}, tenancy.Workspace{}, err
	}
	return entry, ws, nil
}

func (s *Service) writable(ws tenancy.Workspace) error {
	if ws.Locked {
		return ErrWorkspaceLocked
	}
	return nil
}

func (s *Service) record(ctx context.Context, user *tenancy.User, action string, entry Entry, meta map[string]any) {
	event := audit.Event{ActorID: user.ID, Action: action, Entity: "entry", EntityID: entry.ID.String(), Meta: meta}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
