package workspaces

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
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	SetLocked(ctx context.Context, workspaceID uuid.UUID, locked bool) error
	SetDeadline(ctx context.Context, workspaceID uuid.UUID, deadline time.Time) error
	RenameOrganization(ctx context.Context, organizationID uuid.UUID, title string) error
}

// Directory loads the tenancy objects a request refers to.
type Directory interface {
	GetWorkspace(ctx context.Context, id uuid.UUID) (tenancy.Workspace, error)
	GetTeam(ctx context.Context, id uuid.UUID) (tenancy.Team, error)
}

// Service orchestrates workspace administration.
type Service struct {
	repo      RepositoryPort
	directory Directory
	authz     permissions.Authorizer
	audit     audit.Recorder
	validator *httpx.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the workspace service.
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

// CreateInput is the payload of Create.
type CreateInput struct {
	TeamID   uuid.UUID  `json:"team_id" validate:"required"`
	Title    string     `json:"title" validate:"required,max=255"`
	Deadline *time.Time `json:"deadline"`
}

// Create opens a workspace in the organization with the given team as its first
// participant. There is no workspace to scope the check to yet, so
// create_workspace is required on that team.
func (s *Service) Create(ctx context.Context, user *tenancy.User, organizationID uuid.UUID, input CreateInput) (tenancy.Workspace, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validator.Struct(input); err != nil {
		return tenancy.Workspace{}, err
	}
	team, err := s.directory.GetTeam(ctx, input.TeamID)
	if err != nil {
		return tenancy.Workspace{}, err
	}
	if team.OrganizationID != organizationID {
		return tenancy.Workspace{}, ErrForeignTeam
	}
	if err := s.authz.Require(ctx, user, permissions.TeamScope(&team), permissions.CreateWorkspace); err != nil {
		return tenancy.Workspace{}, err
	}

	ws := tenancy.Workspace{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Title:          input.Title,
		Status:         tenancy.WorkspaceActive,
	}
	if input.Deadline != nil {
		if !input.Deadline.After(s.now()) {
			return tenancy.Workspace{}, ErrDeadlineInPast
		}
		deadline := input.Deadline.UTC()
		ws.Deadline = &deadline
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.CreateWorkspace(ctx, ws)
		if err != nil {
			return err
		}
		ws = created
		return tx.LinkTeam(ctx, ws.ID, team.ID)
	})
	if err != nil {
		return tenancy.Workspace{}, err
	}
	s.record(ctx, user, audit.ActionWorkspaceCreate, entityWorkspace, ws.ID, map[string]any{"title": ws.Title, "team_id": team.ID.String()})
	return ws, nil
}

// Lock prevents further entry submissions. Locking a locked workspace is a no-op.
func (s *Service) Lock(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID) (tenancy.Workspace, error) {
	return s.setLocked(ctx, user, workspaceID, true)
}

// Unlock reopens the workspace for submissions.
func (s *Service) Unlock(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID) (tenancy.Workspace, error) {
	return s.setLocked(ctx, user, workspaceID, false)
}

func (s *Service) setLocked(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, locked bool) (tenancy.Workspace, error) {
	ws, err := s.authorize(ctx, user, workspaceID, permissions.LockWorkspace)
	if err != nil {
		return tenancy.Workspace{}, err
	}
	if ws.Locked == locked {
		return ws, nil
	}
	if err := s.repo.SetLocked(ctx, ws.ID, locked); err != nil {
		return tenancy.Workspace{}, err
	}
	ws.Locked = locked
	action := audit.ActionWorkspaceUnlock
	if locked {
		action = audit.ActionWorkspaceLock
	}
	s.record(ctx, user, action, entityWorkspace, ws.ID, nil)
	return ws, nil
}

// DeadlineInput is the payload of SetDeadline.
type DeadlineInput struct {
	Deadline time.Time `json:"deadline" validate:"required"`
}

// SetDeadline configures the submission deadline, which must lie in the future.
func (s *Service) SetDeadline(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, input DeadlineInput) (tenancy.Workspace, error) {
	ws, err := s.authorize(ctx, user, workspaceID, permissions.ConfigDeadlines)
	if err != nil {
		return tenancy.Workspace{}, err
	}
	if err := s.validator.Struct(input); err != nil {
		return tenancy.Workspace{}, err
	}
	if !input.Deadline.After(s.now()) {
		return tenancy.Workspace{}, ErrDeadlineInPast
	}
	deadline := input.Deadline.UTC()
	if err := s.repo.SetDeadline(ctx, ws.ID, deadline); err != nil {
		return tenancy.Workspace{}, err
	}
	ws.Deadline = &deadline
	s.record(ctx, user, audit.ActionWorkspaceDeadline, entityWorkspace, ws.ID, map[string]any{"deadline": deadline.Format(time.RFC3339)})
	return ws, nil
}

// AssignTeam links a team of the same organization to the workspace.
func (s *Service) AssignTeam(ctx context.Context, user *tenancy.User, workspaceID, teamID uuid.UUID) error {
	ws, err := s.authorize(ctx, user, workspaceID, permissions.AssignTeams)
	if err != nil {
		return err
	}
	team, err := s.directory.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OrganizationID != ws.OrganizationID {
		return ErrForeignTeam
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LinkTeam(ctx, ws.ID, team.ID); err != nil {
			return err
		}
		return tx.Touch(ctx, ws.ID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, user, audit.ActionWorkspaceAssign, entityWorkspace, ws.ID, map[string]any{"team_id": team.ID.String()})
	return nil
}

// OrganizationInput is the payload of UpdateOrganization.
type OrganizationInput struct {
	Title string `json:"title" validate:"required,max=255"`
}

// UpdateOrganization renames the organization owning the workspace. The grant is
// checked through the organization-level permission channel.
func (s *Service) UpdateOrganization(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, input OrganizationInput) (tenancy.Organization, error) {
	ws, err := s.authorize(ctx, user, workspaceID, permissions.EditOrganization)
	if err != nil {
		return tenancy.Organization{}, err
	}
	if !ws.HasOrganization() {
		return tenancy.Organization{}, ErrNoOrganization
	}
	if err := s.validator.Struct(input); err != nil {
		return tenancy.Organization{}, err
	}
	org := *ws.Organization
	if err := s.repo.RenameOrganization(ctx, org.ID, input.Title); err != nil {
		return tenancy.Organization{}, err
	}
	previous := org.Title
	org.Title = input.Title
	s.record(ctx, user, audit.ActionOrganizationUpdate, entityOrganization, org.ID, map[string]any{"from": previous, "to": org.Title})
	return org, nil
}

func (s *Service) authorize(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, perm permissions.Permission) (tenancy.Workspace, error) {
	ws, err := s.directory.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return tenancy.Workspace{}, err
	}
	if err := s.authz.Require(ctx, user, permissions.WorkspaceScope(&ws), perm); err != nil {
		return tenancy.Workspace{}, err
	}
	return ws, nil
}

func (s *Service) record(ctx context.Context, user *tenancy.User, action, entity string, id uuid.UUID, meta map[string]any) {
	event := audit.Event{ActorID: user.ID, Action: action, Entity: entity, EntityID: id.String(), Meta: meta}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
