package reports

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fundflow/fundflow/internal/audit"
	"github.com/fundflow/fundflow/internal/entries"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/tenancy"
)

// Aggregator computes report buckets.
type Aggregator interface {
	Aggregate(ctx context.Context, workspaceID uuid.UUID) ([]Line, error)
}

// EntrySource lists workspace entries for export.
type EntrySource interface {
	List(ctx context.Context, workspaceID uuid.UUID, filter entries.ListFilter) ([]entries.Entry, error)
}

// WorkspaceLoader resolves the workspace a report covers.
type WorkspaceLoader interface {
	GetWorkspace(ctx context.Context, id uuid.UUID) (tenancy.Workspace, error)
}

// Service builds workspace reports.
type Service struct {
	aggregates Aggregator
	entries    EntrySource
	workspaces WorkspaceLoader
	authz      permissions.Authorizer
	audit      audit.Recorder
	logger     *slog.Logger
}

// NewService constructs the report service.
func NewService(aggregates Aggregator, source EntrySource, workspaces WorkspaceLoader, authz permissions.Authorizer, recorder audit.Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{aggregates: aggregates, entries: source, workspaces: workspaces, authz: authz, audit: recorder, logger: logger}
}

// Summary returns entry totals for the workspace.
func (s *Service) Summary(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID) (Summary, error) {
	ws, err := s.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return Summary{}, err
	}
	return permissions.Guard(ctx, s.authz, user, permissions.WorkspaceScope(&ws), []permissions.Permission{permissions.ViewReports},
		func(ctx context.Context) (Summary, error) {
			lines, err := s.aggregates.Aggregate(ctx, ws.ID)
			if err != nil {
				return Summary{}, err
			}
			return summarize(ws.ID, lines), nil
		})
}

// Export writes every workspace entry to w as CSV.
func (s *Service) Export(ctx context.Context, user *tenancy.User, workspaceID uuid.UUID, w io.Writer) error {
	ws, err := s.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if err := s.authz.Require(ctx, user, permissions.WorkspaceScope(&ws), permissions.ExportReports); err != nil {
		return err
	}
	items, err := s.entries.List(ctx, ws.ID, entries.ListFilter{})
	if err != nil {
		return err
	}
	if err := WriteEntriesCSV(w, items); err != nil {
		return err
	}
	event := audit.Event{ActorID: user.ID, Action: audit.ActionReportExport, Entity: "workspace", EntityID: ws.ID.String(), Meta: map[string]any{"rows": len(items)}}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Warn("audit record", slog.String("action", event.Action), slog.Any("error", err))
	}
	return nil
}
