package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundflow/fundflow/internal/audit"
	"github.com/fundflow/fundflow/internal/entries"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/platform/httpx"
	"github.com/fundflow/fundflow/internal/tenancy"
)

type fakeStore struct {
	lines   []Line
	entries []entries.Entry
}

func (f *fakeStore) Aggregate(context.Context, uuid.UUID) ([]Line, error) {
	return f.lines, nil
}

func (f *fakeStore) List(context.Context, uuid.UUID, entries.ListFilter) ([]entries.Entry, error) {
	return f.entries, nil
}

type workspaceMap map[uuid.UUID]tenancy.Workspace

func (m workspaceMap) GetWorkspace(_ context.Context, id uuid.UUID) (tenancy.Workspace, error) {
	ws, ok := m[id]
	if !ok {
		return tenancy.Workspace{}, tenancy.ErrNotFound
	}
	return ws, nil
}

type roleBook map[uuid.UUID]tenancy.Role

func (b roleBook) FindTeamMembership(context.Context, uuid.UUID, uuid.UUID) (tenancy.TeamMember, error) {
	return tenancy.TeamMember{}, tenancy.ErrNotFound
}

func (b roleBook) FindTeamMemberships(_ context.Context, userID, _ uuid.UUID) ([]tenancy.TeamMember, error) {
	role, ok := b[userID]
	if !ok {
		return nil, nil
	}
	return []tenancy.TeamMember{{ID: uuid.New(), TeamID: uuid.New(), UserID: userID, Role: role}}, nil
}

type auditSink struct {
	events []audit.Event
}

func (a *auditSink) Record(_ context.Context, event audit.Event) error {
	a.events = append(a.events, event)
	return nil
}

type fixture struct {
	service     *Service
	store       *fakeStore
	audit       *auditSink
	ws          tenancy.Workspace
	auditor     *tenancy.User
	coordinator *tenancy.User
	submitter   *tenancy.User
}

func newFixture() fixture {
	ws := tenancy.Workspace{ID: uuid.New(), OrganizationID: uuid.New(), Title: "Winter Drive"}
	f := fixture{
		store:       &fakeStore{},
		audit:       &auditSink{},
		ws:          ws,
		auditor:     &tenancy.User{ID: uuid.New()},
		coordinator: &tenancy.User{ID: uuid.New()},
		submitter:   &tenancy.User{ID: uuid.New()},
	}
	book := roleBook{
		f.auditor.ID:     tenancy.RoleAuditor,
		f.coordinator.ID: tenancy.RoleTeamCoordinator,
		f.submitter.ID:   tenancy.RoleSubmitter,
	}
	checker := permissions.NewChecker(book, nil, nil)
	f.service = NewService(f.store, f.store, workspaceMap{ws.ID: ws}, checker, f.audit, nil)
	return f
}

func TestSummaryTotals(t *testing.T) {
	f := newFixture()
	f.store.lines = []Line{
		{Type: entries.TypeIncome, Status: entries.StatusApproved, Currency: "USD", Count: 3, Amount: 50000},
		{Type: entries.TypeDisbursement, Status: entries.StatusApproved, Currency: "USD", Count: 1, Amount: 12000},
		{Type: entries.TypeRemittance, Status: entries.StatusApproved, Currency: "USD", Count: 1, Amount: 8000},
		{Type: entries.TypeIncome, Status: entries.StatusPendingReview, Currency: "USD", Count: 2, Amount: 999},
		{Type: entries.TypeIncome, Status: entries.StatusFlagged, Currency: "EUR", Count: 1, Amount: 700},
		{Type: entries.TypeIncome, Status: entries.StatusApproved, Currency: "EUR", Count: 1, Amount: 4000},
	}

	summary, err := f.service.Summary(context.Background(), f.coordinator, f.ws.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Pending)
	assert.Equal(t, int64(1), summary.Flagged)
	assert.Equal(t, []CurrencyTotals{
		{Currency: "USD", Income: 50000, Disbursement: 12000, Remittance: 8000, Balance: 30000},
		{Currency: "EUR", Income: 4000, Balance: 4000},
	}, summary.Totals)
}

func TestSummaryOpenToAnyWorkspaceMember(t *testing.T) {
	f := newFixture()

	_, err := f.service.Summary(context.Background(), f.submitter, f.ws.ID)
	require.NoError(t, err)

	_, err = f.service.Summary(context.Background(), &tenancy.User{ID: uuid.New()}, f.ws.ID)
	assert.EqualError(t, err, "You are not a member of any team in this workspace")

	_, err = f.service.Summary(context.Background(), f.auditor, uuid.New())
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestExportWritesCSV(t *testing.T) {
	f := newFixture()
	reviewer := uuid.New()
	f.store.entries = []entries.Entry{
		{ID: uuid.New(), TeamID: uuid.New(), SubmittedBy: uuid.New(), Type: entries.TypeIncome, Status: entries.StatusApproved,
			Amount: 2500, Currency: "USD", Description: "Gala, tickets", ReviewedBy: &reviewer, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, f.service.Export(context.Background(), f.auditor, f.ws.ID, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "Gala, tickets", records[1][6])
	assert.Equal(t, reviewer.String(), records[1][8])
	assert.Equal(t, "2026-01-02T03:04:05Z", records[1][9])

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, audit.ActionReportExport, f.audit.events[0].Action)
}

func TestExportDeniedForCoordinator(t *testing.T) {
	f := newFixture()

	var buf bytes.Buffer
	err := f.service.Export(context.Background(), f.coordinator, f.ws.ID, &buf)
	assert.ErrorIs(t, err, permissions.ErrPermissionDenied)
	assert.Zero(t, buf.Len())
	assert.Empty(t, f.audit.events)
}

func TestExportHandler(t *testing.T) {
	f := newFixture()
	route := func(user *tenancy.User) http.Handler {
		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(tenancy.ContextWithUser(r.Context(), user)))
			})
		})
		NewHandler(f.service, nil).MountRoutes(r)
		return r
	}
	path := "/workspaces/" + f.ws.ID.String() + "/reports/export.csv"

	rec := httptest.NewRecorder()
	route(f.auditor).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	route(f.coordinator).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "export_reports")
}
