package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundflow/fundflow/internal/observability"
	"github.com/fundflow/fundflow/internal/permissions"
	"github.com/fundflow/fundflow/internal/shared"
	"github.com/fundflow/fundflow/internal/tenancy"
	_ "github.com/fundflow/fundflow/testing"
)

type directory struct {
	users map[uuid.UUID]tenancy.User
}

func (d directory) GetUser(_ context.Context, id uuid.UUID) (tenancy.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return tenancy.User{}, tenancy.ErrNotFound
}

func (d directory) GetWorkspace(context.Context, uuid.UUID) (tenancy.Workspace, error) {
	return tenancy.Workspace{}, tenancy.ErrNotFound
}

func (d directory) GetTeam(context.Context, uuid.UUID) (tenancy.Team, error) {
	return tenancy.Team{}, tenancy.ErrNotFound
}

func (d directory) FindTeamMembership(context.Context, uuid.UUID, uuid.UUID) (tenancy.TeamMember, error) {
	return tenancy.TeamMember{}, tenancy.ErrNotFound
}

func (d directory) FindTeamMemberships(context.Context, uuid.UUID, uuid.UUID) ([]tenancy.TeamMember, error) {
	return nil, nil
}

type routerEnv struct {
	handler  http.Handler
	sessions *shared.SessionManager
	redis    *miniredis.Miniredis
	userID   uuid.UUID
}

func newRouterEnv(t *testing.T) *routerEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "fundflow_session", "secret", time.Hour, false)
	userID := uuid.New()
	dir := directory{users: map[uuid.UUID]tenancy.User{userID: {ID: userID, Email: "member@fundflow.test"}}}
	checker := permissions.NewChecker(dir, nil, nil)
	guard := permissions.Middleware{Checker: checker, Users: dir, Scopes: dir}
	cfg := &Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: time.Second}

	handler := NewRouter(RouterParams{
		Config:             cfg,
		SessionManager:     sessions,
		Guard:              guard,
		PermissionsHandler: permissions.NewHandler(checker, guard),
		Metrics:            observability.NewMetrics(),
	})
	return &routerEnv{handler: handler, sessions: sessions, redis: mr, userID: userID}
}

func (e *routerEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	sess, err := e.sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(e.userID.String())
	rec := httptest.NewRecorder()
	require.NoError(t, e.sessions.Commit(context.Background(), rec, sess))
	return rec.Result().Cookies()[0]
}

func (e *routerEnv) do(method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndSecurityHeaders(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestAPIRequiresSession(t *testing.T) {
	env := newRouterEnv(t)

	rec := env.do(http.MethodGet, "/api/workspaces/"+uuid.NewString()+"/permissions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := env.login(t)
	rec = env.do(http.MethodGet, "/api/workspaces/"+uuid.NewString()+"/permissions", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newRouterEnv(t)
	cookie := env.login(t)
	require.True(t, env.redis.Exists("session:"+cookie.Value))

	rec := env.do(http.MethodPost, "/api/logout", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.redis.Exists("session:"+cookie.Value))

	rec = env.do(http.MethodGet, "/api/workspaces/"+uuid.NewString()+"/permissions", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newRouterEnv(t)
	env.do(http.MethodGet, "/healthz", nil)

	rec := env.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fundflow_http_requests_total")
}
