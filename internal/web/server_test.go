package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockroom/internal/backend"
	"github.com/dmitrymomot/stockroom/internal/tabs"
	"github.com/dmitrymomot/stockroom/internal/web"
	"github.com/dmitrymomot/stockroom/pkg/broadcast"
	"github.com/dmitrymomot/stockroom/pkg/handler"
	"github.com/dmitrymomot/stockroom/pkg/httpserver"
	"github.com/dmitrymomot/stockroom/pkg/idlesession"
	"github.com/dmitrymomot/stockroom/pkg/idlesession/idletest"
	"github.com/dmitrymomot/stockroom/pkg/ratelimiter"
	"github.com/dmitrymomot/stockroom/pkg/rbac"
)

type envelope[T any] struct {
	Data  T                    `json:"data"`
	Error *handler.ErrorDetail `json:"error"`
}

type app struct {
	t       *testing.T
	clock   *idletest.Clock
	backend *backend.Memory
	hub     *broadcast.Hub[tabs.Notice]
	router  http.Handler
}

func newApp(t *testing.T, opts ...web.Option) *app {
	t.Helper()
	ctx := context.Background()

	a := &app{
		t:       t,
		clock:   idletest.NewClock(idletest.Epoch),
		backend: backend.NewMemory(backend.Config{SessionTTL: time.Hour, BcryptCost: 4}),
		hub:     broadcast.NewHub[tabs.Notice](),
	}
	_, err := a.backend.CreateUser(ctx, "kim@example.com", "pw")
	require.NoError(t, err)
	admin, err := a.backend.CreateUser(ctx, "root@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, a.backend.Insert(ctx, backend.TableUsers, backend.Row{"id": admin.ID, "email": admin.Email, "role": rbac.RoleAdmin}))

	auth, err := rbac.NewAuthorizer(ctx, rbac.NewDefaultRoleSource())
	require.NoError(t, err)

	registry := tabs.NewRegistry(idlesession.Config{
		Timeout:     10 * time.Minute,
		WarningLead: 2 * time.Minute,
		StorageKey:  "sessionData",
	}, idlesession.NewMemoryStore(), a.hub, a.backend, tabs.WithClock(a.clock))

	srv := web.NewServer(a.backend, registry, a.hub, auth, append([]web.Option{web.WithHeartbeat(0)}, opts...)...)
	a.router = srv.Router()

	t.Cleanup(func() {
		_ = registry.Shutdown(ctx)
		_ = a.hub.Close()
	})
	return a
}

func (a *app) do(method, path, tabID string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tabID != "" {
		req.Header.Set(web.TabHeader, tabID)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	return env
}

func (a *app) login(email string) web.LoginResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{Email: email, Password: "pw"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[web.LoginResponse](a.t, rec).Data
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	env := decode[json.RawMessage](t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	t.Run("first sign-in creates an employee row", func(t *testing.T) {
		resp := a.login("kim@example.com")
		assert.NotEmpty(t, resp.TabID)
		assert.Equal(t, rbac.RoleEmployee, resp.Role)
		assert.Equal(t, rbac.DashboardEmployee, resp.Dashboard)
		assert.Equal(t, (10 * time.Minute).Milliseconds(), resp.TimeoutMs)
		assert.Equal(t, (2 * time.Minute).Milliseconds(), resp.WarningLeadMs)

		row, err := a.backend.Select(context.Background(), backend.TableUsers, resp.UserID)
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleEmployee, row.String("role"))

		again := a.login("kim@example.com")
		assert.NotEqual(t, resp.TabID, again.TabID)
	})

	t.Run("existing role is kept", func(t *testing.T) {
		resp := a.login("root@example.com")
		assert.Equal(t, rbac.RoleAdmin, resp.Role)
		assert.Equal(t, rbac.DashboardAdmin, resp.Dashboard)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{Email: "kim@example.com", Password: "nope"})
		assertErrorCode(t, rec, http.StatusUnauthorized, "invalid_credentials")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decode[json.RawMessage](t, rec)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "email")
		assert.Contains(t, env.Error.Details, "password")
	})

	t.Run("malformed email", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{Email: "kim", Password: "pw"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decode[json.RawMessage](t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, []string{"must be a valid email address"}, env.Error.Details["email"])
	})

	t.Run("not json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=a"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		assertErrorCode(t, rec, http.StatusUnsupportedMediaType, "unsupported_media_type")
	})
}

func TestLogin_UnknownRoleIsRejected(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	ctx := context.Background()

	u, err := a.backend.CreateUser(ctx, "ghost@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, a.backend.Insert(ctx, backend.TableUsers, backend.Row{"id": u.ID, "email": u.Email, "role": "intern"}))

	rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{Email: "ghost@example.com", Password: "pw"})
	assertErrorCode(t, rec, http.StatusForbidden, "unknown_role")
}

func TestSession(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	tab := a.login("kim@example.com")

	rec := a.do(http.MethodGet, "/session", tab.TabID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[web.SessionResponse](t, rec).Data
	assert.True(t, got.Valid)
	assert.Equal(t, string(idlesession.StateActive), got.State)
	assert.Equal(t, (10 * time.Minute).Milliseconds(), got.RemainingMs)
	assert.Equal(t, tab.UserID, got.UserID)
	assert.Equal(t, rbac.RoleEmployee, got.Role)

	a.clock.Advance(9 * time.Minute)
	got = decode[web.SessionResponse](t, a.do(http.MethodGet, "/session", tab.TabID, nil)).Data
	assert.Equal(t, string(idlesession.StateWarningShown), got.State)
	assert.Equal(t, time.Minute.Milliseconds(), got.RemainingMs)

	a.clock.Advance(time.Minute)
	assertErrorCode(t, a.do(http.MethodGet, "/session", tab.TabID, nil), http.StatusUnauthorized, "session_expired")
}

func TestSession_RequiresTab(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	assertErrorCode(t, a.do(http.MethodGet, "/session", "", nil), http.StatusUnauthorized, "session_expired")
	assertErrorCode(t, a.do(http.MethodGet, "/session", "6d8f4a4e-0000-4000-8000-000000000000", nil), http.StatusUnauthorized, "session_expired")
}

func TestActivity(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	tab := a.login("kim@example.com")
	a.clock.Advance(5 * time.Minute)

	t.Run("discrete event resets the window", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/session/activity", tab.TabID, web.ActivityRequest{Event: "click"})
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[web.ActivityResponse](t, rec).Data
		assert.True(t, got.Reset)
		assert.Equal(t, (10 * time.Minute).Milliseconds(), got.RemainingMs)
	})

	t.Run("hidden tab is not activity", func(t *testing.T) {
		a.clock.Advance(time.Minute)
		rec := a.do(http.MethodPost, "/session/activity", tab.TabID, web.ActivityRequest{Event: "visibilitychange", Visibility: "hidden"})
		got := decode[web.ActivityResponse](t, rec).Data
		assert.False(t, got.Reset)
		assert.Equal(t, (9 * time.Minute).Milliseconds(), got.RemainingMs)

		rec = a.do(http.MethodPost, "/session/activity", tab.TabID, web.ActivityRequest{Event: "visibilitychange", Visibility: "visible"})
		assert.True(t, decode[web.ActivityResponse](t, rec).Data.Reset)
	})

	t.Run("unknown event", func(t *testing.T) {
		rec := a.do(http.MethodPost, "/session/activity", tab.TabID, web.ActivityRequest{Event: "blink"})
		assertErrorCode(t, rec, http.StatusUnprocessableEntity, "validation_error")

		rec = a.do(http.MethodPost, "/session/activity", tab.TabID, web.ActivityRequest{Event: "visibilitychange", Visibility: "blurred"})
		assertErrorCode(t, rec, http.StatusUnprocessableEntity, "validation_error")
	})

	t.Run("after expiry", func(t *testing.T) {
		a.clock.Advance(10 * time.Minute)
		rec := a.do(http.MethodPost, "/session/activity", tab.TabID, web.ActivityRequest{Event: "keypress"})
		assertErrorCode(t, rec, http.StatusUnauthorized, "session_expired")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	tab := a.login("kim@example.com")

	rec := a.do(http.MethodPost, "/auth/logout", tab.TabID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assertErrorCode(t, a.do(http.MethodGet, "/session", tab.TabID, nil), http.StatusUnauthorized, "session_expired")
	assertErrorCode(t, a.do(http.MethodPost, "/auth/logout", tab.TabID, nil), http.StatusUnauthorized, "session_expired")
}

func TestDashboards(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	employee := a.login("kim@example.com")
	admin := a.login("root@example.com")

	t.Run("redirects to the role dashboard", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/dashboard", employee.TabID, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, rbac.DashboardEmployee, rec.Header().Get("Location"))
	})

	t.Run("employee dashboard is read only", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/dashboard/employee", employee.TabID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[web.DashboardResponse](t, rec).Data
		assert.Equal(t, "My equipment", got.Title)
		assert.Equal(t, []web.DashboardSection{{Name: "items"}, {Name: "issuances"}}, got.Sections)
	})

	t.Run("employee cannot open stock dashboard", func(t *testing.T) {
		assertErrorCode(t, a.do(http.MethodGet, "/dashboard/stock", employee.TabID, nil), http.StatusForbidden, "forbidden")
	})

	t.Run("admin sees everything", func(t *testing.T) {
		rec := a.do(http.MethodGet, "/dashboard/admin", admin.TabID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[web.DashboardResponse](t, rec).Data
		assert.Equal(t, []web.DashboardSection{
			{Name: "users", Writable: true},
			{Name: "items", Writable: true},
			{Name: "issuances", Writable: true},
		}, got.Sections)

		assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/dashboard/stock", admin.TabID, nil).Code)
	})

	t.Run("unknown dashboard", func(t *testing.T) {
		assertErrorCode(t, a.do(http.MethodGet, "/dashboard/finance", admin.TabID, nil), http.StatusNotFound, "not_found")
	})
}

func TestEvents(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	tab := a.login("kim@example.com")

	req := httptest.NewRequest(http.MethodGet, "/session/events?tab="+tab.TabID, nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.router.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return a.hub.SubscriberCount(tab.TabID) == 1 }, time.Second, 5*time.Millisecond)
	a.clock.Advance(10 * time.Minute)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not end after logout")
	}

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"kind":"warning"`)
	assert.Contains(t, body, "Your session will expire in 2 minutes due to inactivity.")
	assert.Contains(t, body, `"kind":"timeout"`)
	assert.Contains(t, body, `"kind":"logout"`)
	assert.Less(t, strings.Index(body, `"kind":"warning"`), strings.Index(body, `"kind":"logout"`))
}

func TestEvents_RequiresEventStream(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	tab := a.login("kim@example.com")

	rec := a.do(http.MethodGet, "/session/events?tab="+tab.TabID, "", nil)
	assertErrorCode(t, rec, http.StatusNotAcceptable, "event_stream_required")
	assert.Zero(t, a.hub.SubscriberCount(tab.TabID))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	failing := newApp(t, web.WithHealthChecks(httpserver.HealthCheck{
		Name:  "store",
		Check: func(context.Context) error { return errors.New("down") },
	}))
	healthy := newApp(t)

	rec := failing.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())

	assert.Equal(t, http.StatusServiceUnavailable, failing.do(http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, healthy.do(http.MethodGet, "/readyz", "", nil).Code)
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	rec := a.do(http.MethodGet, "/nope", "", nil)
	assertErrorCode(t, rec, http.StatusNotFound, "not_found")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLogin_RateLimited(t *testing.T) {
	t.Parallel()
	lim, err := ratelimiter.New(ratelimiter.Config{Burst: 2, Interval: time.Hour})
	require.NoError(t, err)
	a := newApp(t, web.WithLoginLimiter(lim))

	bad := web.LoginRequest{Email: "kim@example.com", Password: "nope"}
	for range 2 {
		rec := a.do(http.MethodPost, "/auth/login", "", bad)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{Email: "kim@example.com", Password: "pw"})
	assertErrorCode(t, rec, http.StatusTooManyRequests, "too_many_attempts")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other accounts behind the same address keep their own budget.
	a.login("root@example.com")
	assert.Equal(t, 1, lim.Len())

	lim.Reset("192.0.2.1:kim@example.com")
	a.login("KIM@example.com")
	assert.Zero(t, lim.Len(), "successful sign-in refills its bucket")
}

func TestLogin_OwnSignInsDoNotRefillOtherAccounts(t *testing.T) {
	t.Parallel()
	lim, err := ratelimiter.New(ratelimiter.Config{Burst: 2, Interval: time.Hour})
	require.NoError(t, err)
	a := newApp(t, web.WithLoginLimiter(lim))

	guess := web.LoginRequest{Email: "root@example.com", Password: "guess"}
	accepted := 0
	for range 10 {
		if a.do(http.MethodPost, "/auth/login", "", guess).Code == http.StatusUnauthorized {
			accepted++
		}
		a.login("kim@example.com")
	}
	assert.Equal(t, 2, accepted)

	rec := a.do(http.MethodPost, "/auth/login", "", web.LoginRequest{Email: "ROOT@example.com", Password: "guess"})
	assertErrorCode(t, rec, http.StatusTooManyRequests, "too_many_attempts")
}
