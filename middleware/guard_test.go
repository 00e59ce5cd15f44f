package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/memdir"
)

type fixture struct {
	engine *sessionauth.Engine
	mr     *miniredis.Miniredis
	users  *memdir.Users
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := sessionauth.DefaultConfig()
	cfg.Password.BcryptCost = bcrypt.MinCost

	users := memdir.NewUsers()
	engine, err := sessionauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(users).
		WithAdminDirectory(memdir.NewAdmins(users)).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return &fixture{engine: engine, mr: mr, users: users}
}

// session registers a user, logs it in, and returns its id and session id.
func (f *fixture) session(t *testing.T, email string) (int64, string) {
	t.Helper()
	ctx := context.Background()

	user, err := f.engine.Register(ctx, sessionauth.RegisterInput{Email: email, Password: "secret-123"})
	require.NoError(t, err)
	sid, err := f.engine.Login(ctx, email, "secret-123")
	require.NoError(t, err)
	return user.ID, sid
}

func (f *fixture) request(sid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: sessionauth.DefaultCookieName, Value: sid})
	}
	return req
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser(t *testing.T) {
	f := newFixture(t)
	userID, sid := f.session(t, "ada@example.com")

	var seen *sessionauth.User
	var seenSID string
	h := RequireUser(f.engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		seenSID, _ = SessionIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, f.request(sid))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, userID, seen.ID)
	assert.Equal(t, sid, seenSID)
}

func TestRequireUserRejects(t *testing.T) {
	f := newFixture(t)
	_, sid := f.session(t, "ada@example.com")

	tests := []struct {
		name   string
		sid    string
		status int
		body   string
	}{
		{name: "no cookie", sid: "", status: http.StatusUnauthorized, body: "Not authenticated\n"},
		{name: "unknown sid", sid: "forged", status: http.StatusUnauthorized, body: "Session expired\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			rec := httptest.NewRecorder()
			RequireUser(f.engine)(okHandler(&called)).ServeHTTP(rec, f.request(tt.sid))
			assert.False(t, called)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}

	f.mr.Close()
	called := false
	rec := httptest.NewRecorder()
	RequireUser(f.engine)(okHandler(&called)).ServeHTTP(rec, f.request(sid))
	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, plainSID := f.session(t, "plain@example.com")
	adminID, adminSID := f.session(t, "admin@example.com")
	superID, superSID := f.session(t, "super@example.com")

	_, err := f.engine.AddAdmin(ctx, adminID, false)
	require.NoError(t, err)
	_, err = f.engine.AddAdmin(ctx, superID, true)
	require.NoError(t, err)

	chain := func(guard func(*sessionauth.Engine, ...Option) func(http.Handler) http.Handler, sid string) int {
		called := false
		rec := httptest.NewRecorder()
		h := RequireUser(f.engine)(guard(f.engine)(okHandler(&called)))
		h.ServeHTTP(rec, f.request(sid))
		if called != (rec.Code == http.StatusOK) {
			t.Fatalf("handler called=%v with status %d", called, rec.Code)
		}
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, chain(RequireAdmin, plainSID))
	assert.Equal(t, http.StatusOK, chain(RequireAdmin, adminSID))
	assert.Equal(t, http.StatusOK, chain(RequireAdmin, superSID))

	assert.Equal(t, http.StatusForbidden, chain(RequireSuperAdmin, plainSID))
	assert.Equal(t, http.StatusForbidden, chain(RequireSuperAdmin, adminSID))
	assert.Equal(t, http.StatusOK, chain(RequireSuperAdmin, superSID))

	assert.Equal(t, http.StatusUnauthorized, chain(RequireAdmin, ""))
}

func TestRoleGuardWithoutPrincipal(t *testing.T) {
	f := newFixture(t)

	called := false
	rec := httptest.NewRecorder()
	RequireAdmin(f.engine)(okHandler(&called)).ServeHTTP(rec, f.request(""))
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithErrorHandler(t *testing.T) {
	f := newFixture(t)

	var got error
	handler := WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	RequireUser(f.engine, handler)(okHandler(new(bool))).ServeHTTP(rec, f.request(""))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, sessionauth.ErrNotAuthenticated)
}

func TestClientIP(t *testing.T) {
	var ip, ua string
	h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = sessionauth.ClientIPFromContext(r.Context())
		ua = sessionauth.UserAgentFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "curl/8.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", ip)
	assert.Equal(t, "curl/8.0", ua)
}
