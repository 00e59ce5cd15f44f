package sessionauth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrEthical07/sessionauth/internal"
	"github.com/MrEthical07/sessionauth/session"
)

func TestRegisterStoresBcryptHashAndNormalizedEmail(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	middle := "  Byron "
	user, err := te.Register(ctx, RegisterInput{
		Email:      "  Ada@Example.COM ",
		Password:   testPassword,
		FirstName:  " Ada ",
		LastName:   "Lovelace",
		MiddleName: &middle,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.FirstName != "Ada" || user.MiddleName == nil || *user.MiddleName != "Byron" {
		t.Fatalf("expected trimmed names, got %+v", user)
	}
	if !user.IsActive {
		t.Fatal("expected new user to be active")
	}
	if user.PasswordHash == testPassword || !strings.HasPrefix(user.PasswordHash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", user.PasswordHash)
	}
	if !te.hasher.Verify(testPassword, user.PasswordHash) {
		t.Fatal("expected stored hash to verify")
	}
}

func TestRegisterDuplicateEmailIgnoresCaseAndWhitespace(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	if _, err := te.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "pw-123456"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	for _, email := range []string{"ada@example.com", "ADA@example.com", "  Ada@Example.com\t"} {
		_, err := te.Register(ctx, RegisterInput{Email: email, Password: "pw-123456"})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("%q: expected Conflict, got %v", email, err)
		}
		var appErr *Error
		if !errors.As(err, &appErr) || appErr.Detail != "User with this email already exists" {
			t.Fatalf("%q: unexpected detail: %v", email, err)
		}
	}
}

func TestRegisterStoreLevelDuplicateIsConflict(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.users.createErr = ErrDuplicate

	_, err := te.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "pw"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestRegisterRejectsPasswordPastBcryptLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	te := newTestEngine(t, cfg, nil)

	_, err := te.Register(context.Background(), RegisterInput{
		Email:    "ada@example.com",
		Password: strings.Repeat("a", 80),
	})
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if KindOf(err).HTTPStatus() != 422 {
		t.Fatalf("expected 422, got %d", KindOf(err).HTTPStatus())
	}
	if len(te.users.users) != 0 {
		t.Fatal("no user may be stored")
	}
	if n := te.MetricsSnapshot().Counters[MetricBackendError]; n != 0 {
		t.Fatalf("an oversized password is not a backend fault, got %d", n)
	}

	// 72 bytes is still accepted
	if _, err := te.Register(context.Background(), RegisterInput{
		Email:    "ada@example.com",
		Password: strings.Repeat("a", 72),
	}); err != nil {
		t.Fatalf("Register at the limit failed: %v", err)
	}
}

func TestLoginThenResolveReturnsSameUser(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	seeded := te.seedUser(t, "ada@example.com", true)

	sid := te.login(t, "ada@example.com")
	if len(sid) != internal.SessionIDLength {
		t.Fatalf("expected %d-char sid, got %d", internal.SessionIDLength, len(sid))
	}

	fields, err := te.mr.HKeys("sess:" + sid)
	if err != nil || len(fields) != 3 {
		t.Fatalf("expected 3 session fields, got %v", fields)
	}
	if got := te.mr.HGet("sess:"+sid, session.FieldUserID); got != "1" {
		t.Fatalf("expected user_id=1, got %q", got)
	}
	if ttl := te.mr.TTL("sess:" + sid); ttl != DefaultSessionTTL {
		t.Fatalf("expected ttl %v, got %v", DefaultSessionTTL, ttl)
	}

	user, err := te.ResolveCurrentUser(context.Background(), sid)
	if err != nil {
		t.Fatalf("ResolveCurrentUser failed: %v", err)
	}
	if user.ID != seeded.ID || user.Email != seeded.Email {
		t.Fatalf("expected user %d, got %+v", seeded.ID, user)
	}
}

func TestLoginWrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.seedUser(t, "ada@example.com", true)
	ctx := context.Background()

	_, errWrong := te.Login(ctx, "ada@example.com", "not-the-password")
	_, errUnknown := te.Login(ctx, "ghost@example.com", testPassword)

	if KindOf(errWrong) != KindInvalidCredentials || KindOf(errUnknown) != KindInvalidCredentials {
		t.Fatalf("expected InvalidCredentials for both, got %v / %v", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("expected identical errors, got %q vs %q", errWrong, errUnknown)
	}
	if n := len(te.mr.Keys()); n != 0 {
		t.Fatalf("failed logins must not create sessions, found %d keys", n)
	}
}

func TestLoginEmailIsCaseSensitive(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.seedUser(t, "ada@example.com", true)

	if _, err := te.Login(context.Background(), "Ada@Example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected InvalidCredentials for differently cased email, got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.seedUser(t, "off@example.com", false)
	ctx := context.Background()

	if _, err := te.Login(ctx, "off@example.com", testPassword); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("expected InactiveUser, got %v", err)
	}
	if _, err := te.Login(ctx, "off@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected InvalidCredentials for wrong password, got %v", err)
	}
}

func TestLogoutThenResolveIsSessionExpired(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.seedUser(t, "ada@example.com", true)
	ctx := context.Background()

	sid := te.login(t, "ada@example.com")
	if err := te.LogoutBySID(ctx, sid); err != nil {
		t.Fatalf("LogoutBySID failed: %v", err)
	}
	if err := te.LogoutBySID(ctx, sid); err != nil {
		t.Fatalf("second LogoutBySID must succeed, got %v", err)
	}

	if _, err := te.ResolveCurrentUser(ctx, sid); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected SessionExpired, got %v", err)
	}
}

func TestLogoutAndResolveWithoutSID(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	if err := te.LogoutBySID(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected NotAuthenticated from logout, got %v", err)
	}
	if _, err := te.ResolveCurrentUser(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected NotAuthenticated from resolve, got %v", err)
	}
}

func TestResolveRenewsTTLPastOriginalExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.Session.TTL = 10 * time.Second
	te := newTestEngine(t, cfg, nil)
	te.seedUser(t, "ada@example.com", true)
	ctx := context.Background()

	sid := te.login(t, "ada@example.com")

	te.mr.FastForward(9 * time.Second)
	if _, err := te.ResolveCurrentUser(ctx, sid); err != nil {
		t.Fatalf("resolve before expiry failed: %v", err)
	}
	if ttl := te.mr.TTL("sess:" + sid); ttl != 10*time.Second {
		t.Fatalf("expected ttl renewed to 10s, got %v", ttl)
	}

	te.mr.FastForward(9 * time.Second)
	if _, err := te.ResolveCurrentUser(ctx, sid); err != nil {
		t.Fatalf("resolve past original expiry failed: %v", err)
	}
}

func TestUnreadSessionExpires(t *testing.T) {
	cfg := testConfig()
	cfg.Session.TTL = 10 * time.Second
	te := newTestEngine(t, cfg, nil)
	te.seedUser(t, "ada@example.com", true)

	sid := te.login(t, "ada@example.com")
	te.mr.FastForward(11 * time.Second)

	if _, err := te.ResolveCurrentUser(context.Background(), sid); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected SessionExpired, got %v", err)
	}
}

func TestResolveMalformedSessions(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.seedUser(t, "ada@example.com", true)
	ctx := context.Background()

	missing := strings.Repeat("a", internal.SessionIDLength)
	te.mr.HSet("sess:"+missing, session.FieldIssuedAt, "2026-01-01T00:00:00Z")

	_, err := te.ResolveCurrentUser(ctx, missing)
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindSessionExpired || appErr.Detail != "Missing user_id in session" {
		t.Fatalf("expected SessionExpired with missing user_id detail, got %v", err)
	}

	garbage := strings.Repeat("b", internal.SessionIDLength)
	te.mr.HSet("sess:"+garbage, session.FieldUserID, "not-a-number")
	if _, err := te.ResolveCurrentUser(ctx, garbage); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected SessionExpired, got %v", err)
	}

	if _, err := te.ResolveCurrentUser(ctx, "short"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected SessionExpired for a forged sid, got %v", err)
	}
}

func TestResolveUserGone(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()

	sid := strings.Repeat("c", internal.SessionIDLength)
	te.mr.HSet("sess:"+sid, session.FieldUserID, "99")

	_, err := te.ResolveCurrentUser(ctx, sid)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if ttl := te.mr.TTL("sess:" + sid); ttl != 0 {
		t.Fatalf("failed resolution must not renew, ttl=%v", ttl)
	}
}

func TestSoftDeleteBlocksExistingSessions(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	user := te.seedUser(t, "ada@example.com", true)
	ctx := context.Background()

	sid1 := te.login(t, "ada@example.com")
	sid2 := te.login(t, "ada@example.com")

	if err := te.SoftDelete(ctx, user.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	for _, sid := range []string{sid1, sid2} {
		if !te.mr.Exists("sess:" + sid) {
			t.Fatal("soft delete must not sweep sessions")
		}
		if _, err := te.ResolveCurrentUser(ctx, sid); !errors.Is(err, ErrInactiveUser) {
			t.Fatalf("expected InactiveUser, got %v", err)
		}
	}
}

func TestResolveBackendFailureIsNotAnAppError(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	te.mr.Close()

	_, err := te.ResolveCurrentUser(context.Background(), strings.Repeat("d", internal.SessionIDLength))
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("expected KindInternal, got %v", KindOf(err))
	}
}

func TestLoginThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.LoginThrottle.Enabled = true
	cfg.LoginThrottle.MaxAttempts = 3
	cfg.LoginThrottle.Window = time.Minute
	te := newTestEngine(t, cfg, nil)
	te.seedUser(t, "ada@example.com", true)
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	for i := 0; i < 3; i++ {
		if _, err := te.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected InvalidCredentials, got %v", i, err)
		}
	}

	if _, err := te.Login(ctx, "ada@example.com", testPassword); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected RateLimited, got %v", err)
	}

	te.mr.FastForward(time.Minute + time.Second)
	if _, err := te.Login(ctx, "ada@example.com", testPassword); err != nil {
		t.Fatalf("expected login after window, got %v", err)
	}
}

func TestRoleChecks(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	ctx := context.Background()
	te.admins.put(1, false)
	te.admins.put(2, true)

	cases := []struct {
		userID     int64
		admin      bool
		superAdmin bool
	}{
		{1, true, false},
		{2, true, true},
		{3, false, false},
	}

	for _, tc := range cases {
		if ok, err := te.IsAdmin(ctx, tc.userID); err != nil || ok != tc.admin {
			t.Fatalf("IsAdmin(%d) = %v, %v", tc.userID, ok, err)
		}
		if ok, err := te.IsSuperAdmin(ctx, tc.userID); err != nil || ok != tc.superAdmin {
			t.Fatalf("IsSuperAdmin(%d) = %v, %v", tc.userID, ok, err)
		}
	}

	if err := te.AuthorizeAdmin(ctx, 3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if err := te.AuthorizeSuperAdmin(ctx, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if err := te.AuthorizeSuperAdmin(ctx, 2); err != nil {
		t.Fatalf("expected super admin to pass, got %v", err)
	}
}

func legacyArgon2Hash(t testing.TB, password string) string {
	t.Helper()
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte(password), salt, 1, 8*1024, 1, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 8*1024, 1, 1,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func TestLoginUpgradesStaleHashes(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	tests := []struct {
		name string
		hash string
	}{
		{name: "bcrypt below configured cost", hash: string(weak)},
		{name: "legacy argon2id", hash: legacyArgon2Hash(t, testPassword)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Password.BcryptCost = bcrypt.MinCost + 1
			cfg.Metrics.Enabled = true
			te := newTestEngine(t, cfg, nil)
			user := te.users.put(User{Email: "ada@example.com", PasswordHash: tt.hash, IsActive: true})

			te.login(t, "ada@example.com")

			stored := te.users.users[user.ID].PasswordHash
			cost, err := bcrypt.Cost([]byte(stored))
			if err != nil || cost != bcrypt.MinCost+1 {
				t.Fatalf("expected a cost %d bcrypt hash, got %q (cost %d, err %v)", bcrypt.MinCost+1, stored, cost, err)
			}
			if !te.hasher.Verify(testPassword, stored) {
				t.Fatal("upgraded hash must verify")
			}
			if n := te.MetricsSnapshot().Counters[MetricPasswordUpgraded]; n != 1 {
				t.Fatalf("expected one upgrade, got %d", n)
			}

			te.login(t, "ada@example.com")
			if te.users.passwordHashCalls != 1 {
				t.Fatalf("a current hash must not be rewritten, got %d writes", te.users.passwordHashCalls)
			}
		})
	}
}

func TestLoginSurvivesFailedHashUpgrade(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)
	legacy := legacyArgon2Hash(t, testPassword)
	user := te.users.put(User{Email: "ada@example.com", PasswordHash: legacy, IsActive: true})
	te.users.passwordHashErr = errors.New("connection reset")

	sid := te.login(t, "ada@example.com")
	if sid == "" {
		t.Fatal("expected a session")
	}
	if te.users.users[user.ID].PasswordHash != legacy {
		t.Fatal("stored hash must be unchanged")
	}
}

func TestLoginHashUpgradeGates(t *testing.T) {
	t.Run("inactive user", func(t *testing.T) {
		te := newTestEngine(t, testConfig(), nil)
		te.users.put(User{Email: "off@example.com", PasswordHash: legacyArgon2Hash(t, testPassword)})

		if _, err := te.Login(context.Background(), "off@example.com", testPassword); !errors.Is(err, ErrInactiveUser) {
			t.Fatalf("expected InactiveUser, got %v", err)
		}
		if te.users.passwordHashCalls != 0 {
			t.Fatal("inactive users keep their stored hash")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		te := newTestEngine(t, testConfig(), nil)
		te.users.put(User{Email: "ada@example.com", PasswordHash: legacyArgon2Hash(t, testPassword), IsActive: true})

		if _, err := te.Login(context.Background(), "ada@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected InvalidCredentials, got %v", err)
		}
		if te.users.passwordHashCalls != 0 {
			t.Fatal("a failed login must not rewrite the hash")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Password.UpgradeOnLogin = false
		te := newTestEngine(t, cfg, nil)
		te.users.put(User{Email: "ada@example.com", PasswordHash: legacyArgon2Hash(t, testPassword), IsActive: true})

		te.login(t, "ada@example.com")
		if te.users.passwordHashCalls != 0 {
			t.Fatal("upgrade on login is off")
		}
	})
}

