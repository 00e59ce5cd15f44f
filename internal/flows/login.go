package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/sessionauth/session"
)

// LoginErrors carries host-level errors returned by the login flow.
type LoginErrors struct {
	InvalidCredentials error
	InactiveUser       error
	RateLimited        error
}

// LoginDeps captures login dependencies.
type LoginDeps[U any] struct {
	SessionTTL time.Duration
	// DummyHash is verified against when no user matches, so the unknown
	// email path costs the same as a wrong password.
	DummyHash string

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	GetUserByEmail func(context.Context, string) (U, error)
	IsNoRecord     func(error) bool
	Credentials    func(U) (userID int64, passwordHash string, active bool)
	VerifyPassword func(plaintext, hash string) bool

	NewSessionID func() (string, error)
	WriteSession func(ctx context.Context, sid string, fields map[string]string, ttl time.Duration) error

	// Throttle hooks are nil when login throttling is disabled.
	CheckLoginRate     func(ctx context.Context, email, ip string) error
	RecordLoginFailure func(ctx context.Context, email, ip string) error
	ResetLoginRate     func(ctx context.Context, email string) error
	IsRateLimited      func(error) bool

	// Upgrade hooks are nil when stored hashes are never replaced.
	PasswordNeedsUpgrade func(hash string) bool
	HashPassword         func(plaintext string) (string, error)
	UpdatePasswordHash   func(ctx context.Context, userID int64, hash string) error
	Warn                 func(ctx context.Context, msg string, err error)

	Errors LoginErrors
}

// LoginResult is the flow-local login response shape. User and UserID are
// set whenever the email matched, even on failure.
type LoginResult[U any] struct {
	SessionID string
	User      U
	UserID    int64
	Found     bool
	Session   *session.Session
	// Upgraded is set when the stored hash was replaced.
	Upgraded bool
}

// RunLogin checks the throttle, verifies credentials, gates on the active
// flag and writes a new session. The email is matched exactly as given.
// A stale stored hash is replaced once the active gate has passed.
func RunLogin[U any](ctx context.Context, email, password string, deps LoginDeps[U]) (LoginResult[U], error) {
	var res LoginResult[U]
	ip := ""
	if deps.ClientIPFromContext != nil {
		ip = deps.ClientIPFromContext(ctx)
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			if deps.IsRateLimited(err) {
				return res, deps.Errors.RateLimited
			}
			return res, err
		}
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil && !deps.IsNoRecord(err) {
		return res, err
	}

	if err != nil {
		deps.VerifyPassword(password, deps.DummyHash)
		return res, loginFailure(ctx, email, ip, deps)
	}

	userID, hash, active := deps.Credentials(user)
	res.User = user
	res.UserID = userID
	res.Found = true

	if !deps.VerifyPassword(password, hash) {
		return res, loginFailure(ctx, email, ip, deps)
	}

	if !active {
		return res, deps.Errors.InactiveUser
	}

	if deps.PasswordNeedsUpgrade != nil && deps.PasswordNeedsUpgrade(hash) {
		res.Upgraded = upgradePassword(ctx, userID, password, deps)
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email); err != nil {
			return res, err
		}
	}

	sid, err := deps.NewSessionID()
	if err != nil {
		return res, err
	}

	sess := session.New(sid, userID, deps.Now(), deps.SessionTTL)
	if err := deps.WriteSession(ctx, sid, sess.Fields(), deps.SessionTTL); err != nil {
		return res, err
	}

	res.SessionID = sid
	res.Session = sess
	return res, nil
}

// upgradePassword stores a fresh hash of password. Failures are reported to
// Warn and never fail the login.
func upgradePassword[U any](ctx context.Context, userID int64, password string, deps LoginDeps[U]) bool {
	upgraded, err := deps.HashPassword(password)
	if err != nil {
		deps.warn(ctx, "password upgrade: hash failed", err)
		return false
	}
	if err := deps.UpdatePasswordHash(ctx, userID, upgraded); err != nil {
		deps.warn(ctx, "password upgrade: store failed", err)
		return false
	}
	return true
}

func (d LoginDeps[U]) warn(ctx context.Context, msg string, err error) {
	if d.Warn != nil {
		d.Warn(ctx, msg, err)
	}
}

func loginFailure[U any](ctx context.Context, email, ip string, deps LoginDeps[U]) error {
	if deps.RecordLoginFailure == nil {
		return deps.Errors.InvalidCredentials
	}

	err := deps.RecordLoginFailure(ctx, email, ip)
	switch {
	case err == nil:
		return deps.Errors.InvalidCredentials
	case deps.IsRateLimited(err):
		// The attempt itself still failed on credentials; the next one is
		// rejected by CheckLoginRate.
		return deps.Errors.InvalidCredentials
	default:
		return errors.Join(deps.Errors.InvalidCredentials, err)
	}
}
