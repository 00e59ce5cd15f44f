package sessionauth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrEthical07/sessionauth/internal/flows"
)

// Register creates an active user. The email is trimmed and lowercased and
// the names are trimmed before anything is stored.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(in.Email)

	exists, err := e.users.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, e.backendFailure(ctx, "register.email_exists", err)
	}
	if exists {
		return nil, e.registerConflict(ctx)
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			e.emitAudit(ctx, auditEventRegisterRejected, false, 0, ErrPasswordTooLong, nil)
			return nil, ErrPasswordTooLong
		}
		return nil, e.backendFailure(ctx, "register.hash", err)
	}

	user, err := e.users.Create(ctx, NewUser{
		Email:        email,
		PasswordHash: hash,
		FirstName:    trimmed(in.FirstName),
		LastName:     trimmed(in.LastName),
		MiddleName:   trimmedOrNil(in.MiddleName),
		IsActive:     true,
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, ErrDuplicate) {
			return nil, e.registerConflict(ctx)
		}
		return nil, e.backendFailure(ctx, "register.create", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, nil, nil)

	return user, nil
}

func (e *Engine) registerConflict(ctx context.Context) error {
	e.metricInc(MetricRegisterConflict)
	e.emitAudit(ctx, auditEventRegisterDuplicate, false, 0, ErrConflict, nil)
	return newError(KindConflict, "User with this email already exists")
}

// Login verifies credentials and opens a session. The returned SID is the
// only value the caller should hand to the client.
//
// An unknown email and a wrong password yield the same error. A correct
// password for a deactivated account yields ErrInactiveUser.
func (e *Engine) Login(ctx context.Context, email, password string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	res, err := flows.RunLogin(ctx, email, password, e.flows.Login)
	if err != nil {
		return "", e.loginFailed(ctx, email, res.UserID, err)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	if res.Upgraded {
		e.metricInc(MetricPasswordUpgraded)
	}
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.UserID, nil, nil)

	return res.SessionID, nil
}

func (e *Engine) loginFailed(ctx context.Context, email string, userID int64, err error) error {
	switch KindOf(err) {
	case KindRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, 0, err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return err
	case KindInactiveUser:
		e.metricInc(MetricLoginInactive)
		e.emitAudit(ctx, auditEventLoginFailure, false, userID, err, nil)
		return err
	case KindInvalidCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, userID, ErrInvalidCredentials, nil)
		// the throttle counter could not be written; the caller still only
		// learns that the credentials were wrong
		if errors.Is(err, ErrRedisUnavailable) {
			_ = e.backendFailure(ctx, "login.record_failure", err)
			return ErrInvalidCredentials
		}
		return err
	default:
		return e.backendFailure(ctx, "login", err)
	}
}

// LogoutBySID deletes the session. Logging out of a session that no longer
// exists succeeds.
func (e *Engine) LogoutBySID(ctx context.Context, sid string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if sid == "" {
		return ErrNotAuthenticated
	}

	if err := e.sessions.Delete(ctx, sid); err != nil {
		return e.backendFailure(ctx, "logout", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, 0, nil, nil)

	return nil
}

// ResolveCurrentUser maps a SID to its active user and slides the session
// expiry forward to a full TTL.
func (e *Engine) ResolveCurrentUser(ctx context.Context, sid string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res, err := flows.RunResolve(ctx, sid, e.flows.Resolve)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricResolveLatency, time.Since(start))
	}

	if err != nil {
		switch KindOf(err) {
		case KindSessionExpired:
			e.metricInc(MetricSessionExpired)
			e.emitAudit(ctx, auditEventSessionExpired, false, res.UserID, err, nil)
			return nil, err
		case KindInternal:
			return nil, e.backendFailure(ctx, "resolve", err)
		default:
			return nil, err
		}
	}

	e.metricInc(MetricSessionResolved)

	return res.User, nil
}

/*
====================================
ROLE CHECKS
====================================
*/

// IsAdmin reports whether userID has an admin row.
func (e *Engine) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	admin, err := e.lookupAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	return admin != nil, nil
}

// IsSuperAdmin reports whether userID has an admin row with the super-admin
// flag set.
func (e *Engine) IsSuperAdmin(ctx context.Context, userID int64) (bool, error) {
	admin, err := e.lookupAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	return admin != nil && admin.SuperAdmin, nil
}

// AuthorizeAdmin returns ErrForbidden unless userID is an admin.
func (e *Engine) AuthorizeAdmin(ctx context.Context, userID int64) error {
	ok, err := e.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return e.denied(ctx, userID, "admin")
	}
	return nil
}

// AuthorizeSuperAdmin returns ErrForbidden unless userID is a super-admin.
func (e *Engine) AuthorizeSuperAdmin(ctx context.Context, userID int64) error {
	ok, err := e.IsSuperAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return e.denied(ctx, userID, "super_admin")
	}
	return nil
}

func (e *Engine) lookupAdmin(ctx context.Context, userID int64) (*Admin, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	admin, err := e.admins.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return nil, nil
		}
		return nil, e.backendFailure(ctx, "admin.lookup", err)
	}
	return admin, nil
}

func (e *Engine) denied(ctx context.Context, userID int64, role string) error {
	e.metricInc(MetricAccessDenied)
	e.emitAudit(ctx, auditEventAccessDenied, false, userID, ErrForbidden, func() map[string]string {
		return map[string]string{"required_role": role}
	})
	return newError(KindForbidden, "Forbidden").with("required_role", role)
}
