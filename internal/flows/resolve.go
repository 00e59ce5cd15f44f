package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/sessionauth/session"
)

// ResolveErrors carries host-level errors returned by the resolve flow.
type ResolveErrors struct {
	NotAuthenticated error
	SessionExpired   error
	MissingUserID    error
	UserNotFound     error
	InactiveUser     error
}

// ResolveDeps captures current-user resolution dependencies.
type ResolveDeps[U any] struct {
	SessionTTL time.Duration

	ValidSessionID func(string) bool
	ReadSession    func(ctx context.Context, sid string) (map[string]string, error)
	RenewSession   func(ctx context.Context, sid string, ttl time.Duration) error

	GetUserByID func(context.Context, int64) (U, error)
	IsNoRecord  func(error) bool
	IsActive    func(U) bool

	Errors ResolveErrors
}

// ResolveResult is the flow-local resolution shape. UserID is set as soon as
// the session decoded, even when a later step fails.
type ResolveResult[U any] struct {
	User   U
	UserID int64
}

// RunResolve maps a session id to an active user and slides the session
// expiry to a full TTL. Absent, forged and malformed sessions all fail with
// SessionExpired or MissingUserID; deactivation is enforced here and nowhere
// else.
func RunResolve[U any](ctx context.Context, sid string, deps ResolveDeps[U]) (ResolveResult[U], error) {
	var res ResolveResult[U]

	if sid == "" {
		return res, deps.Errors.NotAuthenticated
	}
	if deps.ValidSessionID != nil && !deps.ValidSessionID(sid) {
		return res, deps.Errors.SessionExpired
	}

	fields, err := deps.ReadSession(ctx, sid)
	if err != nil {
		return res, err
	}
	if len(fields) == 0 {
		return res, deps.Errors.SessionExpired
	}

	sess, err := session.Decode(sid, fields)
	if err != nil {
		if errors.Is(err, session.ErrMissingUserID) {
			return res, deps.Errors.MissingUserID
		}
		return res, deps.Errors.SessionExpired
	}
	res.UserID = sess.UserID

	user, err := deps.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if deps.IsNoRecord(err) {
			return res, deps.Errors.UserNotFound
		}
		return res, err
	}
	if !deps.IsActive(user) {
		return res, deps.Errors.InactiveUser
	}

	if err := deps.RenewSession(ctx, sid, deps.SessionTTL); err != nil {
		return res, err
	}

	res.User = user
	return res, nil
}
