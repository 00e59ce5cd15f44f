package sessionauth

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/MrEthical07/sessionauth/session"
)

// Kind classifies an expected authentication or authorization outcome.
// Each kind maps to exactly one HTTP status, see HTTPStatus.
type Kind uint8

const (
	// KindInternal marks errors that carry no domain meaning.
	KindInternal Kind = iota
	KindNotAuthenticated
	KindInvalidCredentials
	KindSessionExpired
	KindForbidden
	KindInactiveUser
	KindNotFound
	KindConflict
	KindRateLimited
	KindInvalidInput
)

var kindStatus = [...]int{
	KindInternal:           http.StatusInternalServerError,
	KindNotAuthenticated:   http.StatusUnauthorized,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindSessionExpired:     http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindInactiveUser:       http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindConflict:           http.StatusConflict,
	KindRateLimited:        http.StatusTooManyRequests,
	KindInvalidInput:       http.StatusUnprocessableEntity,
}

// HTTPStatus returns the response status for k.
func (k Kind) HTTPStatus() int {
	if int(k) < len(kindStatus) {
		return kindStatus[k]
	}
	return http.StatusInternalServerError
}

var kindNames = [...]string{
	KindInternal:           "Internal",
	KindNotAuthenticated:   "NotAuthenticated",
	KindInvalidCredentials: "InvalidCredentials",
	KindSessionExpired:     "SessionExpired",
	KindForbidden:          "Forbidden",
	KindInactiveUser:       "InactiveUser",
	KindNotFound:           "NotFound",
	KindConflict:           "Conflict",
	KindRateLimited:        "RateLimited",
	KindInvalidInput:       "InvalidInput",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error is the application fault returned by Engine operations for expected
// outcomes. Detail is safe to show to clients; Code and Extra are meant for
// logs and audit only.
type Error struct {
	Kind   Kind
	Detail string
	Code   string
	Extra  map[string]string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Detail)
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteByte(']')
	}
	if len(e.Extra) > 0 {
		keys := make([]string, 0, len(e.Extra))
		for k := range e.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(e.Extra[k])
		}
	}
	return b.String()
}

// Is reports whether target is an *Error of the same kind, so the package
// sentinels match regardless of detail text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// LogArgs returns key/value pairs suitable for slog.
func (e *Error) LogArgs() []any {
	args := []any{"kind", e.Kind.String(), "detail", e.Detail}
	if e.Code != "" {
		args = append(args, "code", e.Code)
	}
	for k, v := range e.Extra {
		args = append(args, k, v)
	}
	return args
}

func newError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func (e *Error) with(key, value string) *Error {
	if e.Extra == nil {
		e.Extra = make(map[string]string, 1)
	}
	e.Extra[key] = value
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var (
	// ErrNotAuthenticated is returned when no session identifier was presented.
	ErrNotAuthenticated = newError(KindNotAuthenticated, "Not authenticated")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = newError(KindInvalidCredentials, "Invalid credentials")
	// ErrSessionExpired covers expired, forged, and malformed sessions.
	ErrSessionExpired = newError(KindSessionExpired, "Session expired")
	ErrForbidden      = newError(KindForbidden, "Forbidden")
	// ErrInactiveUser is returned once a user has been deactivated.
	ErrInactiveUser = newError(KindInactiveUser, "Inactive user")
	ErrNotFound     = newError(KindNotFound, "Not found")
	ErrConflict     = newError(KindConflict, "Conflict")
	// ErrRateLimited is returned by Login when the throttle window is exhausted.
	ErrRateLimited = newError(KindRateLimited, "Too many login attempts")
	// ErrPasswordTooLong is returned by Register for passwords bcrypt cannot
	// hash without truncation.
	ErrPasswordTooLong = newError(KindInvalidInput, "Password must be at most 72 bytes")
)

var (
	// ErrDuplicate is returned by directory implementations when a write
	// violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrRedisUnavailable wraps failures of the session backend.
	ErrRedisUnavailable = session.ErrRedisUnavailable
	// ErrEngineNotReady is returned by methods of a zero or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)
