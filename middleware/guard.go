package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/MrEthical07/sessionauth"
)

type userContextKey struct{}
type sessionIDContextKey struct{}

// ErrorHandler renders a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a guard.
type Option func(*options)

type options struct {
	onError ErrorHandler
}

// WithErrorHandler replaces the plain-text error response.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{onError: plainError}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func plainError(w http.ResponseWriter, _ *http.Request, err error) {
	kind := sessionauth.KindOf(err)
	msg := http.StatusText(kind.HTTPStatus())
	var appErr *sessionauth.Error
	if kind != sessionauth.KindInternal && errors.As(err, &appErr) {
		msg = appErr.Detail
	}
	http.Error(w, msg, kind.HTTPStatus())
}

// UserFromContext returns the user resolved by RequireUser.
func UserFromContext(ctx context.Context) (*sessionauth.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*sessionauth.User)
	return u, ok && u != nil
}

// SessionIDFromContext returns the session id RequireUser resolved.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDContextKey{}).(string)
	return sid, ok && sid != ""
}

// RequireUser resolves the session cookie and stores the user in the request
// context. Engine errors are passed to the error handler unchanged.
func RequireUser(engine *sessionauth.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				o.onError(w, r, sessionauth.ErrEngineNotReady)
				return
			}

			sid := engine.SessionIDFromRequest(r)
			if sid == "" {
				o.onError(w, r, sessionauth.ErrNotAuthenticated)
				return
			}

			user, err := engine.ResolveCurrentUser(r.Context(), sid)
			if err != nil {
				o.onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			ctx = context.WithValue(ctx, sessionIDContextKey{}, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin admits users holding an admin row.
func RequireAdmin(engine *sessionauth.Engine, opts ...Option) func(http.Handler) http.Handler {
	return requireRole(engine, buildOptions(opts), func(e *sessionauth.Engine, ctx context.Context, id int64) error {
		return e.AuthorizeAdmin(ctx, id)
	})
}

// RequireSuperAdmin admits admins whose super-admin flag is set.
func RequireSuperAdmin(engine *sessionauth.Engine, opts ...Option) func(http.Handler) http.Handler {
	return requireRole(engine, buildOptions(opts), func(e *sessionauth.Engine, ctx context.Context, id int64) error {
		return e.AuthorizeSuperAdmin(ctx, id)
	})
}

func requireRole(
	engine *sessionauth.Engine,
	o options,
	authorize func(*sessionauth.Engine, context.Context, int64) error,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				o.onError(w, r, sessionauth.ErrEngineNotReady)
				return
			}

			user, ok := UserFromContext(r.Context())
			if !ok {
				o.onError(w, r, sessionauth.ErrNotAuthenticated)
				return
			}

			if err := authorize(engine, r.Context(), user.ID); err != nil {
				o.onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP stores the remote address and User-Agent in the request context
// for login throttling and audit events. Mount it after a proxy-aware
// middleware such as chi's RealIP when running behind a load balancer.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		ctx := sessionauth.WithClientIP(r.Context(), ip)
		if ua := r.UserAgent(); ua != "" {
			ctx = sessionauth.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
