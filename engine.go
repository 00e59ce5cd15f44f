package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/sessionauth/internal/flows"
	"github.com/MrEthical07/sessionauth/internal/rate"
)

// Engine is the authentication and authorization service. It is immutable
// after Builder.Build and safe for concurrent use.
type Engine struct {
	config    Config
	users     UserDirectory
	admins    AdminDirectory
	hasher    CredentialHasher
	sessions  SessionStore
	limiter   *rate.Limiter
	audit     *auditDispatcher
	metrics   *Metrics
	logger    *slog.Logger
	dummyHash string
	now       func() time.Time
	flows     flows.Deps[*User, *Admin]
}

// Close stops the audit dispatcher after draining buffered events. It does
// not close the Redis client or the directories.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return DefaultConfig()
	}
	return e.config
}

// SessionTTL is the lifetime applied at login and on every renewal.
func (e *Engine) SessionTTL() time.Duration {
	return e.Config().Session.TTL
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.users != nil && e.admins != nil && e.sessions != nil && e.hasher != nil
}

// backendFailure records an unexpected store error and returns it unchanged.
// Typed *Error values pass through untouched.
func (e *Engine) backendFailure(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) && !errors.Is(err, ErrRedisUnavailable) {
		return err
	}
	e.metricInc(MetricBackendError)
	e.logger.ErrorContext(ctx, "sessionauth: backend failure",
		"op", op,
		"request_id", RequestIDFromContext(ctx),
		"error", err,
	)
	return err
}

/*
====================================
SESSION COOKIE
====================================
*/

// SessionCookie returns the cookie that carries sid to the browser.
func (e *Engine) SessionCookie(sid string) *http.Cookie {
	cfg := e.Config()
	return &http.Cookie{
		Name:     cfg.Cookie.Name,
		Value:    sid,
		Path:     cfg.Cookie.Path,
		Domain:   cfg.Cookie.Domain,
		MaxAge:   int(cfg.Session.TTL / time.Second),
		HttpOnly: true,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSite,
	}
}

// ClearSessionCookie returns a cookie that makes the browser drop the
// session cookie.
func (e *Engine) ClearSessionCookie() *http.Cookie {
	c := e.SessionCookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// SessionIDFromRequest returns the session cookie value, or "" when the
// request carries none.
func (e *Engine) SessionIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(e.Config().Cookie.Name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// trimmedOrNil returns a pointer to the trimmed value, or nil when s is nil
// or blank.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
