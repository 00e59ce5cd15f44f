package sessionauth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config is the engine configuration. Start from DefaultConfig and override
// fields; Builder.Build validates it and keeps a private copy.
type Config struct {
	Session       SessionConfig
	Cookie        CookieConfig
	Password      PasswordConfig
	LoginThrottle LoginThrottleConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls server-side session storage.
type SessionConfig struct {
	// TTL is applied at login and renewed to its full value on every
	// successful resolution.
	TTL         time.Duration
	RedisPrefix string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the session cookie handed to browsers. The cookie
// value is the session id and nothing else.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	// Secure should only be disabled for plain-HTTP local development.
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	BcryptCost int
	// UpgradeOnLogin replaces a stored hash that is weaker than BcryptCost,
	// or not bcrypt at all, after the next successful login.
	UpgradeOnLogin bool
}

/*
====================================
LOGIN THROTTLE CONFIG
====================================
*/

// LoginThrottleConfig enables fixed-window counting of failed logins per
// email and, optionally, per client IP.
type LoginThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
	PerIP       bool
	RedisPrefix string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultSessionTTL is 12 hours.
const DefaultSessionTTL = 43200 * time.Second

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "sessionid"

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:         DefaultSessionTTL,
			RedisPrefix: "sess",
		},
		Cookie: CookieConfig{
			Name:     DefaultCookieName,
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		Password: PasswordConfig{
			BcryptCost:     12,
			UpgradeOnLogin: true,
		},
		LoginThrottle: LoginThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			PerIP:       true,
			RedisPrefix: "login",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks c for values the engine cannot operate with. Errors wrap
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Session.TTL < time.Second {
		return invalidConfig("Session TTL must be >= 1s")
	}
	if c.Session.TTL%time.Second != 0 {
		return invalidConfig("Session TTL must be a whole number of seconds")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return invalidConfig("Session RedisPrefix must not be empty")
	}
	if strings.Contains(c.Session.RedisPrefix, ":") {
		return invalidConfig("Session RedisPrefix must not contain ':'")
	}

	if c.Cookie.Name == "" {
		return invalidConfig("Cookie Name must not be empty")
	}
	if c.Cookie.Path == "" {
		return invalidConfig("Cookie Path must not be empty")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return invalidConfig("Cookie SameSite=None requires Secure")
	}

	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		return invalidConfig(fmt.Sprintf("Password BcryptCost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.MaxAttempts <= 0 {
			return invalidConfig("LoginThrottle MaxAttempts must be > 0")
		}
		if c.LoginThrottle.Window < time.Second {
			return invalidConfig("LoginThrottle Window must be >= 1s")
		}
		if c.LoginThrottle.RedisPrefix == "" || c.LoginThrottle.RedisPrefix == c.Session.RedisPrefix {
			return invalidConfig("LoginThrottle RedisPrefix must be set and differ from Session RedisPrefix")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalidConfig("Audit BufferSize must be > 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalidConfig("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func invalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
