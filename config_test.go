package sessionauth

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Session.TTL != 43200*time.Second {
		t.Fatalf("expected 12h session ttl, got %v", cfg.Session.TTL)
	}
	if cfg.Cookie.Name != "sessionid" || cfg.Password.BcryptCost != 12 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "short ttl",
			mutate:    func(c *Config) { c.Session.TTL = 500 * time.Millisecond },
			wantValid: false,
		},
		{
			name:      "fractional ttl",
			mutate:    func(c *Config) { c.Session.TTL = 1500 * time.Millisecond },
			wantValid: false,
		},
		{
			name:      "prefix with colon",
			mutate:    func(c *Config) { c.Session.RedisPrefix = "app:sess" },
			wantValid: false,
		},
		{
			name:      "blank prefix",
			mutate:    func(c *Config) { c.Session.RedisPrefix = "  " },
			wantValid: false,
		},
		{
			name:      "empty cookie name",
			mutate:    func(c *Config) { c.Cookie.Name = "" },
			wantValid: false,
		},
		{
			name: "samesite none without secure",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
				c.Cookie.Secure = false
			},
			wantValid: false,
		},
		{
			name:      "insecure cookie for local dev",
			mutate:    func(c *Config) { c.Cookie.Secure = false },
			wantValid: true,
		},
		{
			name:      "bcrypt cost too low",
			mutate:    func(c *Config) { c.Password.BcryptCost = 3 },
			wantValid: false,
		},
		{
			name:      "bcrypt cost too high",
			mutate:    func(c *Config) { c.Password.BcryptCost = 32 },
			wantValid: false,
		},
		{
			name:      "throttle enabled",
			mutate:    func(c *Config) { c.LoginThrottle.Enabled = true },
			wantValid: true,
		},
		{
			name: "throttle shares session prefix",
			mutate: func(c *Config) {
				c.LoginThrottle.Enabled = true
				c.LoginThrottle.RedisPrefix = c.Session.RedisPrefix
			},
			wantValid: false,
		},
		{
			name: "throttle zero attempts",
			mutate: func(c *Config) {
				c.LoginThrottle.Enabled = true
				c.LoginThrottle.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "audit zero buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name:      "latency without metrics",
			mutate:    func(c *Config) { c.Metrics.EnableLatencyHistograms = true },
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestBuildRequirements(t *testing.T) {
	_, rdb := newTestRedis(t)

	if _, err := New().WithRedis(rdb).WithAdminDirectory(newMockAdminDirectory()).Build(); err == nil {
		t.Fatal("expected error without user directory")
	}
	if _, err := New().WithUserDirectory(newMockUserDirectory()).WithAdminDirectory(newMockAdminDirectory()).Build(); err == nil {
		t.Fatal("expected error without redis")
	}

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserDirectory(newMockUserDirectory()).
		WithAdminDirectory(newMockAdminDirectory())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestSessionCookie(t *testing.T) {
	te := newTestEngine(t, testConfig(), nil)

	c := te.SessionCookie("abc")
	if c.Name != "sessionid" || c.Value != "abc" || !c.HttpOnly || !c.Secure {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if c.MaxAge != 43200 || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}

	cleared := te.ClearSessionCookie()
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("expected expiring cookie, got %+v", cleared)
	}

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if sid := te.SessionIDFromRequest(req); sid != "" {
		t.Fatalf("expected empty sid, got %q", sid)
	}
	req.AddCookie(c)
	if sid := te.SessionIDFromRequest(req); sid != "abc" {
		t.Fatalf("expected abc, got %q", sid)
	}
}
