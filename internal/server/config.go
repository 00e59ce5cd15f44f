package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/sessionauth"
)

// Config holds the service settings read from SA_* environment variables.
type Config struct {
	// --- HTTP ---

	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	// LogFormat is "json" or "text".
	LogFormat string

	// --- Stores ---

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// --- Engine ---

	SessionTTL    time.Duration
	CookieSecure  bool
	BcryptCost    int
	LoginThrottle bool
	AuditLog      bool
}

// LoadConfig reads the configuration from the environment. SA_DATABASE_URL
// is the only required variable.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getEnvDefault("SA_HTTP_ADDR", ":8080"),
		LogFormat:     strings.ToLower(getEnvDefault("SA_LOG_FORMAT", "json")),
		RedisAddr:     getEnvDefault("SA_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("SA_REDIS_PASSWORD"),
	}

	var errs []error
	var err error

	if cfg.DatabaseURL, err = getEnvRequired("SA_DATABASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogLevel, err = parseLogLevel(getEnvDefault("SA_LOG_LEVEL", "info")); err != nil {
		errs = append(errs, fmt.Errorf("SA_LOG_LEVEL: %w", err))
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("SA_LOG_FORMAT: must be json or text, got %q", cfg.LogFormat))
	}
	if cfg.RedisDB, err = getEnvInt("SA_REDIS_DB", 0); err != nil {
		errs = append(errs, fmt.Errorf("SA_REDIS_DB: %w", err))
	}
	if cfg.SessionTTL, err = getEnvDuration("SA_SESSION_TTL", sessionauth.DefaultSessionTTL); err != nil {
		errs = append(errs, fmt.Errorf("SA_SESSION_TTL: %w", err))
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SA_SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("SA_SHUTDOWN_TIMEOUT: %w", err))
	}
	if cfg.CookieSecure, err = getEnvBool("SA_COOKIE_SECURE", true); err != nil {
		errs = append(errs, fmt.Errorf("SA_COOKIE_SECURE: %w", err))
	}
	if cfg.BcryptCost, err = getEnvInt("SA_BCRYPT_COST", sessionauth.DefaultConfig().Password.BcryptCost); err != nil {
		errs = append(errs, fmt.Errorf("SA_BCRYPT_COST: %w", err))
	}
	if cfg.LoginThrottle, err = getEnvBool("SA_LOGIN_THROTTLE", false); err != nil {
		errs = append(errs, fmt.Errorf("SA_LOGIN_THROTTLE: %w", err))
	}
	if cfg.AuditLog, err = getEnvBool("SA_AUDIT_LOG", true); err != nil {
		errs = append(errs, fmt.Errorf("SA_AUDIT_LOG: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ec := cfg.EngineConfig()
	if err := ec.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EngineConfig derives the engine configuration. Metrics are always on in
// the service since /metrics exposes them.
func (c *Config) EngineConfig() sessionauth.Config {
	ec := sessionauth.DefaultConfig()
	ec.Session.TTL = c.SessionTTL
	ec.Cookie.Secure = c.CookieSecure
	ec.Password.BcryptCost = c.BcryptCost
	ec.LoginThrottle.Enabled = c.LoginThrottle
	ec.Audit.Enabled = c.AuditLog
	ec.Metrics.Enabled = true
	ec.Metrics.EnableLatencyHistograms = true
	return ec
}

// SetupLogger builds the process logger and installs it as slog's default.
func SetupLogger(cfg *Config) *slog.Logger {
	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: required environment variable is not set", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", val)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", val)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use Go syntax such as 30s, 12h)", val)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
