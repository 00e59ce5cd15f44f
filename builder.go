package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/sessionauth/internal"
	"github.com/MrEthical07/sessionauth/internal/flows"
	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
	"github.com/redis/go-redis/v9"
)

// dummyPassword is hashed once per Engine so logins for unknown emails pay
// the same bcrypt cost as logins for known ones.
const dummyPassword = "sessionauth-timing-equalizer"

// Builder assembles an Engine. A Builder is single-use: Build may succeed at
// most once.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	sessions  SessionStore
	users     UserDirectory
	admins    AdminDirectory
	hasher    CredentialHasher
	auditSink AuditSink
	logger    *slog.Logger
	built     bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client used for the session store and the login
// throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore replaces the Redis-backed session store. The login
// throttle still needs WithRedis.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

func (b *Builder) WithUserDirectory(users UserDirectory) *Builder {
	b.users = users
	return b
}

func (b *Builder) WithAdminDirectory(admins AdminDirectory) *Builder {
	b.admins = admins
	return b
}

// WithHasher overrides the default bcrypt hasher built from
// Config.Password.BcryptCost.
func (b *Builder) WithHasher(hasher CredentialHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithAuditSink enables audit delivery to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user directory required")
	}
	if b.admins == nil {
		return nil, errors.New("admin directory required")
	}
	if b.redis == nil {
		if b.sessions == nil {
			return nil, errors.New("redis client required")
		}
		if cfg.LoginThrottle.Enabled {
			return nil, errors.New("LoginThrottle requires redis client")
		}
	}

	engine := &Engine{
		config: cfg,
		users:  b.users,
		admins: b.admins,
		logger: b.logger,
		now:    time.Now,
	}
	if engine.logger == nil {
		engine.logger = slog.Default()
	}

	// -------- SESSION STORE --------
	if b.sessions != nil {
		engine.sessions = b.sessions
	} else {
		engine.sessions = session.NewStore(b.redis, cfg.Session.RedisPrefix)
	}

	// -------- PASSWORDS --------
	if b.hasher != nil {
		engine.hasher = b.hasher
	} else {
		h, err := password.New(cfg.Password.BcryptCost)
		if err != nil {
			return nil, err
		}
		engine.hasher = h
	}
	dummy, err := engine.hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	engine.dummyHash = dummy

	// -------- LOGIN THROTTLE --------
	if cfg.LoginThrottle.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:      cfg.LoginThrottle.RedisPrefix,
			MaxAttempts: cfg.LoginThrottle.MaxAttempts,
			Window:      cfg.LoginThrottle.Window,
			PerIP:       cfg.LoginThrottle.PerIP,
		})
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}

func (e *Engine) buildFlowDeps() flows.Deps[*User, *Admin] {
	isNoRecord := func(err error) bool { return errors.Is(err, ErrNoRecord) }

	deps := flows.Deps[*User, *Admin]{
		Login: flows.LoginDeps[*User]{
			SessionTTL:          e.config.Session.TTL,
			DummyHash:           e.dummyHash,
			Now:                 func() time.Time { return e.now() },
			ClientIPFromContext: ClientIPFromContext,
			GetUserByEmail:      e.users.GetByEmail,
			IsNoRecord:          isNoRecord,
			Credentials: func(u *User) (int64, string, bool) {
				return u.ID, u.PasswordHash, u.IsActive
			},
			VerifyPassword: e.hasher.Verify,
			NewSessionID:   internal.NewSessionID,
			WriteSession:   e.sessions.WriteFields,
			IsRateLimited:  func(err error) bool { return errors.Is(err, rate.ErrRateLimited) },
			Errors: flows.LoginErrors{
				InvalidCredentials: ErrInvalidCredentials,
				InactiveUser:       ErrInactiveUser,
				RateLimited:        ErrRateLimited,
			},
		},
		Resolve: flows.ResolveDeps[*User]{
			SessionTTL:     e.config.Session.TTL,
			ValidSessionID: internal.ValidSessionID,
			ReadSession:    e.sessions.ReadAllFields,
			RenewSession:   e.sessions.RenewTTL,
			GetUserByID:    e.users.GetByID,
			IsNoRecord:     isNoRecord,
			IsActive:       func(u *User) bool { return u.IsActive },
			Errors: flows.ResolveErrors{
				NotAuthenticated: ErrNotAuthenticated,
				SessionExpired:   ErrSessionExpired,
				MissingUserID:    newError(KindSessionExpired, "Missing user_id in session"),
				UserNotFound:     newError(KindNotFound, "User not found"),
				InactiveUser:     ErrInactiveUser,
			},
		},
		Grant: flows.GrantDeps[*Admin]{
			UserExists: func(ctx context.Context, userID int64) (bool, error) {
				_, err := e.users.GetByID(ctx, userID)
				if err == nil {
					return true, nil
				}
				if errors.Is(err, ErrNoRecord) {
					return false, nil
				}
				return false, err
			},
			GetAdmin:    e.admins.GetByUserID,
			InsertAdmin: e.admins.Insert,
			IsNoRecord:  isNoRecord,
			IsDuplicate: func(err error) bool { return errors.Is(err, ErrDuplicate) },
			Errors: flows.GrantErrors{
				UserNotFound: newError(KindNotFound, "User not found"),
				AlreadyAdmin: newError(KindConflict, "User is already an admin"),
			},
		},
	}

	if e.limiter != nil {
		deps.Login.CheckLoginRate = e.limiter.Check
		deps.Login.RecordLoginFailure = e.limiter.RecordFailure
		deps.Login.ResetLoginRate = e.limiter.Reset
	}

	if rc, ok := e.hasher.(RehashChecker); ok && e.config.Password.UpgradeOnLogin {
		deps.Login.PasswordNeedsUpgrade = rc.NeedsRehash
		deps.Login.HashPassword = e.hasher.Hash
		deps.Login.UpdatePasswordHash = e.users.UpdatePasswordHash
		deps.Login.Warn = func(ctx context.Context, msg string, err error) {
			e.logger.WarnContext(ctx, "sessionauth: "+msg,
				"request_id", RequestIDFromContext(ctx),
				"error", err,
			)
		}
	}

	return deps
}
