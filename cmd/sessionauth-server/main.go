// Command sessionauth-server runs the session auth HTTP API against
// PostgreSQL and Redis. Configuration comes from SA_* environment variables.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/server"
	promexport "github.com/MrEthical07/sessionauth/metrics/export/prometheus"
	"github.com/MrEthical07/sessionauth/postgres"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := server.SetupLogger(cfg)
	logger.Info("sessionauth starting", slog.String("addr", cfg.HTTPAddr))

	if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
		logger.Error("apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("connect postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Error("connect redis", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		os.Exit(1)
	}

	builder := sessionauth.New().
		WithConfig(cfg.EngineConfig()).
		WithRedis(rdb).
		WithUserDirectory(postgres.NewUsers(pool)).
		WithAdminDirectory(postgres.NewAdmins(pool)).
		WithLogger(logger)
	if cfg.AuditLog {
		builder = builder.WithAuditSink(sessionauth.NewSlogSink(logger.With(slog.String("component", "audit"))))
	}
	engine, err := builder.Build()
	if err != nil {
		logger.Error("build engine", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer engine.Close()

	prometheus.MustRegister(promexport.NewCollector(engine))

	srv := server.New(cfg, logger, engine, map[string]server.CheckFunc{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})
	if err := srv.Run(); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
