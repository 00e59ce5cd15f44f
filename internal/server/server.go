// Package server wires the session auth HTTP API into a runnable service:
// middleware chain, health and metrics endpoints, and graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/httpapi"
	"github.com/MrEthical07/sessionauth/middleware"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Server is the session auth HTTP service.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *Config
}

// New builds the router and the http.Server. checks back /healthz and
// may be nil.
func New(cfg *Config, logger *slog.Logger, engine *sessionauth.Engine, checks map[string]CheckFunc) *Server {
	router := chi.NewRouter()

	router.Use(chimw.RealIP)
	router.Use(RequestID)
	router.Use(middleware.ClientIP)
	router.Use(Metrics)
	router.Use(RequestLogger(logger))
	router.Use(chimw.Recoverer)

	router.Get("/health/live", healthLive)
	router.Get("/healthz", healthReady(checks))
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", httpapi.NewHandler(engine, logger).Routes())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until SIGINT or SIGTERM, then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server started", slog.String("addr", s.httpServer.Addr))

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

func healthLive(w http.ResponseWriter, _ *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func healthReady(checks map[string]CheckFunc) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]checkResult, len(names)),
		}
		code := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = checkResult{Status: "fail", Message: err.Error()}
				resp.Status = "fail"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = checkResult{Status: "ok"}
		}
		writeHealth(w, code, resp)
	}
}

func writeHealth(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
