package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/middleware"
)

// Handler serves the auth, profile, and admin endpoints on top of an Engine.
type Handler struct {
	engine      *sessionauth.Engine
	logger      *slog.Logger
	renderError func(http.ResponseWriter, *http.Request, error)
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default.
func NewHandler(engine *sessionauth.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:      engine,
		logger:      logger,
		renderError: ErrorRenderer(logger),
	}
}

// Routes returns a chi router with every endpoint mounted and guarded.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	onError := middleware.WithErrorHandler(h.renderError)
	requireUser := middleware.RequireUser(h.engine, onError)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
	})

	r.Route("/admins", func(r chi.Router) {
		r.Use(requireUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.engine, onError))
			r.Get("/", h.ListAdmins)
			r.Get("/{user_id}", h.GetAdmin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSuperAdmin(h.engine, onError))
			r.Post("/", h.AddAdmin)
			r.Patch("/{user_id}/super", h.SetSuperAdmin)
			r.Delete("/{user_id}", h.RemoveAdmin)
		})
	})

	return r
}

// fail answers a request that could not be served.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		WriteError(w, reqErr.status, reqErr.message)
		return
	}
	h.renderError(w, r, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &requestError{
			status:  http.StatusUnprocessableEntity,
			message: "path parameter 'user_id' must be a positive integer",
		}
	}
	return id, nil
}

type okResponse struct {
	OK bool `json:"ok"`
}

type userResponse struct {
	User *sessionauth.User `json:"user"`
}
