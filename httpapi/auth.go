package httpapi

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/sessionauth"
)

type registerRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=6,maxbytes=72"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string  `json:"first_name" validate:"required,max=100"`
	LastName        string  `json:"last_name" validate:"required,max=100"`
	MiddleName      *string `json:"middle_name" validate:"omitempty,max=100"`
}

func (req *registerRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.engine.Register(r.Context(), sessionauth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

// Login handles POST /auth/login. The session id travels only in the
// cookie, never in the body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	sid, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.engine.SessionCookie(sid))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.LogoutBySID(r.Context(), h.engine.SessionIDFromRequest(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.engine.ClearSessionCookie())
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.engine.ResolveCurrentUser(r.Context(), h.engine.SessionIDFromRequest(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}
