package httpapi

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/middleware"
)

type updateProfileRequest struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	FirstName  *string `json:"first_name" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name" validate:"omitempty,max=100"`
	MiddleName *string `json:"middle_name" validate:"omitempty,max=100"`
}

// normalize turns blank values into absent ones so they are not validated.
func (req *updateProfileRequest) normalize() {
	for _, f := range []**string{&req.Email, &req.FirstName, &req.LastName, &req.MiddleName} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			*f = nil
			continue
		}
		*f = &v
	}
}

// GetMe handles GET /users/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.fail(w, r, sessionauth.ErrNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.fail(w, r, sessionauth.ErrNotAuthenticated)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.engine.UpdateProfile(r.Context(), current.ID, sessionauth.ProfileUpdate{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteMe handles DELETE /users/me: the account is deactivated and the
// cookie cleared. Other sessions of the user stop resolving because the
// user is inactive.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.fail(w, r, sessionauth.ErrNotAuthenticated)
		return
	}

	if err := h.engine.SoftDelete(r.Context(), current.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.engine.ClearSessionCookie())
	w.WriteHeader(http.StatusNoContent)
}
