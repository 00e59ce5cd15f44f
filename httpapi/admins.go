package httpapi

import (
	"net/http"
)

type addAdminRequest struct {
	UserID     int64 `json:"user_id" validate:"required,gt=0"`
	SuperAdmin bool  `json:"super_admin"`
}

type setSuperAdminRequest struct {
	SuperAdmin *bool `json:"super_admin" validate:"required"`
}

// ListAdmins handles GET /admins.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.engine.ListAdmins(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

// GetAdmin handles GET /admins/{user_id}.
func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	admin, err := h.engine.GetAdmin(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// AddAdmin handles POST /admins.
func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var req addAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	admin, err := h.engine.AddAdmin(r.Context(), req.UserID, req.SuperAdmin)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

// SetSuperAdmin handles PATCH /admins/{user_id}/super.
func (h *Handler) SetSuperAdmin(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req setSuperAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	admin, err := h.engine.SetSuperAdmin(r.Context(), userID, *req.SuperAdmin)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// RemoveAdmin handles DELETE /admins/{user_id}. Removing a user that holds
// no admin row still answers 204.
func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.engine.RemoveAdmin(r.Context(), userID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
