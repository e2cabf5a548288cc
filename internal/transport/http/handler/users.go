package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taratrabaho/jobboard-api/internal/application/user"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// UserHandler handles admin user management and profile endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if users == nil {
		users = []user.AdminView{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "User status updated successfully")
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProfile(r.Context(), a, chi.URLParam(r, "email"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.svc.UpdateProfile(r.Context(), a, chi.URLParam(r, "email"), req); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "Profile updated successfully")
}
