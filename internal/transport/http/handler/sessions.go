package handler

import (
	"errors"
	"net/http"

	"github.com/taratrabaho/jobboard-api/internal/application/session"
	"github.com/taratrabaho/jobboard-api/internal/transport/http/middleware"
)

// SessionHandler handles sign-in and token endpoints.
type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req session.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	h.respond(w, result, err)
}

func (h *SessionHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req session.GoogleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.LoginWithGoogle(r.Context(), req)
	h.respond(w, result, err)
}

func (h *SessionHandler) respond(w http.ResponseWriter, result *session.LoginResult, err error) {
	if errors.Is(err, session.ErrSuspended) {
		writeJSON(w, http.StatusForbidden, SuspendedEnvelope{Status: "suspended", Message: messageOf(err)})
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Success: true,
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User,
	})
}

// VerifyToken reports whether the Bearer token is valid. It always answers 200.
func (h *SessionHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	tok := middleware.BearerToken(r)
	if tok == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}
	claims, err := h.svc.VerifyToken(r.Context(), tok)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "user": claims})
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Me(r.Context(), a.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
