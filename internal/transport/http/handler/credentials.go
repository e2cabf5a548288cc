package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taratrabaho/jobboard-api/internal/application/auth"
	"github.com/taratrabaho/jobboard-api/internal/application/session"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// CredentialHandler serves signup, OTP verification and password reset.
type CredentialHandler struct {
	svc auth.Service
}

func NewCredentialHandler(svc auth.Service) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

type verifyOTPResponse struct {
	Success bool              `json:"success"`
	UserID  string            `json:"userId"`
	Token   string            `json:"token,omitempty"`
	User    *session.UserView `json:"user,omitempty"`
}

type verifyResetResponse struct {
	Valid   bool   `json:"valid"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *CredentialHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.BeginSignup(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CredentialHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SendOTP(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "OTP sent")
}

func (h *CredentialHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	out := verifyOTPResponse{Success: true, UserID: res.UserID, Token: res.Token}
	if res.Token != "" && res.User != nil {
		v := session.ViewOf(res.User)
		out.User = &v
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CredentialHandler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.RequestReset(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, auth.ResetRequestedMessage)
}

func (h *CredentialHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	email, err := h.svc.VerifyResetToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeJSON(w, statusOf(err), verifyResetResponse{Valid: false, Message: messageOf(err)})
		return
	}
	writeJSON(w, http.StatusOK, verifyResetResponse{Valid: true, Email: email})
}

func (h *CredentialHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ConsumeReset(r.Context(), req.Token, req.Password); err != nil {
		httpError(w, err)
		return
	}
	writeOK(w, "Password has been reset successfully")
}
