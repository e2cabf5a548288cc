package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taratrabaho/jobboard-api/internal/application/auth"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

// --- mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) BeginSignup(ctx context.Context, req domain.SignupRequest) (*auth.SignupResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.SignupResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) SendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthSvc) VerifyOTP(ctx context.Context, email, code string) (*auth.VerifyResult, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*auth.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) RequestReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthSvc) VerifyResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}
func (m *mockAuthSvc) ConsumeReset(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

// --- helpers ---

func jsonReq(t *testing.T, method, target string, v interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(body))
}

// withParam injects a chi URL param into the request context.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

// --- tests ---

func TestSignup_InvalidBody(t *testing.T) {
	h := NewCredentialHandler(&mockAuthSvc{})
	rr := httptest.NewRecorder()
	h.Signup(rr, httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewBufferString("not-json")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignup_Pending(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("BeginSignup", mock.Anything, mock.Anything).Return(&auth.SignupResult{Status: "pending", Email: "a@x.com"}, nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).Signup(rr, jsonReq(t, http.MethodPost, "/api/signup", map[string]string{
		"email": "a@x.com", "password": "secret1", "firstname": "A", "lastname": "X",
	}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"pending","email":"a@x.com"}`, rr.Body.String())
}

func TestSignup_EmailExists(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("BeginSignup", mock.Anything, mock.Anything).Return(nil, domain.NewError(domain.ErrConflict, "Email already exists"))
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).Signup(rr, jsonReq(t, http.MethodPost, "/api/signup", map[string]string{"email": "a@x.com"}))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Email already exists"}`, rr.Body.String())
}

func TestSendOTP_RateLimited(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("SendOTP", mock.Anything, "a@x.com").Return(domain.NewError(domain.ErrRateLimited, "Too many OTP requests. Please try again later."))
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).SendOTP(rr, jsonReq(t, http.MethodPost, "/api/send-otp", map[string]string{"email": "a@x.com"}))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestVerifyOTP_ErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"expired", domain.NewError(domain.ErrExpired, "OTP expired"), http.StatusBadRequest},
		{"mismatch", domain.NewError(domain.ErrMismatch, "Invalid OTP"), http.StatusBadRequest},
		{"conflict", domain.NewError(domain.ErrConflict, "Email already exists"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAuthSvc{}
			svc.On("VerifyOTP", mock.Anything, "a@x.com", "1234").Return(nil, tc.err)
			rr := httptest.NewRecorder()
			NewCredentialHandler(svc).VerifyOTP(rr, jsonReq(t, http.MethodPost, "/api/verify-otp", map[string]string{"email": "a@x.com", "otp": "1234"}))
			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, tc.err.Error(), decodeBody(t, rr)["message"])
		})
	}
}

func TestVerifyOTP_Success(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@x.com", "1234").Return(&auth.VerifyResult{
		UserID: "u1",
		Token:  "tok",
		User:   &domain.User{UserID: "u1", Email: "a@x.com", Role: domain.RoleJobSeeker},
	}, nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).VerifyOTP(rr, jsonReq(t, http.MethodPost, "/api/verify-otp", map[string]string{"email": "a@x.com", "otp": "1234"}))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "u1", body["userId"])
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "a@x.com", body["user"].(map[string]interface{})["email"])
}

func TestVerifyOTP_SuccessWithoutToken(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@x.com", "1234").Return(&auth.VerifyResult{
		UserID: "u1",
		User:   &domain.User{UserID: "u1", Email: "a@x.com", Role: domain.RoleJobSeeker},
	}, nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).VerifyOTP(rr, jsonReq(t, http.MethodPost, "/api/verify-otp", map[string]string{"email": "a@x.com", "otp": "1234"}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"userId":"u1"}`, rr.Body.String())
}

func TestForgetPassword_AlwaysGeneric(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RequestReset", mock.Anything, "ghost@x.com").Return(nil)
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).ForgetPassword(rr, jsonReq(t, http.MethodPost, "/api/forget-password", map[string]string{"email": "ghost@x.com"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, auth.ResetRequestedMessage, decodeBody(t, rr)["message"])
}

func TestVerifyResetToken(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyResetToken", mock.Anything, "good").Return("a@x.com", nil)
	svc.On("VerifyResetToken", mock.Anything, "stale").Return("", domain.NewError(domain.ErrExpired, "Invalid or expired reset link. Please request a new one."))
	h := NewCredentialHandler(svc)

	rr := httptest.NewRecorder()
	h.VerifyResetToken(rr, withParam(httptest.NewRequest(http.MethodGet, "/api/verify-reset-token/good", nil), "token", "good"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"valid":true,"email":"a@x.com"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.VerifyResetToken(rr, withParam(httptest.NewRequest(http.MethodGet, "/api/verify-reset-token/stale", nil), "token", "stale"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, decodeBody(t, rr)["valid"])
}

func TestResetPassword_UserGone(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("ConsumeReset", mock.Anything, "tok", "newpass1").Return(domain.NewError(domain.ErrNotFound, "User not found"))
	rr := httptest.NewRecorder()
	NewCredentialHandler(svc).ResetPassword(rr, jsonReq(t, http.MethodPost, "/api/reset-password", map[string]string{"token": "tok", "password": "newpass1"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
