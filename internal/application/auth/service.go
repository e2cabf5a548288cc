package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taratrabaho/jobboard-api/internal/config"
	"github.com/taratrabaho/jobboard-api/internal/credstore"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/smtp"
	"github.com/taratrabaho/jobboard-api/internal/pkg/id"
	"github.com/taratrabaho/jobboard-api/internal/pkg/ratelimit"
	pkgtoken "github.com/taratrabaho/jobboard-api/internal/pkg/token"
	"github.com/taratrabaho/jobboard-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// ResetRequestedMessage is returned for every forgot-password request so the
// response never reveals whether the account exists.
const ResetRequestedMessage = "If this email exists, a reset link has been sent."

const (
	msgNoPending      = "No pending signup found for this email"
	msgNoOTP          = "No OTP sent for this email"
	msgOTPExpired     = "OTP expired"
	msgOTPMismatch    = "Invalid OTP"
	msgSessionExpired = "Signup session expired. Please sign up again."
	msgInvalidReset   = "Invalid or expired reset link. Please request a new one."
	msgOTPDelivery    = "Failed to send OTP"
	msgTooManyOTPs    = "Too many OTP requests. Please try again later."
)

// SignupResult is returned by BeginSignup.
type SignupResult struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// VerifyResult is returned by VerifyOTP. Token is empty when no signer is configured.
type VerifyResult struct {
	UserID string
	Token  string
	User   *domain.User
}

type Service interface {
	BeginSignup(ctx context.Context, req domain.SignupRequest) (*SignupResult, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error)
	RequestReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) (string, error)
	ConsumeReset(ctx context.Context, token, newPassword string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHashByEmail(ctx context.Context, email, hash string) (int64, error)
}

type mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

type tokenSigner interface {
	Sign(userID, email, role string) (string, error)
}

type service struct {
	users       userStore
	otps        credstore.Store[domain.OTPRecord]
	pending     credstore.Store[domain.PendingRegistration]
	resets      credstore.Store[domain.ResetToken]
	mailer      mailer
	signer      tokenSigner
	limiter     ratelimit.Limiter
	cfg         config.Credentials
	frontendURL string
	newCode     func() (string, error)
	newToken    func() (string, error)
	now         func() time.Time
}

// ServiceDeps wires the auth service. Signer and Limiter are optional.
// NewCode, NewToken and Now default to crypto-random generators and the UTC wall clock.
type ServiceDeps struct {
	UserRepo    userStore
	OTPs        credstore.Store[domain.OTPRecord]
	Pending     credstore.Store[domain.PendingRegistration]
	Resets      credstore.Store[domain.ResetToken]
	Mailer      mailer
	Signer      tokenSigner
	Limiter     ratelimit.Limiter
	Config      config.Credentials
	FrontendURL string
	NewCode     func() (string, error)
	NewToken    func() (string, error)
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:       deps.UserRepo,
		otps:        deps.OTPs,
		pending:     deps.Pending,
		resets:      deps.Resets,
		mailer:      deps.Mailer,
		signer:      deps.Signer,
		limiter:     deps.Limiter,
		cfg:         deps.Config,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
		newCode:     deps.NewCode,
		newToken:    deps.NewToken,
		now:         deps.Now,
	}
	if s.newCode == nil {
		s.newCode = pkgtoken.NewOTPCode
	}
	if s.newToken == nil {
		s.newToken = pkgtoken.NewResetToken
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.cfg.BcryptCost == 0 {
		s.cfg.BcryptCost = bcrypt.DefaultCost
	}
	return s
}

func (s *service) BeginSignup(ctx context.Context, req domain.SignupRequest) (*SignupResult, error) {
	email := domain.NormalizeEmail(req.Email)
	req.Email = email
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, domain.NewError(domain.ErrConflict, "Email already exists")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err := s.allowSend(ctx, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	reg := domain.PendingRegistration{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleJobSeeker,
		Profile: domain.Profile{
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Gender:    req.Gender,
			Birthday:  req.Birthday,
			Phone:     req.Phone,
		},
	}
	if err := s.pending.Put(ctx, email, reg, s.cfg.PendingTTL); err != nil {
		return nil, fmt.Errorf("store pending registration: %w", err)
	}
	if err := s.issueOTP(ctx, email); err != nil {
		if rmErr := s.pending.Remove(ctx, email); rmErr != nil {
			slog.Warn("failed to roll back pending registration", "email", email, "err", rmErr)
		}
		return nil, err
	}
	return &SignupResult{Status: "pending", Email: email}, nil
}

func (s *service) SendOTP(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewError(domain.ErrBadRequest, "Email is required")
	}
	_, l, err := s.pending.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("load pending registration: %w", err)
	}
	if l != credstore.Present {
		return domain.NewError(domain.ErrNotFound, msgNoPending)
	}
	if err := s.allowSend(ctx, email); err != nil {
		return err
	}
	return s.issueOTP(ctx, email)
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, domain.NewError(domain.ErrBadRequest, "Email and OTP are required")
	}

	otp, l, err := s.otps.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load otp: %w", err)
	}
	switch l {
	case credstore.Absent:
		return nil, domain.NewError(domain.ErrBadRequest, msgNoOTP)
	case credstore.Expired:
		return nil, domain.NewError(domain.ErrExpired, msgOTPExpired)
	}
	// A wrong code keeps the record so the user can retry within the window.
	if otp.Code != code {
		return nil, domain.NewError(domain.ErrMismatch, msgOTPMismatch)
	}

	reg, l, err := s.pending.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load pending registration: %w", err)
	}
	if l != credstore.Present {
		return nil, domain.NewError(domain.ErrExpired, msgSessionExpired)
	}

	now := s.now()
	u := &domain.User{
		UserID:       id.New(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		Role:         reg.Role,
		Status:       domain.UserStatusActive,
		Verified:     true,
		AuthProvider: domain.AuthProviderLocal,
		Profile:      reg.Profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) && s.cfg.CleanupOnConflict {
			s.discardSignup(ctx, email)
		}
		return nil, err
	}
	s.discardSignup(ctx, email)

	res := &VerifyResult{UserID: u.UserID, User: u}
	if s.signer != nil {
		tok, err := s.signer.Sign(u.UserID, u.Email, u.Role)
		if err != nil {
			slog.Warn("failed to sign token after verification", "user_id", u.UserID, "err", err)
		} else {
			res.Token = tok
		}
	}
	return res, nil
}

func (s *service) RequestReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewError(domain.ErrBadRequest, "Email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !u.HasPassword() {
		return nil
	}

	tok, err := s.newToken()
	if err != nil {
		return err
	}
	if err := s.resets.Put(ctx, tok, domain.ResetToken{Email: u.Email, UserID: u.UserID}, s.cfg.ResetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	link := s.frontendURL + "/reset-password/" + tok
	err = s.mailer.Send(ctx, smtp.Message{
		To:      []string{u.Email},
		Subject: "Reset your TaraTrabaho password",
		Body: fmt.Sprintf("We received a request to reset your password.\n\nOpen this link within %d minutes to choose a new one:\n%s\n\nIf you did not ask for this, you can ignore this email.",
			int(s.cfg.ResetTTL.Minutes()), link),
	})
	if err != nil {
		slog.Warn("failed to send reset email", "email", u.Email, "err", err)
		if rmErr := s.resets.Remove(ctx, tok); rmErr != nil {
			slog.Warn("failed to roll back reset token", "email", u.Email, "err", rmErr)
		}
	}
	return nil
}

func (s *service) VerifyResetToken(ctx context.Context, token string) (string, error) {
	rec, err := s.lookupReset(ctx, token)
	if err != nil {
		return "", err
	}
	return rec.Email, nil
}

func (s *service) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	// Taking the token up front makes it single-use under concurrent resets.
	rec, err := s.takeReset(ctx, token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	n, err := s.users.UpdatePasswordHashByEmail(ctx, rec.Email, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewError(domain.ErrNotFound, "User not found")
	}

	err = s.mailer.Send(ctx, smtp.Message{
		To:      []string{rec.Email},
		Subject: "Your TaraTrabaho password was changed",
		Body:    "Your password has been reset. If this was not you, contact support immediately.",
	})
	if err != nil {
		slog.Warn("failed to send password change confirmation", "email", rec.Email, "err", err)
	}
	return nil
}

func (s *service) lookupReset(ctx context.Context, token string) (domain.ResetToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ResetToken{}, domain.NewError(domain.ErrBadRequest, msgInvalidReset)
	}
	rec, l, err := s.resets.Get(ctx, token)
	if err != nil {
		return domain.ResetToken{}, fmt.Errorf("load reset token: %w", err)
	}
	return resetLookup(rec, l)
}

func (s *service) takeReset(ctx context.Context, token string) (domain.ResetToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ResetToken{}, domain.NewError(domain.ErrBadRequest, msgInvalidReset)
	}
	rec, l, err := s.resets.Take(ctx, token)
	if err != nil {
		return domain.ResetToken{}, fmt.Errorf("take reset token: %w", err)
	}
	return resetLookup(rec, l)
}

func resetLookup(rec domain.ResetToken, l credstore.Lookup) (domain.ResetToken, error) {
	switch l {
	case credstore.Absent:
		return domain.ResetToken{}, domain.NewError(domain.ErrBadRequest, msgInvalidReset)
	case credstore.Expired:
		return domain.ResetToken{}, domain.NewError(domain.ErrExpired, msgInvalidReset)
	}
	return rec, nil
}

// issueOTP overwrites any previous code for email and mails the new one. On a
// delivery failure the new code is removed again.
func (s *service) issueOTP(ctx context.Context, email string) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.otps.Put(ctx, email, domain.OTPRecord{Code: code}, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	err = s.mailer.Send(ctx, smtp.Message{
		To:      []string{email},
		Subject: "Your OTP Code",
		Body:    fmt.Sprintf("Your OTP code is %s. It will expire in %d minutes.", code, int(s.cfg.OTPTTL.Minutes())),
	})
	if err != nil {
		slog.Warn("failed to send otp", "email", email, "err", err)
		if rmErr := s.otps.Remove(ctx, email); rmErr != nil {
			slog.Warn("failed to roll back otp", "email", email, "err", rmErr)
		}
		return domain.NewError(domain.ErrDelivery, msgOTPDelivery)
	}
	return nil
}

func (s *service) allowSend(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, email)
	if err != nil {
		// Fail open.
		slog.Warn("otp limiter unavailable", "err", err)
		return nil
	}
	if !ok {
		return domain.NewError(domain.ErrRateLimited, msgTooManyOTPs)
	}
	return nil
}

func (s *service) checkPassword(pw string) error {
	if len(pw) < s.cfg.PasswordMinLength {
		return domain.NewError(domain.ErrBadRequest,
			fmt.Sprintf("Password must be at least %d characters", s.cfg.PasswordMinLength))
	}
	// bcrypt only reads the first 72 bytes.
	if len(pw) > 72 {
		return domain.NewError(domain.ErrBadRequest, "Password must be at most 72 bytes")
	}
	return nil
}

func (s *service) discardSignup(ctx context.Context, email string) {
	if err := s.otps.Remove(ctx, email); err != nil {
		slog.Warn("failed to remove otp", "email", email, "err", err)
	}
	if err := s.pending.Remove(ctx, email); err != nil {
		slog.Warn("failed to remove pending registration", "email", email, "err", err)
	}
}
