package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/google"
	jwtinfra "github.com/taratrabaho/jobboard-api/internal/infrastructure/jwt"
	"github.com/taratrabaho/jobboard-api/internal/pkg/id"
	"github.com/taratrabaho/jobboard-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const fieldGoogleSub = "google_sub"

// ErrSuspended is returned when a suspended account tries to sign in.
var ErrSuspended = domain.NewError(domain.ErrForbidden, "Your account has been suspended. Please contact support.")

var (
	errInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "Invalid email or password")
	errUnverified         = domain.NewError(domain.ErrForbidden, "Please verify your email before logging in")
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// UserView is the public projection of a signed-in user.
type UserView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Role      string `json:"role"`
}

func ViewOf(u *domain.User) UserView {
	return UserView{
		ID:        u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.Profile.FirstName,
		LastName:  u.Profile.LastName,
		Role:      u.Role,
	}
}

type LoginResult struct {
	Token string
	User  UserView
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, req GoogleLoginRequest) (*LoginResult, error)
	VerifyToken(ctx context.Context, token string) (*jwtinfra.Claims, error)
	Me(ctx context.Context, userID string) (*UserView, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenProvider interface {
	Sign(userID, email, role string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, credential string) (*google.Payload, error)
}

type service struct {
	users  userStore
	tokens tokenProvider
	google googleVerifier
}

// ServiceDeps wires the session service. Google is optional; without it
// LoginWithGoogle reports that Google sign-in is unavailable.
type ServiceDeps struct {
	UserRepo userStore
	Tokens   tokenProvider
	Google   googleVerifier
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.UserRepo, tokens: deps.Tokens, google: deps.Google}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewError(domain.ErrBadRequest, "Email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	// Google-only accounts have no password to compare against.
	if !u.HasPassword() {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if u.Status == domain.UserStatusSuspended {
		return nil, ErrSuspended
	}
	if !u.Verified {
		return nil, errUnverified
	}
	return s.issue(u)
}

func (s *service) LoginWithGoogle(ctx context.Context, req GoogleLoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, domain.NewError(domain.ErrBadRequest, "Google credential is required")
	}
	if s.google == nil {
		return nil, errors.New("google sign-in is not configured")
	}
	p, err := s.google.Verify(ctx, req.Credential)
	if err != nil {
		return nil, domain.NewError(domain.ErrUnauthorized, "Invalid Google credential")
	}
	if p.Email == "" || !p.EmailVerified {
		return nil, domain.NewError(domain.ErrUnauthorized, "Google account email is not verified")
	}

	u, err := s.users.GetByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if u.GoogleSub == "" {
			if err := s.users.Update(ctx, u.UserID, map[string]interface{}{fieldGoogleSub: p.Sub}); err != nil {
				slog.Warn("failed to link google account", "user_id", u.UserID, "err", err)
			}
			u.GoogleSub = p.Sub
		}
	case errors.Is(err, domain.ErrNotFound):
		u, err = s.createGoogleUser(ctx, p)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if u.Status == domain.UserStatusSuspended {
		return nil, ErrSuspended
	}
	return s.issue(u)
}

func (s *service) createGoogleUser(ctx context.Context, p *google.Payload) (*domain.User, error) {
	now := time.Now().UTC()
	username := p.FirstName
	if username == "" {
		username = p.Email
	}
	u := &domain.User{
		UserID:       id.New(),
		Username:     username,
		Email:        p.Email,
		Role:         domain.RoleJobSeeker,
		Status:       domain.UserStatusActive,
		Verified:     true,
		AuthProvider: domain.AuthProviderGoogle,
		GoogleSub:    p.Sub,
		Profile:      domain.Profile{FirstName: p.FirstName, LastName: p.LastName},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.users.Create(ctx, u)
	if errors.Is(err, domain.ErrConflict) {
		// Another request created the account first.
		return s.users.GetByEmail(ctx, p.Email)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) VerifyToken(_ context.Context, token string) (*jwtinfra.Claims, error) {
	if s.tokens == nil || token == "" {
		return nil, domain.NewError(domain.ErrUnauthorized, "Invalid token")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.NewError(domain.ErrUnauthorized, "Invalid token")
	}
	return claims, nil
}

func (s *service) Me(ctx context.Context, userID string) (*UserView, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := ViewOf(u)
	return &v, nil
}

func (s *service) issue(u *domain.User) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, errors.New("token provider is not configured")
	}
	tok, err := s.tokens.Sign(u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: tok, User: ViewOf(u)}, nil
}
