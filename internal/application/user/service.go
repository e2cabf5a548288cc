package user

import (
	"context"
	"sort"

	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus  = "status"
	fieldProfile = "profile"
)

// AdminView is the row shown in the admin user table.
type AdminView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// ProfileView is a user's profile together with its account identifiers.
type ProfileView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	domain.Profile
}

type Service interface {
	List(ctx context.Context) ([]AdminView, error)
	UpdateStatus(ctx context.Context, userID string, req domain.UpdateStatusRequest) error
	GetProfile(ctx context.Context, actor domain.Actor, email string) (*ProfileView, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, email string, req domain.UpdateProfileRequest) (*ProfileView, error)
}

type userStore interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type service struct {
	repo userStore
}

type ServiceDeps struct {
	UserRepo userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.UserRepo}
}

func (s *service) List(ctx context.Context) ([]AdminView, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	// Newest accounts first; ULIDs sort by creation time.
	sort.Slice(users, func(i, j int) bool { return users[i].UserID > users[j].UserID })
	out := make([]AdminView, 0, len(users))
	for _, u := range users {
		out = append(out, AdminView{ID: u.UserID, Username: u.Username, Email: u.Email, Role: u.Role, Status: u.Status})
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, userID string, req domain.UpdateStatusRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldStatus: req.Status})
}

func (s *service) GetProfile(ctx context.Context, actor domain.Actor, email string) (*ProfileView, error) {
	u, err := s.load(ctx, actor, email)
	if err != nil {
		return nil, err
	}
	return viewOf(u), nil
}

func (s *service) UpdateProfile(ctx context.Context, actor domain.Actor, email string, req domain.UpdateProfileRequest) (*ProfileView, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, actor, email)
	if err != nil {
		return nil, err
	}
	p := u.Profile
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FirstName, req.FirstName)
	set(&p.LastName, req.LastName)
	set(&p.Gender, req.Gender)
	set(&p.Birthday, req.Birthday)
	set(&p.Address, req.Address)
	set(&p.Phone, req.Phone)
	set(&p.Bio, req.Bio)
	set(&p.Certification, req.Certification)
	set(&p.SeniorHigh, req.SeniorHigh)
	set(&p.Undergraduate, req.Undergraduate)
	set(&p.Postgraduate, req.Postgraduate)

	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldProfile: p}); err != nil {
		return nil, err
	}
	u.Profile = p
	return viewOf(u), nil
}

func (s *service) load(ctx context.Context, actor domain.Actor, email string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(u.UserID) {
		return nil, domain.ErrNotOwner
	}
	return u, nil
}

func viewOf(u *domain.User) *ProfileView {
	return &ProfileView{ID: u.UserID, Username: u.Username, Email: u.Email, Profile: u.Profile}
}
