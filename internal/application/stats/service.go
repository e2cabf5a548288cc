package stats

import (
	"context"

	"github.com/taratrabaho/jobboard-api/internal/domain"
	"golang.org/x/sync/errgroup"
)

type UserStats struct {
	Applications int `json:"applications"`
	Resumes      int `json:"resumes"`
	Matches      int `json:"matches"`
}

type Breakdown struct {
	Total int            `json:"total"`
	By    map[string]int `json:"by"`
}

type Dashboard struct {
	Users        Breakdown `json:"users"`
	Jobs         Breakdown `json:"jobs"`
	Applications Breakdown `json:"applications"`
}

type Service interface {
	ForUser(ctx context.Context, actor domain.Actor, userID string) (*UserStats, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type userStore interface {
	List(ctx context.Context) ([]domain.User, error)
}

type jobStore interface {
	List(ctx context.Context) ([]domain.Job, error)
}

type applicationStore interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	List(ctx context.Context) ([]domain.Application, error)
}

type resumeStore interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

type chatStore interface {
	CountWithResume(ctx context.Context, userID string) (int, error)
}

type service struct {
	users   userStore
	jobs    jobStore
	apps    applicationStore
	resumes resumeStore
	chats   chatStore
}

type ServiceDeps struct {
	UserRepo        userStore
	JobRepo         jobStore
	ApplicationRepo applicationStore
	ResumeRepo      resumeStore
	ChatRepo        chatStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:   deps.UserRepo,
		jobs:    deps.JobRepo,
		apps:    deps.ApplicationRepo,
		resumes: deps.ResumeRepo,
		chats:   deps.ChatRepo,
	}
}

// ForUser counts a user's applications, their resumes (uploads plus
// builder chats with resume data) and the currently open jobs.
func (s *service) ForUser(ctx context.Context, actor domain.Actor, userID string) (*UserStats, error) {
	if !actor.CanAccess(userID) {
		return nil, domain.ErrNotOwner
	}
	var apps, uploads, built int
	var jobs []domain.Job
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { apps, err = s.apps.CountByUser(ctx, userID); return })
	g.Go(func() (err error) { uploads, err = s.resumes.CountByUser(ctx, userID); return })
	g.Go(func() (err error) { built, err = s.chats.CountWithResume(ctx, userID); return })
	g.Go(func() (err error) { jobs, err = s.jobs.List(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	open := 0
	for _, j := range jobs {
		if j.VacantLeft > 0 {
			open++
		}
	}
	return &UserStats{Applications: apps, Resumes: uploads + built, Matches: open}, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var users []domain.User
	var jobs []domain.Job
	var apps []domain.Application
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = s.users.List(ctx); return })
	g.Go(func() (err error) { jobs, err = s.jobs.List(ctx); return })
	g.Go(func() (err error) { apps, err = s.apps.List(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Users:        breakdown(len(users)),
		Jobs:         breakdown(len(jobs)),
		Applications: breakdown(len(apps)),
	}
	for _, u := range users {
		d.Users.By[u.Status]++
	}
	for _, j := range jobs {
		d.Jobs.By[j.Type]++
	}
	for _, a := range apps {
		d.Applications.By[a.Status]++
	}
	return d, nil
}

func breakdown(total int) Breakdown {
	return Breakdown{Total: total, By: map[string]int{}}
}
