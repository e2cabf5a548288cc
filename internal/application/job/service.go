package job

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/pkg/id"
	"github.com/taratrabaho/jobboard-api/internal/pkg/validate"
)

const postedLayout = "2006-01-02"

type Service interface {
	List(ctx context.Context) ([]domain.Job, error)
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	Create(ctx context.Context, in domain.JobInput) (*domain.Job, error)
	Update(ctx context.Context, jobID string, in domain.JobInput) (*domain.Job, error)
	Delete(ctx context.Context, jobID string) error
}

type jobStore interface {
	Put(ctx context.Context, j *domain.Job) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
	Update(ctx context.Context, jobID string, updates map[string]interface{}) error
	Delete(ctx context.Context, jobID string) error
}

type service struct {
	repo jobStore
	now  func() time.Time
}

type ServiceDeps struct {
	JobRepo jobStore
	Now     func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.JobRepo, now: deps.Now}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// List returns all jobs, most recently posted first.
func (s *service) List(ctx context.Context) ([]domain.Job, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(jobs)
	return jobs, nil
}

func (s *service) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.repo.Get(ctx, jobID)
}

func (s *service) Create(ctx context.Context, in domain.JobInput) (*domain.Job, error) {
	in = clean(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := s.now()
	j := &domain.Job{
		JobID:        id.New(),
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		MinSalary:    in.MinSalary,
		MaxSalary:    in.MaxSalary,
		VacantLeft:   in.VacantLeft,
		Company:      in.Company,
		CompanyEmail: in.CompanyEmail,
		Type:         in.Type,
		Posted:       now.Format(postedLayout),
		Tags:         in.Tags,
		Remote:       in.Remote,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *service) Update(ctx context.Context, jobID string, in domain.JobInput) (*domain.Job, error) {
	in = clean(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, jobID, map[string]interface{}{
		"title":         in.Title,
		"description":   in.Description,
		"location":      in.Location,
		"min_salary":    in.MinSalary,
		"max_salary":    in.MaxSalary,
		"vacant_left":   in.VacantLeft,
		"company":       in.Company,
		"company_email": in.CompanyEmail,
		"type":          in.Type,
		"tags":          in.Tags,
		"remote":        in.Remote,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, jobID)
}

func (s *service) Delete(ctx context.Context, jobID string) error {
	return s.repo.Delete(ctx, jobID)
}

// SortNewestFirst orders jobs by posting date, then by id, newest first.
func SortNewestFirst(jobs []domain.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Posted != jobs[j].Posted {
			return jobs[i].Posted > jobs[j].Posted
		}
		return jobs[i].JobID > jobs[j].JobID
	})
}

func clean(in domain.JobInput) domain.JobInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	in.CompanyEmail = domain.NormalizeEmail(in.CompanyEmail)
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return in
}
