package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taratrabaho/jobboard-api/internal/application/resume"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/smtp"
	"github.com/taratrabaho/jobboard-api/internal/pkg/id"
	"github.com/taratrabaho/jobboard-api/internal/pkg/validate"
)

// Resume sources accepted by Apply.
const (
	SourceUpload = "upload"
	SourceSaved  = "saved"
)

var (
	errJobNotFound     = domain.NewError(domain.ErrNotFound, "Job not found")
	errNoCompanyEmail  = domain.NewError(domain.ErrBadRequest, "Company email not configured for this job")
	errNoResume        = domain.NewError(domain.ErrBadRequest, "No resume provided")
	errResumeNotFound  = domain.NewError(domain.ErrNotFound, "Resume not found")
	errCompanyDelivery = domain.NewError(domain.ErrDelivery, "Failed to submit application. Please try again.")
)

type Input struct {
	JobID        string `validate:"required"`
	FullName     string `validate:"required"`
	Email        string `validate:"required,email"`
	Phone        string `validate:"required"`
	CoverLetter  string
	ResumeSource string `validate:"required,oneof=upload saved"`
	ResumeID     string
	Upload       *resume.UploadInput
}

type Result struct {
	Application *domain.Application
	Message     string
}

type Service interface {
	Apply(ctx context.Context, actor domain.Actor, in Input) (*Result, error)
	ListMine(ctx context.Context, actor domain.Actor) ([]domain.Application, error)
	ListAll(ctx context.Context) ([]domain.Application, error)
	UpdateStatus(ctx context.Context, applicationID string, req domain.UpdateApplicationStatusRequest) (*domain.Application, error)
}

type jobStore interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	DecrementVacancy(ctx context.Context, jobID string) (bool, error)
}

type applicationStore interface {
	Put(ctx context.Context, a *domain.Application) error
	Get(ctx context.Context, applicationID string) (*domain.Application, error)
	SetStatus(ctx context.Context, applicationID, status string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Application, error)
	List(ctx context.Context) ([]domain.Application, error)
}

type resumeStore interface {
	Get(ctx context.Context, resumeID string) (*domain.Resume, error)
}

type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type mailer interface {
	Send(ctx context.Context, msg smtp.Message) error
}

type publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type notifier interface {
	Notify(ctx context.Context, userID, applicationID, message string) (*domain.Notification, error)
}

type service struct {
	jobs      jobStore
	apps      applicationStore
	resumes   resumeStore
	objects   objectStore
	mailer    mailer
	publisher publisher
	notifier  notifier
	now       func() time.Time
}

// ServiceDeps wires the apply service. Publisher and Notifier may be nil.
type ServiceDeps struct {
	JobRepo         jobStore
	ApplicationRepo applicationStore
	ResumeRepo      resumeStore
	Objects         objectStore
	Mailer          mailer
	Publisher       publisher
	Notifier        notifier
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		jobs:      deps.JobRepo,
		apps:      deps.ApplicationRepo,
		resumes:   deps.ResumeRepo,
		objects:   deps.Objects,
		mailer:    deps.Mailer,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		now:       deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type attachment struct {
	filename string
	data     []byte
}

func (s *service) Apply(ctx context.Context, actor domain.Actor, in Input) (*Result, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	job, err := s.jobs.Get(ctx, in.JobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if job.CompanyEmail == "" {
		return nil, errNoCompanyEmail
	}
	att, err := s.resolveResume(ctx, actor, in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app := &domain.Application{
		ApplicationID:  id.New(),
		UserID:         actor.UserID,
		JobID:          job.JobID,
		JobTitle:       job.Title,
		Company:        job.Company,
		FullName:       strings.TrimSpace(in.FullName),
		Email:          in.Email,
		Phone:          strings.TrimSpace(in.Phone),
		CoverLetter:    strings.TrimSpace(in.CoverLetter),
		ResumeFilename: att.filename,
		Status:         domain.ApplicationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	app.ResumeObject = fmt.Sprintf("applications/%s/%s", app.ApplicationID, att.filename)
	if err := s.objects.Put(ctx, app.ResumeObject, att.data, "application/pdf"); err != nil {
		return nil, err
	}
	if err := s.apps.Put(ctx, app); err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, companyMessage(job, app, att)); err != nil {
		slog.Error("failed to email company", "application_id", app.ApplicationID, "job_id", job.JobID, "err", err)
		if serr := s.apps.SetStatus(ctx, app.ApplicationID, domain.ApplicationNotifyFailed); serr != nil {
			slog.Error("failed to mark application notify_failed", "application_id", app.ApplicationID, "err", serr)
		}
		return nil, errCompanyDelivery
	}

	if err := s.mailer.Send(ctx, applicantMessage(job, app)); err != nil {
		slog.Warn("failed to send application confirmation", "application_id", app.ApplicationID, "err", err)
	}
	if s.publisher != nil {
		subject := fmt.Sprintf("[TRACKING] Application: %s -> %s", app.FullName, job.Company)
		body := fmt.Sprintf("%s <%s> applied for %s at %s (application %s).", app.FullName, app.Email, job.Title, job.Company, app.ApplicationID)
		if err := s.publisher.Publish(ctx, subject, body); err != nil {
			slog.Warn("failed to publish application notice", "application_id", app.ApplicationID, "err", err)
		}
	}
	if _, err := s.jobs.DecrementVacancy(ctx, job.JobID); err != nil {
		slog.Warn("failed to decrement vacancy", "job_id", job.JobID, "err", err)
	}

	return &Result{
		Application: app,
		Message:     fmt.Sprintf("Application sent to %s! Check your email for confirmation.", job.Company),
	}, nil
}

func (s *service) resolveResume(ctx context.Context, actor domain.Actor, in Input) (*attachment, error) {
	switch in.ResumeSource {
	case SourceUpload:
		if in.Upload == nil || len(in.Upload.Data) == 0 {
			return nil, errNoResume
		}
		if err := resume.CheckPDF(in.Upload.Data); err != nil {
			return nil, err
		}
		return &attachment{filename: resume.SanitizeFilename(in.Upload.Filename), data: in.Upload.Data}, nil
	case SourceSaved:
		if in.ResumeID == "" {
			return nil, errNoResume
		}
		r, err := s.resumes.Get(ctx, in.ResumeID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errResumeNotFound
		}
		if err != nil {
			return nil, err
		}
		if !actor.CanAccess(r.UserID) {
			return nil, domain.ErrNotOwner
		}
		data, err := s.objects.Get(ctx, r.Object)
		if err != nil {
			return nil, err
		}
		return &attachment{filename: r.Filename, data: data}, nil
	}
	return nil, errNoResume
}

func (s *service) ListMine(ctx context.Context, actor domain.Actor) ([]domain.Application, error) {
	return s.apps.ListByUser(ctx, actor.UserID)
}

func (s *service) ListAll(ctx context.Context) ([]domain.Application, error) {
	apps, err := s.apps.List(ctx)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(apps)
	return apps, nil
}

func (s *service) UpdateStatus(ctx context.Context, applicationID string, req domain.UpdateApplicationStatusRequest) (*domain.Application, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.apps.SetStatus(ctx, applicationID, req.Status); err != nil {
		return nil, err
	}
	app.Status = req.Status
	app.UpdatedAt = s.now().UTC()

	if s.notifier != nil && app.UserID != "" {
		msg := fmt.Sprintf("Your application for %s at %s is now %s.", app.JobTitle, app.Company, req.Status)
		if _, err := s.notifier.Notify(ctx, app.UserID, app.ApplicationID, msg); err != nil {
			slog.Warn("failed to create status notification", "application_id", app.ApplicationID, "err", err)
		}
	}
	return app, nil
}
