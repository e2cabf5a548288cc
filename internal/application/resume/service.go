package resume

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/pkg/id"
)

const pdfType = "application/pdf"

type UploadInput struct {
	Filename string
	Data     []byte
}

type Service interface {
	Save(ctx context.Context, actor domain.Actor, in UploadInput) (*domain.Resume, error)
	List(ctx context.Context, actor domain.Actor, userID string) ([]domain.Resume, error)
	Download(ctx context.Context, actor domain.Actor, resumeID string) (*domain.Resume, []byte, error)
	Delete(ctx context.Context, actor domain.Actor, resumeID string) error
}

type resumeStore interface {
	Put(ctx context.Context, r *domain.Resume) error
	Get(ctx context.Context, resumeID string) (*domain.Resume, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Resume, error)
	Delete(ctx context.Context, resumeID string) error
}

type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    resumeStore
	objects objectStore
}

type ServiceDeps struct {
	ResumeRepo resumeStore
	Objects    objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.ResumeRepo, objects: deps.Objects}
}

func (s *service) Save(ctx context.Context, actor domain.Actor, in UploadInput) (*domain.Resume, error) {
	if actor.UserID == "" {
		return nil, domain.NewError(domain.ErrUnauthorized, "Unauthorized")
	}
	if err := CheckPDF(in.Data); err != nil {
		return nil, err
	}
	resumeID := id.New()
	key := fmt.Sprintf("resumes/%s/%s.pdf", actor.UserID, resumeID)
	if err := s.objects.Put(ctx, key, in.Data, pdfType); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(in.Data)
	r := &domain.Resume{
		ResumeID:  resumeID,
		UserID:    actor.UserID,
		Filename:  SanitizeFilename(in.Filename),
		Object:    key,
		Size:      int64(len(in.Data)),
		Hash:      hex.EncodeToString(sum[:]),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, r); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to remove orphaned resume object", "key", key, "err", delErr)
		}
		return nil, err
	}
	return r, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, userID string) ([]domain.Resume, error) {
	if !actor.CanAccess(userID) {
		return nil, domain.ErrNotOwner
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Download(ctx context.Context, actor domain.Actor, resumeID string) (*domain.Resume, []byte, error) {
	r, err := s.owned(ctx, actor, resumeID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.objects.Get(ctx, r.Object)
	if err != nil {
		return nil, nil, err
	}
	return r, data, nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, resumeID string) error {
	r, err := s.owned(ctx, actor, resumeID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, resumeID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, r.Object); err != nil {
		slog.Warn("failed to delete resume object", "key", r.Object, "err", err)
	}
	return nil
}

func (s *service) owned(ctx context.Context, actor domain.Actor, resumeID string) (*domain.Resume, error) {
	r, err := s.repo.Get(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(r.UserID) {
		return nil, domain.ErrNotOwner
	}
	return r, nil
}

// CheckPDF rejects empty, oversized and non-PDF uploads. The type is sniffed
// from content, not taken from the client.
func CheckPDF(data []byte) error {
	if len(data) == 0 {
		return domain.NewError(domain.ErrBadRequest, "No file uploaded")
	}
	if len(data) > domain.MaxResumeSize {
		return domain.NewError(domain.ErrBadRequest, "File too large. Maximum size is 5MB.")
	}
	if !mimetype.Detect(data).Is(pdfType) {
		return domain.NewError(domain.ErrBadRequest, "Only PDF files are allowed")
	}
	return nil
}

// SanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) so names are safe in S3 keys and headers.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	result := b.String()
	if result == "" || result == "." || result == "_" {
		result = "resume"
	}
	if !strings.HasSuffix(strings.ToLower(result), ".pdf") {
		result += ".pdf"
	}
	return result
}
