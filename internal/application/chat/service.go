package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/pkg/id"
)

var errChatDataRequired = domain.NewError(domain.ErrBadRequest, "chatData is required")

type Service interface {
	Save(ctx context.Context, actor domain.Actor, in domain.ChatInput) (*domain.Chat, error)
	Update(ctx context.Context, actor domain.Actor, chatID string, in domain.ChatInput) (*domain.Chat, error)
	History(ctx context.Context, actor domain.Actor, userID string) ([]domain.Chat, error)
	Delete(ctx context.Context, actor domain.Actor, chatID string) error
}

type chatStore interface {
	Put(ctx context.Context, c *domain.Chat) error
	Get(ctx context.Context, chatID string) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Chat, error)
	Delete(ctx context.Context, chatID string) error
}

type service struct {
	repo chatStore
	now  func() time.Time
}

type ServiceDeps struct {
	ChatRepo chatStore
	Now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.ChatRepo, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Save(ctx context.Context, actor domain.Actor, in domain.ChatInput) (*domain.Chat, error) {
	if isEmpty(in.ChatData) {
		return nil, errChatDataRequired
	}
	c := &domain.Chat{
		ChatID:   id.New(),
		UserID:   actor.UserID,
		ChatData: in.ChatData,
	}
	s.setResume(c, in.ResumeData)
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, actor domain.Actor, chatID string, in domain.ChatInput) (*domain.Chat, error) {
	if isEmpty(in.ChatData) {
		return nil, errChatDataRequired
	}
	c, err := s.owned(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	c.ChatData = in.ChatData
	s.setResume(c, in.ResumeData)
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) History(ctx context.Context, actor domain.Actor, userID string) ([]domain.Chat, error) {
	if !actor.CanAccess(userID) {
		return nil, domain.ErrNotOwner
	}
	return s.repo.ListByUser(ctx, userID, domain.ChatHistoryLimit)
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, chatID string) error {
	if _, err := s.owned(ctx, actor, chatID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, chatID)
}

func (s *service) owned(ctx context.Context, actor domain.Actor, chatID string) (*domain.Chat, error) {
	c, err := s.repo.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(c.UserID) {
		return nil, domain.ErrNotOwner
	}
	return c, nil
}

func (s *service) setResume(c *domain.Chat, resume json.RawMessage) {
	c.Timestamp = s.now().UTC()
	if isEmpty(resume) {
		c.ResumeData = nil
		c.HasResume = false
		return
	}
	c.ResumeData = resume
	c.HasResume = true
}

func isEmpty(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
