package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taratrabaho/jobboard-api/internal/domain"
)

type mockChatStore struct{ mock.Mock }

func (m *mockChatStore) Put(ctx context.Context, c *domain.Chat) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockChatStore) Get(ctx context.Context, chatID string) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if c, _ := args.Get(0).(*domain.Chat); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockChatStore) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Chat, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]domain.Chat), args.Error(1)
}
func (m *mockChatStore) Delete(ctx context.Context, chatID string) error {
	return m.Called(ctx, chatID).Error(0)
}

var (
	fixedNow = time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)
	owner    = domain.Actor{UserID: "u1", Role: domain.RoleJobSeeker}
	other    = domain.Actor{UserID: "u2", Role: domain.RoleJobSeeker}
	admin    = domain.Actor{UserID: "a1", Role: domain.RoleAdmin}
)

func newService(repo *mockChatStore) Service {
	return NewService(ServiceDeps{ChatRepo: repo, Now: func() time.Time { return fixedNow }})
}

func TestSave_WithResume(t *testing.T) {
	repo := &mockChatStore{}
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Chat")).Return(nil)

	c, err := newService(repo).Save(context.Background(), owner, domain.ChatInput{
		ChatData:   json.RawMessage(`[{"role":"user","text":"hi"}]`),
		ResumeData: json.RawMessage(`{"skills":["go"]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.True(t, c.HasResume)
	assert.Equal(t, fixedNow, c.Timestamp)
	assert.NotEmpty(t, c.ChatID)
}

func TestSave_NullResumeIsNoResume(t *testing.T) {
	repo := &mockChatStore{}
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	c, err := newService(repo).Save(context.Background(), owner, domain.ChatInput{
		ChatData:   json.RawMessage(`[]`),
		ResumeData: json.RawMessage(`null`),
	})
	require.NoError(t, err)
	assert.False(t, c.HasResume)
	assert.Nil(t, c.ResumeData)
}

func TestSave_RequiresChatData(t *testing.T) {
	_, err := newService(&mockChatStore{}).Save(context.Background(), owner, domain.ChatInput{})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_OwnerOnly(t *testing.T) {
	repo := &mockChatStore{}
	repo.On("Get", mock.Anything, "c1").Return(&domain.Chat{ChatID: "c1", UserID: "u1"}, nil)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	svc := newService(repo)
	in := domain.ChatInput{ChatData: json.RawMessage(`["x"]`)}

	_, err := svc.Update(context.Background(), other, "c1", in)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	c, err := svc.Update(context.Background(), owner, "c1", in)
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(c.ChatData))
	repo.AssertNumberOfCalls(t, "Put", 1)
}

func TestHistory_CapsAtLimit(t *testing.T) {
	repo := &mockChatStore{}
	repo.On("ListByUser", mock.Anything, "u1", domain.ChatHistoryLimit).Return([]domain.Chat{{ChatID: "c1"}}, nil)
	svc := newService(repo)

	_, err := svc.History(context.Background(), other, "u1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	chats, err := svc.History(context.Background(), admin, "u1")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestDelete_Missing(t *testing.T) {
	repo := &mockChatStore{}
	repo.On("Get", mock.Anything, "nope").Return(nil, domain.NewError(domain.ErrNotFound, "Chat not found"))

	err := newService(repo).Delete(context.Background(), owner, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
