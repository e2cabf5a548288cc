package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taratrabaho/jobboard-api/internal/config"
	"github.com/taratrabaho/jobboard-api/internal/credstore"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/smtp"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if fn, ok := args.Get(0).(func(context.Context, *domain.User) error); ok {
		return fn(ctx, u)
	}
	return args.Error(0)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) UpdatePasswordHashByEmail(ctx context.Context, email, hash string) (int64, error) {
	args := m.Called(ctx, email, hash)
	return args.Get(0).(int64), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg smtp.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// sent returns the messages passed to Send, in order.
func (m *mockMailer) sent() []smtp.Message {
	var out []smtp.Message
	for _, c := range m.Calls {
		if c.Method == "Send" {
			out = append(out, c.Arguments.Get(1).(smtp.Message))
		}
	}
	return out
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, email, role string) (string, error) {
	args := m.Called(userID, email, role)
	return args.String(0), args.Error(1)
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequence hands out "1001", "1002", ... so tests know every issued value.
func sequence(prefix string) func() (string, error) {
	var mu sync.Mutex
	n := 1000
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n), nil
	}
}

// --- builder ---

type fixture struct {
	svc     Service
	users   *mockUserStore
	mailer  *mockMailer
	signer  *mockSigner
	clock   *fakeClock
	otps    *credstore.Memory[domain.OTPRecord]
	pending *credstore.Memory[domain.PendingRegistration]
	resets  *credstore.Memory[domain.ResetToken]
}

func testCredentials() config.Credentials {
	return config.Credentials{
		OTPTTL:            5 * time.Minute,
		PendingTTL:        10 * time.Minute,
		ResetTTL:          30 * time.Minute,
		BcryptCost:        bcrypt.MinCost,
		PasswordMinLength: 6,
	}
}

func newFixture(t *testing.T, opts ...func(*ServiceDeps)) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		users:   &mockUserStore{},
		mailer:  &mockMailer{},
		signer:  &mockSigner{},
		clock:   clock,
		otps:    credstore.NewMemory[domain.OTPRecord](clock),
		pending: credstore.NewMemory[domain.PendingRegistration](clock),
		resets:  credstore.NewMemory[domain.ResetToken](clock),
	}
	deps := ServiceDeps{
		UserRepo:    f.users,
		OTPs:        f.otps,
		Pending:     f.pending,
		Resets:      f.resets,
		Mailer:      f.mailer,
		Signer:      f.signer,
		Config:      testCredentials(),
		FrontendURL: "http://localhost:5173/",
		NewCode:     sequence(""),
		NewToken:    sequence("tok-"),
		Now:         clock.Now,
	}
	for _, o := range opts {
		o(&deps)
	}
	f.svc = NewService(deps)
	return f
}

func signupReq(email string) domain.SignupRequest {
	return domain.SignupRequest{FirstName: "Juan", LastName: "Dela Cruz", Email: email, Password: "secret123"}
}

// beginSignup runs a successful signup for email; the mailed code is "1001".
func (f *fixture) beginSignup(t *testing.T, email string) {
	t.Helper()
	f.users.On("GetByEmail", mock.Anything, domain.NormalizeEmail(email)).Return(nil, domain.NewError(domain.ErrNotFound, "User not found")).Once()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	res, err := f.svc.BeginSignup(context.Background(), signupReq(email))
	require.NoError(t, err)
	require.Equal(t, "pending", res.Status)
}

func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
	if msg != "" {
		var de *domain.Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, msg, de.Message)
	}
}

// --- BeginSignup ---

func TestBeginSignup_StoresPendingAndMailsCode(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "juan@x.com").Return(nil, domain.NewError(domain.ErrNotFound, "User not found"))
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.BeginSignup(context.Background(), signupReq("  Juan@X.com "))
	require.NoError(t, err)
	assert.Equal(t, &SignupResult{Status: "pending", Email: "juan@x.com"}, res)

	reg, l, err := f.pending.Get(context.Background(), "juan@x.com")
	require.NoError(t, err)
	require.Equal(t, credstore.Present, l)
	assert.Equal(t, "juan", reg.Username)
	assert.Equal(t, domain.RoleJobSeeker, reg.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reg.PasswordHash), []byte("secret123")))

	sent := f.mailer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"juan@x.com"}, sent[0].To)
	assert.Contains(t, sent[0].Body, "1001")
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBeginSignup_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.BeginSignup(ctx, domain.SignupRequest{Password: "secret123"})
	assertKind(t, err, domain.ErrBadRequest, "")

	req := signupReq("a@x.com")
	req.Password = "short"
	_, err = f.svc.BeginSignup(ctx, req)
	assertKind(t, err, domain.ErrBadRequest, "Password must be at least 6 characters")
	assert.Equal(t, 0, f.pending.Len())
}

func TestBeginSignup_ExistingUser_Conflict(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.User{UserID: "u1"}, nil)

	_, err := f.svc.BeginSignup(context.Background(), signupReq("a@x.com"))
	assertKind(t, err, domain.ErrConflict, "Email already exists")
	assert.Equal(t, 0, f.pending.Len())
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestBeginSignup_DeliveryFailure_RollsBack(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.NewError(domain.ErrNotFound, "User not found"))
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := f.svc.BeginSignup(context.Background(), signupReq("a@x.com"))
	assertKind(t, err, domain.ErrDelivery, "Failed to send OTP")
	assert.Equal(t, 0, f.pending.Len(), "pending registration rolled back")
	assert.Equal(t, 0, f.otps.Len(), "otp rolled back")
}

func TestBeginSignup_RateLimited(t *testing.T) {
	f := newFixture(t, func(d *ServiceDeps) { d.Limiter = denyLimiter{} })
	f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.NewError(domain.ErrNotFound, "User not found"))

	_, err := f.svc.BeginSignup(context.Background(), signupReq("a@x.com"))
	assertKind(t, err, domain.ErrRateLimited, "")
	assert.Equal(t, 0, f.pending.Len())
	assert.Equal(t, 0, f.otps.Len())
}

// --- SendOTP ---

func TestSendOTP_NoPending(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SendOTP(context.Background(), "nobody@x.com")
	assertKind(t, err, domain.ErrNotFound, "No pending signup found for this email")
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendOTP_DeliveryFailure_KeepsPending(t *testing.T) {
	f := newFixture(t)
	f.beginSignup(t, "a@x.com")
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	err := f.svc.SendOTP(context.Background(), "a@x.com")
	assertKind(t, err, domain.ErrDelivery, "")
	assert.Equal(t, 0, f.otps.Len())
	assert.Equal(t, 1, f.pending.Len())
}

func TestSendOTP_ResendInvalidatesPreviousCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com") // code 1001
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, f.svc.SendOTP(ctx, "a@x.com")) // code 1002

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	assertKind(t, err, domain.ErrMismatch, "Invalid OTP")

	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	f.signer.On("Sign", mock.Anything, "a@x.com", domain.RoleJobSeeker).Return("jwt", nil)
	res, err := f.svc.VerifyOTP(ctx, "a@x.com", "1002")
	require.NoError(t, err)
	assert.NotEmpty(t, res.UserID)
}

func TestSendOTP_RepeatedResendsAlwaysKeepLatest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	for i := 0; i < 4; i++ {
		require.NoError(t, f.svc.SendOTP(ctx, "a@x.com"))
	}
	rec, l, err := f.otps.Get(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, credstore.Present, l)
	assert.Equal(t, "1005", rec.Code)
	assert.Equal(t, 1, f.otps.Len())
}

// --- VerifyOTP ---

func TestVerifyOTP_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")

	var created *domain.User
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	f.signer.On("Sign", mock.Anything, "a@x.com", domain.RoleJobSeeker).Return("jwt", nil)

	res, err := f.svc.VerifyOTP(ctx, "A@x.com", "1001")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created.UserID, res.UserID)
	assert.Equal(t, "jwt", res.Token)
	assert.True(t, created.Verified)
	assert.Equal(t, domain.UserStatusActive, created.Status)
	assert.Equal(t, domain.AuthProviderLocal, created.AuthProvider)
	assert.Equal(t, "Juan", created.Profile.FirstName)
	assert.Equal(t, 0, f.otps.Len())
	assert.Equal(t, 0, f.pending.Len())
}

func TestVerifyOTP_NoOTPSent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyOTP(context.Background(), "a@x.com", "1234")
	assertKind(t, err, domain.ErrBadRequest, "No OTP sent for this email")
}

func TestVerifyOTP_MissingFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyOTP(context.Background(), "a@x.com", " ")
	assertKind(t, err, domain.ErrBadRequest, "Email and OTP are required")
}

func TestVerifyOTP_ExpiredIsRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")

	f.clock.Advance(5*time.Minute + time.Nanosecond)
	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	assertKind(t, err, domain.ErrExpired, "OTP expired")

	_, err = f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	assertKind(t, err, domain.ErrBadRequest, "No OTP sent for this email")
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyOTP_AtExactExpiryStillValid(t *testing.T) {
	f := newFixture(t, func(d *ServiceDeps) { d.Signer = nil })
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)

	f.clock.Advance(5 * time.Minute)
	res, err := f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	require.NoError(t, err)
	assert.Empty(t, res.Token, "no signer configured")
}

func TestVerifyOTP_MismatchKeepsRecord(t *testing.T) {
	f := newFixture(t, func(d *ServiceDeps) { d.Signer = nil })
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "9999")
	assertKind(t, err, domain.ErrMismatch, "Invalid OTP")
	assert.Equal(t, 1, f.otps.Len())

	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	_, err = f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	assert.NoError(t, err)
}

func TestVerifyOTP_PendingExpiredBeforeOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")

	// Resend late so the OTP is fresh but the pending registration lapses.
	f.clock.Advance(8 * time.Minute)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, f.svc.SendOTP(ctx, "a@x.com")) // code 1002
	f.clock.Advance(3 * time.Minute)

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "1002")
	assertKind(t, err, domain.ErrExpired, "Signup session expired. Please sign up again.")
	assert.Equal(t, 0, f.pending.Len())
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyOTP_PendingMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.otps.Put(ctx, "a@x.com", domain.OTPRecord{Code: "4321"}, 5*time.Minute))

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "4321")
	assertKind(t, err, domain.ErrExpired, "Signup session expired. Please sign up again.")
}

func TestVerifyOTP_NoUserBeforeVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")

	_, _ = f.svc.VerifyOTP(ctx, "a@x.com", "0000")
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyOTP_ConflictKeepsRecordsByDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")
	f.users.On("Create", mock.Anything, mock.Anything).Return(domain.NewError(domain.ErrConflict, "Email already exists"))

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	assertKind(t, err, domain.ErrConflict, "Email already exists")
	assert.Equal(t, 1, f.otps.Len())
	assert.Equal(t, 1, f.pending.Len())
}

func TestVerifyOTP_ConflictCleansUpWhenConfigured(t *testing.T) {
	f := newFixture(t, func(d *ServiceDeps) { d.Config.CleanupOnConflict = true })
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")
	f.users.On("Create", mock.Anything, mock.Anything).Return(domain.NewError(domain.ErrConflict, "Email already exists"))

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	assertKind(t, err, domain.ErrConflict, "")
	assert.Equal(t, 0, f.otps.Len())
	assert.Equal(t, 0, f.pending.Len())
}

func TestVerifyOTP_PersistenceErrorKeepsRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")
	f.users.On("Create", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	_, err := f.svc.VerifyOTP(ctx, "a@x.com", "1001")
	require.Error(t, err)
	assert.Equal(t, 1, f.otps.Len())
	assert.Equal(t, 1, f.pending.Len())
}

func TestVerifyOTP_ConcurrentLoserGetsConflict(t *testing.T) {
	f := newFixture(t, func(d *ServiceDeps) { d.Signer = nil })
	ctx := context.Background()
	f.beginSignup(t, "a@x.com")

	var mu sync.Mutex
	claimed := false
	f.users.On("Create", mock.Anything, mock.Anything).Return(func(context.Context, *domain.User) error {
		mu.Lock()
		defer mu.Unlock()
		if claimed {
			return domain.NewError(domain.ErrConflict, "Email already exists")
		}
		claimed = true
		return nil
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.VerifyOTP(ctx, "a@x.com", "1001")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrExpired):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
}

// --- RequestReset ---

func TestRequestReset_NonLeaking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, domain.NewError(domain.ErrNotFound, "User not found"))
	f.users.On("GetByEmail", mock.Anything, "oauth@x.com").Return(&domain.User{UserID: "u2", Email: "oauth@x.com"}, nil)
	f.users.On("GetByEmail", mock.Anything, "real@x.com").Return(&domain.User{UserID: "u3", Email: "real@x.com", PasswordHash: "h"}, nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	for _, email := range []string{"ghost@x.com", "oauth@x.com", "Real@X.com"} {
		assert.NoError(t, f.svc.RequestReset(ctx, email), email)
	}

	sent := f.mailer.sent()
	require.Len(t, sent, 1, "only the resettable account receives mail")
	assert.Equal(t, []string{"real@x.com"}, sent[0].To)
	assert.Contains(t, sent[0].Body, "http://localhost:5173/reset-password/tok-1001")
	assert.Equal(t, 1, f.resets.Len())
}

func TestRequestReset_DeliveryFailureRemovesToken(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "real@x.com").Return(&domain.User{UserID: "u3", Email: "real@x.com", PasswordHash: "h"}, nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	assert.NoError(t, f.svc.RequestReset(context.Background(), "real@x.com"))
	assert.Equal(t, 0, f.resets.Len())
}

func TestRequestReset_LookupFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("dynamo down"))
	assert.Error(t, f.svc.RequestReset(context.Background(), "a@x.com"))
}

// --- VerifyResetToken / ConsumeReset ---

func (f *fixture) issueReset(t *testing.T) string {
	t.Helper()
	f.users.On("GetByEmail", mock.Anything, "real@x.com").Return(&domain.User{UserID: "u3", Email: "real@x.com", PasswordHash: "h"}, nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.RequestReset(context.Background(), "real@x.com"))
	return "tok-1001"
}

func TestVerifyResetToken_DoesNotConsume(t *testing.T) {
	f := newFixture(t)
	tok := f.issueReset(t)

	for i := 0; i < 2; i++ {
		email, err := f.svc.VerifyResetToken(context.Background(), tok)
		require.NoError(t, err)
		assert.Equal(t, "real@x.com", email)
	}
	assert.Equal(t, 1, f.resets.Len())
}

func TestVerifyResetToken_Expired(t *testing.T) {
	f := newFixture(t)
	tok := f.issueReset(t)
	f.clock.Advance(30*time.Minute + time.Second)

	_, err := f.svc.VerifyResetToken(context.Background(), tok)
	assertKind(t, err, domain.ErrExpired, "Invalid or expired reset link. Please request a new one.")
	assert.Equal(t, 0, f.resets.Len())
}

func TestVerifyResetToken_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyResetToken(context.Background(), "nope")
	assertKind(t, err, domain.ErrBadRequest, "Invalid or expired reset link. Please request a new one.")
}

func TestConsumeReset_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.issueReset(t)
	f.users.On("UpdatePasswordHashByEmail", mock.Anything, "real@x.com", mock.AnythingOfType("string")).Return(int64(1), nil)

	require.NoError(t, f.svc.ConsumeReset(ctx, tok, "newpass1"))
	err := f.svc.ConsumeReset(ctx, tok, "newpass2")
	assertKind(t, err, domain.ErrBadRequest, "Invalid or expired reset link. Please request a new one.")
	f.users.AssertNumberOfCalls(t, "UpdatePasswordHashByEmail", 1)

	hash := f.users.Calls[len(f.users.Calls)-1].Arguments.String(2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpass1")))

	sent := f.mailer.sent()
	require.Len(t, sent, 2)
	assert.True(t, strings.Contains(sent[1].Subject, "password was changed"))
}

func TestConsumeReset_ShortPassword(t *testing.T) {
	f := newFixture(t)
	tok := f.issueReset(t)

	err := f.svc.ConsumeReset(context.Background(), tok, "12345")
	assertKind(t, err, domain.ErrBadRequest, "Password must be at least 6 characters")
	assert.Equal(t, 1, f.resets.Len(), "token survives a rejected password")
}

func TestConsumeReset_UserGone(t *testing.T) {
	f := newFixture(t)
	tok := f.issueReset(t)
	f.users.On("UpdatePasswordHashByEmail", mock.Anything, "real@x.com", mock.Anything).Return(int64(0), nil)

	err := f.svc.ConsumeReset(context.Background(), tok, "newpass1")
	assertKind(t, err, domain.ErrNotFound, "User not found")
	assert.Equal(t, 0, f.resets.Len(), "token consumed even when no row changed")
}

func TestConsumeReset_ConfirmationFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users.On("GetByEmail", mock.Anything, "real@x.com").Return(&domain.User{UserID: "u3", Email: "real@x.com", PasswordHash: "h"}, nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, f.svc.RequestReset(ctx, "real@x.com"))
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	f.users.On("UpdatePasswordHashByEmail", mock.Anything, "real@x.com", mock.Anything).Return(int64(1), nil)

	assert.NoError(t, f.svc.ConsumeReset(ctx, "tok-1001", "newpass1"))
}

func TestConsumeReset_Expired(t *testing.T) {
	f := newFixture(t)
	tok := f.issueReset(t)
	f.clock.Advance(31 * time.Minute)

	err := f.svc.ConsumeReset(context.Background(), tok, "newpass1")
	assertKind(t, err, domain.ErrExpired, "")
	f.users.AssertNotCalled(t, "UpdatePasswordHashByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumeReset_ConcurrentCallsChangePasswordOnce(t *testing.T) {
	f := newFixture(t)
	tok := f.issueReset(t)
	f.users.On("UpdatePasswordHashByEmail", mock.Anything, "real@x.com", mock.Anything).Return(int64(1), nil)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.ConsumeReset(context.Background(), tok, fmt.Sprintf("newpass%d", i))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assertKind(t, err, domain.ErrBadRequest, "Invalid or expired reset link. Please request a new one.")
	}
	assert.Equal(t, 1, ok)
	f.users.AssertNumberOfCalls(t, "UpdatePasswordHashByEmail", 1)
	assert.Equal(t, 0, f.resets.Len())
}
