package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studentmedia/internal/config"
	"studentmedia/internal/models"
	"studentmedia/internal/notify"
	"studentmedia/internal/repository"
	"studentmedia/internal/repository/memory"
	"studentmedia/internal/storage"
)

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

type captureDispatcher struct {
	mu   sync.Mutex
	msgs []notify.VerificationMessage
}

func (d *captureDispatcher) Dispatch(_ context.Context, msg notify.VerificationMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func (d *captureDispatcher) last(t *testing.T) notify.VerificationMessage {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.msgs)
	return d.msgs[len(d.msgs)-1]
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.msgs)
}

type testEnv struct {
	svc        *Service
	repo       *repository.Repository
	clock      *fakeClock
	dispatcher *captureDispatcher
	cfg        *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		CampusDomain:        "@ritrjpm.ac.in",
		JWTSecretKey:        "test-secret",
		AccessTokenDuration: 24 * time.Hour,
		VerificationCodeTTL: 15 * time.Minute,
		MaxUploadSize:       1 << 20,
	}
}

func newTestEnv(t *testing.T, store storage.Storage, opts ...Option) *testEnv {
	t.Helper()

	cfg := testConfig()
	repo := memory.New().Repository()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	dispatcher := &captureDispatcher{}

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	svc, err := NewService(repo, cfg, dispatcher, store, zap.NewNop(), opts...)
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, clock: clock, dispatcher: dispatcher, cfg: cfg}
}

func registerRequest(email string) RegisterRequest {
	return RegisterRequest{
		Name:       "Asha Kumar",
		Email:      email,
		Password:   "secret123",
		Department: "CSE",
		Year:       2,
		RollNumber: "21CS001",
	}
}

// verifiedUser registers, verifies and returns the stored user.
func (e *testEnv) verifiedUser(t *testing.T, email, department string, year int) *models.User {
	t.Helper()
	ctx := context.Background()

	req := registerRequest(email)
	req.Department = department
	req.Year = year

	user, err := e.svc.Auth.Register(ctx, req)
	require.NoError(t, err)
	require.NoError(t, e.svc.Auth.VerifyEmail(ctx, email, e.dispatcher.last(t).Code))

	user.IsVerified = true
	return user
}

func (e *testEnv) post(t *testing.T, userID, content string, tags ...string) *models.Post {
	t.Helper()
	post, err := e.svc.Post.CreatePost(context.Background(), userID, CreatePostRequest{Content: content, Tags: tags})
	require.NoError(t, err)
	return post
}
