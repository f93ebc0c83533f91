package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"studentmedia/internal/config"
	"studentmedia/internal/notify"
	"studentmedia/internal/repository"
	"studentmedia/internal/storage"
	"studentmedia/internal/validation"
)

type Service struct {
	User   UserService
	Post   PostService
	Auth   AuthService
	Feed   FeedService
	Search SearchService
	Tables TablesService
}

type options struct {
	now     func() time.Time
	newCode func() (string, error)
}

type Option func(*options)

// WithClock replaces time.Now for every service.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCodeGenerator replaces the random verification code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(o *options) { o.newCode = gen }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newCode: generateCode}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// generateCode returns six decimal digits from crypto/rand, zero padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewService wires every service. store may be nil when image uploads are disabled.
func NewService(
	rep *repository.Repository,
	cfg *config.Config,
	dispatcher notify.Dispatcher,
	store storage.Storage,
	logger *zap.Logger,
	opts ...Option,
) (*Service, error) {
	validate, err := validation.New(cfg.CampusDomain)
	if err != nil {
		return nil, err
	}

	return &Service{
		User:   NewUserService(rep.User, validate, cfg),
		Post:   NewPostService(rep.Post, rep.Image, store, validate, cfg, logger, opts...),
		Auth:   NewAuthService(rep.User, rep.Verification, dispatcher, validate, cfg, logger, opts...),
		Feed:   NewFeedService(rep.Post, rep.User),
		Search: NewSearchService(rep.Post, rep.User, validate, cfg),
		Tables: NewTablesService(rep.Tables),
	}, nil
}
