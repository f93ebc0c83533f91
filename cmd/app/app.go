package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studentmedia/internal/apperr"
	"studentmedia/internal/config"
	"studentmedia/internal/database"
	handlers "studentmedia/internal/handler"
	"studentmedia/internal/middleware"
	"studentmedia/internal/notify"
	"studentmedia/internal/repository"
	"studentmedia/internal/repository/memory"
	"studentmedia/internal/service"
	"studentmedia/internal/storage"
)

// App holds every long-lived dependency of the API process.
type App struct {
	Cfg      *config.Config
	Logger   *zap.Logger
	Repo     *repository.Repository
	Service  *service.Service
	Handlers *handlers.Handlers

	closers []func()
}

// New connects the configured backends and wires the services.
// Optional backends (Redis, RabbitMQ, MinIO) are skipped when their address is empty.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...service.Option) (*App, error) {
	a := &App{Cfg: cfg, Logger: logger}

	rdb, err := a.connectRedis(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	repo, err := a.buildRepository(rdb)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	dispatcher, err := a.buildDispatcher()
	if err != nil {
		a.Close()
		return nil, err
	}

	var store storage.Storage
	if cfg.MinIO.Endpoint != "" {
		minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		store = minioClient
	} else {
		logger.Info("MinIO endpoint not set, image uploads disabled")
	}

	services, err := service.NewService(repo, cfg, dispatcher, store, logger, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = services
	a.Handlers = handlers.NewHandlers(services, cfg, logger)

	return a, nil
}

func (a *App) connectRedis(ctx context.Context) (*redis.Client, error) {
	if a.Cfg.Redis.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.Cfg.Redis.Addr,
		Password: a.Cfg.Redis.Password,
		DB:       a.Cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.closers = append(a.closers, func() { _ = rdb.Close() })
	a.Logger.Info("verification codes stored in redis", zap.String("addr", a.Cfg.Redis.Addr))
	return rdb, nil
}

func (a *App) buildRepository(rdb *redis.Client) (*repository.Repository, error) {
	if a.Cfg.StorageDriver == config.StorageDriverMemory {
		repo := memory.New().Repository()
		if rdb != nil {
			repo.Verification = repository.NewRedisVerificationRepository(rdb)
		}
		a.Logger.Warn("using in-memory storage, data is lost on restart")
		return repo, nil
	}

	db, err := database.ConnectDB(a.Cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.CloseDB() })

	return repository.NewRepository(db.DB, rdb), nil
}

func (a *App) buildDispatcher() (notify.Dispatcher, error) {
	if a.Cfg.RabbitMQ.URL != "" {
		client, err := notify.NewRabbitClient(a.Cfg.RabbitMQ, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	}

	dispatcher := notify.NewAsyncDispatcher(notify.NewMailer(a.Cfg.SMTP, a.Logger), a.Logger, a.Cfg.DispatchQueueSize)
	a.closers = append(a.closers, dispatcher.Close)
	return dispatcher, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Router builds the HTTP surface.
func (a *App) Router() http.Handler {
	return NewRouter(a.Handlers, a.Service.Auth, a.Logger)
}

func NewRouter(h *handlers.Handlers, auth service.AuthService, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, apperr.NotFound("not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, apperr.MethodNotAllowed())
	})

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// public routes
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-email", h.VerifyEmail).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/resend-code", h.ResendCode).Methods(http.MethodPost)
	if h.Cfg.DemoMode {
		api.HandleFunc("/auth/demo-code/{email}", h.DemoCode).Methods(http.MethodGet)
	}
	api.HandleFunc("/departments", h.Departments).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(mux.MiddlewareFunc(middleware.AuthMiddleware(auth, logger)))

	protected.HandleFunc("/users/me", h.GetCurrentUser).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", h.UpdateCurrentUser).Methods(http.MethodPut)

	protected.HandleFunc("/posts", h.GetFeed).Methods(http.MethodGet)
	protected.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}/like", h.ToggleLike).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}/bookmark", h.ToggleBookmark).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}/comments", h.AddComment).Methods(http.MethodPost)

	protected.HandleFunc("/search", h.Search).Methods(http.MethodPost)

	protected.HandleFunc("/uploads/images", h.UploadImage).Methods(http.MethodPost)
	protected.HandleFunc("/uploads/images", h.ListImages).Methods(http.MethodGet)

	return middleware.Chain(r,
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware,
	)
}
