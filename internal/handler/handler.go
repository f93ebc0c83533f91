package handlers

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"studentmedia/internal/config"
	"studentmedia/internal/service"
	"studentmedia/internal/validation"
)

type Handlers struct {
	AuthService   service.AuthService
	UserService   service.UserService
	PostService   service.PostService
	FeedService   service.FeedService
	SearchService service.SearchService
	TablesService service.TablesService
	Cfg           *config.Config
	Validate      *validator.Validate
	Logger        *zap.Logger
}

func NewHandlers(service *service.Service, config *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		AuthService:   service.Auth,
		UserService:   service.User,
		PostService:   service.Post,
		FeedService:   service.Feed,
		SearchService: service.Search,
		TablesService: service.Tables,
		Cfg:           config,
		Validate:      validation.Basic(),
		Logger:        logger,
	}
}
