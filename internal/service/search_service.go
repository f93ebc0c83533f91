package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"studentmedia/internal/apperr"
	"studentmedia/internal/config"
	"studentmedia/internal/models"
	"studentmedia/internal/repository"
	"studentmedia/internal/validation"
)

const SearchLimit = 50

type SearchRequest struct {
	Query      string  `json:"query" validate:"max=200"`
	Department *string `json:"department"`
	Year       *int    `json:"year" validate:"omitnil,min=1,max=4"`
}

type SearchService interface {
	Search(ctx context.Context, viewerID string, req SearchRequest) ([]models.PostView, error)
}

type searchService struct {
	postRepo repository.PostRepository
	views    *viewBuilder
	validate *validator.Validate
	cfg      *config.Config
}

func NewSearchService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	validate *validator.Validate,
	cfg *config.Config,
) SearchService {
	return &searchService{
		postRepo: postRepo,
		views:    &viewBuilder{userRepo: userRepo, postRepo: postRepo},
		validate: validate,
		cfg:      cfg,
	}
}

// filterFor normalises a request into a repository filter. The year
// narrows results only when a department is given.
func filterFor(req SearchRequest) repository.SearchFilter {
	filter := repository.SearchFilter{
		Query: strings.TrimSpace(req.Query),
		Limit: SearchLimit,
	}

	if req.Department != nil {
		dept := strings.ToUpper(strings.TrimSpace(*req.Department))
		if dept != "" {
			filter.Department = &dept
			filter.Year = req.Year
		}
	}

	return filter
}

func (s *searchService) Search(ctx context.Context, viewerID string, req SearchRequest) ([]models.PostView, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(validation.Describe(err, s.cfg.CampusDomain))
	}

	posts, err := s.postRepo.SearchPosts(ctx, filterFor(req))
	if err != nil {
		return nil, apperr.Internal("failed to search posts", err)
	}

	return s.views.postViews(ctx, viewerID, posts)
}
