package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"studentmedia/internal/apperr"
	"studentmedia/internal/config"
	"studentmedia/internal/models"
	"studentmedia/internal/repository"
	"studentmedia/internal/storage"
	"studentmedia/internal/validation"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type CreatePostRequest struct {
	Content string   `json:"content" validate:"required,min=1,max=2000"`
	Image   *string  `json:"image" validate:"omitnil,max=2048"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=50"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}

type PostService interface {
	CreatePost(ctx context.Context, userID string, req CreatePostRequest) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	ToggleBookmark(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, postID, userID string, req CreateCommentRequest) (*models.Comment, error)
	UploadImage(ctx context.Context, userID, fileName string, file io.Reader, size int64) (*models.Image, error)
	ListImages(ctx context.Context, userID string) ([]*models.Image, error)
}

type postService struct {
	postRepo  repository.PostRepository
	imageRepo repository.ImageRepository
	storage   storage.Storage
	validate  *validator.Validate
	cfg       *config.Config
	logger    *zap.Logger
	opts      options
}

func NewPostService(
	postRepo repository.PostRepository,
	imageRepo repository.ImageRepository,
	storage storage.Storage,
	validate *validator.Validate,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) PostService {
	return &postService{
		postRepo:  postRepo,
		imageRepo: imageRepo,
		storage:   storage,
		validate:  validate,
		cfg:       cfg,
		logger:    logger,
		opts:      buildOptions(opts),
	}
}

// normalizeTags trims every tag, drops empty ones and removes duplicates,
// keeping the first occurrence.
func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

func (s *postService) CreatePost(ctx context.Context, userID string, req CreatePostRequest) (*models.Post, error) {
	req.Tags = normalizeTags(req.Tags)
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		req.Image = nil
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(validation.Describe(err, s.cfg.CampusDomain))
	}

	now := s.opts.now()
	post := &models.Post{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   req.Content,
		Image:     req.Image,
		Tags:      pq.StringArray(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, apperr.Internal("failed to create post", err)
	}

	return post, nil
}

// checkPostID rejects ids that cannot name a post before they reach storage.
func checkPostID(postID string) error {
	if _, err := uuid.Parse(postID); err != nil {
		return apperr.NotFound("post not found")
	}
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	if err := checkPostID(postID); err != nil {
		return false, err
	}

	liked, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperr.NotFound("post not found")
		}
		return false, apperr.Internal("failed to toggle like", err)
	}

	return liked, nil
}

func (s *postService) ToggleBookmark(ctx context.Context, postID, userID string) (bool, error) {
	if err := checkPostID(postID); err != nil {
		return false, err
	}

	bookmarked, err := s.postRepo.ToggleBookmark(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperr.NotFound("post not found")
		}
		return false, apperr.Internal("failed to toggle bookmark", err)
	}

	return bookmarked, nil
}

func (s *postService) AddComment(ctx context.Context, postID, userID string, req CreateCommentRequest) (*models.Comment, error) {
	if err := checkPostID(postID); err != nil {
		return nil, err
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(validation.Describe(err, s.cfg.CampusDomain))
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: s.opts.now(),
	}

	if err := s.postRepo.AddComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("failed to add comment", err)
	}

	return comment, nil
}

func (s *postService) UploadImage(ctx context.Context, userID, fileName string, file io.Reader, size int64) (*models.Image, error) {
	if s.storage == nil {
		return nil, apperr.New(apperr.KindUnavailable, "image storage is not configured")
	}

	if !allowedImageExt[strings.ToLower(filepath.Ext(fileName))] {
		return nil, apperr.Validation("image must be a jpg, jpeg, png, gif or webp file")
	}

	if size <= 0 || size > s.cfg.MaxUploadSize {
		return nil, apperr.Validation("image size is out of range")
	}

	objectName, url, err := s.storage.UploadImage(ctx, userID, fileName, file, size)
	if err != nil {
		return nil, apperr.Internal("failed to upload image", err)
	}

	image := &models.Image{
		ID:         uuid.New().String(),
		UserID:     userID,
		ObjectName: objectName,
		URL:        url,
		CreatedAt:  s.opts.now(),
	}

	if err := s.imageRepo.Create(ctx, image); err != nil {
		if delErr := s.storage.DeleteImage(ctx, objectName); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("object", objectName), zap.Error(delErr))
		}
		return nil, apperr.Internal("failed to record image", err)
	}

	return image, nil
}

func (s *postService) ListImages(ctx context.Context, userID string) ([]*models.Image, error) {
	images, err := s.imageRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to list images", err)
	}
	return images, nil
}
