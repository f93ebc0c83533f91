package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"studentmedia/internal/apperr"
	"studentmedia/internal/config"
	"studentmedia/internal/models"
	"studentmedia/internal/repository"
	"studentmedia/internal/validation"
)

// UpdateProfileRequest is a partial update. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name         *string `json:"name" validate:"omitnil,min=2,max=100"`
	Bio          *string `json:"bio" validate:"omitnil,max=500"`
	ProfileImage *string `json:"profile_image" validate:"omitnil,max=2048"`
}

type UserService interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	validate *validator.Validate
	cfg      *config.Config
}

func NewUserService(userRepo repository.UserRepository, validate *validator.Validate, cfg *config.Config) UserService {
	return &userService{
		userRepo: userRepo,
		validate: validate,
		cfg:      cfg,
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to get user", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(validation.Describe(err, s.cfg.CampusDomain))
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.ProfileImage != nil {
		user.ProfileImage = req.ProfileImage
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to update profile", err)
	}

	return user, nil
}
