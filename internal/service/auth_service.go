package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studentmedia/internal/apperr"
	"studentmedia/internal/config"
	"studentmedia/internal/models"
	"studentmedia/internal/notify"
	"studentmedia/internal/repository"
	"studentmedia/internal/validation"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgVerifyFirst        = "please verify your email first"
	msgInvalidCode        = "invalid or expired verification code"
)

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email,campus_email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Department string `json:"department" validate:"required,department"`
	Year       int    `json:"year" validate:"required,min=1,max=4"`
	RollNumber string `json:"roll_number" validate:"required,min=5,max=32"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	DemoCode(ctx context.Context, email string) (string, error)
}

type authService struct {
	userRepo         repository.UserRepository
	verificationRepo repository.VerificationRepository
	dispatcher       notify.Dispatcher
	validate         *validator.Validate
	cfg              *config.Config
	logger           *zap.Logger
	opts             options
}

func NewAuthService(
	userRepo repository.UserRepository,
	verificationRepo repository.VerificationRepository,
	dispatcher notify.Dispatcher,
	validate *validator.Validate,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		verificationRepo: verificationRepo,
		dispatcher:       dispatcher,
		validate:         validate,
		cfg:              cfg,
		logger:           logger,
		opts:             buildOptions(opts),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Department = strings.ToUpper(strings.TrimSpace(req.Department))
	req.RollNumber = strings.TrimSpace(req.RollNumber)

	// nothing is stored unless the whole request is valid
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(validation.Describe(err, s.cfg.CampusDomain))
	}

	_, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return nil, apperr.New(apperr.KindDuplicateUser, "email already registered")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("failed to look up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &models.User{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Year:       req.Year,
		RollNumber: req.RollNumber,
		IsVerified: false,
		CreatedAt:  s.opts.now(),
	}

	if err := s.userRepo.CreateUser(ctx, user, string(hash)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.KindDuplicateUser, "email already registered", err)
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	if err := s.issueCode(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("department", user.Department),
	)

	return user, nil
}

// issueCode stores a fresh code for the user, replacing any previous one,
// and hands it to the dispatcher.
func (s *authService) issueCode(ctx context.Context, user *models.User) error {
	code, err := s.opts.newCode()
	if err != nil {
		return apperr.Internal("failed to generate verification code", err)
	}

	now := s.opts.now()
	record := &models.VerificationCode{
		Email:     user.Email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.VerificationCodeTTL),
	}

	if err := s.verificationRepo.SaveCode(ctx, record); err != nil {
		return apperr.Internal("failed to store verification code", err)
	}

	s.dispatcher.Dispatch(ctx, notify.VerificationMessage{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: record.ExpiresAt,
	})

	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	stored, err := s.verificationRepo.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindInvalidCode, msgInvalidCode)
		}
		return apperr.Internal("failed to read verification code", err)
	}

	if stored.Code != strings.TrimSpace(code) || stored.Expired(s.opts.now()) {
		return apperr.New(apperr.KindInvalidCode, msgInvalidCode)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindInvalidCode, msgInvalidCode)
		}
		return apperr.Internal("failed to look up user", err)
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return apperr.Internal("failed to mark user verified", err)
	}

	if err := s.verificationRepo.DeleteCode(ctx, email); err != nil {
		// not fatal, the user is already verified
		s.logger.Warn("failed to delete used verification code", zap.String("email", email), zap.Error(err))
	}

	s.logger.Info("email verified", zap.String("user_id", user.ID))
	return nil
}

func (s *authService) ResendCode(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to look up user", err)
	}

	if user.IsVerified {
		return apperr.Validation("email is already verified")
	}

	return s.issueCode(ctx, user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
		}
		return nil, "", apperr.Internal("failed to look up user", err)
	}

	hash, err := s.userRepo.GetPasswordHash(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
		}
		return nil, "", apperr.Internal("failed to read credential", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", apperr.New(apperr.KindInvalidCredentials, msgInvalidCredentials)
	}

	if !user.IsVerified {
		return nil, "", apperr.New(apperr.KindInvalidCredentials, msgVerifyFirst)
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", apperr.Internal("failed to issue token", err)
	}

	return user, token, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.opts.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenDuration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.opts.now),
	)
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	if claims.Subject == "" {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("user no longer exists")
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	return user, nil
}

// DemoCode returns the active code for email. Only routed in demo mode.
func (s *authService) DemoCode(ctx context.Context, email string) (string, error) {
	stored, err := s.verificationRepo.GetCode(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound("no verification code for this email")
		}
		return "", apperr.Internal("failed to read verification code", err)
	}

	if stored.Expired(s.opts.now()) {
		return "", apperr.NotFound("no verification code for this email")
	}

	return stored.Code, nil
}
