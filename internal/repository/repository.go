package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"studentmedia/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository interface {
	// CreateUser stores the user together with its password digest.
	CreateUser(ctx context.Context, user *models.User, passwordHash string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, userIDs []string) (map[string]*models.User, error)
	GetPasswordHash(ctx context.Context, userID string) (string, error)
	MarkVerified(ctx context.Context, userID string) error
	UpdateProfile(ctx context.Context, user *models.User) error
}

type VerificationRepository interface {
	// SaveCode replaces any code previously stored for the same email.
	SaveCode(ctx context.Context, code *models.VerificationCode) error
	GetCode(ctx context.Context, email string) (*models.VerificationCode, error)
	DeleteCode(ctx context.Context, email string) error
}

// SearchFilter is applied by PostRepository.SearchPosts. Year is only
// meaningful together with Department.
type SearchFilter struct {
	Query      string
	Department *string
	Year       *int
	Limit      int
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, postID string) (*models.Post, error)
	// ListFeed returns posts with an existing author, newest first, ties in insertion order.
	ListFeed(ctx context.Context, skip, limit int) ([]*models.Post, error)
	SearchPosts(ctx context.Context, filter SearchFilter) ([]*models.Post, error)

	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	ToggleBookmark(ctx context.Context, postID, userID string) (bool, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	BookmarkedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)

	AddComment(ctx context.Context, comment *models.Comment) error
	// RecentComments returns up to n comments per post, newest first.
	RecentComments(ctx context.Context, postIDs []string, n int) (map[string][]*models.Comment, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByUserID(ctx context.Context, userID string) ([]*models.Image, error)
}

type TablesRepository interface {
	CountTables(ctx context.Context) (int, error)
}

type Repository struct {
	User         UserRepository
	Verification VerificationRepository
	Post         PostRepository
	Image        ImageRepository
	Tables       TablesRepository
}

// NewRepository wires the Postgres repositories. When rdb is not nil verification
// codes are kept in Redis instead of the verification_codes table.
func NewRepository(db *sqlx.DB, rdb *redis.Client) *Repository {
	var verification VerificationRepository = NewVerificationRepository(db)
	if rdb != nil {
		verification = NewRedisVerificationRepository(rdb)
	}

	return &Repository{
		User:         NewUserRepository(db),
		Verification: verification,
		Post:         NewPostRepository(db),
		Image:        NewImageRepository(db),
		Tables:       NewTablesRepository(db),
	}
}
