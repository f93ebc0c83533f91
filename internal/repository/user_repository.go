package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"studentmedia/internal/models"
)

const userColumns = `id, name, email, department, year, roll_number, profile_image, bio, is_verified, created_at`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User, passwordHash string) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, name, email, department, year, roll_number, profile_image, bio, is_verified, created_at)
		VALUES (:id, :name, :email, :department, :year, :roll_number, :profile_image, :bio, :is_verified, :created_at)
	`

	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_passwords (user_id, password_hash) VALUES ($1, $2)`,
		user.ID, passwordHash,
	); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}

	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetUsersByIDs(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var users []*models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	if err := r.db.SelectContext(ctx, &users, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	for _, u := range users {
		result[u.ID] = u
	}

	return result, nil
}

func (r *userRepository) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	var hash string

	err := r.db.GetContext(ctx, &hash, `SELECT password_hash FROM user_passwords WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get credential: %w", err)
	}

	return hash, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = :name, bio = :bio, profile_image = :profile_image
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
