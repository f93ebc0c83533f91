package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"studentmedia/internal/models"
)

type imageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	query := `
		INSERT INTO images (id, user_id, object_name, url, created_at)
		VALUES (:id, :user_id, :object_name, :url, :created_at)
	`

	if image.ID == "" {
		image.ID = uuid.New().String()
	}

	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}

	if _, err := r.db.NamedExecContext(ctx, query, image); err != nil {
		return fmt.Errorf("failed to record image: %w", err)
	}

	return nil
}

func (r *imageRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Image, error) {
	query := `SELECT id, user_id, object_name, url, created_at FROM images WHERE user_id = $1 ORDER BY created_at DESC`

	images := []*models.Image{}
	if err := r.db.SelectContext(ctx, &images, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	return images, nil
}
