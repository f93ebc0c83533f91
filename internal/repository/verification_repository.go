package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studentmedia/internal/models"
)

type verificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) SaveCode(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (email, code, created_at, expires_at)
		VALUES (:email, :code, :created_at, :expires_at)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`

	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}

	return nil
}

func (r *verificationRepository) GetCode(ctx context.Context, email string) (*models.VerificationCode, error) {
	var code models.VerificationCode

	query := `SELECT email, code, created_at, expires_at FROM verification_codes WHERE email = $1`

	if err := r.db.GetContext(ctx, &code, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	return &code, nil
}

func (r *verificationRepository) DeleteCode(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}
