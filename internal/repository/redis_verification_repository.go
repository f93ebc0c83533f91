package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"studentmedia/internal/models"
)

const verificationKeyPrefix = "verification:"

// keyGrace keeps an entry around slightly past its expiry. Expiry itself is
// decided by the caller against ExpiresAt.
const keyGrace = time.Minute

type redisVerificationRepository struct {
	client *redis.Client
}

func NewRedisVerificationRepository(client *redis.Client) VerificationRepository {
	return &redisVerificationRepository{client: client}
}

func verificationKey(email string) string {
	return verificationKeyPrefix + email
}

func (r *redisVerificationRepository) SaveCode(ctx context.Context, code *models.VerificationCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal verification code: %w", err)
	}

	ttl := code.ExpiresAt.Sub(code.CreatedAt) + keyGrace
	if err := r.client.Set(ctx, verificationKey(code.Email), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}

	return nil
}

func (r *redisVerificationRepository) GetCode(ctx context.Context, email string) (*models.VerificationCode, error) {
	data, err := r.client.Get(ctx, verificationKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	var code models.VerificationCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification code: %w", err)
	}

	return &code, nil
}

func (r *redisVerificationRepository) DeleteCode(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, verificationKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}
