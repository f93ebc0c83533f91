package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentmedia/internal/models"
)

func TestRedisVerificationRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := NewRedisVerificationRepository(client)
	ctx := context.Background()

	createdAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	first := &models.VerificationCode{
		Email:     "asha@ritrjpm.ac.in",
		Code:      "111111",
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(15 * time.Minute),
	}

	t.Run("missing code", func(t *testing.T) {
		_, err := repo.GetCode(ctx, first.Email)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save sets key with ttl", func(t *testing.T) {
		require.NoError(t, repo.SaveCode(ctx, first))

		assert.True(t, mr.Exists("verification:asha@ritrjpm.ac.in"))
		assert.Equal(t, 16*time.Minute, mr.TTL("verification:asha@ritrjpm.ac.in"))

		got, err := repo.GetCode(ctx, first.Email)
		require.NoError(t, err)
		assert.Equal(t, "111111", got.Code)
		assert.True(t, got.ExpiresAt.Equal(first.ExpiresAt))
	})

	t.Run("new code overwrites", func(t *testing.T) {
		second := *first
		second.Code = "222222"
		require.NoError(t, repo.SaveCode(ctx, &second))

		got, err := repo.GetCode(ctx, first.Email)
		require.NoError(t, err)
		assert.Equal(t, "222222", got.Code)
	})

	t.Run("housekeeping ttl removes key", func(t *testing.T) {
		mr.FastForward(17 * time.Minute)

		_, err := repo.GetCode(ctx, first.Email)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.SaveCode(ctx, first))
		require.NoError(t, repo.DeleteCode(ctx, first.Email))

		assert.False(t, mr.Exists("verification:asha@ritrjpm.ac.in"))
	})
}
