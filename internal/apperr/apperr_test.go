package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", NotFound("post not found"), KindNotFound},
		{"wrapped", fmt.Errorf("outer: %w", Validation("bad year")), KindValidation},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "invalid credentials", PublicMessage(New(KindInvalidCredentials, "invalid credentials")))
	assert.Equal(t, "internal server error", PublicMessage(Internal("query failed", errors.New("connection reset"))))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("raw")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindDuplicateUser, "email already registered", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "email already registered: duplicate key", err.Error())
	assert.True(t, Is(err, KindDuplicateUser))
	assert.False(t, Is(nil, KindDuplicateUser))
}
