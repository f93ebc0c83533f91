package handlers

import (
	"context"

	"studentmedia/internal/models"
)

type contextKey struct{}

// ContextWithUser stores the authenticated user for downstream handlers.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// CurrentUser returns the user placed by the auth middleware.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}
