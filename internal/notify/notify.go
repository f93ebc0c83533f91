// Package notify delivers verification codes to users outside the request path.
package notify

import (
	"context"
	"time"
)

type VerificationMessage struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Dispatcher hands a message off for delivery. Dispatch must not block on
// delivery and never reports delivery failures to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg VerificationMessage)
}

// Mailer performs the actual delivery.
type Mailer interface {
	Send(ctx context.Context, msg VerificationMessage) error
}
