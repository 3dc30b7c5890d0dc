package session

import (
	"context"
	"time"
)

type SessionRepository interface {
	Create(ctx context.Context, s Session) (Session, error)

	// GetByID returns ErrSessionNotFound when no row exists. Revoked and
	// expired sessions are returned as-is; callers check IsActive.
	GetByID(ctx context.Context, id string) (Session, error)

	Revoke(ctx context.Context, id string) error

	// DeleteExpired removes sessions that expired or were revoked before cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
