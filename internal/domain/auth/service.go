package auth

import (
	"context"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
)

type AuthService interface {
	// Login verifies credentials against the backend and opens a gateway session
	Login(ctx context.Context, req LoginRequest, sessionReq SessionTrackingRequest) (TokenResponse, error)

	// Logout revokes the session and its access token and abandons its dashboard
	Logout(ctx context.Context, sess session.Session, token string) error

	// ResolveSession loads an active session; revoked or expired sessions are errors
	ResolveSession(ctx context.Context, sessionID string) (session.Session, error)

	// PurgeExpired drops expired and revoked sessions and forgotten tokens
	PurgeExpired(ctx context.Context) error
}
