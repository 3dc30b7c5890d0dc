package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/jwt"
	"github.com/google/uuid"
)

// DashboardCloser abandons a session's dashboard on logout.
type DashboardCloser interface {
	Close(sessionID string)
}

type AuthServiceImpl struct {
	auth.AuthRepository
	session.SessionRepository
	jwt.Service
	dashboards DashboardCloser
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(authRepository auth.AuthRepository, sessionRepository session.SessionRepository, jwtService jwt.Service, dashboards DashboardCloser, sessionTTL time.Duration) auth.AuthService {
	return &AuthServiceImpl{
		AuthRepository:    authRepository,
		SessionRepository: sessionRepository,
		Service:           jwtService,
		dashboards:        dashboards,
		sessionTTL:        sessionTTL,
		now:               time.Now,
	}
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest, sessionTrackReq auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	u, err := a.AuthRepository.Login(ctx, loginReq)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("generate session id: %w", err)
	}
	now := a.now()
	sess, err := a.SessionRepository.Create(ctx, session.Session{
		ID:        id.String(),
		User:      u,
		IPAddress: sessionTrackReq.IPAddress,
		UserAgent: sessionTrackReq.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(a.sessionTTL),
	})
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, expiresAt, err := a.Service.GenerateAccessToken(sess)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("generate access token: %w", err)
	}

	slog.Info("User logged in", "user_id", u.ID, "role", u.Role, "session_id", sess.ID)

	return auth.TokenResponse{
		AccessToken:          accessToken,
		AccessTokenExpiresIn: expiresAt - now.Unix(),
		SessionID:            sess.ID,
		User:                 user.NewUserResponse(u),
	}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, sess session.Session, token string) error {
	if err := a.SessionRepository.Revoke(ctx, sess.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	if token != "" {
		a.Service.RevokeToken(token, sess.ExpiresAt.Unix())
	}
	if a.dashboards != nil {
		a.dashboards.Close(sess.ID)
	}

	slog.Info("User logged out", "user_id", sess.User.ID, "session_id", sess.ID)
	return nil
}

// ResolveSession implements auth.AuthService.
func (a *AuthServiceImpl) ResolveSession(ctx context.Context, sessionID string) (session.Session, error) {
	sess, err := a.SessionRepository.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.Session{}, auth.ErrInvalidToken
		}
		return session.Session{}, err
	}
	if sess.RevokedAt != nil {
		return session.Session{}, auth.ErrSessionRevoked
	}
	if !sess.IsActive(a.now()) {
		return session.Session{}, session.ErrSessionExpired
	}
	return sess, nil
}

// PurgeExpired implements auth.AuthService.
func (a *AuthServiceImpl) PurgeExpired(ctx context.Context) error {
	now := a.now()
	n, err := a.SessionRepository.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	tokens := a.Service.PurgeRevoked(now)
	if n > 0 || tokens > 0 {
		slog.Info("Purged expired sessions", "sessions", n, "revoked_tokens", tokens)
	}
	return nil
}
