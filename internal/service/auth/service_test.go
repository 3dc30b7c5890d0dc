package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/validator"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

type fakeAuthRepository struct {
	calls int
	user  user.User
	err   error
}

func (f *fakeAuthRepository) Login(ctx context.Context, req auth.LoginRequest) (user.User, error) {
	f.calls++
	return f.user, f.err
}

type fakeCloser struct {
	closed []string
}

func (f *fakeCloser) Close(sessionID string) {
	f.closed = append(f.closed, sessionID)
}

func newTestService(repo auth.AuthRepository, closer DashboardCloser) (auth.AuthService, session.SessionRepository, jwt.Service) {
	sessions := memory.NewSessionRepository()
	jwtService := jwt.NewJWTService(testSecret, "1h")
	return NewAuthService(repo, sessions, jwtService, closer, 12*time.Hour), sessions, jwtService
}

var validLogin = auth.LoginRequest{Email: "ana@example.com", Password: "password123"}

func TestAuthService_Login_Success(t *testing.T) {
	repo := &fakeAuthRepository{user: user.User{ID: 7, Name: "Ana", Email: "ana@example.com", Role: user.RoleEmployee}}
	svc, sessions, _ := newTestService(repo, nil)

	resp, err := svc.Login(context.Background(), validLogin, auth.SessionTrackingRequest{IPAddress: "127.0.0.1", UserAgent: "Mozilla/5.0"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Greater(t, resp.AccessTokenExpiresIn, int64(0))
	assert.True(t, validator.IsValidUUID(resp.SessionID))
	assert.Equal(t, int64(7), resp.User.ID)

	sess, err := sessions.GetByID(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", sess.IPAddress)
	assert.Equal(t, user.RoleEmployee, sess.User.Role)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	repo := &fakeAuthRepository{err: &apperror.NetworkError{Op: "login", StatusCode: 400, Detail: "Invalid email or password", Err: auth.ErrInvalidCredentials}}
	svc, _, _ := newTestService(repo, nil)

	_, err := svc.Login(context.Background(), validLogin, auth.SessionTrackingRequest{})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_ValidationBlocksRequest(t *testing.T) {
	repo := &fakeAuthRepository{}
	svc, _, _ := newTestService(repo, nil)

	_, err := svc.Login(context.Background(), auth.LoginRequest{Email: "not-an-email"}, auth.SessionTrackingRequest{})

	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs.ToMap(), "email")
	assert.Contains(t, errs.ToMap(), "password")
	assert.Zero(t, repo.calls)
}

func TestAuthService_Logout(t *testing.T) {
	repo := &fakeAuthRepository{user: user.User{ID: 7, Role: user.RoleAdmin}}
	closer := &fakeCloser{}
	svc, _, jwtService := newTestService(repo, closer)
	ctx := context.Background()

	resp, err := svc.Login(ctx, validLogin, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	sess, err := svc.ResolveSession(ctx, resp.SessionID)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess, resp.AccessToken))

	assert.True(t, jwtService.IsTokenRevoked(resp.AccessToken))
	assert.Equal(t, []string{resp.SessionID}, closer.closed)
	_, err = svc.ResolveSession(ctx, resp.SessionID)
	assert.ErrorIs(t, err, auth.ErrSessionRevoked)
}

func TestAuthService_ResolveSession(t *testing.T) {
	svc, sessions, _ := newTestService(&fakeAuthRepository{}, nil)
	ctx := context.Background()
	now := time.Now()

	_, err := sessions.Create(ctx, session.Session{ID: "old", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	_, err = svc.ResolveSession(ctx, "old")
	assert.ErrorIs(t, err, session.ErrSessionExpired)

	_, err = svc.ResolveSession(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	require.NoError(t, svc.PurgeExpired(ctx))
	_, err = sessions.GetByID(ctx, "old")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
