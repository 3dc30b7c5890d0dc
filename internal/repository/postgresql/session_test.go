package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionColumns = []string{
	"id", "user_id", "user_name", "user_email", "user_role", "user_department",
	"ip_address", "user_agent", "created_at", "expires_at", "revoked_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestSessionRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)

	now := time.Now().UTC()
	s := session.Session{
		ID:        "0190c8e4-7b7a-7cc0-8000-000000000001",
		User:      user.User{ID: 3, Name: "Ana", Email: "ana@example.com", Role: user.RoleEmployee},
		IPAddress: "127.0.0.1",
		UserAgent: "test",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
		WithArgs(s.ID, int64(3), "Ana", "ana@example.com", "employee", (*string)(nil),
			"127.0.0.1", "test", s.CreatedAt, s.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.Create(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, s.ID, created.ID)
}

func TestSessionRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)

	now := time.Now().UTC()
	dept := "Ops"
	rows := pgxmock.NewRows(sessionColumns).
		AddRow("sid", int64(1), "Admin", "admin@example.com", "Admin", &dept,
			"10.0.0.1", "ua", now, now.Add(time.Hour), (*time.Time)(nil))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions`)).
		WithArgs("sid").
		WillReturnRows(rows)

	s, err := repo.GetByID(context.Background(), "sid")

	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, s.User.Role)
	assert.True(t, s.User.IsAdmin())
	assert.True(t, s.IsActive(now))
	require.NotNil(t, s.User.Department)
	assert.Equal(t, "Ops", *s.User.Department)
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionRepository_Revoke(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions`)).
		WithArgs("sid").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sessions`)).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.NoError(t, repo.Revoke(context.Background(), "sid"))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "missing"), session.ErrSessionNotFound)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)
	cutoff := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions`)).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.DeleteExpired(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestSessionRepository_DeleteExpired_Error(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)
	cutoff := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions`)).
		WithArgs(cutoff).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.DeleteExpired(context.Background(), cutoff)

	assert.ErrorContains(t, err, "delete expired sessions")
}

func TestGetQuerier_UsesTransaction(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tx, GetQuerier(WithTx(context.Background(), tx), mock))
	assert.Equal(t, mock, GetQuerier(context.Background(), mock))

	mock.ExpectRollback()
	require.NoError(t, tx.Rollback(context.Background()))
}
