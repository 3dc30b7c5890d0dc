package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type sessionRepositoryImpl struct {
	db database.Querier
}

// NewSessionRepository accepts *database.DB or any pgx-compatible pool.
func NewSessionRepository(db database.Querier) session.SessionRepository {
	return &sessionRepositoryImpl{db: db}
}

// Create implements session.SessionRepository.
func (r *sessionRepositoryImpl) Create(ctx context.Context, s session.Session) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO sessions (id, user_id, user_name, user_email, user_role, user_department,
			ip_address, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := q.Exec(ctx, query,
		s.ID, s.User.ID, s.User.Name, s.User.Email, string(s.User.Role), s.User.Department,
		s.IPAddress, s.UserAgent, s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	if err != nil {
		return session.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// GetByID implements session.SessionRepository.
func (r *sessionRepositoryImpl) GetByID(ctx context.Context, id string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, user_name, user_email, user_role, user_department,
			ip_address, user_agent, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
	`

	var s session.Session
	var role string
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.User.ID, &s.User.Name, &s.User.Email, &role, &s.User.Department,
		&s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	s.User.Role = user.NormalizeRole(role)

	return s, nil
}

// Revoke implements session.SessionRepository.
func (r *sessionRepositoryImpl) Revoke(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE sessions
		SET revoked_at = COALESCE(revoked_at, NOW())
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired implements session.SessionRepository.
func (r *sessionRepositoryImpl) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM sessions
		WHERE expires_at < $1 OR revoked_at < $1
	`
	tag, err := q.Exec(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
