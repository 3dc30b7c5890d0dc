// Package memory holds process-local repository implementations.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
)

type sessionRepositoryImpl struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
	now      func() time.Time
}

func NewSessionRepository() session.SessionRepository {
	return &sessionRepositoryImpl{
		sessions: make(map[string]session.Session),
		now:      time.Now,
	}
}

// Create implements session.SessionRepository.
func (r *sessionRepositoryImpl) Create(ctx context.Context, s session.Session) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s, nil
}

// GetByID implements session.SessionRepository.
func (r *sessionRepositoryImpl) GetByID(ctx context.Context, id string) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return s, nil
}

// Revoke implements session.SessionRepository.
func (r *sessionRepositoryImpl) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return session.ErrSessionNotFound
	}
	if s.RevokedAt == nil {
		now := r.now()
		s.RevokedAt = &now
		r.sessions[id] = s
	}
	return nil
}

// DeleteExpired implements session.SessionRepository.
func (r *sessionRepositoryImpl) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(cutoff) || (s.RevokedAt != nil && s.RevokedAt.Before(cutoff)) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
