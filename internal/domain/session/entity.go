package session

import (
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
)

// Session is the explicit replacement for a shared auth context: created on
// login, revoked on logout, passed to every dashboard operation.
type Session struct {
	ID        string
	User      user.User
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsActive reports whether the session can still be used at now.
func (s Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
