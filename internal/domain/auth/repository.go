package auth

import (
	"context"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
)

// AuthRepository checks credentials with the backend (/auth/login).
type AuthRepository interface {
	Login(ctx context.Context, req LoginRequest) (user.User, error)
}
