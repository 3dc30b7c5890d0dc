package user

import (
	"context"
)

// UserRepository is the backend's user administration surface. Every call is
// made on behalf of adminID.
type UserRepository interface {
	ListEmployees(ctx context.Context, adminID int64) ([]User, error)
	Create(ctx context.Context, adminID int64, req CreateUserRequest) (User, error)
	Update(ctx context.Context, adminID int64, req UpdateUserRequest) (User, error)
	Delete(ctx context.Context, adminID int64, userID int64) error
}
