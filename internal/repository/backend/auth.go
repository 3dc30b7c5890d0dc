package backend

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
)

type authRepositoryImpl struct {
	client *Client
}

func NewAuthRepository(client *Client) auth.AuthRepository {
	return &authRepositoryImpl{client: client}
}

func loginErrors(status int, detail string) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return auth.ErrInvalidCredentials
	}
	return nil
}

// Login implements auth.AuthRepository.
func (r *authRepositoryImpl) Login(ctx context.Context, req auth.LoginRequest) (user.User, error) {
	var record user.UserRecord
	err := r.client.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   req,
		mapErr: loginErrors,
	}, &record)
	if err != nil {
		return user.User{}, err
	}
	return record.ToEntity(), nil
}
