package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
)

type userRepositoryImpl struct {
	client *Client
}

func NewUserRepository(client *Client) user.UserRepository {
	return &userRepositoryImpl{client: client}
}

func adminQuery(adminID int64) url.Values {
	query := url.Values{}
	query.Set("admin_id", formatID(adminID))
	return query
}

// ListEmployees implements user.UserRepository.
func (r *userRepositoryImpl) ListEmployees(ctx context.Context, adminID int64) ([]user.User, error) {
	var records []user.UserRecord
	err := r.client.do(ctx, request{
		op:     "list employees",
		method: http.MethodGet,
		path:   "/admin/users",
		query:  adminQuery(adminID),
		mapErr: adminErrors,
	}, &records)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(records))
	for _, record := range records {
		users = append(users, record.ToEntity())
	}
	return users, nil
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, adminID int64, req user.CreateUserRequest) (user.User, error) {
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}

	var record user.UserRecord
	err := r.client.do(ctx, request{
		op:     "create user",
		method: http.MethodPost,
		path:   "/admin/users",
		query:  adminQuery(adminID),
		body:   req,
		mapErr: adminErrors,
	}, &record)
	if err != nil {
		return user.User{}, err
	}
	return record.ToEntity(), nil
}

// Update implements user.UserRepository.
func (r *userRepositoryImpl) Update(ctx context.Context, adminID int64, req user.UpdateUserRequest) (user.User, error) {
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}

	var record user.UserRecord
	err := r.client.do(ctx, request{
		op:     "update user",
		method: http.MethodPatch,
		path:   "/admin/users/" + formatID(req.ID),
		query:  adminQuery(adminID),
		body:   req,
		mapErr: adminErrors,
	}, &record)
	if err != nil {
		return user.User{}, err
	}
	return record.ToEntity(), nil
}

// Delete implements user.UserRepository.
func (r *userRepositoryImpl) Delete(ctx context.Context, adminID int64, userID int64) error {
	if userID == adminID {
		return user.ErrCannotDeleteSelf
	}

	var msg attendance.MessageRecord
	return r.client.do(ctx, request{
		op:     "delete user",
		method: http.MethodDelete,
		path:   "/admin/users/" + formatID(userID),
		query:  adminQuery(adminID),
		mapErr: adminErrors,
	}, &msg)
}
