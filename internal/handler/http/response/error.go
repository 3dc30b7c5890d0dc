package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Anything that failed on
// the attendance service side, including a body we could not parse, answers
// 502 with the service's detail; only errors that are neither ours nor the
// upstream's fall through to 500.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth and session errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrSessionRevoked):
		Unauthorized(w, "Session has been revoked")
	case errors.Is(err, session.ErrSessionExpired):
		Unauthorized(w, "Session has expired")
	case errors.Is(err, session.ErrSessionNotFound):
		Unauthorized(w, "Session not found")

	// User administration errors
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrCannotDeleteSelf):
		BadRequest(w, "You cannot delete your own account", nil)

	// Dashboard errors
	case errors.Is(err, attendance.ErrCheckInProgress):
		Conflict(w, "A check-in or check-out is already in progress")
	case errors.Is(err, dashboard.ErrDashboardClosed):
		Gone(w, "Dashboard has been closed")

	default:
		handleUpstreamError(w, err)
	}
}

// handleUpstreamError covers failures talking to the attendance service.
func handleUpstreamError(w http.ResponseWriter, err error) {
	var netErr *apperror.NetworkError
	if errors.As(err, &netErr) {
		slog.Warn("Attendance service request failed", "op", netErr.Op, "status", netErr.StatusCode, "error", netErr.Error())
		BadGateway(w, netErr.Message())
		return
	}

	var parseErr *attendance.ParseError
	if errors.As(err, &parseErr) {
		slog.Warn("Attendance service returned malformed data", "field", parseErr.Field, "error", err)
		BadGateway(w, "Attendance service returned malformed data")
		return
	}

	slog.Error("Unhandled error", "error", err)
	InternalServerError(w, "An unexpected error occurred")
}
