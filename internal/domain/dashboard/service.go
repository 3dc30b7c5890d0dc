package dashboard

import (
	"context"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
)

// DashboardService owns one dashboard per session. Every method mounts the
// session's dashboard on first use.
type DashboardService interface {
	// Mount returns the current view, loading it on first call
	Mount(ctx context.Context, sess session.Session) (ViewResponse, error)

	// Refresh re-issues the logs, summary and check-state fetches
	Refresh(ctx context.Context, sess session.Session) (ViewResponse, error)

	// ToggleCheck checks the session user in or out, then refreshes logs and summary
	ToggleCheck(ctx context.Context, sess session.Session) (ViewResponse, error)

	// Calendar groups the already-fetched logs into a month grid
	Calendar(ctx context.Context, sess session.Session, req attendance.MonthRequest) (attendance.CalendarMonthResponse, error)

	// Days lists per-day summaries over the already-fetched logs
	Days(ctx context.Context, sess session.Session) ([]attendance.DaySummaryResponse, error)

	// Admin only
	SelectEmployee(ctx context.Context, sess session.Session, req SelectEmployeeRequest) (ViewResponse, error)
	ApplyFilter(ctx context.Context, sess session.Session, filter attendance.LogFilter) (ViewResponse, error)
	ListEmployees(ctx context.Context, sess session.Session, query string) ([]user.UserResponse, error)
	CreateUser(ctx context.Context, sess session.Session, req user.CreateUserRequest) (user.UserResponse, error)
	UpdateUser(ctx context.Context, sess session.Session, req user.UpdateUserRequest) (user.UserResponse, error)
	DeleteUser(ctx context.Context, sess session.Session, userID int64) error

	// Close abandons the session's dashboard; in-flight fetches no longer apply
	Close(sessionID string)

	// RefreshAll refreshes every mounted dashboard (timer driven)
	RefreshAll(ctx context.Context) error
}
