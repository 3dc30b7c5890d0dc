package dashboard

import (
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
)

type Scope string

const (
	ScopeAdmin    Scope = "admin"    // Cross-employee view
	ScopeEmployee Scope = "employee" // Self-only view
)

// ScopeFor picks the dashboard variant for a logged-in user.
func ScopeFor(u user.User) Scope {
	if u.IsAdmin() {
		return ScopeAdmin
	}
	return ScopeEmployee
}

// View is a snapshot of one session's dashboard state.
type View struct {
	Scope              Scope
	User               user.User
	CheckState         attendance.CheckState
	Transitioning      bool
	Logs               []attendance.AttendanceLog
	Summary            attendance.DailySummary
	SummaryFor         int64
	SelectedEmployeeID *int64
	Filter             attendance.LogFilter
	Employees          []user.User
	EmployeesLoaded    bool
	Message            string
	MessageAt          *time.Time
	Loaded             bool
	UpdatedAt          time.Time
}

// Event names published on a session's stream
const (
	EventViewUpdated = "dashboard.updated"
	EventSessionEnd  = "session.ended"
)
