package attendance

import (
	"time"
)

const DateLayout = "2006-01-02"

// AttendanceLog is one check-in/check-out event pair as recorded by the backend.
// A log with CheckIn set and CheckOut nil is an open session.
type AttendanceLog struct {
	ID         int64
	EmployeeID int64
	CheckIn    *time.Time
	CheckOut   *time.Time
	Method     string
	Date       string // YYYY-MM-DD

	// DTO
	EmployeeName *string
}

// IsOpen reports whether the log is an in-progress session.
func (l AttendanceLog) IsOpen() bool {
	return l.CheckIn != nil && l.CheckOut == nil
}

// IsClosed reports whether both ends of the session are known.
func (l AttendanceLog) IsClosed() bool {
	return l.CheckIn != nil && l.CheckOut != nil
}

// Duration is zero unless the log is closed.
func (l AttendanceLog) Duration() time.Duration {
	if !l.IsClosed() {
		return 0
	}
	return l.CheckOut.Sub(*l.CheckIn)
}

// DailySummary is derived from logs and never persisted by the gateway.
type DailySummary struct {
	FirstIn       *time.Time
	FinalOut      *time.Time
	TotalDuration time.Duration
}

// DaySummary is a DailySummary tagged with its calendar day.
type DaySummary struct {
	Date    string
	Summary DailySummary
}

type CheckState struct {
	EmployeeID int64
	CheckedIn  bool
}

type CalendarDay struct {
	Date     string
	Day      int
	Logs     []AttendanceLog
	Summary  DailySummary
	Duration time.Duration
}

// CalendarMonth is a 7-column grid: Days starts with StartWeekday nil
// placeholders followed by one cell per day of the month.
type CalendarMonth struct {
	Year         int
	Month        time.Month
	StartWeekday int
	DaysInMonth  int
	Days         []*CalendarDay
}
