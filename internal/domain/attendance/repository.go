package attendance

import (
	"context"
)

// AttendanceRepository is the external attendance backend of record.
// Implementations return decoded entities; malformed payloads surface as *ParseError.
type AttendanceRepository interface {
	// CheckIn records a check-in for req.UserID
	CheckIn(ctx context.Context, req CheckRequest) (MessageRecord, error)

	// CheckOut records a check-out for req.UserID
	CheckOut(ctx context.Context, req CheckRequest) (MessageRecord, error)

	// ListByEmployee returns every log of one employee
	ListByEmployee(ctx context.Context, userID int64) ([]AttendanceLog, error)

	// ListAll returns logs across employees, admin only
	ListAll(ctx context.Context, adminID int64, filter LogFilter) ([]AttendanceLog, error)

	// TodaySummary returns the backend's summary of userID for today, as seen by currentUserID
	TodaySummary(ctx context.Context, currentUserID int64, userID int64) (DailySummary, error)

	CheckStatus(ctx context.Context, userID int64) (CheckState, error)
}
