package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
)

type attendanceRepositoryImpl struct {
	client *Client
}

func NewAttendanceRepository(client *Client) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{client: client}
}

// CheckIn implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CheckIn(ctx context.Context, req attendance.CheckRequest) (attendance.MessageRecord, error) {
	return r.check(ctx, "check-in", "/attendance/check-in", req)
}

// CheckOut implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CheckOut(ctx context.Context, req attendance.CheckRequest) (attendance.MessageRecord, error) {
	return r.check(ctx, "check-out", "/attendance/check-out", req)
}

func (r *attendanceRepositoryImpl) check(ctx context.Context, op, path string, req attendance.CheckRequest) (attendance.MessageRecord, error) {
	if req.Method == "" {
		req.Method = r.client.checkMethod
	}
	if err := req.Validate(); err != nil {
		return attendance.MessageRecord{}, err
	}

	var msg attendance.MessageRecord
	err := r.client.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   req,
		mapErr: adminErrors,
	}, &msg)
	if err != nil {
		return attendance.MessageRecord{}, err
	}
	return msg, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, userID int64) ([]attendance.AttendanceLog, error) {
	var records []attendance.LogRecord
	err := r.client.do(ctx, request{
		op:     "list logs",
		method: http.MethodGet,
		path:   "/attendance/logs/" + formatID(userID),
		mapErr: adminErrors,
	}, &records)
	if err != nil {
		return nil, err
	}
	return r.toLogs(records)
}

// ListAll implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListAll(ctx context.Context, adminID int64, filter attendance.LogFilter) ([]attendance.AttendanceLog, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("admin_id", formatID(adminID))
	if filter.UserID != nil {
		query.Set("user_id", formatID(*filter.UserID))
	}
	if filter.Date != nil && *filter.Date != "" {
		query.Set("date", *filter.Date)
	}

	var records []attendance.LogRecord
	err := r.client.do(ctx, request{
		op:     "list all logs",
		method: http.MethodGet,
		path:   "/admin/all-logs",
		query:  query,
		mapErr: adminErrors,
	}, &records)
	if err != nil {
		return nil, err
	}
	return r.toLogs(records)
}

// TodaySummary implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) TodaySummary(ctx context.Context, currentUserID int64, userID int64) (attendance.DailySummary, error) {
	query := url.Values{}
	query.Set("current_user_id", formatID(currentUserID))
	query.Set("user_id", formatID(userID))

	var record attendance.SummaryRecord
	err := r.client.do(ctx, request{
		op:     "today summary",
		method: http.MethodGet,
		path:   "/attendance/today-summary",
		query:  query,
		mapErr: adminErrors,
	}, &record)
	if err != nil {
		return attendance.DailySummary{}, err
	}

	summary, err := record.ToEntity(r.client.location)
	if err != nil {
		return attendance.DailySummary{}, fmt.Errorf("today summary: %w", err)
	}
	return summary, nil
}

// CheckStatus implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CheckStatus(ctx context.Context, userID int64) (attendance.CheckState, error) {
	query := url.Values{}
	query.Set("user_id", formatID(userID))

	var record attendance.CheckStatusRecord
	err := r.client.do(ctx, request{
		op:     "check status",
		method: http.MethodGet,
		path:   "/attendance/check-status",
		query:  query,
		mapErr: adminErrors,
	}, &record)
	if err != nil {
		return attendance.CheckState{}, err
	}
	return attendance.CheckState{EmployeeID: userID, CheckedIn: record.CheckedIn}, nil
}

func (r *attendanceRepositoryImpl) toLogs(records []attendance.LogRecord) ([]attendance.AttendanceLog, error) {
	logs := make([]attendance.AttendanceLog, 0, len(records))
	for i, record := range records {
		log, err := record.ToEntity(r.client.location)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		logs = append(logs, log)
	}
	return logs, nil
}
