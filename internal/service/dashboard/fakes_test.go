package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/sse"
)

type fakeAttendance struct {
	mu    sync.Mutex
	calls []string

	checkIn        func(ctx context.Context, req attendance.CheckRequest) (attendance.MessageRecord, error)
	checkOut       func(ctx context.Context, req attendance.CheckRequest) (attendance.MessageRecord, error)
	listByEmployee func(ctx context.Context, userID int64) ([]attendance.AttendanceLog, error)
	listAll        func(ctx context.Context, adminID int64, filter attendance.LogFilter) ([]attendance.AttendanceLog, error)
	todaySummary   func(ctx context.Context, currentUserID, userID int64) (attendance.DailySummary, error)
	checkStatus    func(ctx context.Context, userID int64) (attendance.CheckState, error)
}

func (f *fakeAttendance) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAttendance) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAttendance) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeAttendance) Count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAttendance) CheckIn(ctx context.Context, req attendance.CheckRequest) (attendance.MessageRecord, error) {
	f.record("check-in")
	var msg attendance.MessageRecord
	var err error
	if f.checkIn != nil {
		msg, err = f.checkIn(ctx, req)
	}
	if err == nil {
		f.record("ack:check-in")
	}
	return msg, err
}

func (f *fakeAttendance) CheckOut(ctx context.Context, req attendance.CheckRequest) (attendance.MessageRecord, error) {
	f.record("check-out")
	var msg attendance.MessageRecord
	var err error
	if f.checkOut != nil {
		msg, err = f.checkOut(ctx, req)
	}
	if err == nil {
		f.record("ack:check-out")
	}
	return msg, err
}

func (f *fakeAttendance) ListByEmployee(ctx context.Context, userID int64) ([]attendance.AttendanceLog, error) {
	f.record("logs")
	if f.listByEmployee != nil {
		return f.listByEmployee(ctx, userID)
	}
	return []attendance.AttendanceLog{}, nil
}

func (f *fakeAttendance) ListAll(ctx context.Context, adminID int64, filter attendance.LogFilter) ([]attendance.AttendanceLog, error) {
	f.record("all-logs")
	if f.listAll != nil {
		return f.listAll(ctx, adminID, filter)
	}
	return []attendance.AttendanceLog{}, nil
}

func (f *fakeAttendance) TodaySummary(ctx context.Context, currentUserID, userID int64) (attendance.DailySummary, error) {
	f.record("summary")
	if f.todaySummary != nil {
		return f.todaySummary(ctx, currentUserID, userID)
	}
	return attendance.DailySummary{}, nil
}

func (f *fakeAttendance) CheckStatus(ctx context.Context, userID int64) (attendance.CheckState, error) {
	f.record("check-status")
	if f.checkStatus != nil {
		return f.checkStatus(ctx, userID)
	}
	return attendance.CheckState{EmployeeID: userID}, nil
}

type fakeUsers struct {
	mu        sync.Mutex
	listCalls int
	employees []user.User
	nextID    int64
	err       error
}

func (f *fakeUsers) ListEmployees(ctx context.Context, adminID int64) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]user.User(nil), f.employees...), nil
}

func (f *fakeUsers) Create(ctx context.Context, adminID int64, req user.CreateUserRequest) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return user.User{}, f.err
	}
	f.nextID++
	return user.User{ID: f.nextID, Name: req.Name, Email: req.Email, Role: user.NormalizeRole(req.Role)}, nil
}

func (f *fakeUsers) Update(ctx context.Context, adminID int64, req user.UpdateUserRequest) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return user.User{}, f.err
	}
	for _, e := range f.employees {
		if e.ID == req.ID {
			if req.Name != nil {
				e.Name = *req.Name
			}
			if req.Role != nil {
				e.Role = user.NormalizeRole(*req.Role)
			}
			return e, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUsers) Delete(ctx context.Context, adminID int64, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *fakePublisher) Publish(sessionID string, event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.SessionID = sessionID
	p.events = append(p.events, event)
}

func (p *fakePublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Event)
	}
	return names
}

func employeeSession(id int64) session.Session {
	now := time.Now()
	return session.Session{
		ID:        "employee-session",
		User:      user.User{ID: id, Name: "Ana", Email: "ana@example.com", Role: user.RoleEmployee},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func adminSession(id int64) session.Session {
	now := time.Now()
	return session.Session{
		ID:        "admin-session",
		User:      user.User{ID: id, Name: "Root", Email: "root@example.com", Role: user.RoleAdmin},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func at(t *testing.T, value string) *time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, time.UTC)
	if err != nil {
		t.Fatalf("bad time %q: %v", value, err)
	}
	return &ts
}

func logOf(t *testing.T, employeeID int64, in, out string) attendance.AttendanceLog {
	t.Helper()
	log := attendance.AttendanceLog{EmployeeID: employeeID, Method: attendance.MethodPortal}
	if in != "" {
		log.CheckIn = at(t, in)
		log.Date = log.CheckIn.Format(attendance.DateLayout)
	}
	if out != "" {
		log.CheckOut = at(t, out)
	}
	return log
}

// waitFor fails the test if ch is not closed within a second.
func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting")
	}
}
