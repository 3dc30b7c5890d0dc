package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"golang.org/x/sync/errgroup"
)

// refreshConcurrency bounds how many dashboards RefreshAll reloads at once.
const refreshConcurrency = 4

// DashboardServiceImpl maps sessions to their controllers. A controller is
// created on first use and closed on logout or session expiry.
type DashboardServiceImpl struct {
	attendance.AttendanceRepository
	user.UserRepository
	publisher Publisher
	now       func() time.Time

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewDashboardService(attendanceRepo attendance.AttendanceRepository, userRepo user.UserRepository, publisher Publisher) dashboard.DashboardService {
	return &DashboardServiceImpl{
		AttendanceRepository: attendanceRepo,
		UserRepository:       userRepo,
		publisher:            publisher,
		now:                  time.Now,
		controllers:          make(map[string]*Controller),
	}
}

func (s *DashboardServiceImpl) controllerFor(sess session.Session) (*Controller, error) {
	if !sess.IsActive(s.now()) {
		return nil, session.ErrSessionExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.controllers[sess.ID]; ok && !c.Closed() {
		return c, nil
	}
	c := NewController(sess, s.AttendanceRepository, s.UserRepository, s.publisher)
	s.controllers[sess.ID] = c
	return c, nil
}

// mounted returns the session's controller, loading it on first use.
func (s *DashboardServiceImpl) mounted(ctx context.Context, sess session.Session) (*Controller, error) {
	c, err := s.controllerFor(sess)
	if err != nil {
		return nil, err
	}
	if !c.Loaded() {
		// Fetch failures are already on the view as a message.
		_ = c.Load(ctx)
	}
	if c.Closed() {
		return nil, dashboard.ErrDashboardClosed
	}
	return c, nil
}

func (s *DashboardServiceImpl) view(c *Controller) dashboard.ViewResponse {
	return dashboard.NewViewResponse(c.Snapshot())
}

// Mount implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Mount(ctx context.Context, sess session.Session) (dashboard.ViewResponse, error) {
	c, err := s.mounted(ctx, sess)
	if err != nil {
		return dashboard.ViewResponse{}, err
	}
	return s.view(c), nil
}

// Refresh implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Refresh(ctx context.Context, sess session.Session) (dashboard.ViewResponse, error) {
	c, err := s.controllerFor(sess)
	if err != nil {
		return dashboard.ViewResponse{}, err
	}
	if err := c.Refresh(ctx); err != nil && c.Closed() {
		return dashboard.ViewResponse{}, dashboard.ErrDashboardClosed
	}
	return s.view(c), nil
}

// ToggleCheck implements dashboard.DashboardService.
func (s *DashboardServiceImpl) ToggleCheck(ctx context.Context, sess session.Session) (dashboard.ViewResponse, error) {
	c, err := s.mounted(ctx, sess)
	if err != nil {
		return dashboard.ViewResponse{}, err
	}
	if err := c.Toggle(ctx); err != nil {
		return dashboard.ViewResponse{}, err
	}
	return s.view(c), nil
}

// Calendar implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Calendar(ctx context.Context, sess session.Session, req attendance.MonthRequest) (attendance.CalendarMonthResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CalendarMonthResponse{}, err
	}
	c, err := s.mounted(ctx, sess)
	if err != nil {
		return attendance.CalendarMonthResponse{}, err
	}

	month, err := c.Calendar(req)
	if err != nil {
		return attendance.CalendarMonthResponse{}, err
	}
	return attendance.NewCalendarMonthResponse(month), nil
}

// Days implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Days(ctx context.Context, sess session.Session) ([]attendance.DaySummaryResponse, error) {
	c, err := s.mounted(ctx, sess)
	if err != nil {
		return nil, err
	}

	days := c.Days()
	result := make([]attendance.DaySummaryResponse, 0, len(days))
	for _, d := range days {
		result = append(result, attendance.DaySummaryResponse{
			Date:            d.Date,
			SummaryResponse: attendance.NewSummaryResponse(d.Summary),
		})
	}
	return result, nil
}

// SelectEmployee implements dashboard.DashboardService.
func (s *DashboardServiceImpl) SelectEmployee(ctx context.Context, sess session.Session, req dashboard.SelectEmployeeRequest) (dashboard.ViewResponse, error) {
	if err := req.Validate(); err != nil {
		return dashboard.ViewResponse{}, err
	}
	if !sess.User.IsAdmin() {
		return dashboard.ViewResponse{}, user.ErrAdminPrivilegeRequired
	}
	c, err := s.mounted(ctx, sess)
	if err != nil {
		return dashboard.ViewResponse{}, err
	}

	if err := c.SelectEmployee(ctx, req.EmployeeID); err != nil && c.Closed() {
		return dashboard.ViewResponse{}, dashboard.ErrDashboardClosed
	}
	return s.view(c), nil
}

// ApplyFilter implements dashboard.DashboardService.
func (s *DashboardServiceImpl) ApplyFilter(ctx context.Context, sess session.Session, filter attendance.LogFilter) (dashboard.ViewResponse, error) {
	if err := filter.Validate(); err != nil {
		return dashboard.ViewResponse{}, err
	}
	if !sess.User.IsAdmin() {
		return dashboard.ViewResponse{}, user.ErrAdminPrivilegeRequired
	}
	c, err := s.mounted(ctx, sess)
	if err != nil {
		return dashboard.ViewResponse{}, err
	}

	if err := c.ApplyFilter(ctx, filter); err != nil && c.Closed() {
		return dashboard.ViewResponse{}, dashboard.ErrDashboardClosed
	}
	return s.view(c), nil
}

// ListEmployees implements dashboard.DashboardService.
func (s *DashboardServiceImpl) ListEmployees(ctx context.Context, sess session.Session, query string) ([]user.UserResponse, error) {
	if !sess.User.IsAdmin() {
		return nil, user.ErrAdminPrivilegeRequired
	}
	c, err := s.controllerFor(sess)
	if err != nil {
		return nil, err
	}

	employees, err := c.Employees(ctx, query)
	if err != nil {
		return nil, err
	}
	return user.NewUserResponses(employees), nil
}

// CreateUser implements dashboard.DashboardService.
func (s *DashboardServiceImpl) CreateUser(ctx context.Context, sess session.Session, req user.CreateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}
	if !sess.User.IsAdmin() {
		return user.UserResponse{}, user.ErrAdminPrivilegeRequired
	}
	c, err := s.controllerFor(sess)
	if err != nil {
		return user.UserResponse{}, err
	}

	created, err := c.CreateUser(ctx, req)
	if err != nil {
		return user.UserResponse{}, err
	}
	slog.Info("User created", "admin_id", sess.User.ID, "user_id", created.ID)
	return user.NewUserResponse(created), nil
}

// UpdateUser implements dashboard.DashboardService.
func (s *DashboardServiceImpl) UpdateUser(ctx context.Context, sess session.Session, req user.UpdateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}
	if !sess.User.IsAdmin() {
		return user.UserResponse{}, user.ErrAdminPrivilegeRequired
	}
	c, err := s.controllerFor(sess)
	if err != nil {
		return user.UserResponse{}, err
	}

	updated, err := c.UpdateUser(ctx, req)
	if err != nil {
		return user.UserResponse{}, err
	}
	slog.Info("User updated", "admin_id", sess.User.ID, "user_id", updated.ID)
	return user.NewUserResponse(updated), nil
}

// DeleteUser implements dashboard.DashboardService.
func (s *DashboardServiceImpl) DeleteUser(ctx context.Context, sess session.Session, userID int64) error {
	if !sess.User.IsAdmin() {
		return user.ErrAdminPrivilegeRequired
	}
	if userID == sess.User.ID {
		return user.ErrCannotDeleteSelf
	}
	c, err := s.controllerFor(sess)
	if err != nil {
		return err
	}

	if err := c.DeleteUser(ctx, userID); err != nil {
		return err
	}
	slog.Info("User deleted", "admin_id", sess.User.ID, "user_id", userID)
	return nil
}

// Close implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Close(sessionID string) {
	s.mu.Lock()
	c, ok := s.controllers[sessionID]
	delete(s.controllers, sessionID)
	s.mu.Unlock()

	if ok {
		c.Close()
	}
}

// RefreshAll implements dashboard.DashboardService. Dashboards of expired
// sessions are closed instead of refreshed.
func (s *DashboardServiceImpl) RefreshAll(ctx context.Context) error {
	now := s.now()

	s.mu.Lock()
	live := make([]*Controller, 0, len(s.controllers))
	var expired []*Controller
	for id, c := range s.controllers {
		if !c.sess.IsActive(now) || c.Closed() {
			expired = append(expired, c)
			delete(s.controllers, id)
			continue
		}
		if c.Loaded() {
			live = append(live, c)
		}
	}
	s.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, c := range live {
		g.Go(func() error {
			// Per-dashboard failures stay on that dashboard's view.
			_ = c.Refresh(ctx)
			return nil
		})
	}
	err := g.Wait()

	slog.Debug("Dashboards refreshed", "refreshed", len(live), "closed", len(expired), "open", s.Mounted())
	return err
}

// Mounted reports how many dashboards are open.
func (s *DashboardServiceImpl) Mounted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}
