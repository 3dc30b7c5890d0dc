package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/sse"
	attendanceService "github.com/cmlabs-hris/eas-dashboard-go/internal/service/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/service/checkstate"
	"golang.org/x/sync/errgroup"
)

// messageTTL is how long a banner message stays on the view.
const messageTTL = 10 * time.Second

// Publisher receives a session's view after every applied change.
type Publisher interface {
	Publish(sessionID string, event sse.Event)
}

type resource int

const (
	resourceLogs resource = iota
	resourceSummary
	resourceCheckState
	resourceEmployees
	resourceCount
)

func (r resource) String() string {
	switch r {
	case resourceLogs:
		return "logs"
	case resourceSummary:
		return "summary"
	case resourceCheckState:
		return "check state"
	case resourceEmployees:
		return "employees"
	}
	return "unknown"
}

// Controller owns one session's dashboard state. Every fetch is tagged with
// a per-resource sequence number and applied only while it is still the
// latest for that resource and the controller has not been closed.
type Controller struct {
	sess       session.Session
	attendance attendance.AttendanceRepository
	users      user.UserRepository
	publisher  Publisher
	machine    *checkstate.Machine
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	seq    [resourceCount]uint64
	closed bool
	view   dashboard.View
}

func NewController(sess session.Session, attendanceRepo attendance.AttendanceRepository, userRepo user.UserRepository, publisher Publisher) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		sess:       sess,
		attendance: attendanceRepo,
		users:      userRepo,
		publisher:  publisher,
		machine:    checkstate.NewMachine(false),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		view: dashboard.View{
			Scope:      dashboard.ScopeFor(sess.User),
			User:       sess.User,
			SummaryFor: sess.User.ID,
			Logs:       []attendance.AttendanceLog{},
			CheckState: attendance.CheckState{EmployeeID: sess.User.ID},
		},
	}
}

func (c *Controller) isAdmin() bool {
	return c.view.Scope == dashboard.ScopeAdmin
}

// bind derives a ctx that is cancelled when either ctx or the controller ends.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) issue(res resource) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, dashboard.ErrDashboardClosed
	}
	c.seq[res]++
	return c.seq[res], nil
}

// apply runs fn against the view if seq is still current for res.
func (c *Controller) apply(res resource, seq uint64, fn func(v *dashboard.View)) bool {
	c.mu.Lock()
	if c.closed || c.seq[res] != seq {
		c.mu.Unlock()
		slog.Debug("Discarded stale dashboard response", "session_id", c.sess.ID, "resource", res.String(), "seq", seq)
		return false
	}
	fn(&c.view)
	c.view.UpdatedAt = c.now()
	c.mu.Unlock()

	c.publish()
	return true
}

// update mutates the view outside the sequencing of fetches.
func (c *Controller) update(fn func(v *dashboard.View)) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn(&c.view)
	c.view.UpdatedAt = c.now()
	c.mu.Unlock()

	c.publish()
	return true
}

func (c *Controller) setMessage(message string) {
	c.update(func(v *dashboard.View) {
		at := c.now()
		v.Message = message
		v.MessageAt = &at
	})
}

// fail keeps the previous data and surfaces err as a transient message.
// Superseded or cancelled fetches are silent.
func (c *Controller) fail(res resource, seq uint64, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	slog.Warn("Dashboard fetch failed", "session_id", c.sess.ID, "resource", res.String(), "error", err)
	c.apply(res, seq, func(v *dashboard.View) {
		at := c.now()
		v.Message = failureMessage(res, err)
		v.MessageAt = &at
	})
	return err
}

func failureMessage(res resource, err error) string {
	var netErr *apperror.NetworkError
	var parseErr *attendance.ParseError
	switch {
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not load %s: %s", res.String(), netErr.Message())
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Could not load %s: invalid data from attendance service", res.String())
	}
	return fmt.Sprintf("Could not load %s", res.String())
}

func (c *Controller) publish() {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(c.sess.ID, sse.Event{
		Event: dashboard.EventViewUpdated,
		Data:  dashboard.NewViewResponse(c.Snapshot()),
	})
}

// Snapshot returns a copy of the current view. Slices are replaced, never
// mutated in place, so sharing them is safe.
func (c *Controller) Snapshot() dashboard.View {
	c.mu.Lock()
	v := c.view
	c.mu.Unlock()

	v.CheckState = attendance.CheckState{EmployeeID: c.sess.User.ID, CheckedIn: c.machine.CheckedIn()}
	v.Transitioning = c.machine.Transitioning()
	if v.MessageAt != nil && c.now().Sub(*v.MessageAt) > messageTTL {
		v.Message = ""
		v.MessageAt = nil
	}
	return v
}

func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Loaded
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Load issues the logs, summary and check-state fetches concurrently. Each
// result is applied independently; one failing does not cancel the others.
func (c *Controller) Load(ctx context.Context) error {
	ctx, done := c.bind(ctx)
	defer done()

	var g errgroup.Group
	g.Go(func() error { return c.fetchLogs(ctx) })
	g.Go(func() error { return c.fetchSummary(ctx) })
	g.Go(func() error { return c.fetchCheckState(ctx) })
	err := g.Wait()

	c.update(func(v *dashboard.View) { v.Loaded = true })
	return err
}

func (c *Controller) fetchLogs(ctx context.Context) error {
	seq, err := c.issue(resourceLogs)
	if err != nil {
		return err
	}

	var logs []attendance.AttendanceLog
	if c.isAdmin() {
		c.mu.Lock()
		filter := c.view.Filter
		c.mu.Unlock()
		logs, err = c.attendance.ListAll(ctx, c.sess.User.ID, filter)
	} else {
		logs, err = c.attendance.ListByEmployee(ctx, c.sess.User.ID)
	}
	if err != nil {
		return c.fail(resourceLogs, seq, err)
	}

	c.apply(resourceLogs, seq, func(v *dashboard.View) { v.Logs = logs })
	return nil
}

// summaryTarget is the selected employee for admins, otherwise the user.
func (c *Controller) summaryTarget() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isAdmin() && c.view.SelectedEmployeeID != nil {
		return *c.view.SelectedEmployeeID
	}
	return c.sess.User.ID
}

func (c *Controller) fetchSummary(ctx context.Context) error {
	seq, err := c.issue(resourceSummary)
	if err != nil {
		return err
	}

	target := c.summaryTarget()
	summary, err := c.attendance.TodaySummary(ctx, c.sess.User.ID, target)
	if err != nil {
		return c.fail(resourceSummary, seq, err)
	}

	c.apply(resourceSummary, seq, func(v *dashboard.View) {
		v.Summary = summary
		v.SummaryFor = target
	})
	return nil
}

func (c *Controller) fetchCheckState(ctx context.Context) error {
	seq, err := c.issue(resourceCheckState)
	if err != nil {
		return err
	}

	state, err := c.attendance.CheckStatus(ctx, c.sess.User.ID)
	if err != nil {
		return c.fail(resourceCheckState, seq, err)
	}

	c.apply(resourceCheckState, seq, func(v *dashboard.View) {
		c.machine.Sync(state.CheckedIn)
	})
	return nil
}

// Refresh re-runs Load.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// Toggle checks the session user in or out. The state flips only after the
// backend acknowledges; logs and summary are refreshed after that ack.
// A toggle while another is in flight fails with attendance.ErrCheckInProgress.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.Closed() {
		return dashboard.ErrDashboardClosed
	}
	ctx, done := c.bind(ctx)
	defer done()

	var ack attendance.MessageRecord
	checkedIn, err := c.machine.Toggle(ctx, func(ctx context.Context, checkIn bool) error {
		// A check-state fetch issued before this toggle must not land after it.
		c.mu.Lock()
		c.seq[resourceCheckState]++
		c.mu.Unlock()
		c.publish()

		req := attendance.CheckRequest{UserID: c.sess.User.ID}
		var err error
		if checkIn {
			ack, err = c.attendance.CheckIn(ctx, req)
		} else {
			ack, err = c.attendance.CheckOut(ctx, req)
		}
		if err != nil {
			return err
		}

		// Fetches issued during the transition may carry the pre-ack state.
		// Bump while Sync is still blocked so none of them lands afterwards.
		c.mu.Lock()
		c.seq[resourceCheckState]++
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		if errors.Is(err, attendance.ErrCheckInProgress) {
			return err
		}
		slog.Warn("Check toggle failed", "session_id", c.sess.ID, "user_id", c.sess.User.ID, "error", err)
		var netErr *apperror.NetworkError
		message := "Check-in/out failed"
		if errors.As(err, &netErr) {
			message = "Check-in/out failed: " + netErr.Message()
		}
		c.setMessage(message)
		return err
	}

	slog.Info("Check state changed", "session_id", c.sess.ID, "user_id", c.sess.User.ID, "checked_in", checkedIn)
	message := ack.Message
	if message == "" {
		message = "Checked out"
		if checkedIn {
			message = "Checked in"
		}
	}
	c.setMessage(message)

	var g errgroup.Group
	g.Go(func() error { return c.fetchLogs(ctx) })
	g.Go(func() error { return c.fetchSummary(ctx) })
	_ = g.Wait()

	return nil
}

// SelectEmployee re-scopes the summary to employeeID, or back to the admin
// when nil. The log table is left alone.
func (c *Controller) SelectEmployee(ctx context.Context, employeeID *int64) error {
	if !c.isAdmin() {
		return user.ErrAdminPrivilegeRequired
	}
	ctx, done := c.bind(ctx)
	defer done()

	var selected *int64
	if employeeID != nil {
		id := *employeeID
		selected = &id
	}
	if !c.update(func(v *dashboard.View) { v.SelectedEmployeeID = selected }) {
		return dashboard.ErrDashboardClosed
	}

	return c.fetchSummary(ctx)
}

// ApplyFilter re-scopes the admin log table.
func (c *Controller) ApplyFilter(ctx context.Context, filter attendance.LogFilter) error {
	if !c.isAdmin() {
		return user.ErrAdminPrivilegeRequired
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	ctx, done := c.bind(ctx)
	defer done()

	if !c.update(func(v *dashboard.View) { v.Filter = filter }) {
		return dashboard.ErrDashboardClosed
	}

	return c.fetchLogs(ctx)
}

func (c *Controller) LoadEmployees(ctx context.Context) error {
	if !c.isAdmin() {
		return user.ErrAdminPrivilegeRequired
	}
	ctx, done := c.bind(ctx)
	defer done()

	seq, err := c.issue(resourceEmployees)
	if err != nil {
		return err
	}

	employees, err := c.users.ListEmployees(ctx, c.sess.User.ID)
	if err != nil {
		return c.fail(resourceEmployees, seq, err)
	}

	listedEmployees := make([]user.User, 0, len(employees))
	for _, e := range employees {
		if listed(e) {
			listedEmployees = append(listedEmployees, e)
		}
	}

	c.apply(resourceEmployees, seq, func(v *dashboard.View) {
		v.Employees = listedEmployees
		v.EmployeesLoaded = true
	})
	return nil
}

// Employees searches the loaded employee list, loading it on first use.
// An empty query returns everyone.
func (c *Controller) Employees(ctx context.Context, query string) ([]user.User, error) {
	if !c.isAdmin() {
		return nil, user.ErrAdminPrivilegeRequired
	}

	c.mu.Lock()
	loaded := c.view.EmployeesLoaded
	c.mu.Unlock()
	if !loaded {
		if err := c.LoadEmployees(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	employees := c.view.Employees
	c.mu.Unlock()

	return searchEmployees(employees, query), nil
}

// listed reports whether u belongs in the admin's employee list. Admins
// are left out.
func listed(u user.User) bool {
	return !u.IsAdmin()
}

func searchEmployees(employees []user.User, query string) []user.User {
	query = strings.ToLower(strings.TrimSpace(query))
	result := make([]user.User, 0, len(employees))
	for _, e := range employees {
		if query == "" || matchesEmployee(e, query) {
			result = append(result, e)
		}
	}
	return result
}

func matchesEmployee(e user.User, query string) bool {
	if strings.Contains(strings.ToLower(e.Name), query) ||
		strings.Contains(strings.ToLower(e.Email), query) ||
		fmt.Sprintf("%d", e.ID) == query {
		return true
	}
	return e.Department != nil && strings.Contains(strings.ToLower(*e.Department), query)
}

// reconcileEmployees edits the local list without refetching. Any in-flight
// list fetch is superseded so it cannot undo the edit.
func (c *Controller) reconcileEmployees(fn func(employees []user.User) []user.User) {
	c.mu.Lock()
	c.seq[resourceEmployees]++
	c.mu.Unlock()

	c.update(func(v *dashboard.View) {
		if !v.EmployeesLoaded {
			return
		}
		v.Employees = fn(append([]user.User(nil), v.Employees...))
	})
}

func (c *Controller) CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	if !c.isAdmin() {
		return user.User{}, user.ErrAdminPrivilegeRequired
	}
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}
	ctx, done := c.bind(ctx)
	defer done()

	created, err := c.users.Create(ctx, c.sess.User.ID, req)
	if err != nil {
		return user.User{}, err
	}

	c.reconcileEmployees(func(employees []user.User) []user.User {
		if !listed(created) {
			return employees
		}
		return append(employees, created)
	})
	c.setMessage(fmt.Sprintf("User %s created", created.Name))
	return created, nil
}

func (c *Controller) UpdateUser(ctx context.Context, req user.UpdateUserRequest) (user.User, error) {
	if !c.isAdmin() {
		return user.User{}, user.ErrAdminPrivilegeRequired
	}
	if err := req.Validate(); err != nil {
		return user.User{}, err
	}
	ctx, done := c.bind(ctx)
	defer done()

	updated, err := c.users.Update(ctx, c.sess.User.ID, req)
	if err != nil {
		return user.User{}, err
	}

	c.reconcileEmployees(func(employees []user.User) []user.User {
		result := employees[:0]
		for _, e := range employees {
			if e.ID != updated.ID {
				result = append(result, e)
				continue
			}
			if listed(updated) {
				result = append(result, updated)
			}
		}
		return result
	})
	c.setMessage(fmt.Sprintf("User %s updated", updated.Name))
	return updated, nil
}

// DeleteUser removes userID and drops it from the local list. Deleting the
// selected employee falls the summary back to the admin.
func (c *Controller) DeleteUser(ctx context.Context, userID int64) error {
	if !c.isAdmin() {
		return user.ErrAdminPrivilegeRequired
	}
	ctx, done := c.bind(ctx)
	defer done()

	if err := c.users.Delete(ctx, c.sess.User.ID, userID); err != nil {
		return err
	}

	c.reconcileEmployees(func(employees []user.User) []user.User {
		result := employees[:0]
		for _, e := range employees {
			if e.ID != userID {
				result = append(result, e)
			}
		}
		return result
	})
	c.setMessage("User deleted")

	c.mu.Lock()
	wasSelected := c.view.SelectedEmployeeID != nil && *c.view.SelectedEmployeeID == userID
	c.mu.Unlock()
	if wasSelected {
		// The delete stands; a failed re-scope fetch is already on the view.
		if err := c.SelectEmployee(ctx, nil); errors.Is(err, dashboard.ErrDashboardClosed) {
			return err
		}
	}
	return nil
}

// Calendar groups the current logs into the requested month, after applying
// the optional prev/next navigation.
func (c *Controller) Calendar(req attendance.MonthRequest) (attendance.CalendarMonth, error) {
	if err := req.Validate(); err != nil {
		return attendance.CalendarMonth{}, err
	}

	year, month := req.Year, time.Month(req.Month)
	switch strings.ToLower(req.Nav) {
	case "prev":
		year, month = attendanceService.PrevMonth(year, month)
	case "next":
		year, month = attendanceService.NextMonth(year, month)
	}

	return attendanceService.BuildMonth(c.Snapshot().Logs, year, month), nil
}

// Days summarizes the current logs per calendar day.
func (c *Controller) Days() []attendance.DaySummary {
	return attendanceService.SummarizeByDay(c.Snapshot().Logs)
}

// Close abandons the dashboard. In-flight fetches are cancelled and any
// response still arriving is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	if c.publisher != nil {
		c.publisher.Publish(c.sess.ID, sse.Event{Event: dashboard.EventSessionEnd})
	}
}
