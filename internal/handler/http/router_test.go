package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/response"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/sse"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/repository/memory"
	authService "github.com/cmlabs-hris/eas-dashboard-go/internal/service/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type fakeAuthRepository struct {
	users map[string]user.User
}

func (f *fakeAuthRepository) Login(ctx context.Context, req auth.LoginRequest) (user.User, error) {
	u, ok := f.users[req.Email]
	if !ok || req.Password != "password123" {
		return user.User{}, auth.ErrInvalidCredentials
	}
	return u, nil
}

// fakeDashboard records calls and returns canned views.
type fakeDashboard struct {
	toggleErr error
	closed    []string
	employees []user.UserResponse
	lastMonth attendance.MonthRequest
	lastUser  user.UpdateUserRequest
}

func (f *fakeDashboard) view(sess session.Session) dashboard.ViewResponse {
	return dashboard.ViewResponse{
		Scope: dashboard.ScopeFor(sess.User),
		User:  user.NewUserResponse(sess.User),
		Logs:  []attendance.LogResponse{},
	}
}

func (f *fakeDashboard) Mount(ctx context.Context, sess session.Session) (dashboard.ViewResponse, error) {
	return f.view(sess), nil
}

func (f *fakeDashboard) Refresh(ctx context.Context, sess session.Session) (dashboard.ViewResponse, error) {
	return f.view(sess), nil
}

func (f *fakeDashboard) ToggleCheck(ctx context.Context, sess session.Session) (dashboard.ViewResponse, error) {
	if f.toggleErr != nil {
		return dashboard.ViewResponse{}, f.toggleErr
	}
	v := f.view(sess)
	v.CheckState.CheckedIn = true
	return v, nil
}

func (f *fakeDashboard) Calendar(ctx context.Context, sess session.Session, req attendance.MonthRequest) (attendance.CalendarMonthResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CalendarMonthResponse{}, err
	}
	f.lastMonth = req
	return attendance.CalendarMonthResponse{Year: req.Year, Month: req.Month}, nil
}

func (f *fakeDashboard) Days(ctx context.Context, sess session.Session) ([]attendance.DaySummaryResponse, error) {
	return []attendance.DaySummaryResponse{}, nil
}

func (f *fakeDashboard) SelectEmployee(ctx context.Context, sess session.Session, req dashboard.SelectEmployeeRequest) (dashboard.ViewResponse, error) {
	v := f.view(sess)
	v.SelectedEmployeeID = req.EmployeeID
	return v, nil
}

func (f *fakeDashboard) ApplyFilter(ctx context.Context, sess session.Session, filter attendance.LogFilter) (dashboard.ViewResponse, error) {
	if err := filter.Validate(); err != nil {
		return dashboard.ViewResponse{}, err
	}
	v := f.view(sess)
	v.Filter = &filter
	return v, nil
}

func (f *fakeDashboard) ListEmployees(ctx context.Context, sess session.Session, query string) ([]user.UserResponse, error) {
	return f.employees, nil
}

func (f *fakeDashboard) CreateUser(ctx context.Context, sess session.Session, req user.CreateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}
	return user.UserResponse{ID: 99, Name: req.Name, Email: req.Email, Role: req.Role}, nil
}

func (f *fakeDashboard) UpdateUser(ctx context.Context, sess session.Session, req user.UpdateUserRequest) (user.UserResponse, error) {
	f.lastUser = req
	return user.UserResponse{ID: req.ID}, nil
}

func (f *fakeDashboard) DeleteUser(ctx context.Context, sess session.Session, userID int64) error {
	if userID == sess.User.ID {
		return user.ErrCannotDeleteSelf
	}
	return nil
}

func (f *fakeDashboard) Close(sessionID string) {
	f.closed = append(f.closed, sessionID)
}

func (f *fakeDashboard) RefreshAll(ctx context.Context) error { return nil }

type testRouter struct {
	handler   *chi.Mux
	dashboard *fakeDashboard
	hub       *sse.Hub
}

func newTestRouter(t *testing.T) testRouter {
	t.Helper()
	authRepo := &fakeAuthRepository{users: map[string]user.User{
		"ana@example.com":   {ID: 7, Name: "Ana", Email: "ana@example.com", Role: user.RoleEmployee},
		"admin@example.com": {ID: 1, Name: "Admin", Email: "admin@example.com", Role: user.RoleAdmin},
	}}
	jwtSvc := jwt.NewJWTService(handlerTestSecret, "1h")
	dash := &fakeDashboard{}
	authSvc := authService.NewAuthService(authRepo, memory.NewSessionRepository(), jwtSvc, dash, time.Hour)
	hub := sse.NewHub()

	router := NewRouter(
		RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}, Env: "test", Version: "test"},
		jwtSvc,
		authSvc,
		NewAuthHandler(authSvc),
		NewDashboardHandler(dash, hub, time.UTC),
		NewAdminHandler(dash),
	)
	return testRouter{handler: router, dashboard: dash, hub: hub}
}

func (tr testRouter) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)

	var resp response.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (tr testRouter) login(t *testing.T, email string) auth.TokenResponse {
	t.Helper()
	rec, resp := tr.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var token auth.TokenResponse
	require.NoError(t, json.Unmarshal(raw, &token))
	return token
}

func TestRouter_LoginAndMe(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "ana@example.com")

	rec, resp := tr.do(t, http.MethodGet, "/api/v1/me", token.AccessToken, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Ana", resp.Data.(map[string]interface{})["name"])
}

func TestRouter_LoginRejected(t *testing.T) {
	tr := newTestRouter(t)

	rec, resp := tr.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	rec, resp = tr.do(t, http.MethodPost, "/api/v1/auth/login", "", auth.LoginRequest{Email: "bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error.Details, "password")
}

func TestRouter_RequiresToken(t *testing.T) {
	tr := newTestRouter(t)

	rec, _ := tr.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = tr.do(t, http.MethodGet, "/api/v1/dashboard", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LogoutRevokesSession(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "ana@example.com")

	rec, _ := tr.do(t, http.MethodPost, "/api/v1/auth/logout", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{token.SessionID}, tr.dashboard.closed)

	rec, _ = tr.do(t, http.MethodGet, "/api/v1/dashboard", token.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Check(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "ana@example.com")

	rec, resp := tr.do(t, http.MethodPost, "/api/v1/dashboard/check", token.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Checked in successfully", resp.Message)

	tr.dashboard.toggleErr = attendance.ErrCheckInProgress
	rec, resp = tr.do(t, http.MethodPost, "/api/v1/dashboard/check", token.AccessToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestRouter_CalendarQuery(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "ana@example.com")

	rec, _ := tr.do(t, http.MethodGet, "/api/v1/dashboard/calendar?year=2024&month=12&nav=next", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, attendance.MonthRequest{Year: 2024, Month: 12, Nav: "next"}, tr.dashboard.lastMonth)

	rec, resp := tr.do(t, http.MethodGet, "/api/v1/dashboard/calendar?year=2024&month=13", token.AccessToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error.Details, "month")

	rec, resp = tr.do(t, http.MethodGet, "/api/v1/dashboard/calendar?month=feb", token.AccessToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error.Details, "month")

	rec, _ = tr.do(t, http.MethodGet, "/api/v1/dashboard/calendar", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Now().UTC().Year(), tr.dashboard.lastMonth.Year)
}

func TestRouter_AdminRoutesForbiddenToEmployees(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "ana@example.com")

	rec, resp := tr.do(t, http.MethodGet, "/api/v1/admin/employees", token.AccessToken, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestRouter_AdminEmployees(t *testing.T) {
	tr := newTestRouter(t)
	tr.dashboard.employees = []user.UserResponse{{ID: 7, Name: "Ana"}, {ID: 8, Name: "Budi"}}
	token := tr.login(t, "admin@example.com")

	rec, resp := tr.do(t, http.MethodGet, "/api/v1/admin/employees?q=a", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.TotalItems)

	rec, _ = tr.do(t, http.MethodPost, "/api/v1/admin/employees", token.AccessToken, user.CreateUserRequest{Name: "Citra", Email: "citra@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	name := "Ana S."
	rec, _ = tr.do(t, http.MethodPatch, "/api/v1/admin/employees/7", token.AccessToken, user.UpdateUserRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), tr.dashboard.lastUser.ID)

	rec, _ = tr.do(t, http.MethodPatch, "/api/v1/admin/employees/abc", token.AccessToken, user.UpdateUserRequest{Name: &name})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = tr.do(t, http.MethodDelete, "/api/v1/admin/employees/1", token.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminSelectionAndFilter(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "admin@example.com")

	rec, resp := tr.do(t, http.MethodPut, "/api/v1/admin/selection", token.AccessToken, map[string]interface{}{"employee_id": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, resp.Data.(map[string]interface{})["selected_employee_id"])

	rec, resp = tr.do(t, http.MethodPut, "/api/v1/admin/filter", token.AccessToken, map[string]interface{}{"date": "06/05/2024"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error.Details, "date")
}

func TestRouter_EventsStream(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.login(t, "ana@example.com")
	server := httptest.NewServer(tr.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/dashboard/events?token="+token.AccessToken, nil)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: "+dashboard.EventViewUpdated+"\n", line)

	require.Eventually(t, func() bool { return tr.hub.SubscriberCount(token.SessionID) == 1 }, time.Second, 5*time.Millisecond)
	tr.hub.Publish(token.SessionID, sse.Event{Event: dashboard.EventSessionEnd})

	var names []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.HasPrefix(line, "event: ") {
			names = append(names, strings.TrimSpace(strings.TrimPrefix(line, "event: ")))
		}
	}
	assert.Equal(t, []string{dashboard.EventSessionEnd}, names)
}
