package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/response"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AdminHandler interface {
	// Employees
	ListEmployees(w http.ResponseWriter, r *http.Request)
	CreateEmployee(w http.ResponseWriter, r *http.Request)
	UpdateEmployee(w http.ResponseWriter, r *http.Request)
	DeleteEmployee(w http.ResponseWriter, r *http.Request)

	// View scope
	SelectEmployee(w http.ResponseWriter, r *http.Request)
	ApplyFilter(w http.ResponseWriter, r *http.Request)
}

type adminHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewAdminHandler(dashboardService dashboard.DashboardService) AdminHandler {
	return &adminHandlerImpl{
		dashboardService: dashboardService,
	}
}

// ListEmployees searches the employee list, loading it on first use
func (h *adminHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	employees, err := h.dashboardService.ListEmployees(r.Context(), sess, r.URL.Query().Get("q"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, employees, &response.Meta{TotalItems: int64(len(employees))})
}

func (h *adminHandlerImpl) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req user.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.dashboardService.CreateUser(r.Context(), sess, req)
	if err != nil {
		slog.Error("CreateEmployee service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Employee created successfully", created)
}

func (h *adminHandlerImpl) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	id, ok := validator.ParseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid employee ID", nil)
		return
	}

	var req user.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	updated, err := h.dashboardService.UpdateUser(r.Context(), sess, req)
	if err != nil {
		slog.Error("UpdateEmployee service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee updated successfully", updated)
}

func (h *adminHandlerImpl) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	id, ok := validator.ParseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid employee ID", nil)
		return
	}

	if err := h.dashboardService.DeleteUser(r.Context(), sess, id); err != nil {
		slog.Error("DeleteEmployee service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee deleted successfully", nil)
}

// SelectEmployee re-scopes the summary card; a null employee_id clears it
func (h *adminHandlerImpl) SelectEmployee(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req dashboard.SelectEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	view, err := h.dashboardService.SelectEmployee(r.Context(), sess, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, view)
}

func (h *adminHandlerImpl) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var filter attendance.LogFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	view, err := h.dashboardService.ApplyFilter(r.Context(), sess, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, view)
}
