package dashboard

import (
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/validator"
)

type CheckStateResponse struct {
	EmployeeID    int64  `json:"employee_id"`
	CheckedIn     bool   `json:"checked_in"`
	Transitioning bool   `json:"transitioning"`
	Status        string `json:"status"` // CHECKED_IN, CHECKED_OUT, TRANSITIONING
	Hint          string `json:"hint"`
}

type ViewResponse struct {
	Scope              Scope                      `json:"scope"`
	User               user.UserResponse          `json:"user"`
	CheckState         CheckStateResponse         `json:"check_state"`
	Summary            attendance.SummaryResponse `json:"summary"`
	SummaryFor         int64                      `json:"summary_for"`
	SelectedEmployeeID *int64                     `json:"selected_employee_id,omitempty"`
	Filter             *attendance.LogFilter      `json:"filter,omitempty"`
	Logs               []attendance.LogResponse   `json:"logs"`
	Employees          []user.UserResponse        `json:"employees,omitempty"`
	Message            string                     `json:"message,omitempty"`
	MessageAt          *string                    `json:"message_at,omitempty"`
	Loaded             bool                       `json:"loaded"`
	UpdatedAt          string                     `json:"updated_at"`
}

func NewViewResponse(v View) ViewResponse {
	status, hint := "CHECKED_OUT", "Tap to check in"
	switch {
	case v.Transitioning:
		status, hint = "TRANSITIONING", "Processing..."
	case v.CheckState.CheckedIn:
		status, hint = "CHECKED_IN", "Tap to check out"
	}

	resp := ViewResponse{
		Scope: v.Scope,
		User:  user.NewUserResponse(v.User),
		CheckState: CheckStateResponse{
			EmployeeID:    v.CheckState.EmployeeID,
			CheckedIn:     v.CheckState.CheckedIn,
			Transitioning: v.Transitioning,
			Status:        status,
			Hint:          hint,
		},
		Summary:            attendance.NewSummaryResponse(v.Summary),
		SummaryFor:         v.SummaryFor,
		SelectedEmployeeID: v.SelectedEmployeeID,
		Logs:               attendance.NewLogResponses(v.Logs),
		Message:            v.Message,
		Loaded:             v.Loaded,
		UpdatedAt:          v.UpdatedAt.Format(time.RFC3339),
	}

	if v.Scope == ScopeAdmin {
		filter := v.Filter
		resp.Filter = &filter
		resp.Employees = user.NewUserResponses(v.Employees)
	}
	if v.MessageAt != nil {
		at := v.MessageAt.Format(time.RFC3339)
		resp.MessageAt = &at
	}

	return resp
}

// SelectEmployeeRequest re-scopes the admin summary. A nil EmployeeID clears
// the selection and falls back to the admin's own summary.
type SelectEmployeeRequest struct {
	EmployeeID *int64 `json:"employee_id"`
}

func (r *SelectEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && *r.EmployeeID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a positive number",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
