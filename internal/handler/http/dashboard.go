package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/response"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/sse"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/validator"
)

const keepaliveInterval = 30 * time.Second

type DashboardHandler interface {
	Mount(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	Check(w http.ResponseWriter, r *http.Request)
	Calendar(w http.ResponseWriter, r *http.Request)
	Days(w http.ResponseWriter, r *http.Request)

	// SSE
	Events(w http.ResponseWriter, r *http.Request)
}

// Subscriber opens a stream of events for one session.
type Subscriber interface {
	Subscribe(sessionID string) (chan sse.Event, func())
	TotalSubscribers() int
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
	subscriber       Subscriber
	location         *time.Location
}

func NewDashboardHandler(dashboardService dashboard.DashboardService, subscriber Subscriber, location *time.Location) DashboardHandler {
	return &dashboardHandlerImpl{
		dashboardService: dashboardService,
		subscriber:       subscriber,
		location:         location,
	}
}

// Mount returns the session's dashboard, loading it on first call
func (h *dashboardHandlerImpl) Mount(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	view, err := h.dashboardService.Mount(r.Context(), sess)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, view)
}

func (h *dashboardHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	view, err := h.dashboardService.Refresh(r.Context(), sess)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, view)
}

// Check toggles the session user between checked in and checked out
func (h *dashboardHandlerImpl) Check(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	view, err := h.dashboardService.ToggleCheck(r.Context(), sess)
	if err != nil {
		slog.Warn("Check toggle failed", "user_id", sess.User.ID, "error", err)
		response.HandleError(w, err)
		return
	}

	message := "Checked out successfully"
	if view.CheckState.CheckedIn {
		message = "Checked in successfully"
	}
	response.SuccessWithMessage(w, message, view)
}

// Calendar defaults to the current month when year or month is omitted
func (h *dashboardHandlerImpl) Calendar(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	req, err := h.parseMonthRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	month, err := h.dashboardService.Calendar(r.Context(), sess, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, month)
}

func (h *dashboardHandlerImpl) parseMonthRequest(r *http.Request) (attendance.MonthRequest, error) {
	now := time.Now().In(h.location)
	req := attendance.MonthRequest{
		Year:  now.Year(),
		Month: int(now.Month()),
		Nav:   r.URL.Query().Get("nav"),
	}

	var errs validator.ValidationErrors
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a number"})
		}
		req.Year = year
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be a number"})
		}
		req.Month = month
	}

	if len(errs) > 0 {
		return req, errs
	}
	return req, nil
}

func (h *dashboardHandlerImpl) Days(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	days, err := h.dashboardService.Days(r.Context(), sess)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, days)
}

// Events streams view updates for the session until the client goes away
// or the session ends.
func (h *dashboardHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	// Subscribe before mounting so no update between the two is lost
	events, cleanup := h.subscriber.Subscribe(sess.ID)
	defer func() {
		cleanup()
		slog.Debug("Dashboard stream closed", "session_id", sess.ID, "streams", h.subscriber.TotalSubscribers())
	}()
	slog.Debug("Dashboard stream opened", "session_id", sess.ID, "streams", h.subscriber.TotalSubscribers())

	view, err := h.dashboardService.Mount(r.Context(), sess)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, dashboard.EventViewUpdated, view)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, event.Event, event.Data); err != nil {
				slog.Warn("SSE event dropped", "event", event.Event, "error", err)
				continue
			}
			flusher.Flush()
			if event.Event == dashboard.EventSessionEnd {
				return
			}

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
