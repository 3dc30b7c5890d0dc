package attendance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/validator"
)

// ========================================
// BACKEND WIRE DTOs
// ========================================

// LogRecord is an attendance log as served by /attendance/logs and /admin/all-logs.
type LogRecord struct {
	ID       int64   `json:"id,omitempty"`
	UserID   int64   `json:"user_id"`
	UserName *string `json:"user_name,omitempty"`
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
	Method   string  `json:"method"`
	Date     *string `json:"date,omitempty"`
}

// ToEntity parses the record's timestamps. Offset-less timestamps are read in loc.
func (r LogRecord) ToEntity(loc *time.Location) (AttendanceLog, error) {
	checkIn, err := ParseTimestamp("check_in", r.CheckIn, loc)
	if err != nil {
		return AttendanceLog{}, err
	}
	checkOut, err := ParseTimestamp("check_out", r.CheckOut, loc)
	if err != nil {
		return AttendanceLog{}, err
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		return AttendanceLog{}, &ParseError{Field: "check_out", Value: *r.CheckOut, Err: ErrCheckOutBeforeCheckIn}
	}

	log := AttendanceLog{
		ID:           r.ID,
		EmployeeID:   r.UserID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Method:       r.Method,
		EmployeeName: r.UserName,
	}

	switch {
	case r.Date != nil && *r.Date != "":
		if _, valid := validator.IsValidDate(*r.Date); !valid {
			return AttendanceLog{}, &ParseError{Field: "date", Value: *r.Date, Err: ErrMalformedTimestamp}
		}
		log.Date = *r.Date
	case checkIn != nil:
		log.Date = checkIn.Format(DateLayout)
	case checkOut != nil:
		log.Date = checkOut.Format(DateLayout)
	}

	return log, nil
}

// SummaryRecord is the payload of /attendance/today-summary.
type SummaryRecord struct {
	FirstIn       *string `json:"first_in"`
	FinalOut      *string `json:"final_out"`
	TotalDuration *string `json:"total_duration"`
}

func (r SummaryRecord) ToEntity(loc *time.Location) (DailySummary, error) {
	firstIn, err := ParseTimestamp("first_in", r.FirstIn, loc)
	if err != nil {
		return DailySummary{}, err
	}
	finalOut, err := ParseTimestamp("final_out", r.FinalOut, loc)
	if err != nil {
		return DailySummary{}, err
	}

	var total time.Duration
	if r.TotalDuration != nil && strings.TrimSpace(*r.TotalDuration) != "" {
		total, err = ParseClockDuration(*r.TotalDuration)
		if err != nil {
			return DailySummary{}, err
		}
	}

	return DailySummary{FirstIn: firstIn, FinalOut: finalOut, TotalDuration: total}, nil
}

type CheckRequest struct {
	UserID int64  `json:"user_id"`
	Method string `json:"method"`
}

func (r *CheckRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.UserID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if r.Method == "" {
		r.Method = MethodPortal
	}
	if !validator.IsInSlice(r.Method, ValidMethods) {
		errs = append(errs, validator.ValidationError{
			Field:   "method",
			Message: ErrInvalidMethod.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

const (
	MethodPortal = "portal"
	MethodCard   = "card"
)

var ValidMethods = []string{MethodPortal, MethodCard}

type CheckStatusRecord struct {
	CheckedIn bool `json:"checked_in"`
}

type MessageRecord struct {
	Message string `json:"message"`
}

// ========================================
// FILTER / NAVIGATION DTOs
// ========================================

// LogFilter narrows the admin log table. Both fields are optional.
type LogFilter struct {
	UserID *int64  `json:"user_id,omitempty"`
	Date   *string `json:"date,omitempty"` // YYYY-MM-DD
}

func (f *LogFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.UserID != nil && *f.UserID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a positive number",
		})
	}

	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type MonthRequest struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Nav   string `json:"nav"` // "", prev, next
}

func (r *MonthRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Year < 1 || r.Year > 9999 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 1 and 9999",
		})
	}

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if r.Nav != "" && !validator.IsInSlice(strings.ToLower(r.Nav), []string{"prev", "next"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "nav",
			Message: "nav must be one of: prev, next",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// GATEWAY RESPONSE DTOs
// ========================================

type LogResponse struct {
	ID           int64   `json:"id,omitempty"`
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName *string `json:"employee_name,omitempty"`
	CheckIn      *string `json:"check_in"`
	CheckOut     *string `json:"check_out"`
	Method       string  `json:"method"`
	Date         string  `json:"date"`
}

type SummaryResponse struct {
	FirstIn       *string `json:"first_in"`
	FinalOut      *string `json:"final_out"`
	TotalDuration string  `json:"total_duration"`
	TotalSeconds  int64   `json:"total_seconds"`
}

type DaySummaryResponse struct {
	Date string `json:"date"`
	SummaryResponse
}

type CalendarDayResponse struct {
	Date     string          `json:"date"`
	Day      int             `json:"day"`
	Logs     []LogResponse   `json:"logs"`
	Summary  SummaryResponse `json:"summary"`
	Duration string          `json:"duration"`
}

type CalendarMonthResponse struct {
	Year         int                    `json:"year"`
	Month        int                    `json:"month"`
	Title        string                 `json:"title"`
	StartWeekday int                    `json:"start_weekday"`
	DaysInMonth  int                    `json:"days_in_month"`
	Weekdays     []string               `json:"weekdays"`
	Days         []*CalendarDayResponse `json:"days"`
}

var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}

func NewLogResponse(l AttendanceLog) LogResponse {
	return LogResponse{
		ID:           l.ID,
		EmployeeID:   l.EmployeeID,
		EmployeeName: l.EmployeeName,
		CheckIn:      timePtrToString(l.CheckIn),
		CheckOut:     timePtrToString(l.CheckOut),
		Method:       l.Method,
		Date:         l.Date,
	}
}

func NewLogResponses(logs []AttendanceLog) []LogResponse {
	result := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, NewLogResponse(l))
	}
	return result
}

func NewSummaryResponse(s DailySummary) SummaryResponse {
	return SummaryResponse{
		FirstIn:       timePtrToString(s.FirstIn),
		FinalOut:      timePtrToString(s.FinalOut),
		TotalDuration: FormatClock(s.TotalDuration),
		TotalSeconds:  int64(s.TotalDuration / time.Second),
	}
}

func NewCalendarMonthResponse(m CalendarMonth) CalendarMonthResponse {
	days := make([]*CalendarDayResponse, 0, len(m.Days))
	for _, d := range m.Days {
		if d == nil {
			days = append(days, nil)
			continue
		}
		days = append(days, &CalendarDayResponse{
			Date:     d.Date,
			Day:      d.Day,
			Logs:     NewLogResponses(d.Logs),
			Summary:  NewSummaryResponse(d.Summary),
			Duration: FormatHoursMinutes(d.Duration),
		})
	}

	return CalendarMonthResponse{
		Year:         m.Year,
		Month:        int(m.Month),
		Title:        fmt.Sprintf("%s %d", m.Month.String(), m.Year),
		StartWeekday: m.StartWeekday,
		DaysInMonth:  m.DaysInMonth,
		Weekdays:     Weekdays,
		Days:         days,
	}
}

// ========================================
// TIME PARSING / FORMATTING
// ========================================

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an optional backend timestamp. nil or blank yields nil.
func ParseTimestamp(field string, value *string, loc *time.Location) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	raw := strings.TrimSpace(*value)

	if t, valid := validator.IsValidDateTime(raw); valid {
		t = t.In(loc)
		return &t, nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}

	return nil, &ParseError{Field: field, Value: raw, Err: ErrMalformedTimestamp}
}

var dayPrefix = regexp.MustCompile(`^(-?\d+) days?$`)

// ParseClockDuration parses "H:MM:SS[.ffffff]" optionally prefixed by "N day(s), ".
func ParseClockDuration(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	fail := func() (time.Duration, error) {
		return 0, &ParseError{Field: "total_duration", Value: raw, Err: ErrMalformedDuration}
	}

	var total time.Duration
	clock := raw
	if idx := strings.Index(raw, ","); idx >= 0 {
		m := dayPrefix.FindStringSubmatch(strings.TrimSpace(raw[:idx]))
		if m == nil {
			return fail()
		}
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return fail()
		}
		total += time.Duration(days) * 24 * time.Hour
		clock = strings.TrimSpace(raw[idx+1:])
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return fail()
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return fail()
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return fail()
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return fail()
	}

	total += time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return total, nil
}

// FormatClock renders d as HH:MM:SS, hours unbounded.
func FormatClock(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatHoursMinutes renders d as "8h 30m".
func FormatHoursMinutes(d time.Duration) string {
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
