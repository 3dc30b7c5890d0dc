package attendance

import (
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
)

// DaysInMonth returns the number of days in month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartWeekday returns the weekday of the 1st (0 = Sunday).
func StartWeekday(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

func NextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// BuildMonth buckets logs by the calendar day of their check-in and lays the
// month out as a 7-column grid. Logs without a check-in are left out.
func BuildMonth(logs []attendance.AttendanceLog, year int, month time.Month) attendance.CalendarMonth {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()

	buckets := make(map[int][]attendance.AttendanceLog)
	for _, log := range logs {
		if log.CheckIn == nil {
			continue
		}
		y, m, d := log.CheckIn.Date()
		if y != year || m != month {
			continue
		}
		buckets[d] = append(buckets[d], log)
	}

	offset := StartWeekday(year, month)
	daysInMonth := DaysInMonth(year, month)

	days := make([]*attendance.CalendarDay, offset, offset+daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		dayLogs := buckets[d]
		if dayLogs == nil {
			dayLogs = []attendance.AttendanceLog{}
		}
		summary := Summarize(dayLogs)
		days = append(days, &attendance.CalendarDay{
			Date:     time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Format(attendance.DateLayout),
			Day:      d,
			Logs:     dayLogs,
			Summary:  summary,
			Duration: summary.TotalDuration,
		})
	}

	return attendance.CalendarMonth{
		Year:         year,
		Month:        month,
		StartWeekday: offset,
		DaysInMonth:  daysInMonth,
		Days:         days,
	}
}
