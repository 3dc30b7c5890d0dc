package attendance

import (
	"sort"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/attendance"
)

// Summarize folds logs into first-in, final-out and total worked time.
// Open sessions count towards FirstIn but add nothing to TotalDuration.
// The input is not modified and the result does not alias it.
func Summarize(logs []attendance.AttendanceLog) attendance.DailySummary {
	var summary attendance.DailySummary

	for _, log := range logs {
		if log.CheckIn != nil && (summary.FirstIn == nil || log.CheckIn.Before(*summary.FirstIn)) {
			firstIn := *log.CheckIn
			summary.FirstIn = &firstIn
		}
		if log.CheckOut != nil && (summary.FinalOut == nil || log.CheckOut.After(*summary.FinalOut)) {
			finalOut := *log.CheckOut
			summary.FinalOut = &finalOut
		}
		summary.TotalDuration += log.Duration()
	}

	return summary
}

// SummarizeDay summarizes only the logs dated day (YYYY-MM-DD).
func SummarizeDay(logs []attendance.AttendanceLog, day string) attendance.DailySummary {
	return Summarize(filterByDate(logs, day))
}

// SummarizeByDay returns one summary per distinct log date, oldest first.
// Logs without a date are skipped.
func SummarizeByDay(logs []attendance.AttendanceLog) []attendance.DaySummary {
	byDate := make(map[string][]attendance.AttendanceLog)
	for _, log := range logs {
		if log.Date == "" {
			continue
		}
		byDate[log.Date] = append(byDate[log.Date], log)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := make([]attendance.DaySummary, 0, len(dates))
	for _, date := range dates {
		result = append(result, attendance.DaySummary{
			Date:    date,
			Summary: Summarize(byDate[date]),
		})
	}
	return result
}

func filterByDate(logs []attendance.AttendanceLog, day string) []attendance.AttendanceLog {
	var result []attendance.AttendanceLog
	for _, log := range logs {
		if log.Date == day {
			result = append(result, log)
		}
	}
	return result
}
