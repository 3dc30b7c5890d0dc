package dashboard

import "errors"

var (
	ErrDashboardClosed = errors.New("dashboard has been closed")
)
