package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/auth"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/dashboard"
)

// DashboardJobs keeps mounted dashboards fresh and drops dead sessions.
type DashboardJobs struct {
	dashboardService dashboard.DashboardService
	authService      auth.AuthService
	refreshInterval  time.Duration
	purgeInterval    time.Duration
}

func NewDashboardJobs(dashboardService dashboard.DashboardService, authService auth.AuthService, refreshInterval, purgeInterval time.Duration) *DashboardJobs {
	return &DashboardJobs{
		dashboardService: dashboardService,
		authService:      authService,
		refreshInterval:  refreshInterval,
		purgeInterval:    purgeInterval,
	}
}

func (j *DashboardJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.Add(Job{
		Name:     "refresh_dashboards",
		Interval: j.refreshInterval,
		Timeout:  j.refreshInterval,
		Fn:       j.RefreshDashboards,
	})
	scheduler.AddJob("purge_expired_sessions", j.purgeInterval, j.PurgeExpiredSessions)
}

// RefreshDashboards re-fetches every live dashboard and closes the ones whose
// session expired.
func (j *DashboardJobs) RefreshDashboards(ctx context.Context) error {
	return j.dashboardService.RefreshAll(ctx)
}

func (j *DashboardJobs) PurgeExpiredSessions(ctx context.Context) error {
	return j.authService.PurgeExpired(ctx)
}
