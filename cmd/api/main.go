package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/config"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	appHTTP "github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/cron"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/database"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/sse"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/repository/backend"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/repository/memory"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/repository/postgresql"
	serviceAuth "github.com/cmlabs-hris/eas-dashboard-go/internal/service/auth"
	dashboardService "github.com/cmlabs-hris/eas-dashboard-go/internal/service/dashboard"
)

const version = "v1.0.0"

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	level := parseLevel(cfg.App.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location := cfg.Location()
	client, err := backend.NewClient(cfg.Backend, location)
	if err != nil {
		log.Fatal("Failed to initialize backend client: ", err)
	}
	attendanceRepo := backend.NewAttendanceRepository(client)
	userRepo := backend.NewUserRepository(client)
	authRepo := backend.NewAuthRepository(client)

	var sessionRepo session.SessionRepository
	switch cfg.Session.Store {
	case config.SessionStorePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			log.Fatal("Error connecting to database: ", err)
		}
		defer db.Close()
		sessionRepo = postgresql.NewSessionRepository(db)
	default:
		sessionRepo = memory.NewSessionRepository()
	}
	slog.Info("Session store ready", "store", cfg.Session.Store)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	dashboardSvc := dashboardService.NewDashboardService(attendanceRepo, userRepo, hub)
	authService := serviceAuth.NewAuthService(authRepo, sessionRepo, JWTService, dashboardSvc, cfg.Session.TTL)

	scheduler := cron.NewScheduler()
	cron.NewDashboardJobs(dashboardSvc, authService, cfg.Dashboard.RefreshInterval, cfg.Dashboard.PurgeInterval).RegisterJobs(scheduler)
	slog.Info("Cron jobs ready", "jobs", scheduler.Jobs())
	scheduler.Start()
	defer scheduler.Stop()

	authHandler := appHTTP.NewAuthHandler(authService)
	dashboardHandler := appHTTP.NewDashboardHandler(dashboardSvc, hub, location)
	adminHandler := appHTTP.NewAdminHandler(dashboardSvc)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Env:            cfg.App.Env,
			Version:        version,
			LogLevel:       level,
		},
		JWTService,
		authService,
		authHandler,
		dashboardHandler,
		adminHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "backend", cfg.Backend.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}
