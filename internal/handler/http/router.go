package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	Version        string
	LogLevel       slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, sessions middleware.SessionResolver, authHandler AuthHandler, dashboardHandler DashboardHandler, adminHandler AdminHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "eas-dashboard"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	authRequired := middleware.AuthRequired(JWTService, sessions)

	r.Route("/api/v1", func(r chi.Router) {

		r.Post("/auth/login", authHandler.Login)

		// EventSource cannot set headers, so the stream also accepts ?token=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, middleware.TokenFromQuery))
			r.Use(authRequired)
			r.Get("/dashboard/events", dashboardHandler.Events)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(authRequired)

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", dashboardHandler.Mount)
				r.Post("/refresh", dashboardHandler.Refresh)
				r.Post("/check", dashboardHandler.Check)
				r.Get("/calendar", dashboardHandler.Calendar)
				r.Get("/days", dashboardHandler.Days)
			})

			// Admin only
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/employees", func(r chi.Router) {
					r.Get("/", adminHandler.ListEmployees)
					r.Post("/", adminHandler.CreateEmployee)
					r.Patch("/{id}", adminHandler.UpdateEmployee)
					r.Delete("/{id}", adminHandler.DeleteEmployee)
				})
				r.Put("/selection", adminHandler.SelectEmployee)
				r.Put("/filter", adminHandler.ApplyFilter)
			})
		})
	})
	return r
}
