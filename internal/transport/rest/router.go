package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/timhq/tim/internal/access"
	"github.com/timhq/tim/internal/auth"
	"github.com/timhq/tim/internal/customer"
	"github.com/timhq/tim/internal/report"
	"github.com/timhq/tim/internal/schedule"
	"github.com/timhq/tim/internal/timeentry"
	"github.com/timhq/tim/internal/transport/middleware"
	"github.com/timhq/tim/internal/transport/swagger"
	"github.com/timhq/tim/internal/user"
)

type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Customer  *customer.Handler
	TimeEntry *timeentry.Handler
	Report    *report.Handler
	Schedule  *schedule.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins []string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware)

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/google", h.Auth.GoogleLogin)
			sr.Post("/refresh", h.Auth.RefreshToken)

			sr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)
				ar.Post("/logout", h.Auth.Logout)
				ar.Get("/profile", h.Auth.Profile)
			})
		})

		// Invitation acceptance is public; the token is the credential.
		r.Post("/users/invite/accept", h.User.AcceptInvitation)

		// Everything else requires a valid session.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			// Engineers without an active customer assignment are locked
			// out of the tracking and reporting surface.
			pr.Group(func(gr chi.Router) {
				gr.Use(h.Auth.RequireCustomerAssignment)

				gr.Route("/customers", func(cr chi.Router) {
					cr.Get("/", h.Customer.List)
					cr.Get("/{customerId}", h.Customer.Get)
					cr.Get("/{customerId}/stats", h.Customer.Stats)

					cr.Group(func(mr chi.Router) {
						mr.Use(h.Auth.RequireRoles(access.RoleAdmin, access.RoleAccountManager))
						mr.Post("/", h.Customer.Create)
						mr.Put("/{customerId}", h.Customer.Update)
						mr.Delete("/{customerId}", h.Customer.Archive)
					})
				})

				gr.Route("/time-entries", func(tr chi.Router) {
					tr.Get("/", h.TimeEntry.List)
					tr.Post("/", h.TimeEntry.Create)
					tr.Post("/quick", h.TimeEntry.CreateQuick)
					tr.Post("/sync", h.TimeEntry.Sync)
					tr.Put("/{timeEntryId}", h.TimeEntry.Update)
					tr.Delete("/{timeEntryId}", h.TimeEntry.Delete)
				})

				gr.Route("/reports", func(rr chi.Router) {
					rr.Get("/dashboard", h.Report.Dashboard)
					rr.Get("/time-entries", h.Report.TimeEntries)
					rr.Get("/time-entries/export", h.Report.Export)
					rr.Get("/customers/{customerId}", h.Report.Customer)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(h.Auth.RequireRoles(access.RoleAdmin))
				ur.Get("/", h.User.List)
				ur.Get("/invitations", h.User.ListInvitations)
				ur.Post("/invite", h.User.Invite)
				ur.Get("/{userId}", h.User.Get)
				ur.Put("/{userId}", h.User.Update)
				ur.Delete("/{userId}", h.User.Deactivate)
			})

			pr.Route("/working-schedules", func(wr chi.Router) {
				wr.Get("/", h.Schedule.List)
				wr.Get("/timezones/list", h.Schedule.Timezones)
				wr.Get("/{scheduleId}", h.Schedule.Get)

				wr.Group(func(mr chi.Router) {
					mr.Use(h.Auth.RequireRoles(access.RoleAdmin, access.RoleAccountManager))
					mr.Post("/", h.Schedule.Create)
					mr.Put("/{scheduleId}", h.Schedule.Update)
					mr.Delete("/{scheduleId}", h.Schedule.Delete)
				})
			})
		})
	})
}
