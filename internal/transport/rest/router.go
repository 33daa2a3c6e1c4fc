package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/backoffice-crm/backoffice-crm/internal/activity"
	"github.com/backoffice-crm/backoffice-crm/internal/auth"
	"github.com/backoffice-crm/backoffice-crm/internal/role"
	"github.com/backoffice-crm/backoffice-crm/internal/transport/middleware"
	"github.com/backoffice-crm/backoffice-crm/internal/transport/swagger"
	"github.com/backoffice-crm/backoffice-crm/internal/user"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes mounts the full API under /api/v1. Auth endpoints are
// public, everything else requires a valid access token. Role, permission
// and user administration is additionally restricted to administrators,
// while reporting endpoints are gated by fine-grained permissions.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	guard *auth.Guard,
	userHandler *user.Handler,
	roleHandler *role.Handler,
	activityHandler *activity.Handler,
	allowedOrigins string,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve the OpenAPI document and its UI outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", authHandler.Register)
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/auth/me", authHandler.Me)
			pr.Patch("/users/me", userHandler.UpdateMe)

			// Administration endpoints.
			pr.Group(func(ar chi.Router) {
				ar.Use(guard.RequireRoles(auth.RoleAdmin))

				ar.Route("/users", func(ur chi.Router) {
					ur.Get("/", userHandler.ListUsers)
					ur.Post("/", userHandler.CreateUser)
					ur.Get("/{id}", userHandler.GetUser)
					ur.Patch("/{id}/role", userHandler.ChangeRole)
					ur.Patch("/{id}/status", userHandler.UpdateStatus)
					ur.Delete("/{id}", userHandler.DeleteUser)
				})

				ar.Route("/roles", func(rr chi.Router) {
					rr.Get("/", roleHandler.ListRoles)
					rr.Post("/", roleHandler.CreateRole)
					rr.Get("/{id}", roleHandler.GetRole)
					rr.Put("/{id}", roleHandler.UpdateRole)
					rr.Delete("/{id}", roleHandler.DeleteRole)
				})

				ar.Route("/permissions", func(pmr chi.Router) {
					pmr.Get("/", roleHandler.ListPermissions)
					pmr.Post("/", roleHandler.CreatePermission)
					pmr.Delete("/{id}", roleHandler.DeletePermission)
				})
			})

			// Activity access is scoped per caller inside the service.
			pr.Route("/activities", func(acr chi.Router) {
				acr.Post("/", activityHandler.CreateActivity)
				acr.Get("/", activityHandler.ListActivities)
				acr.Get("/{id}", activityHandler.GetActivity)
				acr.Put("/{id}", activityHandler.UpdateActivity)
				acr.Delete("/{id}", activityHandler.DeleteActivity)
			})

			// Permission-gated reporting endpoints.
			pr.Group(func(rpr chi.Router) {
				rpr.Use(guard.RequirePermission("read", "report"))
				rpr.Get("/reports/activities", activityHandler.ListActivities)
			})
		})
	})
}
