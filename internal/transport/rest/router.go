package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/admission-portal/internal/accesscontrol"
	"github.com/frahmantamala/admission-portal/internal/audit"
	"github.com/frahmantamala/admission-portal/internal/auth"
	"github.com/frahmantamala/admission-portal/internal/stage"
	"github.com/frahmantamala/admission-portal/internal/transport/middleware"
	"github.com/frahmantamala/admission-portal/internal/transport/swagger"
	"github.com/frahmantamala/admission-portal/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RegisterAllRoutes wires the full HTTP surface. Everything under /api/v1
// except the gate's skip list passes through the AccessGate, which resolves
// identity, enforces the stage and registry policies, and audits the request.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	gate *middleware.AccessGate,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	accessHandler *accesscontrol.Handler,
	stageHandler *stage.Handler,
	auditHandler *audit.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(gr chi.Router) {
			gr.Use(gate.Handler)

			authHandler.RegisterRoutes(gr)
			userHandler.RegisterRoutes(gr)
			accessHandler.RegisterRoutes(gr)
			stageHandler.RegisterRoutes(gr)
			auditHandler.RegisterRoutes(gr)
		})
	})
}
