package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/boriskezikov/greenapp.client-provider/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all business rules live in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ClientService) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", HealthCheck(db))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/client-provider")

	api.Post("/clients", FindClients(svc))
	api.Post("/client", CreateClient(svc))
	api.Put("/client", EditClient(svc))
	api.Get("/client/:id", GetClientByID(svc))
	api.Get("/client/:id/attachment", GetClientAttachment(svc))
}
