package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"paperbase/internal/ocr"
	"paperbase/internal/search"
	"paperbase/internal/service"
)

// Deps bundles everything the HTTP surface needs. Handlers stay thin; all
// business logic lives in the services.
type Deps struct {
	DB      *sql.DB
	Docs    service.DocumentService
	Tags    service.TagService
	Ingest  service.IngestService
	Engines *ocr.Registry
	Index   *search.Index
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	registerDocumentRoutes(app, deps)
	registerSearchRoutes(app, deps)
	registerTagRoutes(app, deps)
	registerSystemRoutes(app, deps)
}
