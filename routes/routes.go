package routes

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"

	controller "outreach/controllers"
	"outreach/middleware"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type Deps struct {
	Outreach      *controller.OutreachController
	Redis         *redis.Client
	RateLimitRuns int
	Logger        logrus.FieldLogger
	Ping          Pinger
}

func SetupOutreachRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api/outreach", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	api.Post("/run", middleware.RunRateLimiter(deps.RateLimitRuns, deps.Redis), deps.Outreach.RunOutreach)
	api.Get("/prospects/:id/events", deps.Outreach.GetProspectEvents)

	deps.Logger.Info("Outreach routes initialized successfully")
}

func SetupRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			if err := deps.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupOutreachRoutes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
