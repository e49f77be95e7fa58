// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and rate limiting.
package routes

import (
	"errors"

	"finhistory/internal/config"
	"finhistory/internal/handlers"
	"finhistory/internal/middleware"
	"finhistory/internal/models"
	"finhistory/internal/services/history"
	"finhistory/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies carries everything SetupRoutes needs. Health, LimiterStorage
// and Gatherer are optional.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	HistoryService history.Service
	Health         *handlers.HealthHandler
	LimiterStorage fiber.Storage
	Gatherer       prometheus.Gatherer
}

// NewApp creates the Fiber application with the shared middleware stack.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "finhistory",
		ErrorHandler: errorHandler(deps.Logger),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(deps.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,HEAD,OPTIONS",
	}))

	SetupRoutes(app, deps)
	return app
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	historyHandler := handlers.NewHistoryHandler(deps.HistoryService)

	if deps.Health != nil {
		app.Get("/health", deps.Health.HealthCheck)
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	if deps.Config.RateLimit.Max > 0 {
		api.Use("/transaction", limiter.New(limiter.Config{
			Max:        deps.Config.RateLimit.Max,
			Expiration: deps.Config.RateLimit.Expiration,
			Storage:    deps.LimiterStorage,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return utils.TooManyRequests(c, "Too many requests. Please try again later.")
			},
		}))
	}
	api.Get("/transaction", historyHandler.GetHistory)
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		return utils.Respond(c, code, models.ErrorResponse{Success: false, Message: message})
	}
}
