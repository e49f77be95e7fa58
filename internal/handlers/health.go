package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthChecker is implemented by optional dependencies such as the Redis storage.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db      *gorm.DB
	redis   HealthChecker
	version string
}

// NewHealthHandler builds a health handler; redis may be nil when rate
// limiting runs in memory.
func NewHealthHandler(db *gorm.DB, redis HealthChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{
		"database": "connected",
		"redis":    "disabled",
	}

	if err := h.pingDB(ctx); err != nil {
		status = fiber.StatusServiceUnavailable
		services["database"] = "unavailable"
	}

	if h.redis != nil {
		services["redis"] = "connected"
		if err := h.redis.HealthCheck(ctx); err != nil {
			status = fiber.StatusServiceUnavailable
			services["redis"] = "unavailable"
		}
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"version":  h.version,
		"services": services,
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
