package utils

import (
	"finhistory/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// BadRequest sends {success:false, message} with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, models.ErrorResponse{Success: false, Message: message})
}

// TooManyRequests sends {success:false, message} with status 429.
func TooManyRequests(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusTooManyRequests, models.ErrorResponse{Success: false, Message: message})
}

// InternalError sends {success:false, message} with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, models.ErrorResponse{Success: false, Message: message})
}
