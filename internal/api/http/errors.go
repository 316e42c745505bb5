package httpapi

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/covid-data-aggregation/internal/covid"
	"github.com/i474232898/covid-data-aggregation/internal/covid/sources"
)

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// queryError maps a service error onto an HTTP error. what names the failed
// operation for generic server errors.
func queryError(err error, what string) error {
	switch {
	case errors.Is(err, covid.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, covid.ErrInvalidMetric):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, covid.ErrNoData):
		return fiber.NewError(fiber.StatusServiceUnavailable, "no covid data available")
	case errors.Is(err, sources.ErrCircuitOpen):
		return fiber.NewError(fiber.StatusServiceUnavailable, "snapshot source temporarily unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("failed to %s: %v", what, err))
	}
}
