package server

import (
	"context"
	"log/slog"
	"time"

	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const requestTimeout = 5 * time.Second

// requestContext derives the per-request context carrying the request and trace ids.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// parseID extracts an integer route parameter. Anything that does not parse
// is a validation failure (422), never a lookup miss.
func parseID(c *fiber.Ctx, param string) (int64, error) {
	return validation.PathInt(param, c.Params(param))
}

// respondWithError renders validation failures as a 422 detail list and
// everything else through models.RespondWithError.
func respondWithError(c *fiber.Ctx, err error) error {
	if vErr, ok := validation.AsError(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(validation.Response{Detail: vErr.Fields})
	}

	status := models.StatusFor(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "Request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}
