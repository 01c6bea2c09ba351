package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/vlille/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, upstream_error, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errUpstream returns a 502 error for feed failures.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "upstream_error", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps a network or feed error onto a response.
func errFromDomain(c *fiber.Ctx, err error) error {
	var (
		fetchErr *domain.FetchError
		parseErr *domain.ParseError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		// the timeout middleware answers 408
		return err
	case errors.Is(err, domain.ErrStationNotFound):
		return errNotFound(c, "station not found")
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		LoggerFromCtx(c.UserContext()).Warn("station feed failed", "error", err)
		return errUpstream(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
