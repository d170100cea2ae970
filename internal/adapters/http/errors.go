package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wandelroutes/internal/core/domain"
	"github.com/samirrijal/wandelroutes/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
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
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "forbidden", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errPersistence returns a 502 error.
func errPersistence(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "persistence_error", msg)
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return 404, "not_found"
	case errors.Is(err, domain.ErrInvalidRoute),
		errors.Is(err, domain.ErrInvalidPoint),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrInvalidGeohash),
		errors.Is(err, domain.ErrUnknownEvent):
		return 400, "bad_request"
	case errors.Is(err, domain.ErrMalformedGeometry),
		errors.Is(err, domain.ErrIncompletePath):
		return 422, "unprocessable"
	case errors.Is(err, domain.ErrReadOnly):
		return 403, "forbidden"
	case errors.Is(err, domain.ErrSaveInProgress):
		return 409, "conflict"
	case errors.Is(err, domain.ErrPersistence):
		return 502, "persistence_error"
	default:
		return 500, "internal_error"
	}
}

// writeDomainError answers with the error response matching err.
func writeDomainError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	switch status {
	case 404:
		return errNotFound(c, err.Error())
	case 400:
		return errBadRequest(c, err.Error())
	case 422:
		return errUnprocessable(c, err.Error())
	case 403:
		return errForbidden(c, err.Error())
	case 409:
		return errConflict(c, err.Error())
	case 502:
		logging.FromContext(c.UserContext()).Error("storage failure", slog.String("error", err.Error()))
		return errPersistence(c, "route storage is unavailable")
	default:
		logging.FromContext(c.UserContext()).Error("unhandled error", slog.String("code", code), slog.String("error", err.Error()))
		return errInternal(c, "internal error")
	}
}
