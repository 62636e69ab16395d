package handlers

import (
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

const stackKey = "panic_stack"

// respond writes a success envelope. extra keys are merged at the top level.
func respond(c *fiber.Ctx, status int, data interface{}, message string, extra fiber.Map) error {
	body := fiber.Map{
		"success": true,
		"data":    data,
	}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// statusError pins the status of an error regardless of its kind.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }

func (e *statusError) Unwrap() error { return e.err }

// mutationError reports a missing target as 400 on update and delete routes.
func mutationError(err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return &statusError{status: fiber.StatusBadRequest, err: err}
	}
	return err
}

func badRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	var se *statusError
	var fe *fiber.Error
	switch {
	case errors.As(err, &se):
		return se.status
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidOperation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrServiceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if status >= fiber.StatusInternalServerError {
			return "internal server error"
		}
		return fe.Message
	}
	return services.MessageOf(err)
}

// ErrorHandler is the app-wide error boundary. Every failure, including
// recovered panics, leaves as a success=false envelope. Details are only
// attached in development.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		resp := dto.ErrorResponse{
			Success: false,
			Message: messageFor(err, status),
			Errors:  services.ViolationsOf(err),
		}

		if status >= fiber.StatusInternalServerError {
			slog.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(), "path", c.Path(), "status", status, "error", err.Error())
			if hub := sentryfiber.GetHubFromContext(c); hub != nil {
				hub.CaptureException(err)
			}
		}

		if development {
			if stack, ok := c.Locals(stackKey).(string); ok {
				resp.Stack = err.Error() + "\n" + stack
			} else {
				resp.Stack = err.Error()
			}
		}

		return c.Status(status).JSON(resp)
	}
}

// RecordPanicStack is the recover middleware's stack trace hook; the stack
// is picked up by ErrorHandler in development.
func RecordPanicStack(c *fiber.Ctx, _ interface{}) {
	c.Locals(stackKey, string(debug.Stack()))
}

// NotFound answers unknown routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Success: false,
		Message: "Route " + c.Method() + " " + c.Path() + " not found",
	})
}
