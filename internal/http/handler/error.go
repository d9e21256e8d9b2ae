package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"paperbase/internal/http/middleware"
	"paperbase/internal/model"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeKindError maps a structured domain error onto the HTTP envelope. Client
// errors carry their detail message; server errors stay generic.
func writeKindError(c *fiber.Ctx, err error) error {
	kind := model.KindOf(err)
	status, code := statusForKind(kind)
	message := "internal server error"
	if status < fiber.StatusInternalServerError {
		message = detailOf(err)
	}
	return writeError(c, status, code, message)
}

func statusForKind(kind model.Kind) (int, string) {
	switch kind {
	case model.KindNotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	case model.KindPayloadTooLarge:
		return fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"
	case model.KindUnsupportedArchive:
		return fiber.StatusBadRequest, "UNSUPPORTED_ARCHIVE"
	case model.KindNoEligibleContent:
		return fiber.StatusBadRequest, "NO_ELIGIBLE_CONTENT"
	case model.KindInvalidInput:
		return fiber.StatusBadRequest, "INVALID_INPUT"
	case model.KindAlreadyProcessing:
		return fiber.StatusConflict, "ALREADY_PROCESSING"
	case model.KindNoEngineAvailable:
		return fiber.StatusServiceUnavailable, "NO_ENGINE_AVAILABLE"
	case model.KindStorageIO:
		return fiber.StatusInternalServerError, "STORAGE_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func detailOf(err error) string {
	var e *model.Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return err.Error()
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if model.KindOf(err) != "" {
			return writeKindError(c, err)
		}

		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "payload too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
