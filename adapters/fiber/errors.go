package fiber

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
)

const internalErrorMessage = "internal server error"

// handleError writes err as {"error": msg} with the status it maps to.
// Unexpected errors are logged and hidden from the client.
func handleError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)

	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		msg = core.ErrUnavailable.Error()
	case http.StatusInternalServerError:
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		msg = internalErrorMessage
	}

	return c.Status(status).JSON(core.ErrorResponse{Error: msg})
}

func badRequest(c fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(core.ErrorResponse{Error: "invalid request body"})
}

// mapErrorToStatus maps domain errors to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrSessionExpired),
		errors.Is(err, core.ErrNoSession),
		errors.Is(err, core.ErrMissingAuthHeader),
		errors.Is(err, core.ErrInvalidAuthHeader),
		errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrEmailNotConfirmed),
		errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrPasswordTooShort),
		errors.Is(err, core.ErrPasswordTooLong),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrDisplayNameLength),
		errors.Is(err, core.ErrTokenRequired):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrInvalidPlan),
		errors.Is(err, core.ErrInvalidDuration),
		errors.Is(err, core.ErrInvalidPaymentMethod),
		errors.Is(err, core.ErrAmountMismatch),
		errors.Is(err, core.ErrScreenshotRequired),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidTier),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrMatchTeamsRequired),
		errors.Is(err, core.ErrMatchDateRequired),
		errors.Is(err, core.ErrInvalidMatchStatus),
		errors.Is(err, core.ErrInvalidPrediction),
		errors.Is(err, core.ErrInvalidConfidence),
		errors.Is(err, core.ErrInvalidResult),
		errors.Is(err, core.ErrInvalidOdds),
		errors.Is(err, core.ErrPromoFieldsRequired),
		errors.Is(err, core.ErrUnknownBookmaker),
		errors.Is(err, core.ErrApprovedCodeRequired):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrScreenshotTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrScreenshotType):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, core.ErrPaymentNotFound),
		errors.Is(err, core.ErrProfileNotFound),
		errors.Is(err, core.ErrMatchNotFound),
		errors.Is(err, core.ErrPredictionNotFound),
		errors.Is(err, core.ErrPromoCodeNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrUserExists),
		errors.Is(err, core.ErrPaymentDecided),
		errors.Is(err, core.ErrPromoCodeDecided),
		errors.Is(err, core.ErrLockNotHeld):
		return http.StatusConflict

	case errors.Is(err, core.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	case errors.Is(err, core.ErrNotImplemented):
		return http.StatusNotImplemented

	default:
		return http.StatusInternalServerError
	}
}
