package handlers

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"jmstructural/services"
)

// errSuperseded is reported when a newer generation for the same session
// cancelled this one.
var errSuperseded = errors.New("superseded by a newer generation request")

var badRequestErrors = []error{
	services.ErrNegativeQuantity,
	services.ErrNegativeUnitRate,
	services.ErrInvalidTaxPercent,
	services.ErrInvalidNumber,
	services.ErrIndexOutOfRange,
	services.ErrUnknownField,
	services.ErrInvalidValue,
	services.ErrUnknownStep,
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errSuperseded):
		return http.StatusConflict
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped status with a JSON body.
// Internal errors are not echoed to the client.
func respondError(e *core.RequestEvent, op string, err error) error {
	status := statusFor(err)
	log := eventLogger(e)

	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout && status != http.StatusBadGateway {
		log.Error(op, zap.Error(err))
		return ErrorToast(e, status, "Something went wrong. Please try again.")
	}
	log.Info(op, zap.Int("status", status), zap.Error(err))

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return errorJSON(e, status, map[string]any{"error": "validation failed", "fields": verrs}, "Please correct the highlighted fields")
	}
	switch status {
	case http.StatusGatewayTimeout:
		return ErrorToast(e, status, "Design generation timed out")
	case http.StatusBadGateway:
		return ErrorToast(e, status, services.ErrGenerationFailed.Error())
	}
	return ErrorToast(e, status, err.Error())
}
