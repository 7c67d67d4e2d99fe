package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"storefront-service/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// respondError maps service errors to status codes. Upstream and unknown
// errors are logged and hidden from the client.
func respondError(c echo.Context, err error) error {
	var statusErr *service.PaymentStatusError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &statusErr):
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Payment not captured", "status": statusErr.Status})
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"message": "Validation failed", "errors": validationErr.Fields})
	case errors.Is(err, service.ErrInvalidSignature):
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid payment signature"})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Not found"})
	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Server error"})
	}
}

func badPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request payload"})
}
