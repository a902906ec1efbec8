package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"syspres_app/internal/services"
)

// CustomErrorHandler maps the service error taxonomy onto HTTP statuses
// and renders every error as a JSON body.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "something went wrong, please try again later"

	switch {
	case errors.Is(err, services.ErrValidation):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, services.ErrStateConflict):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrInsufficientCash):
		code = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, services.ErrLoanBusy):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		code = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = http.StatusNotFound
		message = "record not found"
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok && msg != "" {
				message = msg
			}
		}
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if writeErr := c.JSON(code, map[string]string{"error": message}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
