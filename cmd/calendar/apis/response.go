package apis

import (
	"calendar-backend/cmd/calendar/model"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func ok(c echo.Context, message string, data any) error {
	return c.JSON(
		http.StatusOK,
		model.BaseResponse{
			Success: true,
			Message: message,
			Data:    data,
		},
	)
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(
		code,
		model.BaseResponse{
			Message: message,
		},
	)
}

// failWith writes err as an envelope. Server-side failures are logged and
// replaced by fallback so store details never reach the caller.
func failWith(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	code := statusFor(err)
	if code < http.StatusInternalServerError {
		return fail(c, code, err.Error())
	}

	logger.Error(fallback,
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("uri", c.Request().RequestURI),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
	return fail(c, code, fallback)
}

func authRequired(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "Authentication required")
}
