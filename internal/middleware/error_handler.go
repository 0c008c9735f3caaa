package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/themainkeys/wingman.app-sub000/internal/dto"
	"github.com/themainkeys/wingman.app-sub000/internal/wizard"
)

// ErrorHandler renders every error as {"message": ...}. Wizard validation errors also carry
// their field map.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *wizard.ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Message: "validation failed", Fields: ve.Fields})
			return
		}

		code := http.StatusInternalServerError
		msg := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		_ = c.JSON(code, dto.ErrorResponse{Message: msg})
	}
}
