package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
)

const HeaderUserID = "X-User-ID"

// Identity resolves the caller from the X-User-ID header set by the gateway.
func Identity(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderUserID)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderUserID+" header")
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
			}
			u, err := users.FindByID(c.Request().Context(), id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(identity.WithUser(c.Request().Context(), u)))
			return next(c)
		}
	}
}
