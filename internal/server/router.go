// Package server assembles the HTTP surface.
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/themainkeys/wingman.app-sub000/internal/dto"
	"github.com/themainkeys/wingman.app-sub000/internal/handler"
	"github.com/themainkeys/wingman.app-sub000/internal/middleware"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
	"github.com/themainkeys/wingman.app-sub000/internal/service"
)

const ServiceName = "wingman-booking"

func NewRouter(svcs *service.Services, users repository.UserRepository, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Validator = middleware.NewValidator()
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMw.Recover())

	api := e.Group("/api/v1")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: ServiceName})
	})

	authed := api.Group("", middleware.Identity(users))
	handler.NewSessionHandler(svcs.Session).RegisterRoutes(authed.Group("/session"))
	handler.NewWizardHandler(svcs.Wizard).RegisterRoutes(authed)
	handler.NewGuestlistHandler(svcs.Guestlist).RegisterRoutes(authed)
	return e
}
