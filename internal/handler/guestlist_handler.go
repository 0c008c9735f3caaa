package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/themainkeys/wingman.app-sub000/internal/dto"
	"github.com/themainkeys/wingman.app-sub000/internal/guestlist"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/service"
)

type GuestlistHandler struct {
	svc service.GuestlistService
}

func NewGuestlistHandler(svc service.GuestlistService) *GuestlistHandler {
	return &GuestlistHandler{svc: svc}
}

func (h *GuestlistHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/guestlists/join", h.Join)
	g.GET("/guestlists/roster", h.Roster)
	g.PUT("/guestlists/:id/attendance", h.SetAttendance)
	g.GET("/venues/:id/guestlist-stats", h.Stats)
}

func (h *GuestlistHandler) Join(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.JoinGuestlistRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.Join(c.Request().Context(), u, req.VenueID, req.PromoterID, guestlist.JoinInput{
		Date:         req.Date,
		MaleGuests:   req.MaleGuests,
		FemaleGuests: req.FemaleGuests,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *GuestlistHandler) Roster(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	venueID := c.QueryParam("venue_id")
	date := models.Date(c.QueryParam("date"))
	if venueID == "" || date.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "venue_id and date are required")
	}
	page := 0
	if p := c.QueryParam("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
	}

	v, err := h.svc.Roster(c.Request().Context(), u, venueID, date, page)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *GuestlistHandler) SetAttendance(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	r, err := h.svc.SetAttendance(c.Request().Context(), u, c.Param("id"), req.Status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *GuestlistHandler) Stats(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), u, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
