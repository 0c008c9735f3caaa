package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/themainkeys/wingman.app-sub000/internal/dto"
	"github.com/themainkeys/wingman.app-sub000/internal/service"
	"github.com/themainkeys/wingman.app-sub000/internal/wizard"
)

type WizardHandler struct {
	svc service.WizardService
}

func NewWizardHandler(svc service.WizardService) *WizardHandler {
	return &WizardHandler{svc: svc}
}

func (h *WizardHandler) RegisterRoutes(g *echo.Group) {
	table := g.Group("/wizards/table")
	table.POST("", h.StartTable)
	table.PUT("/:id/venue", h.SelectVenue)
	table.PUT("/:id/date", h.SubmitTableDate)
	table.GET("/:id/tables", h.TableChoices)
	table.PUT("/:id/table", h.SelectTable)
	table.POST("/:id/confirm", h.ConfirmTable)
	table.POST("/:id/back", h.BackTable)
	table.DELETE("/:id", h.Discard)

	exp := g.Group("/wizards/experience")
	exp.POST("", h.StartExperience)
	exp.PUT("/:id/details", h.SubmitExperienceDetails)
	exp.POST("/:id/confirm", h.ConfirmExperience)
	exp.POST("/:id/back", h.BackExperience)
	exp.DELETE("/:id", h.Discard)

	g.POST("/events/:id/tickets", h.BuyTickets)
}

func (h *WizardHandler) StartTable(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.StartTableWizardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.StartTable(c.Request().Context(), u, req.VenueID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *WizardHandler) SelectVenue(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SelectVenueRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.SelectVenue(c.Request().Context(), u, c.Param("id"), req.VenueID)
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) SubmitTableDate(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TableDateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.SubmitTableDate(c.Request().Context(), u, c.Param("id"), req.Date, req.MaleGuests, req.FemaleGuests)
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) TableChoices(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.TableChoices(c.Request().Context(), u, c.Param("id"))
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) SelectTable(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SelectTableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.SelectTable(c.Request().Context(), u, c.Param("id"), req.TableID)
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) ConfirmTable(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmTableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.ConfirmTable(c.Request().Context(), u, c.Param("id"), wizard.TableConfirmation{
		PromoterID:     req.PromoterID,
		Guest:          req.Guest.ToGuest(),
		SpecialRequest: req.SpecialRequest,
		Bottles:        req.BottleSelections(),
	})
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) BackTable(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.BackTable(c.Request().Context(), u, c.Param("id"))
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) Discard(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.svc.Discard(c.Request().Context(), u, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WizardHandler) StartExperience(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.StartExperienceWizardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.StartExperience(c.Request().Context(), u, req.ExperienceID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *WizardHandler) SubmitExperienceDetails(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ExperienceDetailsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.SubmitExperienceDetails(c.Request().Context(), u, c.Param("id"), req.Date, req.Quantity)
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) ConfirmExperience(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmGuestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.ConfirmExperience(c.Request().Context(), u, c.Param("id"), req.Guest.ToGuest())
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) BackExperience(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.BackExperience(c.Request().Context(), u, c.Param("id"))
	return respond(c, orNil(v), err)
}

func (h *WizardHandler) BuyTickets(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BuyTicketsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.BuyTickets(c.Request().Context(), u, c.Param("id"), req.Counts, req.Guest.ToGuest())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

// orNil keeps a typed nil pointer from reaching respond as a non-nil interface.
func orNil[T any](v *T) any {
	if v == nil {
		return nil
	}
	return v
}
