package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/themainkeys/wingman.app-sub000/internal/dto"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/service"
)

type SessionHandler struct {
	svc service.SessionService
}

func NewSessionHandler(svc service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetSession)
	g.POST("/items", h.AddItem)
	g.DELETE("/items/:id", h.RemoveItem)

	g.POST("/cart/view", h.EnterCartView)
	g.PUT("/cart/select/:id", h.ToggleSelection)
	g.PUT("/cart/select-all", h.SelectAll)
	g.PUT("/cart/deselect-all", h.DeselectAll)
	g.PUT("/cart/items/:id/payment-option", h.SetPaymentOption)
	g.PUT("/cart/payment-method", h.SetPaymentMethod)
	g.POST("/checkout", h.Checkout)

	g.POST("/watchlist/:id/complete", h.CompletePlaceholder)
	g.POST("/booked/:id/cancel", h.CancelBooking)
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), u)
	return respond(c, orNil(v), err)
}

// AddItem adds a store item to the cart, or saves any other kind to the watchlist.
func (h *SessionHandler) AddItem(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AddItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var v *service.SessionView
	if req.Kind == models.KindStoreItem {
		qty := req.Quantity
		if qty == 0 {
			qty = 1
		}
		v, err = h.svc.AddStoreItem(ctx, u, req.RefID, qty)
	} else {
		v, err = h.svc.SavePlaceholder(ctx, u, req.Kind, req.RefID)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *SessionHandler) RemoveItem(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.RemoveItem(c.Request().Context(), u, c.Param("id"))
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) EnterCartView(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.EnterCartView(c.Request().Context(), u)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) ToggleSelection(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.ToggleSelection(c.Request().Context(), u, c.Param("id"))
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) SelectAll(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.SelectAll(c.Request().Context(), u)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) DeselectAll(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.DeselectAll(c.Request().Context(), u)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) SetPaymentOption(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PaymentOptionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.SetPaymentOption(c.Request().Context(), u, c.Param("id"), req.Option)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) SetPaymentMethod(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PaymentMethodRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.SetPaymentMethod(c.Request().Context(), u, req.Method)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) Checkout(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Checkout(c.Request().Context(), u)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) CompletePlaceholder(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.PaymentMethodRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.CompletePlaceholder(c.Request().Context(), u, c.Param("id"), req.Method)
	return respond(c, orNil(v), err)
}

func (h *SessionHandler) CancelBooking(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CancelBookingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.CancelBooking(c.Request().Context(), u, c.Param("id"), req.Reason)
	return respond(c, orNil(v), err)
}
