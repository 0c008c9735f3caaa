package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/guestlist"
	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
	"github.com/themainkeys/wingman.app-sub000/internal/service"
	"github.com/themainkeys/wingman.app-sub000/internal/wizard"
)

var statusByErr = []struct {
	err  error
	code int
}{
	{cart.ErrItemNotFound, http.StatusNotFound},
	{service.ErrCatalogEntryNotFound, http.StatusNotFound},
	{service.ErrWizardNotFound, http.StatusNotFound},
	{wizard.ErrVenueNotFound, http.StatusNotFound},
	{wizard.ErrTableNotFound, http.StatusNotFound},
	{guestlist.ErrVenueNotFound, http.StatusNotFound},
	{guestlist.ErrPromoterNotFound, http.StatusNotFound},

	{cart.ErrBookedImmutable, http.StatusConflict},
	{cart.ErrAlreadyBooked, http.StatusConflict},
	{cart.ErrNotPlaceholder, http.StatusConflict},
	{wizard.ErrTableUnavailable, http.StatusConflict},
	{wizard.ErrInvalidTransition, http.StatusConflict},
	{service.ErrTableSoldOut, http.StatusConflict},
	{service.ErrPriceChanged, http.StatusConflict},

	{cart.ErrInsufficientTokens, http.StatusPaymentRequired},

	{service.ErrForbidden, http.StatusForbidden},
	{guestlist.ErrForbidden, http.StatusForbidden},

	{pricing.ErrNoPriceAvailable, http.StatusUnprocessableEntity},
	{models.ErrPlaceholderBooked, http.StatusUnprocessableEntity},

	{cart.ErrInvalidPaymentMethod, http.StatusBadRequest},
	{cart.ErrInvalidPaymentOption, http.StatusBadRequest},
	{models.ErrDepositNotAllowed, http.StatusBadRequest},
	{models.ErrInvalidQuantity, http.StatusBadRequest},
	{models.ErrThirdPartyIncomplete, http.StatusBadRequest},
	{models.ErrInvalidDate, http.StatusBadRequest},
	{wizard.ErrNothingSelected, http.StatusBadRequest},
	{wizard.ErrUnknownCategory, http.StatusBadRequest},
	{wizard.ErrCapacityExceeded, http.StatusBadRequest},
	{guestlist.ErrNoGuests, http.StatusBadRequest},
	{guestlist.ErrPastDate, http.StatusBadRequest},
	{guestlist.ErrInvalidAttendance, http.StatusBadRequest},
	{service.ErrUnsupportedKind, http.StatusBadRequest},
}

// toHTTPError maps domain errors to echo HTTP errors. Validation errors and unknown errors
// pass through to the central error handler.
func toHTTPError(err error) error {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.code, err.Error())
		}
	}
	return err
}

func currentUser(c echo.Context) (*identity.User, error) {
	u, err := identity.FromContext(c.Request().Context())
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return u, nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

// respond writes the view, using 422 when the wizard rejected the input.
func respond(c echo.Context, view any, err error) error {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) && view != nil {
		return c.JSON(http.StatusUnprocessableEntity, view)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}
