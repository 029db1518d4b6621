package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/ports"
)

// DonationHandler serves the public donation page. No session is needed.
type DonationHandler struct {
	donations ports.DonationService
	currency  string
}

func NewDonationHandler(donations ports.DonationService, currency string) *DonationHandler {
	return &DonationHandler{donations: donations, currency: currency}
}

// Presets handles GET /v1/donations/presets.
//
// @Summary      Preset donation amounts
// @Tags         donations
// @Produce      json
// @Success      200  {object}  presetsResponse
// @Router       /v1/donations/presets [get]
func (h *DonationHandler) Presets(c echo.Context) error {
	return c.JSON(http.StatusOK, presetsResponse{Currency: h.currency, Amounts: h.donations.Presets()})
}

// Checkout handles POST /v1/donations/checkout.
//
// @Summary      Open the donation payment widget
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        body  body      donationRequest  true  "Donor and amount in minor units"
// @Success      200   {object}  ports.WidgetConfig
// @Failure      400   {object}  errorResponse
// @Router       /v1/donations/checkout [post]
func (h *DonationHandler) Checkout(c echo.Context) error {
	var req donationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cfg, err := h.donations.Checkout(c.Request().Context(), toDonationInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// Confirm handles POST /v1/donations/confirm, the widget's success callback.
//
// @Summary      Confirm a donation
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        body  body      donationConfirmRequest  true  "Donation and payment reference"
// @Success      201   {object}  domain.Donation
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/donations/confirm [post]
func (h *DonationHandler) Confirm(c echo.Context) error {
	var req donationConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.donations.Confirm(c.Request().Context(), toDonationInput(req.donationRequest), req.Reference)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}
