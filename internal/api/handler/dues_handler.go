package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
)

// DuesHandler serves membership dues: overview, widget checkout and the
// widget callbacks.
type DuesHandler struct {
	dues ports.DuesService
}

func NewDuesHandler(dues ports.DuesService) *DuesHandler {
	return &DuesHandler{dues: dues}
}

// Overview handles GET /v1/dues.
//
// @Summary      Dues overview
// @Tags         dues
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  views.DuesOverview
// @Failure      401  {object}  errorResponse
// @Router       /v1/dues [get]
func (h *DuesHandler) Overview(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ov, err := h.dues.Overview(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ov)
}

// Checkout handles POST /v1/dues/checkout. It fails with 409 while the
// current period is paid.
//
// @Summary      Open the dues payment widget
// @Tags         dues
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.WidgetConfig
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/dues/checkout [post]
func (h *DuesHandler) Checkout(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	cfg, err := h.dues.Checkout(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// Confirm handles POST /v1/dues/confirm, the widget's success callback.
//
// @Summary      Confirm a dues payment
// @Tags         dues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      referenceRequest  true  "Payment reference"
// @Success      200   {object}  duesPaymentResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/dues/confirm [post]
func (h *DuesHandler) Confirm(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req referenceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	p, err := h.dues.Confirm(c.Request().Context(), actor, req.Reference)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, duesPaymentResponse{Payment: p})
}

// Close handles POST /v1/dues/close, the widget's dismissal callback.
//
// @Summary      Payment widget closed
// @Tags         dues
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  referenceRequest  false  "Payment reference"
// @Success      204
// @Router       /v1/dues/close [post]
func (h *DuesHandler) Close(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req referenceRequest
	_ = c.Bind(&req)
	h.dues.CloseCheckout(c.Request().Context(), actor, req.Reference)
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/dues/stream: the member's own payment history, live.
//
// @Summary      Live payment history
// @Tags         dues
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {object}  ports.View[domain.DuesPayment]
// @Router       /v1/dues/stream [get]
func (h *DuesHandler) Stream(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ch, err := h.dues.Watch(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return streamViews(c, ch, func(v ports.View[domain.DuesPayment]) any { return v })
}
