package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/ports"
)

// maxWebhookBody bounds what is read before the signature is checked.
const maxWebhookBody = 1 << 20

// WebhookParser checks the provider signature and extracts a successful charge.
type WebhookParser interface {
	ParseWebhook(body []byte, signature string) (ports.PaymentEvent, bool, error)
}

// PaymentQueue is the interface the handler uses to enqueue payments.
type PaymentQueue interface {
	Enqueue(ctx context.Context, ev ports.PaymentEvent) error
}

// WebhookHandler accepts payment provider callbacks.
type WebhookHandler struct {
	parser          WebhookParser
	queue           PaymentQueue
	signatureHeader string
	log             zerolog.Logger
}

func NewWebhookHandler(parser WebhookParser, queue PaymentQueue, signatureHeader string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, queue: queue, signatureHeader: signatureHeader, log: log}
}

// Paystack handles POST /webhooks/paystack. Successful charges are queued and
// acknowledged with 200; other event types are acknowledged and dropped.
//
// @Summary      Payment provider webhook
// @Tags         webhooks
// @Accept       json
// @Param        X-Paystack-Signature  header  string  true  "HMAC-SHA512 of the body"
// @Success      200
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /webhooks/paystack [post]
func (h *WebhookHandler) Paystack(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	ev, ok, err := h.parser.ParseWebhook(body, c.Request().Header.Get(h.signatureHeader))
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook rejected")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid webhook"})
	}
	if !ok {
		return c.NoContent(http.StatusOK)
	}

	if err := h.queue.Enqueue(c.Request().Context(), ev); err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "payment queue unavailable"})
	}
	h.log.Info().Str("reference", ev.Reference).Msg("payment queued")
	return c.NoContent(http.StatusOK)
}
