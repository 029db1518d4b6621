package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
)

// PaymentRouter hands webhook payments to dues or donations by reference prefix.
type PaymentRouter struct {
	dues      ports.PaymentProcessor
	donations ports.PaymentProcessor
}

func NewPaymentRouter(dues, donations ports.PaymentProcessor) *PaymentRouter {
	return &PaymentRouter{dues: dues, donations: donations}
}

func (r *PaymentRouter) ProcessPayment(ctx context.Context, ev ports.PaymentEvent) error {
	switch {
	case strings.HasPrefix(ev.Reference, domain.DuesReferencePrefix):
		return r.dues.ProcessPayment(ctx, ev)
	case strings.HasPrefix(ev.Reference, domain.DonationReferencePrefix):
		return r.donations.ProcessPayment(ctx, ev)
	default:
		return fmt.Errorf("unknown payment reference %q", ev.Reference)
	}
}
