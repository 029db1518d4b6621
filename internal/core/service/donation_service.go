package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
	"github.com/loga-alumni/portal/internal/pkg/sanitize"
)

// DonationPresets are the suggested amounts, in minor units.
var DonationPresets = []int64{5000, 10000, 20000, 50000}

var donationsQuery = ports.Query{OrderBy: ports.Order{Field: "createdAt", Desc: true}}

type DonationService struct {
	coll      ports.Collection[domain.Donation]
	donations *live.Binding[domain.Donation]
	verifier  ports.PaymentVerifier
	guard     ports.ReferenceGuard
	currency  string
	publicKey string
	now       func() time.Time
	log       zerolog.Logger
}

func NewDonationService(
	coll ports.Collection[domain.Donation],
	verifier ports.PaymentVerifier,
	guard ports.ReferenceGuard,
	currency, publicKey string,
	log zerolog.Logger,
) *DonationService {
	return &DonationService{
		coll:      coll,
		donations: live.New(coll, donationsQuery, live.WithLogger(log)),
		verifier:  verifier,
		guard:     guard,
		currency:  currency,
		publicKey: publicKey,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

func (s *DonationService) Start(ctx context.Context) error { return s.donations.Start(ctx) }
func (s *DonationService) Close()                          { s.donations.Close() }

func (s *DonationService) Presets() []int64 { return DonationPresets }

// List is the live donations ledger, newest first.
func (s *DonationService) List() ports.View[domain.Donation] { return s.donations.View() }

// Checkout needs no account: anyone with an email may donate.
func (s *DonationService) Checkout(_ context.Context, in ports.DonationInput) (*ports.WidgetConfig, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return &ports.WidgetConfig{
		PublicKey:   s.publicKey,
		Reference:   domain.NewPaymentReference(domain.DonationReferencePrefix, s.now()),
		Email:       in.Email,
		AmountMinor: in.AmountMinor,
		Currency:    s.currency,
		Metadata:    map[string]string{"kind": "donation", "name": sanitize.Text(in.Name)},
	}, nil
}

// Confirm records a donation the widget reported as successful. With a
// verifier the provider's amount and email win over the submitted ones.
func (s *DonationService) Confirm(ctx context.Context, in ports.DonationInput, reference string) (*domain.Donation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	ev := ports.PaymentEvent{
		Reference:   reference,
		Email:       in.Email,
		AmountMinor: in.AmountMinor,
		Currency:    s.currency,
		Metadata:    map[string]string{"name": in.Name},
	}
	if s.verifier != nil {
		vp, err := s.verifier.Verify(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("verify donation: %w", err)
		}
		if err := checkVerified(vp, 1, ""); err != nil {
			return nil, err
		}
		ev.AmountMinor, ev.Email = vp.AmountMinor, vp.Email
		if vp.Currency != "" {
			ev.Currency = vp.Currency
		}
	}
	return s.record(ctx, ev)
}

// ProcessPayment records a donation reported by the provider webhook.
func (s *DonationService) ProcessPayment(ctx context.Context, ev ports.PaymentEvent) error {
	_, err := s.record(ctx, ev)
	if errors.Is(err, domain.ErrDuplicate) {
		return nil
	}
	return err
}

func (s *DonationService) record(ctx context.Context, ev ports.PaymentEvent) (*domain.Donation, error) {
	existing, err := s.coll.List(ctx, ports.Query{Where: ports.Fields{"reference": ev.Reference}})
	if err != nil {
		return nil, fmt.Errorf("record donation: %w", err)
	}
	if len(existing) > 0 {
		metrics.PaymentsProcessedTotal.WithLabelValues("donation", "duplicate").Inc()
		return &existing[0], nil
	}

	if s.guard != nil {
		won, err := s.guard.Claim(ctx, ev.Reference)
		if err != nil {
			s.log.Warn().Err(err).Str("reference", ev.Reference).Msg("reference claim failed, recording anyway")
		} else if !won {
			metrics.PaymentsProcessedTotal.WithLabelValues("donation", "duplicate").Inc()
			return nil, domain.ErrDuplicate
		}
	}

	currency := ev.Currency
	if currency == "" {
		currency = s.currency
	}
	d := domain.Donation{
		Name:      sanitize.Text(ev.Metadata["name"]),
		Email:     ev.Email,
		Amount:    ev.AmountMinor,
		Currency:  currency,
		Reference: ev.Reference,
	}
	id, err := s.donations.Create(ctx, d)
	if errors.Is(err, domain.ErrDuplicate) {
		metrics.PaymentsProcessedTotal.WithLabelValues("donation", "duplicate").Inc()
		found, lerr := s.coll.List(ctx, ports.Query{Where: ports.Fields{"reference": ev.Reference}})
		if lerr != nil || len(found) == 0 {
			return nil, domain.ErrDuplicate
		}
		return &found[0], nil
	}
	if err != nil {
		if s.guard != nil {
			_ = s.guard.Release(ctx, ev.Reference)
		}
		metrics.PaymentsProcessedTotal.WithLabelValues("donation", "error").Inc()
		return nil, writeError(s.coll.Name(), "create", "Failed to record donation", err)
	}
	d.ID = id

	metrics.PaymentsProcessedTotal.WithLabelValues("donation", "ok").Inc()
	s.log.Info().Str("reference", ev.Reference).Int64("amount", d.Amount).Msg("donation recorded")
	return &d, nil
}
