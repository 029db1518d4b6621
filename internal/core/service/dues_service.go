package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/views"
	"github.com/loga-alumni/portal/internal/pkg/metrics"
)

// DuesConfig prices one dues period.
type DuesConfig struct {
	AmountMinor int64
	Currency    string
	Period      time.Duration
	PublicKey   string
}

// DuesService runs dues checkout and recording. A payment is written first,
// then its projection onto the member profile; Reconcile repairs the
// profile when the second write did not land.
type DuesService struct {
	payments ports.Collection[domain.DuesPayment]
	users    ports.Collection[domain.Identity]
	verifier ports.PaymentVerifier
	guard    ports.ReferenceGuard
	cfg      DuesConfig
	now      func() time.Time
	log      zerolog.Logger
}

// NewDuesService wires dues handling. verifier and guard may be nil, in
// which case confirmations are trusted and references are not claimed.
func NewDuesService(
	payments ports.Collection[domain.DuesPayment],
	users ports.Collection[domain.Identity],
	verifier ports.PaymentVerifier,
	guard ports.ReferenceGuard,
	cfg DuesConfig,
	log zerolog.Logger,
) *DuesService {
	if cfg.Period <= 0 {
		cfg.Period = 30 * 24 * time.Hour
	}
	return &DuesService{
		payments: payments,
		users:    users,
		verifier: verifier,
		guard:    guard,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

func paymentsOf(userID string) ports.Query {
	return ports.Query{
		Where:   ports.Fields{"userId": userID},
		OrderBy: ports.Order{Field: "paymentDate", Desc: true},
	}
}

func (s *DuesService) Overview(ctx context.Context, actor domain.Actor) (*views.DuesOverview, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	id := actor.Account.ID

	payments, err := s.payments.List(ctx, paymentsOf(id))
	if err != nil {
		return nil, fmt.Errorf("dues overview: %w", err)
	}
	var profile *domain.Identity
	p, err := s.users.Get(ctx, id)
	switch {
	case err == nil:
		profile = &p
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("dues overview: %w", err)
	}

	ov := views.BuildDuesOverview(profile, payments, s.now())
	return &ov, nil
}

func (s *DuesService) Checkout(ctx context.Context, actor domain.Actor) (*ports.WidgetConfig, error) {
	ov, err := s.Overview(ctx, actor)
	if err != nil {
		return nil, err
	}
	if ov.Status == domain.DuesPaid {
		return nil, domain.ErrDuesAlreadyPaid
	}

	return &ports.WidgetConfig{
		PublicKey:   s.cfg.PublicKey,
		Reference:   domain.NewPaymentReference(domain.DuesReferencePrefix, s.now()),
		Email:       actor.Account.Email,
		AmountMinor: s.cfg.AmountMinor,
		Currency:    s.cfg.Currency,
		Metadata:    map[string]string{"user_id": actor.Account.ID, "kind": "dues"},
	}, nil
}

// Confirm records a payment the widget reported as successful.
func (s *DuesService) Confirm(ctx context.Context, actor domain.Actor, reference string) (*domain.DuesPayment, error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	if !domain.IsDuesReference(reference) {
		return nil, &domain.ValidationError{Field: "reference", Message: "is not a dues payment reference"}
	}

	amount := s.cfg.AmountMinor
	if s.verifier != nil {
		vp, err := s.verifier.Verify(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("verify payment: %w", err)
		}
		if err := checkVerified(vp, s.cfg.AmountMinor, s.cfg.Currency); err != nil {
			return nil, err
		}
		amount = vp.AmountMinor
	}
	return s.Record(ctx, actor.Account.ID, reference, amount)
}

// CloseCheckout is called when the member dismisses the widget. Nothing is
// written.
func (s *DuesService) CloseCheckout(_ context.Context, actor domain.Actor, reference string) {
	s.log.Info().Str("user_id", actor.Account.ID).Str("reference", reference).Msg("payment window closed")
}

func (s *DuesService) Watch(ctx context.Context, actor domain.Actor) (<-chan ports.View[domain.DuesPayment], error) {
	if err := requireSignedIn(actor); err != nil {
		return nil, err
	}
	return live.Watch(ctx, s.payments, paymentsOf(actor.Account.ID), live.WithLogger(s.log))
}

// ProcessPayment records a dues payment reported by the provider webhook.
// Underpaid or foreign-currency charges are logged and dropped.
func (s *DuesService) ProcessPayment(ctx context.Context, ev ports.PaymentEvent) error {
	if ev.AmountMinor < s.cfg.AmountMinor || !sameCurrency(ev.Currency, s.cfg.Currency) {
		metrics.PaymentsProcessedTotal.WithLabelValues("dues", "rejected").Inc()
		s.log.Warn().
			Str("reference", ev.Reference).
			Int64("amount", ev.AmountMinor).
			Str("currency", ev.Currency).
			Msg("dues payment does not cover the period, ignored")
		return nil
	}
	userID := ev.Metadata["user_id"]
	if userID == "" {
		found, err := s.users.List(ctx, ports.Query{Where: ports.Fields{"email": ev.Email}})
		if err != nil {
			return fmt.Errorf("find payer: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("no member for %s: %w", ev.Email, domain.ErrNotFound)
		}
		userID = found[0].ID
	}
	_, err := s.Record(ctx, userID, ev.Reference, ev.AmountMinor)
	if errors.Is(err, domain.ErrDuplicate) {
		return nil
	}
	return err
}

// Record writes the payment for reference once, then projects it onto the
// member profile. A reference that is already recorded returns the
// existing payment. amountMinor is what the provider charged.
func (s *DuesService) Record(ctx context.Context, userID, reference string, amountMinor int64) (*domain.DuesPayment, error) {
	// 1. Already recorded?
	existing, err := s.payments.List(ctx, ports.Query{Where: ports.Fields{"reference": reference}})
	if err != nil {
		return nil, fmt.Errorf("record dues: %w", err)
	}
	if len(existing) > 0 {
		metrics.PaymentsProcessedTotal.WithLabelValues("dues", "duplicate").Inc()
		return &existing[0], nil
	}

	// 2. Claim the reference so concurrent confirmations write once.
	if s.guard != nil {
		won, err := s.guard.Claim(ctx, reference)
		if err != nil {
			s.log.Warn().Err(err).Str("reference", reference).Msg("reference claim failed, recording anyway")
		} else if !won {
			metrics.PaymentsProcessedTotal.WithLabelValues("dues", "duplicate").Inc()
			return nil, domain.ErrDuplicate
		}
	}

	// 3. Append the payment record.
	now := s.now()
	payment := domain.DuesPayment{
		UserID:      userID,
		Amount:      amountMinor,
		Currency:    s.cfg.Currency,
		Status:      domain.PaymentPaid,
		PaymentDate: now,
		NextDueDate: now.Add(s.cfg.Period),
		Reference:   reference,
	}
	id, err := s.payments.Create(ctx, payment)
	if errors.Is(err, domain.ErrDuplicate) {
		// Lost the race to a concurrent confirmation of the same reference.
		metrics.PaymentsProcessedTotal.WithLabelValues("dues", "duplicate").Inc()
		return s.recorded(ctx, reference)
	}
	if err != nil {
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, reference); relErr != nil {
				s.log.Warn().Err(relErr).Str("reference", reference).Msg("reference release failed")
			}
		}
		metrics.PaymentsProcessedTotal.WithLabelValues("dues", "error").Inc()
		return nil, writeError(s.payments.Name(), "create", "Failed to record payment", err)
	}
	payment.ID = id

	// 4. Project onto the profile. A failure here leaves the profile stale
	// until the next Reconcile.
	fields := ports.Fields{
		"duesStatus":      domain.DuesPaid,
		"lastDuesPayment": payment.PaymentDate,
		"nextDueDate":     payment.NextDueDate,
	}
	if err := s.users.Update(ctx, userID, fields); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Str("reference", reference).Msg("dues projection update failed")
	}

	metrics.PaymentsProcessedTotal.WithLabelValues("dues", "ok").Inc()
	s.log.Info().Str("user_id", userID).Str("reference", reference).Msg("dues payment recorded")
	return &payment, nil
}

// Reconcile rewrites the cached dues fields of profile when they disagree
// with the payment history and returns the corrected profile.
func (s *DuesService) Reconcile(ctx context.Context, profile *domain.Identity) (*domain.Identity, error) {
	if profile == nil {
		return nil, nil
	}
	payments, err := s.payments.List(ctx, paymentsOf(profile.ID))
	if err != nil {
		return profile, fmt.Errorf("reconcile dues: %w", err)
	}

	proj := domain.ProjectDues(payments, s.now())
	if proj.Matches(profile) {
		return profile, nil
	}

	fields := ports.Fields{"duesStatus": proj.Status, "lastDuesPayment": nil, "nextDueDate": nil}
	if proj.LastDuesPayment != nil {
		fields["lastDuesPayment"] = *proj.LastDuesPayment
		fields["nextDueDate"] = *proj.NextDueDate
	}
	if err := s.users.Update(ctx, profile.ID, fields); err != nil {
		return profile, fmt.Errorf("reconcile dues: %w", err)
	}

	s.log.Info().Str("user_id", profile.ID).Str("status", string(proj.Status)).Msg("dues projection reconciled")
	out := *profile
	out.DuesStatus = proj.Status
	out.LastDuesPayment = proj.LastDuesPayment
	out.NextDueDate = proj.NextDueDate
	return &out, nil
}

func checkVerified(vp *ports.VerifiedPayment, minAmount int64, currency string) error {
	if vp == nil || vp.Status != "success" {
		return &domain.ValidationError{Field: "reference", Message: "payment was not completed"}
	}
	if vp.AmountMinor < minAmount {
		return &domain.ValidationError{Field: "amount", Message: "payment amount is too low"}
	}
	if !sameCurrency(vp.Currency, currency) {
		return &domain.ValidationError{Field: "currency", Message: "payment currency does not match"}
	}
	return nil
}

// sameCurrency treats an unreported or unrestricted currency as a match.
func sameCurrency(got, want string) bool {
	return got == "" || want == "" || strings.EqualFold(got, want)
}

func (s *DuesService) recorded(ctx context.Context, reference string) (*domain.DuesPayment, error) {
	existing, err := s.payments.List(ctx, ports.Query{Where: ports.Fields{"reference": reference}})
	if err != nil {
		return nil, fmt.Errorf("record dues: %w", err)
	}
	if len(existing) == 0 {
		return nil, domain.ErrDuplicate
	}
	return &existing[0], nil
}
