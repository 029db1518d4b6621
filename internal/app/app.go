package app

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/loga-alumni/portal/internal/api"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/service"
	"github.com/loga-alumni/portal/internal/infrastructure/paystack"
	"github.com/loga-alumni/portal/internal/infrastructure/queue"
	"github.com/loga-alumni/portal/internal/pkg/config"
	"github.com/loga-alumni/portal/internal/pkg/ids"
	"github.com/loga-alumni/portal/pkg/logger"
)

// App is a fully wired portal. Services with shared live bindings are
// started by Start and stopped by Close.
type App struct {
	Config *config.Config
	Stores *Stores

	Auth      *service.AuthService
	Profiles  *service.ProfileService
	Events    *service.EventService
	Jobs      *service.JobService
	Forum     *service.ForumService
	Dues      *service.DuesService
	Donations *service.DonationService
	Admin     *service.AdminService
	Bootstrap *service.AdminBootstrap

	// Paystack is nil when no secret key is configured.
	Paystack   *paystack.Client
	Dispatcher *queue.Dispatcher

	jwtSecret string
	log       zerolog.Logger
	started   []interface{ Close() }
}

// New connects the stores and builds every service. Nothing is started.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return Build(cfg, stores, log), nil
}

// Build wires services over already opened stores.
func Build(cfg *config.Config, stores *Stores, log zerolog.Logger) *App {
	a := &App{Config: cfg, Stores: stores, jwtSecret: cfg.JWTSecret, log: log}
	if a.jwtSecret == "" {
		// Development only; tokens do not survive a restart.
		a.jwtSecret = ids.New()
		log.Warn().Msg("JWT_SECRET not set, using a random signing key")
	}

	var verifier ports.PaymentVerifier
	if cfg.Paystack.SecretKey != "" {
		a.Paystack = paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, 10*time.Second)
		verifier = a.Paystack
	}

	a.Dues = service.NewDuesService(stores.Payments, stores.Users, verifier, stores.Guard, service.DuesConfig{
		AmountMinor: cfg.Dues.AmountMinor,
		Currency:    cfg.Dues.Currency,
		Period:      cfg.Dues.Period(),
		PublicKey:   cfg.Paystack.PublicKey,
	}, logger.Component(log, "dues"))
	a.Profiles = service.NewProfileService(stores.Users, a.Dues, logger.Component(log, "profiles"))
	a.Auth = service.NewAuthService(stores.Accounts, a.Profiles, stores.Revoker, a.jwtSecret, cfg.TokenTTL, logger.Component(log, "auth"))
	a.Events = service.NewEventService(stores.Events, cfg.EventsAdminOnly, logger.Component(log, "events"))
	a.Jobs = service.NewJobService(stores.Jobs, logger.Component(log, "jobs"))
	a.Forum = service.NewForumService(stores.Posts, logger.Component(log, "forum"))
	a.Donations = service.NewDonationService(stores.Donations, verifier, stores.Guard,
		cfg.Dues.Currency, cfg.Paystack.PublicKey, logger.Component(log, "donations"))
	a.Admin = service.NewAdminService(a.Profiles, stores.Accounts, a.Events, a.Jobs, a.Forum, a.Donations, logger.Component(log, "admin"))
	a.Bootstrap = service.NewAdminBootstrap(stores.Accounts, a.Profiles, cfg.Admin.Email, cfg.Admin.Password, logger.Component(log, "bootstrap"))
	a.Dispatcher = queue.NewDispatcher(cfg.PaymentWorkers, service.NewPaymentRouter(a.Dues, a.Donations), logger.Component(log, "payments"))
	return a
}

// Start opens the shared bindings and launches the payment workers. The
// workers stop when ctx ends.
func (a *App) Start(ctx context.Context) error {
	for _, s := range []interface {
		Start(context.Context) error
		Close()
	}{a.Profiles, a.Events, a.Jobs, a.Forum, a.Donations} {
		if err := s.Start(ctx); err != nil {
			a.Close(ctx)
			return fmt.Errorf("start bindings: %w", err)
		}
		a.started = append(a.started, s)
	}
	a.Dispatcher.Start(ctx)
	return nil
}

// Close stops the bindings and releases the stores.
func (a *App) Close(ctx context.Context) {
	for i := len(a.started) - 1; i >= 0; i-- {
		a.started[i].Close()
	}
	a.started = nil
	a.Stores.Close(ctx)
}

// Router builds the HTTP surface. reg nil means the default registry.
func (a *App) Router(reg prometheus.Registerer) *echo.Echo {
	d := api.Deps{
		Auth:              a.Auth,
		Profiles:          a.Profiles,
		Events:            a.Events,
		Jobs:              a.Jobs,
		Forum:             a.Forum,
		Dues:              a.Dues,
		Donations:         a.Donations,
		Admin:             a.Admin,
		Revoker:           a.Stores.Revoker,
		Readiness:         a.Stores.Readiness,
		JWTSecret:         a.jwtSecret,
		AdminEmail:        a.Config.Admin.Email,
		Currency:          a.Config.Dues.Currency,
		AuthRatePerSecond: a.Config.AuthRatePerSecond,
		Log:               logger.Component(a.log, "http"),
		Registerer:        reg,
	}
	if a.Paystack != nil {
		d.Webhooks = a.Paystack
		d.Payments = a.Dispatcher
		d.SignatureHeader = paystack.SignatureHeader
	}
	return api.NewRouter(d)
}
