package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/loga-alumni/portal/docs"
	"github.com/loga-alumni/portal/internal/api/handler"
	"github.com/loga-alumni/portal/internal/api/middleware"
	"github.com/loga-alumni/portal/internal/core/ports"
)

// Deps is everything the HTTP layer needs. The composition root builds it.
type Deps struct {
	Auth      ports.AuthService
	Profiles  ports.ProfileService
	Events    ports.EventService
	Jobs      ports.JobService
	Forum     ports.ForumService
	Dues      ports.DuesService
	Donations ports.DonationService
	Admin     ports.AdminService

	// Webhooks and Payments may be nil when no payment provider is configured.
	Webhooks        handler.WebhookParser
	Payments        handler.PaymentQueue
	SignatureHeader string

	Revoker   ports.TokenRevoker
	Readiness map[string]handler.Pinger

	JWTSecret         string
	AdminEmail        string
	Currency          string
	AuthRatePerSecond float64
	Log               zerolog.Logger

	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: d.Registerer,
	}))

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Secret:     d.JWTSecret,
		Revoker:    d.Revoker,
		Profiles:   d.Profiles,
		AdminEmail: d.AdminEmail,
		Log:        d.Log,
	})

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/auth", authRateLimiter(d.AuthRatePerSecond))
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, authMiddleware)
	auth.PUT("/password", authHandler.ChangePassword, authMiddleware)

	// --- Public donation page ---
	donationHandler := handler.NewDonationHandler(d.Donations, d.Currency)
	e.GET("/v1/donations/presets", donationHandler.Presets)
	e.POST("/v1/donations/checkout", donationHandler.Checkout)
	e.POST("/v1/donations/confirm", donationHandler.Confirm)

	// --- Member routes ---
	v1 := e.Group("/v1", authMiddleware)

	profileHandler := handler.NewProfileHandler(d.Profiles)
	v1.GET("/me", profileHandler.Me)
	v1.PUT("/me/profile", profileHandler.Update)

	eventHandler := handler.NewEventHandler(d.Events)
	v1.GET("/events", eventHandler.List)
	v1.POST("/events", eventHandler.Create)
	v1.GET("/events/stream", eventHandler.Stream)
	v1.PATCH("/events/:id", eventHandler.Update)
	v1.DELETE("/events/:id", eventHandler.Delete)

	jobHandler := handler.NewJobHandler(d.Jobs)
	v1.GET("/jobs", jobHandler.List)
	v1.POST("/jobs", jobHandler.Create)
	v1.GET("/jobs/stream", jobHandler.Stream)
	v1.PATCH("/jobs/:id", jobHandler.Update)
	v1.DELETE("/jobs/:id", jobHandler.Delete)

	forumHandler := handler.NewForumHandler(d.Forum)
	v1.GET("/forum", forumHandler.List)
	v1.POST("/forum", forumHandler.Create)
	v1.GET("/forum/stream", forumHandler.Stream)
	v1.DELETE("/forum/:id", forumHandler.Delete)
	v1.POST("/forum/:id/comments", forumHandler.AddComment)
	v1.DELETE("/forum/:id/comments/:comment_id", forumHandler.DeleteComment)

	duesHandler := handler.NewDuesHandler(d.Dues)
	v1.GET("/dues", duesHandler.Overview)
	v1.POST("/dues/checkout", duesHandler.Checkout)
	v1.POST("/dues/confirm", duesHandler.Confirm)
	v1.POST("/dues/close", duesHandler.Close)
	v1.GET("/dues/stream", duesHandler.Stream)

	// --- Admin routes ---
	adminHandler := handler.NewAdminHandler(d.Admin)
	admin := v1.Group("/admin", middleware.RequireAdmin())
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/users", adminHandler.Members)
	admin.PATCH("/users/:id/admin", adminHandler.ToggleAdmin)
	admin.DELETE("/users/:id", adminHandler.DeleteMember)
	admin.GET("/donations", adminHandler.Donations)

	// --- Payment provider callbacks ---
	if d.Webhooks != nil && d.Payments != nil {
		webhookHandler := handler.NewWebhookHandler(d.Webhooks, d.Payments, d.SignatureHeader, d.Log)
		e.POST("/webhooks/paystack", webhookHandler.Paystack)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// authRateLimiter throttles sign-up and sign-in attempts per client IP.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 5
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "too many attempts, try again shortly"})
		},
	})
}
