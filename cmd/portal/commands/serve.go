package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loga-alumni/portal/internal/app"
	"github.com/loga-alumni/portal/internal/pkg/printer"
)

var serveShutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Connects the stores, makes sure the reserved admin account exists,
starts the shared live bindings and the payment workers, then serves the
API until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx, os.Stdout)
	if err != nil {
		return err
	}

	portal, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open stores")
		return printer.Error("store connection failed", err.Error(),
			"Check MONGO_URI and REDIS_ADDR, or run with STORE_DRIVER=memory.")
	}
	defer portal.Close(context.Background())

	if _, err := portal.Bootstrap.EnsureAdmin(ctx); err != nil {
		log.Error().Err(err).Msg("failed to ensure admin account")
		return err
	}
	if err := portal.Start(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start services")
		return err
	}
	if portal.Paystack == nil {
		log.Warn().Msg("PAYSTACK_SECRET_KEY not set, payments are trusted and webhooks are disabled")
	}

	e := portal.Router(nil)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with the signal, which releases open streams.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("driver", cfg.StoreDriver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown incomplete")
		_ = srv.Close()
	}
	log.Info().Msg("server stopped")
	return nil
}
