package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loga-alumni/portal/internal/pkg/config"
	"github.com/loga-alumni/portal/internal/pkg/printer"
	"github.com/loga-alumni/portal/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "LOGA alumni portal",
	Long: `The LOGA alumni portal serves the member API and its live streams.

Configuration is read from the environment (PORT, STORE_DRIVER, MONGO_URI,
REDIS_ADDR, JWT_SECRET, PAYSTACK_SECRET_KEY and friends).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Errors are printed before returning.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version shown by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// bootstrap loads configuration and initialises the process logger. Logs go
// to out; commands that print results keep them off stdout.
func bootstrap(ctx context.Context, out io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), printer.Error("invalid configuration", err.Error(),
			"Check the environment variables listed in `portal --help`.")
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Output:  out,
		Service: "loga-portal",
	})
	return cfg, log, nil
}
