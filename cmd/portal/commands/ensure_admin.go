package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/loga-alumni/portal/internal/app"
	"github.com/loga-alumni/portal/internal/pkg/config"
	"github.com/loga-alumni/portal/internal/pkg/printer"
)

var ensureAdminCmd = &cobra.Command{
	Use:   "ensure-admin",
	Short: "Create or repair the reserved admin account",
	Long: `Creates the account named by ADMIN_EMAIL with ADMIN_PASSWORD if it does
not exist, and restores the admin flag on its profile. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runEnsureAdmin,
}

func init() {
	rootCmd.AddCommand(ensureAdminCmd)
}

func runEnsureAdmin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return err
	}
	portal, err := app.New(ctx, cfg, log)
	if err != nil {
		return printer.Error("store connection failed", err.Error(),
			"Check MONGO_URI and REDIS_ADDR.")
	}
	defer portal.Close(context.Background())

	acct, err := portal.Bootstrap.EnsureAdmin(ctx)
	if err != nil {
		return printer.Error("could not ensure the admin account", err.Error())
	}
	printer.Success("admin account ready")
	printer.Detail("id:    %s", acct.ID)
	printer.Detail("email: %s", acct.Email)
	if cfg.StoreDriver == config.DriverMemory {
		printer.Warning("STORE_DRIVER=memory keeps nothing after this command exits")
	}
	return nil
}
