package main

import (
	"os"

	"account_service/internal/config"
	"account_service/internal/logging"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert database migrations",
		Long:      `Apply all pending migrations (up, the default) or revert them (down).`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found or error loading, relying on environment variables")
	}

	databaseURL, err := config.DatabaseURLFromEnv(os.Getenv)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	down := len(args) == 1 && args[0] == "down"
	if err := config.Migrate(databaseURL, down, log); err != nil {
		return oops.Code("MIGRATION_FAILED").With("down", down).Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
