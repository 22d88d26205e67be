package main

import (
	"os"

	"account_service/internal/config"
	"account_service/internal/logging"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "account-service",
		Short:        "User account and authentication service",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig reads the configuration and builds the process logger from it
func loadConfig() (*config.Config, *logrus.Logger, error) {
	bootstrap := logging.New("info", "", os.Stderr)

	cfg, err := config.Load(bootstrap)
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout), nil
}
