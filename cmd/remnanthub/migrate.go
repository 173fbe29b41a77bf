package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/remnanthub/platform/internal/app/storage/postgres"
	"github.com/remnanthub/platform/internal/config"
	"github.com/remnanthub/platform/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadDatabaseConfig()
		if err != nil {
			return err
		}
		if err := postgres.Migrate(cfg.Database.DSN); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive integer")
			}
			steps = n
		}
		cfg, log, err := loadDatabaseConfig()
		if err != nil {
			return err
		}
		if err := postgres.Rollback(cfg.Database.DSN, steps); err != nil {
			return err
		}
		log.WithField("steps", steps).Info("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadDatabaseConfig()
		if err != nil {
			return err
		}
		version, dirty, err := postgres.MigrationVersion(cfg.Database.DSN)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func loadDatabaseConfig() (*config.Config, *logger.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, log, nil
}
