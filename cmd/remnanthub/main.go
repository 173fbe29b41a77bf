// Command remnanthub runs the RemnantHub API server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remnanthub/platform/internal/config"
	"github.com/remnanthub/platform/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "remnanthub",
	Short: "RemnantHub house-church community platform",
	Long: `RemnantHub serves the JSON API used to discover, join and run
house-church communities.

Configuration is read from the environment, optionally preloaded from a
.env file (see --env-file).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedResourcesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the process logger.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.LoggingConfig{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		Component: "remnanthub",
	})
	return cfg, log, nil
}
