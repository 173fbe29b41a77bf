package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/remnanthub/platform/internal/app"
)

var seedResourcesCmd = &cobra.Command{
	Use:   "seed-resources <file.yaml>",
	Short: "Load the resource library from a YAML seed file",
	Long: `Load resources from a YAML file of the form

  resources:
    - id: starter-guide
      title: Starting a house church
      category: guides
      url: https://example.org/guide

Entries whose id already exists are skipped, so the command can be re-run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		// the file is applied explicitly below
		cfg.Resources.SeedFile = ""
		cfg.Scheduler.Disabled = true

		rt, err := app.Build(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		created, skipped, err := rt.Resources.SeedFromFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", created, skipped)
		return nil
	},
}
