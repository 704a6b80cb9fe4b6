package main

import (
	"github.com/spf13/cobra"

	"github.com/bobbytablesbot/bobbytables/internal/boot"
	"github.com/bobbytablesbot/bobbytables/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|version|force N>",
	Short: "Apply or roll back database migrations",
	Long: `Manage the store schema for the configured driver.

Examples:
  bobbytables migrate up
  bobbytables migrate version
  bobbytables migrate force 1`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"up", "down", "version", "force"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return db.RunMigrate(log, boot.ProvideDatabaseConfig(cfg), args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
