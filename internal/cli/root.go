// Package cli implements the optimatime command-line entry point: the HTTP
// server, database migrations, and version reporting.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "optimatime",
	Short: "OptimaTime day-planning engine",
	Long: `optimatime runs the day-planning engine: horizon allocation, priority
scoring, and persistence for a rolling multi-day task schedule.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.optimatime/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
