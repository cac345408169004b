package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optimatime/optimatime/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "optimatime: migrations applied to %s\n", cfg.Database.Path)
	return nil
}
