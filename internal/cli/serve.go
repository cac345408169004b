package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/optimatime/optimatime/internal/api"
	"github.com/optimatime/optimatime/internal/app/mutator"
	"github.com/optimatime/optimatime/internal/app/planner"
	"github.com/optimatime/optimatime/internal/daemon"
	"github.com/optimatime/optimatime/internal/infra/sqlite"
)

var serveMetrics bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", false, "expose Prometheus metrics at /metrics")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	planSvc := planner.NewService(db)
	mutateSvc := mutator.NewService(db)

	server := api.NewServer(planSvc, mutateSvc)
	if serveMetrics {
		server.EnableMetrics()
	}

	addr := net.JoinHostPort(cfg.API.Host, fmt.Sprintf("%d", cfg.API.Port))
	fmt.Fprintf(os.Stdout, "optimatime listening on %s (db=%s)\n", addr, cfg.Database.Path)
	return http.ListenAndServe(addr, server.Handler())
}

func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.DefaultConfigPath()
	}
	return daemon.Load(path)
}
