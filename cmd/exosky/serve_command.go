package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/oxygene76/exosky/pkg/constellation"
	"github.com/oxygene76/exosky/pkg/export"
	"github.com/oxygene76/exosky/pkg/observability"
	"github.com/oxygene76/exosky/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive star charts over HTTP",
	Long: `Start the web server. The catalog is loaded once at startup; a missing
input file aborts startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = config.Server.Addr
	}

	manager, err := loadManager(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewSkyCollector(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	metrics.SetCatalogCounts(manager.Catalog().NumPlanets(), manager.Catalog().NumStars())

	srv := server.New(
		manager,
		export.NewExporter(config.Export, logger),
		constellation.NewService(logger),
		metrics,
		logger,
	)

	fmt.Printf("🌐 Exosky available at http://localhost%s/\n", addr)
	fmt.Println("\n📋 Available endpoints:")
	fmt.Println("   GET  /sky/{planet}                  - Interactive star charts")
	fmt.Println("   GET  /api/v1/planets                - List planets (?q= to search)")
	fmt.Println("   GET  /api/v1/sky/{planet}           - Visible stars and statistics")
	fmt.Println("   POST /api/v1/sky/{planet}/export    - High resolution PNG (?preview=true)")
	fmt.Println("   POST /api/v1/constellations         - Save a custom constellation")
	fmt.Println("   GET  /healthz                       - Health check")
	fmt.Println("   GET  /metrics                       - Prometheus metrics")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, addr)
}
