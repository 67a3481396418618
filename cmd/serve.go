package cmd

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mholecy/photo-triage/internal/categories"
	"github.com/mholecy/photo-triage/internal/logging"
	"github.com/mholecy/photo-triage/internal/scan"
	"github.com/mholecy/photo-triage/internal/scheduler"
	"github.com/mholecy/photo-triage/internal/store"
	"github.com/mholecy/photo-triage/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local API server",
	Long: `Start the Photo Triage API server.

The server exposes scan control with live progress events, category
listings, duplicate groups, similarity search and cache statistics. It also
schedules the nightly background maintenance pass and cancels foreground
scans under memory pressure.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind to")
}

// envPortOverride applies the WEB_PORT environment variable on top of the
// flag value. Unset, empty or invalid values keep the fallback.
func envPortOverride(fallback int) int {
	s := os.Getenv("WEB_PORT")
	if s == "" {
		return fallback
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return fallback
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	port := envPortOverride(mustGetInt(cmd, "port"))
	host := mustGetString(cmd, "host")
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}

	handlers := &web.Handlers{
		Orchestrator: app.orchestrator,
		Cache:        app.cache,
		Index:        categories.NewIndex(app.cache, app.source, logging.WithComponent(app.logger, "categories")),
		Clusterer:    app.clusterer,
		Searcher:     store.NewSearcher(app.cache),
		People:       app.people(),
		Logger:       logging.WithComponent(app.logger, "web"),
	}
	server := web.NewServer(host, port, handlers, logging.WithComponent(app.logger, "web"))

	background := scan.NewBackground(app.source, app.cache, app.analyzer, app.clusterer, app.oracle,
		logging.WithComponent(app.logger, "background"))
	nightly, err := scheduler.New(background, app.cfg.Scan.NightlySchedule,
		time.Duration(app.cfg.Scan.NightlyBudget)*time.Minute,
		logging.WithComponent(app.logger, "scheduler"))
	if err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(cmd.Context())
	defer stopWatch()
	go app.orchestrator.WatchMemoryPressure(watchCtx, time.Second)

	nightly.Start()
	defer nightly.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.logger.Info("shutting down", "signal", sig.String())
	}

	app.orchestrator.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
