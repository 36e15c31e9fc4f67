package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"sjsage522/projectwatcher/logger"
)

func newRunCommand() *cobra.Command {
	var console bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the listing until interrupted",
		Long: `Sweep the listing every CRAWL_INTERVAL_SECONDS, store new projects and alert
when the newest one matches the recency filter.

With --console, commands typed on stdin are served while the loop runs:
  filters    edit the recency filter (alerts are held back while editing)
  list [N]   show page N of the matching projects
  open ID    open a stored project in the browser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcher(cmd, console)
		},
	}

	cmd.Flags().BoolVar(&console, "console", true, "Serve filter edits and listings from stdin")
	return cmd
}

func runWatcher(cmd *cobra.Command, console bool) error {
	log := logger.ForComponent("app")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	reg := prometheus.NewRegistry()
	a, err := newApp(ctx, cfg, cmd.OutOrStdout(), reg)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	defer a.Close()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if console {
		go runConsole(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a)
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("listing", cfg.ListingURL).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting project watcher")

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- a.loop.Run(ctx)
	}()

	// Wait for shutdown signal or loop exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-loopDone
	case <-ctx.Done():
		<-loopDone
	case err := <-loopDone:
		if err != nil {
			return err
		}
	}

	log.Info().Msg("Shutting down gracefully...")
	return nil
}

// serveMetrics exposes reg on /metrics in the background
func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed: %v", err)
		}
	}()
	return srv
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single sweep and retention pass, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout(), prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("initializing services: %w", err)
			}
			defer a.Close()

			stats, err := a.loop.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Fetched %d projects from %d pages (%d attempts): %d new, %d known, %d evicted, %d alerts in %s\n",
				stats.Fetched, stats.Pages, stats.Attempts, stats.Inserted, stats.Duplicates,
				stats.Evicted, stats.Notified, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
