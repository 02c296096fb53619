package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sagarc03/rangeserve/config"
	rangehttp "github.com/sagarc03/rangeserve/http"
	"github.com/sagarc03/rangeserve/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the rangeserve HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port")
	serveCmd.Flags().String("mode", "store", "server mode (store, static, spa)")
	serveCmd.Flags().Int64("bandwidth-limit", 0, "per-response bandwidth cap in bytes per second (0 = unlimited)")
	serveCmd.Flags().Bool("metrics", false, "expose Prometheus metrics")
	serveCmd.Flags().String("metrics-addr", ":9708", "Prometheus metrics listen address")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	handlerConfig := rangehttp.HandlerConfig{
		CORS:           cfg.CORS,
		Overrides:      cfg.Response.Overrides(),
		BandwidthLimit: cfg.Server.BandwidthLimit,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		recorder, err := metrics.New("rangeserve", reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		handlerConfig.Metrics = recorder

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			slog.Info("starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "err", err)
			}
		}()
	}

	handler := rangehttp.NewHandler(&handlerConfig, store)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// No WriteTimeout: throttled or large ranged bodies can legitimately
	// take longer than any fixed deadline.
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "err", err)
			}
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "backend", cfg.Backend.Type, "mode", cfg.Server.Mode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
