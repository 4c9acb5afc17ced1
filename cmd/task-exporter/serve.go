package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/labelforge/task-exporter/internal/config"
	"github.com/labelforge/task-exporter/internal/export"
	"github.com/labelforge/task-exporter/pkg/log"
	"github.com/labelforge/task-exporter/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run exports on a schedule and expose metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		logger := log.InitLog(log.Level(cfg.Export.LogLevel))
		defer func() { _ = logger.Sync() }()
		zap.ReplaceGlobals(logger)
		sugar := logger.Sugar()

		interval, err := time.ParseDuration(cfg.Export.ScheduleInterval)
		if err != nil {
			return fmt.Errorf("parsing schedule interval: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		metrics.MustRegisterDefault()
		go serveMetrics(ctx, cfg.Export.MetricsAddress, sugar)

		exporter, err := newExporter(ctx, cfg, sugar)
		if err != nil {
			return err
		}

		sugar.Infow("starting scheduled exports", "interval", interval)
		export.NewScheduler(exporter, interval, sugar).Start(ctx)
		return nil
	},
}

func serveMetrics(ctx context.Context, address string, logger *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.SetKeepAlivesEnabled(false)
		_ = server.Shutdown(shutdownCtx)
		logger.Info("metrics server terminated")
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Errorw("metrics server failed", "error", err)
	}
}
