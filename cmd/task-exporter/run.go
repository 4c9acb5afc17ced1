package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/labelforge/task-exporter/internal/client"
	"github.com/labelforge/task-exporter/internal/config"
	"github.com/labelforge/task-exporter/internal/export"
	"github.com/labelforge/task-exporter/internal/sink"
	"github.com/labelforge/task-exporter/pkg/log"
	"github.com/labelforge/task-exporter/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one export and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		logger := log.InitLog(log.Level(cfg.Export.LogLevel))
		defer func() { _ = logger.Sync() }()
		zap.ReplaceGlobals(logger)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		metrics.MustRegisterDefault()

		exporter, err := newExporter(ctx, cfg, logger.Sugar())
		if err != nil {
			return err
		}
		if err := exporter.Run(ctx); err != nil {
			logger.Sugar().Errorw("export failed", "error", err)
			return err
		}
		return nil
	},
}

func newExporter(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*export.Exporter, error) {
	dest, err := newSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	apiClient := client.New(cfg.Platform.BaseUrl)
	return export.New(cfg, apiClient, dest, logger), nil
}

func newSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.Sink.Kind {
	case "excel":
		return sink.NewExcelSink(cfg.Sink.WorkbookPath), nil
	case "sheets":
		if cfg.Sink.SpreadsheetId == "" {
			return nil, fmt.Errorf("sink kind %q requires TASK_EXPORTER_SPREADSHEET_ID", cfg.Sink.Kind)
		}
		return sink.NewGoogleSheetsSink(ctx, cfg.Sink.SpreadsheetId)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}
}
