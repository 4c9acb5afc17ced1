package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/labelforge/task-exporter/internal/api"
	"github.com/labelforge/task-exporter/internal/client"
	"github.com/labelforge/task-exporter/internal/config"
	"github.com/labelforge/task-exporter/internal/enricher"
	"github.com/labelforge/task-exporter/internal/fetcher"
	"github.com/labelforge/task-exporter/internal/flatten"
	"github.com/labelforge/task-exporter/internal/sink"
	"github.com/labelforge/task-exporter/pkg/metrics"
)

// Exporter drives one full export run: authenticate, fetch pending and
// resolved tasks for every configured job, flatten, overwrite sheets.
type Exporter struct {
	cfg     *config.Config
	client  *client.Client
	fetcher *fetcher.Fetcher
	sink    sink.Sink
	log     *zap.SugaredLogger
}

func New(cfg *config.Config, c *client.Client, dest sink.Sink, log *zap.SugaredLogger) *Exporter {
	e := enricher.New(c, log)
	return &Exporter{
		cfg:     cfg,
		client:  c,
		fetcher: fetcher.New(c, e, log),
		sink:    dest,
		log:     log,
	}
}

// Run executes one export. The first unrecovered error aborts the whole
// run; sheets not yet processed are left untouched.
func (e *Exporter) Run(ctx context.Context) error {
	if err := e.run(ctx); err != nil {
		metrics.IncreaseRunsMetric("failure")
		return err
	}
	metrics.IncreaseRunsMetric("success")
	return nil
}

func (e *Exporter) run(ctx context.Context) error {
	log := e.log.With("run_id", uuid.New().String())

	groups := e.cfg.Export.Sheets
	if len(groups) == 0 {
		log.Warn("no sheet groups configured, nothing to export")
		return nil
	}

	if !e.client.Authenticated() {
		if err := e.client.Login(ctx, e.cfg.Platform.Username, e.cfg.Platform.Password); err != nil {
			return err
		}
		log.Info("authenticated against annotation platform")
	}

	jobIDs := make([]string, 0)
	for _, group := range groups {
		jobIDs = append(jobIDs, group.JobIDs...)
	}
	log.Infow("starting export",
		"sheets", len(groups),
		"jobs", len(funk.UniqString(jobIDs)),
	)

	for _, group := range groups {
		if err := e.exportGroup(ctx, log, group); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) exportGroup(ctx context.Context, log *zap.SugaredLogger, group config.SheetGroup) error {
	exists, err := e.sink.HasDestination(ctx, group.Sheet)
	if err != nil {
		return fmt.Errorf("checking destination %q: %w", group.Sheet, err)
	}
	if !exists {
		log.Warnw("destination sheet not found, skipping", "sheet", group.Sheet)
		return nil
	}

	tasks := make([]api.EnrichedTask, 0)
	for _, jobID := range group.JobIDs {
		for _, variant := range []fetcher.Variant{fetcher.VariantPending, fetcher.VariantResolved} {
			fetched, err := e.fetcher.FetchTasks(ctx, variant, fetcher.FetchOptions{
				JobID:    jobID,
				Status:   statusFor(variant),
				Limit:    e.cfg.Export.PageLimit,
				MaxPages: e.cfg.Export.MaxPages,
			})
			if err != nil {
				return err
			}
			tasks = append(tasks, fetched...)
		}
	}

	rows := flatten.Flatten(tasks, flatten.Options{
		NameQuestionTitle:  e.cfg.Export.NameQuestionTitle,
		ClassQuestionTitle: e.cfg.Export.ClassQuestionTitle,
	})
	matrix := funk.Map(rows, func(r flatten.Row) []string {
		return r.Values()
	}).([][]string)

	if err := e.sink.Write(ctx, group.Sheet, flatten.Header(), matrix); err != nil {
		return fmt.Errorf("writing sheet %q: %w", group.Sheet, err)
	}
	metrics.AddRowsWrittenMetric(group.Sheet, len(matrix))

	log.Infow("sheet exported",
		"sheet", group.Sheet,
		"tasks", len(tasks),
		"rows", len(matrix),
	)
	return nil
}

// The pending endpoint filters on an explicit status parameter; the
// resolved endpoint carries its status in the path.
func statusFor(variant fetcher.Variant) string {
	if variant == fetcher.VariantPending {
		return "pending"
	}
	return ""
}
