package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/labelforge/task-exporter/internal/api"
	"github.com/labelforge/task-exporter/internal/client"
	"github.com/labelforge/task-exporter/internal/enricher"
	"github.com/labelforge/task-exporter/pkg/metrics"
)

// Variant selects which task-listing endpoint to walk. Both share the
// same paging mechanics and differ only in the underlying data.
type Variant string

const (
	VariantPending  Variant = "pending"
	VariantResolved Variant = "resolved"
)

func (v Variant) path() string {
	if v == VariantResolved {
		return "/admin/user-tasks/resolved"
	}
	return "/admin/user-tasks"
}

type FetchOptions struct {
	JobID     string
	Status    string
	Limit     int
	StartPage int
	// MaxPages bounds the page walk; 0 keeps the original unbounded
	// behavior of stopping only on the server's next indicator.
	MaxPages int
}

type Fetcher struct {
	client   *client.Client
	enricher *enricher.Enricher
	log      *zap.SugaredLogger
}

func New(c *client.Client, e *enricher.Enricher, log *zap.SugaredLogger) *Fetcher {
	return &Fetcher{client: c, enricher: e, log: log}
}

// FetchTasks walks the listing endpoint page by page, enriching each
// page's tasks before requesting the next one. The walk stops at the
// first page whose pagination metadata carries no next indicator. An
// empty first page yields an empty result without error.
func (f *Fetcher) FetchTasks(ctx context.Context, variant Variant, opts FetchOptions) ([]api.EnrichedTask, error) {
	if opts.JobID == "" {
		return nil, fmt.Errorf("fetch tasks: %w: job_id", enricher.ErrMissingIdentifier)
	}

	page := opts.StartPage
	if page <= 0 {
		page = 1
	}

	accumulated := make([]api.EnrichedTask, 0)
	for visited := 0; ; visited++ {
		if opts.MaxPages > 0 && visited >= opts.MaxPages {
			f.log.Warnw("page walk stopped at configured ceiling",
				"variant", variant,
				"job_id", opts.JobID,
				"pages", visited,
			)
			break
		}

		listPage, err := f.fetchPage(ctx, variant, opts, page)
		if err != nil {
			return nil, err
		}
		metrics.IncreasePagesFetchedMetric(string(variant), opts.JobID)

		for i := range listPage.Data {
			listPage.Data[i].JobID = opts.JobID
		}

		enriched, err := f.enricher.Enrich(ctx, listPage.Data)
		if err != nil {
			return nil, err
		}
		accumulated = append(accumulated, enriched...)
		metrics.AddTasksEnrichedMetric(opts.JobID, len(enriched))

		if !listPage.Paginate.Pages.Next {
			break
		}
		page++
	}

	f.log.Debugw("task fetch finished",
		"variant", variant,
		"job_id", opts.JobID,
		"tasks", len(accumulated),
	)
	return accumulated, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, variant Variant, opts FetchOptions, page int) (*api.TaskListPage, error) {
	query := url.Values{}
	query.Set("job_id", opts.JobID)
	query.Set("limit", strconv.Itoa(opts.Limit))
	query.Set("page", strconv.Itoa(page))
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}

	var listPage api.TaskListPage
	if err := f.client.Get(ctx, variant.path(), query, &listPage); err != nil {
		return nil, fmt.Errorf("fetching %s tasks page %d for job %s: %w", variant, page, opts.JobID, err)
	}
	return &listPage, nil
}
