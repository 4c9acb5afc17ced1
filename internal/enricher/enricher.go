package enricher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labelforge/task-exporter/internal/api"
	"github.com/labelforge/task-exporter/internal/client"
	"github.com/labelforge/task-exporter/pkg/metrics"
)

const (
	// BatchSize caps how many tasks are mid-enrichment at once.
	BatchSize = 5

	detailRetryAttempts = 10
	detailRetryDelay    = 1000 * time.Millisecond
)

// ErrMissingIdentifier marks a lookup called without its required id. This
// is a programming error, never retried.
var ErrMissingIdentifier = errors.New("missing required identifier")

type Enricher struct {
	client *client.Client
	log    *zap.SugaredLogger

	// sleep is swapped out in tests to avoid real retry delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(c *client.Client, log *zap.SugaredLogger) *Enricher {
	return &Enricher{
		client: c,
		log:    log,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Enrich resolves details and questionnaire answers for every raw task.
// The result preserves input order positionally. Tasks are processed in
// batches of BatchSize; within a batch all lookups overlap, batches
// themselves run sequentially. The first unrecovered lookup error aborts
// the whole call.
func (e *Enricher) Enrich(ctx context.Context, rawTasks []api.RawTask) ([]api.EnrichedTask, error) {
	enriched := make([]api.EnrichedTask, len(rawTasks))

	for start := 0; start < len(rawTasks); start += BatchSize {
		end := start + BatchSize
		if end > len(rawTasks) {
			end = len(rawTasks)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			task := rawTasks[i]
			g.Go(func() error {
				result, err := e.enrichOne(gctx, task)
				if err != nil {
					return err
				}
				enriched[i] = *result
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return enriched, nil
}

func (e *Enricher) enrichOne(ctx context.Context, task api.RawTask) (*api.EnrichedTask, error) {
	var (
		details       *api.TaskDetails
		questionnaire *api.QuestionnaireResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = e.GetDetails(gctx, task.UserTaskID)
		return err
	})
	g.Go(func() error {
		var err error
		questionnaire, err = e.GetQuestionnaire(gctx, task.JobID, task.UserTaskID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &api.EnrichedTask{
		JobID:           task.JobID,
		UserTaskID:      task.UserTaskID,
		SubmittedAt:     details.SubmittedAt,
		AssignedAt:      details.AssignedAt,
		Items:           details.Data,
		QuestionAnswers: questionnaire.Data,
	}
	// downstream indexes these without nil checks
	if result.Items == nil {
		result.Items = []api.Item{}
	}
	if result.QuestionAnswers == nil {
		result.QuestionAnswers = []api.QuestionAnswer{}
	}
	return result, nil
}

// GetDetails fetches the item details of one user task, retrying any
// failure up to detailRetryAttempts with a fixed delay. The questionnaire
// lookup deliberately has no such retry, see GetQuestionnaire.
func (e *Enricher) GetDetails(ctx context.Context, userTaskID string) (*api.TaskDetails, error) {
	if userTaskID == "" {
		return nil, fmt.Errorf("get details: %w: user_task_id", ErrMissingIdentifier)
	}

	query := url.Values{}
	query.Set("user_task_id", userTaskID)

	var lastErr error
	for attempt := 1; attempt <= detailRetryAttempts; attempt++ {
		var details api.TaskDetails
		lastErr = e.client.Get(ctx, "/tasks/user-task-items", query, &details)
		if lastErr == nil {
			return &details, nil
		}
		if attempt == detailRetryAttempts {
			break
		}
		metrics.IncreaseDetailRetriesMetric()
		e.log.Warnw("task detail lookup failed, retrying",
			"user_task_id", userTaskID,
			"attempt", attempt,
			"error", lastErr,
		)
		if err := e.sleep(ctx, detailRetryDelay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// GetQuestionnaire fetches the questionnaire submission of one user task.
// Failures surface immediately.
func (e *Enricher) GetQuestionnaire(ctx context.Context, jobID, userTaskID string) (*api.QuestionnaireResponse, error) {
	if jobID == "" {
		return nil, fmt.Errorf("get questionnaire: %w: job_id", ErrMissingIdentifier)
	}
	if userTaskID == "" {
		return nil, fmt.Errorf("get questionnaire: %w: user_task_id", ErrMissingIdentifier)
	}

	query := url.Values{}
	query.Set("user_task_id", userTaskID)
	query.Set("job_id", jobID)

	var resp api.QuestionnaireResponse
	if err := e.client.Get(ctx, "/admin/task-questionnaire/user-submit", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
