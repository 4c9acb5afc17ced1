package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	taskExporter = "task_exporter"

	// Fetch metrics
	pagesFetchedTotal  = "pages_fetched_total"
	tasksEnrichedTotal = "tasks_enriched_total"
	detailRetriesTotal = "detail_retries_total"

	// Sink metrics
	rowsWrittenTotal = "rows_written_total"
	runsTotal        = "runs_total"

	// Labels
	variantLabel = "variant"
	jobLabel     = "job_id"
	sheetLabel   = "sheet"
	statusLabel  = "status"
)

/**
* Metrics definition
**/
var pagesFetchedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: taskExporter,
		Name:      pagesFetchedTotal,
		Help:      "number of listing pages fetched from the annotation platform",
	},
	[]string{variantLabel, jobLabel},
)

var tasksEnrichedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: taskExporter,
		Name:      tasksEnrichedTotal,
		Help:      "number of tasks enriched with details and questionnaire answers",
	},
	[]string{jobLabel},
)

var detailRetriesTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: taskExporter,
		Name:      detailRetriesTotal,
		Help:      "number of retried task detail lookups",
	},
)

var rowsWrittenTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: taskExporter,
		Name:      rowsWrittenTotal,
		Help:      "number of rows written to spreadsheet destinations",
	},
	[]string{sheetLabel},
)

var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: taskExporter,
		Name:      runsTotal,
		Help:      "number of export runs by final status",
	},
	[]string{statusLabel},
)

func IncreasePagesFetchedMetric(variant string, jobID string) {
	pagesFetchedTotalMetric.With(prometheus.Labels{
		variantLabel: variant,
		jobLabel:     jobID,
	}).Inc()
}

func AddTasksEnrichedMetric(jobID string, count int) {
	tasksEnrichedTotalMetric.With(prometheus.Labels{
		jobLabel: jobID,
	}).Add(float64(count))
}

func IncreaseDetailRetriesMetric() {
	detailRetriesTotalMetric.Inc()
}

func AddRowsWrittenMetric(sheet string, count int) {
	rowsWrittenTotalMetric.With(prometheus.Labels{
		sheetLabel: sheet,
	}).Add(float64(count))
}

func IncreaseRunsMetric(status string) {
	runsTotalMetric.With(prometheus.Labels{
		statusLabel: status,
	}).Inc()
}

// MustRegisterDefault registers the exporter collectors to DefaultRegisterer.
// Call once before serving promhttp.Handler().
func MustRegisterDefault() {
	prometheus.MustRegister(
		pagesFetchedTotalMetric,
		tasksEnrichedTotalMetric,
		detailRetriesTotalMetric,
		rowsWrittenTotalMetric,
		runsTotalMetric,
	)
}
