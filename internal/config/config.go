package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Platform *PlatformConfig
	Export   *ExportConfig
	Sink     *SinkConfig
}

type PlatformConfig struct {
	BaseUrl  string `envconfig:"TASK_EXPORTER_BASE_URL" default:"http://localhost:3000"`
	Username string `envconfig:"TASK_EXPORTER_USERNAME" default:""`
	Password string `envconfig:"TASK_EXPORTER_PASSWORD" default:""`
}

type ExportConfig struct {
	Sheets             SheetGroups `envconfig:"TASK_EXPORTER_SHEETS" default:""`
	NameQuestionTitle  string      `envconfig:"TASK_EXPORTER_NAME_QUESTION_TITLE" default:"Name"`
	ClassQuestionTitle string      `envconfig:"TASK_EXPORTER_CLASS_QUESTION_TITLE" default:"Class"`
	PageLimit          int         `envconfig:"TASK_EXPORTER_PAGE_LIMIT" default:"10"`
	MaxPages           int         `envconfig:"TASK_EXPORTER_MAX_PAGES" default:"0"`
	ScheduleInterval   string      `envconfig:"TASK_EXPORTER_SCHEDULE_INTERVAL" default:"1h"`
	MetricsAddress     string      `envconfig:"TASK_EXPORTER_METRICS_ADDRESS" default:":8080"`
	LogLevel           string      `envconfig:"TASK_EXPORTER_LOG_LEVEL" default:"info"`
}

type SinkConfig struct {
	Kind          string `envconfig:"TASK_EXPORTER_SINK_KIND" default:"excel"`
	WorkbookPath  string `envconfig:"TASK_EXPORTER_WORKBOOK_PATH" default:"tasks.xlsx"`
	SpreadsheetId string `envconfig:"TASK_EXPORTER_SPREADSHEET_ID" default:""`
}

// SheetGroup maps one destination sheet to the job ids exported into it.
type SheetGroup struct {
	Sheet  string
	JobIDs []string
}

// SheetGroups decodes "Sheet A=job1,job2;Sheet B=job3" from the environment.
// Order is preserved so runs are deterministic.
type SheetGroups []SheetGroup

func (s *SheetGroups) Decode(value string) error {
	if strings.TrimSpace(value) == "" {
		*s = nil
		return nil
	}
	groups := make([]SheetGroup, 0)
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sheet, jobs, found := strings.Cut(part, "=")
		if !found {
			return fmt.Errorf("invalid sheet group %q: expected <sheet>=<job,...>", part)
		}
		sheet = strings.TrimSpace(sheet)
		if sheet == "" {
			return fmt.Errorf("invalid sheet group %q: empty sheet name", part)
		}
		jobIDs := make([]string, 0)
		for _, job := range strings.Split(jobs, ",") {
			if job = strings.TrimSpace(job); job != "" {
				jobIDs = append(jobIDs, job)
			}
		}
		if len(jobIDs) == 0 {
			return fmt.Errorf("invalid sheet group %q: no job ids", part)
		}
		groups = append(groups, SheetGroup{Sheet: sheet, JobIDs: jobIDs})
	}
	*s = groups
	return nil
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
