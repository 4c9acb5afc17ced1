package flatten

import (
	"time"

	"github.com/labelforge/task-exporter/internal/api"
)

const (
	// Display timezone of the export. Rows are read by the operations
	// team in Jakarta regardless of where the job runs.
	displayZone   = "Asia/Jakarta"
	displayLayout = "2/1/2006, 15:04:05"

	invalidDate = "Invalid Date"
)

var jakarta = loadDisplayZone()

func loadDisplayZone() *time.Location {
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// Options carries the configured question titles used for the Name and
// Class columns.
type Options struct {
	NameQuestionTitle  string
	ClassQuestionTitle string
}

// Row is one spreadsheet row, one per task item.
type Row struct {
	JobID      string
	TaskID     string
	SubmitDate string
	Name       string
	Class      string
	FileName   string
	Answer     string
}

// Header returns the fixed column order of the export.
func Header() []string {
	return []string{"Job ID", "Task ID", "Submit Date", "Name", "Class", "File Name", "Answer"}
}

// Values renders the row in Header order.
func (r Row) Values() []string {
	return []string{r.JobID, r.TaskID, r.SubmitDate, r.Name, r.Class, r.FileName, r.Answer}
}

// Flatten expands each enriched task into one row per item. Name and
// Class come from the first questionnaire answer whose title matches the
// configured one exactly; no match yields an empty string. A task with no
// items contributes no rows.
func Flatten(tasks []api.EnrichedTask, opts Options) []Row {
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		name := answerByTitle(task.QuestionAnswers, opts.NameQuestionTitle)
		class := answerByTitle(task.QuestionAnswers, opts.ClassQuestionTitle)
		submitDate := FormatDate(task.SubmittedAt)

		for _, item := range task.Items {
			rows = append(rows, Row{
				JobID:      item.JobID,
				TaskID:     item.UserTaskID,
				SubmitDate: submitDate,
				Name:       name,
				Class:      class,
				FileName:   item.Filename,
				Answer:     item.Tags,
			})
		}
	}
	return rows
}

func answerByTitle(answers []api.QuestionAnswer, title string) string {
	for _, answer := range answers {
		if answer.Title == title {
			return answer.Answer
		}
	}
	return ""
}

// FormatDate renders an ISO timestamp in the display timezone. An empty
// input formats to an empty string; an unparsable one to the literal
// "Invalid Date" rather than failing the run.
func FormatDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		if t, err = time.Parse("2006-01-02 15:04:05", value); err != nil {
			return invalidDate
		}
	}
	return t.In(jakarta).Format(displayLayout)
}
