package api

// RawTask is one entry from a page of a task-listing endpoint. JobID is
// injected by the fetcher; the listing response does not carry it.
type RawTask struct {
	UserTaskID string `json:"user_task_id"`
	JobID      string `json:"-"`
}

// TaskListPage is the envelope of the listing endpoints.
type TaskListPage struct {
	Data     []RawTask `json:"data"`
	Paginate Paginate  `json:"paginate"`
}

type Paginate struct {
	Pages Pages `json:"pages"`
}

type Pages struct {
	Next bool `json:"next"`
}

// Item is a single file/content unit within a task.
type Item struct {
	JobID      string `json:"job_id"`
	UserTaskID string `json:"user_task_id"`
	Filename   string `json:"filename"`
	Tags       string `json:"tags"`
}

// TaskDetails is the per-task payload of the user-task-items endpoint.
type TaskDetails struct {
	SubmittedAt string `json:"submitted_at"`
	AssignedAt  string `json:"assigned_at"`
	Data        []Item `json:"data"`
}

// QuestionAnswer is one (title, answer) pair from a questionnaire
// submission.
type QuestionAnswer struct {
	Title  string `json:"title"`
	Answer string `json:"answer"`
}

// QuestionnaireResponse is the envelope of the questionnaire endpoint.
type QuestionnaireResponse struct {
	Data []QuestionAnswer `json:"data"`
}

// EnrichedTask merges task details with the questionnaire answers for one
// user task. Items and QuestionAnswers are always non-nil so downstream
// lookups never hit a missing field.
type EnrichedTask struct {
	JobID           string
	UserTaskID      string
	SubmittedAt     string
	AssignedAt      string
	Items           []Item
	QuestionAnswers []QuestionAnswer
}
