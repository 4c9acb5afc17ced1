package export_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/labelforge/task-exporter/internal/api"
	"github.com/labelforge/task-exporter/internal/client"
	"github.com/labelforge/task-exporter/internal/config"
	"github.com/labelforge/task-exporter/internal/export"
)

func TestExport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Export Suite")
}

// memorySink records writes in memory and can be told a destination is
// missing or that writes fail.
type memorySink struct {
	mu       sync.Mutex
	written  map[string][][]string
	headers  map[string][]string
	missing  map[string]bool
	writeErr error
}

func newMemorySink() *memorySink {
	return &memorySink{
		written: make(map[string][][]string),
		headers: make(map[string][]string),
		missing: make(map[string]bool),
	}
}

func (s *memorySink) HasDestination(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.missing[name], nil
}

func (s *memorySink) Write(_ context.Context, name string, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.headers[name] = header
	s.written[name] = rows
	return nil
}

// platformStub answers every endpoint of the annotation API with a small
// fixed dataset: per job one pending and one resolved task.
type platformStub struct {
	mu         sync.Mutex
	loginCalls int
	failJob    string
}

func (p *platformStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			p.mu.Lock()
			p.loginCalls++
			p.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		case "/admin/user-tasks", "/admin/user-tasks/resolved":
			p.serveListing(w, r)
		case "/tasks/user-task-items":
			id := r.URL.Query().Get("user_task_id")
			_ = json.NewEncoder(w).Encode(api.TaskDetails{
				SubmittedAt: "2024-09-19T10:02:09.615Z",
				Data: []api.Item{
					{JobID: "ignored", UserTaskID: id, Filename: id + ".png", Tags: "label-" + id},
				},
			})
		case "/admin/task-questionnaire/user-submit":
			_ = json.NewEncoder(w).Encode(api.QuestionnaireResponse{Data: []api.QuestionAnswer{
				{Title: "Name", Answer: "Alice"},
				{Title: "Class", Answer: "B"},
			}})
		default:
			http.NotFound(w, r)
		}
	})
}

func (p *platformStub) serveListing(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")

	if p.failJob != "" && jobID == p.failJob {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"job exploded"}`))
		return
	}

	variant := "pending"
	if r.URL.Path == "/admin/user-tasks/resolved" {
		variant = "resolved"
	}
	_ = json.NewEncoder(w).Encode(api.TaskListPage{
		Data: []api.RawTask{{UserTaskID: fmt.Sprintf("%s-%s", jobID, variant)}},
	})
}

func testConfig(groups config.SheetGroups) *config.Config {
	return &config.Config{
		Platform: &config.PlatformConfig{Username: "admin", Password: "secret"},
		Export: &config.ExportConfig{
			Sheets:             groups,
			NameQuestionTitle:  "Name",
			ClassQuestionTitle: "Class",
			PageLimit:          10,
		},
	}
}

var _ = Describe("Exporter", func() {
	var (
		platform *platformStub
		ts       *httptest.Server
		dest     *memorySink
	)

	BeforeEach(func() {
		platform = &platformStub{}
		ts = httptest.NewServer(platform.handler())
		dest = newMemorySink()
	})

	AfterEach(func() {
		ts.Close()
	})

	newExporter := func(groups config.SheetGroups) *export.Exporter {
		cfg := testConfig(groups)
		return export.New(cfg, client.New(ts.URL), dest, zap.NewNop().Sugar())
	}

	It("exports pending and resolved tasks of every job into the group's sheet", func() {
		e := newExporter(config.SheetGroups{
			{Sheet: "Weekly", JobIDs: []string{"job-1", "job-2"}},
		})

		Expect(e.Run(context.Background())).To(Succeed())

		rows := dest.written["Weekly"]
		Expect(rows).To(HaveLen(4), "one pending and one resolved task per job")
		Expect(dest.headers["Weekly"]).To(Equal([]string{"Job ID", "Task ID", "Submit Date", "Name", "Class", "File Name", "Answer"}))

		taskIDs := make([]string, 0, len(rows))
		for _, row := range rows {
			taskIDs = append(taskIDs, row[1])
			Expect(row[3]).To(Equal("Alice"))
			Expect(row[4]).To(Equal("B"))
			Expect(row[2]).To(Equal("19/9/2024, 17:02:09"))
		}
		Expect(taskIDs).To(Equal([]string{
			"job-1-pending", "job-1-resolved",
			"job-2-pending", "job-2-resolved",
		}))
	})

	It("authenticates once per client across runs", func() {
		e := newExporter(config.SheetGroups{{Sheet: "Weekly", JobIDs: []string{"job-1"}}})

		Expect(e.Run(context.Background())).To(Succeed())
		Expect(e.Run(context.Background())).To(Succeed())
		Expect(platform.loginCalls).To(Equal(1))
	})

	It("produces identical rows on identical remote data", func() {
		e := newExporter(config.SheetGroups{{Sheet: "Weekly", JobIDs: []string{"job-1", "job-2"}}})

		Expect(e.Run(context.Background())).To(Succeed())
		first := dest.written["Weekly"]

		Expect(e.Run(context.Background())).To(Succeed())
		Expect(dest.written["Weekly"]).To(Equal(first))
	})

	It("skips a missing destination with no write and continues", func() {
		dest.missing["Ghost"] = true
		e := newExporter(config.SheetGroups{
			{Sheet: "Ghost", JobIDs: []string{"job-1"}},
			{Sheet: "Weekly", JobIDs: []string{"job-2"}},
		})

		Expect(e.Run(context.Background())).To(Succeed())
		Expect(dest.written).ToNot(HaveKey("Ghost"))
		Expect(dest.written).To(HaveKey("Weekly"))
	})

	It("aborts the run on the first failing job and leaves later sheets untouched", func() {
		platform.failJob = "job-1"
		e := newExporter(config.SheetGroups{
			{Sheet: "First", JobIDs: []string{"job-1"}},
			{Sheet: "Second", JobIDs: []string{"job-2"}},
		})

		Expect(e.Run(context.Background())).ToNot(Succeed())
		Expect(dest.written).To(BeEmpty())
	})

	It("does nothing when no sheet groups are configured", func() {
		e := newExporter(nil)

		Expect(e.Run(context.Background())).To(Succeed())
		Expect(dest.written).To(BeEmpty())
		Expect(platform.loginCalls).To(BeZero())
	})
})
