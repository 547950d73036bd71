package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harrisonrobin/taskhr/pkg/model"
	"github.com/harrisonrobin/taskhr/pkg/sandbox"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSandboxClient(t *testing.T, opts ...sandbox.Option) (*Client, *sandbox.Server) {
	t.Helper()
	sb := sandbox.New(opts...)
	srv := httptest.NewServer(sb.Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), testLog), sb
}

func strPtr(s string) *string { return &s }

func TestTaskLifecycle(t *testing.T) {
	c, _ := newSandboxClient(t)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, model.TaskInput{Title: strPtr("Prepare payroll"), AssignedTo: []string{"u-1"}})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected server assigned ID")
	}
	if created.Status != model.StatusTodo {
		t.Errorf("Expected status todo, got %s", created.Status)
	}

	updated, err := c.UpdateTaskStatus(ctx, created.ID, model.StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateTaskStatus failed: %v", err)
	}
	if updated.Status != model.StatusInProgress {
		t.Errorf("Expected status in_progress, got %s", updated.Status)
	}

	updated, err = c.UpdateTaskProgress(ctx, created.ID, 40)
	if err != nil {
		t.Fatalf("UpdateTaskProgress failed: %v", err)
	}
	if updated.Progress != 40 {
		t.Errorf("Expected progress 40, got %d", updated.Progress)
	}

	if err := c.AddComment(ctx, created.ID, "half way"); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if err := c.AddAttachments(ctx, created.ID, []model.File{{Name: "notes.txt", Data: []byte("hello")}}); err != nil {
		t.Fatalf("AddAttachments failed: %v", err)
	}

	got, err := c.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Text != "half way" {
		t.Errorf("Expected one comment 'half way', got %+v", got.Comments)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].Name != "notes.txt" || got.Attachments[0].Size != 5 {
		t.Errorf("Expected notes.txt attachment of 5 bytes, got %+v", got.Attachments)
	}

	mine, err := c.MyTasks(ctx, model.TaskQuery{Limit: model.UnboundedLimit})
	if err != nil {
		t.Fatalf("MyTasks failed: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("Expected 1 task of mine, got %d", len(mine))
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	_, err = c.GetTask(ctx, created.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	if msg := Message(err, "fallback"); msg != "Task not found" {
		t.Errorf("Expected server message, got %q", msg)
	}
}

func TestListTasksQuery(t *testing.T) {
	c, sb := newSandboxClient(t)
	sb.Seed(
		model.Task{ID: "a", Title: "Hire designer", Status: model.StatusTodo, Priority: model.PriorityHigh, TeamID: "t1"},
		model.Task{ID: "b", Title: "Review leave policy", Status: model.StatusDone, Priority: model.PriorityLow, TeamID: "t1"},
		model.Task{ID: "c", Title: "Onboard designer", Status: model.StatusTodo, Priority: model.PriorityLow, TeamID: "t2"},
	)
	ctx := context.Background()

	tasks, err := c.ListTasks(ctx, model.TaskQuery{Search: "designer", Limit: model.UnboundedLimit})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks matching 'designer', got %d", len(tasks))
	}

	tasks, err = c.ListTasks(ctx, model.TaskQuery{Status: model.StatusTodo, Priority: model.PriorityLow, Limit: model.UnboundedLimit})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "c" {
		t.Errorf("Expected only task c, got %+v", tasks)
	}

	team, err := c.TeamTasks(ctx, "t1", model.TaskQuery{Limit: model.UnboundedLimit})
	if err != nil {
		t.Fatalf("TeamTasks failed: %v", err)
	}
	if len(team) != 2 {
		t.Errorf("Expected 2 tasks in team t1, got %d", len(team))
	}
}

func TestStatistics(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	c, sb := newSandboxClient(t, sandbox.WithClock(func() time.Time { return now }))
	sb.Seed(
		model.Task{ID: "a", Status: model.StatusDone, TeamID: "t1"},
		model.Task{ID: "b", Status: model.StatusTodo, TeamID: "t1", DueDate: &past},
	)
	ctx := context.Background()

	ts, err := c.TaskStats(ctx)
	if err != nil {
		t.Fatalf("TaskStats failed: %v", err)
	}
	if ts.Total != 2 || ts.Done != 1 || ts.Overdue != 1 {
		t.Errorf("Unexpected task stats %+v", ts)
	}

	perf, err := c.TeamPerformance(ctx)
	if err != nil {
		t.Fatalf("TeamPerformance failed: %v", err)
	}
	if len(perf) != 1 || perf[0].Team != "t1" || perf[0].Performance != 50 {
		t.Errorf("Expected t1 at 50%%, got %+v", perf)
	}

	att, err := c.AttendanceStatistics(ctx, 4, 2024)
	if err != nil {
		t.Fatalf("AttendanceStatistics failed: %v", err)
	}
	if att.Month != 4 || att.Year != 2024 {
		t.Errorf("Expected attendance for 4/2024, got %d/%d", att.Month, att.Year)
	}

	leaves, err := c.LeaveStatistics(ctx, 2023)
	if err != nil {
		t.Fatalf("LeaveStatistics failed: %v", err)
	}
	if leaves.Year != 2023 {
		t.Errorf("Expected leaves for 2023, got %d", leaves.Year)
	}

	overdue, err := c.OverdueTasks(ctx)
	if err != nil {
		t.Fatalf("OverdueTasks failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != "b" {
		t.Errorf("Expected task b overdue, got %+v", overdue)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"validation", http.StatusBadRequest, `{"success":false,"error":"Title is required"}`, ErrValidation, "Title is required"},
		{"unauthorized", http.StatusUnauthorized, `{"error":"Token expired"}`, ErrUnauthorized, "Token expired"},
		{"not found without body", http.StatusNotFound, ``, ErrNotFound, ""},
		{"server", http.StatusBadGateway, `<html>bad gateway</html>`, ErrServer, ""},
		{"success false", http.StatusOK, `{"success":false,"message":"Quota reached"}`, ErrServer, "Quota reached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get(RequestIDHeader) == "" {
					t.Error("Expected request id header")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, srv.Client(), testLog)
			_, err := c.GetTask(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if got := Message(err, ""); got != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, got)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, testLog)
	_, err := c.ListTasks(context.Background(), model.TaskQuery{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Expected ErrNetwork, got %v", err)
	}
	if msg := Message(err, "Failed to fetch tasks"); msg != "Failed to fetch tasks" {
		t.Errorf("Expected fallback message, got %q", msg)
	}
}

func TestProgressValidatedLocally(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), testLog)
	_, err := c.UpdateTaskProgress(context.Background(), "x", 101)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
	if called {
		t.Error("Expected no request for out of range progress")
	}
}

func TestBearerToken(t *testing.T) {
	c, _ := newSandboxClient(t, sandbox.WithToken("secret"))
	_, err := c.ListTasks(context.Background(), model.TaskQuery{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized without token, got %v", err)
	}
}
