package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harrisonrobin/taskhr/pkg/api"
	"github.com/harrisonrobin/taskhr/pkg/model"
	"github.com/harrisonrobin/taskhr/pkg/sandbox"
	"github.com/harrisonrobin/taskhr/pkg/store/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// resetFlags puts every flag back to its default so runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	registerCommands()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setup(t *testing.T, seed ...model.Task) *sandbox.Server {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKHR_LOG_LEVEL", "ERROR")

	srv := sandbox.New()
	srv.Seed(seed...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Setenv("TASKHR_API_URL", ts.URL)
	return srv
}

func decodeTasks(t *testing.T, out string) []model.Task {
	t.Helper()
	var list []model.Task
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("could not decode output %q: %v", out, err)
	}
	return list
}

func TestTasksListAndFilter(t *testing.T) {
	setup(t,
		model.Task{ID: "t-1", Title: "Payroll", Status: model.StatusTodo, Priority: model.PriorityHigh},
		model.Task{ID: "t-2", Title: "Offsite", Status: model.StatusDone, Priority: model.PriorityLow},
	)

	out, err := run(t, "--json", "tasks", "list")
	if err != nil {
		t.Fatalf("tasks list failed: %v", err)
	}
	if list := decodeTasks(t, out); len(list) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(list))
	}

	out, err = run(t, "--json", "tasks", "list", "--status", "done")
	if err != nil {
		t.Fatalf("tasks list failed: %v", err)
	}
	list := decodeTasks(t, out)
	if len(list) != 1 || list[0].ID != "t-2" {
		t.Errorf("Expected only t-2, got %+v", list)
	}

	if _, err := run(t, "tasks", "list", "--status", "archived"); err == nil {
		t.Error("Expected an error for an unknown status")
	}
}

func TestTasksCreateAndMine(t *testing.T) {
	setup(t)

	out, err := run(t, "--json", "tasks", "create", "--title", "Onboard Ada", "--priority", "high", "--due", "2030-01-15")
	if err != nil {
		t.Fatalf("tasks create failed: %v", err)
	}
	var created model.Task
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("could not decode created task: %v", err)
	}
	if created.Title != "Onboard Ada" || created.Priority != model.PriorityHigh {
		t.Errorf("Unexpected created task: %+v", created)
	}
	if created.DueDate == nil || created.DueDate.Local().Hour() != 17 {
		t.Errorf("Expected a 17:00 due time, got %v", created.DueDate)
	}

	out, err = run(t, "--json", "tasks", "mine")
	if err != nil {
		t.Fatalf("tasks mine failed: %v", err)
	}
	if list := decodeTasks(t, out); len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("Expected the created task among mine, got %+v", list)
	}

	if _, err := run(t, "tasks", "create"); err == nil {
		t.Error("Expected create without a title to fail")
	}
}

func TestTasksStatusRejectsNoOp(t *testing.T) {
	setup(t, model.Task{ID: "t-1", Title: "Payroll", Status: model.StatusInProgress})

	_, err := run(t, "tasks", "status", "t-1", "in_progress")
	if !errors.Is(err, tasks.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}

	out, err := run(t, "--json", "tasks", "status", "t-1", "done")
	if err != nil {
		t.Fatalf("tasks status failed: %v", err)
	}
	var task model.Task
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		t.Fatalf("could not decode task: %v", err)
	}
	if task.Status != model.StatusDone {
		t.Errorf("Expected done, got %s", task.Status)
	}
}

func TestTasksProgressOutOfRange(t *testing.T) {
	setup(t, model.Task{ID: "t-1", Title: "Payroll", Status: model.StatusTodo})

	_, err := run(t, "tasks", "progress", "t-1", "150")
	if !errors.Is(err, api.ErrValidation) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestTasksCommentAndAttach(t *testing.T) {
	setup(t, model.Task{ID: "t-1", Title: "Payroll", Status: model.StatusTodo})

	out, err := run(t, "tasks", "comment", "t-1", "looks", "good")
	if err != nil {
		t.Fatalf("tasks comment failed: %v", err)
	}
	if !strings.Contains(out, "looks good") {
		t.Errorf("Expected the refetched task to show the comment, got %q", out)
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "tasks", "attach", "t-1", path); err != nil {
		t.Fatalf("tasks attach failed: %v", err)
	}
	out, err = run(t, "tasks", "show", "t-1")
	if err != nil {
		t.Fatalf("tasks show failed: %v", err)
	}
	if !strings.Contains(out, "notes.txt") {
		t.Errorf("Expected attachment listed, got %q", out)
	}
}

func TestTasksDeleteUnknown(t *testing.T) {
	setup(t)
	_, err := run(t, "tasks", "delete", "missing")
	if !errors.Is(err, api.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestStatsShow(t *testing.T) {
	setup(t,
		model.Task{ID: "t-1", Title: "Payroll", Status: model.StatusDone, TeamID: "finance"},
		model.Task{ID: "t-2", Title: "Audit", Status: model.StatusTodo, TeamID: "finance"},
	)

	out, err := run(t, "stats", "show")
	if err != nil {
		t.Fatalf("stats show failed: %v", err)
	}
	for _, want := range []string{"Overview", "Team performance", "finance"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}

func TestConfigSetAndShow(t *testing.T) {
	setup(t)

	if _, err := run(t, "config", "set", "calendar", "HR Deadlines"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if _, err := run(t, "config", "set", "timeout", "soon"); err == nil {
		t.Error("Expected an invalid duration to be rejected")
	}

	out, err := run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "HR Deadlines") {
		t.Errorf("Expected saved calendar in output, got %q", out)
	}
}

func TestParseDue(t *testing.T) {
	d, err := parseDue("2024-05-02T09:30:00Z")
	if err != nil {
		t.Fatalf("parseDue failed: %v", err)
	}
	if !d.Equal(time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("Unexpected time %v", d)
	}
	if _, err := parseDue("next week"); err == nil {
		t.Error("Expected an error for free text")
	}
}
