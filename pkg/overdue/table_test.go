package overdue

import (
	"testing"
	"time"
)

func TestTrackAndSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	table, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	table.Track("a", "evt-a", "Payroll", now.Add(time.Hour), now)
	table.Track("b", "evt-b", "Appraisals", now.Add(48*time.Hour), now)
	table.Track("c", "evt-c", "Already late", now.Add(-time.Hour), now)
	if table.Len() != 2 {
		t.Fatalf("Expected 2 tracked tasks, got %d", table.Len())
	}
	if err := table.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	swept := reopened.Sweep(now.Add(2 * time.Hour))
	if len(swept) != 1 {
		t.Fatalf("Expected 1 swept entry, got %d", len(swept))
	}
	if e, ok := swept["a"]; !ok || e.EventID != "evt-a" || e.Title != "Payroll" {
		t.Errorf("Expected task a swept with its event, got %+v", swept)
	}
	if reopened.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", reopened.Len())
	}
}

func TestTrackZeroDueRemoves(t *testing.T) {
	now := time.Now()
	table, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	table.Track("a", "evt-a", "x", now.Add(time.Hour), now)
	table.Track("a", "evt-a", "x", time.Time{}, now)
	if table.Len() != 0 {
		t.Errorf("Expected entry removed, got %d entries", table.Len())
	}
}
