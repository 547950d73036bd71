package model

import (
	"testing"
	"time"
)

func TestCanUpdateStatus(t *testing.T) {
	all := []Status{StatusTodo, StatusInProgress, StatusDone}
	for _, from := range all {
		for _, to := range all {
			got := CanUpdateStatus(from, to)
			want := from != to
			if got != want {
				t.Errorf("CanUpdateStatus(%q, %q) = %v, expected %v", from, to, got, want)
			}
		}
	}

	if CanUpdateStatus("archived", StatusTodo) {
		t.Error("Expected unknown source status to be rejected")
	}
	if CanUpdateStatus(StatusTodo, "archived") {
		t.Error("Expected unknown target status to be rejected")
	}
}

func TestEnumValid(t *testing.T) {
	if !StatusInProgress.Valid() || Status("blocked").Valid() {
		t.Error("Status.Valid mismatch")
	}
	if !PriorityLow.Valid() || Priority("urgent").Valid() {
		t.Error("Priority.Valid mismatch")
	}
	if !DifficultyVeryHard.Valid() || Difficulty("trivial").Valid() {
		t.Error("Difficulty.Valid mismatch")
	}
}

func TestTaskOverdue(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: StatusTodo}, false},
		{"due in future", Task{Status: StatusTodo, DueDate: &future}, false},
		{"past due open", Task{Status: StatusInProgress, DueDate: &past}, true},
		{"past due done", Task{Status: StatusDone, DueDate: &past}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Overdue(now); got != tt.want {
				t.Errorf("Expected Overdue %v, got %v", tt.want, got)
			}
		})
	}
}
