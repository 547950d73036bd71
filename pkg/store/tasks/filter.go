package tasks

import (
	"strings"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

// Filters narrows the all-tasks collection for display. Zero fields match everything.
type Filters struct {
	Status   model.Status   `json:"status,omitempty"`
	Priority model.Priority `json:"priority,omitempty"`
	Search   string         `json:"search,omitempty"`
}

func filter(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// FilterByStatus returns the tasks in the given status. An empty status keeps all tasks.
func FilterByStatus(tasks []model.Task, status model.Status) []model.Task {
	if status == "" {
		return filter(tasks, func(model.Task) bool { return true })
	}
	return filter(tasks, func(t model.Task) bool { return t.Status == status })
}

// FilterByPriority returns the tasks with the given priority. An empty priority keeps all tasks.
func FilterByPriority(tasks []model.Task, priority model.Priority) []model.Task {
	if priority == "" {
		return filter(tasks, func(model.Task) bool { return true })
	}
	return filter(tasks, func(t model.Task) bool { return t.Priority == priority })
}

// SearchTasks matches query case-insensitively against title and description.
func SearchTasks(tasks []model.Task, query string) []model.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return filter(tasks, func(model.Task) bool { return true })
	}
	return filter(tasks, func(t model.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q)
	})
}

// Apply runs all three filters over tasks.
func (f Filters) Apply(tasks []model.Task) []model.Task {
	out := FilterByStatus(tasks, f.Status)
	out = FilterByPriority(out, f.Priority)
	return SearchTasks(out, f.Search)
}
