package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "taskhr_id"

var ErrNoDueDate = errors.New("task has no due date")

// Google Calendar event colour ids.
const (
	colorSage     = "2"
	colorBanana   = "5"
	colorGraphite = "8"
	colorTomato   = "11"
)

func colorFor(t *model.Task) string {
	if t.Status == model.StatusDone {
		return colorGraphite
	}
	switch t.Priority {
	case model.PriorityHigh:
		return colorTomato
	case model.PriorityLow:
		return colorSage
	default:
		return colorBanana
	}
}

// blockFor is the length of the event placed before the deadline.
func blockFor(d model.Difficulty) time.Duration {
	switch d {
	case model.DifficultyEasy:
		return 30 * time.Minute
	case model.DifficultyHard:
		return 2 * time.Hour
	case model.DifficultyVeryHard:
		return 4 * time.Hour
	default:
		return time.Hour
	}
}

func summaryFor(t *model.Task, now time.Time) string {
	prefix := ""
	switch {
	case t.Status == model.StatusDone:
		prefix = "✓"
	case t.Overdue(now):
		prefix = "!"
	case t.Status == model.StatusInProgress:
		prefix = "‣"
	}
	if prefix == "" {
		return t.Title
	}
	return prefix + " " + t.Title
}

// Convert renders a task as a calendar event ending at the task's due date.
func Convert(t *model.Task, now time.Time) (*gcal.Event, error) {
	if t == nil {
		return nil, errors.New("could not convert nil task")
	}
	if t.DueDate == nil || t.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrNoDueDate, t.ID)
	}
	end := t.DueDate.UTC()
	start := end.Add(-blockFor(t.Difficulty))

	var b strings.Builder
	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	if t.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", t.Priority)
	}
	if t.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", t.Difficulty)
	}
	fmt.Fprintf(&b, "Progress: %d%%\n", t.Progress)
	if t.TeamID != "" {
		fmt.Fprintf(&b, "Team: %s\n", t.TeamID)
	}
	if len(t.AssignedTo) > 0 {
		names := make([]string, 0, len(t.AssignedTo))
		for _, u := range t.AssignedTo {
			if u.Name != "" {
				names = append(names, u.Name)
			} else {
				names = append(names, u.ID)
			}
		}
		fmt.Fprintf(&b, "Assigned: %s\n", strings.Join(names, ", "))
	}
	if len(t.Comments) > 0 {
		fmt.Fprintf(&b, "Comments: %d\n", len(t.Comments))
	}
	if len(t.Attachments) > 0 {
		b.WriteString("\nAttachments:\n")
		for _, a := range t.Attachments {
			fmt.Fprintf(&b, "‣ %s\n", a.Name)
		}
	}
	fmt.Fprintf(&b, "\nID: %s\n", t.ID)

	return &gcal.Event{
		Summary:     summaryFor(t, now),
		Description: b.String(),
		ColorId:     colorFor(t),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: t.ID},
		},
	}, nil
}

// Diff returns a patch with the fields of target that differ from existing, or nil
// when the event is already up to date.
func Diff(existing, target *gcal.Event) (*gcal.Event, error) {
	patch := &gcal.Event{}
	changed := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		changed = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		changed = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		changed = true
	}

	sameStart, err := sameTime(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameTime(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		changed = true
	}

	if !changed {
		return nil, nil
	}
	return patch, nil
}

func sameTime(a, b *gcal.EventDateTime) (bool, error) {
	if a == nil || b == nil || a.DateTime == "" || b.DateTime == "" {
		return a != nil && b != nil && a.DateTime == b.DateTime && a.Date == b.Date, nil
	}
	ta, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	tb, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return ta.Equal(tb), nil
}
