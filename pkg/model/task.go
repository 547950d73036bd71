package model

import "time"

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// UnboundedLimit is the page size requested when a whole collection is wanted.
const UnboundedLimit = 1000

type (
	Status     string
	Priority   string
	Difficulty string
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return true
	}
	return false
}

// UserRef is the embedded user reference the task service returns.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type Comment struct {
	Author    UserRef   `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is a unit of work as held by the task service.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority,omitempty"`
	Difficulty  Difficulty   `json:"difficulty,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Progress    int          `json:"progress"`
	TeamID      string       `json:"team,omitempty"`
	AssignedTo  []UserRef    `json:"assignedTo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
	CreatedBy   *UserRef     `json:"createdBy,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Overdue reports whether the task is still open past its due date.
func (t Task) Overdue(now time.Time) bool {
	return t.Status != StatusDone && t.DueDate != nil && t.DueDate.Before(now)
}

// TaskInput is the body of create and update requests. Nil fields are left untouched.
type TaskInput struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *Status     `json:"status,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Difficulty  *Difficulty `json:"difficulty,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	TeamID      *string     `json:"team,omitempty"`
	AssignedTo  []string    `json:"assignedTo,omitempty"`
}

// TaskQuery holds list parameters. Zero values are omitted from the request.
type TaskQuery struct {
	Status   Status
	Priority Priority
	Search   string
	Page     int
	Limit    int
}

// TaskStats is the per-status summary served by GET /tasks/stats.
type TaskStats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

// File is an attachment upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
