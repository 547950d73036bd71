// Package overdue tracks the due dates of open synced tasks so their calendar
// events can be flagged once the deadline passes.
package overdue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const tableFile = "pending_due.json"

type Entry struct {
	EventID string    `json:"event_id"`
	Title   string    `json:"title"`
	Due     time.Time `json:"due"`
}

type Table struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool
}

// Open loads the table stored in dir, or starts an empty one.
func Open(dir string) (*Table, error) {
	t := &Table{
		path:    filepath.Join(dir, tableFile),
		entries: make(map[string]Entry),
	}
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&t.entries); err != nil {
		return nil, fmt.Errorf("failed to decode overdue table %s: %w", t.path, err)
	}
	return t, nil
}

func (t *Table) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0700); err != nil {
		return err
	}
	f, err := os.Create(t.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.entries); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Track records the due date of an open task that has not passed yet. A zero or
// past due date drops the task from the table.
func (t *Table) Track(taskID, eventID, title string, due, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if due.IsZero() || !due.After(now) {
		t.removeLocked(taskID)
		return
	}
	old, exists := t.entries[taskID]
	if exists && old.Due.Equal(due) && old.EventID == eventID && old.Title == title {
		return
	}
	t.entries[taskID] = Entry{EventID: eventID, Title: title, Due: due}
	t.dirty = true
}

func (t *Table) Remove(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(taskID)
}

func (t *Table) removeLocked(taskID string) {
	if _, exists := t.entries[taskID]; exists {
		delete(t.entries, taskID)
		t.dirty = true
	}
}

// Sweep returns the entries whose due date is before now and forgets them.
func (t *Table) Sweep(now time.Time) map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	swept := make(map[string]Entry)
	for id, e := range t.entries {
		if e.Due.Before(now) {
			swept[id] = e
			delete(t.entries, id)
			t.dirty = true
		}
	}
	return swept
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
