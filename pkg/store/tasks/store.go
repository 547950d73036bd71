// Package tasks holds the client-side task collections and keeps them consistent
// with the task service after every mutation.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harrisonrobin/taskhr/pkg/api"
	"github.com/harrisonrobin/taskhr/pkg/model"
)

// Service is the part of the task service the store relies on.
type Service interface {
	ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	MyTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	TeamTasks(ctx context.Context, teamID string, q model.TaskQuery) ([]model.Task, error)
	OverdueTasks(ctx context.Context) ([]model.Task, error)
	TaskStats(ctx context.Context) (model.TaskStats, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id string, in model.TaskInput) (model.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.Status) (model.Task, error)
	UpdateTaskProgress(ctx context.Context, id string, progress int) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	AssignTask(ctx context.Context, id string, userIDs []string) (model.Task, error)
	AddComment(ctx context.Context, id, text string) error
	AddAttachments(ctx context.Context, id string, files []model.File) error
}

var ErrInvalidTransition = errors.New("invalid status transition")

// State is a point-in-time copy of the store. Slices are replaced, never edited in
// place, so a State stays valid after later commits; callers must not modify it.
type State struct {
	Tasks        []model.Task
	MyTasks      []model.Task
	TeamTasks    []model.Task
	Team         string
	SelectedTask *model.Task
	Overdue      []model.Task
	Stats        *model.TaskStats
	Filters      Filters
	Loading      bool
	Error        string
	Warning      string
}

type slot int

const (
	slotAll slot = iota
	slotMine
	slotTeam
	slotSelected
	slotOverdue
	slotStats
	slotCount
)

// Store owns the task collections. Create one per application and hand it to the
// screens that need it.
type Store struct {
	svc Service
	log *slog.Logger

	mu       sync.RWMutex
	state    State
	inflight int
	gens     [slotCount]uint64
	myQuery  model.TaskQuery

	lmu       sync.Mutex
	listeners map[int]func(State)
	nextID    int
}

func NewStore(svc Service, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		svc:       svc,
		log:       log.With("store", "tasks"),
		listeners: make(map[int]func(State)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to receive the state after every change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()
	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.lmu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// commit applies fn under the write lock and notifies subscribers.
func (s *Store) commit(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

// issue starts a request for sl and returns its generation.
func (s *Store) issue(sl slot) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[sl]++
	return s.gens[sl]
}

// commitIfCurrent applies fn only when gen is still the latest request for sl.
func (s *Store) commitIfCurrent(sl slot, gen uint64, fn func(st *State)) bool {
	s.mu.Lock()
	if s.gens[sl] != gen {
		s.mu.Unlock()
		s.log.Debug("discarding superseded response", "slot", int(sl), "generation", gen)
		return false
	}
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
	return true
}

func (s *Store) begin() {
	s.commit(func(st *State) {
		s.inflight++
		st.Loading = true
		st.Error = ""
	})
}

func (s *Store) end() {
	s.commit(func(st *State) {
		s.inflight--
		st.Loading = s.inflight > 0
	})
}

// run wraps one store action: loading flag around fn, message and error on failure.
func (s *Store) run(action, fallback string, fn func() error) error {
	s.begin()
	defer s.end()
	if err := fn(); err != nil {
		msg := api.Message(err, fallback)
		s.log.Error(action+" failed", "error", err)
		s.commit(func(st *State) { st.Error = msg })
		return err
	}
	return nil
}

func withLimit(q model.TaskQuery) model.TaskQuery {
	if q.Limit == 0 {
		q.Limit = model.UnboundedLimit
	}
	return q
}

// FetchTasks replaces the all-tasks collection.
func (s *Store) FetchTasks(ctx context.Context, q model.TaskQuery) error {
	return s.run("fetch tasks", "Failed to fetch tasks", func() error {
		gen := s.issue(slotAll)
		tasks, err := s.svc.ListTasks(ctx, withLimit(q))
		if err != nil {
			return err
		}
		s.commitIfCurrent(slotAll, gen, func(st *State) { st.Tasks = tasks })
		return nil
	})
}

// FetchMyTasks replaces the my-tasks collection.
func (s *Store) FetchMyTasks(ctx context.Context, q model.TaskQuery) error {
	return s.run("fetch my tasks", "Failed to fetch my tasks", func() error {
		return s.loadMine(ctx, q)
	})
}

func (s *Store) loadMine(ctx context.Context, q model.TaskQuery) error {
	q = withLimit(q)
	s.mu.Lock()
	s.myQuery = q
	s.mu.Unlock()

	gen := s.issue(slotMine)
	tasks, err := s.svc.MyTasks(ctx, q)
	if err != nil {
		return err
	}
	s.commitIfCurrent(slotMine, gen, func(st *State) { st.MyTasks = tasks })
	return nil
}

// refreshMine reloads my tasks after a mutation. Its failure does not fail the
// mutation; it is logged and kept in State.Warning.
func (s *Store) refreshMine(ctx context.Context) {
	s.mu.RLock()
	q := s.myQuery
	s.mu.RUnlock()
	if err := s.loadMine(ctx, q); err != nil {
		msg := api.Message(err, "Failed to refresh my tasks")
		s.log.Warn("refresh my tasks failed", "error", err)
		s.commit(func(st *State) { st.Warning = msg })
	}
}

// FetchTeamTasks replaces the team-tasks collection with the tasks of teamID.
func (s *Store) FetchTeamTasks(ctx context.Context, teamID string, q model.TaskQuery) error {
	return s.run("fetch team tasks", "Failed to fetch team tasks", func() error {
		gen := s.issue(slotTeam)
		tasks, err := s.svc.TeamTasks(ctx, teamID, withLimit(q))
		if err != nil {
			return err
		}
		s.commitIfCurrent(slotTeam, gen, func(st *State) {
			st.TeamTasks = tasks
			st.Team = teamID
		})
		return nil
	})
}

// FetchOverdue replaces the overdue collection.
func (s *Store) FetchOverdue(ctx context.Context) error {
	return s.run("fetch overdue tasks", "Failed to fetch overdue tasks", func() error {
		gen := s.issue(slotOverdue)
		tasks, err := s.svc.OverdueTasks(ctx)
		if err != nil {
			return err
		}
		s.commitIfCurrent(slotOverdue, gen, func(st *State) { st.Overdue = tasks })
		return nil
	})
}

func (s *Store) FetchStats(ctx context.Context) error {
	return s.run("fetch task stats", "Failed to fetch task statistics", func() error {
		gen := s.issue(slotStats)
		stats, err := s.svc.TaskStats(ctx)
		if err != nil {
			return err
		}
		s.commitIfCurrent(slotStats, gen, func(st *State) { st.Stats = &stats })
		return nil
	})
}

// FetchTaskByID overwrites the selected task with the server's copy.
func (s *Store) FetchTaskByID(ctx context.Context, id string) error {
	return s.run("fetch task", "Failed to fetch task", func() error {
		return s.loadSelected(ctx, id)
	})
}

func (s *Store) loadSelected(ctx context.Context, id string) error {
	gen := s.issue(slotSelected)
	task, err := s.svc.GetTask(ctx, id)
	if err != nil {
		return err
	}
	s.commitIfCurrent(slotSelected, gen, func(st *State) { st.SelectedTask = &task })
	return nil
}

// CreateTask creates a task, puts it at the front of the all-tasks collection and
// reloads my tasks.
func (s *Store) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var created model.Task
	err := s.run("create task", "Failed to create task", func() error {
		task, err := s.svc.CreateTask(ctx, in)
		if err != nil {
			return err
		}
		created = task
		s.commit(func(st *State) {
			st.Tasks = append([]model.Task{task}, st.Tasks...)
		})
		s.refreshMine(ctx)
		return nil
	})
	return created, err
}

// UpdateTask sends a partial update and broadcasts the result.
func (s *Store) UpdateTask(ctx context.Context, id string, in model.TaskInput) (model.Task, error) {
	var updated model.Task
	err := s.run("update task", "Failed to update task", func() error {
		task, err := s.svc.UpdateTask(ctx, id, in)
		if err != nil {
			return err
		}
		updated = task
		s.commit(func(st *State) { broadcast(st, task) })
		return nil
	})
	return updated, err
}

// UpdateTaskStatus moves a task to status. A move the state machine forbids for the
// cached copy is rejected without contacting the service.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	var updated model.Task
	err := s.run("update task status", "Failed to update task status", func() error {
		if cur, found := s.cached(id); found && !model.CanUpdateStatus(cur.Status, status) {
			return &api.Error{
				Kind:    api.KindValidation,
				Message: fmt.Sprintf("Cannot change status from %s to %s", cur.Status, status),
				Err:     ErrInvalidTransition,
			}
		}
		task, err := s.svc.UpdateTaskStatus(ctx, id, status)
		if err != nil {
			return err
		}
		updated = task
		s.commit(func(st *State) { broadcast(st, task) })
		return nil
	})
	return updated, err
}

func (s *Store) UpdateTaskProgress(ctx context.Context, id string, progress int) (model.Task, error) {
	var updated model.Task
	err := s.run("update task progress", "Failed to update task progress", func() error {
		task, err := s.svc.UpdateTaskProgress(ctx, id, progress)
		if err != nil {
			return err
		}
		updated = task
		s.commit(func(st *State) { broadcast(st, task) })
		return nil
	})
	return updated, err
}

// DeleteTask deletes a task and drops it from every collection.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.run("delete task", "Failed to delete task", func() error {
		if err := s.svc.DeleteTask(ctx, id); err != nil {
			return err
		}
		s.commit(func(st *State) {
			st.Tasks = without(st.Tasks, id)
			st.MyTasks = without(st.MyTasks, id)
			st.TeamTasks = without(st.TeamTasks, id)
			st.Overdue = without(st.Overdue, id)
			if st.SelectedTask != nil && st.SelectedTask.ID == id {
				st.SelectedTask = nil
			}
		})
		return nil
	})
}

// AssignTask replaces the assignees of a task and reloads my tasks.
func (s *Store) AssignTask(ctx context.Context, id string, userIDs []string) (model.Task, error) {
	var updated model.Task
	err := s.run("assign task", "Failed to assign task", func() error {
		task, err := s.svc.AssignTask(ctx, id, userIDs)
		if err != nil {
			return err
		}
		updated = task
		s.commit(func(st *State) { st.Tasks = replaced(st.Tasks, task) })
		s.refreshMine(ctx)
		return nil
	})
	return updated, err
}

// AddComment posts a comment and reloads the task to pick up the stored comment list.
func (s *Store) AddComment(ctx context.Context, id, text string) error {
	return s.run("add comment", "Failed to add comment", func() error {
		if err := s.svc.AddComment(ctx, id, text); err != nil {
			return err
		}
		return s.loadSelected(ctx, id)
	})
}

// AddAttachment uploads one file.
func (s *Store) AddAttachment(ctx context.Context, id string, file model.File) error {
	return s.AddAttachments(ctx, id, []model.File{file})
}

// AddAttachments uploads files; the selected task is reloaded if it is the target.
func (s *Store) AddAttachments(ctx context.Context, id string, files []model.File) error {
	return s.run("add attachment", "Failed to upload attachment", func() error {
		if err := s.svc.AddAttachments(ctx, id, files); err != nil {
			return err
		}
		s.mu.RLock()
		selected := s.state.SelectedTask != nil && s.state.SelectedTask.ID == id
		s.mu.RUnlock()
		if selected {
			return s.loadSelected(ctx, id)
		}
		return nil
	})
}

func (s *Store) SetFilters(f Filters) {
	s.commit(func(st *State) { st.Filters = f })
}

// GetFilteredTasks applies the store's filters to the all-tasks collection.
func (s *Store) GetFilteredTasks() []model.Task {
	st := s.Snapshot()
	return st.Filters.Apply(st.Tasks)
}

func (s *Store) ClearError() {
	s.commit(func(st *State) {
		st.Error = ""
		st.Warning = ""
	})
}

// Reset empties the store. Responses to requests issued before Reset are dropped.
func (s *Store) Reset() {
	s.commit(func(st *State) {
		for i := range s.gens {
			s.gens[i]++
		}
		s.myQuery = model.TaskQuery{}
		*st = State{Loading: s.inflight > 0}
	})
}

// cached finds the local copy of a task, preferring the selected one.
func (s *Store) cached(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st := s.state.SelectedTask; st != nil && st.ID == id {
		return *st, true
	}
	for _, list := range [][]model.Task{s.state.Tasks, s.state.MyTasks, s.state.TeamTasks} {
		for _, t := range list {
			if t.ID == id {
				return t, true
			}
		}
	}
	return model.Task{}, false
}

// broadcast replaces every copy of task held by st.
func broadcast(st *State, task model.Task) {
	st.Tasks = replaced(st.Tasks, task)
	st.MyTasks = replaced(st.MyTasks, task)
	st.TeamTasks = replaced(st.TeamTasks, task)
	st.Overdue = replaced(st.Overdue, task)
	if st.SelectedTask != nil && st.SelectedTask.ID == task.ID {
		t := task
		st.SelectedTask = &t
	}
}

// replaced returns a copy of tasks with the entry matching task.ID swapped in, or
// tasks itself when there is no match.
func replaced(tasks []model.Task, task model.Task) []model.Task {
	for i, t := range tasks {
		if t.ID == task.ID {
			out := make([]model.Task, len(tasks))
			copy(out, tasks)
			out[i] = task
			return out
		}
	}
	return tasks
}

// without returns a copy of tasks lacking id, or tasks itself when id is absent.
func without(tasks []model.Task, id string) []model.Task {
	for i, t := range tasks {
		if t.ID == id {
			out := make([]model.Task, 0, len(tasks)-1)
			out = append(out, tasks[:i]...)
			return append(out, tasks[i+1:]...)
		}
	}
	return tasks
}
