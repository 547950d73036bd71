package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskhr/pkg/index"
	"github.com/harrisonrobin/taskhr/pkg/model"
	"github.com/harrisonrobin/taskhr/pkg/overdue"
)

// EventService is the part of the Calendar API the syncer needs. *CalendarClient implements it.
type EventService interface {
	GetEvent(ctx context.Context, eventID string) (*gcal.Event, error)
	FindEventByTaskID(ctx context.Context, taskID string) (*gcal.Event, error)
	InsertEvent(ctx context.Context, event *gcal.Event) (*gcal.Event, error)
	PatchEvent(ctx context.Context, eventID string, patch *gcal.Event) (*gcal.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type Report struct {
	Synced  int
	Skipped int
	Swept   int
	Failed  int
}

type Syncer struct {
	events EventService
	index  *index.EventIndex
	table  *overdue.Table
	log    *slog.Logger
	now    func() time.Time
}

type SyncerOption func(*Syncer)

func WithClock(now func() time.Time) SyncerOption { return func(s *Syncer) { s.now = now } }

// NewSyncer wires an event service to the local index and overdue table.
// Either of idx and table may be nil, in which case that bookkeeping is skipped.
func NewSyncer(events EventService, idx *index.EventIndex, table *overdue.Table, log *slog.Logger, opts ...SyncerOption) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	s := &Syncer{
		events: events,
		index:  idx,
		table:  table,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync flags events whose deadline passed since the last run, then mirrors every
// task that has a due date.
func (s *Syncer) Sync(ctx context.Context, tasks []model.Task) (Report, error) {
	var rep Report
	now := s.now()

	if s.table != nil {
		for taskID, e := range s.table.Sweep(now) {
			if _, err := s.events.PatchEvent(ctx, e.EventID, &gcal.Event{Summary: "! " + e.Title}); err != nil {
				s.log.Warn("could not flag overdue event", "task", taskID, "event", e.EventID, "error", err)
				rep.Failed++
				continue
			}
			rep.Swept++
		}
	}

	for i := range tasks {
		task := &tasks[i]
		if task.DueDate == nil || task.DueDate.IsZero() {
			rep.Skipped++
			continue
		}
		event, err := s.SyncEvent(ctx, task)
		if err != nil {
			s.log.Warn("could not sync task", "task", task.ID, "error", err)
			rep.Failed++
			continue
		}
		rep.Synced++
		if s.table == nil {
			continue
		}
		if task.Status == model.StatusDone {
			s.table.Remove(task.ID)
		} else {
			s.table.Track(task.ID, event.Id, task.Title, *task.DueDate, now)
		}
	}

	s.log.Debug("calendar sync finished", "synced", rep.Synced, "skipped", rep.Skipped, "swept", rep.Swept, "failed", rep.Failed)
	return rep, s.save()
}

// SyncEvent inserts the task's event or patches the fields that drifted.
func (s *Syncer) SyncEvent(ctx context.Context, task *model.Task) (*gcal.Event, error) {
	event, err := Convert(task, s.now())
	if err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		patch, err := Diff(existing, event)
		if err != nil {
			return nil, fmt.Errorf("could not compare task %s with its event: %w", task.ID, err)
		}
		if patch == nil {
			s.remember(task.ID, existing.Id)
			return existing, nil
		}
		updated, err := s.events.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, err
		}
		s.remember(task.ID, updated.Id)
		return updated, nil
	}

	created, err := s.events.InsertEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	s.remember(task.ID, created.Id)
	return created, nil
}

func (s *Syncer) lookup(ctx context.Context, taskID string) (*gcal.Event, error) {
	if s.index != nil {
		if eventID := s.index.Get(taskID); eventID != "" {
			event, err := s.events.GetEvent(ctx, eventID)
			if err == nil && event != nil && event.Status != "cancelled" {
				return event, nil
			}
			s.log.Debug("indexed event unavailable, searching", "task", taskID, "event", eventID)
		}
	}
	event, err := s.events.FindEventByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}
	return event, nil
}

func (s *Syncer) remember(taskID, eventID string) {
	if s.index != nil {
		s.index.Set(taskID, eventID)
	}
}

// Remove deletes the task's event and forgets the task locally.
func (s *Syncer) Remove(ctx context.Context, taskID string) error {
	event, err := s.lookup(ctx, taskID)
	if err != nil {
		return err
	}
	if event != nil {
		if err := s.events.DeleteEvent(ctx, event.Id); err != nil {
			return fmt.Errorf("could not delete event %s: %w", event.Id, err)
		}
	}
	if s.index != nil {
		s.index.Remove(taskID)
	}
	if s.table != nil {
		s.table.Remove(taskID)
	}
	return s.save()
}

func (s *Syncer) save() error {
	var errs []error
	if s.index != nil {
		if err := s.index.Save(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save event index: %w", err))
		}
	}
	if s.table != nil {
		if err := s.table.Save(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save overdue table: %w", err))
		}
	}
	return errors.Join(errs...)
}
