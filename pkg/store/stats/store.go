// Package stats caches the HR dashboard statistics behind a time-based validity window.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrisonrobin/taskhr/pkg/api"
	"github.com/harrisonrobin/taskhr/pkg/model"
)

const DefaultCacheExpiry = 5 * time.Minute

// Service is the part of the statistics service the store relies on.
type Service interface {
	Overview(ctx context.Context) (model.Overview, error)
	TaskStatistics(ctx context.Context) (model.TaskStats, error)
	LeaveStatistics(ctx context.Context, year int) (model.LeaveStats, error)
	AttendanceStatistics(ctx context.Context, month, year int) (model.AttendanceStats, error)
	TeamPerformance(ctx context.Context) ([]model.TeamPerformance, error)
	EmployeesByDepartment(ctx context.Context) ([]model.DepartmentCount, error)
}

// State is a point-in-time copy of the store; callers must not modify it.
type State struct {
	Overview        *model.Overview
	TaskStats       *model.TaskStats
	LeaveStats      *model.LeaveStats
	AttendanceStats *model.AttendanceStats
	TeamPerformance []model.TeamPerformance
	Departments     []model.DepartmentCount

	// LastFetch is the time of the last successful full load; zero means never.
	LastFetch   time.Time
	CacheExpiry time.Duration
	Loading     bool
	Refreshing  bool
	Error       string
}

// Outcome tells how LoadAllStats was served.
type Outcome int

const (
	OutcomeFetched Outcome = iota
	OutcomeFromCache
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFromCache:
		return "cache"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "fetched"
	}
}

type field int

const (
	fieldBatch field = iota
	fieldOverview
	fieldTasks
	fieldLeaves
	fieldAttendance
	fieldTeams
	fieldDepartments
	fieldCount
)

type Store struct {
	svc Service
	log *slog.Logger
	now func() time.Time

	mu    sync.RWMutex
	state State
	gens  [fieldCount]uint64

	lmu       sync.Mutex
	listeners map[int]func(State)
	nextID    int
}

type Option func(*Store)

// WithClock replaces time.Now for cache checks and for the current month and year.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(svc Service, log *slog.Logger, opts ...Option) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		svc:       svc,
		log:       log.With("store", "stats"),
		now:       time.Now,
		state:     State{CacheExpiry: DefaultCacheExpiry},
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to receive the state after every change.
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

func (s *Store) commit(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

func (s *Store) issue(f field) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[f]++
	return s.gens[f]
}

func (s *Store) commitIfCurrent(f field, gen uint64, fn func(st *State)) bool {
	s.mu.Lock()
	if s.gens[f] != gen {
		s.mu.Unlock()
		s.log.Debug("discarding superseded response", "field", int(f), "generation", gen)
		return false
	}
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
	return true
}

// IsCacheValid reports whether the last full load is younger than the cache expiry.
func (s *Store) IsCacheValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheValidLocked()
}

func (s *Store) cacheValidLocked() bool {
	if s.state.LastFetch.IsZero() {
		return false
	}
	return s.now().Sub(s.state.LastFetch) < s.state.CacheExpiry
}

// LoadAllStats fetches the five dashboard reports together and commits them as one
// snapshot. A call made while a load is running is dropped, and a non-forced call
// inside the cache window is answered from memory.
func (s *Store) LoadAllStats(ctx context.Context, force bool) (Outcome, error) {
	s.mu.Lock()
	if s.state.Loading || s.state.Refreshing {
		s.mu.Unlock()
		return OutcomeSkipped, nil
	}
	if !force && s.cacheValidLocked() {
		s.mu.Unlock()
		return OutcomeFromCache, nil
	}
	if force {
		s.state.Refreshing = true
	} else {
		s.state.Loading = true
	}
	s.state.Error = ""
	s.gens[fieldBatch]++
	gen := s.gens[fieldBatch]
	st := s.state
	s.mu.Unlock()
	s.notify(st)

	now := s.now()
	year, month := now.Year(), int(now.Month())

	var (
		overview   model.Overview
		taskStats  model.TaskStats
		leaves     model.LeaveStats
		teams      []model.TeamPerformance
		attendance model.AttendanceStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		overview, err = s.svc.Overview(gctx)
		return err
	})
	g.Go(func() (err error) {
		taskStats, err = s.svc.TaskStatistics(gctx)
		return err
	})
	g.Go(func() (err error) {
		leaves, err = s.svc.LeaveStatistics(gctx, year)
		return err
	})
	g.Go(func() (err error) {
		teams, err = s.svc.TeamPerformance(gctx)
		return err
	})
	g.Go(func() (err error) {
		attendance, err = s.svc.AttendanceStatistics(gctx, month, year)
		return err
	})

	if err := g.Wait(); err != nil {
		msg := api.Message(err, "Failed to load statistics")
		s.log.Error("load statistics failed", "error", err)
		s.commitIfCurrent(fieldBatch, gen, func(st *State) {
			st.Loading = false
			st.Refreshing = false
			st.Error = msg
		})
		return OutcomeFetched, err
	}

	s.commitIfCurrent(fieldBatch, gen, func(st *State) {
		st.Overview = &overview
		st.TaskStats = &taskStats
		st.LeaveStats = &leaves
		st.TeamPerformance = teams
		st.AttendanceStats = &attendance
		st.LastFetch = s.now()
		st.Loading = false
		st.Refreshing = false
	})
	return OutcomeFetched, nil
}

// RefreshStats reloads everything regardless of the cache.
func (s *Store) RefreshStats(ctx context.Context) (Outcome, error) {
	return s.LoadAllStats(ctx, true)
}

// load runs one individual report fetch. It ignores the batch guards and leaves
// LastFetch alone.
func (s *Store) load(f field, fallback string, fetch func() (func(st *State), error)) error {
	gen := s.issue(f)
	apply, err := fetch()
	if err != nil {
		msg := api.Message(err, fallback)
		s.log.Error(fallback, "error", err)
		s.commit(func(st *State) { st.Error = msg })
		return err
	}
	s.commitIfCurrent(f, gen, apply)
	return nil
}

func (s *Store) LoadOverview(ctx context.Context) error {
	return s.load(fieldOverview, "Failed to load overview", func() (func(*State), error) {
		v, err := s.svc.Overview(ctx)
		return func(st *State) { st.Overview = &v }, err
	})
}

func (s *Store) LoadTaskStats(ctx context.Context) error {
	return s.load(fieldTasks, "Failed to load task statistics", func() (func(*State), error) {
		v, err := s.svc.TaskStatistics(ctx)
		return func(st *State) { st.TaskStats = &v }, err
	})
}

func (s *Store) LoadLeaveStats(ctx context.Context, year int) error {
	return s.load(fieldLeaves, "Failed to load leave statistics", func() (func(*State), error) {
		v, err := s.svc.LeaveStatistics(ctx, year)
		return func(st *State) { st.LeaveStats = &v }, err
	})
}

func (s *Store) LoadAttendanceStats(ctx context.Context, month, year int) error {
	return s.load(fieldAttendance, "Failed to load attendance statistics", func() (func(*State), error) {
		v, err := s.svc.AttendanceStatistics(ctx, month, year)
		return func(st *State) { st.AttendanceStats = &v }, err
	})
}

func (s *Store) LoadTeamPerformance(ctx context.Context) error {
	return s.load(fieldTeams, "Failed to load team performance", func() (func(*State), error) {
		v, err := s.svc.TeamPerformance(ctx)
		return func(st *State) { st.TeamPerformance = v }, err
	})
}

func (s *Store) LoadDepartmentStats(ctx context.Context) error {
	return s.load(fieldDepartments, "Failed to load department statistics", func() (func(*State), error) {
		v, err := s.svc.EmployeesByDepartment(ctx)
		return func(st *State) { st.Departments = v }, err
	})
}

func (s *Store) SetCacheExpiry(d time.Duration) {
	s.commit(func(st *State) { st.CacheExpiry = d })
}

// ClearCache forgets the last full load so the next LoadAllStats goes to the network.
func (s *Store) ClearCache() {
	s.commit(func(st *State) { st.LastFetch = time.Time{} })
}

func (s *Store) ClearError() {
	s.commit(func(st *State) { st.Error = "" })
}

// Reset restores the initial state. Responses to requests issued before Reset are dropped.
func (s *Store) Reset() {
	s.commit(func(st *State) {
		for i := range s.gens {
			s.gens[i]++
		}
		*st = State{CacheExpiry: DefaultCacheExpiry}
	})
}
