// Package sandbox serves an in-memory implementation of the task and statistics
// REST services. It backs the client tests and `taskhr sandbox` for offline work.
package sandbox

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

// HR holds the figures the sandbox cannot derive from its tasks.
type HR struct {
	TotalEmployees  int
	ActiveEmployees int
	PendingLeaves   int
	PresentToday    int
	Leaves          []model.LeaveTypeCount
	Attendance      model.AttendanceStats
	Departments     []model.DepartmentCount
}

type Server struct {
	mu     sync.RWMutex
	tasks  map[string]*model.Task
	order  []string // newest first
	me     model.UserRef
	hr     HR
	token  string
	now    func() time.Time
	engine *gin.Engine
}

type Option func(*Server)

// WithUser sets the user the sandbox treats as authenticated.
func WithUser(u model.UserRef) Option { return func(s *Server) { s.me = u } }

// WithToken makes every request require "Authorization: Bearer <token>".
func WithToken(token string) Option { return func(s *Server) { s.token = token } }

func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

func WithHR(hr HR) Option { return func(s *Server) { s.hr = hr } }

func New(opts ...Option) *Server {
	s := &Server{
		tasks: make(map[string]*model.Task),
		me:    model.UserRef{ID: "u-1", Name: "Sandbox User", Email: "sandbox@example.com"},
		now:   time.Now,
		hr: HR{
			TotalEmployees:  42,
			ActiveEmployees: 40,
			PendingLeaves:   3,
			PresentToday:    37,
			Leaves: []model.LeaveTypeCount{
				{Type: "annual", Count: 12, Days: 48},
				{Type: "sick", Count: 5, Days: 9},
			},
			Attendance: model.AttendanceStats{Present: 610, Absent: 12, Late: 25, OnLeave: 18},
			Departments: []model.DepartmentCount{
				{Department: "Engineering", Employees: 18},
				{Department: "Operations", Employees: 14},
				{Department: "People", Employees: 10},
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())
	if s.token != "" {
		e.Use(s.requireToken)
	}
	s.routes(e)
	s.engine = e
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Seed stores tasks as if they had been created, keeping their ids.
func (s *Server) Seed(tasks ...model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tasks {
		t := tasks[i]
		if _, exists := s.tasks[t.ID]; !exists {
			s.order = append([]string{t.ID}, s.order...)
		}
		s.tasks[t.ID] = &t
	}
}

func (s *Server) routes(e *gin.Engine) {
	t := e.Group("/tasks")
	t.POST("", s.createTask)
	t.GET("", s.listTasks)
	t.GET("/my", s.myTasks)
	t.GET("/overdue", s.overdueTasks)
	t.GET("/stats", s.taskStats)
	t.GET("/team/:teamId", s.teamTasks)
	t.GET("/:id", s.getTask)
	t.PUT("/:id", s.updateTask)
	t.DELETE("/:id", s.deleteTask)
	t.POST("/:id/assign", s.assignTask)
	t.PUT("/:id/status", s.updateStatus)
	t.PUT("/:id/progress", s.updateProgress)
	t.POST("/:id/comments", s.addComment)
	t.POST("/:id/attachments", s.addAttachments)

	st := e.Group("/statistics")
	st.GET("/overview", s.overview)
	st.GET("/employees-by-department", s.departments)
	st.GET("/attendance", s.attendance)
	st.GET("/leaves", s.leaves)
	st.GET("/tasks", s.taskStats)
	st.GET("/team-performance", s.teamPerformance)
}

func (s *Server) requireToken(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+s.token {
		fail(c, http.StatusUnauthorized, "Not authorized")
		c.Abort()
		return
	}
	c.Next()
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// snapshot copies the selected tasks in newest-first order. Callers hold s.mu.
func (s *Server) snapshot(keep func(*model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if keep == nil || keep(t) {
			out = append(out, *t)
		}
	}
	return out
}

func (s *Server) mine(t *model.Task) bool {
	if t.CreatedBy != nil && t.CreatedBy.ID == s.me.ID {
		return true
	}
	for _, u := range t.AssignedTo {
		if u.ID == s.me.ID {
			return true
		}
	}
	return false
}

func matchesQuery(c *gin.Context) func(*model.Task) bool {
	status := model.Status(c.Query("status"))
	priority := model.Priority(c.Query("priority"))
	search := strings.ToLower(c.Query("search"))
	return func(t *model.Task) bool {
		if status != "" && t.Status != status {
			return false
		}
		if priority != "" && t.Priority != priority {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			return false
		}
		return true
	}
}
