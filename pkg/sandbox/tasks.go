package sandbox

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

func paginate(c *gin.Context, tasks []model.Task) []model.Task {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(tasks) {
		return []model.Task{}
	}
	end := start + limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end]
}

func (s *Server) listTasks(c *gin.Context) {
	match := matchesQuery(c)
	s.mu.RLock()
	tasks := s.snapshot(match)
	s.mu.RUnlock()
	ok(c, http.StatusOK, paginate(c, tasks))
}

func (s *Server) myTasks(c *gin.Context) {
	match := matchesQuery(c)
	s.mu.RLock()
	tasks := s.snapshot(func(t *model.Task) bool { return s.mine(t) && match(t) })
	s.mu.RUnlock()
	ok(c, http.StatusOK, paginate(c, tasks))
}

func (s *Server) teamTasks(c *gin.Context) {
	team := c.Param("teamId")
	match := matchesQuery(c)
	s.mu.RLock()
	tasks := s.snapshot(func(t *model.Task) bool { return t.TeamID == team && match(t) })
	s.mu.RUnlock()
	ok(c, http.StatusOK, paginate(c, tasks))
}

func (s *Server) overdueTasks(c *gin.Context) {
	now := s.now()
	s.mu.RLock()
	tasks := s.snapshot(func(t *model.Task) bool { return t.Overdue(now) })
	s.mu.RUnlock()
	ok(c, http.StatusOK, tasks)
}

func (s *Server) taskStats(c *gin.Context) {
	now := s.now()
	var st model.TaskStats
	s.mu.RLock()
	for _, t := range s.tasks {
		st.Total++
		switch t.Status {
		case model.StatusTodo:
			st.Todo++
		case model.StatusInProgress:
			st.InProgress++
		case model.StatusDone:
			st.Done++
		}
		if t.Overdue(now) {
			st.Overdue++
		}
	}
	s.mu.RUnlock()
	ok(c, http.StatusOK, st)
}

func (s *Server) getTask(c *gin.Context) {
	s.mu.RLock()
	t, exists := s.tasks[c.Param("id")]
	var out model.Task
	if exists {
		out = *t
	}
	s.mu.RUnlock()
	if !exists {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	ok(c, http.StatusOK, out)
}

func (s *Server) createTask(c *gin.Context) {
	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Title == nil || *in.Title == "" {
		fail(c, http.StatusBadRequest, "Title is required")
		return
	}

	now := s.now()
	me := s.me
	t := model.Task{
		ID:         uuid.NewString(),
		Status:     model.StatusTodo,
		Priority:   model.PriorityMedium,
		Difficulty: model.DifficultyMedium,
		CreatedBy:  &me,
		CreatedAt:  now,
	}
	if msg := s.apply(&t, in); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	t.UpdatedAt = now

	s.mu.Lock()
	s.tasks[t.ID] = &t
	s.order = append([]string{t.ID}, s.order...)
	s.mu.Unlock()
	ok(c, http.StatusCreated, t)
}

// apply copies the set fields of in onto t and returns a validation message on failure.
func (s *Server) apply(t *model.Task, in model.TaskInput) string {
	if in.Status != nil && !in.Status.Valid() {
		return "Invalid status"
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return "Invalid priority"
	}
	if in.Difficulty != nil && !in.Difficulty.Valid() {
		return "Invalid difficulty"
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Difficulty != nil {
		t.Difficulty = *in.Difficulty
	}
	if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	}
	if in.TeamID != nil {
		t.TeamID = *in.TeamID
	}
	if in.AssignedTo != nil {
		t.AssignedTo = userRefs(in.AssignedTo)
	}
	return ""
}

func userRefs(ids []string) []model.UserRef {
	refs := make([]model.UserRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, model.UserRef{ID: id})
	}
	return refs
}

// mutate runs fn on the stored task under the write lock and replies with the result.
func (s *Server) mutate(c *gin.Context, fn func(*model.Task) string) {
	s.mu.Lock()
	t, exists := s.tasks[c.Param("id")]
	if !exists {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	if msg := fn(t); msg != "" {
		s.mu.Unlock()
		fail(c, http.StatusBadRequest, msg)
		return
	}
	t.UpdatedAt = s.now()
	out := *t
	s.mu.Unlock()
	ok(c, http.StatusOK, out)
}

func (s *Server) updateTask(c *gin.Context) {
	var in model.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mutate(c, func(t *model.Task) string { return s.apply(t, in) })
}

func (s *Server) deleteTask(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	_, exists := s.tasks[id]
	if exists {
		delete(s.tasks, id)
		for i, o := range s.order {
			if o == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if !exists {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	ok(c, http.StatusOK, nil)
}

func (s *Server) assignTask(c *gin.Context) {
	var in struct {
		UserIDs []string `json:"userIds"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || len(in.UserIDs) == 0 {
		fail(c, http.StatusBadRequest, "userIds are required")
		return
	}
	s.mutate(c, func(t *model.Task) string {
		t.AssignedTo = userRefs(in.UserIDs)
		return ""
	})
}

func (s *Server) updateStatus(c *gin.Context) {
	var in struct {
		Status model.Status `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || !in.Status.Valid() {
		fail(c, http.StatusBadRequest, "Invalid status")
		return
	}
	s.mutate(c, func(t *model.Task) string {
		t.Status = in.Status
		if in.Status == model.StatusDone {
			t.Progress = 100
		}
		return ""
	})
}

func (s *Server) updateProgress(c *gin.Context) {
	var in struct {
		Progress *int `json:"progress"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Progress == nil || *in.Progress < 0 || *in.Progress > 100 {
		fail(c, http.StatusBadRequest, "Progress must be between 0 and 100")
		return
	}
	s.mutate(c, func(t *model.Task) string {
		t.Progress = *in.Progress
		return ""
	})
}

func (s *Server) addComment(c *gin.Context) {
	var in struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.Text == "" {
		fail(c, http.StatusBadRequest, "Comment text is required")
		return
	}
	now := s.now()
	s.mutate(c, func(t *model.Task) string {
		t.Comments = append(t.Comments, model.Comment{Author: s.me, Text: in.Text, CreatedAt: now})
		return ""
	})
}

func (s *Server) addAttachments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "Expected multipart form")
		return
	}
	files := append(form.File["file"], form.File["files"]...)
	if len(files) == 0 {
		fail(c, http.StatusBadRequest, "No files uploaded")
		return
	}
	id := c.Param("id")
	s.mutate(c, func(t *model.Task) string {
		for _, fh := range files {
			t.Attachments = append(t.Attachments, model.Attachment{
				URL:  "/uploads/" + id + "/" + fh.Filename,
				Name: fh.Filename,
				Type: fh.Header.Get("Content-Type"),
				Size: fh.Size,
			})
		}
		return ""
	})
}
