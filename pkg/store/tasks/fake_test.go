package tasks

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/harrisonrobin/taskhr/pkg/api"
	"github.com/harrisonrobin/taskhr/pkg/model"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeService is an in-memory task service. The *Fn hooks override single calls.
type fakeService struct {
	mu     sync.Mutex
	tasks  map[string]model.Task
	nextID int
	calls  map[string]int

	listFn   func(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	mineFn   func(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	deleteFn func(ctx context.Context, id string) error
}

func newFakeService(seed ...model.Task) *fakeService {
	f := &fakeService{tasks: make(map[string]model.Task), calls: make(map[string]int)}
	for _, t := range seed {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeService) all() []model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out
}

func (f *fakeService) ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	f.record("ListTasks")
	if f.listFn != nil {
		return f.listFn(ctx, q)
	}
	return f.all(), nil
}

func (f *fakeService) MyTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	f.record("MyTasks")
	if f.mineFn != nil {
		return f.mineFn(ctx, q)
	}
	return f.all(), nil
}

func (f *fakeService) TeamTasks(ctx context.Context, teamID string, q model.TaskQuery) ([]model.Task, error) {
	f.record("TeamTasks")
	var out []model.Task
	for _, t := range f.all() {
		if t.TeamID == teamID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeService) OverdueTasks(ctx context.Context) ([]model.Task, error) {
	f.record("OverdueTasks")
	return nil, nil
}

func (f *fakeService) TaskStats(ctx context.Context) (model.TaskStats, error) {
	f.record("TaskStats")
	return model.TaskStats{Total: len(f.all())}, nil
}

func (f *fakeService) get(id string) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return model.Task{}, &api.Error{Kind: api.KindNotFound, Status: 404, Message: "Task not found"}
	}
	return t, nil
}

func (f *fakeService) put(t model.Task) model.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
	return t
}

func (f *fakeService) GetTask(ctx context.Context, id string) (model.Task, error) {
	f.record("GetTask")
	return f.get(id)
}

func (f *fakeService) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	f.record("CreateTask")
	if in.Title == nil || *in.Title == "" {
		return model.Task{}, &api.Error{Kind: api.KindValidation, Status: 400, Message: "Title is required"}
	}
	f.mu.Lock()
	f.nextID++
	id := "new-" + strconv.Itoa(f.nextID)
	f.mu.Unlock()
	return f.put(model.Task{ID: id, Title: *in.Title, Status: model.StatusTodo}), nil
}

func (f *fakeService) UpdateTask(ctx context.Context, id string, in model.TaskInput) (model.Task, error) {
	f.record("UpdateTask")
	t, err := f.get(id)
	if err != nil {
		return model.Task{}, err
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	return f.put(t), nil
}

func (f *fakeService) UpdateTaskStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	f.record("UpdateTaskStatus")
	t, err := f.get(id)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = status
	return f.put(t), nil
}

func (f *fakeService) UpdateTaskProgress(ctx context.Context, id string, progress int) (model.Task, error) {
	f.record("UpdateTaskProgress")
	t, err := f.get(id)
	if err != nil {
		return model.Task{}, err
	}
	t.Progress = progress
	return f.put(t), nil
}

func (f *fakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	f.mu.Lock()
	delete(f.tasks, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeService) AssignTask(ctx context.Context, id string, userIDs []string) (model.Task, error) {
	f.record("AssignTask")
	t, err := f.get(id)
	if err != nil {
		return model.Task{}, err
	}
	t.AssignedTo = nil
	for _, u := range userIDs {
		t.AssignedTo = append(t.AssignedTo, model.UserRef{ID: u})
	}
	return f.put(t), nil
}

func (f *fakeService) AddComment(ctx context.Context, id, text string) error {
	f.record("AddComment")
	t, err := f.get(id)
	if err != nil {
		return err
	}
	t.Comments = append(t.Comments, model.Comment{Author: model.UserRef{ID: "me"}, Text: text})
	f.put(t)
	return nil
}

func (f *fakeService) AddAttachments(ctx context.Context, id string, files []model.File) error {
	f.record("AddAttachments")
	t, err := f.get(id)
	if err != nil {
		return err
	}
	for _, file := range files {
		t.Attachments = append(t.Attachments, model.Attachment{Name: file.Name, Size: int64(len(file.Data))})
	}
	f.put(t)
	return nil
}

var _ Service = (*fakeService)(nil)
