package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

func taskPath(id string, rest ...string) string {
	p := "/tasks/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func queryValues(q model.TaskQuery) url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Priority != "" {
		v.Set("priority", string(q.Priority))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (c *Client) ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.getJSON(ctx, "/tasks", queryValues(q), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) MyTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.getJSON(ctx, "/tasks/my", queryValues(q), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) TeamTasks(ctx context.Context, teamID string, q model.TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.getJSON(ctx, "/tasks/team/"+url.PathEscape(teamID), queryValues(q), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) OverdueTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.getJSON(ctx, "/tasks/overdue", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) TaskStats(ctx context.Context) (model.TaskStats, error) {
	var stats model.TaskStats
	err := c.getJSON(ctx, "/tasks/stats", nil, &stats)
	return stats, err
}

func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := c.getJSON(ctx, taskPath(id), nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var task model.Task
	err := c.sendJSON(ctx, http.MethodPost, "/tasks", in, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, in model.TaskInput) (model.Task, error) {
	var task model.Task
	err := c.sendJSON(ctx, http.MethodPut, taskPath(id), in, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *Client) AssignTask(ctx context.Context, id string, userIDs []string) (model.Task, error) {
	var task model.Task
	body := struct {
		UserIDs []string `json:"userIds"`
	}{UserIDs: userIDs}
	err := c.sendJSON(ctx, http.MethodPost, taskPath(id, "assign"), body, &task)
	return task, err
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status model.Status) (model.Task, error) {
	if !status.Valid() {
		return model.Task{}, &Error{Kind: KindValidation, Message: fmt.Sprintf("unknown status %q", status)}
	}
	var task model.Task
	body := struct {
		Status model.Status `json:"status"`
	}{Status: status}
	err := c.sendJSON(ctx, http.MethodPut, taskPath(id, "status"), body, &task)
	return task, err
}

func (c *Client) UpdateTaskProgress(ctx context.Context, id string, progress int) (model.Task, error) {
	if progress < 0 || progress > 100 {
		return model.Task{}, &Error{Kind: KindValidation, Message: "progress must be between 0 and 100"}
	}
	var task model.Task
	body := struct {
		Progress int `json:"progress"`
	}{Progress: progress}
	err := c.sendJSON(ctx, http.MethodPut, taskPath(id, "progress"), body, &task)
	return task, err
}

func (c *Client) AddComment(ctx context.Context, id, text string) error {
	body := struct {
		Text string `json:"text"`
	}{Text: text}
	return c.sendJSON(ctx, http.MethodPost, taskPath(id, "comments"), body, nil)
}

// AddAttachments uploads files as one multipart request. A single file goes in the
// "file" field, several go in repeated "files" fields.
func (c *Client) AddAttachments(ctx context.Context, id string, files []model.File) error {
	if len(files) == 0 {
		return &Error{Kind: KindValidation, Message: "no files to upload"}
	}
	field := "file"
	if len(files) > 1 {
		field = "files"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return &Error{Kind: KindValidation, Err: fmt.Errorf("failed to create form part: %w", err)}
		}
		if _, err := part.Write(f.Data); err != nil {
			return &Error{Kind: KindValidation, Err: fmt.Errorf("failed to write form part: %w", err)}
		}
	}
	if err := w.Close(); err != nil {
		return &Error{Kind: KindValidation, Err: fmt.Errorf("failed to close form: %w", err)}
	}

	return c.do(ctx, http.MethodPost, taskPath(id, "attachments"), nil, w.FormDataContentType(), &buf, nil)
}
