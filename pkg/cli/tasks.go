package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and edit tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	RunE:  runTasksList,
}

var tasksMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List tasks assigned to you",
	RunE:  runTasksMine,
}

var tasksTeamCmd = &cobra.Command{
	Use:   "team [team-id]",
	Short: "List a team's tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksTeam,
}

var tasksShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksShow,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	RunE:  runTasksCreate,
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status [task-id] [todo|in_progress|done]",
	Short: "Move a task to another status",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksStatus,
}

var tasksProgressCmd = &cobra.Command{
	Use:   "progress [task-id] [0-100]",
	Short: "Set task progress",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksProgress,
}

var tasksAssignCmd = &cobra.Command{
	Use:   "assign [task-id] [user-id]...",
	Short: "Assign users to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTasksAssign,
}

var tasksCommentCmd = &cobra.Command{
	Use:   "comment [task-id] [text]...",
	Short: "Comment on a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTasksComment,
}

var tasksAttachCmd = &cobra.Command{
	Use:   "attach [task-id] [file]...",
	Short: "Upload files to a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTasksAttach,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

var tasksOverdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue tasks",
	RunE:  runTasksOverdue,
}

var tasksStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts per status",
	RunE:  runTasksStats,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksMineCmd, tasksTeamCmd, tasksShowCmd, tasksCreateCmd,
		tasksStatusCmd, tasksProgressCmd, tasksAssignCmd, tasksCommentCmd, tasksAttachCmd,
		tasksDeleteCmd, tasksOverdueCmd, tasksStatsCmd)

	for _, c := range []*cobra.Command{tasksListCmd, tasksMineCmd, tasksTeamCmd} {
		c.Flags().String("status", "", "Filter by status (todo, in_progress, done)")
		c.Flags().String("priority", "", "Filter by priority (low, medium, high)")
		c.Flags().StringP("search", "s", "", "Search title and description")
		c.Flags().Int("page", 0, "Page to fetch")
		c.Flags().IntP("limit", "n", 0, "Page size (default: all)")
	}

	tasksCreateCmd.Flags().StringP("title", "t", "", "Task title")
	tasksCreateCmd.Flags().StringP("description", "d", "", "Task description")
	tasksCreateCmd.Flags().String("priority", "", "Priority (low, medium, high)")
	tasksCreateCmd.Flags().String("difficulty", "", "Difficulty (easy, medium, hard, very_hard)")
	tasksCreateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	tasksCreateCmd.Flags().String("team", "", "Team id")
	tasksCreateCmd.Flags().String("assign", "", "Comma separated user ids")
	_ = tasksCreateCmd.MarkFlagRequired("title")
}

func queryFromFlags(cmd *cobra.Command) (model.TaskQuery, error) {
	status, _ := cmd.Flags().GetString("status")
	priority, _ := cmd.Flags().GetString("priority")
	search, _ := cmd.Flags().GetString("search")
	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")

	q := model.TaskQuery{
		Status:   model.Status(status),
		Priority: model.Priority(priority),
		Search:   search,
		Page:     page,
		Limit:    limit,
	}
	if q.Status != "" && !q.Status.Valid() {
		return q, fmt.Errorf("invalid status %q", status)
	}
	if q.Priority != "" && !q.Priority.Valid() {
		return q, fmt.Errorf("invalid priority %q", priority)
	}
	return q, nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchTasks(cmd.Context(), q); err != nil {
		return err
	}
	return printTasks(cmd.OutOrStdout(), a.tasks.Snapshot().Tasks)
}

func runTasksMine(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchMyTasks(cmd.Context(), q); err != nil {
		return err
	}
	return printTasks(cmd.OutOrStdout(), a.tasks.Snapshot().MyTasks)
}

func runTasksTeam(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchTeamTasks(cmd.Context(), args[0], q); err != nil {
		return err
	}
	return printTasks(cmd.OutOrStdout(), a.tasks.Snapshot().TeamTasks)
}

func runTasksShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchTaskByID(cmd.Context(), args[0]); err != nil {
		return err
	}
	selected := a.tasks.Snapshot().SelectedTask
	if selected == nil {
		return fmt.Errorf("task %s not found", args[0])
	}
	return printTask(cmd.OutOrStdout(), *selected)
}

// parseDue accepts a date, meaning 17:00 local time that day, or an RFC 3339 timestamp.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return d.Add(17 * time.Hour), nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func inputFromFlags(cmd *cobra.Command) (model.TaskInput, error) {
	var in model.TaskInput
	title, _ := cmd.Flags().GetString("title")
	if strings.TrimSpace(title) == "" {
		return in, fmt.Errorf("title is required")
	}
	in.Title = &title

	if v, _ := cmd.Flags().GetString("description"); v != "" {
		in.Description = &v
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p := model.Priority(v)
		if !p.Valid() {
			return in, fmt.Errorf("invalid priority %q", v)
		}
		in.Priority = &p
	}
	if v, _ := cmd.Flags().GetString("difficulty"); v != "" {
		d := model.Difficulty(v)
		if !d.Valid() {
			return in, fmt.Errorf("invalid difficulty %q", v)
		}
		in.Difficulty = &d
	}
	if v, _ := cmd.Flags().GetString("due"); v != "" {
		due, err := parseDue(v)
		if err != nil {
			return in, err
		}
		in.DueDate = &due
	}
	if v, _ := cmd.Flags().GetString("team"); v != "" {
		in.TeamID = &v
	}
	if v, _ := cmd.Flags().GetString("assign"); v != "" {
		in.AssignedTo = splitIDs(v)
	}
	return in, nil
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	in, err := inputFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	task, err := a.tasks.CreateTask(cmd.Context(), in)
	if err != nil {
		return err
	}
	return printTask(cmd.OutOrStdout(), task)
}

func runTasksStatus(cmd *cobra.Command, args []string) error {
	status := model.Status(args[1])
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", args[1])
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	// Load the task first so the transition is checked against its current status.
	if err := a.tasks.FetchTaskByID(cmd.Context(), args[0]); err != nil {
		return err
	}
	task, err := a.tasks.UpdateTaskStatus(cmd.Context(), args[0], status)
	if err != nil {
		return err
	}
	return printTask(cmd.OutOrStdout(), task)
}

func runTasksProgress(cmd *cobra.Command, args []string) error {
	progress, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid progress %q: %w", args[1], err)
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	task, err := a.tasks.UpdateTaskProgress(cmd.Context(), args[0], progress)
	if err != nil {
		return err
	}
	return printTask(cmd.OutOrStdout(), task)
}

func runTasksAssign(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	task, err := a.tasks.AssignTask(cmd.Context(), args[0], args[1:])
	if err != nil {
		return err
	}
	return printTask(cmd.OutOrStdout(), task)
}

func runTasksComment(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.AddComment(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	selected := a.tasks.Snapshot().SelectedTask
	if selected == nil {
		return nil
	}
	return printTask(cmd.OutOrStdout(), *selected)
}

func readFile(path string) (model.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.File{}, err
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return model.File{Name: filepath.Base(path), ContentType: ct, Data: data}, nil
}

func runTasksAttach(cmd *cobra.Command, args []string) error {
	files := make([]model.File, 0, len(args)-1)
	for _, path := range args[1:] {
		f, err := readFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, f)
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if len(files) == 1 {
		err = a.tasks.AddAttachment(cmd.Context(), args[0], files[0])
	} else {
		err = a.tasks.AddAttachments(cmd.Context(), args[0], files)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d file(s) to %s\n", len(files), args[0])
	return nil
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runTasksOverdue(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchOverdue(cmd.Context()); err != nil {
		return err
	}
	return printTasks(cmd.OutOrStdout(), a.tasks.Snapshot().Overdue)
}

func runTasksStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchStats(cmd.Context()); err != nil {
		return err
	}
	st := a.tasks.Snapshot().Stats
	if st == nil {
		return nil
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), st)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Total:       %d\n", st.Total)
	fmt.Fprintf(w, "To do:       %d\n", st.Todo)
	fmt.Fprintf(w, "In progress: %d\n", st.InProgress)
	fmt.Fprintf(w, "Done:        %d\n", st.Done)
	fmt.Fprintf(w, "Overdue:     %d\n", st.Overdue)
	return nil
}
