package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harrisonrobin/taskhr/pkg/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTasks(w io.Writer, list []model.Task) error {
	if jsonOutput {
		return printJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}
	now := time.Now()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tPROGRESS\tTITLE")
	for _, t := range list {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02 15:04")
			if t.Overdue(now) {
				due += " !"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\n", t.ID, t.Status, orDash(string(t.Priority)), due, t.Progress, t.Title)
	}
	return tw.Flush()
}

func printTask(w io.Writer, t model.Task) error {
	if jsonOutput {
		return printJSON(w, t)
	}
	fmt.Fprintf(w, "%s  %s\n", t.ID, t.Title)
	fmt.Fprintf(w, "  Status:     %s (%d%%)\n", t.Status, t.Progress)
	fmt.Fprintf(w, "  Priority:   %s\n", orDash(string(t.Priority)))
	fmt.Fprintf(w, "  Difficulty: %s\n", orDash(string(t.Difficulty)))
	if t.DueDate != nil {
		fmt.Fprintf(w, "  Due:        %s\n", t.DueDate.Local().Format("2006-01-02 15:04"))
	}
	if t.TeamID != "" {
		fmt.Fprintf(w, "  Team:       %s\n", t.TeamID)
	}
	if len(t.AssignedTo) > 0 {
		names := make([]string, 0, len(t.AssignedTo))
		for _, u := range t.AssignedTo {
			names = append(names, orDefault(u.Name, u.ID))
		}
		fmt.Fprintf(w, "  Assigned:   %s\n", strings.Join(names, ", "))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", t.Description)
	}
	if len(t.Attachments) > 0 {
		fmt.Fprintln(w, "\n  Attachments:")
		for _, a := range t.Attachments {
			fmt.Fprintf(w, "    %s (%s)\n", a.Name, a.URL)
		}
	}
	if len(t.Comments) > 0 {
		fmt.Fprintln(w, "\n  Comments:")
		for _, c := range t.Comments {
			fmt.Fprintf(w, "    %s  %s: %s\n", c.CreatedAt.Local().Format("2006-01-02 15:04"), orDefault(c.Author.Name, c.Author.ID), c.Text)
		}
	}
	return nil
}

func orDash(s string) string { return orDefault(s, "-") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
