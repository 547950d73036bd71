package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskhr/pkg/auth"
	"github.com/harrisonrobin/taskhr/pkg/calendar"
	"github.com/harrisonrobin/taskhr/pkg/config"
	"github.com/harrisonrobin/taskhr/pkg/index"
	"github.com/harrisonrobin/taskhr/pkg/model"
	"github.com/harrisonrobin/taskhr/pkg/overdue"
)

var calendarName string

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Mirror task deadlines into Google Calendar",
}

var calendarAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Calendar",
	RunE:  runCalendarAuth,
}

var calendarSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync your tasks with due dates to the calendar",
	RunE:  runCalendarSync,
}

var calendarRemoveCmd = &cobra.Command{
	Use:   "remove [task-id]",
	Short: "Remove a task's calendar event",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarRemove,
}

func init() {
	calendarCmd.AddCommand(calendarAuthCmd, calendarSyncCmd, calendarRemoveCmd)
	calendarCmd.PersistentFlags().StringVarP(&calendarName, "calendar", "c", "", "Calendar name (overrides config)")
}

func runCalendarAuth(cmd *cobra.Command, args []string) error {
	if err := auth.ResetToken(); err != nil {
		return err
	}
	if _, err := auth.GetCalendarService(cmd.Context()); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	path, _ := auth.TokenPath()
	fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", path)
	return nil
}

func newSyncer(ctx context.Context, a *app) (*calendar.Syncer, error) {
	name := a.cfg.Calendar
	if calendarName != "" {
		name = calendarName
	}
	srv, err := auth.GetCalendarService(ctx)
	if err != nil {
		return nil, err
	}
	client, err := calendar.Open(ctx, srv, name)
	if err != nil {
		return nil, err
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	idx, err := index.Open(dir)
	if err != nil {
		a.log.Warn("failed to load event index, searching by task id instead", "error", err)
		idx = nil
	}
	table, err := overdue.Open(dir)
	if err != nil {
		a.log.Warn("failed to load overdue table, skipping the sweep", "error", err)
		table = nil
	}
	return calendar.NewSyncer(client, idx, table, a.log.With("component", "calendar")), nil
}

func runCalendarSync(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.tasks.FetchMyTasks(cmd.Context(), model.TaskQuery{}); err != nil {
		return err
	}
	s, err := newSyncer(cmd.Context(), a)
	if err != nil {
		return err
	}
	rep, err := s.Sync(cmd.Context(), a.tasks.Snapshot().MyTasks)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rep)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d, skipped %d without due date, flagged %d overdue, %d failed\n",
		rep.Synced, rep.Skipped, rep.Swept, rep.Failed)
	return nil
}

func runCalendarRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	s, err := newSyncer(cmd.Context(), a)
	if err != nil {
		return err
	}
	if err := s.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed calendar event for %s\n", args[0])
	return nil
}
