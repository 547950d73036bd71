package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskhr/pkg/store/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "HR dashboard statistics",
}

var statsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the dashboard statistics",
	RunE:  runStatsShow,
}

var statsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the dashboard statistics, bypassing the cache",
	RunE:  runStatsRefresh,
}

var statsDepartmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Show employees per department",
	RunE:  runStatsDepartments,
}

func init() {
	statsCmd.AddCommand(statsShowCmd, statsRefreshCmd, statsDepartmentsCmd)
}

func runStatsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	outcome, err := a.stats.LoadAllStats(cmd.Context(), false)
	if err != nil {
		return err
	}
	a.log.Debug("statistics loaded", "outcome", outcome)
	return printStats(cmd.OutOrStdout(), a.stats.Snapshot())
}

func runStatsRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if _, err := a.stats.RefreshStats(cmd.Context()); err != nil {
		return err
	}
	return printStats(cmd.OutOrStdout(), a.stats.Snapshot())
}

func runStatsDepartments(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.stats.LoadDepartmentStats(cmd.Context()); err != nil {
		return err
	}
	deps := a.stats.Snapshot().Departments
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), deps)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPARTMENT\tEMPLOYEES")
	for _, d := range deps {
		fmt.Fprintf(tw, "%s\t%d\n", d.Department, d.Employees)
	}
	return tw.Flush()
}

func printStats(w io.Writer, st stats.State) error {
	if jsonOutput {
		return printJSON(w, struct {
			Overview        any `json:"overview"`
			Tasks           any `json:"tasks"`
			Leaves          any `json:"leaves"`
			Attendance      any `json:"attendance"`
			TeamPerformance any `json:"teamPerformance"`
		}{st.Overview, st.TaskStats, st.LeaveStats, st.AttendanceStats, st.TeamPerformance})
	}

	if o := st.Overview; o != nil {
		fmt.Fprintln(w, "Overview")
		fmt.Fprintf(w, "  Employees:     %d (%d active)\n", o.TotalEmployees, o.ActiveEmployees)
		fmt.Fprintf(w, "  Teams:         %d\n", o.TotalTeams)
		fmt.Fprintf(w, "  Tasks:         %d (%d active, %d completed)\n", o.TotalTasks, o.ActiveTasks, o.CompletedTasks)
		fmt.Fprintf(w, "  Pending leave: %d\n", o.PendingLeaves)
		fmt.Fprintf(w, "  Present today: %d\n", o.PresentToday)
	}
	if t := st.TaskStats; t != nil {
		fmt.Fprintln(w, "\nTasks")
		fmt.Fprintf(w, "  %d total, %d to do, %d in progress, %d done, %d overdue\n", t.Total, t.Todo, t.InProgress, t.Done, t.Overdue)
	}
	if a := st.AttendanceStats; a != nil {
		fmt.Fprintf(w, "\nAttendance %02d/%d\n", a.Month, a.Year)
		fmt.Fprintf(w, "  present %d, absent %d, late %d, on leave %d\n", a.Present, a.Absent, a.Late, a.OnLeave)
	}
	if l := st.LeaveStats; l != nil && len(l.ByType) > 0 {
		fmt.Fprintf(w, "\nLeave %d\n", l.Year)
		for _, c := range l.ByType {
			fmt.Fprintf(w, "  %-12s %d requests, %d days\n", c.Type, c.Count, c.Days)
		}
	}
	if len(st.TeamPerformance) > 0 {
		fmt.Fprintln(w, "\nTeam performance")
		for _, p := range st.TeamPerformance {
			fmt.Fprintf(w, "  %-20s %.0f%%\n", p.Team, p.Performance)
		}
	}
	if !st.LastFetch.IsZero() {
		fmt.Fprintf(w, "\nFetched %s\n", st.LastFetch.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
