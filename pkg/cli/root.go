// Package cli is the taskhr command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskhr/pkg/api"
	"github.com/harrisonrobin/taskhr/pkg/auth"
	"github.com/harrisonrobin/taskhr/pkg/config"
	"github.com/harrisonrobin/taskhr/pkg/store/stats"
	"github.com/harrisonrobin/taskhr/pkg/store/tasks"
)

var (
	register sync.Once

	verbose    bool
	apiURL     string
	jsonOutput bool
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskhr",
		Short: "taskhr - HR task and statistics client",
		Long: `taskhr talks to the HR task and statistics services.

It lists and edits tasks, shows the dashboard statistics and mirrors task
deadlines into a Google Calendar.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Task service base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
}

// Execute runs the root command.
func Execute(version string) error {
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func registerCommands() {
	register.Do(func() {
		rootCmd.AddCommand(tasksCmd)
		rootCmd.AddCommand(statsCmd)
		rootCmd.AddCommand(calendarCmd)
		rootCmd.AddCommand(configCmd)
		rootCmd.AddCommand(sandboxCmd)
	})
}

// app is what a command needs to reach the services.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	client *api.Client
	tasks  *tasks.Store
	stats  *stats.Store
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	level := cfg.LogLevel
	if verbose {
		level = "DEBUG"
	}
	log := makeLogger(level)

	client := api.NewClient(cfg.APIURL, auth.APIClient(ctx, cfg.APIToken, cfg.Timeout), log)
	st := stats.NewStore(client, log)
	st.SetCacheExpiry(cfg.CacheExpiry)

	return &app{
		cfg:    cfg,
		log:    log,
		client: client,
		tasks:  tasks.NewStore(client, log),
		stats:  st,
	}, nil
}

func makeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
