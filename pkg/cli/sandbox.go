package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskhr/pkg/config"
	"github.com/harrisonrobin/taskhr/pkg/sandbox"
)

var sandboxAddr string

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Serve an in-memory task and statistics API",
	Long: `Serve an in-memory implementation of the task and statistics services.

Examples:
  taskhr sandbox --addr :8080
  taskhr --api-url http://localhost:8080 tasks list`,
	RunE: runSandbox,
}

func init() {
	sandboxCmd.Flags().StringVar(&sandboxAddr, "addr", "", "listen address (overrides config)")
}

func runSandbox(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	addr := cfg.SandboxAddress
	if sandboxAddr != "" {
		addr = sandboxAddr
	}
	log := makeLogger(cfg.LogLevel)
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	var opts []sandbox.Option
	if cfg.APIToken != "" {
		opts = append(opts, sandbox.WithToken(cfg.APIToken))
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           sandbox.New(opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("sandbox listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
	}

	log.Info("shutting down sandbox")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
