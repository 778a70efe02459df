package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/flock/internal/logging"
	"github.com/wesleyorama2/flock/internal/target"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a local admin paths endpoint to run against",
		Long: `Start a small HTTP server that answers the admin paths endpoint, with
optional latency, jitter and status, so users can be tried without the real
system.

  flock serve --addr :8000 --latency 200ms --jitter 100ms
  flock run --host http://localhost:8000 --users 5 --run-time 30s`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8000", "Listen address")
	cmd.Flags().Duration("latency", 0, "Delay before every response")
	cmd.Flags().Duration("jitter", 0, "Extra random delay up to this long")
	cmd.Flags().Int("status", 200, "Status code to answer with")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := logging.New(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	addr, _ := cmd.Flags().GetString("addr")
	latency, _ := cmd.Flags().GetDuration("latency")
	jitter, _ := cmd.Flags().GetDuration("jitter")
	status, _ := cmd.Flags().GetInt("status")
	path, _ := cmd.Flags().GetString("path")

	srv, err := target.New(target.Options{
		Addr:    addr,
		Path:    path,
		Latency: latency,
		Jitter:  jitter,
		Status:  status,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
