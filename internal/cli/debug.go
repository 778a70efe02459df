package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/flock/internal/behavior"
	"github.com/wesleyorama2/flock/internal/swarm"
)

func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Run users directly, without the load framework",
		Long: `Run the user loop in this process with no framework scheduling, printing
every iteration. Useful to check the target and timings before a real run.

  flock debug --host http://localhost:8000 --iterations 5
  flock debug --host http://localhost:8000 --users 3`,
		Args: cobra.NoArgs,
		RunE: runDebug,
	}

	cmd.Flags().IntP("users", "u", 1, "Number of users to run side by side")
	cmd.Flags().Int64P("iterations", "n", 0, "Iterations per user (default until interrupted)")

	return cmd
}

func runDebug(cmd *cobra.Command, args []string) error {
	users, _ := cmd.Flags().GetInt("users")
	iterations, _ := cmd.Flags().GetInt64("iterations")
	if users < 1 {
		return fmt.Errorf("--users must be at least 1")
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	info := s.runInfo(swarm.Mode("debug"))
	info.Users = users
	info.SpawnRate = float64(users)
	info.RunTime = 0
	s.banner(info)

	ctx, cancel := s.runContext(cmd.Context(), false)
	defer cancel()

	var recorder behavior.Recorder = s.summary
	if !s.jsonOutput {
		recorder = behavior.Tee(s.summary, s.console)
	}

	client := s.behavior.NewClient(s.cfg.Host)
	defer client.CloseIdleConnections()

	g, gctx := errgroup.WithContext(ctx)
	for id := 1; id <= users; id++ {
		u := behavior.NewUser(id, s.behavior, client, recorder)
		g.Go(func() error {
			s.logger.Debug("user started", zap.Int("user", u.ID))
			err := u.RunIterations(gctx, iterations)
			s.logger.Debug("user stopped", zap.Int("user", u.ID), zap.Int64("iterations", u.Iterations()))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return s.finish()
}
