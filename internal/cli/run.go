package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/flock/internal/swarm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run users locally without a master",
		Long: `Spawn --users simulated users at --spawn-rate users per second and keep
them running for --run-time, or until interrupted when no run time is set.

  flock run --host http://localhost:8000 --users 20 --spawn-rate 5 --run-time 1m
  flock run --config flock.yaml --json`,
		Args: cobra.NoArgs,
		RunE: runStandalone,
	}

	cmd.Flags().IntP("users", "u", 0, "Number of simulated users (default 1)")
	cmd.Flags().Float64P("spawn-rate", "r", 0, "Users started per second (default 1)")
	cmd.Flags().String("run-time", "", "Stop after this long, e.g. 30s or 5m (default until interrupted)")
	cmd.Flags().BoolP("verbose", "v", false, "Print every iteration")
	cmd.Flags().Bool("framework-stats", false, "Also print boomer's periodic statistics")

	return cmd
}

func runStandalone(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	frameworkStats, _ := cmd.Flags().GetBool("framework-stats")

	s.banner(s.runInfo(swarm.ModeStandalone))

	ctx, cancel := s.runContext(cmd.Context(), true)
	defer cancel()

	return s.runSwarm(ctx, swarm.Options{
		Mode:           swarm.ModeStandalone,
		Users:          s.cfg.Users,
		SpawnRate:      s.cfg.SpawnRate,
		FrameworkStats: frameworkStats,
	}, verbose)
}
