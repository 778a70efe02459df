package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/flock/internal/swarm"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Join a locust master as a worker",
		Long: `Connect to a locust master and run users whenever the master starts a
swarm. User count, spawn rate and run time are controlled by the master; the
worker exits when the master tells it to quit or on interrupt.

  flock worker --host http://localhost:8000 --master-host 10.0.0.5 --master-port 5557`,
		Args: cobra.NoArgs,
		RunE: runWorker,
	}

	cmd.Flags().String("master-host", "", "Locust master host (default 127.0.0.1)")
	cmd.Flags().Int("master-port", 0, "Locust master port (default 5557)")
	cmd.Flags().BoolP("verbose", "v", false, "Print every iteration")
	cmd.Flags().Bool("framework-stats", false, "Also print boomer's periodic statistics")

	return cmd
}

func runWorker(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	frameworkStats, _ := cmd.Flags().GetBool("framework-stats")

	s.banner(s.runInfo(swarm.ModeDistributed))

	ctx, cancel := s.runContext(cmd.Context(), false)
	defer cancel()

	return s.runSwarm(ctx, swarm.Options{
		Mode:           swarm.ModeDistributed,
		MasterHost:     s.cfg.Master.Host,
		MasterPort:     s.cfg.Master.Port,
		FrameworkStats: frameworkStats,
	}, verbose)
}
