package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/flock/internal/behavior"
	"github.com/wesleyorama2/flock/internal/config"
	"github.com/wesleyorama2/flock/internal/logging"
	"github.com/wesleyorama2/flock/internal/output"
	"github.com/wesleyorama2/flock/internal/report"
	"github.com/wesleyorama2/flock/internal/swarm"
)

// newFramework creates the load framework for a run. Replaced in tests.
var newFramework = func(opts swarm.Options) (swarm.Framework, error) {
	return swarm.NewFramework(opts)
}

// session holds what every command sets up before driving users
type session struct {
	cfg      *config.Config
	behavior *behavior.Behavior
	logger   *zap.Logger
	console  *output.Console
	summary  *report.Summary
	out      io.Writer

	jsonOutput bool
	outputPath string
}

func newSession(cmd *cobra.Command) (*session, error) {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := logging.New(logLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()

	summary := report.NewSummary()
	logger = logger.With(zap.String("run", summary.RunID()))

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		logger.Debug("configuration loaded", zap.String("file", path))
	}

	return &session{
		cfg:        cfg,
		behavior:   cfg.Behavior(),
		logger:     logger,
		console:    output.NewConsole(out, output.UseColor(out, noColor)),
		summary:    summary,
		out:        out,
		jsonOutput: jsonOutput,
		outputPath: outputPath,
	}, nil
}

// runInfo describes the session for the console banner
func (s *session) runInfo(mode swarm.Mode) output.RunInfo {
	waitMin, waitMax := s.cfg.User.WaitBounds()
	info := output.RunInfo{
		Mode:      string(mode),
		RunID:     s.summary.RunID(),
		TargetURL: s.cfg.TargetURL(),
		Users:     s.cfg.Users,
		SpawnRate: s.cfg.SpawnRate,
		RunTime:   s.cfg.RunTime.Std(),
		WaitMin:   waitMin,
		WaitMax:   waitMax,
		Timeout:   s.cfg.User.Timeout.Std(),
	}
	if mode == swarm.ModeDistributed {
		info.Master = fmt.Sprintf("%s:%d", s.cfg.Master.Host, s.cfg.Master.Port)
	}
	return info
}

// banner prints the run header unless the report goes to stdout as JSON
func (s *session) banner(info output.RunInfo) {
	if !s.jsonOutput {
		s.console.PrintBanner(info)
	}
}

// runContext returns a context cancelled on SIGINT/SIGTERM and, when runTime is
// positive, after runTime.
func (s *session) runContext(parent context.Context, runTime bool) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if !runTime || s.cfg.RunTime <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTime.Std())
	return ctx, func() {
		cancel()
		stop()
	}
}

// finish stops the summary and writes the final report
func (s *session) finish() error {
	s.summary.Stop()
	snap := s.summary.Snapshot()

	s.logger.Info("run finished",
		zap.Int64("requests", snap.Totals.Requests),
		zap.Int64("failures", snap.Totals.Failures),
		zap.Duration("elapsed", snap.Elapsed))

	if s.outputPath != "" {
		if err := output.WriteJSONFile(s.outputPath, snap); err != nil {
			return err
		}
		s.logger.Info("report written", zap.String("file", s.outputPath))
	}

	if s.jsonOutput {
		return output.WriteJSON(s.out, snap)
	}

	s.console.PrintSummary(snap)
	return nil
}

// runSwarm drives the behavior through the framework until the context ends
// or the framework quits.
func (s *session) runSwarm(ctx context.Context, opts swarm.Options, verbose bool) error {
	fw, err := newFramework(opts)
	if err != nil {
		return err
	}

	var local behavior.Recorder = s.summary
	if verbose && !s.jsonOutput {
		local = behavior.Tee(s.summary, s.console)
	}

	client := s.behavior.NewClient(s.cfg.Host)
	sw := swarm.New(fw, s.behavior, client, local, s.logger)

	if err := sw.Run(ctx); err != nil {
		return fmt.Errorf("error running swarm: %w", err)
	}
	return s.finish()
}
