// Package swarm hands the simulated user to the load framework. boomer owns
// spawning, scheduling, worker coordination with a locust master and
// framework statistics; this package only supplies the task and forwards
// every outcome to it.
package swarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/myzhan/boomer"
	"go.uber.org/zap"

	"github.com/wesleyorama2/flock/internal/behavior"
	flockhttp "github.com/wesleyorama2/flock/internal/http"
)

// quitEvent is published by boomer when the run ends, including when a
// locust master tells the worker to quit.
const quitEvent = "boomer:quit"

// Mode selects how the framework is driven
type Mode string

const (
	// ModeStandalone spawns users locally.
	ModeStandalone Mode = "standalone"
	// ModeDistributed joins a locust master that drives the run.
	ModeDistributed Mode = "distributed"
)

// Framework is the subset of *boomer.Boomer used here
type Framework interface {
	Run(tasks ...*boomer.Task)
	Quit()
	RecordSuccess(requestType, name string, responseTime int64, responseLength int64)
	RecordFailure(requestType, name string, responseTime int64, exception string)
}

// Options configures a Swarm
type Options struct {
	Mode Mode

	// Standalone mode
	Users     int
	SpawnRate float64

	// Distributed mode
	MasterHost string
	MasterPort int

	// FrameworkStats prints boomer's periodic statistics table
	FrameworkStats bool
}

// NewFramework creates the boomer instance for opts
func NewFramework(opts Options) (*boomer.Boomer, error) {
	var b *boomer.Boomer
	switch opts.Mode {
	case ModeStandalone:
		if opts.Users < 1 || opts.SpawnRate <= 0 {
			return nil, fmt.Errorf("standalone mode needs users >= 1 and spawn rate > 0")
		}
		b = boomer.NewStandaloneBoomer(opts.Users, opts.SpawnRate)
	case ModeDistributed:
		if opts.MasterHost == "" || opts.MasterPort <= 0 {
			return nil, fmt.Errorf("distributed mode needs a master host and port")
		}
		b = boomer.NewBoomer(opts.MasterHost, opts.MasterPort)
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}

	if opts.FrameworkStats {
		b.AddOutput(boomer.NewConsoleOutput())
	}
	return b, nil
}

// Swarm runs one behavior under a framework
type Swarm struct {
	fw       Framework
	behavior *behavior.Behavior
	client   *flockhttp.Client
	recorder behavior.Recorder
	logger   *zap.Logger

	mu     sync.Mutex
	idle   []*behavior.User
	nextID int

	// started is closed once the framework has set itself up, either because
	// Run returned or because it called the task. boomer's Quit dereferences
	// runner state that only exists after that point.
	started   chan struct{}
	startOnce sync.Once
}

// startTimeout bounds how long shutdown waits for a framework that never
// came up.
var startTimeout = 5 * time.Second

// New creates a swarm. Outcomes go to the framework and then to local, which
// may be nil. All users share client's connection pool.
func New(fw Framework, b *behavior.Behavior, client *flockhttp.Client, local behavior.Recorder, logger *zap.Logger) *Swarm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Swarm{
		fw:       fw,
		behavior: b,
		client:   client,
		recorder: behavior.Tee(FrameworkRecorder(fw), local),
		logger:   logger,
		started:  make(chan struct{}),
	}
}

func (s *Swarm) markStarted() {
	s.startOnce.Do(func() { close(s.started) })
}

// Run starts the framework and blocks until ctx is done or the framework
// quits on its own (for example on a master's command).
func (s *Swarm) Run(ctx context.Context) error {
	quit := make(chan struct{})
	var once sync.Once
	onQuit := func() {
		once.Do(func() { close(quit) })
	}

	if err := boomer.Events.Subscribe(quitEvent, onQuit); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", quitEvent, err)
	}
	defer func() {
		_ = boomer.Events.Unsubscribe(quitEvent, onQuit)
	}()

	// Users see this context; cancelling it aborts in-flight waits and
	// requests once the run is over.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Info("starting framework",
		zap.String("task", s.behavior.TaskName),
		zap.String("path", s.behavior.Path),
		zap.String("host", s.client.BaseURL()))

	go func() {
		s.fw.Run(s.Task(runCtx))
		s.markStarted()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("stopping framework", zap.Error(context.Cause(ctx)))
		cancel()
		s.quit()
	case <-quit:
		s.logger.Info("framework quit")
		cancel()
	}

	s.client.CloseIdleConnections()
	s.logger.Info("swarm stopped", zap.Int("users", s.Users()))
	return nil
}

// quit stops the framework once it is safe to
func (s *Swarm) quit() {
	select {
	case <-s.started:
		s.fw.Quit()
	case <-time.After(startTimeout):
		s.logger.Warn("framework never started, skipping quit", zap.Duration("waited", startTimeout))
	}
}

// Task builds the single weighted task the framework runs. Every call of
// its Fn is one iteration of some user.
func (s *Swarm) Task(ctx context.Context) *boomer.Task {
	return &boomer.Task{
		Name:   s.behavior.TaskName,
		Weight: 1,
		Fn: func() {
			s.markStarted()
			s.Iterate(ctx)
		},
	}
}

// Iterate runs one iteration on an idle user, creating one if none is idle.
// A user is only ever driven by one goroutine at a time.
func (s *Swarm) Iterate(ctx context.Context) {
	u := s.acquire()
	defer s.release(u)

	if _, err := u.Iterate(ctx); err != nil {
		s.logger.Debug("iteration aborted", zap.Int("user", u.ID), zap.Error(err))
	}
}

// Users returns how many distinct users have been created
func (s *Swarm) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *Swarm) acquire() *behavior.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.idle); n > 0 {
		u := s.idle[n-1]
		s.idle = s.idle[:n-1]
		return u
	}

	s.nextID++
	s.logger.Debug("user spawned", zap.Int("user", s.nextID))
	return behavior.NewUser(s.nextID, s.behavior, s.client, s.recorder)
}

func (s *Swarm) release(u *behavior.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = append(s.idle, u)
}

// FrameworkRecorder reports outcomes through the framework's own
// success/failure calls, with response times in milliseconds.
func FrameworkRecorder(fw Framework) behavior.Recorder {
	return behavior.RecorderFunc(func(o *behavior.Outcome) {
		elapsed := o.Duration.Milliseconds()
		if o.Success() {
			fw.RecordSuccess(o.Method, o.Name, elapsed, o.Bytes)
			return
		}
		fw.RecordFailure(o.Method, o.Name, elapsed, o.Exception())
	})
}
