package swarm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/myzhan/boomer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wesleyorama2/flock/internal/behavior"
)

type call struct {
	success      bool
	requestType  string
	name         string
	responseTime int64
	length       int64
	exception    string
}

// fakeFramework runs each task on a fixed number of goroutines until Quit,
// the way boomer's workers do.
type fakeFramework struct {
	workers int

	mu    sync.Mutex
	calls []call

	stop    chan struct{}
	wg      sync.WaitGroup
	quitted atomic.Bool
	started chan struct{}
}

func newFakeFramework(workers int) *fakeFramework {
	return &fakeFramework{
		workers: workers,
		stop:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (f *fakeFramework) Run(tasks ...*boomer.Task) {
	for i := 0; i < f.workers; i++ {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			for {
				select {
				case <-f.stop:
					return
				default:
				}
				tasks[0].Fn()
			}
		}()
	}
	close(f.started)
}

func (f *fakeFramework) Quit() {
	if f.quitted.CompareAndSwap(false, true) {
		close(f.stop)
		f.wg.Wait()
		boomer.Events.Publish(quitEvent)
	}
}

func (f *fakeFramework) RecordSuccess(requestType, name string, responseTime int64, responseLength int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{success: true, requestType: requestType, name: name, responseTime: responseTime, length: responseLength})
}

func (f *fakeFramework) RecordFailure(requestType, name string, responseTime int64, exception string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{requestType: requestType, name: name, responseTime: responseTime, exception: exception})
}

func (f *fakeFramework) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func fastBehavior() *behavior.Behavior {
	b := behavior.Default()
	b.Wait = behavior.Between(time.Millisecond, 2*time.Millisecond)
	return b
}

func TestFrameworkRecorder(t *testing.T) {
	fw := newFakeFramework(0)
	rec := FrameworkRecorder(fw)

	rec.Record(&behavior.Outcome{
		Name:       behavior.DefaultPath,
		Method:     http.MethodGet,
		Duration:   1500 * time.Millisecond,
		StatusCode: 200,
		Bytes:      42,
	})
	rec.Record(&behavior.Outcome{
		Name:     behavior.DefaultPath,
		Method:   http.MethodGet,
		Duration: 30 * time.Second,
		Err:      context.DeadlineExceeded,
		Kind:     behavior.FailureTimeout,
	})

	calls := fw.recorded()
	require.Len(t, calls, 2)

	assert.Equal(t, call{success: true, requestType: "GET", name: "/api/admin_paths/", responseTime: 1500, length: 42}, calls[0])

	assert.False(t, calls[1].success)
	assert.Equal(t, "GET", calls[1].requestType)
	assert.Equal(t, int64(30000), calls[1].responseTime)
	assert.Contains(t, calls[1].exception, "timeout")
}

func TestNewFramework_Validation(t *testing.T) {
	_, err := NewFramework(Options{Mode: ModeStandalone, Users: 0, SpawnRate: 1})
	assert.Error(t, err)

	_, err = NewFramework(Options{Mode: ModeDistributed, MasterHost: "", MasterPort: 5557})
	assert.Error(t, err)

	_, err = NewFramework(Options{Mode: "bogus"})
	assert.Error(t, err)
}

func TestSwarm_RunStopsOnContext(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	b := fastBehavior()
	fw := newFakeFramework(4)

	var local atomic.Int64
	s := New(fw, b, b.NewClient(server.URL), behavior.RecorderFunc(func(*behavior.Outcome) {
		local.Add(1)
	}), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
	assert.True(t, fw.quitted.Load())

	calls := fw.recorded()
	require.NotEmpty(t, calls)
	for _, c := range calls {
		assert.True(t, c.success)
		assert.Equal(t, "GET", c.requestType)
		assert.Equal(t, behavior.DefaultPath, c.name)
	}

	// Every framework record is mirrored locally
	assert.Equal(t, int64(len(calls)), local.Load())
	assert.LessOrEqual(t, int64(len(calls)), hits.Load())

	// One user per concurrently running worker at most
	assert.LessOrEqual(t, s.Users(), 4)
	assert.GreaterOrEqual(t, s.Users(), 1)
}

func TestSwarm_RunStopsOnFrameworkQuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	b := fastBehavior()
	fw := newFakeFramework(2)
	s := New(fw, b, b.NewClient(server.URL), nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
	}()

	<-fw.started
	time.Sleep(20 * time.Millisecond)

	// Simulates a master telling the worker to quit
	go fw.Quit()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("swarm did not stop after framework quit")
	}
}

func TestSwarm_FailuresDoNotStopTheRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	b := fastBehavior()
	b.Timeout = 10 * time.Millisecond
	fw := newFakeFramework(2)
	s := New(fw, b, b.NewClient(server.URL), nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	calls := fw.recorded()
	require.Greater(t, len(calls), 2)
	for _, c := range calls {
		assert.False(t, c.success)
		assert.Contains(t, c.exception, "timeout")
	}
}

func TestSwarm_IterateReusesIdleUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	b := fastBehavior()
	s := New(newFakeFramework(0), b, b.NewClient(server.URL), nil, nil)

	for i := 0; i < 5; i++ {
		s.Iterate(context.Background())
	}
	assert.Equal(t, 1, s.Users())
}

func TestSwarm_IterateCancelledRecordsNothing(t *testing.T) {
	b := behavior.Default()
	b.Wait = behavior.Constant(time.Hour)
	fw := newFakeFramework(0)
	s := New(fw, b, b.NewClient("http://127.0.0.1:1"), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Iterate(ctx)

	assert.Empty(t, fw.recorded())
	assert.Equal(t, 1, s.Users())
}

func TestTask(t *testing.T) {
	b := behavior.Default()
	s := New(newFakeFramework(0), b, b.NewClient("http://localhost"), nil, nil)

	task := s.Task(context.Background())
	assert.Equal(t, behavior.DefaultTaskName, task.Name)
	assert.Equal(t, 1, task.Weight)
	assert.NotNil(t, task.Fn)
}

// slowStartFramework needs time inside Run before Quit is safe, like boomer
// whose runner only exists once Run has set it up.
type slowStartFramework struct {
	*fakeFramework
	ready  atomic.Bool
	unsafe atomic.Bool
}

func (f *slowStartFramework) Run(tasks ...*boomer.Task) {
	time.Sleep(50 * time.Millisecond)
	f.ready.Store(true)
	f.fakeFramework.Run(tasks...)
}

func (f *slowStartFramework) Quit() {
	if !f.ready.Load() {
		f.unsafe.Store(true)
	}
	f.fakeFramework.Quit()
}

func TestSwarm_QuitWaitsForFrameworkStartup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	b := fastBehavior()
	fw := &slowStartFramework{fakeFramework: newFakeFramework(1)}
	s := New(fw, b, b.NewClient(server.URL), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx))
	assert.True(t, fw.quitted.Load())
	assert.False(t, fw.unsafe.Load(), "Quit called before Run finished setting up")
}

// stuckFramework never returns from Run and never calls the task
type stuckFramework struct {
	*fakeFramework
	block chan struct{}
}

func (f *stuckFramework) Run(tasks ...*boomer.Task) { <-f.block }

func TestSwarm_SkipsQuitWhenFrameworkNeverStarts(t *testing.T) {
	orig := startTimeout
	startTimeout = 50 * time.Millisecond
	defer func() { startTimeout = orig }()

	b := fastBehavior()
	fw := &stuckFramework{fakeFramework: newFakeFramework(0), block: make(chan struct{})}
	defer close(fw.block)
	s := New(fw, b, b.NewClient("http://127.0.0.1:1"), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx))
	assert.False(t, fw.quitted.Load())
}

func TestSwarm_StandaloneBoomer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	t.Run("cancelled before startup", func(t *testing.T) {
		fw, err := NewFramework(Options{Mode: ModeStandalone, Users: 2, SpawnRate: 100})
		require.NoError(t, err)

		b := fastBehavior()
		s := New(fw, b, b.NewClient(server.URL), nil, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NotPanics(t, func() {
			require.NoError(t, s.Run(ctx))
		})
	})

	t.Run("short run", func(t *testing.T) {
		fw, err := NewFramework(Options{Mode: ModeStandalone, Users: 2, SpawnRate: 100})
		require.NoError(t, err)

		var local atomic.Int64
		b := fastBehavior()
		s := New(fw, b, b.NewClient(server.URL), behavior.RecorderFunc(func(o *behavior.Outcome) {
			if o.Success() {
				local.Add(1)
			}
		}), zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		require.NoError(t, s.Run(ctx))
		assert.Greater(t, local.Load(), int64(0))
		assert.GreaterOrEqual(t, s.Users(), 1)
	})
}
