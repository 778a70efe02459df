package behavior

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	flockhttp "github.com/wesleyorama2/flock/internal/http"
)

// State is where a user is in its loop
type State int32

const (
	// StateWaiting means the user is sleeping before its next request.
	StateWaiting State = iota
	// StateRequesting means a request is in flight.
	StateRequesting
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRequesting:
		return "requesting"
	default:
		return "unknown"
	}
}

// User is one simulated user. The load framework creates as many as it
// needs; users share nothing but the client's connection pool and the
// recorder.
type User struct {
	// ID identifies the user in outcomes
	ID int

	behavior *Behavior
	client   *flockhttp.Client
	recorder Recorder

	state      atomic.Int32
	iterations atomic.Int64
}

// NewUser creates a user. recorder may be nil.
func NewUser(id int, b *Behavior, client *flockhttp.Client, recorder Recorder) *User {
	return &User{
		ID:       id,
		behavior: b,
		client:   client,
		recorder: recorder,
	}
}

// State returns the current loop state
func (u *User) State() State {
	return State(u.state.Load())
}

// Iterations returns the number of completed iterations
func (u *User) Iterations() int64 {
	return u.iterations.Load()
}

// Iterate runs one Waiting -> Requesting -> Waiting cycle and reports the
// outcome to the recorder.
//
// A failed request is not an error: it is recorded and returned in the
// outcome. The error is non-nil only when ctx ends first, in which case
// nothing is recorded.
func (u *User) Iterate(ctx context.Context) (*Outcome, error) {
	u.state.Store(int32(StateWaiting))

	wait := u.behavior.Wait.Next()
	if err := sleep(ctx, wait); err != nil {
		return nil, err
	}

	u.state.Store(int32(StateRequesting))
	outcome := u.request(ctx)
	u.state.Store(int32(StateWaiting))

	if ctx.Err() != nil {
		return outcome, ctx.Err()
	}

	outcome.Wait = wait
	outcome.Iteration = u.iterations.Add(1)

	if u.recorder != nil {
		u.recorder.Record(outcome)
	}

	return outcome, nil
}

// Run loops until ctx is done
func (u *User) Run(ctx context.Context) error {
	return u.RunIterations(ctx, 0)
}

// RunIterations loops until ctx is done or n iterations have completed.
// n <= 0 means no limit. Shutdown through ctx is not an error.
func (u *User) RunIterations(ctx context.Context, n int64) error {
	for i := int64(0); n <= 0 || i < n; i++ {
		if _, err := u.Iterate(ctx); err != nil {
			return nil
		}
	}
	return nil
}

func (u *User) request(ctx context.Context) *Outcome {
	req := u.behavior.Request()

	outcome := &Outcome{
		UserID: u.ID,
		Name:   req.Name,
		Method: req.Method,
		Start:  time.Now(),
	}

	resp, err := u.client.Do(ctx, req)
	outcome.Duration = time.Since(outcome.Start)

	if resp != nil {
		outcome.StatusCode = resp.StatusCode
		outcome.Bytes = resp.BytesReceived
		outcome.Duration = resp.Timing.TotalTime
	}

	if err == nil && !u.behavior.statusAccepted(outcome.StatusCode) {
		err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, outcome.StatusCode)
	}

	outcome.Err = err
	outcome.Kind = Classify(err)

	return outcome
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
