// Package behavior implements the simulated user: wait a random time, then
// send one fixed GET request, forever.
package behavior

import (
	"net/http"
	"time"

	flockhttp "github.com/wesleyorama2/flock/internal/http"
)

const (
	// DefaultTaskName is the name the task is registered under.
	DefaultTaskName = "get_admin_paths"
	// DefaultPath is the endpoint under test.
	DefaultPath = "/api/admin_paths/"
	// DefaultWaitMin is the lower bound of the wait interval.
	DefaultWaitMin = 1 * time.Second
	// DefaultWaitMax is the upper bound of the wait interval.
	DefaultWaitMax = 3 * time.Second
	// DefaultTimeout bounds each request.
	DefaultTimeout = 30 * time.Second
	// DefaultNetworkTimeout bounds dialing, TLS and the client as a whole.
	DefaultNetworkTimeout = 30 * time.Second
)

// Behavior is the fixed configuration every user of a run shares. It is
// read-only once a run starts.
type Behavior struct {
	// TaskName identifies the task to the load framework
	TaskName string

	// Method and Path of the request
	Method string
	Path   string

	// RequestName is what the request is reported under (defaults to Path)
	RequestName string

	// Wait is sampled before every request
	Wait WaitTime

	// Timeout bounds a single request
	Timeout time.Duration

	// NetworkTimeout bounds connection setup and the client overall
	NetworkTimeout time.Duration

	// ExpectStatus, when non-empty, turns any other status into a failure.
	// Empty means any response within the timeout is a success.
	ExpectStatus []int
}

// Default returns the admin paths behavior: wait 1-3s, GET
// /api/admin_paths/ with a 30s timeout.
func Default() *Behavior {
	return &Behavior{
		TaskName:       DefaultTaskName,
		Method:         http.MethodGet,
		Path:           DefaultPath,
		RequestName:    DefaultPath,
		Wait:           Between(DefaultWaitMin, DefaultWaitMax),
		Timeout:        DefaultTimeout,
		NetworkTimeout: DefaultNetworkTimeout,
	}
}

// Request builds the request sent on every iteration
func (b *Behavior) Request() *flockhttp.Request {
	req := flockhttp.NewRequest(b.Method, b.Path)
	if b.RequestName != "" {
		req.WithName(b.RequestName)
	}
	return req
}

// NewClient builds a request client for host with this behavior's timeouts
func (b *Behavior) NewClient(host string, options ...flockhttp.ClientOption) *flockhttp.Client {
	opts := []flockhttp.ClientOption{
		flockhttp.WithBaseURL(host),
		flockhttp.WithTimeout(b.Timeout),
		flockhttp.WithNetworkTimeout(b.NetworkTimeout),
	}
	return flockhttp.NewClient(append(opts, options...)...)
}

func (b *Behavior) statusAccepted(code int) bool {
	if len(b.ExpectStatus) == 0 {
		return true
	}
	for _, s := range b.ExpectStatus {
		if s == code {
			return true
		}
	}
	return false
}
