package behavior

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

// FailureKind classifies why an iteration failed
type FailureKind string

const (
	// FailureNone marks a successful iteration.
	FailureNone FailureKind = ""
	// FailureTimeout means no response arrived within the request or
	// network timeout.
	FailureTimeout FailureKind = "timeout"
	// FailureConnection means the connection could not be established or
	// was dropped.
	FailureConnection FailureKind = "connection"
	// FailureStatus means a response arrived with a status outside the
	// expected set. Only reported when expected statuses are configured.
	FailureStatus FailureKind = "status"
	// FailureOther covers everything else.
	FailureOther FailureKind = "other"
)

// ErrUnexpectedStatus is wrapped by status failures
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Outcome is the result of one iteration
type Outcome struct {
	UserID     int
	Iteration  int64
	Name       string
	Method     string
	Wait       time.Duration
	Start      time.Time
	Duration   time.Duration
	StatusCode int
	Bytes      int64
	Err        error
	Kind       FailureKind
}

// Success reports whether the iteration is recorded as successful
func (o *Outcome) Success() bool {
	return o.Err == nil
}

// Exception renders the failure the way load frameworks expect it: a single
// line prefixed by the failure kind.
func (o *Outcome) Exception() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", o.Kind, o.Err)
}

// Classify maps a request error to a FailureKind
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	if errors.Is(err, ErrUnexpectedStatus) {
		return FailureStatus
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return FailureConnection
	}

	return FailureOther
}

// Recorder is the failure-tracking collaborator a user reports every
// completed iteration to. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(o *Outcome)
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(o *Outcome)

// Record calls f(o)
func (f RecorderFunc) Record(o *Outcome) {
	f(o)
}

// Tee fans each outcome out to every recorder in order
func Tee(recorders ...Recorder) Recorder {
	return tee(recorders)
}

type tee []Recorder

func (t tee) Record(o *Outcome) {
	for _, r := range t {
		if r != nil {
			r.Record(o)
		}
	}
}
