package behavior

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureNone},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"wrapped deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, FailureTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, FailureTimeout},
		{"refused", &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}, FailureConnection},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}, FailureConnection},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), FailureConnection},
		{"eof", &url.Error{Op: "Get", URL: "http://x", Err: io.EOF}, FailureConnection},
		{"status", fmt.Errorf("%w: 500", ErrUnexpectedStatus), FailureStatus},
		{"other", errors.New("boom"), FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestOutcome_Exception(t *testing.T) {
	ok := &Outcome{}
	assert.True(t, ok.Success())
	assert.Empty(t, ok.Exception())

	failed := &Outcome{Err: context.DeadlineExceeded, Kind: FailureTimeout}
	assert.False(t, failed.Success())
	assert.Equal(t, "timeout: context deadline exceeded", failed.Exception())
}

func TestTee(t *testing.T) {
	var a, b int
	rec := Tee(
		RecorderFunc(func(o *Outcome) { a++ }),
		nil,
		RecorderFunc(func(o *Outcome) { b++ }),
	)

	rec.Record(&Outcome{})
	rec.Record(&Outcome{})

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}
