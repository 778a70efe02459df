package behavior

import (
	"math/rand/v2"
	"time"
)

// WaitTime decides how long a user waits before its next request.
// Implementations must be safe for concurrent use.
type WaitTime interface {
	Next() time.Duration
}

// Interval is a WaitTime with known bounds
type Interval interface {
	WaitTime
	Bounds() (min, max time.Duration)
}

type between struct {
	min, max time.Duration
}

// Between returns a WaitTime drawn uniformly from the closed interval
// [min, max] at nanosecond resolution. Bounds given in the wrong order are
// swapped.
func Between(min, max time.Duration) Interval {
	if max < min {
		min, max = max, min
	}
	return between{min: min, max: max}
}

func (b between) Next() time.Duration {
	span := int64(b.max - b.min)
	if span <= 0 {
		return b.min
	}
	return b.min + time.Duration(rand.Int64N(span+1))
}

func (b between) Bounds() (time.Duration, time.Duration) {
	return b.min, b.max
}

type constant time.Duration

// Constant returns a WaitTime that always waits d
func Constant(d time.Duration) Interval {
	return constant(d)
}

func (c constant) Next() time.Duration {
	return time.Duration(c)
}

func (c constant) Bounds() (time.Duration, time.Duration) {
	return time.Duration(c), time.Duration(c)
}
