package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBetween_DefaultIntervalBounds(t *testing.T) {
	wait := Between(DefaultWaitMin, DefaultWaitMax)

	var sawLow, sawHigh bool
	for i := 0; i < 10000; i++ {
		d := wait.Next()
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
		if d < 1500*time.Millisecond {
			sawLow = true
		}
		if d > 2500*time.Millisecond {
			sawHigh = true
		}
	}

	assert.True(t, sawLow, "expected samples in the lower quarter of the interval")
	assert.True(t, sawHigh, "expected samples in the upper quarter of the interval")
}

func TestBetween_EqualBounds(t *testing.T) {
	wait := Between(2*time.Second, 2*time.Second)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 2*time.Second, wait.Next())
	}
}

func TestBetween_SwappedBounds(t *testing.T) {
	wait := Between(3*time.Second, time.Second)

	min, max := wait.Bounds()
	assert.Equal(t, time.Second, min)
	assert.Equal(t, 3*time.Second, max)

	for i := 0; i < 1000; i++ {
		d := wait.Next()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}

func TestBetween_ClosedInterval(t *testing.T) {
	// A one nanosecond span has two possible values; both must show up.
	wait := Between(time.Second, time.Second+1)

	seen := map[time.Duration]bool{}
	for i := 0; i < 1000; i++ {
		seen[wait.Next()] = true
	}

	assert.True(t, seen[time.Second])
	assert.True(t, seen[time.Second+1])
	assert.Len(t, seen, 2)
}

func TestConstant(t *testing.T) {
	wait := Constant(500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, wait.Next())

	min, max := wait.Bounds()
	assert.Equal(t, min, max)
}
