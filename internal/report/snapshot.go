package report

import (
	"encoding/json"
	"time"
)

// Snapshot is a point-in-time, JSON-serialisable view of a Summary
type Snapshot struct {
	RunID          string         `json:"runId"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        time.Time      `json:"endTime"`
	Elapsed        time.Duration  `json:"-"`
	ElapsedSeconds float64        `json:"elapsedSeconds"`
	Totals         RequestStats   `json:"totals"`
	Requests       []RequestStats `json:"requests"`
}

// RequestStats aggregates every outcome recorded under one method and name
type RequestStats struct {
	Method         string           `json:"method,omitempty"`
	Name           string           `json:"name"`
	Requests       int64            `json:"requests"`
	Failures       int64            `json:"failures"`
	FailureRate    float64          `json:"failureRate"`
	RPS            float64          `json:"rps"`
	Bytes          int64            `json:"bytes"`
	Latency        LatencyStats     `json:"latency"`
	FailuresByKind map[string]int64 `json:"failuresByKind,omitempty"`
	Errors         []ErrorCount     `json:"errors,omitempty"`
}

// LatencyStats holds latency percentiles. Serialised in milliseconds.
type LatencyStats struct {
	Min  time.Duration
	Mean time.Duration
	Max  time.Duration
	P50  time.Duration
	P90  time.Duration
	P95  time.Duration
	P99  time.Duration
}

// MarshalJSON renders every field as fractional milliseconds
func (l LatencyStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]float64{
		"minMs":  ms(l.Min),
		"meanMs": ms(l.Mean),
		"maxMs":  ms(l.Max),
		"p50Ms":  ms(l.P50),
		"p90Ms":  ms(l.P90),
		"p95Ms":  ms(l.P95),
		"p99Ms":  ms(l.P99),
	})
}

// ErrorCount is one distinct failure message and how often it occurred
type ErrorCount struct {
	Error string `json:"error"`
	Count int64  `json:"count"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
