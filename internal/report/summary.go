// Package report aggregates the outcomes of a run into an end-of-run summary
// using HDR histograms for latency percentiles.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"

	"github.com/wesleyorama2/flock/internal/behavior"
)

const (
	// Histogram range: 1 microsecond to 1 hour, 3 significant figures
	histogramMin     = 1
	histogramMax     = int64(time.Hour / time.Microsecond)
	histogramSigFigs = 3

	// maxDistinctErrors caps the error table per request name
	maxDistinctErrors = 50
)

// Summary is a behavior.Recorder that keeps per-request latency histograms
// and failure counts.
//
// # Thread Safety
//
// Summary is safe for concurrent use. HDR histograms are not, so every
// update holds the summary's mutex.
type Summary struct {
	runID string
	start time.Time

	mu      sync.Mutex
	end     time.Time
	total   *entry
	entries map[string]*entry
}

type entry struct {
	method   string
	name     string
	hist     *hdrhistogram.Histogram
	requests int64
	failures int64
	bytes    int64
	byKind   map[behavior.FailureKind]int64
	errors   map[string]int64
}

func newEntry(method, name string) *entry {
	return &entry{
		method: method,
		name:   name,
		hist:   hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		byKind: make(map[behavior.FailureKind]int64),
		errors: make(map[string]int64),
	}
}

// NewSummary starts a summary with a fresh run ID
func NewSummary() *Summary {
	return &Summary{
		runID:   uuid.NewString(),
		start:   time.Now(),
		total:   newEntry("", "Aggregated"),
		entries: make(map[string]*entry),
	}
}

// RunID identifies this run in reports
func (s *Summary) RunID() string {
	return s.runID
}

// Record implements behavior.Recorder
func (s *Summary) Record(o *behavior.Outcome) {
	latency := o.Duration.Microseconds()
	if latency < histogramMin {
		latency = histogramMin
	}
	if latency > histogramMax {
		latency = histogramMax
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := o.Method + " " + o.Name
	e, ok := s.entries[key]
	if !ok {
		e = newEntry(o.Method, o.Name)
		s.entries[key] = e
	}

	for _, target := range []*entry{e, s.total} {
		_ = target.hist.RecordValue(latency)
		target.requests++
		target.bytes += o.Bytes
		if !o.Success() {
			target.failures++
			target.byKind[o.Kind]++
			msg := o.Exception()
			if _, seen := target.errors[msg]; seen || len(target.errors) < maxDistinctErrors {
				target.errors[msg]++
			}
		}
	}
}

// Stop freezes the run's end time. Outcomes recorded afterwards still count.
func (s *Summary) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end.IsZero() {
		s.end = time.Now()
	}
}

// Snapshot returns the current state of the summary
func (s *Summary) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.end
	if end.IsZero() {
		end = time.Now()
	}
	elapsed := end.Sub(s.start)

	snap := &Snapshot{
		RunID:          s.runID,
		StartTime:      s.start,
		EndTime:        end,
		Elapsed:        elapsed,
		ElapsedSeconds: elapsed.Seconds(),
		Totals:         s.total.stats(elapsed),
		Requests:       make([]RequestStats, 0, len(s.entries)),
	}

	for _, e := range s.entries {
		snap.Requests = append(snap.Requests, e.stats(elapsed))
	}
	sort.Slice(snap.Requests, func(i, j int) bool {
		if snap.Requests[i].Name != snap.Requests[j].Name {
			return snap.Requests[i].Name < snap.Requests[j].Name
		}
		return snap.Requests[i].Method < snap.Requests[j].Method
	})

	return snap
}

func (e *entry) stats(elapsed time.Duration) RequestStats {
	rs := RequestStats{
		Method:   e.method,
		Name:     e.name,
		Requests: e.requests,
		Failures: e.failures,
		Bytes:    e.bytes,
	}

	if e.requests > 0 {
		rs.FailureRate = float64(e.failures) / float64(e.requests)
		rs.Latency = LatencyStats{
			Min:  micros(e.hist.Min()),
			Mean: time.Duration(e.hist.Mean() * float64(time.Microsecond)),
			Max:  micros(e.hist.Max()),
			P50:  micros(e.hist.ValueAtQuantile(50)),
			P90:  micros(e.hist.ValueAtQuantile(90)),
			P95:  micros(e.hist.ValueAtQuantile(95)),
			P99:  micros(e.hist.ValueAtQuantile(99)),
		}
	}
	if elapsed > 0 {
		rs.RPS = float64(e.requests) / elapsed.Seconds()
	}

	if len(e.byKind) > 0 {
		rs.FailuresByKind = make(map[string]int64, len(e.byKind))
		for kind, n := range e.byKind {
			rs.FailuresByKind[string(kind)] = n
		}
	}

	for msg, n := range e.errors {
		rs.Errors = append(rs.Errors, ErrorCount{Error: msg, Count: n})
	}
	sort.Slice(rs.Errors, func(i, j int) bool {
		if rs.Errors[i].Count != rs.Errors[j].Count {
			return rs.Errors[i].Count > rs.Errors[j].Count
		}
		return rs.Errors[i].Error < rs.Errors[j].Error
	})

	return rs
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
