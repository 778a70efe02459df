// Package output renders run banners, per-iteration lines and end-of-run
// summaries to the console, and writes JSON reports.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/flock/internal/behavior"
	"github.com/wesleyorama2/flock/internal/report"
)

const ruleWidth = 72

// RunInfo describes a run for the banner
type RunInfo struct {
	Mode      string
	RunID     string
	TargetURL string
	Users     int
	SpawnRate float64
	RunTime   time.Duration
	WaitMin   time.Duration
	WaitMax   time.Duration
	Timeout   time.Duration
	Master    string
}

// Console writes human-readable output. It is safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	colors *ColorScheme
}

// NewConsole creates a console writing to w
func NewConsole(w io.Writer, useColor bool) *Console {
	colors := DefaultColorScheme()
	if !useColor {
		colors = NoColorScheme()
	}
	return &Console{w: w, colors: colors}
}

// PrintBanner prints the run header
func (c *Console) PrintBanner(info RunInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("━", ruleWidth)
	fmt.Fprintln(c.w, c.colors.Title.Sprint(rule))
	fmt.Fprintf(c.w, "%s %s\n", c.colors.Title.Sprint("flock"), c.colors.Dim.Sprintf("[%s]", info.Mode))
	fmt.Fprintln(c.w, c.colors.Title.Sprint(rule))

	c.field("Run ID", info.RunID)
	c.field("Target", c.colors.Method.Sprint("GET")+" "+c.colors.URL.Sprint(info.TargetURL))
	if info.Master != "" {
		c.field("Master", info.Master)
	} else {
		c.field("Users", fmt.Sprintf("%d (spawn rate %g/s)", info.Users, info.SpawnRate))
		runTime := "until interrupted"
		if info.RunTime > 0 {
			runTime = info.RunTime.String()
		}
		c.field("Run time", runTime)
	}
	c.field("Wait", fmt.Sprintf("%s - %s", info.WaitMin, info.WaitMax))
	c.field("Timeout", info.Timeout.String())
	fmt.Fprintln(c.w)
}

func (c *Console) field(label, value string) {
	fmt.Fprintf(c.w, "  %s %s\n", c.colors.Label.Sprintf("%-9s", label+":"), value)
}

// Record implements behavior.Recorder by printing one line per outcome
func (c *Console) Record(o *behavior.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	icon := c.colors.SuccessIcon()
	detail := fmt.Sprintf("%d", o.StatusCode)
	if !o.Success() {
		icon = c.colors.ErrorIcon()
		detail = c.colors.Error.Sprint(o.Exception())
	}

	fmt.Fprintf(c.w, "%s user %d #%d %s %s waited %s took %s %s\n",
		icon, o.UserID, o.Iteration,
		c.colors.Method.Sprint(o.Method), o.Name,
		o.Wait.Round(time.Millisecond), o.Duration.Round(time.Millisecond), detail)
}

// PrintSummary prints the end-of-run summary table
func (c *Console) PrintSummary(snap *report.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("━", ruleWidth)
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.colors.Title.Sprint(rule))
	fmt.Fprintf(c.w, "%s %s\n", c.colors.Title.Sprint("Summary"),
		c.colors.Dim.Sprintf("(%s, run %s)", snap.Elapsed.Round(time.Millisecond), snap.RunID))
	fmt.Fprintln(c.w, c.colors.Title.Sprint(rule))

	if snap.Totals.Requests == 0 {
		fmt.Fprintln(c.w, c.colors.Warn.Sprint("No requests completed"))
		return
	}

	header := fmt.Sprintf("%-6s %-24s %8s %8s %9s %9s %9s %9s %8s",
		"Method", "Name", "Reqs", "Fails", "Avg", "p50", "p95", "p99", "RPS")
	fmt.Fprintln(c.w, c.colors.Label.Sprint(header))

	for _, rs := range snap.Requests {
		c.row(rs)
	}
	if len(snap.Requests) > 1 {
		c.row(snap.Totals)
	}

	c.failures(snap.Totals)
}

func (c *Console) row(rs report.RequestStats) {
	fails := fmt.Sprintf("%8d", rs.Failures)
	if rs.Failures > 0 {
		fails = c.colors.Error.Sprint(fails)
	} else {
		fails = c.colors.Success.Sprint(fails)
	}

	fmt.Fprintf(c.w, "%-6s %-24s %8d %s %9s %9s %9s %9s %8.2f\n",
		rs.Method, truncate(rs.Name, 24), rs.Requests, fails,
		formatLatency(rs.Latency.Mean), formatLatency(rs.Latency.P50),
		formatLatency(rs.Latency.P95), formatLatency(rs.Latency.P99), rs.RPS)
}

func (c *Console) failures(rs report.RequestStats) {
	if rs.Failures == 0 {
		return
	}

	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "%s %d of %d (%.1f%%)\n", c.colors.Error.Sprint("Failures:"),
		rs.Failures, rs.Requests, rs.FailureRate*100)

	kinds := make([]string, 0, len(rs.FailuresByKind))
	for kind := range rs.FailuresByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(c.w, "  %-12s %d\n", kind, rs.FailuresByKind[kind])
	}

	for _, e := range rs.Errors {
		fmt.Fprintf(c.w, "  %s %6dx %s\n", c.colors.ErrorIcon(), e.Count, e.Error)
	}
}

func formatLatency(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
