package client

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// latencySampleCap bounds the latency ring so long-lived clients do not
// grow without limit.
const latencySampleCap = 1024

// Metrics collects in-process counters for bridge calls. A disabled or
// nil Metrics records nothing.
type Metrics struct {
	mu      sync.RWMutex
	enabled bool

	// Counters
	calls   int64
	retries int64

	// Failure tracking
	failures         map[Kind]int64
	toolExecFailures int64
	aborted          int64

	// Latency ring
	latencies []time.Duration
	next      int

	// Per-tool metrics
	toolStats map[string]ToolStats
}

// ToolStats tracks metrics for an individual tool.
type ToolStats struct {
	Calls        int64
	Failures     int64
	TotalLatency time.Duration
}

// NewMetrics creates a metrics collector.
func NewMetrics(enabled bool) *Metrics {
	return &Metrics{
		enabled:   enabled,
		failures:  make(map[Kind]int64),
		latencies: make([]time.Duration, 0, latencySampleCap),
		toolStats: make(map[string]ToolStats),
	}
}

// RecordCall records one logical tool call: its duration, how many
// attempts it took, and its final error, if any.
func (m *Metrics) RecordCall(tool string, duration time.Duration, attempts int, err error) {
	if m == nil || !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if attempts > 1 {
		m.retries += int64(attempts - 1)
	}

	if len(m.latencies) < latencySampleCap {
		m.latencies = append(m.latencies, duration)
	} else {
		m.latencies[m.next] = duration
		m.next = (m.next + 1) % latencySampleCap
	}

	stats := m.toolStats[tool]
	stats.Calls++
	stats.TotalLatency += duration
	if err != nil {
		stats.Failures++
		m.recordFailureLocked(err)
	}
	m.toolStats[tool] = stats
}

func (m *Metrics) recordFailureLocked(err error) {
	var execErr *ToolExecutionError
	if errors.As(err, &execErr) {
		m.toolExecFailures++
		return
	}

	var bridgeErr *BridgeError
	if errors.As(err, &bridgeErr) {
		m.failures[bridgeErr.Kind]++
		return
	}

	// cancellations and rate limit rejections land here
	m.aborted++
}

// MetricsSummary is a point-in-time snapshot of collected call metrics.
type MetricsSummary struct {
	Calls        int64                `json:"calls"`
	Retries      int64                `json:"retries"`
	Failures     map[Kind]int64       `json:"failures"`
	ToolFailures int64                `json:"tool_failures"`
	Aborted      int64                `json:"aborted"`
	ToolStats    map[string]ToolStats `json:"tool_stats"`
	Latency      LatencyPercentiles   `json:"latency"`
}

// LatencyPercentiles represents latency percentiles.
type LatencyPercentiles struct {
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// Summary returns a snapshot of collected metrics.
func (m *Metrics) Summary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[Kind]int64, len(m.failures))
	for k, v := range m.failures {
		failures[k] = v
	}
	toolStats := make(map[string]ToolStats, len(m.toolStats))
	for k, v := range m.toolStats {
		toolStats[k] = v
	}

	return MetricsSummary{
		Calls:        m.calls,
		Retries:      m.retries,
		Failures:     failures,
		ToolFailures: m.toolExecFailures,
		Aborted:      m.aborted,
		ToolStats:    toolStats,
		Latency:      calculatePercentiles(m.latencies),
	}
}

// calculatePercentiles calculates p50, p95, p99 latencies.
func calculatePercentiles(latencies []time.Duration) LatencyPercentiles {
	if len(latencies) == 0 {
		return LatencyPercentiles{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyPercentiles{
		P50: sorted[len(sorted)*50/100],
		P95: sorted[len(sorted)*95/100],
		P99: sorted[len(sorted)*99/100],
	}
}

// Reset clears all collected metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = 0
	m.retries = 0
	m.toolExecFailures = 0
	m.aborted = 0
	m.failures = make(map[Kind]int64)
	m.latencies = m.latencies[:0]
	m.next = 0
	m.toolStats = make(map[string]ToolStats)
}
