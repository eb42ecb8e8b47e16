// Package metrics implements the per-tool request metrics collector
// (SPEC_FULL.md §4.P): record_request increments three per-tool counters;
// queries derive count/errors/error_rate/avg_latency; export renders both a
// Prometheus-compatible text exposition and a structured JSON rollup.
// Grounded on jordigilh-kubernaut's pkg/metrics package (promauto-style
// CounterVec/HistogramVec registration, verified against its
// metrics_test.go) — the per-tool aggregate query surface (avg_latency,
// error_rate) has no library to lean on and is accumulated directly.
package metrics

import (
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type toolStats struct {
	count     uint64
	errors    uint64
	sumMicros uint64
}

// Snapshot is the per-tool queryable view record_request accumulates.
type Snapshot struct {
	Tool        string  `json:"tool"`
	Count       uint64  `json:"count"`
	Errors      uint64  `json:"errors"`
	ErrorRate   float64 `json:"error_rate"`
	AvgLatency  float64 `json:"avg_latency_us"`
}

// Collector is a self-contained metrics instance: no ambient globals, so
// multiple runtimes can coexist in one process (e.g. under test).
type Collector struct {
	mu    sync.RWMutex
	tools map[string]*toolStats
	start time.Time

	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latencyMicros  *prometheus.HistogramVec
}

// New constructs a Collector with its own private Prometheus registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_tool_requests_total",
		Help: "Total number of tool invocations.",
	}, []string{"tool"})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forge_tool_errors_total",
		Help: "Total number of failed tool invocations.",
	}, []string{"tool"})
	latencyMicros := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forge_tool_request_duration_microseconds",
		Help:    "Tool invocation latency in microseconds.",
		Buckets: prometheus.ExponentialBuckets(100, 4, 10),
	}, []string{"tool"})

	registry.MustRegister(requestsTotal, errorsTotal, latencyMicros)

	return &Collector{
		tools:         make(map[string]*toolStats),
		start:         time.Now(),
		registry:      registry,
		requestsTotal: requestsTotal,
		errorsTotal:   errorsTotal,
		latencyMicros: latencyMicros,
	}
}

// RecordRequest registers one completed tool invocation.
func (c *Collector) RecordRequest(tool string, durationUS uint64, success bool) {
	c.mu.Lock()
	stats, ok := c.tools[tool]
	if !ok {
		stats = &toolStats{}
		c.tools[tool] = stats
	}
	stats.count++
	stats.sumMicros += durationUS
	if !success {
		stats.errors++
	}
	c.mu.Unlock()

	c.requestsTotal.WithLabelValues(tool).Inc()
	if !success {
		c.errorsTotal.WithLabelValues(tool).Inc()
	}
	c.latencyMicros.WithLabelValues(tool).Observe(float64(durationUS))
}

// Snapshot returns the current aggregate for one tool.
func (c *Collector) Snapshot(tool string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return snapshotLocked(tool, c.tools[tool])
}

// Snapshots returns the current aggregate for every tool seen so far,
// sorted by tool name for deterministic export.
func (c *Collector) Snapshots() []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		out = append(out, snapshotLocked(name, c.tools[name]))
	}
	return out
}

func snapshotLocked(tool string, s *toolStats) Snapshot {
	if s == nil {
		return Snapshot{Tool: tool}
	}
	snap := Snapshot{Tool: tool, Count: s.count, Errors: s.errors}
	if s.count > 0 {
		snap.ErrorRate = float64(s.errors) / float64(s.count)
		snap.AvgLatency = float64(s.sumMicros) / float64(s.count)
	}
	return snap
}

// UptimeSeconds reports elapsed time since the Collector was constructed.
func (c *Collector) UptimeSeconds() float64 {
	return time.Since(c.start).Seconds()
}

// ExportText renders the Prometheus text exposition format (# HELP / # TYPE
// headers, compatible with common scraping schemes) by driving the
// registry's own promhttp handler against a recorder.
func (c *Collector) ExportText() (string, error) {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ExportJSON builds the structured per-tool rollup.
func (c *Collector) ExportJSON() map[string]any {
	return map[string]any{
		"uptime_seconds": c.UptimeSeconds(),
		"tools":          c.Snapshots(),
	}
}
