// Engine metrics definitions
//
// Counts the work the toolpath engine does: analyses, mutations, pipeline
// stages, service requests and the Go runtime it runs on.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	goruntime "runtime"
	"strconv"
	"sync"
	"time"

	"gcode-toolpath/pkg/pool"
	"gcode-toolpath/pkg/toolpath"
)

// EngineMetrics holds all engine metrics. It implements the pipeline's
// stage observer.
type EngineMetrics struct {
	// Analysis
	AnalysesTotal    *Counter
	AnalysisDuration *Histogram
	LinesAnalyzed    *Counter
	DiagnosticsTotal *Counter

	// Mutation
	MutationsTotal    *Counter
	MutationDuration  *Histogram
	LinesEmitted      *Counter
	StageDuration     *Histogram
	DirectivesApplied *Counter
	DirectivesSkipped *Counter

	// Service
	RequestsTotal   *Counter
	RequestDuration *Histogram
	WebsocketConns  *Gauge
	TemplatesStored *Gauge

	// Runtime
	Uptime     *Gauge
	Goroutines *Gauge
	HeapBytes  *Gauge
	LineBufs   *Gauge

	startTime time.Time
	registry  *Registry
}

// NewEngineMetrics creates and registers all engine metrics
func NewEngineMetrics() *EngineMetrics {
	em := &EngineMetrics{
		startTime: time.Now(),
		registry:  NewRegistry(),
	}

	em.AnalysesTotal = NewCounter("toolpath_analyses_total",
		"Total streams analyzed")
	em.AnalysisDuration = NewHistogram("toolpath_analysis_seconds",
		"Time to extract metrics and run diagnostics", DefaultBuckets())
	em.LinesAnalyzed = NewCounter("toolpath_lines_analyzed_total",
		"Total lines fed to the extractor")
	em.DiagnosticsTotal = NewCounter("toolpath_diagnostics_total",
		"Diagnostics raised by level")

	em.MutationsTotal = NewCounter("toolpath_mutations_total",
		"Total mutation pipeline runs")
	em.MutationDuration = NewHistogram("toolpath_mutation_seconds",
		"Time for a full mutation pipeline run", DefaultBuckets())
	em.LinesEmitted = NewCounter("toolpath_lines_emitted_total",
		"Total lines produced by the mutation pipeline")
	em.StageDuration = NewHistogram("toolpath_stage_seconds",
		"Time per pipeline stage", DefaultBuckets())
	em.DirectivesApplied = NewCounter("toolpath_directives_applied_total",
		"Lines rewritten or blocks inserted, by stage")
	em.DirectivesSkipped = NewCounter("toolpath_directives_skipped_total",
		"Directives without a target in the stream, by stage")

	em.RequestsTotal = NewCounter("toolpath_requests_total",
		"Service requests by method and status")
	em.RequestDuration = NewHistogram("toolpath_request_seconds",
		"Service request latency", DefaultBuckets())
	em.WebsocketConns = NewGauge("toolpath_websocket_connections",
		"Open websocket connections")
	em.TemplatesStored = NewGauge("toolpath_templates_stored",
		"Templates in the library")

	em.Uptime = NewGauge("toolpath_uptime_seconds",
		"Seconds since the engine started")
	em.Goroutines = NewGauge("toolpath_go_goroutines",
		"Number of active goroutines")
	em.HeapBytes = NewGauge("toolpath_go_memory_heap_bytes",
		"Go heap memory in use")
	em.LineBufs = NewGauge("toolpath_line_buffers",
		"Line buffer pool requests by outcome")

	em.registry.MustRegister(
		em.AnalysesTotal, em.AnalysisDuration, em.LinesAnalyzed, em.DiagnosticsTotal,
		em.MutationsTotal, em.MutationDuration, em.LinesEmitted,
		em.StageDuration, em.DirectivesApplied, em.DirectivesSkipped,
		em.RequestsTotal, em.RequestDuration, em.WebsocketConns, em.TemplatesStored,
		em.Uptime, em.Goroutines, em.HeapBytes, em.LineBufs,
	)
	return em
}

// ObserveAnalysis records one analyze call over lines input lines.
func (em *EngineMetrics) ObserveAnalysis(m *toolpath.Metrics, lines int, elapsed time.Duration) {
	em.AnalysesTotal.Inc(nil)
	em.AnalysisDuration.ObserveDuration(nil, elapsed)
	em.LinesAnalyzed.Add(nil, uint64(lines))
	if m == nil {
		return
	}
	for _, w := range m.Warnings {
		em.DiagnosticsTotal.Inc(Labels{"level": w.Level.String()})
	}
}

// ObserveMutation records one pipeline run that produced lines lines.
func (em *EngineMetrics) ObserveMutation(lines int, elapsed time.Duration) {
	em.MutationsTotal.Inc(nil)
	em.MutationDuration.ObserveDuration(nil, elapsed)
	em.LinesEmitted.Add(nil, uint64(lines))
}

// ObserveStage records one pipeline stage.
func (em *EngineMetrics) ObserveStage(stage string, applied, skipped int, elapsed time.Duration) {
	l := Labels{"stage": stage}
	em.StageDuration.ObserveDuration(l, elapsed)
	if applied > 0 {
		em.DirectivesApplied.Add(l, uint64(applied))
	}
	if skipped > 0 {
		em.DirectivesSkipped.Add(l, uint64(skipped))
	}
}

// ObserveRequest records one service request.
func (em *EngineMetrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	em.RequestsTotal.Inc(Labels{"method": method, "status": strconv.Itoa(status)})
	em.RequestDuration.ObserveDuration(Labels{"method": method}, elapsed)
}

// updateRuntime refreshes the runtime gauges.
func (em *EngineMetrics) updateRuntime() {
	var m goruntime.MemStats
	goruntime.ReadMemStats(&m)
	em.Goroutines.Set(nil, float64(goruntime.NumGoroutine()))
	em.HeapBytes.Set(nil, float64(m.HeapAlloc))
	em.Uptime.Set(nil, time.Since(em.startTime).Seconds())

	st := pool.Lines.Stats()
	var reused uint64
	if st.Gets > st.Misses {
		reused = st.Gets - st.Misses
	}
	em.LineBufs.Set(Labels{"outcome": "reused"}, float64(reused))
	em.LineBufs.Set(Labels{"outcome": "allocated"}, float64(st.Misses))
}

// Gather returns all metrics in Prometheus text format
func (em *EngineMetrics) Gather() string {
	em.updateRuntime()
	return em.registry.Gather()
}

// Registry returns the internal registry
func (em *EngineMetrics) Registry() *Registry {
	return em.registry
}

var (
	globalMetrics     *EngineMetrics
	globalMetricsOnce sync.Once
)

// Global returns the process-wide engine metrics.
func Global() *EngineMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewEngineMetrics()
	})
	return globalMetrics
}
