// Metric primitives for the toolpath engine
//
// Counter, Gauge and Histogram with label sets, collected in a Registry
// that renders the Prometheus text exposition format.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType represents the type of metric
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels represents metric labels as key-value pairs
type Labels map[string]string

func (l Labels) sortedKeys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// key identifies a label set inside one metric.
func (l Labels) key() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(l[k])
	}
	return sb.String()
}

// String returns labels in Prometheus format, e.g. {stage="eject"}.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(labelEscaper.Replace(l[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

// with returns a copy of l with one extra label.
func (l Labels) with(k, v string) Labels {
	out := make(Labels, len(l)+1)
	for lk, lv := range l {
		out[lk] = lv
	}
	out[k] = v
	return out
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Metric is the interface for all metric types
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

// desc carries the identity shared by every metric type.
type desc struct {
	name string
	help string
}

func (d desc) Name() string { return d.name }
func (d desc) Help() string { return d.help }

func (d desc) writeHeader(sb *strings.Builder, t MetricType) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", d.name, d.help, d.name, t)
}

// writeSample writes one sample line.
func writeSample(sb *strings.Builder, name string, labels Labels, value string) {
	sb.WriteString(name)
	sb.WriteString(labels.String())
	sb.WriteByte(' ')
	sb.WriteString(value)
	sb.WriteByte('\n')
}

// series holds the per-label-set values of a metric, emitted in the order
// the label sets were first seen.
type series struct {
	mu    sync.Mutex
	byKey map[string]interface{}
	order []string
}

func (s *series) load(labels Labels, create func() interface{}) interface{} {
	k := labels.key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.byKey[k]; ok {
		return v
	}
	if create == nil {
		return nil
	}
	if s.byKey == nil {
		s.byKey = make(map[string]interface{})
	}
	v := create()
	s.byKey[k] = v
	s.order = append(s.order, k)
	return v
}

func (s *series) each(fn func(v interface{})) {
	s.mu.Lock()
	vals := make([]interface{}, len(s.order))
	for i, k := range s.order {
		vals[i] = s.byKey[k]
	}
	s.mu.Unlock()
	for _, v := range vals {
		fn(v)
	}
}

// Counter is a monotonically increasing metric
type Counter struct {
	desc
	values series
}

type counterValue struct {
	labels Labels
	value  uint64
}

// NewCounter creates a new counter metric
func NewCounter(name, help string) *Counter {
	return &Counter{desc: desc{name, help}}
}

func (c *Counter) Type() MetricType { return TypeCounter }

// Inc increments the counter by 1
func (c *Counter) Inc(labels Labels) { c.Add(labels, 1) }

// Add increments the counter by delta
func (c *Counter) Add(labels Labels, delta uint64) {
	cv := c.values.load(labels, func() interface{} { return &counterValue{labels: labels} }).(*counterValue)
	atomic.AddUint64(&cv.value, delta)
}

// Get returns the current counter value for labels
func (c *Counter) Get(labels Labels) uint64 {
	v := c.values.load(labels, nil)
	if v == nil {
		return 0
	}
	return atomic.LoadUint64(&v.(*counterValue).value)
}

func (c *Counter) Write(sb *strings.Builder) {
	c.writeHeader(sb, TypeCounter)
	c.values.each(func(v interface{}) {
		cv := v.(*counterValue)
		writeSample(sb, c.name, cv.labels, strconv.FormatUint(atomic.LoadUint64(&cv.value), 10))
	})
}

// Gauge is a metric that can go up and down
type Gauge struct {
	desc
	values series
}

type gaugeValue struct {
	mu     sync.Mutex
	labels Labels
	value  float64
}

// NewGauge creates a new gauge metric
func NewGauge(name, help string) *Gauge {
	return &Gauge{desc: desc{name, help}}
}

func (g *Gauge) Type() MetricType { return TypeGauge }

func (g *Gauge) value(labels Labels) *gaugeValue {
	return g.values.load(labels, func() interface{} { return &gaugeValue{labels: labels} }).(*gaugeValue)
}

// Set sets the gauge to value
func (g *Gauge) Set(labels Labels, value float64) {
	gv := g.value(labels)
	gv.mu.Lock()
	gv.value = value
	gv.mu.Unlock()
}

// Add adds delta to the gauge
func (g *Gauge) Add(labels Labels, delta float64) {
	gv := g.value(labels)
	gv.mu.Lock()
	gv.value += delta
	gv.mu.Unlock()
}

// Inc increments the gauge by 1
func (g *Gauge) Inc(labels Labels) { g.Add(labels, 1) }

// Dec decrements the gauge by 1
func (g *Gauge) Dec(labels Labels) { g.Add(labels, -1) }

// Get returns the current gauge value for labels
func (g *Gauge) Get(labels Labels) float64 {
	v := g.values.load(labels, nil)
	if v == nil {
		return 0
	}
	gv := v.(*gaugeValue)
	gv.mu.Lock()
	defer gv.mu.Unlock()
	return gv.value
}

func (g *Gauge) Write(sb *strings.Builder) {
	g.writeHeader(sb, TypeGauge)
	g.values.each(func(v interface{}) {
		gv := v.(*gaugeValue)
		gv.mu.Lock()
		val := gv.value
		gv.mu.Unlock()
		writeSample(sb, g.name, gv.labels, formatFloat(val))
	})
}

// Histogram tracks the distribution of observations
type Histogram struct {
	desc
	buckets []float64
	values  series
}

type histogramValue struct {
	mu     sync.Mutex
	labels Labels
	count  uint64
	sum    float64
	counts []uint64 // per bucket, not cumulative
}

// NewHistogram creates a new histogram metric with the given upper bounds.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)
	return &Histogram{desc: desc{name, help}, buckets: sorted}
}

// DefaultBuckets returns latency buckets in seconds, tuned for work that
// takes microseconds to a few seconds.
func DefaultBuckets() []float64 {
	return []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
}

// ExponentialBuckets creates count buckets starting at start with factor multiplier
func ExponentialBuckets(start, factor float64, count int) []float64 {
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start
		start *= factor
	}
	return buckets
}

func (h *Histogram) Type() MetricType { return TypeHistogram }

// Observe records a value in the histogram
func (h *Histogram) Observe(labels Labels, value float64) {
	hv := h.values.load(labels, func() interface{} {
		return &histogramValue{labels: labels, counts: make([]uint64, len(h.buckets))}
	}).(*histogramValue)

	hv.mu.Lock()
	hv.count++
	hv.sum += value
	if i := sort.SearchFloat64s(h.buckets, value); i < len(h.buckets) {
		hv.counts[i]++
	}
	hv.mu.Unlock()
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(labels Labels, d time.Duration) {
	h.Observe(labels, d.Seconds())
}

// HistogramSnapshot is a point-in-time copy of one label set. Buckets are
// cumulative, keyed by upper bound.
type HistogramSnapshot struct {
	Count   uint64
	Sum     float64
	Buckets map[float64]uint64
}

// Snapshot returns the values recorded for labels.
func (h *Histogram) Snapshot(labels Labels) HistogramSnapshot {
	snap := HistogramSnapshot{Buckets: make(map[float64]uint64, len(h.buckets))}
	v := h.values.load(labels, nil)
	if v == nil {
		return snap
	}
	hv := v.(*histogramValue)
	hv.mu.Lock()
	defer hv.mu.Unlock()
	snap.Count, snap.Sum = hv.count, hv.sum
	cumulative := uint64(0)
	for i, bound := range h.buckets {
		cumulative += hv.counts[i]
		snap.Buckets[bound] = cumulative
	}
	return snap
}

func (h *Histogram) Write(sb *strings.Builder) {
	h.writeHeader(sb, TypeHistogram)
	h.values.each(func(v interface{}) {
		hv := v.(*histogramValue)
		snap := h.Snapshot(hv.labels)
		for _, bound := range h.buckets {
			writeSample(sb, h.name+"_bucket", hv.labels.with("le", formatFloat(bound)),
				strconv.FormatUint(snap.Buckets[bound], 10))
		}
		writeSample(sb, h.name+"_bucket", hv.labels.with("le", "+Inf"), strconv.FormatUint(snap.Count, 10))
		writeSample(sb, h.name+"_sum", hv.labels, formatFloat(snap.Sum))
		writeSample(sb, h.name+"_count", hv.labels, strconv.FormatUint(snap.Count, 10))
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Registry holds metrics in registration order.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register adds a metric; names must be unique.
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.metrics[m.Name()]; exists {
		return fmt.Errorf("metric %q already registered", m.Name())
	}
	r.metrics[m.Name()] = m
	r.order = append(r.order, m.Name())
	return nil
}

// MustRegister adds metrics and panics on error
func (r *Registry) MustRegister(ms ...Metric) {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

// Get returns a metric by name
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather renders all metrics in Prometheus text format
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sb strings.Builder
	for _, name := range r.order {
		r.metrics[name].Write(&sb)
	}
	return sb.String()
}
