// Package mutate rewrites a G-code stream according to caller directives:
// per-line rewrites, layer pauses and injections, line injections and an
// appended eject block.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package mutate

import (
	"strings"
	"time"

	"gcode-toolpath/pkg/config"
	"gcode-toolpath/pkg/eject"
	"gcode-toolpath/pkg/log"
	"gcode-toolpath/pkg/toolpath"
)

// StageKind tells what a stage may do to the line array.
type StageKind int

const (
	// KindRewrite changes line content only, never the count.
	KindRewrite StageKind = iota

	// KindSplice inserts blocks at computed indices.
	KindSplice

	// KindAppend adds lines at the end of the stream.
	KindAppend
)

func (k StageKind) String() string {
	switch k {
	case KindRewrite:
		return "rewrite"
	case KindSplice:
		return "splice"
	case KindAppend:
		return "append"
	}
	return "unknown"
}

// Stage is one step of the pipeline. Run returns the new line array and
// counts what it did on res.
type Stage struct {
	Name string
	Kind StageKind
	Run  func(lines []string, res *Result) []string
}

// StageReport summarises one stage run.
type StageReport struct {
	Name     string        `json:"name"`
	Kind     string        `json:"kind"`
	Applied  int           `json:"applied"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"durationNs"`
}

// Skip records a directive that had no target in the stream.
type Skip struct {
	Directive string `json:"directive"`
	Reason    string `json:"reason"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Text   string        `json:"text"`
	Lines  int           `json:"lines"`
	Stages []StageReport `json:"stages"`
	Skips  []Skip        `json:"skipped,omitempty"`

	stageApplied int
}

// Applied returns the number of directives applied by all splice and
// append stages.
func (r *Result) Applied() int {
	n := 0
	for _, s := range r.Stages {
		if s.Kind != KindRewrite.String() {
			n += s.Applied
		}
	}
	return n
}

func (r *Result) skip(directive, reason string) {
	r.Skips = append(r.Skips, Skip{Directive: directive, Reason: reason})
}

func (r *Result) apply(n int) { r.stageApplied += n }

// Observer receives per-stage timings, e.g. for metrics.
type Observer interface {
	ObserveStage(stage string, applied, skipped int, elapsed time.Duration)
}

// Option configures a pipeline run.
type Option func(*options)

type options struct {
	profiles map[string]eject.Profile
	metrics  *toolpath.Metrics
	observer Observer
	logger   *log.Logger
}

// WithProfiles replaces the built-in printer profiles used for eject.
func WithProfiles(profiles map[string]eject.Profile) Option {
	return func(o *options) { o.profiles = profiles }
}

// WithMetrics supplies already-computed metrics of the input for the
// eject block, saving a parse.
func WithMetrics(m *toolpath.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithObserver reports stage timings to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger for stage summaries.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Apply runs the directives over text and returns the new text. It never
// fails: directives without a target are skipped. Empty directives return
// text unchanged.
func Apply(text string, d Directives, opts ...Option) string {
	return Run(text, d, opts...).Text
}

// Run is Apply with a report of what each stage did.
func Run(text string, d Directives, opts ...Option) *Result {
	o := options{profiles: config.BuiltinProfiles()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLogger("mutate")
	}

	res := &Result{}
	if d.IsEmpty() {
		res.Text = text
		res.Lines = len(toolpath.SplitLines(text))
		return res
	}

	lines := toolpath.SplitLines(text)
	input := lines
	var stages []Stage
	if !d.Rewrite.IsIdentity() {
		stages = append(stages, rewriteStage(d.Rewrite))
	}
	if hasLayerDirectives(d) {
		stages = append(stages, layerStage(d))
	}
	if hasLineDirectives(d) {
		stages = append(stages, lineStage(d))
	}
	if d.Eject != nil && d.Eject.Enabled() {
		stages = append(stages, ejectStage(*d.Eject, o.profile(d.Printer), func() *toolpath.Metrics {
			if o.metrics != nil {
				return o.metrics
			}
			return toolpath.ParseLines(input)
		}))
	}

	lines = runStages(stages, lines, res, &o)
	res.Text = strings.Join(lines, "\n")
	res.Lines = len(lines)
	return res
}

func runStages(stages []Stage, lines []string, res *Result, o *options) []string {
	// The eject stage parses the untouched input, so stages work on a copy.
	work := make([]string, len(lines))
	copy(work, lines)

	for _, st := range stages {
		start := time.Now()
		res.stageApplied = 0
		skipsBefore := len(res.Skips)

		work = st.Run(work, res)

		rep := StageReport{
			Name:     st.Name,
			Kind:     st.Kind.String(),
			Applied:  res.stageApplied,
			Skipped:  len(res.Skips) - skipsBefore,
			Duration: time.Since(start),
		}
		res.Stages = append(res.Stages, rep)
		if o.observer != nil {
			o.observer.ObserveStage(rep.Name, rep.Applied, rep.Skipped, rep.Duration)
		}
		o.logger.WithFields(log.Fields{
			"applied": rep.Applied,
			"skipped": rep.Skipped,
			"lines":   len(work),
		}).Debug("stage %s done", st.Name)
	}
	return work
}

// profile resolves a printer name; unknown names fall back to generic.
func (o *options) profile(name string) eject.Profile {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "generic"
	}
	if p, ok := o.profiles[key]; ok {
		return p
	}
	o.logger.Debug("unknown printer %q, using generic profile", name)
	if p, ok := o.profiles["generic"]; ok {
		return p
	}
	return config.BuiltinProfiles()["generic"]
}

func ejectStage(cfg eject.Config, p eject.Profile, metrics func() *toolpath.Metrics) Stage {
	return Stage{
		Name: "eject",
		Kind: KindAppend,
		Run: func(lines []string, res *Result) []string {
			block := eject.Synthesize(cfg, p, metrics())
			if len(block) == 0 {
				return lines
			}
			res.apply(1)

			// Keep a final newline final.
			if n := len(lines); n > 0 && lines[n-1] == "" {
				out := make([]string, 0, n+len(block))
				out = append(out, lines[:n-1]...)
				out = append(out, block...)
				return append(out, "")
			}
			return append(lines, block...)
		},
	}
}
