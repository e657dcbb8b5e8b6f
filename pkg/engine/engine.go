// Package engine binds the core operations to the process: settings,
// the template library and metrics. The CLI and the service both go
// through it so they resolve requests the same way.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package engine

import (
	"fmt"
	"time"

	"gcode-toolpath/pkg/config"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/log"
	"gcode-toolpath/pkg/metrics"
	"gcode-toolpath/pkg/mutate"
	"gcode-toolpath/pkg/report"
	"gcode-toolpath/pkg/templates"
	"gcode-toolpath/pkg/toolpath"
)

// TemplateInjection injects a stored template's code.
type TemplateInjection struct {
	TemplateID string            `json:"templateId" yaml:"template_id"`
	Mode       mutate.InjectMode `json:"mode" yaml:"mode"`
	Number     int               `json:"number" yaml:"number"`
}

// MutateRequest is one mutation as callers send it.
type MutateRequest struct {
	Text       string              `json:"text"`
	Directives mutate.Directives   `json:"directives"`
	Templates  []TemplateInjection `json:"templates,omitempty"`

	// DefaultEject appends the eject block from the settings when the
	// directives carry none.
	DefaultEject bool `json:"defaultEject,omitempty"`
}

// Report formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Engine runs analyses and mutations with process-wide state.
type Engine struct {
	settings *config.Settings
	store    *templates.Store
	metrics  *metrics.EngineMetrics
	logger   *log.Logger
}

// New creates an engine. settings nil means defaults; store may be nil,
// in which case template injections fail; em nil means the global metrics.
func New(settings *config.Settings, store *templates.Store, em *metrics.EngineMetrics) *Engine {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if em == nil {
		em = metrics.Global()
	}
	e := &Engine{
		settings: settings,
		store:    store,
		metrics:  em,
		logger:   log.GetLogger("engine"),
	}
	e.refreshTemplateGauge()
	return e
}

// Settings returns the settings in effect.
func (e *Engine) Settings() *config.Settings { return e.settings }

// Templates returns the template store, or nil.
func (e *Engine) Templates() *templates.Store { return e.store }

// Metrics returns the engine metrics.
func (e *Engine) Metrics() *metrics.EngineMetrics { return e.metrics }

// Analyze extracts metrics from text and runs diagnostics with the
// configured thresholds.
func (e *Engine) Analyze(text string) *toolpath.Metrics {
	start := time.Now()
	lines := toolpath.SplitLines(text)
	m := toolpath.ParseLines(lines)
	toolpath.Diagnose(m, e.settings.Thresholds)
	elapsed := time.Since(start)

	e.metrics.ObserveAnalysis(m, len(lines), elapsed)
	e.logger.WithFields(log.Fields{
		"lines":    len(lines),
		"layers":   m.LayerCount,
		"warnings": len(m.Warnings),
	}).Debug("analyzed in %s", elapsed)
	return m
}

// Resolve turns a request into validated directives: template injections
// are looked up and the default eject block applied.
func (e *Engine) Resolve(req MutateRequest) (mutate.Directives, error) {
	d := req.Directives
	d.Injections = append([]mutate.Injection(nil), d.Injections...)

	for i, ti := range req.Templates {
		if e.store == nil {
			return d, errors.New(errors.ErrTemplateStore, "no template store configured")
		}
		tpl, err := e.store.Get(ti.TemplateID)
		if err != nil {
			if he, ok := err.(*errors.HostError); ok {
				he.SetSection(fmt.Sprintf("templates[%d]", i))
			}
			return d, err
		}
		d.Injections = append(d.Injections, mutate.Injection{Mode: ti.Mode, Number: ti.Number, Code: tpl.Code})
	}

	if req.DefaultEject && (d.Eject == nil || !d.Eject.Enabled()) {
		def := e.settings.Eject
		d.Eject = &def
	}
	if d.Printer != "" {
		if _, ok := e.settings.Profile(d.Printer); !ok {
			return d, errors.DirectiveError("printer", fmt.Sprintf("unknown printer %q, known: %v", d.Printer, e.settings.ProfileNames()))
		}
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// Mutate resolves and runs a mutation request.
func (e *Engine) Mutate(req MutateRequest) (*mutate.Result, error) {
	d, err := e.Resolve(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := mutate.Run(req.Text, d,
		mutate.WithProfiles(e.settings.Profiles),
		mutate.WithObserver(e.metrics),
		mutate.WithLogger(e.logger),
	)
	elapsed := time.Since(start)
	e.metrics.ObserveMutation(res.Lines, elapsed)

	entry := e.logger.WithFields(log.Fields{
		"lines":   res.Lines,
		"applied": res.Applied(),
		"skipped": len(res.Skips),
	})
	if len(res.Skips) > 0 {
		entry.Warn("mutation skipped %d directives", len(res.Skips))
	} else {
		entry.Debug("mutated in %s", elapsed)
	}
	return res, nil
}

// Report analyzes text and renders the result. It returns the body and
// its content type.
func (e *Engine) Report(text, format string, src report.Source) (string, string, error) {
	m := e.Analyze(text)
	if src.Bytes == 0 {
		src.Bytes = len(text)
	}
	if src.Lines == 0 {
		src.Lines = len(toolpath.SplitLines(text))
	}

	switch format {
	case "", FormatHTML:
		return report.HTML(m, src), "text/html; charset=utf-8", nil
	case FormatMarkdown:
		return report.Markdown(m, src), "text/markdown; charset=utf-8", nil
	case FormatText:
		return report.Text(m, src), "text/plain; charset=utf-8", nil
	}
	return "", "", errors.Newf(errors.ErrServiceRequest, "unknown report format %q", format)
}

// refreshTemplateGauge publishes the template count.
func (e *Engine) refreshTemplateGauge() {
	if e.store == nil {
		return
	}
	if n, err := e.store.Count(); err == nil {
		e.metrics.TemplatesStored.Set(nil, float64(n))
	}
}

// PutTemplate stores a template and updates the gauge.
func (e *Engine) PutTemplate(t templates.Template) (templates.Template, error) {
	if e.store == nil {
		return templates.Template{}, errors.New(errors.ErrTemplateStore, "no template store configured")
	}
	stored, err := e.store.Put(t)
	if err == nil {
		e.refreshTemplateGauge()
	}
	return stored, err
}

// DeleteTemplate removes a template and updates the gauge.
func (e *Engine) DeleteTemplate(id string) error {
	if e.store == nil {
		return errors.New(errors.ErrTemplateStore, "no template store configured")
	}
	err := e.store.Delete(id)
	if err == nil {
		e.refreshTemplateGauge()
	}
	return err
}

// ListTemplates returns the stored templates.
func (e *Engine) ListTemplates() ([]templates.Template, error) {
	if e.store == nil {
		return []templates.Template{}, nil
	}
	return e.store.List()
}

// GetTemplate returns one stored template.
func (e *Engine) GetTemplate(id string) (templates.Template, error) {
	if e.store == nil {
		return templates.Template{}, errors.TemplateNotFoundError(id)
	}
	return e.store.Get(id)
}
