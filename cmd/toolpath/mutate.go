package main

import (
	"fmt"
	"strconv"
	"strings"

	"gcode-toolpath/pkg/engine"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/log"
	"gcode-toolpath/pkg/mutate"
	"gcode-toolpath/pkg/templates"
)

func (c *cli) runMutate(args []string) error {
	fs := c.newFlagSet("mutate", "FILE")
	directives := fs.StringP("directives", "d", "", "YAML directives file")
	output := fs.StringP("output", "o", "", "Write the result to a file (default stdout)")
	speed := fs.Float64("speed", 0, "Feed rate percent")
	fan := fs.Float64("fan", 0, "Fan speed percent")
	nozzleOffset := fs.Float64("nozzle-offset", 0, "Nozzle temperature offset in degrees")
	bedOffset := fs.Float64("bed-offset", 0, "Bed temperature offset in degrees")
	pauseAt := fs.IntSlice("pause-at", nil, "Pause before these layers")
	pauseCmd := fs.String("pause-cmd", "", "Pause command: M0, M1, M25, M600 or PAUSE (default M600)")
	injects := fs.StringArray("inject-template", nil, "Inject a stored template, as ID@layer:N or ID@line:N")
	ejectFlag := fs.Bool("eject", false, "Append the eject block from the settings")
	printer := fs.String("printer", "", "Printer profile for the eject block")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneFile(fs)
	if err != nil {
		return err
	}

	var req engine.MutateRequest
	if *directives != "" {
		if req.Directives, err = mutate.LoadDirectives(*directives); err != nil {
			return err
		}
	}

	rw := &req.Directives.Rewrite
	if fs.Changed("speed") {
		rw.SpeedPercent = *speed
	}
	if fs.Changed("fan") {
		rw.FanPercent = *fan
	}
	if fs.Changed("nozzle-offset") {
		rw.NozzleOffset = *nozzleOffset
	}
	if fs.Changed("bed-offset") {
		rw.BedOffset = *bedOffset
	}
	for _, layer := range *pauseAt {
		req.Directives.Pauses = append(req.Directives.Pauses, mutate.LayerPause{
			Layer:   layer,
			Command: mutate.PauseCommand(*pauseCmd),
		})
	}
	if *printer != "" {
		req.Directives.Printer = *printer
	}
	req.DefaultEject = *ejectFlag

	for _, spec := range *injects {
		ti, err := parseTemplateInjection(spec)
		if err != nil {
			return err
		}
		req.Templates = append(req.Templates, ti)
	}

	var store *templates.Store
	if len(req.Templates) > 0 {
		if store, err = c.openStore(); err != nil {
			return err
		}
		defer store.Close()
	}

	if req.Text, err = c.readInput(path); err != nil {
		return err
	}
	res, err := engine.New(c.settings, store, nil).Mutate(req)
	if err != nil {
		return err
	}
	if err := c.writeOutput(*output, res.Text); err != nil {
		return err
	}

	for _, st := range res.Stages {
		c.logger.WithFields(log.Fields{
			"applied": st.Applied,
			"skipped": st.Skipped,
		}).Info("stage %s", st.Name)
	}
	for _, sk := range res.Skips {
		fmt.Fprintf(c.stderr, "skipped %s: %s\n", sk.Directive, sk.Reason)
	}
	return nil
}

// parseTemplateInjection parses ID@layer:N or ID@line:N.
func parseTemplateInjection(spec string) (engine.TemplateInjection, error) {
	bad := func(reason string) error {
		return errors.DirectiveError("inject-template", fmt.Sprintf("%q: %s", spec, reason))
	}
	id, where, ok := strings.Cut(spec, "@")
	if !ok || id == "" {
		return engine.TemplateInjection{}, bad("expected ID@layer:N or ID@line:N")
	}
	mode, num, ok := strings.Cut(where, ":")
	if !ok {
		return engine.TemplateInjection{}, bad("expected layer:N or line:N after @")
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return engine.TemplateInjection{}, bad("position is not a number")
	}
	m := mutate.InjectMode(strings.ToLower(mode))
	if m != mutate.InjectLayer && m != mutate.InjectLine {
		return engine.TemplateInjection{}, bad("mode must be layer or line")
	}
	return engine.TemplateInjection{TemplateID: id, Mode: m, Number: n}, nil
}
