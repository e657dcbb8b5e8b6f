// Package eject builds the end-of-print block that releases a finished
// part from the bed: cool-and-release, bed shake and push-off.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package eject

import (
	"fmt"
	"math"
	"strings"

	"gcode-toolpath/pkg/gcode"
	"gcode-toolpath/pkg/toolpath"
)

// PresentMode is how a printer brings the bed forward once the part is
// released.
type PresentMode string

const (
	PresentHome PresentMode = "home" // home a single axis
	PresentPark PresentMode = "park" // move to a fixed XY coordinate
)

// Profile is the printer identity used by the synthesizer.
type Profile struct {
	Name     string      `json:"name" yaml:"name"`
	BedX     float64     `json:"bedX" yaml:"bed_x"`
	BedY     float64     `json:"bedY" yaml:"bed_y"`
	Present  PresentMode `json:"present" yaml:"present"`
	HomeAxis string      `json:"homeAxis,omitempty" yaml:"home_axis"`
	ParkX    float64     `json:"parkX,omitempty" yaml:"park_x"`
	ParkY    float64     `json:"parkY,omitempty" yaml:"park_y"`
}

// Cool waits for the bed to drop to TargetTemp so the part lets go.
type Cool struct {
	TargetTemp  float64 `json:"targetTemp" yaml:"target_temp"`
	WaitSeconds float64 `json:"waitSeconds" yaml:"wait_seconds"`
}

// Shake rattles the bed along Y around its centre.
type Shake struct {
	Distance    float64 `json:"distance" yaml:"distance"`
	FeedRate    float64 `json:"feedRate" yaml:"feed_rate"`
	Repetitions int     `json:"repetitions" yaml:"repetitions"`
}

// Push sweeps the nozzle across the bed to knock the part off.
type Push struct {
	Distance float64 `json:"distance" yaml:"distance"`
	FeedRate float64 `json:"feedRate" yaml:"feed_rate"`
}

// Config selects which blocks are emitted. A nil block is skipped.
type Config struct {
	Cool  *Cool  `json:"cool,omitempty" yaml:"cool"`
	Shake *Shake `json:"shake,omitempty" yaml:"shake"`
	Push  *Push  `json:"push,omitempty" yaml:"push"`
}

// Enabled reports whether any block is configured.
func (c Config) Enabled() bool {
	return c.Cool != nil || c.Shake != nil || c.Push != nil
}

const (
	// Clearance added above the first layer when the nozzle drops for the push.
	pushClearance = 0.3

	// First layer height assumed when the metrics do not carry one.
	defaultFirstLayer = 0.2

	// Distance behind the part's back edge where the push starts.
	pushApproach = 10.0

	liftHeight      = 10.0
	shakeCenterFeed = 6000.0
	travelFeed      = 6000.0
	zFeed           = 600.0
)

// Synthesize returns the eject block for cfg on printer p, in the fixed
// order cool, shake, push, cleanup. m may be nil; geometry then falls back
// to the bed. Nothing is returned when no block is enabled.
func Synthesize(cfg Config, p Profile, m *toolpath.Metrics) []string {
	if !cfg.Enabled() {
		return nil
	}

	var b builder
	if cfg.Cool != nil {
		b.cool(*cfg.Cool, p)
	}
	if cfg.Shake != nil {
		b.shake(*cfg.Shake, p)
	}
	if cfg.Push != nil {
		b.push(*cfg.Push, p, m)
	}
	b.cleanup()
	return b.lines
}

type builder struct {
	lines []string
}

func (b *builder) emit(format string, args ...interface{}) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func num(v float64) string { return gcode.FormatNumber(v) }

func (b *builder) cool(c Cool, p Profile) {
	b.emit("; eject: cool and release")
	b.emit("M104 S0")
	b.emit("M140 S%s", num(c.TargetTemp))
	b.emit("G91")
	b.emit("G1 E-2 F1800")
	b.emit("G1 Z%s F%s", num(liftHeight), num(zFeed))
	b.emit("G90")
	b.present(p)
	b.emit("M190 R%s", num(c.TargetTemp))
	if c.WaitSeconds > 0 {
		b.emit("G4 S%s", num(c.WaitSeconds))
	}
	b.emit("M140 S0")
}

// present moves the bed to where the operator can reach the part.
func (b *builder) present(p Profile) {
	switch p.Present {
	case PresentPark:
		b.emit("G1 X%s Y%s F%s", num(p.ParkX), num(p.ParkY), num(travelFeed))
	default:
		axis := strings.ToUpper(strings.TrimSpace(p.HomeAxis))
		if axis == "" {
			axis = "X"
		}
		b.emit("G28 %s", axis)
	}
}

func (b *builder) shake(s Shake, p Profile) {
	b.emit("; eject: bed shake")
	b.emit("G90")
	b.emit("G1 X%s Y%s F%s", num(p.BedX/2), num(p.BedY/2), num(shakeCenterFeed))
	b.emit("G91")
	for i := 0; i < s.Repetitions; i++ {
		b.emit("G1 Y%s F%s", num(s.Distance), num(s.FeedRate))
		b.emit("G1 Y%s F%s", num(-s.Distance), num(s.FeedRate))
	}
	b.emit("G90")
}

func (b *builder) push(ps Push, p Profile, m *toolpath.Metrics) {
	// Part extent along the push axis and its X centre. Without geometry
	// the whole bed is treated as the part.
	centerX := p.BedX / 2
	minY, maxY := 0.0, p.BedY
	first := defaultFirstLayer
	if m != nil {
		bb := m.BoundingBox
		if bb.Width() > 0 || bb.Depth() > 0 {
			centerX = (bb.MinX + bb.MaxX) / 2
			minY, maxY = bb.MinY, bb.MaxY
		}
		if m.FirstLayerHeight > 0 {
			first = m.FirstLayerHeight
		}
	}
	// Travel height clears the tallest point printed.
	var safeZ float64
	if m != nil && m.BoundingBox.MaxZ > 0 {
		safeZ = math.Max(m.BoundingBox.MaxZ, first) + liftHeight
	}

	startY := maxY + pushApproach
	if p.BedY > 0 && startY > p.BedY {
		startY = p.BedY
	}
	endY := minY - ps.Distance
	if endY < 0 {
		endY = 0
	}

	b.emit("; eject: push off")
	b.clearPart(safeZ)
	b.emit("G1 X%s Y%s F%s", num(centerX), num(startY), num(travelFeed))
	b.emit("G1 Z%s F%s", num(first+pushClearance), num(zFeed))
	b.emit("G1 Y%s F%s", num(endY), num(ps.FeedRate))
	b.clearPart(safeZ)
}

// clearPart raises the nozzle above the part and leaves absolute
// positioning on. With an unknown part height the lift is relative to
// wherever the nozzle is.
func (b *builder) clearPart(safeZ float64) {
	if safeZ <= 0 {
		b.emit("G91")
		b.emit("G1 Z%s F%s", num(liftHeight), num(zFeed))
		b.emit("G90")
		return
	}
	b.emit("G90")
	b.emit("G1 Z%s F%s", num(safeZ), num(zFeed))
}

func (b *builder) cleanup() {
	b.emit("; eject: cleanup")
	b.emit("M104 S0")
	b.emit("M140 S0")
	b.emit("M107")
	b.emit("M84")
}
