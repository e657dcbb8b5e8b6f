package toolpath

import (
	"math"

	"gcode-toolpath/pkg/gcode"
)

// moveKind is the classification of a planar move by its extrusion delta.
type moveKind int

const (
	moveNone moveKind = iota
	movePrint
	moveRetract
	moveTravel
)

// register is the motion state for one parse pass. Each Parse call builds
// its own; it is never shared.
type register struct {
	x, y, z float64
	e       float64

	relativeExtrude  bool
	relativePosition bool

	// Last commanded feed rate in mm/s.
	feed float64
}

// axis resolves an explicit axis value against the current position.
func (r *register) axis(cur, v float64) float64 {
	if r.relativePosition {
		return cur + v
	}
	return v
}

// extrude applies an E parameter and returns the signed delta.
func (r *register) extrude(v float64) float64 {
	if r.relativeExtrude {
		r.e += v
		return v
	}
	delta := v - r.e
	r.e = v
	return delta
}

// setPosition handles G92: explicit values overwrite the register.
func (r *register) setPosition(ln gcode.Line) {
	if v, ok := ln.Get('X'); ok {
		r.x = v
	}
	if v, ok := ln.Get('Y'); ok {
		r.y = v
	}
	if v, ok := ln.Get('Z'); ok {
		r.z = v
	}
	if v, ok := ln.Get('E'); ok {
		r.e = v
	}
}

// classify turns an extrusion delta into a move kind.
func classify(delta float64) moveKind {
	switch {
	case delta > 0:
		return movePrint
	case delta < 0:
		return moveRetract
	default:
		return moveTravel
	}
}

func planar(x0, y0, x1, y1 float64) float64 {
	return math.Hypot(x1-x0, y1-y0)
}
