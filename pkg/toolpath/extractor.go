package toolpath

import (
	"math"
	"strings"

	"gcode-toolpath/pkg/gcode"
)

// SplitLines splits text into lines the way the mutation pipeline does, so
// line indexes agree between analysis and mutation.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// Parse runs the extractor over a whole text blob. It never fails:
// unrecognised commands and malformed tokens are skipped, and truncated
// input yields whatever was seen so far.
func Parse(text string) *Metrics {
	return ParseLines(SplitLines(text))
}

// ParseLines runs the extractor over pre-split lines.
func ParseLines(lines []string) *Metrics {
	x := newExtractor()
	for _, raw := range lines {
		x.feed(gcode.Tokenize(raw))
	}
	return x.finish()
}

type extractor struct {
	reg     register
	m       Metrics
	heights *heightSet
	header  headerScanner

	minX, minY, maxX, maxY float64
	maxZ                   float64
}

func newExtractor() *extractor {
	return &extractor{
		heights: newHeightSet(),
		minX:    math.Inf(1),
		minY:    math.Inf(1),
		maxX:    math.Inf(-1),
		maxY:    math.Inf(-1),
	}
}

func (x *extractor) feed(ln gcode.Line) {
	x.header.scan(ln.Comment, &x.m)
	if ln.Blank {
		return
	}

	switch ln.Command {
	case gcode.CmdRapidMove, gcode.CmdLinearMove, gcode.CmdArcCW, gcode.CmdArcCCW:
		x.move(ln)
	case gcode.CmdAbsolutePos:
		x.reg.relativePosition = false
	case gcode.CmdRelativePos:
		x.reg.relativePosition = true
	case gcode.CmdAbsoluteExtr:
		x.reg.relativeExtrude = false
	case gcode.CmdRelativeExtr:
		x.reg.relativeExtrude = true
	case gcode.CmdSetPosition:
		x.reg.setPosition(ln)
	case gcode.CmdSetNozzle, gcode.CmdWaitNozzle:
		if s, ok := ln.Get('S'); ok && s > x.m.NozzleTempMax {
			x.m.NozzleTempMax = s
		}
	case gcode.CmdSetBed, gcode.CmdWaitBed:
		if s, ok := ln.Get('S'); ok && s > x.m.BedTempMax {
			x.m.BedTempMax = s
		}
	}
}

func (x *extractor) move(ln gcode.Line) {
	r := &x.reg

	if f, ok := ln.Get('F'); ok && f > 0 {
		r.feed = f / 60
		if r.feed > x.m.MaxSpeedMmPerSec {
			x.m.MaxSpeedMmPerSec = r.feed
		}
	}

	if v, ok := ln.Get('Z'); ok {
		z := r.axis(r.z, v)
		if z != r.z {
			r.z = z
			x.heights.add(z)
			if z > x.maxZ {
				x.maxZ = z
			}
		}
	}

	vx, hasX := ln.Get('X')
	vy, hasY := ln.Get('Y')
	ve, hasE := ln.Get('E')

	if !hasX && !hasY {
		if hasE {
			r.extrude(ve)
		}
		return
	}

	px, py := r.x, r.y
	if hasX {
		r.x = r.axis(r.x, vx)
		x.minX = math.Min(x.minX, r.x)
		x.maxX = math.Max(x.maxX, r.x)
	}
	if hasY {
		r.y = r.axis(r.y, vy)
		x.minY = math.Min(x.minY, r.y)
		x.maxY = math.Max(x.maxY, r.y)
	}
	dist := planar(px, py, r.x, r.y)

	delta := 0.0
	if hasE {
		delta = r.extrude(ve)
	}

	switch classify(delta) {
	case movePrint:
		x.m.PrintMoveCount++
	case moveRetract:
		x.m.RetractionCount++
		x.m.RetractionDistance += -delta
	case moveTravel:
		x.m.TravelMoveCount++
		x.m.TravelDistance += dist
	}
}

func (x *extractor) finish() *Metrics {
	m := x.m
	m.LayerCount, m.FirstLayerHeight, m.LayerHeight = x.heights.layerStats()
	m.FilamentWeightGrams = filamentWeight(m.FilamentLengthMm)
	m.BoundingBox = BoundingBox{
		MinX: finiteOrZero(x.minX),
		MinY: finiteOrZero(x.minY),
		MaxX: finiteOrZero(x.maxX),
		MaxY: finiteOrZero(x.maxY),
		MaxZ: x.maxZ,
	}
	if m.Warnings == nil {
		m.Warnings = []Warning{}
	}
	return &m
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) {
		return 0
	}
	return v
}
