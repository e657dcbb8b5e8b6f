package mutate

import (
	"math"

	"gcode-toolpath/pkg/gcode"
)

// maxFanValue is the top of the M106 S range.
const maxFanValue = 255

// rewriteStage scales feed rates and fan speed and offsets heater targets.
// The three transforms touch disjoint commands, so one pass applies all.
func rewriteStage(rw Rewrite) Stage {
	return Stage{
		Name: "rewrite",
		Kind: KindRewrite,
		Run: func(lines []string, res *Result) []string {
			for i, raw := range lines {
				if next, ok := rewriteLine(raw, rw); ok {
					lines[i] = next
					res.apply(1)
				}
			}
			return lines
		},
	}
}

// rewriteLine returns the rewritten line and whether it changed.
func rewriteLine(raw string, rw Rewrite) (string, bool) {
	ln := gcode.Tokenize(raw)
	if ln.Blank {
		return raw, false
	}

	switch {
	case ln.IsMotion():
		speed := rw.speed()
		if speed == 100 {
			return raw, false
		}
		return gcode.ReplaceParam(raw, 'F', func(f float64) float64 {
			return f * speed / 100
		})

	case ln.IsNozzleTemp():
		return offsetTemp(raw, rw.NozzleOffset)

	case ln.IsBedTemp():
		return offsetTemp(raw, rw.BedOffset)

	case ln.Command == gcode.CmdFanOn:
		fan := rw.fan()
		if fan == 100 {
			return raw, false
		}
		return gcode.ReplaceParam(raw, 'S', func(s float64) float64 {
			return math.Round(math.Max(0, math.Min(maxFanValue, s*fan/100)))
		})
	}
	return raw, false
}

// offsetTemp adds offset to the S target, clamped at zero. S0 turns the
// heater off and is left alone.
func offsetTemp(raw string, offset float64) (string, bool) {
	if offset == 0 {
		return raw, false
	}
	return gcode.ReplaceParam(raw, 'S', func(s float64) float64 {
		if s == 0 {
			return 0
		}
		return math.Max(0, s+offset)
	})
}
