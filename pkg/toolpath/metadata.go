package toolpath

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Slicer header comments are format-variable. Each value is filled from the
// first comment that matches and otherwise left at zero.
var (
	reCuraTime      = regexp.MustCompile(`^TIME:\s*(\d+(?:\.\d+)?)\s*$`)
	rePrusaTime     = regexp.MustCompile(`(?i)^estimated printing time(?:\s*\(normal mode\))?\s*=\s*(.+)$`)
	reTotalTime     = regexp.MustCompile(`(?i)total estimated time:\s*([0-9dhms ]+)`)
	reModelTime     = regexp.MustCompile(`(?i)model printing time:\s*([0-9dhms ]+)`)
	reDurationPart  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([dhms])`)
	rePrusaFilament = regexp.MustCompile(`(?i)^filament used \[mm\]\s*=\s*([\d.,\s]+)$`)
	reCuraFilament  = regexp.MustCompile(`(?i)^filament used:\s*([\d.]+)\s*m\b`)
	reOrcaFilament  = regexp.MustCompile(`(?i)^total filament length \[mm\]\s*:\s*([\d.,\s]+)$`)
)

// headerScanner fills the metadata fields of Metrics.
type headerScanner struct {
	haveTime     bool
	haveFilament bool
}

func (h *headerScanner) scan(comment string, m *Metrics) {
	if comment == "" || (h.haveTime && h.haveFilament) {
		return
	}
	if !h.haveTime {
		if mins, ok := parseTimeComment(comment); ok {
			m.EstimatedTimeMinutes = mins
			h.haveTime = true
		}
	}
	if !h.haveFilament {
		if mm, ok := parseFilamentComment(comment); ok {
			m.FilamentLengthMm = mm
			h.haveFilament = true
		}
	}
}

func parseTimeComment(c string) (float64, bool) {
	if sm := reCuraTime.FindStringSubmatch(c); sm != nil {
		secs, err := strconv.ParseFloat(sm[1], 64)
		if err != nil {
			return 0, false
		}
		return secs / 60, true
	}
	for _, re := range []*regexp.Regexp{reTotalTime, rePrusaTime, reModelTime} {
		if sm := re.FindStringSubmatch(c); sm != nil {
			if secs, ok := parseDuration(sm[1]); ok {
				return secs / 60, true
			}
		}
	}
	return 0, false
}

// parseDuration reads "1d 2h 3m 4s" style durations and returns seconds.
func parseDuration(s string) (float64, bool) {
	parts := reDurationPart.FindAllStringSubmatch(s, -1)
	if len(parts) == 0 {
		return 0, false
	}
	total := 0.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(p[1], 64)
		if err != nil {
			return 0, false
		}
		switch p[2] {
		case "d":
			total += v * 86400
		case "h":
			total += v * 3600
		case "m":
			total += v * 60
		case "s":
			total += v
		}
	}
	return total, true
}

func parseFilamentComment(c string) (float64, bool) {
	if sm := reCuraFilament.FindStringSubmatch(c); sm != nil {
		metres, err := strconv.ParseFloat(sm[1], 64)
		if err != nil {
			return 0, false
		}
		return metres * 1000, true
	}
	for _, re := range []*regexp.Regexp{rePrusaFilament, reOrcaFilament} {
		if sm := re.FindStringSubmatch(c); sm != nil {
			return sumList(sm[1])
		}
	}
	return 0, false
}

// sumList adds a comma separated list; multi-extruder headers list one
// value per tool.
func sumList(s string) (float64, bool) {
	total := 0.0
	n := 0
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, false
		}
		total += v
		n++
	}
	return total, n > 0
}

// filamentWeight converts a filament length to grams using a cylinder of
// FilamentDiameterMm at FilamentDensity.
func filamentWeight(lengthMm float64) float64 {
	if lengthMm <= 0 {
		return 0
	}
	radiusCm := FilamentDiameterMm / 20
	volumeCm3 := math.Pi * radiusCm * radiusCm * (lengthMm / 10)
	return volumeCm3 * FilamentDensity
}
