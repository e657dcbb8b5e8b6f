package toolpath

import (
	"fmt"
)

// Thresholds parameterises the diagnostic rules.
type Thresholds struct {
	// Width or depth below this is reported as a very small print.
	MinDimensionMm float64

	// Retraction counts above this risk grinding or clogging.
	MaxRetractions int

	// A print longer than LongPrintMinutes at a layer height below
	// FineLayerHeight gets a suggestion to use coarser layers.
	LongPrintMinutes float64
	FineLayerHeight  float64

	// Nozzle temperatures above this need a hardened/all-metal hotend.
	HardenedNozzleTemp float64

	// Streams with more print moves than this and no bed temperature
	// are flagged as an adhesion risk.
	MinPrintMovesForBed int
}

// DefaultThresholds returns the stock rule parameters.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDimensionMm:      5,
		MaxRetractions:      5000,
		LongPrintMinutes:    480,
		FineLayerHeight:     0.15,
		HardenedNozzleTemp:  260,
		MinPrintMovesForBed: 100,
	}
}

// rule inspects metrics and returns a warning when it fires.
type rule struct {
	name  string
	check func(m *Metrics, th Thresholds) (Warning, bool)
}

// rules run in table order; none of them suppresses another.
var rules = []rule{
	{"small-footprint", func(m *Metrics, th Thresholds) (Warning, bool) {
		if m.PrintMoveCount == 0 {
			return Warning{}, false
		}
		w, d := m.BoundingBox.Width(), m.BoundingBox.Depth()
		if w >= th.MinDimensionMm && d >= th.MinDimensionMm {
			return Warning{}, false
		}
		return Warning{LevelWarning, fmt.Sprintf(
			"Very small footprint (%.1f x %.1f mm); the part may detach or fail to print", w, d)}, true
	}},
	{"retractions", func(m *Metrics, th Thresholds) (Warning, bool) {
		if m.RetractionCount <= th.MaxRetractions {
			return Warning{}, false
		}
		return Warning{LevelWarning, fmt.Sprintf(
			"%d retractions; high retraction counts can grind filament or clog the nozzle", m.RetractionCount)}, true
	}},
	{"fine-long-print", func(m *Metrics, th Thresholds) (Warning, bool) {
		if m.EstimatedTimeMinutes <= th.LongPrintMinutes ||
			m.LayerHeight <= 0 || m.LayerHeight >= th.FineLayerHeight {
			return Warning{}, false
		}
		return Warning{LevelInfo, fmt.Sprintf(
			"Long print (%.0f min) at %.2f mm layers; a coarser layer height would cut the time considerably",
			m.EstimatedTimeMinutes, m.LayerHeight)}, true
	}},
	{"nozzle-temp", func(m *Metrics, th Thresholds) (Warning, bool) {
		if m.NozzleTempMax <= th.HardenedNozzleTemp {
			return Warning{}, false
		}
		return Warning{LevelWarning, fmt.Sprintf(
			"Nozzle temperature %.0f°C requires an all-metal or hardened hotend", m.NozzleTempMax)}, true
	}},
	{"bed-temp", func(m *Metrics, th Thresholds) (Warning, bool) {
		if m.BedTempMax != 0 || m.PrintMoveCount <= th.MinPrintMovesForBed {
			return Warning{}, false
		}
		return Warning{LevelError,
			"No bed temperature set; the first layer is unlikely to adhere"}, true
	}},
}

// Diagnose appends the warnings of every rule that fires to m.Warnings.
func Diagnose(m *Metrics, th Thresholds) {
	for _, r := range rules {
		if w, ok := r.check(m, th); ok {
			m.Warnings = append(m.Warnings, w)
		}
	}
}

// Analyze parses text and runs the diagnostics over the result.
func Analyze(text string, th Thresholds) *Metrics {
	m := Parse(text)
	Diagnose(m, th)
	return m
}
