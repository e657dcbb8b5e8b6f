// Package toolpath extracts print metrics from a G-code stream and runs
// rule-based diagnostics over them.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package toolpath

import (
	"encoding/json"
	"fmt"
)

// Level is the severity of a diagnostic.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// String returns the wire name of the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel is the inverse of String.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "info":
		return LevelInfo, nil
	case "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown diagnostic level %q", s)
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Warning is one diagnostic about the content of a stream.
type Warning struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// BoundingBox is the extent of all moves that carried explicit X/Y values.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
	MaxZ float64 `json:"maxZ"`
}

// Width is the X extent.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Depth is the Y extent.
func (b BoundingBox) Depth() float64 { return b.MaxY - b.MinY }

// Metrics is the result of one parse pass. It is not modified after
// Parse returns, except by Diagnose appending to Warnings.
type Metrics struct {
	LayerCount       int     `json:"layerCount"`
	LayerHeight      float64 `json:"layerHeight"`
	FirstLayerHeight float64 `json:"firstLayerHeight"`

	// Filled from slicer header comments when present.
	EstimatedTimeMinutes float64 `json:"estimatedTimeMinutes"`
	FilamentLengthMm     float64 `json:"filamentLengthMm"`
	FilamentWeightGrams  float64 `json:"filamentWeightGrams"`

	BoundingBox BoundingBox `json:"boundingBox"`

	NozzleTempMax    float64 `json:"nozzleTempMax"`
	BedTempMax       float64 `json:"bedTempMax"`
	MaxSpeedMmPerSec float64 `json:"maxSpeedMmPerSec"`

	RetractionCount    int     `json:"retractionCount"`
	RetractionDistance float64 `json:"retractionDistance"`
	TravelDistance     float64 `json:"travelDistance"`
	PrintMoveCount     int     `json:"printMoveCount"`
	TravelMoveCount    int     `json:"travelMoveCount"`

	Warnings []Warning `json:"warnings"`
}

// HasLevel reports whether any warning carries the given level.
func (m *Metrics) HasLevel(level Level) bool {
	for _, w := range m.Warnings {
		if w.Level == level {
			return true
		}
	}
	return false
}

// Filament geometry used to turn length into weight. The weight is an
// estimate for 1.75 mm PLA, not a measurement.
const (
	FilamentDiameterMm = 1.75
	FilamentDensity    = 1.24 // g/cm^3
)
