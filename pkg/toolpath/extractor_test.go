package toolpath

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestParseLayerHeights(t *testing.T) {
	text := strings.Join([]string{
		"G1 Z0.2 F600",
		"G1 X10 Y10 E1",
		"G1 Z0.2",
		"G1 X20 Y10 E2",
		"G1 Z0.4",
		"G1 X20 Y20 E3",
		"G1 Z0.6",
		"G1 X10 Y20 E4",
	}, "\n")

	m := Parse(text)
	if m.LayerCount != 3 {
		t.Errorf("expected 3 layers, got %d", m.LayerCount)
	}
	if !almostEqual(m.FirstLayerHeight, 0.2) {
		t.Errorf("expected first layer 0.2, got %f", m.FirstLayerHeight)
	}
	if !almostEqual(m.LayerHeight, 0.2) {
		t.Errorf("expected layer height 0.2, got %f", m.LayerHeight)
	}
	if !almostEqual(m.BoundingBox.MaxZ, 0.6) {
		t.Errorf("expected max Z 0.6, got %f", m.BoundingBox.MaxZ)
	}
}

func TestParseLayerHeightIsModeNotMean(t *testing.T) {
	// 0.3 first layer, then 0.2 steps, then a lone 1.0 jump at the end.
	zs := []string{"0.3", "0.5", "0.7", "0.9", "1.1", "2.1"}
	var lines []string
	for _, z := range zs {
		lines = append(lines, "G1 Z"+z, "G1 X1 Y1 E1")
	}
	m := Parse(strings.Join(lines, "\n"))
	if !almostEqual(m.LayerHeight, 0.2) {
		t.Errorf("expected modal layer height 0.2, got %f", m.LayerHeight)
	}
	if !almostEqual(m.FirstLayerHeight, 0.3) {
		t.Errorf("expected first layer 0.3, got %f", m.FirstLayerHeight)
	}
}

func TestParseLayerHeightTieKeepsFirstSeen(t *testing.T) {
	// Deltas 0.1, 0.2: one each, the first (0.1) wins.
	m := Parse("G1 Z0.2\nG1 Z0.3\nG1 Z0.5")
	if !almostEqual(m.LayerHeight, 0.1) {
		t.Errorf("expected tie broken by first delta 0.1, got %f", m.LayerHeight)
	}
}

func TestParseHeightJitterIsRounded(t *testing.T) {
	m := Parse("G1 Z0.2\nG1 Z0.2000001\nG1 Z0.19999999\nG1 Z0.4")
	if m.LayerCount != 2 {
		t.Errorf("expected jitter to collapse into 2 layers, got %d", m.LayerCount)
	}
}

func TestParseSingleAndNoLayer(t *testing.T) {
	m := Parse("G1 Z0.25\nG1 X1 Y1 E1")
	if m.LayerCount != 1 || !almostEqual(m.LayerHeight, 0.25) || !almostEqual(m.FirstLayerHeight, 0.25) {
		t.Errorf("single layer: got count=%d height=%f first=%f", m.LayerCount, m.LayerHeight, m.FirstLayerHeight)
	}
	m = Parse("M104 S200\n")
	if m.LayerCount != 0 || m.LayerHeight != 0 {
		t.Errorf("no Z: expected zeros, got count=%d height=%f", m.LayerCount, m.LayerHeight)
	}
}

func TestParseMoveClassification(t *testing.T) {
	text := strings.Join([]string{
		"G90",
		"M82",
		"G1 X0 Y0",         // travel, distance 0
		"G1 X10 Y0 E1",     // print
		"G1 X10 Y0 E0.2",   // retraction of 0.8 (no planar change still counts: X given)
		"G1 X10 Y10",       // travel 10mm
		"G1 X13 Y14 E0.2",  // travel 5mm (delta 0)
	}, "\n")
	m := Parse(text)
	if m.PrintMoveCount != 1 {
		t.Errorf("expected 1 print move, got %d", m.PrintMoveCount)
	}
	if m.RetractionCount != 1 {
		t.Errorf("expected 1 retraction, got %d", m.RetractionCount)
	}
	if !almostEqual(m.RetractionDistance, 0.8) {
		t.Errorf("expected retraction distance 0.8, got %f", m.RetractionDistance)
	}
	if m.TravelMoveCount != 3 {
		t.Errorf("expected 3 travel moves, got %d", m.TravelMoveCount)
	}
	if !almostEqual(m.TravelDistance, 15) {
		t.Errorf("expected travel distance 15, got %f", m.TravelDistance)
	}
}

func TestParseRetractionDoesNotCountAsPrintOrTravel(t *testing.T) {
	m := Parse("M83\nG1 X5 Y5 E-1.5")
	if m.RetractionCount != 1 || !almostEqual(m.RetractionDistance, 1.5) {
		t.Errorf("expected one 1.5mm retraction, got %d / %f", m.RetractionCount, m.RetractionDistance)
	}
	if m.PrintMoveCount != 0 || m.TravelMoveCount != 0 || m.TravelDistance != 0 {
		t.Errorf("retraction leaked into print/travel: %+v", m)
	}
}

func TestParseRelativeExtrusionAndReset(t *testing.T) {
	text := strings.Join([]string{
		"M83",
		"G1 X1 Y0 E0.5",  // print
		"G1 X2 Y0 E0.5",  // print
		"M82",
		"G92 E0",
		"G1 X3 Y0 E0.4",  // print (0.4 - 0)
		"G1 X4 Y0 E0.4",  // travel
		"G92 E10",
		"G1 X5 Y0 E9",    // retraction 1
	}, "\n")
	m := Parse(text)
	if m.PrintMoveCount != 3 {
		t.Errorf("expected 3 print moves, got %d", m.PrintMoveCount)
	}
	if m.TravelMoveCount != 1 {
		t.Errorf("expected 1 travel move, got %d", m.TravelMoveCount)
	}
	if m.RetractionCount != 1 || !almostEqual(m.RetractionDistance, 1) {
		t.Errorf("expected 1 retraction of 1mm, got %d / %f", m.RetractionCount, m.RetractionDistance)
	}
}

func TestParseRelativePositioning(t *testing.T) {
	m := Parse("G1 X10 Y10\nG91\nG1 X5 Y-2\nG1 Z0.2\nG1 Z0.2\nG90")
	if !almostEqual(m.BoundingBox.MaxX, 15) || !almostEqual(m.BoundingBox.MinY, 8) {
		t.Errorf("relative moves not accumulated: %+v", m.BoundingBox)
	}
	if m.LayerCount != 2 {
		t.Errorf("expected Z 0.2 then 0.4, got %d layers", m.LayerCount)
	}
}

func TestParseBoundingBoxExplicitAxesOnly(t *testing.T) {
	m := Parse("G1 Z5\nG1 X20\nG1 Y30\nG1 X40 Y50\nG1 E5")
	bb := m.BoundingBox
	if bb.MinX != 20 || bb.MaxX != 40 || bb.MinY != 30 || bb.MaxY != 50 {
		t.Errorf("unexpected bounding box %+v", bb)
	}

	empty := Parse("M104 S200")
	if empty.BoundingBox != (BoundingBox{}) {
		t.Errorf("expected zeroed box for stream without moves, got %+v", empty.BoundingBox)
	}
}

func TestParseTemperaturesAreRunningMax(t *testing.T) {
	m := Parse("M104 S215\nM109 S220\nM104 S180\nM140 S60\nM190 S65\nM140 S0")
	if m.NozzleTempMax != 220 {
		t.Errorf("expected nozzle max 220, got %f", m.NozzleTempMax)
	}
	if m.BedTempMax != 65 {
		t.Errorf("expected bed max 65, got %f", m.BedTempMax)
	}
}

func TestParseMaxSpeed(t *testing.T) {
	m := Parse("G1 F1200 X1\nG0 F9000 X2 Y2\nG1 F600 X3\nM220 F99999")
	if !almostEqual(m.MaxSpeedMmPerSec, 150) {
		t.Errorf("expected 150 mm/s, got %f", m.MaxSpeedMmPerSec)
	}
}

func TestParseIgnoresGarbage(t *testing.T) {
	text := "FOO BAR\n;;;\n\r\nG1 Xnope Y2 E1\nT0\nG1 X3 Y2 E2"
	m := Parse(text)
	if m.PrintMoveCount != 2 {
		t.Errorf("expected 2 print moves, got %d", m.PrintMoveCount)
	}
	if m.Warnings == nil {
		t.Error("warnings should be an empty slice, not nil")
	}
}

func TestParseHeaderMetadata(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		minutes  float64
		filament float64
	}{
		{"cura", ";FLAVOR:Marlin\n;TIME:5400\n;Filament used: 2.5m\n", 90, 2500},
		{"prusa", "; filament used [mm] = 1000.5\n; estimated printing time (normal mode) = 1h 2m 30s\n", 62.5, 1000.5},
		{"orca", "; model printing time: 1h; total estimated time: 2h 0m 0s\n; total filament length [mm] : 300,200\n", 120, 500},
		{"none", "G1 X1 Y1\n", 0, 0},
	}
	for _, tc := range cases {
		m := Parse(tc.text)
		if !almostEqual(m.EstimatedTimeMinutes, tc.minutes) {
			t.Errorf("%s: expected %f minutes, got %f", tc.name, tc.minutes, m.EstimatedTimeMinutes)
		}
		if !almostEqual(m.FilamentLengthMm, tc.filament) {
			t.Errorf("%s: expected %f mm filament, got %f", tc.name, tc.filament, m.FilamentLengthMm)
		}
	}
}

func TestParseFilamentWeight(t *testing.T) {
	m := Parse("; filament used [mm] = 1000\n")
	// pi * 0.0875^2 * 100 * 1.24 = 2.9825 g
	if math.Abs(m.FilamentWeightGrams-2.9825) > 0.001 {
		t.Errorf("expected ~2.98 g, got %f", m.FilamentWeightGrams)
	}
	if Parse("G1 X1").FilamentWeightGrams != 0 {
		t.Error("weight should stay zero without a filament comment")
	}
}

func TestParseRunsIndependently(t *testing.T) {
	a := Parse("M83\nG1 X1 Y1 E1")
	b := Parse("G1 X1 Y1 E1\nG1 X2 Y2 E0.5")
	if a.PrintMoveCount != 1 {
		t.Errorf("first parse: expected 1 print move, got %d", a.PrintMoveCount)
	}
	// Relative mode from the first call must not leak into the second.
	if b.RetractionCount != 1 {
		t.Errorf("second parse: expected absolute extrusion, got %d retractions", b.RetractionCount)
	}
}

func ExampleParse() {
	m := Parse("M140 S60\nG1 Z0.2\nG1 X0 Y0\nG1 X20 Y0 E1\nG1 Z0.4\nG1 X20 Y20 E2")
	fmt.Printf("layers=%d height=%.1f print=%d travel=%d bed=%.0f\n",
		m.LayerCount, m.LayerHeight, m.PrintMoveCount, m.TravelMoveCount, m.BedTempMax)
	// Output:
	// layers=2 height=0.2 print=2 travel=1 bed=60
}
