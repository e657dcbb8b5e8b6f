package layers

import (
	"strings"
	"testing"
)

func TestLocateExplicitMarkers(t *testing.T) {
	lines := []string{
		"; header",        // 0
		";LAYER:1",        // 1
		"G1 X1 Y1 E1",     // 2
		"; layer 2",       // 3
		"G1 X2 Y2 E2",     // 4
		";Layer #3 start", // 5
	}
	m := Locate(lines)
	for layer, want := range map[int]int{1: 1, 2: 3, 3: 5} {
		got, ok := m.Lookup(layer)
		if !ok || got != want {
			t.Errorf("layer %d: expected line %d, got %d (%v)", layer, want, got, ok)
		}
	}
}

func TestLocateIgnoresNonLayerKeywords(t *testing.T) {
	m := Locate([]string{";LAYER_COUNT:120", "; layer_height = 0.2", ";LAYER_CHANGE"})
	if len(m) != 0 {
		t.Errorf("expected no layers, got %v", m)
	}
}

func TestLocateZFallback(t *testing.T) {
	lines := strings.Split("G28\nG1 Z0.2\nG1 X1 Y1 E1\nG1 Z0.4\nG1 X2 Y2 E2\nG1 Z0.6", "\n")
	m := Locate(lines)
	for layer, want := range map[int]int{1: 1, 2: 3, 3: 5} {
		if got, ok := m.Lookup(layer); !ok || got != want {
			t.Errorf("layer %d: expected line %d, got %d (%v)", layer, want, got, ok)
		}
	}
	if _, ok := m.Lookup(4); ok {
		t.Error("layer 4 should not exist")
	}
}

func TestLocateFirstMatchWins(t *testing.T) {
	lines := []string{
		";LAYER:1", // 0 explicit layer 1
		"G1 Z0.2",  // 1 fallback layer 1, already mapped
		"G1 Z0.1",  // 2 descend, ignored
		"G1 Z0.4",  // 3 fallback layer 2
		";LAYER:2", // 4 explicit layer 2, already mapped
	}
	m := Locate(lines)
	if got, _ := m.Lookup(1); got != 0 {
		t.Errorf("layer 1: expected line 0, got %d", got)
	}
	if got, _ := m.Lookup(2); got != 3 {
		t.Errorf("layer 2: expected line 3, got %d", got)
	}
}

func TestLocateZHopCountsAsLayer(t *testing.T) {
	// Known approximation: a lift then drop still advances the counter.
	m := Locate([]string{"G1 Z0.2", "G1 Z0.6", "G1 Z0.2", "G1 Z0.4", "G1 Z0.8"})
	if got, ok := m.Lookup(3); !ok || got != 4 {
		t.Errorf("expected layer 3 at line 4, got %d (%v)", got, ok)
	}
}

func TestLayersSorted(t *testing.T) {
	m := IndexMap{5: 50, 1: 10, 3: 30}
	got := m.Layers()
	if len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Errorf("unexpected order %v", got)
	}
}
