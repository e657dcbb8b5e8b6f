package eject

import (
	"fmt"
	"strings"
	"testing"

	"gcode-toolpath/pkg/toolpath"
)

var testBed = Profile{Name: "test", BedX: 200, BedY: 180, Present: PresentHome, HomeAxis: "x"}

func indexOf(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}

func TestSynthesizeNothingEnabled(t *testing.T) {
	if got := Synthesize(Config{}, testBed, nil); got != nil {
		t.Errorf("expected no lines, got %v", got)
	}
}

func TestSynthesizeBlockOrder(t *testing.T) {
	cfg := Config{
		Cool:  &Cool{TargetTemp: 30, WaitSeconds: 60},
		Shake: &Shake{Distance: 5, FeedRate: 3000, Repetitions: 2},
		Push:  &Push{Distance: 20, FeedRate: 1200},
	}
	lines := Synthesize(cfg, testBed, nil)

	markers := []string{
		"; eject: cool and release",
		"; eject: bed shake",
		"; eject: push off",
		"; eject: cleanup",
	}
	prev := -1
	for _, m := range markers {
		idx := indexOf(lines, m)
		if idx < 0 {
			t.Fatalf("missing %q in %v", m, lines)
		}
		if idx <= prev {
			t.Errorf("%q out of order", m)
		}
		prev = idx
	}

	tail := lines[len(lines)-4:]
	want := []string{"M104 S0", "M140 S0", "M107", "M84"}
	for i := range want {
		if tail[i] != want[i] {
			t.Errorf("cleanup line %d: expected %q, got %q", i, want[i], tail[i])
		}
	}
}

func TestSynthesizeOmitsDisabledBlocks(t *testing.T) {
	lines := Synthesize(Config{Shake: &Shake{Distance: 5, FeedRate: 3000, Repetitions: 1}}, testBed, nil)
	if indexOf(lines, "; eject: cool and release") >= 0 || indexOf(lines, "; eject: push off") >= 0 {
		t.Errorf("disabled blocks emitted: %v", lines)
	}
	if indexOf(lines, "; eject: cleanup") < 0 {
		t.Error("cleanup must follow any enabled block")
	}
}

func TestCoolPresentMotion(t *testing.T) {
	cfg := Config{Cool: &Cool{TargetTemp: 25, WaitSeconds: 30}}

	lines := Synthesize(cfg, testBed, nil)
	if indexOf(lines, "G28 X") < 0 {
		t.Errorf("home profile should home X: %v", lines)
	}
	if indexOf(lines, "M190 R25") < 0 || indexOf(lines, "G4 S30") < 0 {
		t.Errorf("missing bed wait or dwell: %v", lines)
	}

	park := Profile{BedX: 256, BedY: 256, Present: PresentPark, ParkX: 65, ParkY: 260}
	lines = Synthesize(cfg, park, nil)
	if indexOf(lines, "G1 X65 Y260 F6000") < 0 {
		t.Errorf("park profile should move to the park point: %v", lines)
	}
	if indexOf(lines, "G28 X") >= 0 {
		t.Error("park profile should not home")
	}
}

func TestShakeRepetitions(t *testing.T) {
	lines := Synthesize(Config{Shake: &Shake{Distance: 4, FeedRate: 2400, Repetitions: 3}}, testBed, nil)
	fwd, back := 0, 0
	for _, l := range lines {
		switch l {
		case "G1 Y4 F2400":
			fwd++
		case "G1 Y-4 F2400":
			back++
		}
	}
	if fwd != 3 || back != 3 {
		t.Errorf("expected 3 strokes each way, got %d/%d", fwd, back)
	}
	if indexOf(lines, "G1 X100 Y90 F6000") < 0 {
		t.Errorf("shake should start at bed centre: %v", lines)
	}
}

func TestPushUsesGeometry(t *testing.T) {
	m := &toolpath.Metrics{
		FirstLayerHeight: 0.28,
		BoundingBox:      toolpath.BoundingBox{MinX: 40, MinY: 50, MaxX: 80, MaxY: 100},
	}
	lines := Synthesize(Config{Push: &Push{Distance: 30, FeedRate: 1500}}, testBed, m)

	for _, want := range []string{
		"G1 X60 Y110 F6000", // behind the part
		"G1 Z0.58 F600",     // first layer + clearance
		"G1 Y20 F1500",      // across and past the front edge
	} {
		if indexOf(lines, want) < 0 {
			t.Errorf("missing %q in %v", want, lines)
		}
	}
}

func TestPushClampsToBed(t *testing.T) {
	m := &toolpath.Metrics{BoundingBox: toolpath.BoundingBox{MinX: 10, MinY: 5, MaxX: 30, MaxY: 175}}
	lines := Synthesize(Config{Push: &Push{Distance: 30, FeedRate: 1500}}, testBed, m)
	if indexOf(lines, "G1 X20 Y180 F6000") < 0 {
		t.Errorf("start should clamp to bed depth: %v", lines)
	}
	if indexOf(lines, "G1 Y0 F1500") < 0 {
		t.Errorf("end should clamp at zero: %v", lines)
	}
	if indexOf(lines, "G1 Z0.5 F600") < 0 {
		t.Errorf("unknown first layer should assume 0.2: %v", lines)
	}
}

func TestPushWithoutGeometry(t *testing.T) {
	lines := Synthesize(Config{Push: &Push{Distance: 10, FeedRate: 1000}}, testBed, &toolpath.Metrics{})
	if indexOf(lines, "G1 X100 Y180 F6000") < 0 {
		t.Errorf("expected bed centre and depth, got %v", lines)
	}
}

func TestPushClearsTallPart(t *testing.T) {
	m := toolpath.Parse(`G1 Z0.2 F600
G1 X100 Y100 F6000
G1 X110 Y100 E1
G1 X110 Y110 E2
G1 Z50
G1 X100 Y100 E3
`)
	lines := Synthesize(Config{Push: &Push{Distance: 10, FeedRate: 1200}}, testBed, m)
	start := indexOf(lines, "; eject: push off")
	if start < 0 {
		t.Fatalf("no push block in %v", lines)
	}
	want := []string{
		"G90",
		"G1 Z60 F600",        // above the part before any XY travel
		"G1 X105 Y120 F6000", // behind the part
		"G1 Z0.5 F600",
		"G1 Y90 F1200",
		"G90",
		"G1 Z60 F600",
	}
	got := lines[start+1 : start+1+len(want)]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("push block = %v, want %v", got, want)
		}
	}
}

func TestPushLiftsRelativelyWithoutHeight(t *testing.T) {
	for _, m := range []*toolpath.Metrics{nil, {}} {
		lines := Synthesize(Config{Push: &Push{Distance: 10, FeedRate: 1000}}, testBed, m)
		start := indexOf(lines, "; eject: push off")
		if start < 0 || len(lines) < start+4 {
			t.Fatalf("no push block in %v", lines)
		}
		if lines[start+1] != "G91" || lines[start+2] != "G1 Z10 F600" || lines[start+3] != "G90" {
			t.Errorf("expected a relative lift before travel, got %v", lines[start:])
		}
	}
}

func ExampleSynthesize() {
	lines := Synthesize(Config{Shake: &Shake{Distance: 5, FeedRate: 3000, Repetitions: 1}},
		Profile{BedX: 180, BedY: 180, Present: PresentHome}, nil)
	fmt.Println(strings.Join(lines, "\n"))
	// Output:
	// ; eject: bed shake
	// G90
	// G1 X90 Y90 F6000
	// G91
	// G1 Y5 F3000
	// G1 Y-5 F3000
	// G90
	// ; eject: cleanup
	// M104 S0
	// M140 S0
	// M107
	// M84
}
