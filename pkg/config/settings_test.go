package config

import (
	"os"
	"path/filepath"
	"testing"

	"gcode-toolpath/pkg/eject"
	"gcode-toolpath/pkg/errors"
)

func TestDefaultSettings(t *testing.T) {
	s, err := ParseSettings("")
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	for _, name := range []string{"generic", "a1", "a1mini"} {
		if _, ok := s.Profile(name); !ok {
			t.Errorf("built-in profile %q missing", name)
		}
	}
	if p, _ := s.Profile(""); p.Name != "generic" {
		t.Errorf("empty name should select generic, got %q", p.Name)
	}
	if p, _ := s.Profile("A1"); p.Present != eject.PresentPark {
		t.Errorf("a1 should park, got %q", p.Present)
	}
	if s.Service.Listen != DefaultListen || s.Service.TemplateDB != DefaultTemplateDB {
		t.Errorf("unexpected service defaults %+v", s.Service)
	}
	if s.Thresholds.MaxRetractions != 5000 {
		t.Errorf("unexpected thresholds %+v", s.Thresholds)
	}
}

func TestParseSettingsProfiles(t *testing.T) {
	s, err := ParseSettings(`
[printer Voron]
bed_x: 300
bed_y: 300
present: park
park_x: 150
park_y: 300

[printer a1mini]
bed_y: 185
`)
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}

	v, ok := s.Profile("voron")
	if !ok {
		t.Fatalf("profile not loaded, have %v", s.ProfileNames())
	}
	if v.BedX != 300 || v.Present != eject.PresentPark || v.ParkX != 150 {
		t.Errorf("unexpected profile %+v", v)
	}

	mini, _ := s.Profile("a1mini")
	if mini.BedY != 185 || mini.BedX != 180 || mini.HomeAxis != "X" {
		t.Errorf("override should keep built-in values: %+v", mini)
	}
}

func TestParseSettingsCustomParkNeedsCoordinates(t *testing.T) {
	_, err := ParseSettings("[printer x]\npresent: park\n")
	if err == nil {
		t.Fatal("expected error for park profile without park_x")
	}
	if !errors.IsConfig(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestParseSettingsDiagnostics(t *testing.T) {
	s, err := ParseSettings("[diagnostics]\nhardened_nozzle_temp: 300\nmax_retractions: 100\n")
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	if s.Thresholds.HardenedNozzleTemp != 300 || s.Thresholds.MaxRetractions != 100 {
		t.Errorf("overrides not applied: %+v", s.Thresholds)
	}
	if s.Thresholds.FineLayerHeight != 0.15 {
		t.Errorf("untouched threshold changed: %+v", s.Thresholds)
	}
}

func TestParseSettingsEject(t *testing.T) {
	s, err := ParseSettings(`
[eject]
cool: false
shake: true
shake_repetitions: 8
push_feed_rate: 900
`)
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	e := s.Eject
	if e.Cool != nil {
		t.Error("cool was switched off")
	}
	if e.Shake == nil || e.Shake.Repetitions != 8 {
		t.Errorf("unexpected shake %+v", e.Shake)
	}
	if e.Push == nil || e.Push.FeedRate != 900 || e.Push.Distance != 20 {
		t.Errorf("unexpected push %+v", e.Push)
	}
}

func TestParseSettingsRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"out of range": "[eject]\ncool_target_temp: 500\n",
		"bad repeats":  "[eject]\nshake_repetitions: 0\n",
		"bad bed":      "[printer z]\nbed_x: -10\n",
		"bad choice":   "[printer z]\npresent: fling\n",
	}
	for name, data := range cases {
		if _, err := ParseSettings(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseSettingsRejectsTypos(t *testing.T) {
	if _, err := ParseSettings("[servce]\nlisten: :1\n"); !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("expected unknown section error, got %v", err)
	}
	if _, err := ParseSettings("[service]\nlistn: :1\n"); !errors.Is(err, errors.ErrConfigValidation) {
		t.Errorf("expected unknown option error, got %v", err)
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolpath.cfg")
	os.WriteFile(path, []byte("[service]\nlisten: 0.0.0.0:8080\ntemplate_db: /var/lib/t.db\n"), 0o644)

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.Service.Listen != "0.0.0.0:8080" || s.Service.TemplateDB != "/var/lib/t.db" {
		t.Errorf("unexpected service settings %+v", s.Service)
	}

	_, err = LoadSettings(filepath.Join(dir, "missing.cfg"))
	if !errors.Is(err, errors.ErrConfigLoad) {
		t.Errorf("expected load error, got %v", err)
	}
}
