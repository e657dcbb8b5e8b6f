package mutate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"gcode-toolpath/pkg/eject"
	"gcode-toolpath/pkg/errors"
)

// PauseCommand is the instruction a layer pause emits.
type PauseCommand string

const (
	PauseM0     PauseCommand = "M0"    // unconditional stop
	PauseM1     PauseCommand = "M1"    // sleep
	PauseM25    PauseCommand = "M25"   // pause SD print
	PauseM600   PauseCommand = "M600"  // filament change
	PausePause  PauseCommand = "PAUSE" // Klipper macro
	PauseCustom PauseCommand = "custom"
)

var pauseCommands = map[PauseCommand]bool{
	PauseM0: true, PauseM1: true, PauseM25: true, PauseM600: true, PausePause: true, PauseCustom: true,
}

// InjectMode selects the index space of an injection.
type InjectMode string

const (
	InjectLayer InjectMode = "layer"
	InjectLine  InjectMode = "line"
)

// Rewrite holds the global per-line scalars. Zero percentages mean 100.
type Rewrite struct {
	SpeedPercent float64 `json:"speedPercent,omitempty" yaml:"speed_percent"`
	FanPercent   float64 `json:"fanPercent,omitempty" yaml:"fan_percent"`
	NozzleOffset float64 `json:"nozzleOffset,omitempty" yaml:"nozzle_offset"`
	BedOffset    float64 `json:"bedOffset,omitempty" yaml:"bed_offset"`
}

func (r Rewrite) speed() float64 { return percentOrFull(r.SpeedPercent) }
func (r Rewrite) fan() float64   { return percentOrFull(r.FanPercent) }

func percentOrFull(p float64) float64 {
	if p == 0 {
		return 100
	}
	return p
}

// IsIdentity reports whether the rewrite leaves every line untouched.
func (r Rewrite) IsIdentity() bool {
	return r.speed() == 100 && r.fan() == 100 && r.NozzleOffset == 0 && r.BedOffset == 0
}

// LayerPause stops the print before a layer starts. An empty Command
// means M600.
type LayerPause struct {
	Layer      int          `json:"layer" yaml:"layer"`
	Command    PauseCommand `json:"command,omitempty" yaml:"command"`
	CustomCode string       `json:"customCode,omitempty" yaml:"custom_code"`
}

func (p LayerPause) command() PauseCommand {
	if p.Command == "" {
		return PauseM600
	}
	return p.Command
}

// Injection splices Code before a layer or before a 1-based line.
type Injection struct {
	Mode   InjectMode `json:"mode" yaml:"mode"`
	Number int        `json:"number" yaml:"number"`
	Code   string     `json:"code" yaml:"code"`
}

// Directives is one mutation request.
type Directives struct {
	Rewrite    Rewrite       `json:"rewrite" yaml:"rewrite"`
	Pauses     []LayerPause  `json:"pauses,omitempty" yaml:"pauses"`
	Injections []Injection   `json:"injections,omitempty" yaml:"injections"`
	Eject      *eject.Config `json:"eject,omitempty" yaml:"eject"`

	// Printer names the profile used by the eject block.
	Printer string `json:"printer,omitempty" yaml:"printer"`
}

// IsEmpty reports whether the directives would leave any text unchanged.
func (d Directives) IsEmpty() bool {
	return d.Rewrite.IsIdentity() &&
		len(d.Pauses) == 0 &&
		len(d.Injections) == 0 &&
		(d.Eject == nil || !d.Eject.Enabled())
}

// Validate checks the directives for values the pipeline would skip or
// misapply. The pipeline itself never fails; callers use Validate to
// reject bad requests up front.
func (d Directives) Validate() error {
	rw := d.Rewrite
	if rw.SpeedPercent < 0 || rw.SpeedPercent > 1000 {
		return errors.DirectiveError("rewrite", fmt.Sprintf("speed percent %v outside 0..1000", rw.SpeedPercent))
	}
	if rw.FanPercent < 0 || rw.FanPercent > 1000 {
		return errors.DirectiveError("rewrite", fmt.Sprintf("fan percent %v outside 0..1000", rw.FanPercent))
	}

	for i, p := range d.Pauses {
		where := fmt.Sprintf("pauses[%d]", i)
		if p.Layer < 1 {
			return errors.DirectiveError(where, "layer must be at least 1")
		}
		if !pauseCommands[p.command()] {
			return errors.DirectiveError(where, fmt.Sprintf("unknown pause command %q", p.Command))
		}
		if p.command() == PauseCustom && strings.TrimSpace(p.CustomCode) == "" {
			return errors.DirectiveError(where, "custom pause needs custom code")
		}
	}

	for i, inj := range d.Injections {
		where := fmt.Sprintf("injections[%d]", i)
		if inj.Mode != InjectLayer && inj.Mode != InjectLine {
			return errors.DirectiveError(where, fmt.Sprintf("unknown mode %q", inj.Mode))
		}
		if inj.Number < 1 {
			return errors.DirectiveError(where, "number must be at least 1")
		}
		if strings.TrimSpace(inj.Code) == "" {
			return errors.DirectiveError(where, "code is empty")
		}
	}

	if e := d.Eject; e != nil {
		if e.Shake != nil && e.Shake.Repetitions < 1 {
			return errors.DirectiveError("eject.shake", "repetitions must be at least 1")
		}
		if e.Push != nil && e.Push.FeedRate <= 0 {
			return errors.DirectiveError("eject.push", "feed rate must be positive")
		}
		if e.Shake != nil && e.Shake.FeedRate <= 0 {
			return errors.DirectiveError("eject.shake", "feed rate must be positive")
		}
	}
	return nil
}

// DecodeDirectives parses a YAML directive document. Unknown keys are
// rejected.
func DecodeDirectives(data []byte) (Directives, error) {
	var d Directives
	if err := yaml.UnmarshalStrict(data, &d); err != nil {
		return Directives{}, errors.Wrap(err, errors.ErrDirectiveDecode, "unable to decode directives")
	}
	return d, nil
}

// LoadDirectives reads and decodes a directive file.
func LoadDirectives(path string) (Directives, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Directives{}, errors.InputReadError(path, err)
	}
	d, err := DecodeDirectives(data)
	if err != nil {
		return Directives{}, err.(*errors.HostError).SetFile(path)
	}
	return d, nil
}
