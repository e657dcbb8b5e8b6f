package config

import (
	"os"

	"gcode-toolpath/pkg/eject"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/toolpath"
)

// Service defaults.
const (
	DefaultListen     = "127.0.0.1:7130"
	DefaultTemplateDB = "templates.db"
)

// ServiceSettings configures the HTTP service.
type ServiceSettings struct {
	Listen     string
	TemplateDB string
	LogFile    string
}

// Settings is everything a settings file can configure.
type Settings struct {
	Profiles   map[string]eject.Profile
	Thresholds toolpath.Thresholds

	// Eject is used when a caller asks for an eject block without
	// spelling one out. Only blocks switched on in [eject] are set.
	Eject eject.Config

	Service ServiceSettings
}

// DefaultSettings returns the settings in effect without a file.
func DefaultSettings() *Settings {
	return &Settings{
		Profiles:   BuiltinProfiles(),
		Thresholds: toolpath.DefaultThresholds(),
		Eject: eject.Config{
			Cool: &eject.Cool{TargetTemp: 25, WaitSeconds: 60},
			Push: &eject.Push{Distance: 20, FeedRate: 1200},
		},
		Service: ServiceSettings{
			Listen:     DefaultListen,
			TemplateDB: DefaultTemplateDB,
		},
	}
}

// LoadSettings reads and applies a settings file on top of the defaults.
func LoadSettings(path string) (*Settings, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.ConfigLoadError(path, err)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, errors.ConfigLoadError(path, err)
	}
	s, err := fromConfig(cfg)
	if err != nil {
		if hostErr, ok := err.(*errors.HostError); ok {
			hostErr.SetFile(path)
		}
		return nil, err
	}
	return s, nil
}

// ParseSettings applies settings text on top of the defaults.
func ParseSettings(data string) (*Settings, error) {
	cfg, err := LoadString(data)
	if err != nil {
		return nil, errors.ConfigLoadError("<string>", err)
	}
	return fromConfig(cfg)
}

func fromConfig(cfg *Config) (*Settings, error) {
	s := DefaultSettings()

	profiles, err := NewRegistry[eject.Profile]().Prefix(ProfilePrefix, loadPrinterProfile).Build(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigSection, "printer profile")
	}
	for _, p := range profiles {
		s.Profiles[p.Name] = p
	}

	for _, step := range []struct {
		name  string
		apply func(*Section, *Settings) error
	}{
		{"diagnostics", applyDiagnostics},
		{"eject", applyEject},
		{"service", applyService},
	} {
		sec := cfg.Optional(step.name)
		if sec == nil {
			continue
		}
		if err := step.apply(sec, s); err != nil {
			return nil, errors.ConfigValidationError(step.name, err)
		}
	}

	if err := cfg.CheckSections(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigSection, "unknown section")
	}
	if err := cfg.CheckOptions(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValidation, "unknown option")
	}
	return s, nil
}

func applyDiagnostics(sec *Section, s *Settings) error {
	th := &s.Thresholds
	var err error
	if th.MinDimensionMm, err = sec.FloatIn("min_dimension", Min(0), th.MinDimensionMm); err != nil {
		return err
	}
	if th.MaxRetractions, err = sec.Int("max_retractions", th.MaxRetractions); err != nil {
		return err
	}
	if th.LongPrintMinutes, err = sec.FloatIn("long_print_minutes", Min(0), th.LongPrintMinutes); err != nil {
		return err
	}
	if th.FineLayerHeight, err = sec.FloatIn("fine_layer_height", Min(0), th.FineLayerHeight); err != nil {
		return err
	}
	if th.HardenedNozzleTemp, err = sec.FloatIn("hardened_nozzle_temp", Min(0), th.HardenedNozzleTemp); err != nil {
		return err
	}
	if th.MinPrintMovesForBed, err = sec.Int("min_print_moves_for_bed", th.MinPrintMovesForBed); err != nil {
		return err
	}
	return nil
}

// applyEject reads "[eject]". Each block is switched with cool/shake/push
// and keeps the default parameters for options the section leaves out.
func applyEject(sec *Section, s *Settings) error {
	cool := eject.Cool{TargetTemp: 25, WaitSeconds: 60}
	shake := eject.Shake{Distance: 5, FeedRate: 3000, Repetitions: 5}
	push := eject.Push{Distance: 20, FeedRate: 1200}
	var err error

	if cool.TargetTemp, err = sec.FloatIn("cool_target_temp", Between(0, 120), cool.TargetTemp); err != nil {
		return err
	}
	if cool.WaitSeconds, err = sec.FloatIn("cool_wait_seconds", Min(0), cool.WaitSeconds); err != nil {
		return err
	}
	if shake.Distance, err = sec.FloatIn("shake_distance", Positive(), shake.Distance); err != nil {
		return err
	}
	if shake.FeedRate, err = sec.FloatIn("shake_feed_rate", Positive(), shake.FeedRate); err != nil {
		return err
	}
	if shake.Repetitions, err = sec.Int("shake_repetitions", shake.Repetitions); err != nil {
		return err
	}
	if shake.Repetitions < 1 {
		return outOfRange(sec.Name(), "shake_repetitions", float64(shake.Repetitions), "must have minimum of 1")
	}
	if push.Distance, err = sec.FloatIn("push_distance", Min(0), push.Distance); err != nil {
		return err
	}
	if push.FeedRate, err = sec.FloatIn("push_feed_rate", Positive(), push.FeedRate); err != nil {
		return err
	}

	cfg := eject.Config{}
	on, err := sec.Bool("cool", s.Eject.Cool != nil)
	if err != nil {
		return err
	}
	if on {
		cfg.Cool = &cool
	}
	if on, err = sec.Bool("shake", s.Eject.Shake != nil); err != nil {
		return err
	}
	if on {
		cfg.Shake = &shake
	}
	if on, err = sec.Bool("push", s.Eject.Push != nil); err != nil {
		return err
	}
	if on {
		cfg.Push = &push
	}
	s.Eject = cfg
	return nil
}

func applyService(sec *Section, s *Settings) error {
	var err error
	if s.Service.Listen, err = sec.String("listen", s.Service.Listen); err != nil {
		return err
	}
	if s.Service.TemplateDB, err = sec.String("template_db", s.Service.TemplateDB); err != nil {
		return err
	}
	if s.Service.LogFile, err = sec.String("log_file", s.Service.LogFile); err != nil {
		return err
	}
	return nil
}
