package config

import (
	"sort"
	"strings"

	"gcode-toolpath/pkg/eject"
)

// ProfilePrefix is the section prefix of printer profiles: "[printer a1]".
const ProfilePrefix = "printer "

// BuiltinProfiles returns the profiles available without a settings file.
func BuiltinProfiles() map[string]eject.Profile {
	return map[string]eject.Profile{
		"generic": {Name: "generic", BedX: 220, BedY: 220, Present: eject.PresentHome, HomeAxis: "X"},
		"a1":      {Name: "a1", BedX: 256, BedY: 256, Present: eject.PresentPark, ParkX: 65, ParkY: 256},
		"a1mini":  {Name: "a1mini", BedX: 180, BedY: 180, Present: eject.PresentHome, HomeAxis: "X"},
	}
}

var presentChoices = []string{string(eject.PresentHome), string(eject.PresentPark)}

// loadPrinterProfile is the registry factory for "[printer <name>]".
func loadPrinterProfile(section *Section) (eject.Profile, error) {
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(section.Name(), ProfilePrefix)))
	if name == "" {
		return eject.Profile{}, &OptionError{Section: section.Name(), Kind: ErrMissing, Detail: "printer name"}
	}

	// Named after a built-in: start from it so a file only overrides
	// what it lists.
	base, ok := BuiltinProfiles()[name]
	if !ok {
		base = BuiltinProfiles()["generic"]
	}
	p := base
	p.Name = name

	var err error
	if p.BedX, err = section.FloatIn("bed_x", Positive(), base.BedX); err != nil {
		return eject.Profile{}, err
	}
	if p.BedY, err = section.FloatIn("bed_y", Positive(), base.BedY); err != nil {
		return eject.Profile{}, err
	}
	present, err := section.Choice("present", presentChoices, string(base.Present))
	if err != nil {
		return eject.Profile{}, err
	}
	p.Present = eject.PresentMode(present)

	axis, err := section.Choice("home_axis", []string{"X", "Y", "Z"}, fallbackAxis(base.HomeAxis))
	if err != nil {
		return eject.Profile{}, err
	}
	p.HomeAxis = axis
	if p.ParkX, err = section.FloatIn("park_x", Min(0), base.ParkX); err != nil {
		return eject.Profile{}, err
	}
	if p.ParkY, err = section.FloatIn("park_y", Min(0), base.ParkY); err != nil {
		return eject.Profile{}, err
	}
	if p.Present == eject.PresentPark && !section.Has("park_x") && !ok {
		return eject.Profile{}, missingOption(section.Name(), "park_x")
	}
	return p, nil
}

func fallbackAxis(axis string) string {
	if axis == "" {
		return "X"
	}
	return axis
}

// ProfileNames returns the known profile names, sorted.
func (s *Settings) ProfileNames() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the named profile. The empty name selects "generic".
func (s *Settings) Profile(name string) (eject.Profile, bool) {
	if name == "" {
		name = "generic"
	}
	p, ok := s.Profiles[strings.ToLower(name)]
	return p, ok
}
