package config

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Section is one "[name]" block of a settings file. Every getter marks the
// option as read, so leftovers can be reported as typos.
type Section struct {
	name    string
	options map[string]string

	mu   sync.Mutex
	read map[string]bool
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{name: name, options: opts, read: make(map[string]bool)}
}

// Name returns the section header without brackets.
func (s *Section) Name() string {
	return s.name
}

// Has reports whether the option is present. It does not mark it read.
func (s *Section) Has(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// UnusedOptions returns the options no getter asked for, sorted.
func (s *Section) UnusedOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for opt := range s.options {
		if !s.read[opt] {
			names = append(names, opt)
		}
	}
	sort.Strings(names)
	return names
}

// value resolves option through parse. An absent option yields the first
// fallback, or a missing-option error when there is none.
func value[T any](s *Section, option string, parse func(raw string) (T, string, bool), fallback []T) (T, error) {
	var zero T
	key := strings.ToLower(option)
	raw, ok := s.options[key]
	if ok || len(fallback) > 0 {
		s.mu.Lock()
		s.read[key] = true
		s.mu.Unlock()
	}
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return zero, missingOption(s.name, option)
	}
	raw = strings.TrimSpace(raw)
	v, expected, ok := parse(raw)
	if !ok {
		return zero, invalidValue(s.name, option, raw, expected)
	}
	return v, nil
}

// String returns the trimmed option text.
func (s *Section) String(option string, fallback ...string) (string, error) {
	return value(s, option, func(raw string) (string, string, bool) {
		return raw, "", true
	}, fallback)
}

// Int returns a base-10 integer option.
func (s *Section) Int(option string, fallback ...int) (int, error) {
	return value(s, option, func(raw string) (int, string, bool) {
		i, err := strconv.Atoi(raw)
		return i, "integer", err == nil
	}, fallback)
}

// Float returns a floating point option.
func (s *Section) Float(option string, fallback ...float64) (float64, error) {
	return value(s, option, func(raw string) (float64, string, bool) {
		f, err := strconv.ParseFloat(raw, 64)
		return f, "number", err == nil
	}, fallback)
}

// Bool accepts 1/true/yes/on and 0/false/no/off.
func (s *Section) Bool(option string, fallback ...bool) (bool, error) {
	return value(s, option, func(raw string) (bool, string, bool) {
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "on":
			return true, "", true
		case "0", "false", "no", "off":
			return false, "", true
		}
		return false, "boolean (true/false/yes/no/on/off/1/0)", false
	}, fallback)
}

// List splits an option on sep, dropping empty items.
func (s *Section) List(option, sep string, fallback ...[]string) ([]string, error) {
	return value(s, option, func(raw string) ([]string, string, bool) {
		items := []string{}
		for _, p := range strings.Split(raw, sep) {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		return items, "", true
	}, fallback)
}

// Choice returns an option that must be one of choices, compared without
// case. The spelling from choices is returned.
func (s *Section) Choice(option string, choices []string, fallback ...string) (string, error) {
	v, err := s.String(option, fallback...)
	if err != nil {
		return "", err
	}
	for _, c := range choices {
		if strings.EqualFold(v, c) {
			return c, nil
		}
	}
	return "", invalidChoice(s.name, option, v, choices)
}

// Range limits a numeric option. A nil check passes everything.
type Range struct {
	check func(v float64) string
}

// Min accepts v >= min.
func Min(min float64) Range {
	return Range{func(v float64) string {
		if v < min {
			return "must have minimum of " + formatBound(min)
		}
		return ""
	}}
}

// Between accepts min <= v <= max.
func Between(min, max float64) Range {
	return Range{func(v float64) string {
		if msg := Min(min).check(v); msg != "" {
			return msg
		}
		if v > max {
			return "must have maximum of " + formatBound(max)
		}
		return ""
	}}
}

// Positive accepts v > 0.
func Positive() Range {
	return Range{func(v float64) string {
		if v <= 0 {
			return "must be above 0"
		}
		return ""
	}}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FloatIn returns a floating point option that must fall inside r.
func (s *Section) FloatIn(option string, r Range, fallback ...float64) (float64, error) {
	v, err := s.Float(option, fallback...)
	if err != nil {
		return 0, err
	}
	if r.check != nil {
		if msg := r.check(v); msg != "" {
			return 0, outOfRange(s.name, option, v, msg)
		}
	}
	return v, nil
}
