// Package config loads INI-style settings files: printer profiles,
// diagnostic thresholds, eject defaults and service options.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package config

import (
	stderrors "errors"
	"fmt"
)

// Problem kinds. An *OptionError unwraps to one of them.
var (
	ErrMissing = stderrors.New("must be specified")
	ErrInvalid = stderrors.New("invalid value")
	ErrRange   = stderrors.New("out of range")
	ErrChoice  = stderrors.New("not a valid choice")
	ErrUnused  = stderrors.New("not recognised")
)

// OptionError locates a problem in a settings file.
type OptionError struct {
	Section string
	Option  string
	Kind    error
	Detail  string
}

func (e *OptionError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Option != "":
		return fmt.Sprintf("[%s] %s %s", e.Section, e.Option, msg)
	case e.Section != "":
		return fmt.Sprintf("[%s] %s", e.Section, msg)
	}
	return msg
}

func (e *OptionError) Unwrap() error {
	return e.Kind
}

func missingOption(section, option string) *OptionError {
	return &OptionError{Section: section, Option: option, Kind: ErrMissing}
}

func missingSection(section string) *OptionError {
	return &OptionError{Section: section, Kind: ErrMissing, Detail: "section not found"}
}

func invalidValue(section, option, value, expected string) *OptionError {
	return &OptionError{Section: section, Option: option, Kind: ErrInvalid,
		Detail: fmt.Sprintf("'%s', expected %s", value, expected)}
}

func outOfRange(section, option string, value float64, constraint string) *OptionError {
	return &OptionError{Section: section, Option: option, Kind: ErrRange,
		Detail: fmt.Sprintf("%v %s", value, constraint)}
}

func invalidChoice(section, option, value string, choices []string) *OptionError {
	return &OptionError{Section: section, Option: option, Kind: ErrChoice,
		Detail: fmt.Sprintf("'%s' (valid: %v)", value, choices)}
}

func unusedError(section, detail string) *OptionError {
	return &OptionError{Section: section, Kind: ErrUnused, Detail: detail}
}
