// Error types for the boundaries of the toolpath engine: settings files,
// mutation directives, the template store, input files and service requests.
// Parsing and mutation themselves never fail.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Settings file errors
	ErrConfigLoad       ErrorCode = "CONFIG_LOAD"
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Mutation directive errors
	ErrDirectiveInvalid ErrorCode = "DIRECTIVE_INVALID"
	ErrDirectiveDecode  ErrorCode = "DIRECTIVE_DECODE"

	// Template store errors
	ErrTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrTemplateBuiltIn  ErrorCode = "TEMPLATE_BUILT_IN"
	ErrTemplateInvalid  ErrorCode = "TEMPLATE_INVALID"
	ErrTemplateStore    ErrorCode = "TEMPLATE_STORE"

	// IO and transport errors
	ErrInputRead      ErrorCode = "INPUT_READ"
	ErrOutputWrite    ErrorCode = "OUTPUT_WRITE"
	ErrServiceRequest ErrorCode = "SERVICE_REQUEST"
)

// HostError carries an error code plus where the problem was found.
type HostError struct {
	Code    ErrorCode
	Message string

	// File and Line locate the error in an input file, when known.
	File string
	Line int

	// Section names the settings section or directive the error refers to.
	Section string

	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *HostError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("[%s] %s:%d: %s", e.Code, e.File, e.Line, msg)
	case e.File != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.File, msg)
	case e.Section != "":
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetFile sets the source file
func (e *HostError) SetFile(file string) *HostError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *HostError) SetLine(line int) *HostError {
	e.Line = line
	return e
}

// SetSection sets the context section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetContext adds additional context
func (e *HostError) SetContext(key string, value interface{}) *HostError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a HostError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *HostError {
	return New(code, fmt.Sprintf(format, args...))
}

// ConfigLoadError reports a settings file that could not be read or parsed.
func ConfigLoadError(path string, err error) *HostError {
	return Wrap(err, ErrConfigLoad, "unable to load settings").SetFile(path)
}

// ConfigValidationError reports a bad value inside a section.
func ConfigValidationError(section string, err error) *HostError {
	return Wrap(err, ErrConfigValidation, "invalid settings").SetSection(section)
}

// DirectiveError reports a directive that fails validation.
func DirectiveError(directive, reason string) *HostError {
	return New(ErrDirectiveInvalid, reason).SetSection(directive)
}

// TemplateNotFoundError reports an unknown template ID.
func TemplateNotFoundError(id string) *HostError {
	return Newf(ErrTemplateNotFound, "template %q not found", id)
}

// InputReadError reports an unreadable input file.
func InputReadError(path string, err error) *HostError {
	return Wrap(err, ErrInputRead, "unable to read input").SetFile(path)
}

// OutputWriteError reports an output file that could not be written.
func OutputWriteError(path string, err error) *HostError {
	return Wrap(err, ErrOutputWrite, "unable to write output").SetFile(path)
}

// Is reports whether err, or any error it wraps, is a HostError with code.
func Is(err error, code ErrorCode) bool {
	var hostErr *HostError
	if stderrors.As(err, &hostErr) {
		return hostErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first HostError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var hostErr *HostError
	if stderrors.As(err, &hostErr) {
		return hostErr.Code
	}
	return ""
}

// IsConfig checks if error is a settings error
func IsConfig(err error) bool {
	return Is(err, ErrConfigLoad) ||
		Is(err, ErrConfigSection) ||
		Is(err, ErrConfigValidation)
}

// IsDirective checks if error comes from directive decoding or validation.
func IsDirective(err error) bool {
	return Is(err, ErrDirectiveInvalid) || Is(err, ErrDirectiveDecode)
}

// IsTemplate checks if error comes from the template store.
func IsTemplate(err error) bool {
	return Is(err, ErrTemplateNotFound) ||
		Is(err, ErrTemplateBuiltIn) ||
		Is(err, ErrTemplateInvalid) ||
		Is(err, ErrTemplateStore)
}
