// Package gcode splits raw G-code lines into a command code and its
// single-letter numeric parameters.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package gcode

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Command codes the engine understands. Anything else is carried through
// untouched and ignored by the extractor.
const (
	CmdRapidMove    = "G0"
	CmdLinearMove   = "G1"
	CmdArcCW        = "G2"
	CmdArcCCW       = "G3"
	CmdDwell        = "G4"
	CmdHome         = "G28"
	CmdAbsolutePos  = "G90"
	CmdRelativePos  = "G91"
	CmdSetPosition  = "G92"
	CmdAbsoluteExtr = "M82"
	CmdRelativeExtr = "M83"
	CmdSetNozzle    = "M104"
	CmdWaitNozzle   = "M109"
	CmdSetBed       = "M140"
	CmdWaitBed      = "M190"
	CmdFanOn        = "M106"
	CmdFanOff       = "M107"
	CmdMotorsOff    = "M84"
)

// CommentDelimiter starts a trailing comment.
const CommentDelimiter = ';'

// Line is one tokenized line of G-code.
type Line struct {
	// Blank is true when nothing but whitespace and comments remain.
	Blank bool

	// Command is the upper-cased first token, e.g. "G1" or "M104".
	Command string

	// Params holds letter -> value for every well-formed parameter token.
	Params map[byte]float64

	// Comment is the text after the comment delimiter, without the delimiter.
	Comment string

	// Raw is the untouched input line.
	Raw string
}

var reParenComment = regexp.MustCompile(`\([^)]*\)`)

// parenSpans returns the byte ranges of the closed "(...)" comments in code.
// An unclosed "(" is not a comment.
func parenSpans(code string) [][]int {
	if strings.IndexByte(code, '(') < 0 {
		return nil
	}
	return reParenComment.FindAllStringIndex(code, -1)
}

// Tokenize parses a single raw line. It never fails: malformed parameter
// tokens are dropped and an empty command portion yields a Blank line.
func Tokenize(raw string) Line {
	ln := Line{Raw: raw}

	code := raw
	if idx := strings.IndexByte(code, CommentDelimiter); idx >= 0 {
		ln.Comment = strings.TrimSpace(code[idx+1:])
		code = code[:idx]
	}
	if spans := parenSpans(code); len(spans) > 0 {
		var sb strings.Builder
		last := 0
		for _, sp := range spans {
			sb.WriteString(code[last:sp[0]])
			sb.WriteByte(' ')
			last = sp[1]
		}
		sb.WriteString(code[last:])
		code = sb.String()
	}

	fields := strings.Fields(code)
	if len(fields) == 0 {
		ln.Blank = true
		return ln
	}

	ln.Command = strings.ToUpper(fields[0])
	for _, f := range fields[1:] {
		key, val, ok := parseParam(f)
		if !ok {
			continue
		}
		if ln.Params == nil {
			ln.Params = make(map[byte]float64, len(fields)-1)
		}
		ln.Params[key] = val
	}
	return ln
}

// parseParam parses a letter+number token such as "X12.5" or "e-0.8".
func parseParam(tok string) (byte, float64, bool) {
	if len(tok) < 2 {
		return 0, 0, false
	}
	key := tok[0]
	switch {
	case key >= 'a' && key <= 'z':
		key -= 'a' - 'A'
	case key >= 'A' && key <= 'Z':
	default:
		return 0, 0, false
	}
	v, err := strconv.ParseFloat(tok[1:], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, 0, false
	}
	return key, v, true
}

// Has reports whether the parameter was present and well-formed.
func (l Line) Has(key byte) bool {
	_, ok := l.Params[key]
	return ok
}

// Get returns a parameter value.
func (l Line) Get(key byte) (float64, bool) {
	v, ok := l.Params[key]
	return v, ok
}

// IsMotion reports whether the command is a linear or arc move.
func (l Line) IsMotion() bool {
	switch l.Command {
	case CmdRapidMove, CmdLinearMove, CmdArcCW, CmdArcCCW:
		return true
	}
	return false
}

// IsNozzleTemp reports whether the command sets the hotend temperature.
func (l Line) IsNozzleTemp() bool {
	return l.Command == CmdSetNozzle || l.Command == CmdWaitNozzle
}

// IsBedTemp reports whether the command sets the bed temperature.
func (l Line) IsBedTemp() bool {
	return l.Command == CmdSetBed || l.Command == CmdWaitBed
}
