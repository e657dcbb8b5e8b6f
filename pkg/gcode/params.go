package gcode

import (
	"math"
	"strconv"
	"strings"

	"gcode-toolpath/pkg/pool"
)

// FormatNumber renders a parameter value with at most three decimals and
// no trailing zeros, the way slicers write them.
func FormatNumber(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReplaceParam rewrites the value of every well-formed parameter token with
// the given key. Tokens whose value fn leaves equal keep their spelling.
// The command token, spacing, parenthesised comments and the trailing
// comment are preserved byte for byte. Parenthesised comments are found
// the same way Tokenize finds them, so an unclosed "(" is plain text.
// The returned bool reports whether the line text changed.
func ReplaceParam(raw string, key byte, fn func(float64) float64) (string, bool) {
	code, tail := raw, ""
	if idx := strings.IndexByte(raw, CommentDelimiter); idx >= 0 {
		code, tail = raw[:idx], raw[idx:]
	}

	sb := pool.Lines.Get()
	defer pool.Lines.Put(sb)
	changed := false
	seenCommand := false
	spans := parenSpans(code)
	i := 0
	for i < len(code) {
		if len(spans) > 0 && i == spans[0][0] {
			sb.WriteString(code[spans[0][0]:spans[0][1]])
			i = spans[0][1]
			spans = spans[1:]
			continue
		}
		if isSpace(code[i]) {
			sb.WriteByte(code[i])
			i++
			continue
		}

		stop := len(code)
		if len(spans) > 0 {
			stop = spans[0][0]
		}
		j := i
		for j < stop && !isSpace(code[j]) {
			j++
		}
		tok := code[i:j]
		i = j

		if !seenCommand {
			seenCommand = true
			sb.WriteString(tok)
			continue
		}
		k, v, ok := parseParam(tok)
		if !ok || k != key {
			sb.WriteString(tok)
			continue
		}
		nv := fn(v)
		if nv == v {
			sb.WriteString(tok)
			continue
		}
		changed = true
		sb.WriteString(tok[:1] + FormatNumber(nv))
	}
	if !changed {
		return raw, false
	}
	sb.WriteString(tail)
	return sb.String(), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}
