package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferLogger(prefix string, format OutputFormat) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(prefix)
	l.SetWriter(&buf)
	l.SetFormat(format)
	l.SetLevel(DEBUG)
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) JSONLogEntry {
	t.Helper()
	var entry JSONLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return entry
}

func TestTextLine(t *testing.T) {
	l, buf := newBufferLogger("mutate", FormatText)
	l.Info("applied %d stages", 3)

	line := buf.String()
	for _, want := range []string{"[INFO ]", "mutate: applied 3 stages"} {
		if !strings.Contains(line, want) {
			t.Errorf("missing %q in %q", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("line not terminated: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	cases := []struct {
		min  LogLevel
		emit func(*Logger)
		seen bool
	}{
		{INFO, func(l *Logger) { l.Debug("x") }, false},
		{INFO, func(l *Logger) { l.Info("x") }, true},
		{WARN, func(l *Logger) { l.Info("x") }, false},
		{WARN, func(l *Logger) { l.Warn("x") }, true},
		{ERROR, func(l *Logger) { l.Warn("x") }, false},
		{ERROR, func(l *Logger) { l.WithField("k", 1).Error("x") }, true},
	}
	for i, tc := range cases {
		l, buf := newBufferLogger("t", FormatText)
		l.SetLevel(tc.min)
		tc.emit(l)
		if got := buf.Len() > 0; got != tc.seen {
			t.Errorf("case %d: min %v, output %q", i, tc.min, buf.String())
		}
		if l.Enabled(DEBUG) != (tc.min == DEBUG) {
			t.Errorf("case %d: Enabled(DEBUG) wrong for %v", i, tc.min)
		}
	}
}

func TestJSONEntry(t *testing.T) {
	l, buf := newBufferLogger("server", FormatJSON)
	l.WithFields(Fields{"file": "part.gcode", "stage": "rewrite"}).Warn("slow request")

	e := decodeEntry(t, buf)
	if e.Level != "WARN" || e.Logger != "server" || e.Message != "slow request" {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Fields["file"] != "part.gcode" || e.Fields["stage"] != "rewrite" {
		t.Errorf("unexpected fields %v", e.Fields)
	}
	if e.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func TestTextFieldsSorted(t *testing.T) {
	l, buf := newBufferLogger("cli", FormatText)
	l.WithField("stage", "pauses").WithField("applied", 2).Info("done")

	if !strings.Contains(buf.String(), "{applied=2, stage=pauses}") {
		t.Errorf("fields not rendered in key order: %q", buf.String())
	}
}

func TestWithErrorField(t *testing.T) {
	l, buf := newBufferLogger("templates", FormatJSON)
	l.WithError(errors.New("template not found")).Error("lookup failed")

	if e := decodeEntry(t, buf); e.Fields["error"] != "template not found" {
		t.Errorf("expected error field, got %v", e.Fields)
	}
}

func TestEntryFieldsAccumulate(t *testing.T) {
	l, buf := newBufferLogger("t", FormatJSON)
	l.WithField("a", 1).WithFields(Fields{"b": 2}).WithField("c", 3).Info("chained")

	if e := decodeEntry(t, buf); len(e.Fields) != 3 {
		t.Errorf("expected 3 fields, got %v", e.Fields)
	}
}

func TestWithPersistsFields(t *testing.T) {
	l, buf := newBufferLogger("server", FormatJSON)
	reqLog := l.With(Fields{"request": "abc"})
	reqLog.WithField("status", 200).Info("done")

	e := decodeEntry(t, buf)
	if e.Fields["request"] != "abc" || e.Fields["status"] != float64(200) {
		t.Errorf("unexpected fields %v", e.Fields)
	}

	buf.Reset()
	l.Info("root")
	if e := decodeEntry(t, buf); e.Fields != nil {
		t.Errorf("root logger picked up child fields: %v", e.Fields)
	}
}

func TestWithPrefixSharesSink(t *testing.T) {
	l, buf := newBufferLogger("toolpath", FormatText)
	child := l.WithPrefix("report")
	l.SetLevel(ERROR)
	child.Info("hidden")
	child.Error("render failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("child ignored parent level: %q", out)
	}
	if !strings.Contains(out, "report: render failed") {
		t.Errorf("expected child prefix, got %q", out)
	}
}

func TestCallerLocation(t *testing.T) {
	for _, format := range []OutputFormat{FormatText, FormatJSON} {
		l, buf := newBufferLogger("t", format)
		l.SetCaller(true)
		l.Info("where")
		if !strings.Contains(buf.String(), "logger_test.go:") {
			t.Errorf("format %v: caller missing in %q", format, buf.String())
		}
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]LogLevel{
		"debug": DEBUG, "INFO": INFO, "Warning": WARN, "warn": WARN,
		"error": ERROR, "verbose": INFO, "": INFO,
	}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseFormat(" JSON ") != FormatJSON || ParseFormat("logfmt") != FormatText {
		t.Error("ParseFormat mismatch")
	}
	if LogLevel(42).String() != "UNKNOWN" || WARN.String() != "WARN" {
		t.Error("LogLevel.String mismatch")
	}
}

func TestGetLoggerFollowsDefault(t *testing.T) {
	root, buf := newBufferLogger("toolpath", FormatText)
	root.SetLevel(INFO)
	SetDefaultLogger(root)
	defer SetDefaultLogger(nil)

	child := GetLogger("mutate")
	child.Debug("hidden")
	root.SetLevel(DEBUG)
	child.Debug("stage done")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("child should follow root level, got %q", out)
	}
	if !strings.Contains(out, "mutate: stage done") {
		t.Errorf("expected child output on root writer, got %q", out)
	}
}

func TestSetWriterDropsColour(t *testing.T) {
	l := New("t")
	l.SetColorize(true)
	var buf bytes.Buffer
	l.SetWriter(&buf)
	l.Info("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI codes, got %q", buf.String())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Setenv("TOOLPATH_LOG_LEVEL", "warn")
	t.Setenv("TOOLPATH_LOG_FORMAT", "json")

	l := New("env")
	ConfigureFromEnv(l)
	if l.GetLevel() != WARN {
		t.Errorf("expected WARN, got %v", l.GetLevel())
	}
	if l.out.outFormat != FormatJSON {
		t.Error("expected JSON format")
	}
}

func BenchmarkFilteredLine(b *testing.B) {
	l, _ := newBufferLogger("bench", FormatText)
	l.SetLevel(ERROR)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Info("G1 X%d", i)
	}
}
