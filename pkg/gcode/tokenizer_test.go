package gcode

import (
	"testing"
)

func TestTokenizeMove(t *testing.T) {
	ln := Tokenize("G1 X10.5 Y-3 E0.42 F1800 ; perimeter")
	if ln.Blank {
		t.Fatal("expected non-blank line")
	}
	if ln.Command != "G1" {
		t.Errorf("expected command G1, got %q", ln.Command)
	}
	if !ln.IsMotion() {
		t.Error("expected G1 to be a motion command")
	}
	checks := map[byte]float64{'X': 10.5, 'Y': -3, 'E': 0.42, 'F': 1800}
	for k, want := range checks {
		got, ok := ln.Get(k)
		if !ok {
			t.Errorf("param %c missing", k)
			continue
		}
		if got != want {
			t.Errorf("param %c: expected %v, got %v", k, want, got)
		}
	}
	if ln.Comment != "perimeter" {
		t.Errorf("expected comment 'perimeter', got %q", ln.Comment)
	}
}

func TestTokenizeBlankAndCommentOnly(t *testing.T) {
	for _, raw := range []string{"", "   ", "; LAYER:3", "\t;just a comment", "(paren only)"} {
		ln := Tokenize(raw)
		if !ln.Blank {
			t.Errorf("Tokenize(%q): expected blank", raw)
		}
	}
	if got := Tokenize(";LAYER:3").Comment; got != "LAYER:3" {
		t.Errorf("expected comment text to be kept, got %q", got)
	}
}

func TestTokenizeLowercaseAndGarbage(t *testing.T) {
	ln := Tokenize("g1 x5 yabc Z E=3 S")
	if ln.Command != "G1" {
		t.Errorf("expected upper-cased command, got %q", ln.Command)
	}
	if v, ok := ln.Get('X'); !ok || v != 5 {
		t.Errorf("expected X=5, got %v (%v)", v, ok)
	}
	for _, k := range []byte{'Y', 'Z', 'E', 'S'} {
		if ln.Has(k) {
			t.Errorf("malformed token %c should be ignored", k)
		}
	}
}

func TestTokenizeRejectsNonFinite(t *testing.T) {
	ln := Tokenize("G1 XNaN YInf Z0.2")
	if ln.Has('X') || ln.Has('Y') {
		t.Error("non-finite values should be ignored")
	}
	if !ln.Has('Z') {
		t.Error("expected Z to parse")
	}
}

func TestTokenizeParenComment(t *testing.T) {
	ln := Tokenize("M104 (set hotend) S210")
	if ln.Command != "M104" {
		t.Fatalf("expected M104, got %q", ln.Command)
	}
	if v, _ := ln.Get('S'); v != 210 {
		t.Errorf("expected S210, got %v", v)
	}
	if !ln.IsNozzleTemp() || ln.IsBedTemp() {
		t.Error("M104 classification wrong")
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		600:      "600",
		1800.5:   "1800.5",
		0.1 + 0.2: "0.3",
		-0.0001:  "0",
		12.34567: "12.346",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestReplaceParamPreservesLayout(t *testing.T) {
	raw := "G1  X10 F1200\tE0.5 ; F9999 in comment\r"
	out, changed := ReplaceParam(raw, 'F', func(v float64) float64 { return v / 2 })
	if !changed {
		t.Fatal("expected change")
	}
	want := "G1  X10 F600\tE0.5 ; F9999 in comment\r"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestReplaceParamNoMatch(t *testing.T) {
	raw := "G1 X10 Y10"
	out, changed := ReplaceParam(raw, 'F', func(v float64) float64 { return v * 2 })
	if changed || out != raw {
		t.Errorf("expected untouched line, got %q (%v)", out, changed)
	}
}

func TestReplaceParamSkipsCommandAndParens(t *testing.T) {
	raw := "M106 (S100) S128"
	out, changed := ReplaceParam(raw, 'S', func(v float64) float64 { return v + 1 })
	if !changed {
		t.Fatal("expected change")
	}
	if out != "M106 (S100) S129" {
		t.Errorf("got %q", out)
	}
}

func TestReplaceParamAgreesWithTokenizeOnParens(t *testing.T) {
	half := func(v float64) float64 { return v / 2 }
	for _, tc := range []struct {
		raw, want string
	}{
		{"G1 (unclosed X10 F1200", "G1 (unclosed X10 F600"},
		{"G1 X10(note)F1200", "G1 X10(note)F600"},
		{"G1 (a (b) F900) F1200", "G1 (a (b) F900) F600"},
		{"G1 (F1200) X5", "G1 (F1200) X5"},
	} {
		ln := Tokenize(tc.raw)
		f, tokOK := ln.Get('F')
		out, changed := ReplaceParam(tc.raw, 'F', half)
		if out != tc.want {
			t.Errorf("ReplaceParam(%q) = %q, want %q", tc.raw, out, tc.want)
		}
		if changed != tokOK {
			t.Errorf("%q: Tokenize sees F=%v (%v) but ReplaceParam changed=%v", tc.raw, f, tokOK, changed)
		}
	}
}

func TestReplaceParamKeepsSpellingOfUnchangedValues(t *testing.T) {
	raw := "M104 S0.0 T0"
	out, changed := ReplaceParam(raw, 'S', func(v float64) float64 { return v })
	if changed || out != raw {
		t.Errorf("expected untouched line, got %q (%v)", out, changed)
	}
}
