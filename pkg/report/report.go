// Package report renders print metrics for people: a styled terminal
// summary, Markdown, and HTML built from the Markdown.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"gcode-toolpath/pkg/toolpath"
)

// Source describes the analyzed input. All fields are optional.
type Source struct {
	Name  string
	Bytes int
	Lines int
}

// row is one label/value pair shared by every output format.
type row struct {
	label string
	value string
}

type section struct {
	title string
	rows  []row
}

// sections lays out the metrics once so the formats agree.
func sections(m *toolpath.Metrics, src Source) []section {
	var out []section

	if src.Name != "" || src.Bytes > 0 || src.Lines > 0 {
		var rows []row
		if src.Name != "" {
			rows = append(rows, row{"File", src.Name})
		}
		if src.Bytes > 0 {
			rows = append(rows, row{"Size", humanize.Bytes(uint64(src.Bytes))})
		}
		if src.Lines > 0 {
			rows = append(rows, row{"Lines", humanize.Comma(int64(src.Lines))})
		}
		out = append(out, section{"Input", rows})
	}

	out = append(out, section{"Layers", []row{
		{"Layers", humanize.Comma(int64(m.LayerCount))},
		{"Layer height", mm(m.LayerHeight, 3)},
		{"First layer", mm(m.FirstLayerHeight, 3)},
	}})

	material := []row{{"Estimated time", minutes(m.EstimatedTimeMinutes)}}
	if m.FilamentLengthMm > 0 {
		material = append(material,
			row{"Filament", humanize.FtoaWithDigits(m.FilamentLengthMm/1000, 2) + " m"},
			row{"Weight", humanize.FtoaWithDigits(m.FilamentWeightGrams, 1) + " g"},
		)
	} else {
		material = append(material, row{"Filament", "unknown"})
	}
	out = append(out, section{"Time and material", material})

	bb := m.BoundingBox
	out = append(out, section{"Geometry", []row{
		{"Footprint", fmt.Sprintf("%s x %s mm", humanize.FtoaWithDigits(bb.Width(), 2), humanize.FtoaWithDigits(bb.Depth(), 2))},
		{"Height", mm(bb.MaxZ, 2)},
		{"X range", fmt.Sprintf("%s .. %s", humanize.FtoaWithDigits(bb.MinX, 2), humanize.FtoaWithDigits(bb.MaxX, 2))},
		{"Y range", fmt.Sprintf("%s .. %s", humanize.FtoaWithDigits(bb.MinY, 2), humanize.FtoaWithDigits(bb.MaxY, 2))},
	}})

	out = append(out, section{"Temperatures", []row{
		{"Nozzle max", celsius(m.NozzleTempMax)},
		{"Bed max", celsius(m.BedTempMax)},
	}})

	out = append(out, section{"Motion", []row{
		{"Max speed", humanize.FtoaWithDigits(m.MaxSpeedMmPerSec, 1) + " mm/s"},
		{"Print moves", humanize.Comma(int64(m.PrintMoveCount))},
		{"Travel moves", humanize.Comma(int64(m.TravelMoveCount))},
		{"Travel distance", humanize.CommafWithDigits(m.TravelDistance/1000, 2) + " m"},
		{"Retractions", fmt.Sprintf("%s (%s mm)", humanize.Comma(int64(m.RetractionCount)), humanize.FtoaWithDigits(m.RetractionDistance, 1))},
	}})
	return out
}

func mm(v float64, digits int) string {
	return humanize.FtoaWithDigits(v, digits) + " mm"
}

func celsius(v float64) string {
	if v == 0 {
		return "not set"
	}
	return humanize.FtoaWithDigits(v, 1) + " °C"
}

// minutes renders a duration given in minutes, e.g. "2h 05m".
func minutes(v float64) string {
	if v <= 0 {
		return "unknown"
	}
	total := int(math.Round(v))
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}

// Markdown renders the metrics as a Markdown document.
func Markdown(m *toolpath.Metrics, src Source) string {
	var sb strings.Builder
	title := "Toolpath report"
	if src.Name != "" {
		title += ": " + src.Name
	}
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for _, s := range sections(m, src) {
		fmt.Fprintf(&sb, "## %s\n\n| Item | Value |\n|---|---|\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&sb, "| %s | %s |\n", r.label, escapeMarkdown(r.value))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Diagnostics\n\n")
	if len(m.Warnings) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String()
	}
	for _, w := range m.Warnings {
		fmt.Fprintf(&sb, "- **%s**: %s\n", w.Level, escapeMarkdown(w.Message))
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer(`|`, `\|`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
