package main

import (
	"encoding/json"
	"path/filepath"

	"gcode-toolpath/pkg/engine"
	"gcode-toolpath/pkg/report"
)

func (c *cli) runAnalyze(args []string) error {
	fs := c.newFlagSet("analyze", "FILE")
	jsonOut := fs.BoolP("json", "j", false, "Print the raw metrics as JSON")
	format := fs.StringP("format", "f", engine.FormatText, "Report format: text, markdown or html")
	output := fs.StringP("output", "o", "", "Write the report to a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneFile(fs)
	if err != nil {
		return err
	}

	text, err := c.readInput(path)
	if err != nil {
		return err
	}
	eng := engine.New(c.settings, nil, nil)

	if *jsonOut {
		data, err := json.MarshalIndent(eng.Analyze(text), "", "  ")
		if err != nil {
			return err
		}
		return c.writeOutput(*output, string(data)+"\n")
	}

	src := report.Source{Name: filepath.Base(path)}
	if path == "-" {
		src.Name = "stdin"
	}
	body, _, err := eng.Report(text, *format, src)
	if err != nil {
		return err
	}
	return c.writeOutput(*output, body)
}
