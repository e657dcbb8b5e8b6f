// toolpath analyzes and rewrites sliced G-code files.
//
// Usage:
//
//	toolpath [global options] <command> [options] [FILE]
//
// Commands:
//
//	analyze    Print a metrics report for FILE
//	mutate     Apply directives to FILE and write the result
//	serve      Run the HTTP / JSON-RPC service
//	templates  List, show, add or remove stored snippets
//
// Examples:
//
//	# Summarize a file in the terminal
//	toolpath analyze part.gcode
//
//	# Slow the print down and pause before layer 12
//	toolpath mutate --speed 80 --pause-at 12 -o out.gcode part.gcode
//
//	# Serve on the configured address with debug logs
//	toolpath --log-level debug serve
//
// FILE may be "-" to read standard input.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"gcode-toolpath/pkg/config"
	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/log"
	"gcode-toolpath/pkg/server"
	"gcode-toolpath/pkg/templates"
)

// cli carries the global options and the process streams.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	templateDB string
	settings   *config.Settings
	logger     *log.Logger
}

type command struct {
	name    string
	summary string
	run     func(c *cli, args []string) error
}

var commands = []command{
	{"analyze", "Print a metrics report for FILE", (*cli).runAnalyze},
	{"mutate", "Apply directives to FILE and write the result", (*cli).runMutate},
	{"serve", "Run the HTTP / JSON-RPC service", (*cli).runServe},
	{"templates", "List, show, add or remove stored snippets", (*cli).runTemplates},
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.main(os.Args[1:]))
}

// main parses the global flags, sets up logging and settings, and runs
// the command. It returns the process exit code.
func (c *cli) main(args []string) int {
	fs := pflag.NewFlagSet("toolpath", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() { c.usage(fs) }

	fs.StringVarP(&c.configFile, "config", "c", "", "Settings file (INI style)")
	fs.StringVar(&c.templateDB, "templates", "", "Template database (default from settings)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "", "Log format: text or json")
	logFile := fs.String("logfile", "", "Log file path, rotated by size")
	quiet := fs.BoolP("quiet", "q", false, "Only log to --logfile")
	version := fs.BoolP("version", "V", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if *version {
		fmt.Fprintf(c.stdout, "toolpath version %s\n", server.Version)
		return 0
	}

	rest := fs.Args()
	if len(rest) == 0 {
		c.usage(fs)
		return 2
	}

	if err := c.loadSettings(); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	if *logFile == "" {
		*logFile = c.settings.Service.LogFile
	}
	closer, err := log.Setup(log.Options{Level: *logLevel, Format: *logFormat, LogFile: *logFile, Quiet: *quiet})
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()
	c.logger = log.GetLogger("toolpath")

	name := rest[0]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if err := cmd.run(c, rest[1:]); err != nil {
			if err == pflag.ErrHelp {
				return 0
			}
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(c.stderr, "Error: unknown command %q\n", name)
	c.usage(fs)
	return 2
}

func (c *cli) usage(fs *pflag.FlagSet) {
	fmt.Fprintf(c.stderr, "Usage: toolpath [global options] <command> [options] [FILE]\n\n")
	fmt.Fprintf(c.stderr, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(c.stderr, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(c.stderr, "\nGlobal options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(c.stderr, "\nRun 'toolpath <command> --help' for command options.\n")
}

func (c *cli) loadSettings() error {
	if c.configFile == "" {
		c.settings = config.DefaultSettings()
		return nil
	}
	s, err := config.LoadSettings(c.configFile)
	if err != nil {
		return err
	}
	c.settings = s
	return nil
}

// openStore opens the template database named by --templates or the
// settings.
func (c *cli) openStore() (*templates.Store, error) {
	path := c.templateDB
	if path == "" {
		path = c.settings.Service.TemplateDB
	}
	return templates.Open(path)
}

// newFlagSet returns a flag set for a subcommand that reports errors
// instead of exiting.
func (c *cli) newFlagSet(name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: toolpath %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// readInput reads FILE, or standard input for "-".
func (c *cli) readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.InputReadError(path, err)
	}
	return string(data), nil
}

// writeOutput writes body to path, or standard output when path is empty
// or "-".
func (c *cli) writeOutput(path, body string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(c.stdout, body)
		return err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return errors.OutputWriteError(path, err)
	}
	return nil
}

// oneFile returns the single positional argument.
func oneFile(fs *pflag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 1:
		return fs.Arg(0), nil
	case 0:
		return "", fmt.Errorf("missing FILE argument")
	}
	return "", fmt.Errorf("expected one FILE, got %s", strings.Join(fs.Args(), " "))
}
