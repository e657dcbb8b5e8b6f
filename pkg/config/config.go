package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Config is a parsed settings file: ordered sections of key/value options
// with access tracking, so unknown options can be reported.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string
	claimed  map[string]struct{}
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections: make(map[string]*Section),
		claimed:  make(map[string]struct{}),
	}
}

// Load reads a settings file. "[include path]" sections pull in other
// files relative to the including file; globs are allowed.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses settings from a string. Include sections are not
// followed.
func LoadString(data string) (*Config, error) {
	c := New()
	p := &parser{cfg: c, name: "<string>"}
	if err := p.run(strings.NewReader(data)); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: invalid path %s: %w", path, err)
	}
	if visited[abs] {
		return fmt.Errorf("config: recursive include: %s", path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(abs)
	p := &parser{
		cfg:  c,
		name: path,
		include: func(spec string) error {
			glob := filepath.Join(dir, spec)
			matches, err := filepath.Glob(glob)
			if err != nil {
				return fmt.Errorf("config: invalid include pattern %q: %w", spec, err)
			}
			sort.Strings(matches)
			if len(matches) == 0 && !hasGlobMeta(glob) {
				return fmt.Errorf("config: include file does not exist: %s", glob)
			}
			for _, m := range matches {
				if err := c.parseFile(m, visited); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return p.run(f)
}

// parser holds the state of one pass over one source.
type parser struct {
	cfg     *Config
	name    string
	include func(spec string) error

	section string
	options map[string]string
}

func (p *parser) flush() {
	if p.section != "" {
		p.cfg.addSection(p.section, p.options)
	}
	p.section = ""
	p.options = nil
}

func (p *parser) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			p.flush()
			header := strings.Join(strings.Fields(line[1:len(line)-1]), " ")
			if header == "" {
				return fmt.Errorf("config: empty section header at line %d in %s", lineNum, p.name)
			}
			if strings.HasPrefix(header, "include ") {
				if p.include == nil {
					continue
				}
				spec := strings.TrimSpace(header[len("include "):])
				if err := p.include(spec); err != nil {
					return err
				}
				continue
			}
			p.section = header
			p.options = make(map[string]string)
			continue
		}

		// Options before the first section are ignored.
		if p.section == "" {
			continue
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		p.options[key] = strings.TrimSpace(kv[1])
	}
	p.flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: error reading %s: %w", p.name, err)
	}
	return nil
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sec, ok := c.sections[name]; ok {
		for k, v := range options {
			sec.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// Names lists the section names in file order.
func (c *Config) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Has reports whether a section exists without claiming it.
func (c *Config) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// Section claims a section that must exist.
func (c *Config) Section(name string) (*Section, error) {
	if sec := c.Optional(name); sec != nil {
		return sec, nil
	}
	return nil, missingSection(name)
}

// Optional claims a section if present and returns nil otherwise.
func (c *Config) Optional(name string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	sec, ok := c.sections[name]
	if ok {
		c.claimed[name] = struct{}{}
	}
	return sec
}

// matching claims and returns, in file order, every section accepted by keep.
func (c *Config) matching(keep func(name string) bool) []*Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Section
	for _, name := range c.order {
		if keep(name) {
			c.claimed[name] = struct{}{}
			out = append(out, c.sections[name])
		}
	}
	return out
}

// Unused lists the sections nothing claimed, sorted.
func (c *Config) Unused() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for _, name := range c.order {
		if _, ok := c.claimed[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// CheckSections fails when a section was never claimed.
func (c *Config) CheckSections() error {
	if names := c.Unused(); len(names) > 0 {
		return unusedError("", fmt.Sprintf("sections %v", names))
	}
	return nil
}

// CheckOptions fails when a claimed section holds options nothing read.
func (c *Config) CheckOptions() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var problems []string
	for _, name := range c.order {
		if _, ok := c.claimed[name]; !ok {
			continue
		}
		if opts := c.sections[name].UnusedOptions(); len(opts) > 0 {
			problems = append(problems, fmt.Sprintf("[%s] options %v", name, opts))
		}
	}
	if len(problems) > 0 {
		return unusedError("", strings.Join(problems, "; "))
	}
	return nil
}
