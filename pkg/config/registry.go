package config

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a value of type T from one settings section.
type Factory[T any] func(sec *Section) (T, error)

// Registry binds section names to factories. Named sections such as
// "[printer a1]" are matched through a registered prefix ("printer ").
type Registry[T any] struct {
	exact    map[string]Factory[T]
	prefixes map[string]Factory[T]
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		exact:    make(map[string]Factory[T]),
		prefixes: make(map[string]Factory[T]),
	}
}

// Exact handles the section called name.
func (r *Registry[T]) Exact(name string, f Factory[T]) *Registry[T] {
	r.exact[name] = f
	return r
}

// Prefix handles every section whose name starts with prefix.
func (r *Registry[T]) Prefix(prefix string, f Factory[T]) *Registry[T] {
	r.prefixes[prefix] = f
	return r
}

// lookup finds the factory for a section. An exact match beats any prefix
// and a longer prefix beats a shorter one.
func (r *Registry[T]) lookup(name string) Factory[T] {
	if f, ok := r.exact[name]; ok {
		return f
	}
	var best string
	var found Factory[T]
	for prefix, f := range r.prefixes {
		if strings.HasPrefix(name, prefix) && len(prefix) > len(best) {
			best, found = prefix, f
		}
	}
	return found
}

// Prefixes lists the registered prefixes, sorted.
func (r *Registry[T]) Prefixes() []string {
	out := make([]string, 0, len(r.prefixes))
	for p := range r.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Build runs the matching factory for every handled section, in file
// order, and claims those sections. Unhandled sections are left for
// CheckSections.
func (r *Registry[T]) Build(cfg *Config) (map[string]T, error) {
	built := make(map[string]T)
	for _, sec := range cfg.matching(func(name string) bool { return r.lookup(name) != nil }) {
		v, err := r.lookup(sec.Name())(sec)
		if err != nil {
			return nil, fmt.Errorf("failed to load [%s]: %w", sec.Name(), err)
		}
		built[sec.Name()] = v
	}
	return built, nil
}
