package config

import (
	"fmt"
	"testing"
)

func tagFactory(tag string) Factory[string] {
	return func(s *Section) (string, error) {
		return tag + ":" + s.Name(), nil
	}
}

func TestRegistryExactBeatsPrefix(t *testing.T) {
	r := NewRegistry[string]().
		Prefix("printer ", tagFactory("prefix")).
		Exact("printer special", tagFactory("exact"))

	cfg, _ := LoadString("[printer special]\n[printer other]\n")
	built, err := r.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built["printer special"] != "exact:printer special" {
		t.Errorf("expected exact factory, got %q", built["printer special"])
	}
	if built["printer other"] != "prefix:printer other" {
		t.Errorf("expected prefix factory, got %q", built["printer other"])
	}
}

func TestRegistryLongestPrefixWins(t *testing.T) {
	r := NewRegistry[string]().
		Prefix("printer ", tagFactory("short")).
		Prefix("printer bambu ", tagFactory("long"))

	v, _ := r.lookup("printer bambu a1")(&Section{name: "x"})
	if v != "long:x" {
		t.Errorf("expected longest prefix, got %q", v)
	}
	if r.lookup("service") != nil {
		t.Error("unexpected factory for [service]")
	}
	if got := r.Prefixes(); len(got) != 2 || got[0] != "printer " {
		t.Errorf("unexpected prefixes %v", got)
	}
}

func TestRegistryBuildClaimsSections(t *testing.T) {
	r := NewRegistry[string]().Prefix("printer ", tagFactory("p"))

	cfg, _ := LoadString("[printer a]\n[unknown]\n")
	if _, err := r.Build(cfg); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if unused := cfg.Unused(); len(unused) != 1 || unused[0] != "unknown" {
		t.Errorf("expected only [unknown] unused, got %v", unused)
	}
}

func TestRegistryFactoryError(t *testing.T) {
	r := NewRegistry[int]().Prefix("printer ", func(*Section) (int, error) {
		return 0, fmt.Errorf("bad bed size")
	})
	cfg, _ := LoadString("[printer a]\n")
	if _, err := r.Build(cfg); err == nil {
		t.Error("expected factory error to propagate")
	}
}
