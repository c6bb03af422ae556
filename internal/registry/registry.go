// Package registry holds the static table of upstream model versions: the
// bare engines a client may pick directly and the named fine-tuned variants
// that map to their own version id and prompt trigger phrase.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var embedded []byte

var versionPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Entry is one named model variant.
type Entry struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Trigger string `yaml:"trigger"`
}

// Registry is immutable once loaded and safe for concurrent reads.
type Registry struct {
	baselineEngine  string
	baselineVersion string
	engines         map[string]struct{}
	entries         map[string]Entry
	names           []string
}

type document struct {
	Baseline struct {
		Engine  string `yaml:"engine"`
		Version string `yaml:"version"`
	} `yaml:"baseline"`
	Engines  []string `yaml:"engines"`
	Variants []Entry  `yaml:"variants"`
}

// Default returns the registry compiled into the binary.
func Default() (*Registry, error) {
	return Load(embedded)
}

// LoadFile reads a registry document from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Load(data)
}

func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	if doc.Baseline.Engine == "" {
		return nil, errors.New("registry: baseline engine is empty")
	}
	if !versionPattern.MatchString(doc.Baseline.Version) {
		return nil, fmt.Errorf("registry: invalid baseline version %q", doc.Baseline.Version)
	}
	if len(doc.Engines) == 0 {
		return nil, errors.New("registry: no engines declared")
	}

	r := &Registry{
		baselineEngine:  doc.Baseline.Engine,
		baselineVersion: doc.Baseline.Version,
		engines:         make(map[string]struct{}, len(doc.Engines)),
		entries:         make(map[string]Entry, len(doc.Variants)),
		names:           make([]string, 0, len(doc.Variants)),
	}
	for _, e := range doc.Engines {
		r.engines[e] = struct{}{}
	}
	for _, v := range doc.Variants {
		if v.Name == "" {
			return nil, errors.New("registry: variant with empty name")
		}
		if _, dup := r.entries[v.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate variant %q", v.Name)
		}
		if !versionPattern.MatchString(v.Version) {
			return nil, fmt.Errorf("registry: variant %q has invalid version %q", v.Name, v.Version)
		}
		r.entries[v.Name] = v
		r.names = append(r.names, v.Name)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// ValidModelNames returns a copy of the bare engine identifiers.
func (r *Registry) ValidModelNames() map[string]struct{} {
	out := make(map[string]struct{}, len(r.engines))
	for k := range r.engines {
		out[k] = struct{}{}
	}
	return out
}

func (r *Registry) IsValidModel(name string) bool {
	_, ok := r.engines[name]
	return ok
}

// Names lists variant names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// BaselineVersion is the dispatch target when no variant is requested.
func (r *Registry) BaselineVersion() string { return r.baselineVersion }

// BaselineEngine is the engine every named variant runs on.
func (r *Registry) BaselineEngine() string { return r.baselineEngine }
