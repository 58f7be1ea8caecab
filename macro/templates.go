package macro

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplates indicates a template catalog that could not be parsed
// or whose declared version is unsupported.
var ErrInvalidTemplates = errors.New("invalid macro templates")

// templatesVersion is the only template schema version this core accepts.
const templatesVersion = 1

// Templates is a YAML catalog of macro expansions supplied by a host.
//
// Example catalog:
//
//	version: 1
//	macros:
//	  - key: PulseChain
//	    label: Pulse Chain
//	    blocks:
//	      - ref: env
//	        type: Envelope
//	        position: {x: 0, y: 0}
//	      - ref: mix
//	        type: Mixer
//	        position: {x: 200, y: 0}
//	    connections:
//	      - from: {ref: env, slot: out}
//	        to: {ref: mix, slot: a}
//	    publishers:
//	      - {ref: mix, slot: out, bus: energy}
type Templates struct {
	Version int          `yaml:"version"`
	Macros  []*Expansion `yaml:"macros"`
}

// ParseTemplates decodes and validates template bytes. Every contained
// expansion is validated; the first invalid one fails the parse.
func ParseTemplates(data []byte) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplates, err)
	}
	if t.Version != templatesVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (want %d)", ErrInvalidTemplates, t.Version, templatesVersion)
	}
	for _, e := range t.Macros {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// LoadTemplates reads and parses a template file.
func LoadTemplates(path string) (*Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}
	return ParseTemplates(data)
}

// RegisterTemplates registers every expansion from a parsed catalog into the
// given registry. Registration stops at the first failure.
func RegisterTemplates(r *Registry, t *Templates) error {
	for _, e := range t.Macros {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}
