package blocktype

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest indicates a manifest that could not be parsed or whose
// declared version is unsupported.
var ErrInvalidManifest = errors.New("invalid block type manifest")

// manifestVersion is the only manifest schema version this core accepts.
const manifestVersion = 1

// Manifest is a YAML catalog of block type definitions supplied by a host.
//
// Example manifest:
//
//	version: 1
//	types:
//	  - name: Warp
//	    kind: primitive
//	    slots:
//	      - name: in
//	        direction: input
//	        type: {world: field, domain: float}
//	      - name: out
//	        direction: output
//	        type: {world: field, domain: float}
//	    default_params:
//	      strength: 1.0
type Manifest struct {
	Version int           `yaml:"version"`
	Types   []*Definition `yaml:"types"`
}

// ParseManifest decodes and validates manifest bytes. Every contained
// definition is validated; the first invalid one fails the parse.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (want %d)", ErrInvalidManifest, m.Version, manifestVersion)
	}
	for _, def := range m.Types {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// RegisterManifest registers every definition from a parsed manifest into
// the given registry. Registration stops at the first failure.
func RegisterManifest(r *DefaultRegistry, m *Manifest) error {
	for _, def := range m.Types {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
