// Package macro instantiates named whole-patch templates.
//
// A template lists block placements under temporary refs, connections
// between refs, and bus bindings by bus name. Expansion clears the patch,
// materializes the template as one transaction, and reports what it could
// not apply. Templates are starters, not programs: an item that fails
// validation is skipped with a warning instead of failing the whole
// expansion, so one stale slot name in a template never hides everything
// else it sets up correctly.
package macro

import (
	"errors"
	"fmt"
)

// ErrUnknownMacro indicates an expansion key with no registered template.
var ErrUnknownMacro = errors.New("unknown macro")

// ErrInvalidExpansion indicates a structurally broken template.
var ErrInvalidExpansion = errors.New("invalid macro expansion")

// Position places a templated block on the canvas.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// BlockPlacement is one templated block. Ref is a template-scoped handle
// that connections and bindings use; it never leaks into the patch.
type BlockPlacement struct {
	Ref      string         `yaml:"ref" json:"ref"`
	Type     string         `yaml:"type" json:"type"`
	Label    string         `yaml:"label,omitempty" json:"label,omitempty"`
	Params   map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Position Position       `yaml:"position" json:"position"`
}

// RefEndpoint locates a slot on a templated block.
type RefEndpoint struct {
	Ref  string `yaml:"ref" json:"ref"`
	Slot string `yaml:"slot" json:"slot"`
}

// RefConnection is a templated wire between two refs.
type RefConnection struct {
	From RefEndpoint `yaml:"from" json:"from"`
	To   RefEndpoint `yaml:"to" json:"to"`
}

// RefBinding binds a templated block's slot to a bus by name.
type RefBinding struct {
	Ref  string `yaml:"ref" json:"ref"`
	Slot string `yaml:"slot" json:"slot"`
	Bus  string `yaml:"bus" json:"bus"`
}

// Expansion is one named whole-patch template.
type Expansion struct {
	Key         string           `yaml:"key" json:"key"`
	Label       string           `yaml:"label,omitempty" json:"label,omitempty"`
	Blocks      []BlockPlacement `yaml:"blocks" json:"blocks"`
	Connections []RefConnection  `yaml:"connections,omitempty" json:"connections,omitempty"`
	Publishers  []RefBinding     `yaml:"publishers,omitempty" json:"publishers,omitempty"`
	Listeners   []RefBinding     `yaml:"listeners,omitempty" json:"listeners,omitempty"`
}

// Validate checks the template's structural integrity: key and refs
// present, refs unique. It does not resolve block types or buses; those are
// patch-time concerns handled leniently at expansion.
func (e *Expansion) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidExpansion)
	}
	if len(e.Blocks) == 0 {
		return fmt.Errorf("%w: %q declares no blocks", ErrInvalidExpansion, e.Key)
	}
	seen := make(map[string]bool, len(e.Blocks))
	for _, b := range e.Blocks {
		if b.Ref == "" {
			return fmt.Errorf("%w: %q has a block without a ref", ErrInvalidExpansion, e.Key)
		}
		if b.Type == "" {
			return fmt.Errorf("%w: %q block %q has no type", ErrInvalidExpansion, e.Key, b.Ref)
		}
		if seen[b.Ref] {
			return fmt.Errorf("%w: %q declares ref %q twice", ErrInvalidExpansion, e.Key, b.Ref)
		}
		seen[b.Ref] = true
	}
	return nil
}
