package patch

import (
	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/lens"
	"github.com/waveframe/patchgraph/typedesc"
)

// Role distinguishes author-created blocks from compiler-synthesized
// scaffolding.
type Role string

const (
	// RoleUser marks blocks placed by the author.
	RoleUser Role = "user"

	// RoleStructural marks blocks materialized by the core (default-value
	// sources and similar scaffolding).
	RoleStructural Role = "structural"
)

// Position is the block's location on the canvas. The core stores it only
// so that documents round-trip; layout itself is the UI's concern.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Block is a typed node in the patch graph.
type Block struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Label    string         `json:"label,omitempty"`
	Role     Role           `json:"role"`
	Params   map[string]any `json:"params,omitempty"`
	Position Position       `json:"position"`
}

// Endpoint locates a slot on a block.
type Endpoint struct {
	BlockID string `json:"block_id"`
	Slot    string `json:"slot"`
}

// Edge is a wire from one block's output slot to another block's input
// slot. An input slot carries at most one incoming edge.
type Edge struct {
	ID         string     `json:"id"`
	From       Endpoint   `json:"from"`
	To         Endpoint   `json:"to"`
	Transforms lens.Stack `json:"transforms,omitempty"`
	Enabled    bool       `json:"enabled"`
}

// BusOrigin records who created a bus.
type BusOrigin string

const (
	// OriginBuiltin marks the reserved buses materialized at store
	// construction. They cannot be deleted and their contract is immutable.
	OriginBuiltin BusOrigin = "built-in"

	// OriginUser marks author-created buses.
	OriginUser BusOrigin = "user"
)

// Bus is a named, globally addressable signal. Names are unique
// case-insensitively.
type Bus struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Type         typedesc.TypeDesc       `json:"type"`
	CombineMode  buscontract.CombineMode `json:"combine_mode"`
	DefaultValue any                     `json:"default_value,omitempty"`
	Origin       BusOrigin               `json:"origin"`
}

// Publisher binds a block's output slot to a bus. SortKey orders publishers
// when the bus combines multiple values.
type Publisher struct {
	ID         string     `json:"id"`
	BlockID    string     `json:"block_id"`
	Slot       string     `json:"slot"`
	BusID      string     `json:"bus_id"`
	Transforms lens.Stack `json:"transforms,omitempty"`
	SortKey    int        `json:"sort_key"`
}

// Listener binds a block's input slot to a bus. A listener counts as the
// input's single source, the same as a wire.
type Listener struct {
	ID         string     `json:"id"`
	BlockID    string     `json:"block_id"`
	Slot       string     `json:"slot"`
	BusID      string     `json:"bus_id"`
	Transforms lens.Stack `json:"transforms,omitempty"`
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func cloneStack(s lens.Stack) lens.Stack {
	if s == nil {
		return nil
	}
	out := make(lens.Stack, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy. The store hands copies to callers so its owned
// collections can never be mutated from outside a transaction.
func (b *Block) Clone() *Block {
	clone := *b
	clone.Params = cloneParams(b.Params)
	return &clone
}

// Clone returns a deep copy.
func (e *Edge) Clone() *Edge {
	clone := *e
	clone.Transforms = cloneStack(e.Transforms)
	return &clone
}

// Clone returns a copy.
func (b *Bus) Clone() *Bus {
	clone := *b
	return &clone
}

// Clone returns a deep copy.
func (p *Publisher) Clone() *Publisher {
	clone := *p
	clone.Transforms = cloneStack(p.Transforms)
	return &clone
}

// Clone returns a deep copy.
func (l *Listener) Clone() *Listener {
	clone := *l
	clone.Transforms = cloneStack(l.Transforms)
	return &clone
}
