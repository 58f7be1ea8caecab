package blocktype

import (
	"errors"
	"fmt"

	"github.com/waveframe/patchgraph/typedesc"
)

// Sentinel errors for definition validation.
var (
	// ErrInvalidDefinition indicates a definition that fails structural
	// validation (duplicate slots, bad direction, macro with slots...).
	ErrInvalidDefinition = errors.New("invalid block type definition")
)

// Kind discriminates how a block type is materialized in a patch.
type Kind string

const (
	// KindPrimitive is an ordinary block backed directly by the runtime.
	KindPrimitive Kind = "primitive"

	// KindComposite is a block whose implementation is itself a sub-patch.
	// Composites materialize as a single node; the compiler inlines them.
	KindComposite Kind = "composite"

	// KindMacro is a whole-patch template. Macro types never materialize as
	// a node: adding one expands the template instead.
	KindMacro Kind = "macro"
)

// Direction of a slot relative to its block.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Slot is a named, typed port on a block type.
type Slot struct {
	Name      string            `yaml:"name"`
	Direction Direction         `yaml:"direction"`
	Type      typedesc.TypeDesc `yaml:"type"`

	// Default is the value a structural default source carries when the
	// slot is an unconnected input. Nil means no default is synthesized.
	Default any `yaml:"default,omitempty"`
}

// AutoBusSpec declares default bus wiring applied when a block of this type
// is created: the named slot is bound to the named bus.
type AutoBusSpec struct {
	Slot string `yaml:"slot"`
	Bus  string `yaml:"bus"`
}

// Definition describes one registered block type.
type Definition struct {
	// Name is the unique registry key (e.g. "Oscillator").
	Name string `yaml:"name"`

	// Kind discriminates primitive, composite, and macro types.
	Kind Kind `yaml:"kind"`

	// Label is the default human-readable label for new blocks.
	Label string `yaml:"label,omitempty"`

	// Slots lists the typed ports, inputs and outputs interleaved.
	Slots []Slot `yaml:"slots,omitempty"`

	// DefaultParams is the parameter schema: the set of known keys and
	// their default values. Unknown keys are dropped when params are copied
	// between types.
	DefaultParams map[string]any `yaml:"default_params,omitempty"`

	// AutoBuses declares publisher/listener bindings created alongside new
	// blocks of this type.
	AutoBuses []AutoBusSpec `yaml:"auto_buses,omitempty"`
}

// Slot returns the named slot, or nil if the type has no such slot.
func (d *Definition) Slot(name string) *Slot {
	for i := range d.Slots {
		if d.Slots[i].Name == name {
			return &d.Slots[i]
		}
	}
	return nil
}

// Inputs returns the input slots in declaration order.
func (d *Definition) Inputs() []Slot {
	return d.slotsByDirection(Input)
}

// Outputs returns the output slots in declaration order.
func (d *Definition) Outputs() []Slot {
	return d.slotsByDirection(Output)
}

func (d *Definition) slotsByDirection(dir Direction) []Slot {
	var out []Slot
	for _, s := range d.Slots {
		if s.Direction == dir {
			out = append(out, s)
		}
	}
	return out
}

// ResolveParams merges the supplied params over the default schema. Keys
// absent from the schema are dropped; schema keys absent from params keep
// their defaults. The returned map is freshly allocated.
func (d *Definition) ResolveParams(params map[string]any) map[string]any {
	resolved := make(map[string]any, len(d.DefaultParams))
	for key, def := range d.DefaultParams {
		if val, ok := params[key]; ok {
			resolved[key] = val
		} else {
			resolved[key] = def
		}
	}
	return resolved
}

// Validate checks the structural integrity of a definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	switch d.Kind {
	case KindPrimitive, KindComposite:
	case KindMacro:
		if len(d.Slots) > 0 {
			return fmt.Errorf("%w: macro type %q may not declare slots", ErrInvalidDefinition, d.Name)
		}
	default:
		return fmt.Errorf("%w: type %q has unknown kind %q", ErrInvalidDefinition, d.Name, d.Kind)
	}

	seen := make(map[string]struct{}, len(d.Slots))
	for _, s := range d.Slots {
		if s.Name == "" {
			return fmt.Errorf("%w: type %q has an unnamed slot", ErrInvalidDefinition, d.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: type %q declares slot %q twice", ErrInvalidDefinition, d.Name, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Direction != Input && s.Direction != Output {
			return fmt.Errorf("%w: type %q slot %q has unknown direction %q", ErrInvalidDefinition, d.Name, s.Name, s.Direction)
		}
		if s.Type.IsZero() {
			return fmt.Errorf("%w: type %q slot %q has no type", ErrInvalidDefinition, d.Name, s.Name)
		}
	}

	for _, ab := range d.AutoBuses {
		if d.Slot(ab.Slot) == nil {
			return fmt.Errorf("%w: type %q auto-bus references unknown slot %q", ErrInvalidDefinition, d.Name, ab.Slot)
		}
	}
	return nil
}
