package typedesc

import "fmt"

// World identifies which evaluation world a value lives in. Values never
// cross worlds implicitly: a signal cannot feed a field input and an event
// cannot feed either.
type World string

const (
	// WorldSignal is a time-varying scalar or vector evaluated once per frame.
	WorldSignal World = "signal"

	// WorldField is a spatially-varying function evaluated per sample point.
	WorldField World = "field"

	// WorldEvent is a discrete occurrence stream (triggers, pulses).
	WorldEvent World = "event"
)

// Domain identifies the value domain carried by a slot or bus.
//
// The set is open: descriptors loaded from manifests may carry domains this
// package does not know about. Unknown domains compare by equality and never
// participate in widening.
type Domain string

const (
	DomainFloat   Domain = "float"
	DomainInt     Domain = "int"
	DomainBoolean Domain = "boolean"
	DomainVec2    Domain = "vec2"
	DomainColor   Domain = "color"
	DomainTrigger Domain = "trigger"
)

// Category distinguishes descriptors that are part of the public authoring
// surface from internal scaffolding types the compiler synthesizes.
type Category string

const (
	CategoryCore     Category = "core"
	CategoryInternal Category = "internal"
)

// TypeDesc describes the type of a slot or a bus.
//
// The zero value is an invalid descriptor: it has no world and no domain and
// is assignable to nothing, including itself.
type TypeDesc struct {
	// World is the evaluation world. Required.
	World World `json:"world" yaml:"world"`

	// Domain is the value domain. Required.
	Domain Domain `json:"domain" yaml:"domain"`

	// Semantics is an optional refinement tag (e.g. "phase", "amplitude").
	// When set on both sides of an assignment, the tags must match.
	Semantics string `json:"semantics,omitempty" yaml:"semantics,omitempty"`

	// Category marks whether the descriptor belongs to the authoring surface
	// or to compiler-internal scaffolding.
	Category Category `json:"category,omitempty" yaml:"category,omitempty"`

	// BusEligible reports whether values of this type may be published to or
	// listened from a bus.
	BusEligible bool `json:"bus_eligible,omitempty" yaml:"bus_eligible,omitempty"`
}

// IsZero reports whether the descriptor is the invalid zero value.
func (t TypeDesc) IsZero() bool {
	return t.World == "" && t.Domain == ""
}

// String renders the descriptor in the human-readable form used in
// diagnostics and dropped-connection reasons, e.g. "Signal<float>" or
// "Field<color:palette>".
func (t TypeDesc) String() string {
	if t.IsZero() {
		return "Invalid"
	}
	world := map[World]string{
		WorldSignal: "Signal",
		WorldField:  "Field",
		WorldEvent:  "Event",
	}[t.World]
	if world == "" {
		world = string(t.World)
	}
	if t.Semantics != "" {
		return fmt.Sprintf("%s<%s:%s>", world, t.Domain, t.Semantics)
	}
	return fmt.Sprintf("%s<%s>", world, t.Domain)
}

// widens reports whether a source domain may feed a target domain that it
// does not exactly match. Int widens to float; nothing else widens.
func widens(source, target Domain) bool {
	return source == DomainInt && target == DomainFloat
}

// Assignable reports whether a value of type source may flow into a slot of
// type target.
//
// The relation is asymmetric: source int is assignable to target float, but
// not the reverse. It holds iff:
//   - both descriptors are non-zero,
//   - the worlds are equal,
//   - the domains are equal or source widens to target,
//   - the semantics tags are equal, or at least one side leaves the tag unset.
//
// Assignable is a pure function with no failure mode; malformed or absent
// inputs simply report false.
func Assignable(source, target TypeDesc) bool {
	if source.IsZero() || target.IsZero() {
		return false
	}
	if source.World != target.World {
		return false
	}
	if source.Domain != target.Domain && !widens(source.Domain, target.Domain) {
		return false
	}
	if source.Semantics != "" && target.Semantics != "" && source.Semantics != target.Semantics {
		return false
	}
	return true
}

// NumericDomain reports whether the domain carries a scalar numeric value.
// Numeric domains are the ones that admit arithmetic combine modes on buses
// and that the downstream numeric runtime can execute directly.
func NumericDomain(d Domain) bool {
	return d == DomainFloat || d == DomainInt
}
