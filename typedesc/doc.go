// Package typedesc defines the port and bus type descriptors used across the
// patch graph, and the assignability rules that decide whether a value
// produced at one slot may flow into another.
//
// A TypeDesc has three discriminating facets: the World (signal, field, or
// event), the Domain (float, int, boolean, vec2, color, trigger), and an
// optional Semantics tag. Assignability is an asymmetric predicate over two
// descriptors; there is no implicit coercion across worlds.
//
// Example:
//
//	src := typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainInt}
//	dst := typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat}
//	typedesc.Assignable(src, dst) // true (int widens to float)
//	typedesc.Assignable(dst, src) // false
package typedesc
