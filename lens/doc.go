// Package lens implements the value-transform pipeline carried by wires and
// bus bindings: an ordered stack of adapters and lenses applied to a value
// in transit.
//
// Each transform is a CEL expression over a single input named value. Stacks
// are compiled and type-checked when they are edited, so a malformed
// expression is rejected at authoring time instead of surfacing during
// playback.
//
// Example:
//
//	stack := lens.Stack{
//		{Kind: lens.KindAdapter, Expr: "value * 2.0"},
//		{Kind: lens.KindLens, Expr: "value < 0.0 ? 0.0 : value"},
//	}
//	compiled, err := lens.Compile(stack)
//	out, err := compiled.Apply(0.25) // 0.5
package lens
