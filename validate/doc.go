// Package validate provides fast, local preflight checks for graph edits:
// does this connection or bus binding make sense, before any state changes.
//
// The checks are advisory by design. The authoritative gate is the full
// compile, which runs later and sees the whole graph; this package exists so
// the authoring surface can give immediate feedback without re-running
// global analysis. Author-driven connects treat a failed check as a logged
// warning and proceed; macro expansion treats it as a hard gate and skips
// the item. Neither path mutates state here; every function is read-only.
package validate
