// Package patch owns the canonical in-memory patch graph: blocks, wires,
// buses, and bus bindings, plus the transaction engine that makes every edit
// atomic, revision-counted, and undo/redo-capable.
//
// The Store is the single writer. All public operations run inside one
// transaction: primitive ops are collected, applied in one pass, the patch
// revision is incremented exactly once, per-entity events are published in
// op order, and one GraphCommitted event closes the batch. Cascading deletes
// (a block's incident wires and bindings, a bus's bindings) are expanded
// through an adjacency index before commit, so removal cost is proportional
// to the entity's degree rather than the graph size.
//
// The Store is deliberately not safe for concurrent mutation: it is invoked
// from a single authoring loop, and the cooperative protocol for everyone
// else is the revision counter plus the event stream. External collaborators
// read freely and never write.
package patch
