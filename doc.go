// Package patchgraph is the compiler front end for visual animation patches:
// typed blocks wired together with connections and named signal buses,
// edited through atomic, undo/redo-capable transactions and normalized into
// a deterministic compiler input.
//
// The module is organized leaf-to-root:
//
//   - typedesc: port/bus type descriptors and the assignability predicate.
//   - buscontract: reserved bus contracts, combine-mode legality, IR support.
//   - blocktype: the block type registry (slots, default params, auto-buses).
//   - lens: CEL-backed adapter/lens transform pipelines on wires and bindings.
//   - validate: advisory preflight checks for connections and bindings.
//   - patch: the graph store and transaction engine (the only writer).
//   - normalize: canonical, anchor-identified compiler input derivation.
//   - macro: whole-patch template registry and expansion.
//   - event: the committed-change notification stream and dispatcher.
//   - patchdoc: the persisted JSON patch document (version 2).
//   - compile: the compile driver boundary (diagnostics, program metadata).
//   - journal: optional Redis bridge forwarding events to external consumers.
//
// The core is single-threaded and cooperative: every operation runs to
// completion inside one transaction before control returns, and external
// collaborators observe changes only through the event stream and the
// monotonic patch revision.
package patchgraph
