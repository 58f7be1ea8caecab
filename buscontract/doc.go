// Package buscontract enforces the three independent constraint tiers that
// govern named signal buses:
//
//  1. Reserved-name contracts: a fixed set of built-in bus names (phaseA,
//     energy, pulse, ...) carry an immutable canonical type and combine mode
//     that user edits may not override. Violations are always errors.
//  2. Combine-mode legality: a semantic rule mapping each value domain to the
//     combine modes that make sense for it (arithmetic modes require a
//     numeric domain). Unknown domains degrade gracefully so new domains can
//     be introduced without breaking older cores.
//  3. IR support: an implementation limitation of the downstream numeric
//     runtime, checked separately so that it is never conflated with the
//     semantic rule above.
//
// Each check returns structured ValidationError values carrying an expected/
// actual pair, so a UI can render a precise diff rather than a bare string.
package buscontract
