// Package blocktype provides the block type registry: the read-only lookup
// table the patch graph core consults to resolve a block type name into its
// slot list, default parameters, kind, and auto-bus wiring declarations.
//
// The registry is an external-collaborator boundary: the core never defines
// block behavior, it only needs the shape of each type. Definitions can be
// registered programmatically or loaded from a YAML manifest.
//
// Every definition carries an explicit Kind discriminant (Primitive,
// Composite, or Macro) resolved once at registration time; there is no
// string-prefix sniffing anywhere downstream.
package blocktype
