package buscontract

import "fmt"

// Validation error codes. Codes are stable identifiers consumed by the UI
// layer; messages are advisory and may change.
const (
	// CodeReservedTypeMismatch indicates a reserved bus was declared with a
	// type other than its canonical contract type.
	CodeReservedTypeMismatch = "E_RESERVED_BUS_TYPE_MISMATCH"

	// CodeReservedCombineModeMismatch indicates a reserved bus was declared
	// with a combine mode other than its canonical contract mode.
	CodeReservedCombineModeMismatch = "E_RESERVED_BUS_COMBINE_MODE_MISMATCH"

	// CodeCombineModeIncompatible indicates a combine mode that the bus
	// domain does not admit.
	CodeCombineModeIncompatible = "E_COMBINE_MODE_INCOMPATIBLE"

	// CodeBusUnsupportedIRType indicates a bus type the numeric runtime
	// cannot execute.
	CodeBusUnsupportedIRType = "E_BUS_UNSUPPORTED_IR_TYPE"
)

// ValidationError is a structured bus-contract violation. Expected and Actual
// carry typed values (a TypeDesc, a CombineMode, or a mode list) so callers
// can render a precise diff instead of parsing the message.
type ValidationError struct {
	// Code is one of the Code* constants.
	Code string `json:"code"`

	// BusName is the bus the violation applies to, when known.
	BusName string `json:"bus_name,omitempty"`

	// Field names the violated facet ("type", "combine_mode").
	Field string `json:"field,omitempty"`

	// Expected is the value the contract requires.
	Expected any `json:"expected,omitempty"`

	// Actual is the value that was supplied.
	Actual any `json:"actual,omitempty"`

	// Message is a human-readable description of the violation.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.BusName != "" {
		return fmt.Sprintf("buscontract: %s: bus %q: %s", e.Code, e.BusName, e.Message)
	}
	return fmt.Sprintf("buscontract: %s: %s", e.Code, e.Message)
}
