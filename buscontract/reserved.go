package buscontract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/waveframe/patchgraph/typedesc"
)

// Contract is the canonical shape of a reserved bus.
type Contract struct {
	// Name is the canonical display spelling (e.g. "phaseA").
	Name        string
	Type        typedesc.TypeDesc
	CombineMode CombineMode
}

// reserved maps the lowercase reserved bus names to their immutable
// contracts. Lookup is case-insensitive because bus names are
// case-insensitive everywhere in the patch model.
var reserved = map[string]Contract{
	"phasea": {
		Name:        "phaseA",
		Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, Semantics: "phase", Category: typedesc.CategoryCore, BusEligible: true},
		CombineMode: CombineLast,
	},
	"phaseb": {
		Name:        "phaseB",
		Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, Semantics: "phase", Category: typedesc.CategoryCore, BusEligible: true},
		CombineMode: CombineLast,
	},
	"energy": {
		Name:        "energy",
		Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, Category: typedesc.CategoryCore, BusEligible: true},
		CombineMode: CombineSum,
	},
	"pulse": {
		Name:        "pulse",
		Type:        typedesc.TypeDesc{World: typedesc.WorldEvent, Domain: typedesc.DomainTrigger, Category: typedesc.CategoryCore, BusEligible: true},
		CombineMode: CombineLast,
	},
	"palette": {
		Name:        "palette",
		Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainColor, Category: typedesc.CategoryCore, BusEligible: true},
		CombineMode: CombineLast,
	},
	"progress": {
		Name:        "progress",
		Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, Semantics: "progress", Category: typedesc.CategoryCore, BusEligible: true},
		CombineMode: CombineLast,
	},
}

// IsReservedBusName reports whether the name (case-insensitively) is one of
// the reserved built-in bus names.
func IsReservedBusName(name string) bool {
	_, ok := reserved[strings.ToLower(name)]
	return ok
}

// ReservedContract returns the canonical contract for a reserved bus name.
// The second return is false for non-reserved names.
func ReservedContract(name string) (Contract, bool) {
	c, ok := reserved[strings.ToLower(name)]
	return c, ok
}

// ReservedBusNames returns the sorted lowercase reserved names.
func ReservedBusNames() []string {
	names := make([]string, 0, len(reserved))
	for name := range reserved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateReservedBus checks a bus declaration against the reserved-name
// contract table. For reserved names it returns one ValidationError per
// mismatched facet; for non-reserved names it returns nil (no contract is
// imposed).
func ValidateReservedBus(name string, actualType typedesc.TypeDesc, actualMode CombineMode) []*ValidationError {
	contract, ok := ReservedContract(name)
	if !ok {
		return nil
	}

	var errs []*ValidationError
	if contract.Type != actualType {
		errs = append(errs, &ValidationError{
			Code:     CodeReservedTypeMismatch,
			BusName:  name,
			Field:    "type",
			Expected: contract.Type,
			Actual:   actualType,
			Message:  fmt.Sprintf("reserved bus requires type %s, got %s", contract.Type, actualType),
		})
	}
	if contract.CombineMode != actualMode {
		errs = append(errs, &ValidationError{
			Code:     CodeReservedCombineModeMismatch,
			BusName:  name,
			Field:    "combine_mode",
			Expected: contract.CombineMode,
			Actual:   actualMode,
			Message:  fmt.Sprintf("reserved bus requires combine mode %s, got %s", contract.CombineMode, actualMode),
		})
	}
	return errs
}

// ValidateBusIRSupport checks whether the downstream numeric runtime can
// execute a bus of the given type. It returns nil when the bus is
// executable.
//
// Numeric signal and field buses pass. Event-world buses are exempt because
// triggers are routed by a separate event mechanism, not compiled into the
// numeric IR. Everything else (vector and color signal or field buses) is an
// implementation limitation of the runtime, reported with its own code so it
// is never mistaken for a semantic rule.
func ValidateBusIRSupport(name string, typ typedesc.TypeDesc) *ValidationError {
	if typ.World == typedesc.WorldEvent {
		return nil
	}
	if typedesc.NumericDomain(typ.Domain) {
		return nil
	}
	return &ValidationError{
		Code:     CodeBusUnsupportedIRType,
		BusName:  name,
		Field:    "type",
		Expected: []typedesc.Domain{typedesc.DomainFloat, typedesc.DomainInt},
		Actual:   typ.Domain,
		Message:  fmt.Sprintf("bus type %s is not executable by the numeric runtime", typ),
	}
}
