package buscontract

import "github.com/waveframe/patchgraph/typedesc"

// CombineMode is the rule for merging multiple publishers on one bus.
type CombineMode string

const (
	// CombineLast takes the value of the highest-sorted publisher only.
	CombineLast CombineMode = "last"

	// CombineSum adds all published values.
	CombineSum CombineMode = "sum"

	// CombineAverage takes the arithmetic mean of all published values.
	CombineAverage CombineMode = "average"

	// CombineMax takes the largest published value.
	CombineMax CombineMode = "max"

	// CombineMin takes the smallest published value.
	CombineMin CombineMode = "min"
)

// AllCombineModes lists every defined combine mode in declaration order.
var AllCombineModes = []CombineMode{
	CombineLast, CombineSum, CombineAverage, CombineMax, CombineMin,
}

// ValidCombineMode reports whether the mode is one of the defined modes.
func ValidCombineMode(mode CombineMode) bool {
	for _, m := range AllCombineModes {
		if m == mode {
			return true
		}
	}
	return false
}

// combineTable maps each known domain to the combine modes it admits.
// Domains absent from the table are treated as unconstrained; see
// ValidateCombineMode.
var combineTable = map[typedesc.Domain][]CombineMode{
	typedesc.DomainFloat:   {CombineLast, CombineSum, CombineAverage, CombineMax, CombineMin},
	typedesc.DomainInt:     {CombineLast, CombineSum, CombineAverage, CombineMax, CombineMin},
	typedesc.DomainBoolean: {CombineLast},
	typedesc.DomainVec2:    {CombineLast},
	typedesc.DomainColor:   {CombineLast},
	typedesc.DomainTrigger: {CombineLast},
}

// AllowedCombineModes returns the combine modes legal for a domain, or nil if
// the domain is not in the compatibility table (unknown domains are
// unconstrained).
func AllowedCombineModes(domain typedesc.Domain) []CombineMode {
	modes, ok := combineTable[domain]
	if !ok {
		return nil
	}
	out := make([]CombineMode, len(modes))
	copy(out, modes)
	return out
}

// ValidateCombineMode checks whether a combine mode is legal for a value
// domain. It returns nil when the combination is legal.
//
// Unknown domains produce no error: a core built before a new domain was
// introduced must not reject patches that use it. The authoritative check is
// the full compile.
func ValidateCombineMode(domain typedesc.Domain, mode CombineMode) *ValidationError {
	allowed, ok := combineTable[domain]
	if !ok {
		return nil
	}
	for _, m := range allowed {
		if m == mode {
			return nil
		}
	}
	return &ValidationError{
		Code:     CodeCombineModeIncompatible,
		Field:    "combine_mode",
		Expected: allowed,
		Actual:   mode,
		Message:  "combine mode " + string(mode) + " is not valid for domain " + string(domain),
	}
}
