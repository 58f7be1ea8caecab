package typedesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sig(d Domain) TypeDesc   { return TypeDesc{World: WorldSignal, Domain: d} }
func field(d Domain) TypeDesc { return TypeDesc{World: WorldField, Domain: d} }
func ev(d Domain) TypeDesc    { return TypeDesc{World: WorldEvent, Domain: d} }

func TestAssignable(t *testing.T) {
	tests := []struct {
		name   string
		source TypeDesc
		target TypeDesc
		want   bool
	}{
		{"identical signal float", sig(DomainFloat), sig(DomainFloat), true},
		{"identical field color", field(DomainColor), field(DomainColor), true},
		{"int widens to float", sig(DomainInt), sig(DomainFloat), true},
		{"float does not narrow to int", sig(DomainFloat), sig(DomainInt), false},
		{"no cross-world signal to field", sig(DomainFloat), field(DomainFloat), false},
		{"no cross-world field to signal", field(DomainFloat), sig(DomainFloat), false},
		{"no cross-world event to signal", ev(DomainTrigger), sig(DomainTrigger), false},
		{"different domains", sig(DomainVec2), sig(DomainColor), false},
		{"zero source never assignable", TypeDesc{}, sig(DomainFloat), false},
		{"zero target never assignable", sig(DomainFloat), TypeDesc{}, false},
		{"zero to zero not assignable", TypeDesc{}, TypeDesc{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assignable(tt.source, tt.target))
		})
	}
}

func TestAssignableSemantics(t *testing.T) {
	phase := TypeDesc{World: WorldSignal, Domain: DomainFloat, Semantics: "phase"}
	amp := TypeDesc{World: WorldSignal, Domain: DomainFloat, Semantics: "amplitude"}
	plain := sig(DomainFloat)

	assert.True(t, Assignable(phase, phase), "matching tags")
	assert.False(t, Assignable(phase, amp), "conflicting tags")
	assert.True(t, Assignable(phase, plain), "tag unset on target")
	assert.True(t, Assignable(plain, phase), "tag unset on source")
}

func TestAssignableUnknownDomain(t *testing.T) {
	// Unknown domains are allowed to round-trip through the descriptor but
	// only compare by equality.
	quat := TypeDesc{World: WorldSignal, Domain: Domain("quaternion")}
	assert.True(t, Assignable(quat, quat))
	assert.False(t, Assignable(quat, sig(DomainFloat)))
	assert.False(t, Assignable(sig(DomainInt), quat))
}

func TestString(t *testing.T) {
	assert.Equal(t, "Signal<float>", sig(DomainFloat).String())
	assert.Equal(t, "Field<color>", field(DomainColor).String())
	assert.Equal(t, "Event<trigger>", ev(DomainTrigger).String())
	assert.Equal(t, "Signal<float:phase>",
		TypeDesc{World: WorldSignal, Domain: DomainFloat, Semantics: "phase"}.String())
	assert.Equal(t, "Invalid", TypeDesc{}.String())
}

func TestNumericDomain(t *testing.T) {
	assert.True(t, NumericDomain(DomainFloat))
	assert.True(t, NumericDomain(DomainInt))
	assert.False(t, NumericDomain(DomainVec2))
	assert.False(t, NumericDomain(DomainColor))
	assert.False(t, NumericDomain(DomainTrigger))
	assert.False(t, NumericDomain(DomainBoolean))
}
