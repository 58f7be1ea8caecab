package blocktype

import "github.com/waveframe/patchgraph/typedesc"

// Builtin block types shipped with the core. Hosts typically extend this set
// with manifest-loaded types; the builtins are enough to author a useful
// patch and are the types the macro templates reference.

func sigFloat(sem string) typedesc.TypeDesc {
	return typedesc.TypeDesc{
		World: typedesc.WorldSignal, Domain: typedesc.DomainFloat,
		Semantics: sem, Category: typedesc.CategoryCore, BusEligible: true,
	}
}

func sigType(d typedesc.Domain) typedesc.TypeDesc {
	return typedesc.TypeDesc{
		World: typedesc.WorldSignal, Domain: d,
		Category: typedesc.CategoryCore, BusEligible: true,
	}
}

func fieldType(d typedesc.Domain) typedesc.TypeDesc {
	return typedesc.TypeDesc{
		World: typedesc.WorldField, Domain: d,
		Category: typedesc.CategoryCore, BusEligible: true,
	}
}

func eventTrigger() typedesc.TypeDesc {
	return typedesc.TypeDesc{
		World: typedesc.WorldEvent, Domain: typedesc.DomainTrigger,
		Category: typedesc.CategoryCore, BusEligible: true,
	}
}

func builtinDefinitions() []*Definition {
	return []*Definition{
		{
			Name:  "Oscillator",
			Kind:  KindPrimitive,
			Label: "Oscillator",
			Slots: []Slot{
				{Name: "phase", Direction: Input, Type: sigFloat("phase"), Default: 0.0},
				{Name: "frequency", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 1.0},
				{Name: "amplitude", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 1.0},
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainFloat)},
			},
			DefaultParams: map[string]any{"waveform": "sine"},
		},
		{
			Name:  "Envelope",
			Kind:  KindPrimitive,
			Label: "Envelope",
			Slots: []Slot{
				{Name: "trigger", Direction: Input, Type: eventTrigger()},
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainFloat)},
			},
			DefaultParams: map[string]any{"attack": 0.05, "release": 0.4},
			AutoBuses:     []AutoBusSpec{{Slot: "trigger", Bus: "pulse"}},
		},
		{
			Name:  "Mixer",
			Kind:  KindPrimitive,
			Label: "Mixer",
			Slots: []Slot{
				{Name: "a", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 0.0},
				{Name: "b", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 0.0},
				{Name: "mix", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 0.5},
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainFloat)},
			},
		},
		{
			Name:  "ColorRamp",
			Kind:  KindPrimitive,
			Label: "Color Ramp",
			Slots: []Slot{
				{Name: "t", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 0.0},
				{Name: "color", Direction: Output, Type: sigType(typedesc.DomainColor)},
			},
			DefaultParams: map[string]any{"ramp": "viridis"},
		},
		{
			Name:  "FieldSampler",
			Kind:  KindPrimitive,
			Label: "Field Sampler",
			Slots: []Slot{
				{Name: "field", Direction: Input, Type: fieldType(typedesc.DomainFloat)},
				{Name: "position", Direction: Input, Type: sigType(typedesc.DomainVec2)},
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainFloat)},
			},
		},
		{
			Name:  "NoiseField",
			Kind:  KindPrimitive,
			Label: "Noise Field",
			Slots: []Slot{
				{Name: "scale", Direction: Input, Type: sigType(typedesc.DomainFloat), Default: 1.0},
				{Name: "out", Direction: Output, Type: fieldType(typedesc.DomainFloat)},
			},
			DefaultParams: map[string]any{"octaves": 3},
		},
		{
			Name:  "PulseDivider",
			Kind:  KindPrimitive,
			Label: "Pulse Divider",
			Slots: []Slot{
				{Name: "in", Direction: Input, Type: eventTrigger()},
				{Name: "out", Direction: Output, Type: eventTrigger()},
			},
			DefaultParams: map[string]any{"divisor": 2},
		},
		{
			Name:  "TriggerGate",
			Kind:  KindPrimitive,
			Label: "Trigger Gate",
			Slots: []Slot{
				{Name: "in", Direction: Input, Type: eventTrigger()},
				{Name: "out", Direction: Output, Type: eventTrigger()},
			},
			DefaultParams: map[string]any{"open": true},
		},
		{
			Name:  "ValueConst",
			Kind:  KindPrimitive,
			Label: "Value",
			Slots: []Slot{
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainFloat)},
			},
			DefaultParams: map[string]any{"value": 0.0},
		},
		{
			Name:  "VectorConst",
			Kind:  KindPrimitive,
			Label: "Vector",
			Slots: []Slot{
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainVec2)},
			},
			DefaultParams: map[string]any{"x": 0.0, "y": 0.0},
		},
		{
			Name:  "ColorConst",
			Kind:  KindPrimitive,
			Label: "Color",
			Slots: []Slot{
				{Name: "out", Direction: Output, Type: sigType(typedesc.DomainColor)},
			},
			DefaultParams: map[string]any{"hex": "#ffffff"},
		},
	}
}
