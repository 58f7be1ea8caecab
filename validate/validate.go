package validate

import (
	"fmt"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/typedesc"
)

// Issue codes reported by the preflight checks.
const (
	CodeBlockNotFound   = "E_BLOCK_NOT_FOUND"
	CodeSlotNotFound    = "E_SLOT_NOT_FOUND"
	CodeWrongDirection  = "E_WRONG_DIRECTION"
	CodeNotAssignable   = "E_NOT_ASSIGNABLE"
	CodeNotBusEligible  = "E_NOT_BUS_ELIGIBLE"
	CodeTypeUnknown     = "E_BLOCK_TYPE_UNKNOWN"
	CodeSelfConnection  = "E_SELF_CONNECTION"
)

// Issue is one structured preflight finding. Expected and Actual carry typed
// values so the UI can render a diff.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
}

// Result is the outcome of one preflight check.
type Result struct {
	OK     bool    `json:"ok"`
	Issues []Issue `json:"issues,omitempty"`
}

func fail(issues ...Issue) Result { return Result{OK: false, Issues: issues} }

func ok() Result { return Result{OK: true} }

// Graph is the read-only view of the store the checks need. patch.Store
// implements it.
type Graph interface {
	// BlockTypeName returns the registered type name of a block, or false
	// if the block does not exist.
	BlockTypeName(blockID string) (string, bool)
}

// Endpoint names one end of a prospective connection.
type Endpoint struct {
	BlockID string
	Slot    string
}

// resolveSlot looks a block's slot up through the registry.
func resolveSlot(g Graph, reg blocktype.Registry, ep Endpoint) (*blocktype.Slot, Result) {
	typeName, found := g.BlockTypeName(ep.BlockID)
	if !found {
		return nil, fail(Issue{
			Code:    CodeBlockNotFound,
			Message: fmt.Sprintf("block %q does not exist", ep.BlockID),
			Actual:  ep.BlockID,
		})
	}
	def, err := reg.Lookup(typeName)
	if err != nil {
		return nil, fail(Issue{
			Code:    CodeTypeUnknown,
			Message: fmt.Sprintf("block %q has unregistered type %q", ep.BlockID, typeName),
			Actual:  typeName,
		})
	}
	slot := def.Slot(ep.Slot)
	if slot == nil {
		return nil, fail(Issue{
			Code:    CodeSlotNotFound,
			Message: fmt.Sprintf("type %q has no slot %q", typeName, ep.Slot),
			Actual:  ep.Slot,
		})
	}
	return slot, ok()
}

// CheckConnection preflights a wire from one block's output slot to another
// block's input slot: both slots must exist, directions must be
// output→input, and the source type must be assignable to the target type.
func CheckConnection(g Graph, reg blocktype.Registry, from, to Endpoint) Result {
	var issues []Issue

	fromSlot, res := resolveSlot(g, reg, from)
	if !res.OK {
		issues = append(issues, res.Issues...)
	}
	toSlot, res := resolveSlot(g, reg, to)
	if !res.OK {
		issues = append(issues, res.Issues...)
	}
	if len(issues) > 0 {
		return fail(issues...)
	}

	if from.BlockID == to.BlockID {
		issues = append(issues, Issue{
			Code:    CodeSelfConnection,
			Message: "a block cannot be wired to itself",
			Actual:  from.BlockID,
		})
	}
	if fromSlot.Direction != blocktype.Output {
		issues = append(issues, Issue{
			Code:     CodeWrongDirection,
			Message:  fmt.Sprintf("slot %q is not an output", from.Slot),
			Expected: blocktype.Output,
			Actual:   fromSlot.Direction,
		})
	}
	if toSlot.Direction != blocktype.Input {
		issues = append(issues, Issue{
			Code:     CodeWrongDirection,
			Message:  fmt.Sprintf("slot %q is not an input", to.Slot),
			Expected: blocktype.Input,
			Actual:   toSlot.Direction,
		})
	}
	if len(issues) > 0 {
		return fail(issues...)
	}

	if !typedesc.Assignable(fromSlot.Type, toSlot.Type) {
		return fail(Issue{
			Code:     CodeNotAssignable,
			Message:  fmt.Sprintf("%s is not assignable to %s", fromSlot.Type, toSlot.Type),
			Expected: toSlot.Type,
			Actual:   fromSlot.Type,
		})
	}
	return ok()
}

// BindingDirection distinguishes the two binding kinds.
type BindingDirection string

const (
	// Publish binds an output slot as a bus publisher.
	Publish BindingDirection = "publish"

	// Listen binds an input slot as a bus listener.
	Listen BindingDirection = "listen"
)

// CheckBinding preflights binding a block slot to a bus of the given type.
// Publishers need an output slot assignable to the bus type; listeners need
// the bus type assignable to an input slot. Both ends must be bus-eligible.
func CheckBinding(g Graph, reg blocktype.Registry, ep Endpoint, busType typedesc.TypeDesc, dir BindingDirection) Result {
	slot, res := resolveSlot(g, reg, ep)
	if !res.OK {
		return res
	}

	if !slot.Type.BusEligible {
		return fail(Issue{
			Code:    CodeNotBusEligible,
			Message: fmt.Sprintf("slot %q type %s is not bus eligible", ep.Slot, slot.Type),
			Actual:  slot.Type,
		})
	}

	switch dir {
	case Publish:
		if slot.Direction != blocktype.Output {
			return fail(Issue{
				Code:     CodeWrongDirection,
				Message:  fmt.Sprintf("publishers bind output slots; %q is an input", ep.Slot),
				Expected: blocktype.Output,
				Actual:   slot.Direction,
			})
		}
		if !typedesc.Assignable(slot.Type, busType) {
			return fail(Issue{
				Code:     CodeNotAssignable,
				Message:  fmt.Sprintf("%s is not assignable to bus type %s", slot.Type, busType),
				Expected: busType,
				Actual:   slot.Type,
			})
		}
	case Listen:
		if slot.Direction != blocktype.Input {
			return fail(Issue{
				Code:     CodeWrongDirection,
				Message:  fmt.Sprintf("listeners bind input slots; %q is an output", ep.Slot),
				Expected: blocktype.Input,
				Actual:   slot.Direction,
			})
		}
		if !typedesc.Assignable(busType, slot.Type) {
			return fail(Issue{
				Code:     CodeNotAssignable,
				Message:  fmt.Sprintf("bus type %s is not assignable to %s", busType, slot.Type),
				Expected: slot.Type,
				Actual:   busType,
			})
		}
	default:
		return fail(Issue{
			Code:    CodeWrongDirection,
			Message: fmt.Sprintf("unknown binding direction %q", dir),
			Actual:  dir,
		})
	}
	return ok()
}
