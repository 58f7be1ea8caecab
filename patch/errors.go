package patch

import "errors"

// Sentinel errors for store operations. All are hard failures raised before
// any mutation; a returned error means the patch is unchanged.
var (
	// ErrBlockNotFound indicates a block ID that does not exist in the
	// patch.
	ErrBlockNotFound = errors.New("block not found")

	// ErrEdgeNotFound indicates an edge ID that does not exist.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrBusNotFound indicates a bus ID or name that does not exist.
	ErrBusNotFound = errors.New("bus not found")

	// ErrBindingNotFound indicates a publisher or listener ID that does
	// not exist.
	ErrBindingNotFound = errors.New("binding not found")

	// ErrSlotNotFound indicates a slot name the block's type does not
	// declare.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrDuplicateBusName indicates a bus name already in use
	// (case-insensitively).
	ErrDuplicateBusName = errors.New("bus name already in use")

	// ErrBuiltinBusImmutable indicates an attempt to delete or re-declare
	// one of the built-in reserved buses.
	ErrBuiltinBusImmutable = errors.New("built-in bus cannot be modified")

	// ErrMacroExpanderUnbound indicates AddBlock was called with a macro
	// type before a macro expander was attached to the store.
	ErrMacroExpanderUnbound = errors.New("no macro expander bound to store")

	// ErrDuplicateID indicates a caller-supplied entity ID that is already
	// in use.
	ErrDuplicateID = errors.New("id already in use")

	// ErrInvalidConnection indicates a wire rejected by preflight
	// validation (wrong direction, self-connection).
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrInvalidBinding indicates a bus binding rejected by preflight
	// validation.
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrInvalidBus indicates a bus declaration that fails validation
	// (ineligible type, illegal combine mode).
	ErrInvalidBus = errors.New("invalid bus declaration")

	// ErrInvalidTransform indicates a lens or adapter expression that does
	// not compile.
	ErrInvalidTransform = errors.New("invalid transform")

	// ErrNothingToUndo indicates an Undo call with an empty history.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates a Redo call with an empty redo stack.
	ErrNothingToRedo = errors.New("nothing to redo")
)
