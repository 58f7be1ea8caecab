package event

// Event is the sealed interface implemented by every payload in the stream.
// The unexported marker keeps the union closed to this package.
type Event interface {
	isEvent()
}

// Endpoint locates one end of a wire.
type Endpoint struct {
	BlockID string `json:"block_id"`
	Slot    string `json:"slot"`
}

// Diff summarizes what one committed transaction changed. It is carried by
// GraphCommitted so cache owners can decide what to invalidate without
// re-diffing the graph.
type Diff struct {
	BlocksAdded     int  `json:"blocks_added"`
	BlocksRemoved   int  `json:"blocks_removed"`
	BusesAdded      int  `json:"buses_added"`
	BusesRemoved    int  `json:"buses_removed"`
	BindingsChanged int  `json:"bindings_changed"`
	WiresChanged    int  `json:"wires_changed"`
	TimeRootChanged bool `json:"time_root_changed"`

	// BlockIDs and BusIDs list the affected entities when known.
	BlockIDs []string `json:"block_ids,omitempty"`
	BusIDs   []string `json:"bus_ids,omitempty"`
}

// Severity of a compile diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one compile finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	BlockID  string   `json:"block_id,omitempty"`
	BusName  string   `json:"bus_name,omitempty"`
}

// ProgramInfo is the metadata of a successfully compiled program.
type ProgramInfo struct {
	Revision   uint64 `json:"revision"`
	BlockCount int    `json:"block_count"`
	EdgeCount  int    `json:"edge_count"`
	BusCount   int    `json:"bus_count"`
}

// BlockAdded is published when a block is created.
type BlockAdded struct {
	BlockID string
	Type    string
}

// BlockRemoved is published when a block is deleted. Cascade removals of its
// wires and bindings are published before this event.
type BlockRemoved struct {
	BlockID string
	Type    string
}

// BlockReplaced is published when a block is swapped for a new type with
// wiring remapped.
type BlockReplaced struct {
	OldBlockID string
	NewBlockID string
	NewType    string

	// Preserved counts remapped wires; Dropped lists the human-readable
	// reasons for wiring that could not be kept.
	Preserved int
	Dropped   []string
}

// WireAdded is published when a connection is materialized.
type WireAdded struct {
	EdgeID string
	From   Endpoint
	To     Endpoint
}

// WireRemoved is published when a connection is removed, directly or by
// cascade.
type WireRemoved struct {
	EdgeID string
	From   Endpoint
	To     Endpoint
}

// BindingAdded is published when a publisher or listener binding is created.
type BindingAdded struct {
	BindingID string
	BlockID   string
	Slot      string
	BusID     string

	// Publisher is true for publisher bindings, false for listeners.
	Publisher bool
}

// BindingRemoved is published when a binding is removed, directly or by
// cascade.
type BindingRemoved struct {
	BindingID string
	BlockID   string
	Slot      string
	BusID     string
	Publisher bool
}

// BusCreated is published when a bus is created.
type BusCreated struct {
	BusID string
	Name  string
}

// BusDeleted is published when a bus is deleted. Cascade removals of its
// bindings are published before this event.
type BusDeleted struct {
	BusID string
	Name  string
}

// MacroExpanded is published once per successful macro expansion, after the
// expansion's single GraphCommitted.
type MacroExpanded struct {
	Key      string
	BlockIDs []string
}

// PatchCleared is published when the whole patch is removed in one
// transaction.
type PatchCleared struct{}

// GraphCommitted is published exactly once per committed transaction,
// carrying the new revision and a summary of what changed.
type GraphCommitted struct {
	Revision uint64
	Diff     Diff
}

// CompileStarted is published when a compile pass begins. CompileID
// correlates it with the matching CompileFinished.
type CompileStarted struct {
	CompileID string
	Revision  uint64
}

// CompileFinished is published when a compile pass ends. Program is non-nil
// only on success.
type CompileFinished struct {
	CompileID   string
	Success     bool
	Diagnostics []Diagnostic
	Program     *ProgramInfo
}

func (BlockAdded) isEvent()      {}
func (BlockRemoved) isEvent()    {}
func (BlockReplaced) isEvent()   {}
func (WireAdded) isEvent()       {}
func (WireRemoved) isEvent()     {}
func (BindingAdded) isEvent()    {}
func (BindingRemoved) isEvent()  {}
func (BusCreated) isEvent()      {}
func (BusDeleted) isEvent()      {}
func (MacroExpanded) isEvent()   {}
func (PatchCleared) isEvent()    {}
func (GraphCommitted) isEvent()  {}
func (CompileStarted) isEvent()  {}
func (CompileFinished) isEvent() {}

// Name returns the stable event name used in logs and the journal stream.
func Name(e Event) string {
	switch e.(type) {
	case BlockAdded:
		return "BlockAdded"
	case BlockRemoved:
		return "BlockRemoved"
	case BlockReplaced:
		return "BlockReplaced"
	case WireAdded:
		return "WireAdded"
	case WireRemoved:
		return "WireRemoved"
	case BindingAdded:
		return "BindingAdded"
	case BindingRemoved:
		return "BindingRemoved"
	case BusCreated:
		return "BusCreated"
	case BusDeleted:
		return "BusDeleted"
	case MacroExpanded:
		return "MacroExpanded"
	case PatchCleared:
		return "PatchCleared"
	case GraphCommitted:
		return "GraphCommitted"
	case CompileStarted:
		return "CompileStarted"
	case CompileFinished:
		return "CompileFinished"
	default:
		return "Unknown"
	}
}
