package patch

import (
	"fmt"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/typedesc"
)

// Batch groups several primitive edits into one transaction: one revision
// bump, one history entry, one GraphCommitted. The macro expander builds on
// it so a whole template lands as a single undoable edit.
//
// Each method validates against the live graph before mutating; a method
// that returns an error has applied nothing. Later methods see the effect of
// earlier ones, so a batch can wire blocks it created a moment ago. A begun
// batch must always be committed; there is no rollback.
type Batch struct {
	t         *tx
	committed bool
}

// Batch opens a labeled batch of edits.
func (s *Store) Batch(label string) *Batch {
	return &Batch{t: s.begin(label)}
}

// Quiet suppresses the per-entity events for this batch. The commit still
// publishes GraphCommitted; callers typically pair Quiet with a summary
// event via AfterCommit.
func (b *Batch) Quiet() { b.t.quiet = true }

// AfterCommit schedules an event to publish after the batch's
// GraphCommitted.
func (b *Batch) AfterCommit(ev event.Event) {
	b.t.post = append(b.t.post, ev)
}

// Commit finalizes the batch. Committing twice panics; an empty batch
// commits as a no-op with no revision bump.
func (b *Batch) Commit() {
	if b.committed {
		panic("patch: batch committed twice")
	}
	b.committed = true
	b.t.commit()
}

// AddBlock creates a block inside the batch. Macro-kind types cannot nest
// inside a batch; expanding them is the macro package's job.
func (b *Batch) AddBlock(typeName string, opts ...BlockOption) (string, error) {
	def, err := b.t.s.registry.Lookup(typeName)
	if err != nil {
		return "", err
	}
	if def.Kind == blocktype.KindMacro {
		return "", fmt.Errorf("macro type %q cannot be added inside a batch", typeName)
	}
	return b.t.addBlock(def, opts...)
}

// RemoveBlock deletes a block and cascades, inside the batch.
func (b *Batch) RemoveBlock(blockID string) error {
	if _, ok := b.t.s.blocks[blockID]; !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	b.t.removeBlockCascade(blockID)
	return nil
}

// Connect wires two slots inside the batch, with the same semantics as
// Store.Connect.
func (b *Batch) Connect(from, to Endpoint, opts ...ConnectOption) (string, error) {
	return b.t.connect(from, to, opts...)
}

// Disconnect removes a wire inside the batch.
func (b *Batch) Disconnect(edgeID string) error {
	return b.t.disconnect(edgeID)
}

// CreateBus declares a user bus inside the batch.
func (b *Batch) CreateBus(name string, typ typedesc.TypeDesc, mode buscontract.CombineMode, opts ...BusDeclOption) (string, error) {
	return b.t.createBus(name, typ, mode, opts...)
}

// BindPublisher binds an output slot to a bus inside the batch.
func (b *Batch) BindPublisher(blockID, slot, busName string, opts ...BindingOption) (string, error) {
	return b.t.bindPublisher(blockID, slot, busName, opts...)
}

// BindListener binds an input slot to a bus inside the batch.
func (b *Batch) BindListener(blockID, slot, busName string, opts ...BindingOption) (string, error) {
	return b.t.bindListener(blockID, slot, busName, opts...)
}

// RemoveBinding removes a publisher or listener inside the batch.
func (b *Batch) RemoveBinding(bindingID string) error {
	return b.t.removeBinding(bindingID)
}

// Clear removes every block, wire, and user bus inside the batch.
func (b *Batch) Clear() {
	b.t.clear()
}
