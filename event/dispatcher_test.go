package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var order []int
	d.Subscribe(func(Event) { order = append(order, 1) })
	d.Subscribe(func(Event) { order = append(order, 2) })
	d.Subscribe(func(Event) { order = append(order, 3) })

	d.Publish(PatchCleared{})
	assert.Equal(t, []int{1, 2, 3}, order, "subscription order")
}

func TestPanicIsolation(t *testing.T) {
	d := NewDispatcher(nil)

	var delivered []string
	d.Subscribe(func(e Event) { delivered = append(delivered, "first") })
	d.Subscribe(func(e Event) { panic("handler bug") })
	d.Subscribe(func(e Event) { delivered = append(delivered, "third") })

	require.NotPanics(t, func() { d.Publish(GraphCommitted{Revision: 1}) })
	assert.Equal(t, []string{"first", "third"}, delivered,
		"a panicking handler must not block later handlers")
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher(nil)

	var count int
	unsub := d.Subscribe(func(Event) { count++ })
	d.Publish(PatchCleared{})
	unsub()
	d.Publish(PatchCleared{})

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, d.SubscriberCount())

	// Unsubscribing twice is harmless.
	assert.NotPanics(t, unsub)
}

func TestSubscribeDuringDelivery(t *testing.T) {
	d := NewDispatcher(nil)

	var lateCalls int
	d.Subscribe(func(Event) {
		d.Subscribe(func(Event) { lateCalls++ })
	})

	d.Publish(PatchCleared{})
	assert.Equal(t, 0, lateCalls, "a handler added mid-delivery sees only later events")

	d.Publish(PatchCleared{})
	assert.Equal(t, 1, lateCalls)
}

func TestEventPayloads(t *testing.T) {
	d := NewDispatcher(nil)

	var got []Event
	d.Subscribe(func(e Event) { got = append(got, e) })

	d.Publish(BlockAdded{BlockID: "b1", Type: "Oscillator"})
	d.Publish(WireAdded{EdgeID: "e1", From: Endpoint{BlockID: "b1", Slot: "out"}, To: Endpoint{BlockID: "b2", Slot: "phase"}})
	d.Publish(GraphCommitted{Revision: 3, Diff: Diff{BlocksAdded: 1, WiresChanged: 1}})

	require.Len(t, got, 3)

	added, ok := got[0].(BlockAdded)
	require.True(t, ok)
	assert.Equal(t, "Oscillator", added.Type)

	committed, ok := got[2].(GraphCommitted)
	require.True(t, ok)
	assert.Equal(t, uint64(3), committed.Revision)
	assert.Equal(t, 1, committed.Diff.BlocksAdded)
}

func TestName(t *testing.T) {
	assert.Equal(t, "BlockAdded", Name(BlockAdded{}))
	assert.Equal(t, "GraphCommitted", Name(GraphCommitted{}))
	assert.Equal(t, "CompileFinished", Name(CompileFinished{}))
	assert.Equal(t, "MacroExpanded", Name(MacroExpanded{}))
}
