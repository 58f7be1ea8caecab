package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/patch"
)

func chainExpansion() *Expansion {
	return &Expansion{
		Key:   "PulseChain",
		Label: "Pulse Chain",
		Blocks: []BlockPlacement{
			{Ref: "env", Type: "Envelope", Position: Position{X: 0, Y: 0}},
			{Ref: "mix", Type: "Mixer", Position: Position{X: 200, Y: 0}},
		},
		Connections: []RefConnection{
			{From: RefEndpoint{Ref: "env", Slot: "out"}, To: RefEndpoint{Ref: "mix", Slot: "a"}},
		},
		Publishers: []RefBinding{
			{Ref: "mix", Slot: "out", Bus: "energy"},
		},
	}
}

func newExpander(t *testing.T, expansions ...*Expansion) (*patch.Store, *Expander) {
	t.Helper()
	reg := NewRegistry()
	for _, e := range expansions {
		require.NoError(t, reg.Register(e))
	}
	store := patch.NewStore(patch.WithRegistry(blocktype.NewBuiltinRegistry()))
	return store, NewExpander(store, WithRegistry(reg))
}

func TestExpand(t *testing.T) {
	t.Run("full template", func(t *testing.T) {
		store, x := newExpander(t, chainExpansion())

		var events []event.Event
		store.Events().Subscribe(func(e event.Event) { events = append(events, e) })

		root, report, err := x.Expand("PulseChain")
		require.NoError(t, err)
		require.Len(t, report.BlockIDs, 2)
		assert.Equal(t, report.BlockIDs[0], root, "the first placement is the selection handle")
		assert.Empty(t, report.Skipped)

		assert.Len(t, store.Blocks(), 2)
		assert.Len(t, store.Edges(), 1)

		// Envelope auto-listens on pulse, plus the templated publisher.
		assert.Len(t, store.Listeners(), 1)
		assert.Len(t, store.Publishers(), 1)

		assert.Equal(t, uint64(1), store.Revision(), "the whole expansion is one commit")

		require.Len(t, events, 2)
		committed, ok := events[0].(event.GraphCommitted)
		require.True(t, ok)
		assert.Equal(t, 2, committed.Diff.BlocksAdded, "one per template block")
		expanded := events[1].(event.MacroExpanded)
		assert.Equal(t, "PulseChain", expanded.Key)
		assert.Equal(t, report.BlockIDs, expanded.BlockIDs)
	})

	t.Run("expansion clears the patch", func(t *testing.T) {
		store, x := newExpander(t, chainExpansion())
		stale, err := store.AddBlock("Oscillator")
		require.NoError(t, err)

		_, _, err = x.Expand("PulseChain")
		require.NoError(t, err)

		_, err = store.Block(stale)
		assert.Error(t, err, "macros are whole-patch templates")
		assert.Len(t, store.Blocks(), 2)
	})

	t.Run("unknown key leaves the patch untouched", func(t *testing.T) {
		store, x := newExpander(t, chainExpansion())
		id, err := store.AddBlock("Oscillator")
		require.NoError(t, err)
		rev := store.Revision()

		_, _, err = x.Expand("NoSuchMacro")
		assert.ErrorIs(t, err, ErrUnknownMacro)
		assert.Equal(t, rev, store.Revision())
		_, err = store.Block(id)
		assert.NoError(t, err)
	})

	t.Run("invalid items are skipped not fatal", func(t *testing.T) {
		exp := &Expansion{
			Key: "Ragged",
			Blocks: []BlockPlacement{
				{Ref: "osc", Type: "Oscillator"},
				{Ref: "ghost", Type: "NoSuchType"},
			},
			Connections: []RefConnection{
				// Slot does not exist on Oscillator.
				{From: RefEndpoint{Ref: "osc", Slot: "nope"}, To: RefEndpoint{Ref: "osc", Slot: "phase"}},
				// Ref was skipped above.
				{From: RefEndpoint{Ref: "ghost", Slot: "out"}, To: RefEndpoint{Ref: "osc", Slot: "phase"}},
			},
			Publishers: []RefBinding{
				{Ref: "osc", Slot: "out", Bus: "nosuchbus"},
			},
			Listeners: []RefBinding{
				// palette is a color bus; phase is a float input.
				{Ref: "osc", Slot: "phase", Bus: "palette"},
			},
		}
		store, x := newExpander(t, exp)

		root, report, err := x.Expand("Ragged")
		require.NoError(t, err)

		assert.NotEmpty(t, root)
		assert.Len(t, report.BlockIDs, 1)
		require.Len(t, report.Skipped, 5)

		kinds := make(map[string]int)
		for _, s := range report.Skipped {
			kinds[s.Kind]++
			assert.NotEmpty(t, s.Reason)
		}
		assert.Equal(t, 1, kinds["block"])
		assert.Equal(t, 2, kinds["connection"])
		assert.Equal(t, 1, kinds["publisher"])
		assert.Equal(t, 1, kinds["listener"])

		assert.Len(t, store.Blocks(), 1, "the valid parts still landed")
		assert.Equal(t, uint64(1), store.Revision())
	})

	t.Run("type-mismatched connection is skipped", func(t *testing.T) {
		exp := &Expansion{
			Key: "Mismatch",
			Blocks: []BlockPlacement{
				{Ref: "color", Type: "ColorConst"},
				{Ref: "mix", Type: "Mixer"},
			},
			Connections: []RefConnection{
				{From: RefEndpoint{Ref: "color", Slot: "out"}, To: RefEndpoint{Ref: "mix", Slot: "a"}},
			},
		}
		store, x := newExpander(t, exp)

		_, report, err := x.Expand("Mismatch")
		require.NoError(t, err)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, "connection", report.Skipped[0].Kind)
		assert.Empty(t, store.Edges(), "macros never create mismatched wires")
	})

	t.Run("params and placement applied", func(t *testing.T) {
		exp := &Expansion{
			Key: "Tuned",
			Blocks: []BlockPlacement{
				{
					Ref: "osc", Type: "Oscillator", Label: "lead",
					Params:   map[string]any{"waveform": "saw"},
					Position: Position{X: 40, Y: 80},
				},
			},
		}
		store, x := newExpander(t, exp)

		root, _, err := x.Expand("Tuned")
		require.NoError(t, err)

		blk, err := store.Block(root)
		require.NoError(t, err)
		assert.Equal(t, "lead", blk.Label)
		assert.Equal(t, "saw", blk.Params["waveform"])
		assert.Equal(t, patch.Position{X: 40, Y: 80}, blk.Position)
	})
}

func TestStoreDelegatesMacroTypes(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(chainExpansion()))

	typeReg := blocktype.NewBuiltinRegistry()
	require.NoError(t, typeReg.Register(&blocktype.Definition{
		Name: "PulseChain", Kind: blocktype.KindMacro, Label: "Pulse Chain",
	}))

	store := patch.NewStore(patch.WithRegistry(typeReg))
	NewExpander(store, WithRegistry(reg))

	// Adding a macro-kind block type routes through the expander: no
	// PulseChain block materializes, the template does.
	root, err := store.AddBlock("PulseChain")
	require.NoError(t, err)

	blk, err := store.Block(root)
	require.NoError(t, err)
	assert.Equal(t, "Envelope", blk.Type)
	assert.Len(t, store.Blocks(), 2)
}
