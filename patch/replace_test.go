package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveframe/patchgraph/event"
)

func TestReplaceBlock(t *testing.T) {
	t.Run("same slots carry over", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		mix, _ := s.AddBlock("Mixer")
		_, err := s.Connect(Endpoint{osc, "out"}, Endpoint{mix, "a"})
		require.NoError(t, err)

		res, err := s.ReplaceBlock(osc, "Envelope")
		require.NoError(t, err)

		_, err = s.Block(osc)
		assert.ErrorIs(t, err, ErrBlockNotFound)
		blk, err := s.Block(res.NewBlockID)
		require.NoError(t, err)
		assert.Equal(t, "Envelope", blk.Type)

		// Envelope also has a float "out", so the wire survives.
		require.Len(t, res.Preserved, 1)
		e, err := s.Edge(res.Preserved[0])
		require.NoError(t, err)
		assert.Equal(t, Endpoint{res.NewBlockID, "out"}, e.From)
		assert.Equal(t, Endpoint{mix, "a"}, e.To)
	})

	t.Run("shared params survive, others reset", func(t *testing.T) {
		s := newTestStore(t)
		div, _ := s.AddBlock("PulseDivider", WithParams(map[string]any{"divisor": 7}))

		res, err := s.ReplaceBlock(div, "TriggerGate")
		require.NoError(t, err)

		blk, _ := s.Block(res.NewBlockID)
		assert.NotContains(t, blk.Params, "divisor")
		assert.Equal(t, true, blk.Params["open"], "new type's defaults fill in")
	})

	t.Run("position and label kept", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator", WithLabel("lfo"), WithPosition(5, 6))

		res, err := s.ReplaceBlock(osc, "Mixer")
		require.NoError(t, err)

		blk, _ := s.Block(res.NewBlockID)
		assert.Equal(t, "lfo", blk.Label)
		assert.Equal(t, Position{X: 5, Y: 6}, blk.Position)
	})

	t.Run("incompatible wiring dropped with reasons", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		ramp, _ := s.AddBlock("ColorRamp")
		_, err := s.Connect(Endpoint{osc, "out"}, Endpoint{ramp, "t"})
		require.NoError(t, err)

		// PulseDivider has only trigger slots; the float wire cannot land.
		res, err := s.ReplaceBlock(osc, "PulseDivider")
		require.NoError(t, err)

		assert.Empty(t, res.Preserved)
		require.Len(t, res.Dropped, 1)
		assert.Equal(t, "wire", res.Dropped[0].Kind)
		assert.Contains(t, res.Dropped[0].Reason, "no compatible output slot")
	})

	t.Run("incoming wires claim distinct inputs", func(t *testing.T) {
		s := newTestStore(t)
		a, _ := s.AddBlock("ValueConst")
		b, _ := s.AddBlock("ValueConst")
		mix, _ := s.AddBlock("Mixer")
		_, err := s.Connect(Endpoint{a, "out"}, Endpoint{mix, "a"})
		require.NoError(t, err)
		_, err = s.Connect(Endpoint{b, "out"}, Endpoint{mix, "b"})
		require.NoError(t, err)

		// Oscillator has three float inputs; both wires must land on
		// different ones.
		res, err := s.ReplaceBlock(mix, "Oscillator")
		require.NoError(t, err)
		require.Len(t, res.Preserved, 2)

		slots := make(map[string]bool)
		for _, id := range res.Preserved {
			e, err := s.Edge(id)
			require.NoError(t, err)
			slots[e.To.Slot] = true
		}
		assert.Len(t, slots, 2, "each carried wire claims its own input")
	})

	t.Run("bindings remap", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		_, err := s.BindPublisher(osc, "out", "energy")
		require.NoError(t, err)

		res, err := s.ReplaceBlock(osc, "Envelope")
		require.NoError(t, err)

		pubs := s.Publishers()
		require.Len(t, pubs, 1)
		assert.Equal(t, res.NewBlockID, pubs[0].BlockID)
		assert.Equal(t, "out", pubs[0].Slot)
	})

	t.Run("one commit, one summarizing event", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		mix, _ := s.AddBlock("Mixer")
		_, err := s.Connect(Endpoint{osc, "out"}, Endpoint{mix, "a"})
		require.NoError(t, err)
		rev := s.Revision()

		events := collectEvents(s)
		res, err := s.ReplaceBlock(osc, "Envelope")
		require.NoError(t, err)

		assert.Equal(t, rev+1, s.Revision())
		require.Len(t, *events, 2, "per-entity churn is suppressed")
		replaced := (*events)[0].(event.BlockReplaced)
		assert.Equal(t, osc, replaced.OldBlockID)
		assert.Equal(t, res.NewBlockID, replaced.NewBlockID)
		assert.Equal(t, 1, replaced.Preserved)
		assert.IsType(t, event.GraphCommitted{}, (*events)[1])
	})

	t.Run("undo brings the old block back", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		res, err := s.ReplaceBlock(osc, "Mixer")
		require.NoError(t, err)

		require.NoError(t, s.Undo())
		_, err = s.Block(osc)
		assert.NoError(t, err)
		_, err = s.Block(res.NewBlockID)
		assert.ErrorIs(t, err, ErrBlockNotFound)
	})

	t.Run("unknown target type", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		_, err := s.ReplaceBlock(osc, "NoSuchType")
		assert.Error(t, err)
		_, err = s.Block(osc)
		assert.NoError(t, err, "failed replace leaves the patch untouched")
	})
}
