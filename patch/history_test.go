package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedo(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		s := newTestStore(t)
		assert.False(t, s.CanUndo())
		assert.False(t, s.CanRedo())
		assert.ErrorIs(t, s.Undo(), ErrNothingToUndo)
		assert.ErrorIs(t, s.Redo(), ErrNothingToRedo)
	})

	t.Run("undo add block", func(t *testing.T) {
		s := newTestStore(t)
		id, err := s.AddBlock("Oscillator")
		require.NoError(t, err)
		require.True(t, s.CanUndo())

		require.NoError(t, s.Undo())
		_, err = s.Block(id)
		assert.ErrorIs(t, err, ErrBlockNotFound)
		assert.Equal(t, uint64(2), s.Revision(), "undo is itself a commit")

		require.True(t, s.CanRedo())
		require.NoError(t, s.Redo())
		blk, err := s.Block(id)
		require.NoError(t, err)
		assert.Equal(t, "Oscillator", blk.Type)
	})

	t.Run("undo restores cascade victims", func(t *testing.T) {
		s := newTestStore(t)
		osc, _ := s.AddBlock("Oscillator")
		mix, _ := s.AddBlock("Mixer")
		edgeID, err := s.Connect(Endpoint{osc, "out"}, Endpoint{mix, "a"})
		require.NoError(t, err)
		pubID, err := s.BindPublisher(osc, "out", "energy")
		require.NoError(t, err)

		require.NoError(t, s.RemoveBlock(osc))
		require.NoError(t, s.Undo())

		_, err = s.Block(osc)
		assert.NoError(t, err)
		_, err = s.Edge(edgeID)
		assert.NoError(t, err, "cascaded wire comes back with the block")
		_, err = s.Publisher(pubID)
		assert.NoError(t, err)

		gotEdge, _, ok := s.InputSource(mix, "a")
		require.True(t, ok, "input source index is rebuilt")
		assert.Equal(t, edgeID, gotEdge)
	})

	t.Run("undo connect restores displaced source", func(t *testing.T) {
		s := newTestStore(t)
		osc1, _ := s.AddBlock("Oscillator")
		osc2, _ := s.AddBlock("Oscillator")
		mix, _ := s.AddBlock("Mixer")

		old, err := s.Connect(Endpoint{osc1, "out"}, Endpoint{mix, "a"})
		require.NoError(t, err)
		repl, err := s.Connect(Endpoint{osc2, "out"}, Endpoint{mix, "a"})
		require.NoError(t, err)

		require.NoError(t, s.Undo())

		_, err = s.Edge(repl)
		assert.ErrorIs(t, err, ErrEdgeNotFound)
		_, err = s.Edge(old)
		assert.NoError(t, err, "the displaced wire is part of the same transaction")
		edgeID, _, ok := s.InputSource(mix, "a")
		require.True(t, ok)
		assert.Equal(t, old, edgeID)
	})

	t.Run("new edit clears redo", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.AddBlock("Oscillator")
		require.NoError(t, err)
		require.NoError(t, s.Undo())
		require.True(t, s.CanRedo())

		_, err = s.AddBlock("Mixer")
		require.NoError(t, err)
		assert.False(t, s.CanRedo())
	})

	t.Run("history limit", func(t *testing.T) {
		s := NewStore(WithRegistry(newTestStore(t).Registry()), WithHistoryLimit(2))
		for range 5 {
			_, err := s.AddBlock("Oscillator")
			require.NoError(t, err)
		}

		require.NoError(t, s.Undo())
		require.NoError(t, s.Undo())
		assert.False(t, s.CanUndo(), "history deeper than the limit is gone")
		assert.Len(t, s.Blocks(), 3)
	})

	t.Run("undo is not recorded as an edit", func(t *testing.T) {
		s := newTestStore(t)
		id, err := s.AddBlock("Oscillator")
		require.NoError(t, err)

		require.NoError(t, s.Undo())
		require.NoError(t, s.Redo())
		require.NoError(t, s.Undo())

		_, err = s.Block(id)
		assert.ErrorIs(t, err, ErrBlockNotFound)
		assert.False(t, s.CanUndo())
	})
}
