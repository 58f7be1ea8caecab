package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/patch"
)

func newStore(t *testing.T) *patch.Store {
	t.Helper()
	return patch.NewStore(patch.WithRegistry(blocktype.NewBuiltinRegistry()))
}

func TestAnchorID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := anchorID("block", map[string]any{"owner": "b1", "slot": "phase"})
		b := anchorID("block", map[string]any{"slot": "phase", "owner": "b1"})
		assert.Equal(t, a, b, "property order must not matter")
	})

	t.Run("distinct anchors distinct IDs", func(t *testing.T) {
		a := anchorID("block", map[string]any{"owner": "b1", "slot": "phase"})
		b := anchorID("block", map[string]any{"owner": "b1", "slot": "frequency"})
		assert.NotEqual(t, a, b)
	})

	t.Run("format", func(t *testing.T) {
		id := anchorID("block", map[string]any{"owner": "b1"})
		require.True(t, strings.HasPrefix(id, "block:"))
		assert.Len(t, strings.TrimPrefix(id, "block:"), 16, "12 hash bytes base64url encoded")
	})

	t.Run("string normalization", func(t *testing.T) {
		a := anchorID("block", map[string]any{"slot": "Phase "})
		b := anchorID("block", map[string]any{"slot": "phase"})
		assert.Equal(t, a, b)
	})
}

func TestNormalizerDefaults(t *testing.T) {
	s := newStore(t)
	n := New(s)
	defer n.Close()

	osc, err := s.AddBlock("Oscillator")
	require.NoError(t, err)

	g := n.Graph()

	// Oscillator's three inputs all declare defaults, so three structural
	// sources plus the block itself.
	require.Len(t, g.Blocks, 4)
	require.Len(t, g.Edges, 3)

	structural := 0
	for _, b := range g.Blocks {
		if b.Role == patch.RoleStructural {
			structural++
			assert.Equal(t, DefaultSourceType, b.Type)
			assert.Contains(t, b.Params, "value")
			assert.True(t, strings.HasPrefix(b.ID, "block:"))
		}
	}
	assert.Equal(t, 3, structural)

	for _, e := range g.Edges {
		assert.Equal(t, osc, e.To.BlockID)
	}
}

func TestNormalizerConnectedInputsGetNoDefault(t *testing.T) {
	s := newStore(t)
	n := New(s)
	defer n.Close()

	osc, _ := s.AddBlock("ValueConst")
	mix, _ := s.AddBlock("Mixer")
	_, err := s.Connect(patch.Endpoint{BlockID: osc, Slot: "out"}, patch.Endpoint{BlockID: mix, Slot: "a"})
	require.NoError(t, err)

	g := n.Graph()

	// mix.a is wired; mix.b and mix.mix get synthesized sources.
	structural := 0
	for _, b := range g.Blocks {
		if b.Role == patch.RoleStructural {
			structural++
		}
	}
	assert.Equal(t, 2, structural)

	t.Run("listener counts as a source", func(t *testing.T) {
		_, err := s.BindListener(mix, "b", "energy")
		require.NoError(t, err)

		g := n.Graph()
		structural := 0
		for _, b := range g.Blocks {
			if b.Role == patch.RoleStructural {
				structural++
			}
		}
		assert.Equal(t, 1, structural)
	})
}

func TestNormalizerDropsDisabledEdges(t *testing.T) {
	s := newStore(t)
	n := New(s)
	defer n.Close()

	src, _ := s.AddBlock("ValueConst")
	mix, _ := s.AddBlock("Mixer")
	edgeID, err := s.Connect(patch.Endpoint{BlockID: src, Slot: "out"}, patch.Endpoint{BlockID: mix, Slot: "a"})
	require.NoError(t, err)

	before := n.Graph()
	wires := 0
	for _, e := range before.Edges {
		if e.From.BlockID == src {
			wires++
		}
	}
	require.Equal(t, 1, wires)

	require.NoError(t, s.EnableEdge(edgeID, false))
	after := n.Graph()

	for _, e := range after.Edges {
		assert.NotEqual(t, src, e.From.BlockID, "disabled wire must not survive normalization")
	}

	// With the wire disabled the input is unconnected again, so its
	// default source reappears.
	var feeds []string
	for _, e := range after.Edges {
		if e.To.BlockID == mix && e.To.Slot == "a" {
			feeds = append(feeds, e.From.BlockID)
		}
	}
	require.Len(t, feeds, 1)
	assert.True(t, strings.HasPrefix(feeds[0], "block:"))
}

func TestNormalizerDeterminism(t *testing.T) {
	s := newStore(t)
	n := New(s)
	defer n.Close()

	src, _ := s.AddBlock("ValueConst")
	mix, _ := s.AddBlock("Mixer")

	// The structural source for mix.a after a disconnect must have the
	// same ID it had before the input was ever wired: identity comes from
	// the anchor, not from when the normalizer ran.
	first := n.Graph()
	var origSource string
	for _, e := range first.Edges {
		if e.To.BlockID == mix && e.To.Slot == "a" {
			origSource = e.From.BlockID
		}
	}
	require.NotEmpty(t, origSource)

	edgeID, err := s.Connect(patch.Endpoint{BlockID: src, Slot: "out"}, patch.Endpoint{BlockID: mix, Slot: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Disconnect(edgeID))

	again := n.Graph()
	var nowSource string
	for _, e := range again.Edges {
		if e.To.BlockID == mix && e.To.Slot == "a" {
			nowSource = e.From.BlockID
		}
	}
	assert.Equal(t, origSource, nowSource)
}

func TestNormalizerCaching(t *testing.T) {
	s := newStore(t)
	n := New(s)
	defer n.Close()

	_, err := s.AddBlock("ValueConst")
	require.NoError(t, err)

	g1 := n.Graph()
	g2 := n.Graph()
	assert.Same(t, g1, g2, "no commit between reads, no recompute")
	assert.Equal(t, s.Revision(), g1.Revision)

	_, err = s.AddBlock("Mixer")
	require.NoError(t, err)

	g3 := n.Graph()
	assert.NotSame(t, g1, g3)
	assert.Equal(t, s.Revision(), g3.Revision)

	t.Run("closed normalizer stops invalidating", func(t *testing.T) {
		n.Close()
		stale := n.Graph()
		_, err := s.AddBlock("Mixer")
		require.NoError(t, err)
		assert.Same(t, stale, n.Graph())
	})
}
