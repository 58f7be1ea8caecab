package patchdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/patch"
	"github.com/waveframe/patchgraph/typedesc"
)

func newStore(t *testing.T) *patch.Store {
	t.Helper()
	return patch.NewStore(patch.WithRegistry(blocktype.NewBuiltinRegistry()))
}

func TestLoad(t *testing.T) {
	t.Run("minimal valid document", func(t *testing.T) {
		doc, err := Load([]byte(`{"version": 2, "blocks": [], "connections": []}`))
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Version)
		assert.Empty(t, doc.Blocks)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Load([]byte(`{"version": 2`))
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := Load([]byte(`{"blocks": [], "connections": []}`))
		require.ErrorIs(t, err, ErrInvalidDocument)
		assert.Contains(t, err.Error(), `"version"`)
	})

	t.Run("wrong version names the number", func(t *testing.T) {
		_, err := Load([]byte(`{"version": 1, "blocks": [], "connections": []}`))
		require.ErrorIs(t, err, ErrUnsupportedVersion)
		assert.Contains(t, err.Error(), "got 1")
	})

	t.Run("missing blocks", func(t *testing.T) {
		_, err := Load([]byte(`{"version": 2, "connections": []}`))
		require.ErrorIs(t, err, ErrInvalidDocument)
		assert.Contains(t, err.Error(), `"blocks"`)
	})

	t.Run("connections must be an array", func(t *testing.T) {
		_, err := Load([]byte(`{"version": 2, "blocks": [], "connections": {}}`))
		require.ErrorIs(t, err, ErrInvalidDocument)
		assert.Contains(t, err.Error(), `"connections"`)
	})

	t.Run("version must be a number", func(t *testing.T) {
		_, err := Load([]byte(`{"version": "2", "blocks": [], "connections": []}`))
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestRoundTrip(t *testing.T) {
	src := newStore(t)

	osc, err := src.AddBlock("Oscillator", patch.WithLabel("lfo"), patch.WithPosition(10, 20))
	require.NoError(t, err)
	mix, err := src.AddBlock("Mixer")
	require.NoError(t, err)
	edgeID, err := src.Connect(patch.Endpoint{BlockID: osc, Slot: "out"}, patch.Endpoint{BlockID: mix, Slot: "a"})
	require.NoError(t, err)
	require.NoError(t, src.EnableEdge(edgeID, false))

	_, err = src.CreateBus("sidechain", typedesc.TypeDesc{
		World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, BusEligible: true,
	}, buscontract.CombineMax, patch.WithBusDefault(0.25))
	require.NoError(t, err)
	_, err = src.BindPublisher(mix, "out", "sidechain", patch.WithSortKey(3))
	require.NoError(t, err)
	_, err = src.BindListener(mix, "b", "energy")
	require.NoError(t, err)

	data, err := Encode(Snapshot(src))
	require.NoError(t, err)

	doc, err := Load(data)
	require.NoError(t, err)

	dst := newStore(t)
	report, err := Apply(doc, dst)
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 2, report.Blocks)

	// Block identity survives the trip; normalization depends on it.
	blk, err := dst.Block(osc)
	require.NoError(t, err)
	assert.Equal(t, "lfo", blk.Label)
	assert.Equal(t, patch.Position{X: 10, Y: 20}, blk.Position)

	edges := dst.Edges()
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Enabled, "disabled state round-trips")

	sidechain, err := dst.BusByName("sidechain")
	require.NoError(t, err)
	assert.Equal(t, buscontract.CombineMax, sidechain.CombineMode)
	assert.Equal(t, 0.25, sidechain.DefaultValue)

	pubs := dst.Publishers()
	require.Len(t, pubs, 1)
	assert.Equal(t, 3, pubs[0].SortKey)
	assert.Equal(t, sidechain.ID, pubs[0].BusID)

	listeners := dst.Listeners()
	require.Len(t, listeners, 1)
	energy, _ := dst.BusByName("energy")
	assert.Equal(t, energy.ID, listeners[0].BusID)

	// A second snapshot is equivalent to the first.
	again, err := Encode(Snapshot(dst))
	require.NoError(t, err)
	reDoc, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, doc.Blocks, reDoc.Blocks)
	assert.Equal(t, doc.Connections, reDoc.Connections)
	assert.Equal(t, doc.Buses, reDoc.Buses)
	assert.Equal(t, doc.Publishers, reDoc.Publishers)
	assert.Equal(t, doc.Listeners, reDoc.Listeners)
}

func TestApply(t *testing.T) {
	t.Run("replaces existing contents", func(t *testing.T) {
		s := newStore(t)
		stale, err := s.AddBlock("Oscillator")
		require.NoError(t, err)

		doc := &Document{
			Version: Version,
			Blocks:  []Block{{ID: "b1", Type: "Mixer"}},
		}
		_, err = Apply(doc, s)
		require.NoError(t, err)

		_, err = s.Block(stale)
		assert.Error(t, err)
		assert.Len(t, s.Blocks(), 1)
		assert.Equal(t, uint64(2), s.Revision(), "the whole load is one commit")
	})

	t.Run("unknown block type skipped with cascade", func(t *testing.T) {
		s := newStore(t)
		doc := &Document{
			Version: Version,
			Blocks: []Block{
				{ID: "b1", Type: "Mixer"},
				{ID: "b2", Type: "RetiredType"},
			},
			Connections: []Connection{
				{From: patch.Endpoint{BlockID: "b2", Slot: "out"}, To: patch.Endpoint{BlockID: "b1", Slot: "a"}},
			},
		}
		report, err := Apply(doc, s)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Blocks)
		require.Len(t, report.Skipped, 2)
		assert.Equal(t, "block", report.Skipped[0].Kind)
		assert.Equal(t, "connection", report.Skipped[1].Kind)
		assert.Equal(t, "endpoint block not loaded", report.Skipped[1].Reason)
	})

	t.Run("reserved bus with matching contract is a no-op", func(t *testing.T) {
		s := newStore(t)
		contract, ok := buscontract.ReservedContract("energy")
		require.True(t, ok)

		doc := &Document{
			Version: Version,
			Buses:   []Bus{{Name: "energy", Type: contract.Type, CombineMode: contract.CombineMode}},
		}
		report, err := Apply(doc, s)
		require.NoError(t, err)
		assert.Empty(t, report.Skipped)
		assert.Len(t, s.Buses(), 6)
	})

	t.Run("reserved bus contract mismatch rejected before mutation", func(t *testing.T) {
		s := newStore(t)
		keep, err := s.AddBlock("Oscillator")
		require.NoError(t, err)

		doc := &Document{
			Version: Version,
			Buses: []Bus{{
				Name:        "energy",
				Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, Category: typedesc.CategoryCore, BusEligible: true},
				CombineMode: buscontract.CombineLast, // contract says sum
			}},
		}
		_, err = Apply(doc, s)
		require.ErrorIs(t, err, ErrInvalidDocument)

		_, err = s.Block(keep)
		assert.NoError(t, err, "rejected document must not touch the patch")
	})

	t.Run("illegal combine mode rejected", func(t *testing.T) {
		doc := &Document{
			Version: Version,
			Buses: []Bus{{
				Name:        "cursor",
				Type:        typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainVec2, BusEligible: true},
				CombineMode: buscontract.CombineSum,
			}},
		}
		_, err := Apply(doc, newStore(t))
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("duplicate bus rejected", func(t *testing.T) {
		busType := typedesc.TypeDesc{World: typedesc.WorldSignal, Domain: typedesc.DomainFloat, BusEligible: true}
		doc := &Document{
			Version: Version,
			Buses: []Bus{
				{Name: "x", Type: busType, CombineMode: buscontract.CombineLast},
				{Name: "x", Type: busType, CombineMode: buscontract.CombineLast},
			},
		}
		_, err := Apply(doc, newStore(t))
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("no auto wiring on load", func(t *testing.T) {
		s := newStore(t)
		doc := &Document{
			Version: Version,
			Blocks:  []Block{{ID: "env1", Type: "Envelope"}},
		}
		_, err := Apply(doc, s)
		require.NoError(t, err)
		assert.Empty(t, s.Listeners(), "documents carry bindings explicitly")
	})
}
