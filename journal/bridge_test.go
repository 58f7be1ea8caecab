package journal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/patch"
)

func TestBridge(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors events in publish order", func(t *testing.T) {
		client, _ := setupTestJournal(t)
		store := patch.NewStore(patch.WithRegistry(blocktype.NewBuiltinRegistry()))

		bridge := NewBridge(store, client)

		osc, err := store.AddBlock("Oscillator")
		require.NoError(t, err)
		mix, err := store.AddBlock("Mixer")
		require.NoError(t, err)
		_, err = store.Connect(patch.Endpoint{BlockID: osc, Slot: "out"}, patch.Endpoint{BlockID: mix, Slot: "a"})
		require.NoError(t, err)

		bridge.Close()

		entries, err := client.Replay(ctx, store.PatchID(), "")
		require.NoError(t, err)

		var names []string
		for _, e := range entries {
			names = append(names, e.Event)
		}
		assert.Equal(t, []string{
			"BlockAdded", "GraphCommitted",
			"BlockAdded", "GraphCommitted",
			"WireAdded", "GraphCommitted",
		}, names)

		// The revision recorded is the store revision after the commit
		// that published the event.
		assert.Equal(t, uint64(1), entries[0].Revision)
		assert.Equal(t, uint64(3), entries[len(entries)-1].Revision)

		var payload struct {
			BlockID string
			Type    string
		}
		require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
		assert.Equal(t, osc, payload.BlockID)
		assert.Equal(t, "Oscillator", payload.Type)
	})

	t.Run("close stops mirroring", func(t *testing.T) {
		client, _ := setupTestJournal(t)
		store := patch.NewStore(patch.WithRegistry(blocktype.NewBuiltinRegistry()))

		bridge := NewBridge(store, client)
		_, err := store.AddBlock("Oscillator")
		require.NoError(t, err)
		bridge.Close()

		before, err := client.Len(ctx, store.PatchID())
		require.NoError(t, err)

		_, err = store.AddBlock("Mixer")
		require.NoError(t, err)

		after, err := client.Len(ctx, store.PatchID())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		client, _ := setupTestJournal(t)
		store := patch.NewStore(patch.WithRegistry(blocktype.NewBuiltinRegistry()))

		bridge := NewBridge(store, client)
		bridge.Close()
		bridge.Close()
	})
}
