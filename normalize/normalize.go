// Package normalize derives the canonical compiler input from the raw,
// user-edited patch.
//
// The normalized graph keeps user-authored blocks and enabled wires, then
// materializes structural scaffolding the runtime needs: a default-value
// source block for every unconnected input that declares a default.
// Structural entities are identified by content-addressed anchors (owning
// block plus slot), never by creation order, so two patches with identical
// logical structure normalize to byte-identical graphs regardless of their
// edit history.
package normalize

import (
	"sort"

	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/lens"
	"github.com/waveframe/patchgraph/patch"
)

// DefaultSourceType is the block type materialized for unconnected inputs
// that declare a default value.
const DefaultSourceType = "ValueConst"

// Endpoint locates a slot on a normalized block.
type Endpoint struct {
	BlockID string `json:"block_id"`
	Slot    string `json:"slot"`
}

// Block is one node of the normalized graph.
type Block struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Role   patch.Role     `json:"role"`
	Params map[string]any `json:"params,omitempty"`
}

// Edge is one wire of the normalized graph. Disabled wires never appear
// here.
type Edge struct {
	ID         string     `json:"id"`
	From       Endpoint   `json:"from"`
	To         Endpoint   `json:"to"`
	Transforms lens.Stack `json:"transforms,omitempty"`
}

// Graph is the canonical, deterministically ordered compiler input. Blocks
// and edges are sorted by ID.
type Graph struct {
	Revision uint64  `json:"revision"`
	Blocks   []Block `json:"blocks"`
	Edges    []Edge  `json:"edges"`
}

// Block returns the identified normalized block, or nil.
func (g *Graph) Block(id string) *Block {
	for i := range g.Blocks {
		if g.Blocks[i].ID == id {
			return &g.Blocks[i]
		}
	}
	return nil
}

// Normalizer caches the normalized view of one store. The cache is
// invalidated by every committed transaction and recomputed lazily on the
// next read; between commits Graph is a pure function of the patch.
//
// Like the store it wraps, a Normalizer is not safe for concurrent use.
type Normalizer struct {
	store  *patch.Store
	cached *Graph
	dirty  bool
	stop   func()
}

// New binds a normalizer to a store and subscribes it to commit events for
// invalidation.
func New(store *patch.Store) *Normalizer {
	n := &Normalizer{store: store, dirty: true}
	n.stop = store.Events().Subscribe(func(e event.Event) {
		if _, ok := e.(event.GraphCommitted); ok {
			n.dirty = true
		}
	})
	return n
}

// Close unsubscribes the normalizer from the store's events.
func (n *Normalizer) Close() {
	if n.stop != nil {
		n.stop()
		n.stop = nil
	}
}

// Graph returns the normalized graph, recomputing it if the patch committed
// since the last read.
func (n *Normalizer) Graph() *Graph {
	if n.dirty || n.cached == nil {
		n.cached = n.compute()
		n.dirty = false
	}
	return n.cached
}

func (n *Normalizer) compute() *Graph {
	g := &Graph{Revision: n.store.Revision()}

	// User blocks carry their store IDs, which documents persist; any
	// structural leftovers in the store are rebuilt from scratch below so
	// their identity never depends on how they were created.
	kept := make(map[string]*patch.Block)
	for _, b := range n.store.Blocks() {
		if b.Role != patch.RoleUser {
			continue
		}
		kept[b.ID] = b
		g.Blocks = append(g.Blocks, Block{
			ID:     b.ID,
			Type:   b.Type,
			Role:   b.Role,
			Params: b.Params,
		})
	}

	// fed marks inputs that have a live source in the normalized graph.
	fed := make(map[Endpoint]bool)

	for _, e := range n.store.Edges() {
		if !e.Enabled {
			continue
		}
		if kept[e.From.BlockID] == nil || kept[e.To.BlockID] == nil {
			continue
		}
		to := Endpoint{BlockID: e.To.BlockID, Slot: e.To.Slot}
		fed[to] = true
		g.Edges = append(g.Edges, Edge{
			ID: anchorID("edge", map[string]any{
				"from_block": e.From.BlockID,
				"from_slot":  e.From.Slot,
				"to_block":   e.To.BlockID,
				"to_slot":    e.To.Slot,
			}),
			From:       Endpoint{BlockID: e.From.BlockID, Slot: e.From.Slot},
			To:         to,
			Transforms: e.Transforms,
		})
	}
	for _, l := range n.store.Listeners() {
		if kept[l.BlockID] != nil {
			fed[Endpoint{BlockID: l.BlockID, Slot: l.Slot}] = true
		}
	}

	n.synthesizeDefaults(g, fed)

	sort.Slice(g.Blocks, func(i, j int) bool { return g.Blocks[i].ID < g.Blocks[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool { return g.Edges[i].ID < g.Edges[j].ID })
	return g
}

// synthesizeDefaults materializes a structural source block for every
// unconnected input slot that declares a default. The source is keyed by
// the owning block and slot, so its ID is the same no matter when or in
// what order the input became unconnected.
func (n *Normalizer) synthesizeDefaults(g *Graph, fed map[Endpoint]bool) {
	reg := n.store.Registry()
	for _, b := range g.Blocks {
		if b.Role != patch.RoleUser {
			continue
		}
		def, err := reg.Lookup(b.Type)
		if err != nil {
			continue
		}
		for _, slot := range def.Inputs() {
			if slot.Default == nil {
				continue
			}
			to := Endpoint{BlockID: b.ID, Slot: slot.Name}
			if fed[to] {
				continue
			}
			srcID := anchorID("block", map[string]any{
				"owner": b.ID,
				"slot":  slot.Name,
				"type":  DefaultSourceType,
				"value": slot.Default,
			})
			g.Blocks = append(g.Blocks, Block{
				ID:     srcID,
				Type:   DefaultSourceType,
				Role:   patch.RoleStructural,
				Params: map[string]any{"value": slot.Default},
			})
			g.Edges = append(g.Edges, Edge{
				ID: anchorID("edge", map[string]any{
					"from_block": srcID,
					"from_slot":  "out",
					"to_block":   to.BlockID,
					"to_slot":    to.Slot,
				}),
				From: Endpoint{BlockID: srcID, Slot: "out"},
				To:   to,
			})
		}
	}
}
