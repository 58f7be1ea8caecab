package patch

import (
	"fmt"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/typedesc"
)

// DroppedWiring records one wire or binding that could not be carried over
// to a replacement block, with a reason suitable for showing the author.
type DroppedWiring struct {
	Kind   string `json:"kind"` // "wire", "publisher", "listener"
	ID     string `json:"id"`   // the old entity's ID
	Reason string `json:"reason"`
}

// ReplaceResult reports what a ReplaceBlock preserved and what it dropped.
type ReplaceResult struct {
	NewBlockID string          `json:"new_block_id"`
	Preserved  []string        `json:"preserved,omitempty"` // new entity IDs
	Dropped    []DroppedWiring `json:"dropped,omitempty"`
}

// ReplaceBlock swaps a block for a new type, carrying over as much of its
// wiring as the new type's slots admit. Parameters survive where the new
// type's schema shares keys with the old one. The whole swap is one commit:
// old block out, new block in, preserved wiring rewired, with a
// BlockReplaced event summarizing what was kept and dropped.
//
// Slot matching prefers the same slot name when it is compatible, then falls
// back to the first compatible slot. Each input slot takes at most one
// carried-over source; anything that finds no compatible slot is dropped and
// reported, never silently lost.
func (s *Store) ReplaceBlock(blockID, newTypeName string) (*ReplaceResult, error) {
	old, ok := s.blocks[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	newDef, err := s.registry.Lookup(newTypeName)
	if err != nil {
		return nil, err
	}
	if newDef.Kind == blocktype.KindMacro {
		return nil, fmt.Errorf("cannot replace with macro type %q", newTypeName)
	}

	// Snapshot the wiring before the cascade tears it down.
	edges := s.EdgesOf(blockID)
	var pubs []*Publisher
	for _, id := range sortedKeys(s.blockPubs[blockID]) {
		pubs = append(pubs, s.publishers[id].Clone())
	}
	var listeners []*Listener
	for _, id := range sortedKeys(s.blockListeners[blockID]) {
		listeners = append(listeners, s.listeners[id].Clone())
	}
	oldParams := cloneParams(old.Params)
	oldLabel := old.Label
	oldPos := old.Position
	oldRole := old.Role

	t := s.begin("replaceBlock:" + newTypeName)
	t.quiet = true
	t.removeBlockCascade(blockID)

	newBlock := &Block{
		ID:       newID(),
		Type:     newDef.Name,
		Label:    oldLabel,
		Role:     oldRole,
		Params:   newDef.ResolveParams(oldParams),
		Position: oldPos,
	}
	if newBlock.Label == "" {
		newBlock.Label = newDef.Label
	}
	t.add(colBlocks, newBlock)

	result := &ReplaceResult{NewBlockID: newBlock.ID}
	claimed := make(map[string]bool) // input slots already fed on the new block

	for _, e := range edges {
		if e.From.BlockID == blockID {
			// Outgoing wire: find an output whose type still feeds the
			// far input.
			target, terr := s.resolveSlot(e.To.BlockID, e.To.Slot)
			if terr != nil {
				result.drop("wire", e.ID, fmt.Sprintf("target %s.%s no longer resolves", e.To.BlockID, e.To.Slot))
				continue
			}
			slot := matchSlot(newDef, e.From.Slot, blocktype.Output, func(st typedesc.TypeDesc) bool {
				return typedesc.Assignable(st, target.Type)
			}, nil)
			if slot == "" {
				result.drop("wire", e.ID, fmt.Sprintf("no compatible output slot for %s", target.Type))
				continue
			}
			ne := &Edge{
				ID:         newID(),
				From:       Endpoint{BlockID: newBlock.ID, Slot: slot},
				To:         e.To,
				Transforms: e.Transforms,
				Enabled:    e.Enabled,
			}
			t.add(colEdges, ne)
			result.Preserved = append(result.Preserved, ne.ID)
		} else {
			// Incoming wire: find a free input the source type fits.
			source, serr := s.resolveSlot(e.From.BlockID, e.From.Slot)
			if serr != nil {
				result.drop("wire", e.ID, fmt.Sprintf("source %s.%s no longer resolves", e.From.BlockID, e.From.Slot))
				continue
			}
			slot := matchSlot(newDef, e.To.Slot, blocktype.Input, func(st typedesc.TypeDesc) bool {
				return typedesc.Assignable(source.Type, st)
			}, claimed)
			if slot == "" {
				result.drop("wire", e.ID, fmt.Sprintf("no compatible input slot for %s", source.Type))
				continue
			}
			claimed[slot] = true
			ne := &Edge{
				ID:         newID(),
				From:       e.From,
				To:         Endpoint{BlockID: newBlock.ID, Slot: slot},
				Transforms: e.Transforms,
				Enabled:    e.Enabled,
			}
			t.add(colEdges, ne)
			result.Preserved = append(result.Preserved, ne.ID)
		}
	}

	for _, p := range pubs {
		bus, ok := s.buses[p.BusID]
		if !ok {
			result.drop("publisher", p.ID, "bus no longer exists")
			continue
		}
		slot := matchSlot(newDef, p.Slot, blocktype.Output, func(st typedesc.TypeDesc) bool {
			return st.BusEligible && typedesc.Assignable(st, bus.Type)
		}, nil)
		if slot == "" {
			result.drop("publisher", p.ID, fmt.Sprintf("no compatible output slot for bus %q (%s)", bus.Name, bus.Type))
			continue
		}
		np := &Publisher{
			ID:         newID(),
			BlockID:    newBlock.ID,
			Slot:       slot,
			BusID:      p.BusID,
			Transforms: p.Transforms,
			SortKey:    p.SortKey,
		}
		t.add(colPublishers, np)
		result.Preserved = append(result.Preserved, np.ID)
	}

	for _, l := range listeners {
		bus, ok := s.buses[l.BusID]
		if !ok {
			result.drop("listener", l.ID, "bus no longer exists")
			continue
		}
		slot := matchSlot(newDef, l.Slot, blocktype.Input, func(st typedesc.TypeDesc) bool {
			return st.BusEligible && typedesc.Assignable(bus.Type, st)
		}, claimed)
		if slot == "" {
			result.drop("listener", l.ID, fmt.Sprintf("no compatible input slot for bus %q (%s)", bus.Name, bus.Type))
			continue
		}
		claimed[slot] = true
		nl := &Listener{
			ID:         newID(),
			BlockID:    newBlock.ID,
			Slot:       slot,
			BusID:      l.BusID,
			Transforms: l.Transforms,
		}
		t.add(colListeners, nl)
		result.Preserved = append(result.Preserved, nl.ID)
	}

	reasons := make([]string, 0, len(result.Dropped))
	for _, d := range result.Dropped {
		reasons = append(reasons, d.Reason)
	}
	t.pre = append(t.pre, event.BlockReplaced{
		OldBlockID: blockID,
		NewBlockID: newBlock.ID,
		NewType:    newDef.Name,
		Preserved:  len(result.Preserved),
		Dropped:    reasons,
	})
	t.commit()
	return result, nil
}

func (r *ReplaceResult) drop(kind, id, reason string) {
	r.Dropped = append(r.Dropped, DroppedWiring{Kind: kind, ID: id, Reason: reason})
}

// matchSlot picks the replacement slot for a piece of wiring: the same slot
// name when it is compatible, otherwise the first compatible slot in
// declaration order. claimed, when non-nil, excludes input slots that
// already took a source.
func matchSlot(def *blocktype.Definition, preferred string, dir blocktype.Direction, fits func(typedesc.TypeDesc) bool, claimed map[string]bool) string {
	if slot := def.Slot(preferred); slot != nil && slot.Direction == dir && fits(slot.Type) && !claimed[preferred] {
		return preferred
	}
	for _, slot := range def.Slots {
		if slot.Direction != dir || claimed[slot.Name] || !fits(slot.Type) {
			continue
		}
		return slot.Name
	}
	return ""
}
