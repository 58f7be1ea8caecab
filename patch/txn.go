package patch

import (
	"sort"

	"github.com/waveframe/patchgraph/event"
)

// collection names one of the store's owned maps.
type collection int

const (
	colBlocks collection = iota
	colEdges
	colBuses
	colPublishers
	colListeners
)

// verb is a primitive mutation.
type verb int

const (
	verbAdd verb = iota
	verbRemove
	verbReplace
)

// op is one primitive mutation against one collection. entity always holds
// the full post-op value; prior holds the pre-op value for remove and
// replace so the op can be inverted for undo.
type op struct {
	verb   verb
	col    collection
	entity any
	prior  any
}

// invert returns the op that exactly reverses this one.
func (o op) invert() op {
	switch o.verb {
	case verbAdd:
		return op{verb: verbRemove, col: o.col, entity: o.entity, prior: o.entity}
	case verbRemove:
		return op{verb: verbAdd, col: o.col, entity: o.prior}
	default:
		return op{verb: verbReplace, col: o.col, entity: o.prior, prior: o.entity}
	}
}

// tx is a labeled, atomic batch of primitive ops. Compound operations share
// one tx so the whole edit commits as one revision and one GraphCommitted,
// which stands in for the per-primitive event suppression a
// nested-transaction design would need.
type tx struct {
	s     *Store
	label string
	ops   []op

	// quiet suppresses per-entity events; used by whole-patch operations
	// (clear, macro expansion) that publish a single summary event
	// instead of an event storm.
	quiet bool

	// pre events are published after per-entity events, before
	// GraphCommitted; post events after it.
	pre  []event.Event
	post []event.Event

	// replay marks undo/redo application, which must not re-record
	// history.
	replay bool
}

func (s *Store) begin(label string) *tx {
	return &tx{s: s, label: label}
}

// Ops are applied to the collections as they are recorded: all hard
// validation happens before an op is recorded, and once a transaction
// starts applying it always completes. Later ops in the same transaction
// therefore see the effect of earlier ones, which is what lets a compound
// edit wire blocks it created a moment ago.

func (t *tx) add(col collection, entity any) {
	o := op{verb: verbAdd, col: col, entity: entity}
	t.s.apply(o)
	t.ops = append(t.ops, o)
}

func (t *tx) remove(col collection, prior any) {
	o := op{verb: verbRemove, col: col, entity: prior, prior: prior}
	t.s.apply(o)
	t.ops = append(t.ops, o)
}

func (t *tx) replace(col collection, entity, prior any) {
	o := op{verb: verbReplace, col: col, entity: entity, prior: prior}
	t.s.apply(o)
	t.ops = append(t.ops, o)
}

// removeBlockCascade expands to the removal of every wire and binding
// incident to the block, then the block itself. Incident entities are
// removed in sorted-ID order so replay and events are deterministic.
func (t *tx) removeBlockCascade(blockID string) {
	for _, id := range sortedKeys(t.s.blockEdges[blockID]) {
		t.remove(colEdges, t.s.edges[id].Clone())
	}
	for _, id := range sortedKeys(t.s.blockPubs[blockID]) {
		t.remove(colPublishers, t.s.publishers[id].Clone())
	}
	for _, id := range sortedKeys(t.s.blockListeners[blockID]) {
		t.remove(colListeners, t.s.listeners[id].Clone())
	}
	t.remove(colBlocks, t.s.blocks[blockID].Clone())
}

// removeBusCascade expands to the removal of every binding on the bus, then
// the bus itself.
func (t *tx) removeBusCascade(busID string) {
	for _, id := range sortedKeys(t.s.busPubs[busID]) {
		t.remove(colPublishers, t.s.publishers[id].Clone())
	}
	for _, id := range sortedKeys(t.s.busListeners[busID]) {
		t.remove(colListeners, t.s.listeners[id].Clone())
	}
	t.remove(colBuses, t.s.buses[busID].Clone())
}

// commit finalizes the batch: increments the revision exactly once,
// publishes per-entity events in op order, then GraphCommitted with the
// diff summary. Empty transactions are a no-op: no revision, no events.
func (t *tx) commit() {
	if len(t.ops) == 0 && len(t.pre) == 0 && len(t.post) == 0 {
		return
	}

	t.s.revision++

	if !t.replay {
		t.s.hist.record(txRecord{label: t.label, ops: t.ops})
	}

	if !t.quiet {
		for _, o := range t.ops {
			if ev, ok := eventFor(o); ok {
				t.s.dispatcher.Publish(ev)
			}
		}
	}
	for _, ev := range t.pre {
		t.s.dispatcher.Publish(ev)
	}
	t.s.dispatcher.Publish(event.GraphCommitted{
		Revision: t.s.revision,
		Diff:     t.diff(),
	})
	for _, ev := range t.post {
		t.s.dispatcher.Publish(ev)
	}
}

// apply mutates the owned collections for one op.
func (s *Store) apply(o op) {
	switch o.col {
	case colBlocks:
		switch o.verb {
		case verbAdd:
			s.indexBlock(o.entity.(*Block).Clone())
		case verbRemove:
			s.unindexBlock(o.entity.(*Block).ID)
		case verbReplace:
			b := o.entity.(*Block).Clone()
			s.blocks[b.ID] = b
		}
	case colEdges:
		switch o.verb {
		case verbAdd:
			s.indexEdge(o.entity.(*Edge).Clone())
		case verbRemove:
			s.unindexEdge(o.entity.(*Edge).ID)
		case verbReplace:
			e := o.entity.(*Edge).Clone()
			s.unindexEdge(e.ID)
			s.indexEdge(e)
		}
	case colBuses:
		switch o.verb {
		case verbAdd:
			s.indexBus(o.entity.(*Bus).Clone())
		case verbRemove:
			s.unindexBus(o.entity.(*Bus).ID)
		case verbReplace:
			b := o.entity.(*Bus).Clone()
			s.unindexBus(b.ID)
			s.indexBus(b)
		}
	case colPublishers:
		switch o.verb {
		case verbAdd:
			s.indexPublisher(o.entity.(*Publisher).Clone())
		case verbRemove:
			s.unindexPublisher(o.entity.(*Publisher).ID)
		case verbReplace:
			p := o.entity.(*Publisher).Clone()
			s.unindexPublisher(p.ID)
			s.indexPublisher(p)
		}
	case colListeners:
		switch o.verb {
		case verbAdd:
			s.indexListener(o.entity.(*Listener).Clone())
		case verbRemove:
			s.unindexListener(o.entity.(*Listener).ID)
		case verbReplace:
			l := o.entity.(*Listener).Clone()
			s.unindexListener(l.ID)
			s.indexListener(l)
		}
	}
}

// eventFor maps a primitive op to its per-entity event. Replace ops carry
// no per-entity event; their effect is visible in the commit diff.
func eventFor(o op) (event.Event, bool) {
	switch o.col {
	case colBlocks:
		b := o.entity.(*Block)
		switch o.verb {
		case verbAdd:
			return event.BlockAdded{BlockID: b.ID, Type: b.Type}, true
		case verbRemove:
			return event.BlockRemoved{BlockID: b.ID, Type: b.Type}, true
		}
	case colEdges:
		e := o.entity.(*Edge)
		from := event.Endpoint{BlockID: e.From.BlockID, Slot: e.From.Slot}
		to := event.Endpoint{BlockID: e.To.BlockID, Slot: e.To.Slot}
		switch o.verb {
		case verbAdd:
			return event.WireAdded{EdgeID: e.ID, From: from, To: to}, true
		case verbRemove:
			return event.WireRemoved{EdgeID: e.ID, From: from, To: to}, true
		}
	case colBuses:
		b := o.entity.(*Bus)
		switch o.verb {
		case verbAdd:
			return event.BusCreated{BusID: b.ID, Name: b.Name}, true
		case verbRemove:
			return event.BusDeleted{BusID: b.ID, Name: b.Name}, true
		}
	case colPublishers:
		p := o.entity.(*Publisher)
		switch o.verb {
		case verbAdd:
			return event.BindingAdded{BindingID: p.ID, BlockID: p.BlockID, Slot: p.Slot, BusID: p.BusID, Publisher: true}, true
		case verbRemove:
			return event.BindingRemoved{BindingID: p.ID, BlockID: p.BlockID, Slot: p.Slot, BusID: p.BusID, Publisher: true}, true
		}
	case colListeners:
		l := o.entity.(*Listener)
		switch o.verb {
		case verbAdd:
			return event.BindingAdded{BindingID: l.ID, BlockID: l.BlockID, Slot: l.Slot, BusID: l.BusID}, true
		case verbRemove:
			return event.BindingRemoved{BindingID: l.ID, BlockID: l.BlockID, Slot: l.Slot, BusID: l.BusID}, true
		}
	}
	return nil, false
}

// diff summarizes the transaction for GraphCommitted.
func (t *tx) diff() event.Diff {
	var d event.Diff
	blockIDs := make(map[string]struct{})
	busIDs := make(map[string]struct{})

	for _, o := range t.ops {
		switch o.col {
		case colBlocks:
			b := o.entity.(*Block)
			blockIDs[b.ID] = struct{}{}
			switch o.verb {
			case verbAdd:
				d.BlocksAdded++
			case verbRemove:
				d.BlocksRemoved++
			}
		case colEdges:
			d.WiresChanged++
		case colBuses:
			b := o.entity.(*Bus)
			busIDs[b.ID] = struct{}{}
			switch o.verb {
			case verbAdd:
				d.BusesAdded++
			case verbRemove:
				d.BusesRemoved++
			}
		case colPublishers:
			d.BindingsChanged++
			p := o.entity.(*Publisher)
			if t.phaseBus(p.BusID) && o.verb != verbReplace {
				d.TimeRootChanged = true
			}
		case colListeners:
			d.BindingsChanged++
		}
	}

	d.BlockIDs = setToSorted(blockIDs)
	d.BusIDs = setToSorted(busIDs)
	return d
}

// phaseBus reports whether the bus drives the patch's master phase. Adding
// or removing a publisher on a phase bus changes the time root.
func (t *tx) phaseBus(busID string) bool {
	// The bus may already be gone when a cascade removes it and its
	// bindings in the same transaction; check removed entities too.
	if b, ok := t.s.buses[busID]; ok {
		return b.Type.Semantics == "phase"
	}
	for _, o := range t.ops {
		if o.col == colBuses {
			if b := o.entity.(*Bus); b.ID == busID {
				return b.Type.Semantics == "phase"
			}
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setToSorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	return sortedKeys(set)
}
