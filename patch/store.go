package patch

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/event"
)

// sourceRef identifies the single active source feeding an input slot:
// either a wire or a bus listener.
type sourceRef struct {
	edgeID     string
	listenerID string
}

func (r sourceRef) empty() bool { return r.edgeID == "" && r.listenerID == "" }

// Store owns the canonical patch collections. It is the single writer; see
// the package documentation for the concurrency contract.
type Store struct {
	patchID  string
	revision uint64

	registry   blocktype.Registry
	logger     *slog.Logger
	dispatcher *event.Dispatcher

	blocks     map[string]*Block
	edges      map[string]*Edge
	buses      map[string]*Bus
	publishers map[string]*Publisher
	listeners  map[string]*Listener

	// busByName maps lowercase bus names to bus IDs; bus names are unique
	// case-insensitively.
	busByName map[string]string

	// Adjacency indexes. Cascade deletes walk these instead of scanning
	// whole collections.
	blockEdges     map[string]map[string]struct{}
	blockPubs      map[string]map[string]struct{}
	blockListeners map[string]map[string]struct{}
	busPubs        map[string]map[string]struct{}
	busListeners   map[string]map[string]struct{}

	// inputSource enforces the single-source invariant in O(1).
	inputSource map[Endpoint]sourceRef

	hist *history

	// expandMacro is bound by the macro package so AddBlock can delegate
	// macro-kind types without an import cycle.
	expandMacro func(key string) (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithRegistry sets the block type registry. Defaults to blocktype.Global().
func WithRegistry(r blocktype.Registry) Option {
	return func(s *Store) { s.registry = r }
}

// WithLogger sets the logger used for advisory warnings. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithPatchID sets the patch identity. Defaults to a fresh UUID.
func WithPatchID(id string) Option {
	return func(s *Store) { s.patchID = id }
}

// WithHistoryLimit caps the undo history depth. Defaults to 256.
func WithHistoryLimit(n int) Option {
	return func(s *Store) { s.hist.limit = n }
}

// NewStore creates an empty patch at revision 0 with the built-in reserved
// buses materialized.
func NewStore(opts ...Option) *Store {
	s := &Store{
		patchID:        uuid.NewString(),
		blocks:         make(map[string]*Block),
		edges:          make(map[string]*Edge),
		buses:          make(map[string]*Bus),
		publishers:     make(map[string]*Publisher),
		listeners:      make(map[string]*Listener),
		busByName:      make(map[string]string),
		blockEdges:     make(map[string]map[string]struct{}),
		blockPubs:      make(map[string]map[string]struct{}),
		blockListeners: make(map[string]map[string]struct{}),
		busPubs:        make(map[string]map[string]struct{}),
		busListeners:   make(map[string]map[string]struct{}),
		inputSource:    make(map[Endpoint]sourceRef),
		hist:           newHistory(256),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = blocktype.Global()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.dispatcher == nil {
		s.dispatcher = event.NewDispatcher(s.logger)
	}

	// The reserved buses exist from revision 0; they are part of the
	// patch's floor, not an edit.
	for _, name := range buscontract.ReservedBusNames() {
		contract, _ := buscontract.ReservedContract(name)
		bus := &Bus{
			ID:          newID(),
			Name:        contract.Name,
			Type:        contract.Type,
			CombineMode: contract.CombineMode,
			Origin:      OriginBuiltin,
		}
		s.indexBus(bus)
	}
	return s
}

func newID() string { return uuid.NewString() }

// PatchID returns the patch identity.
func (s *Store) PatchID() string { return s.patchID }

// Revision returns the monotonically increasing revision counter. It
// increments exactly once per committed transaction; holders of derived,
// cached results compare revisions to detect staleness.
func (s *Store) Revision() uint64 { return s.revision }

// Events returns the dispatcher committed changes are published on.
func (s *Store) Events() *event.Dispatcher { return s.dispatcher }

// SetMacroExpander binds the function AddBlock delegates to when asked to
// add a macro-kind type. The macro package calls this when an expander is
// attached to the store.
func (s *Store) SetMacroExpander(fn func(key string) (string, error)) {
	s.expandMacro = fn
}

// Registry returns the block type registry the store resolves types
// against.
func (s *Store) Registry() blocktype.Registry { return s.registry }

// Block returns a copy of the identified block.
func (s *Store) Block(id string) (*Block, error) {
	b, ok := s.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return b.Clone(), nil
}

// Edge returns a copy of the identified edge.
func (s *Store) Edge(id string) (*Edge, error) {
	e, ok := s.edges[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	return e.Clone(), nil
}

// Bus returns a copy of the identified bus.
func (s *Store) Bus(id string) (*Bus, error) {
	b, ok := s.buses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusNotFound, id)
	}
	return b.Clone(), nil
}

// BusByName resolves a bus case-insensitively by name.
func (s *Store) BusByName(name string) (*Bus, error) {
	id, ok := s.busByName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBusNotFound, name)
	}
	return s.buses[id].Clone(), nil
}

// Publisher returns a copy of the identified publisher binding.
func (s *Store) Publisher(id string) (*Publisher, error) {
	p, ok := s.publishers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, id)
	}
	return p.Clone(), nil
}

// Listener returns a copy of the identified listener binding.
func (s *Store) Listener(id string) (*Listener, error) {
	l, ok := s.listeners[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, id)
	}
	return l.Clone(), nil
}

// Blocks returns copies of all blocks, sorted by ID for deterministic
// iteration.
func (s *Store) Blocks() []*Block {
	out := make([]*Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns copies of all edges, sorted by ID.
func (s *Store) Edges() []*Edge {
	out := make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Buses returns copies of all buses, sorted by name.
func (s *Store) Buses() []*Bus {
	out := make([]*Bus, 0, len(s.buses))
	for _, b := range s.buses {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Publishers returns copies of all publisher bindings, sorted by ID.
func (s *Store) Publishers() []*Publisher {
	out := make([]*Publisher, 0, len(s.publishers))
	for _, p := range s.publishers {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Listeners returns copies of all listener bindings, sorted by ID.
func (s *Store) Listeners() []*Listener {
	out := make([]*Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EdgesOf returns copies of the edges incident to a block, sorted by ID.
func (s *Store) EdgesOf(blockID string) []*Edge {
	ids := s.blockEdges[blockID]
	out := make([]*Edge, 0, len(ids))
	for id := range ids {
		out = append(out, s.edges[id].Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InputSource reports the active source feeding an input slot: the edge ID
// or listener ID, or ok=false if the input is unconnected.
func (s *Store) InputSource(blockID, slot string) (edgeID, listenerID string, ok bool) {
	ref, found := s.inputSource[Endpoint{BlockID: blockID, Slot: slot}]
	if !found || ref.empty() {
		return "", "", false
	}
	return ref.edgeID, ref.listenerID, true
}

// BlockTypeName implements validate.Graph.
func (s *Store) BlockTypeName(blockID string) (string, bool) {
	b, ok := s.blocks[blockID]
	if !ok {
		return "", false
	}
	return b.Type, true
}

// resolveSlot returns the slot definition for a live block's slot.
func (s *Store) resolveSlot(blockID, slotName string) (*blocktype.Slot, error) {
	b, ok := s.blocks[blockID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	def, err := s.registry.Lookup(b.Type)
	if err != nil {
		return nil, err
	}
	slot := def.Slot(slotName)
	if slot == nil {
		return nil, fmt.Errorf("%w: type %q has no slot %q", ErrSlotNotFound, b.Type, slotName)
	}
	return slot, nil
}

// Index maintenance. These are the only functions that touch the owned
// collections; the transaction engine calls them while applying ops.

func (s *Store) indexBlock(b *Block) {
	s.blocks[b.ID] = b
	if s.blockEdges[b.ID] == nil {
		s.blockEdges[b.ID] = make(map[string]struct{})
	}
	if s.blockPubs[b.ID] == nil {
		s.blockPubs[b.ID] = make(map[string]struct{})
	}
	if s.blockListeners[b.ID] == nil {
		s.blockListeners[b.ID] = make(map[string]struct{})
	}
}

func (s *Store) unindexBlock(id string) {
	delete(s.blocks, id)
	delete(s.blockEdges, id)
	delete(s.blockPubs, id)
	delete(s.blockListeners, id)
}

func (s *Store) indexEdge(e *Edge) {
	s.edges[e.ID] = e
	s.blockEdges[e.From.BlockID][e.ID] = struct{}{}
	s.blockEdges[e.To.BlockID][e.ID] = struct{}{}
	s.inputSource[e.To] = sourceRef{edgeID: e.ID}
}

func (s *Store) unindexEdge(id string) {
	e, ok := s.edges[id]
	if !ok {
		return
	}
	delete(s.edges, id)
	if set := s.blockEdges[e.From.BlockID]; set != nil {
		delete(set, id)
	}
	if set := s.blockEdges[e.To.BlockID]; set != nil {
		delete(set, id)
	}
	if ref := s.inputSource[e.To]; ref.edgeID == id {
		delete(s.inputSource, e.To)
	}
}

func (s *Store) indexBus(b *Bus) {
	s.buses[b.ID] = b
	s.busByName[strings.ToLower(b.Name)] = b.ID
	if s.busPubs[b.ID] == nil {
		s.busPubs[b.ID] = make(map[string]struct{})
	}
	if s.busListeners[b.ID] == nil {
		s.busListeners[b.ID] = make(map[string]struct{})
	}
}

func (s *Store) unindexBus(id string) {
	b, ok := s.buses[id]
	if !ok {
		return
	}
	delete(s.buses, id)
	delete(s.busByName, strings.ToLower(b.Name))
	delete(s.busPubs, id)
	delete(s.busListeners, id)
}

func (s *Store) indexPublisher(p *Publisher) {
	s.publishers[p.ID] = p
	s.blockPubs[p.BlockID][p.ID] = struct{}{}
	s.busPubs[p.BusID][p.ID] = struct{}{}
}

func (s *Store) unindexPublisher(id string) {
	p, ok := s.publishers[id]
	if !ok {
		return
	}
	delete(s.publishers, id)
	if set := s.blockPubs[p.BlockID]; set != nil {
		delete(set, id)
	}
	if set := s.busPubs[p.BusID]; set != nil {
		delete(set, id)
	}
}

func (s *Store) indexListener(l *Listener) {
	s.listeners[l.ID] = l
	s.blockListeners[l.BlockID][l.ID] = struct{}{}
	s.busListeners[l.BusID][l.ID] = struct{}{}
	s.inputSource[Endpoint{BlockID: l.BlockID, Slot: l.Slot}] = sourceRef{listenerID: l.ID}
}

func (s *Store) unindexListener(id string) {
	l, ok := s.listeners[id]
	if !ok {
		return
	}
	delete(s.listeners, id)
	if set := s.blockListeners[l.BlockID]; set != nil {
		delete(set, id)
	}
	if set := s.busListeners[l.BusID]; set != nil {
		delete(set, id)
	}
	ep := Endpoint{BlockID: l.BlockID, Slot: l.Slot}
	if ref := s.inputSource[ep]; ref.listenerID == id {
		delete(s.inputSource, ep)
	}
}
