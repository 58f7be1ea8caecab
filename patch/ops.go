package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/waveframe/patchgraph/blocktype"
	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/lens"
	"github.com/waveframe/patchgraph/typedesc"
	"github.com/waveframe/patchgraph/validate"
)

// blockSpec is the mutable target of BlockOptions.
type blockSpec struct {
	Block
	noAutoWire bool
}

// BlockOption configures a block at creation time.
type BlockOption func(*blockSpec)

// WithParams overrides parameter defaults. Keys outside the type's parameter
// schema are dropped.
func WithParams(params map[string]any) BlockOption {
	return func(s *blockSpec) {
		for k, v := range params {
			if s.Params == nil {
				s.Params = make(map[string]any)
			}
			s.Params[k] = v
		}
	}
}

// WithLabel overrides the type's default label.
func WithLabel(label string) BlockOption {
	return func(s *blockSpec) { s.Label = label }
}

// WithPosition places the block on the canvas.
func WithPosition(x, y float64) BlockOption {
	return func(s *blockSpec) { s.Position = Position{X: x, Y: y} }
}

// WithRole marks the block's role. Defaults to RoleUser.
func WithRole(role Role) BlockOption {
	return func(s *blockSpec) { s.Role = role }
}

// WithID supplies the block's identity instead of minting one. Document
// loading uses this so persisted IDs survive a round trip; the ID must not
// collide with a live block.
func WithID(id string) BlockOption {
	return func(s *blockSpec) { s.ID = id }
}

// WithoutAutoWiring skips the type's declared auto-bus bindings. Document
// loading uses this because a document carries its bindings explicitly.
func WithoutAutoWiring() BlockOption {
	return func(s *blockSpec) { s.noAutoWire = true }
}

// ConnectOption configures a wire at creation time.
type ConnectOption func(*connectSpec)

type connectSpec struct {
	transforms lens.Stack
	disabled   bool
}

// WithEdgeTransforms attaches a transform stack to the new wire. The
// expressions must compile.
func WithEdgeTransforms(stack lens.Stack) ConnectOption {
	return func(s *connectSpec) { s.transforms = stack }
}

// Disabled creates the wire in the disabled state. Document loading uses
// this to round-trip wires the author had switched off.
func Disabled() ConnectOption {
	return func(s *connectSpec) { s.disabled = true }
}

// BindingOption configures a publisher or listener binding.
type BindingOption func(*bindingConfig)

type bindingConfig struct {
	transforms lens.Stack
	sortKey    int
	sortKeySet bool
}

// WithSortKey sets a publisher's explicit combine order. Defaults to one past
// the bus's current highest sort key.
func WithSortKey(key int) BindingOption {
	return func(c *bindingConfig) {
		c.sortKey = key
		c.sortKeySet = true
	}
}

// WithTransforms attaches a transform stack to the binding.
func WithTransforms(stack lens.Stack) BindingOption {
	return func(c *bindingConfig) { c.transforms = stack }
}

// BusDeclOption configures a bus at creation time.
type BusDeclOption func(*Bus)

// WithBusDefault sets the value the bus carries when no publisher is bound.
func WithBusDefault(v any) BusDeclOption {
	return func(b *Bus) { b.DefaultValue = v }
}

// AddBlock creates a block of the named registered type, applies its
// parameter defaults and auto-bus wiring, and commits. Macro-kind types are
// not materialized; they delegate to the bound macro expander, and the
// returned ID is whatever the expansion reports as its primary block.
func (s *Store) AddBlock(typeName string, opts ...BlockOption) (string, error) {
	def, err := s.registry.Lookup(typeName)
	if err != nil {
		return "", err
	}
	if def.Kind == blocktype.KindMacro {
		if s.expandMacro == nil {
			return "", fmt.Errorf("%w: type %q", ErrMacroExpanderUnbound, typeName)
		}
		return s.expandMacro(typeName)
	}

	t := s.begin("addBlock:" + typeName)
	id, err := t.addBlock(def, opts...)
	if err != nil {
		return "", err
	}
	t.commit()
	return id, nil
}

// RemoveBlock deletes a block and cascades to every wire and binding
// incident to it, all in one commit.
func (s *Store) RemoveBlock(blockID string) error {
	if _, ok := s.blocks[blockID]; !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	t := s.begin("removeBlock")
	t.removeBlockCascade(blockID)
	t.commit()
	return nil
}

// Connect wires an output slot to an input slot. Reconnecting an identical
// edge is a no-op returning the existing edge ID. If the input already has a
// source (a wire or a listener), the old source is removed in the same
// commit; an input never has two sources.
//
// Assignability is advisory here: a mismatched wire is created with a
// warning so the author can fix it with adapters, but direction errors and
// self-connections are rejected outright.
func (s *Store) Connect(from, to Endpoint, opts ...ConnectOption) (string, error) {
	t := s.begin("connect")
	id, err := t.connect(from, to, opts...)
	if err != nil {
		return "", err
	}
	t.commit()
	return id, nil
}

// Disconnect removes a wire.
func (s *Store) Disconnect(edgeID string) error {
	t := s.begin("disconnect")
	if err := t.disconnect(edgeID); err != nil {
		return err
	}
	t.commit()
	return nil
}

// UpdateBlockParams overlays the given parameter values onto the block.
// Keys outside the type's parameter schema are dropped with a warning.
func (s *Store) UpdateBlockParams(blockID string, params map[string]any) error {
	prior, ok := s.blocks[blockID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	def, err := s.registry.Lookup(prior.Type)
	if err != nil {
		return err
	}

	next := prior.Clone()
	if next.Params == nil {
		next.Params = make(map[string]any)
	}
	for k, v := range params {
		if _, known := def.DefaultParams[k]; !known {
			s.logger.Warn("dropping unknown param",
				"block", blockID, "type", prior.Type, "param", k)
			continue
		}
		next.Params[k] = v
	}

	t := s.begin("updateParams")
	t.replace(colBlocks, next, prior.Clone())
	t.commit()
	return nil
}

// UpdateBlockLabel renames a block.
func (s *Store) UpdateBlockLabel(blockID, label string) error {
	prior, ok := s.blocks[blockID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	next := prior.Clone()
	next.Label = label

	t := s.begin("updateLabel")
	t.replace(colBlocks, next, prior.Clone())
	t.commit()
	return nil
}

// SetBlockPosition moves a block on the canvas.
func (s *Store) SetBlockPosition(blockID string, x, y float64) error {
	prior, ok := s.blocks[blockID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	next := prior.Clone()
	next.Position = Position{X: x, Y: y}

	t := s.begin("moveBlock")
	t.replace(colBlocks, next, prior.Clone())
	t.commit()
	return nil
}

// SetEdgeLenses replaces the lens half of a wire's transform stack, keeping
// its adapters. The expressions must compile.
func (s *Store) SetEdgeLenses(edgeID string, lenses lens.Stack) error {
	return s.setEdgeTransforms(edgeID, "setLenses", func(existing lens.Stack) lens.Stack {
		return lens.Merge(existing.Adapters(), lenses)
	}, lenses)
}

// SetEdgeAdapters replaces the adapter half of a wire's transform stack,
// keeping its lenses. The expressions must compile.
func (s *Store) SetEdgeAdapters(edgeID string, adapters lens.Stack) error {
	return s.setEdgeTransforms(edgeID, "setAdapters", func(existing lens.Stack) lens.Stack {
		return lens.Merge(adapters, existing.Lenses())
	}, adapters)
}

func (s *Store) setEdgeTransforms(edgeID, label string, merge func(lens.Stack) lens.Stack, incoming lens.Stack) error {
	prior, ok := s.edges[edgeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
	}
	if err := lens.Validate(incoming); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransform, err)
	}
	next := prior.Clone()
	next.Transforms = merge(prior.Transforms)

	t := s.begin(label)
	t.replace(colEdges, next, prior.Clone())
	t.commit()
	return nil
}

// EnableEdge toggles a wire without removing it. Disabled wires stay in the
// patch and in documents but are dropped from the normalized graph.
func (s *Store) EnableEdge(edgeID string, enabled bool) error {
	prior, ok := s.edges[edgeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
	}
	if prior.Enabled == enabled {
		return nil
	}
	next := prior.Clone()
	next.Enabled = enabled

	t := s.begin("enableEdge")
	t.replace(colEdges, next, prior.Clone())
	t.commit()
	return nil
}

// CreateBus declares a user bus. The name must be free (case-insensitively),
// the type bus-eligible, and the combine mode legal for the type's domain.
// Reserved names belong to the built-in buses and cannot be re-declared.
func (s *Store) CreateBus(name string, typ typedesc.TypeDesc, mode buscontract.CombineMode, opts ...BusDeclOption) (string, error) {
	t := s.begin("createBus:" + name)
	id, err := t.createBus(name, typ, mode, opts...)
	if err != nil {
		return "", err
	}
	t.commit()
	return id, nil
}

// RemoveBus deletes a user bus and cascades to every binding on it. The
// built-in buses cannot be removed.
func (s *Store) RemoveBus(busID string) error {
	bus, ok := s.buses[busID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBusNotFound, busID)
	}
	if bus.Origin == OriginBuiltin {
		return fmt.Errorf("%w: %s", ErrBuiltinBusImmutable, bus.Name)
	}
	t := s.begin("removeBus:" + bus.Name)
	t.removeBusCascade(busID)
	t.commit()
	return nil
}

// BindPublisher binds a block's output slot to a bus by name. The slot type
// must be bus-eligible and assignable to the bus type; bindings are
// hard-validated because a bad publisher corrupts every listener downstream.
func (s *Store) BindPublisher(blockID, slot, busName string, opts ...BindingOption) (string, error) {
	t := s.begin("bindPublisher")
	id, err := t.bindPublisher(blockID, slot, busName, opts...)
	if err != nil {
		return "", err
	}
	t.commit()
	return id, nil
}

// BindListener binds a block's input slot to a bus by name. The bus type
// must be assignable to the slot type. A listener counts as the input's
// single source: any existing wire or listener on the input is removed in
// the same commit.
func (s *Store) BindListener(blockID, slot, busName string, opts ...BindingOption) (string, error) {
	t := s.begin("bindListener")
	id, err := t.bindListener(blockID, slot, busName, opts...)
	if err != nil {
		return "", err
	}
	t.commit()
	return id, nil
}

// RemoveBinding removes a publisher or listener by binding ID.
func (s *Store) RemoveBinding(bindingID string) error {
	t := s.begin("removeBinding")
	if err := t.removeBinding(bindingID); err != nil {
		return err
	}
	t.commit()
	return nil
}

// ClearPatch removes every block, wire, bus binding, and user bus in one
// commit. The built-in buses survive. Per-entity events are suppressed; a
// single PatchCleared precedes the GraphCommitted.
func (s *Store) ClearPatch() {
	t := s.begin("clear")
	t.quiet = true
	t.clear()
	t.pre = append(t.pre, event.PatchCleared{})
	t.commit()
}

// Transaction primitives shared by the store operations and Batch.

func (t *tx) addBlock(def *blocktype.Definition, opts ...BlockOption) (string, error) {
	spec := blockSpec{Block: Block{
		Type:  def.Name,
		Label: def.Label,
		Role:  RoleUser,
	}}
	for _, opt := range opts {
		opt(&spec)
	}
	if spec.ID == "" {
		spec.ID = newID()
	} else if _, taken := t.s.blocks[spec.ID]; taken {
		return "", fmt.Errorf("%w: block ID %q already in use", ErrDuplicateID, spec.ID)
	}

	blk := spec.Block.Clone()
	blk.Params = def.ResolveParams(spec.Params)
	t.add(colBlocks, blk)

	if spec.noAutoWire {
		return blk.ID, nil
	}

	// Auto-bus wiring is best effort: a missing bus or a failed binding
	// check skips that binding with a warning rather than failing the
	// block creation.
	for _, auto := range def.AutoBuses {
		slot := def.Slot(auto.Slot)
		if slot == nil {
			t.s.logger.Warn("auto-bus references unknown slot",
				"type", def.Name, "slot", auto.Slot, "bus", auto.Bus)
			continue
		}
		var err error
		if slot.Direction == blocktype.Output {
			_, err = t.bindPublisher(blk.ID, auto.Slot, auto.Bus)
		} else {
			_, err = t.bindListener(blk.ID, auto.Slot, auto.Bus)
		}
		if err != nil {
			t.s.logger.Warn("skipping auto-bus binding",
				"type", def.Name, "slot", auto.Slot, "bus", auto.Bus, "error", err)
		}
	}
	return blk.ID, nil
}

func (t *tx) connect(from, to Endpoint, opts ...ConnectOption) (string, error) {
	// Reconnecting an identical live edge is a no-op.
	for id := range t.s.blockEdges[from.BlockID] {
		e := t.s.edges[id]
		if e.From == from && e.To == to {
			return id, nil
		}
	}

	var spec connectSpec
	for _, opt := range opts {
		opt(&spec)
	}
	if err := lens.Validate(spec.transforms); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTransform, err)
	}

	res := validate.CheckConnection(t.s, t.s.registry,
		validate.Endpoint{BlockID: from.BlockID, Slot: from.Slot},
		validate.Endpoint{BlockID: to.BlockID, Slot: to.Slot})
	if !res.OK {
		if err := hardIssues(res, ErrInvalidConnection); err != nil {
			return "", err
		}
		// Only assignability failed. The wire goes in anyway; the author
		// can repair the type with adapters, and compile reports it if
		// they don't.
		t.s.logger.Warn("connecting with incompatible types",
			"from", from.BlockID+"."+from.Slot,
			"to", to.BlockID+"."+to.Slot,
			"issue", res.Issues[0].Message)
	}

	t.displaceInputSource(to)

	edge := &Edge{
		ID:         newID(),
		From:       from,
		To:         to,
		Transforms: spec.transforms,
		Enabled:    !spec.disabled,
	}
	t.add(colEdges, edge)
	return edge.ID, nil
}

func (t *tx) disconnect(edgeID string) error {
	e, ok := t.s.edges[edgeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
	}
	t.remove(colEdges, e.Clone())
	return nil
}

func (t *tx) createBus(name string, typ typedesc.TypeDesc, mode buscontract.CombineMode, opts ...BusDeclOption) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidBus)
	}
	if _, taken := t.s.busByName[strings.ToLower(name)]; taken {
		if buscontract.IsReservedBusName(name) {
			return "", fmt.Errorf("%w: %s", ErrBuiltinBusImmutable, name)
		}
		return "", fmt.Errorf("%w: %q", ErrDuplicateBusName, name)
	}
	if !typ.BusEligible {
		return "", fmt.Errorf("%w: type %s is not bus eligible", ErrInvalidBus, typ)
	}
	if !buscontract.ValidCombineMode(mode) {
		return "", fmt.Errorf("%w: unknown combine mode %q", ErrInvalidBus, mode)
	}
	if verr := buscontract.ValidateCombineMode(typ.Domain, mode); verr != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidBus, verr.Message)
	}

	bus := &Bus{
		ID:          newID(),
		Name:        name,
		Type:        typ,
		CombineMode: mode,
		Origin:      OriginUser,
	}
	for _, opt := range opts {
		opt(bus)
	}
	t.add(colBuses, bus)
	return bus.ID, nil
}

func (t *tx) bindPublisher(blockID, slot, busName string, opts ...BindingOption) (string, error) {
	bus, err := t.s.BusByName(busName)
	if err != nil {
		return "", err
	}
	res := validate.CheckBinding(t.s, t.s.registry,
		validate.Endpoint{BlockID: blockID, Slot: slot}, bus.Type, validate.Publish)
	if !res.OK {
		return "", bindingError(res)
	}

	cfg := bindingConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.sortKeySet {
		cfg.sortKey = t.nextSortKey(bus.ID)
	}

	pub := &Publisher{
		ID:         newID(),
		BlockID:    blockID,
		Slot:       slot,
		BusID:      bus.ID,
		Transforms: cfg.transforms,
		SortKey:    cfg.sortKey,
	}
	t.add(colPublishers, pub)
	return pub.ID, nil
}

func (t *tx) bindListener(blockID, slot, busName string, opts ...BindingOption) (string, error) {
	bus, err := t.s.BusByName(busName)
	if err != nil {
		return "", err
	}
	res := validate.CheckBinding(t.s, t.s.registry,
		validate.Endpoint{BlockID: blockID, Slot: slot}, bus.Type, validate.Listen)
	if !res.OK {
		return "", bindingError(res)
	}

	cfg := bindingConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	t.displaceInputSource(Endpoint{BlockID: blockID, Slot: slot})

	lst := &Listener{
		ID:         newID(),
		BlockID:    blockID,
		Slot:       slot,
		BusID:      bus.ID,
		Transforms: cfg.transforms,
	}
	t.add(colListeners, lst)
	return lst.ID, nil
}

func (t *tx) removeBinding(bindingID string) error {
	if p, ok := t.s.publishers[bindingID]; ok {
		t.remove(colPublishers, p.Clone())
		return nil
	}
	if l, ok := t.s.listeners[bindingID]; ok {
		t.remove(colListeners, l.Clone())
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBindingNotFound, bindingID)
}

// displaceInputSource removes whatever currently feeds the input, keeping the
// single-source invariant: an input has at most one wire or listener.
func (t *tx) displaceInputSource(ep Endpoint) {
	ref, ok := t.s.inputSource[ep]
	if !ok {
		return
	}
	if ref.edgeID != "" {
		if e, live := t.s.edges[ref.edgeID]; live {
			t.remove(colEdges, e.Clone())
		}
	}
	if ref.listenerID != "" {
		if l, live := t.s.listeners[ref.listenerID]; live {
			t.remove(colListeners, l.Clone())
		}
	}
}

// nextSortKey returns one past the bus's highest publisher sort key, so new
// publishers combine after existing ones.
func (t *tx) nextSortKey(busID string) int {
	next := 0
	for id := range t.s.busPubs[busID] {
		if k := t.s.publishers[id].SortKey; k >= next {
			next = k + 1
		}
	}
	return next
}

func (t *tx) clear() {
	blockIDs := make([]string, 0, len(t.s.blocks))
	for id := range t.s.blocks {
		blockIDs = append(blockIDs, id)
	}
	sort.Strings(blockIDs)
	for _, id := range blockIDs {
		t.removeBlockCascade(id)
	}

	busIDs := make([]string, 0, len(t.s.buses))
	for id, b := range t.s.buses {
		if b.Origin == OriginUser {
			busIDs = append(busIDs, id)
		}
	}
	sort.Strings(busIDs)
	for _, id := range busIDs {
		t.removeBusCascade(id)
	}
}

// hardIssues returns an error if the result contains anything worse than a
// type-assignability finding, nil when assignability is the only complaint.
func hardIssues(res validate.Result, sentinel error) error {
	for _, issue := range res.Issues {
		switch issue.Code {
		case validate.CodeBlockNotFound:
			return fmt.Errorf("%w: %s", ErrBlockNotFound, issue.Message)
		case validate.CodeSlotNotFound, validate.CodeTypeUnknown:
			return fmt.Errorf("%w: %s", ErrSlotNotFound, issue.Message)
		case validate.CodeNotAssignable:
			continue
		default:
			return fmt.Errorf("%w: %s", sentinel, issue.Message)
		}
	}
	return nil
}

// bindingError maps a failed binding check to a store error. Bindings have
// no soft failures.
func bindingError(res validate.Result) error {
	issue := res.Issues[0]
	switch issue.Code {
	case validate.CodeBlockNotFound:
		return fmt.Errorf("%w: %s", ErrBlockNotFound, issue.Message)
	case validate.CodeSlotNotFound, validate.CodeTypeUnknown:
		return fmt.Errorf("%w: %s", ErrSlotNotFound, issue.Message)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidBinding, issue.Message)
	}
}
