package patchdoc

import (
	"fmt"
	"log/slog"

	"github.com/waveframe/patchgraph"
	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/patch"
)

// SkippedItem records one document item Apply could not restore.
type SkippedItem struct {
	Kind   string `json:"kind"` // "bus", "block", "connection", "publisher", "listener"
	Detail string `json:"detail"`
	Reason string `json:"reason"`
}

// Report summarizes an Apply: how many entities were restored and which
// items had to be skipped.
type Report struct {
	Blocks  int           `json:"blocks"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
}

func (r *Report) skip(kind, detail, reason string) {
	r.Skipped = append(r.Skipped, SkippedItem{Kind: kind, Detail: detail, Reason: reason})
}

// Apply replaces the store's contents with the document's, in one
// transaction. Bus declarations are validated up front so a document that
// contradicts a reserved contract or declares an illegal combine mode is
// rejected before anything is touched. Content the current type catalog
// cannot host (unknown block types, vanished slots) is skipped and
// reported, the same leniency macro expansion applies: an old document
// should load as far as it can, not refuse entirely.
func Apply(doc *Document, store *patch.Store) (*Report, error) {
	if err := validateBuses(doc); err != nil {
		return nil, patchgraph.NewDocumentError("patchdoc.Apply", err)
	}

	logger := slog.Default()
	report := &Report{}

	b := store.Batch("loadDocument")
	b.Quiet()
	b.Clear()

	for _, bus := range doc.Buses {
		if buscontract.IsReservedBusName(bus.Name) {
			// Contract already checked; the built-in bus stands in.
			continue
		}
		opts := []patch.BusDeclOption{}
		if bus.DefaultValue != nil {
			opts = append(opts, patch.WithBusDefault(bus.DefaultValue))
		}
		if _, err := b.CreateBus(bus.Name, bus.Type, bus.CombineMode, opts...); err != nil {
			logger.Warn("document skipping bus", "bus", bus.Name, "error", err)
			report.skip("bus", bus.Name, err.Error())
		}
	}

	loaded := make(map[string]bool, len(doc.Blocks))
	for _, blk := range doc.Blocks {
		opts := []patch.BlockOption{
			patch.WithID(blk.ID),
			patch.WithPosition(blk.Position.X, blk.Position.Y),
			patch.WithoutAutoWiring(),
		}
		if blk.Label != "" {
			opts = append(opts, patch.WithLabel(blk.Label))
		}
		if blk.Role != "" {
			opts = append(opts, patch.WithRole(blk.Role))
		}
		if blk.Params != nil {
			opts = append(opts, patch.WithParams(blk.Params))
		}
		if _, err := b.AddBlock(blk.Type, opts...); err != nil {
			logger.Warn("document skipping block", "block", blk.ID, "type", blk.Type, "error", err)
			report.skip("block", blk.ID, err.Error())
			continue
		}
		loaded[blk.ID] = true
		report.Blocks++
	}

	for _, conn := range doc.Connections {
		detail := fmt.Sprintf("%s.%s -> %s.%s", conn.From.BlockID, conn.From.Slot, conn.To.BlockID, conn.To.Slot)
		if !loaded[conn.From.BlockID] || !loaded[conn.To.BlockID] {
			report.skip("connection", detail, "endpoint block not loaded")
			continue
		}
		opts := []patch.ConnectOption{}
		if conn.Transforms != nil {
			opts = append(opts, patch.WithEdgeTransforms(conn.Transforms))
		}
		if !conn.enabled() {
			opts = append(opts, patch.Disabled())
		}
		if _, err := b.Connect(conn.From, conn.To, opts...); err != nil {
			logger.Warn("document skipping connection", "connection", detail, "error", err)
			report.skip("connection", detail, err.Error())
		}
	}

	for _, binding := range doc.Publishers {
		detail := fmt.Sprintf("%s.%s -> bus %s", binding.BlockID, binding.Slot, binding.Bus)
		if !loaded[binding.BlockID] {
			report.skip("publisher", detail, "block not loaded")
			continue
		}
		opts := []patch.BindingOption{patch.WithSortKey(binding.SortKey)}
		if binding.Transforms != nil {
			opts = append(opts, patch.WithTransforms(binding.Transforms))
		}
		if _, err := b.BindPublisher(binding.BlockID, binding.Slot, binding.Bus, opts...); err != nil {
			logger.Warn("document skipping publisher", "binding", detail, "error", err)
			report.skip("publisher", detail, err.Error())
		}
	}
	for _, binding := range doc.Listeners {
		detail := fmt.Sprintf("bus %s -> %s.%s", binding.Bus, binding.BlockID, binding.Slot)
		if !loaded[binding.BlockID] {
			report.skip("listener", detail, "block not loaded")
			continue
		}
		opts := []patch.BindingOption{}
		if binding.Transforms != nil {
			opts = append(opts, patch.WithTransforms(binding.Transforms))
		}
		if _, err := b.BindListener(binding.BlockID, binding.Slot, binding.Bus, opts...); err != nil {
			logger.Warn("document skipping listener", "binding", detail, "error", err)
			report.skip("listener", detail, err.Error())
		}
	}

	b.Commit()
	return report, nil
}

// validateBuses rejects documents whose bus declarations are semantically
// impossible, before any mutation: a reserved name with a contradicting
// contract, an ineligible type, or an illegal combine mode.
func validateBuses(doc *Document) error {
	seen := make(map[string]bool, len(doc.Buses))
	for _, bus := range doc.Buses {
		if seen[bus.Name] {
			return fmt.Errorf("%w: bus %q declared twice", ErrInvalidDocument, bus.Name)
		}
		seen[bus.Name] = true

		if errs := buscontract.ValidateReservedBus(bus.Name, bus.Type, bus.CombineMode); len(errs) > 0 {
			return fmt.Errorf("%w: bus %q: %s", ErrInvalidDocument, bus.Name, errs[0].Message)
		}
		if buscontract.IsReservedBusName(bus.Name) {
			continue
		}
		if !bus.Type.BusEligible {
			return fmt.Errorf("%w: bus %q type %s is not bus eligible", ErrInvalidDocument, bus.Name, bus.Type)
		}
		if verr := buscontract.ValidateCombineMode(bus.Type.Domain, bus.CombineMode); verr != nil {
			return fmt.Errorf("%w: bus %q: %s", ErrInvalidDocument, bus.Name, verr.Message)
		}
	}
	return nil
}

// Snapshot exports the store's current contents as a document. Built-in
// buses and their identity are implied and never written; everything else
// round-trips.
func Snapshot(store *patch.Store) *Document {
	doc := &Document{
		Version:     Version,
		Metadata:    map[string]any{"patch_id": store.PatchID()},
		Blocks:      []Block{},
		Connections: []Connection{},
	}

	for _, blk := range store.Blocks() {
		doc.Blocks = append(doc.Blocks, Block{
			ID:       blk.ID,
			Type:     blk.Type,
			Label:    blk.Label,
			Role:     blk.Role,
			Params:   blk.Params,
			Position: blk.Position,
		})
	}

	for _, e := range store.Edges() {
		conn := Connection{From: e.From, To: e.To, Transforms: e.Transforms}
		if !e.Enabled {
			disabled := false
			conn.Enabled = &disabled
		}
		doc.Connections = append(doc.Connections, conn)
	}

	busName := make(map[string]string)
	for _, bus := range store.Buses() {
		busName[bus.ID] = bus.Name
		if bus.Origin != patch.OriginUser {
			continue
		}
		doc.Buses = append(doc.Buses, Bus{
			Name:         bus.Name,
			Type:         bus.Type,
			CombineMode:  bus.CombineMode,
			DefaultValue: bus.DefaultValue,
		})
	}

	for _, p := range store.Publishers() {
		doc.Publishers = append(doc.Publishers, Binding{
			BlockID:    p.BlockID,
			Slot:       p.Slot,
			Bus:        busName[p.BusID],
			Transforms: p.Transforms,
			SortKey:    p.SortKey,
		})
	}
	for _, l := range store.Listeners() {
		doc.Listeners = append(doc.Listeners, Binding{
			BlockID:    l.BlockID,
			Slot:       l.Slot,
			Bus:        busName[l.BusID],
			Transforms: l.Transforms,
		})
	}
	return doc
}
