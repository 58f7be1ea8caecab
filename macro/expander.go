package macro

import (
	"fmt"
	"log/slog"

	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/patch"
	"github.com/waveframe/patchgraph/validate"
)

// SkippedItem records one template item the expansion could not apply.
type SkippedItem struct {
	Kind   string `json:"kind"` // "block", "connection", "publisher", "listener"
	Detail string `json:"detail"`
	Reason string `json:"reason"`
}

// Report summarizes an expansion: every block it created and every item it
// skipped. Skips are visible here and in the log, not in the event stream;
// observers see only the committed result.
type Report struct {
	BlockIDs []string      `json:"block_ids"`
	Skipped  []SkippedItem `json:"skipped,omitempty"`
}

func (r *Report) skip(kind, detail, reason string) {
	r.Skipped = append(r.Skipped, SkippedItem{Kind: kind, Detail: detail, Reason: reason})
}

// Expander instantiates registered templates into a store.
type Expander struct {
	store    *patch.Store
	registry *Registry
	logger   *slog.Logger
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithRegistry sets the template registry. Defaults to Global().
func WithRegistry(r *Registry) ExpanderOption {
	return func(x *Expander) { x.registry = r }
}

// WithLogger sets the logger used for skip warnings. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) ExpanderOption {
	return func(x *Expander) { x.logger = l }
}

// NewExpander creates an expander bound to a store and binds it as the
// store's macro expander, so adding a macro-kind block type delegates here.
func NewExpander(store *patch.Store, opts ...ExpanderOption) *Expander {
	x := &Expander{store: store}
	for _, opt := range opts {
		opt(x)
	}
	if x.registry == nil {
		x.registry = Global()
	}
	if x.logger == nil {
		x.logger = slog.Default()
	}
	store.SetMacroExpander(func(key string) (string, error) {
		id, _, err := x.Expand(key)
		return id, err
	})
	return x
}

// Expand clears the patch and instantiates the named template as one
// transaction: one revision, one GraphCommitted, then one MacroExpanded
// with the created block IDs.
//
// The returned block ID is the first placement's mapped ID, used as a
// selection handle. Items that fail validation are skipped, warned about,
// and collected into the report; an error is returned only when the key is
// unknown, in which case the patch is untouched.
func (x *Expander) Expand(key string) (string, *Report, error) {
	exp, err := x.registry.Lookup(key)
	if err != nil {
		return "", nil, err
	}

	report := &Report{}
	b := x.store.Batch("macro:" + key)
	b.Quiet()
	b.Clear()

	refs := make(map[string]string, len(exp.Blocks))
	for _, placement := range exp.Blocks {
		opts := []patch.BlockOption{
			patch.WithPosition(placement.Position.X, placement.Position.Y),
		}
		if placement.Label != "" {
			opts = append(opts, patch.WithLabel(placement.Label))
		}
		if placement.Params != nil {
			opts = append(opts, patch.WithParams(placement.Params))
		}
		id, err := b.AddBlock(placement.Type, opts...)
		if err != nil {
			x.logger.Warn("macro skipping block",
				"macro", key, "ref", placement.Ref, "type", placement.Type, "error", err)
			report.skip("block", placement.Ref, err.Error())
			continue
		}
		refs[placement.Ref] = id
		report.BlockIDs = append(report.BlockIDs, id)
	}

	for _, conn := range exp.Connections {
		detail := fmt.Sprintf("%s.%s -> %s.%s", conn.From.Ref, conn.From.Slot, conn.To.Ref, conn.To.Slot)
		from, okFrom := refs[conn.From.Ref]
		to, okTo := refs[conn.To.Ref]
		if !okFrom || !okTo {
			x.logger.Warn("macro skipping connection", "macro", key, "connection", detail, "reason", "unresolved ref")
			report.skip("connection", detail, "unresolved ref")
			continue
		}

		// Unlike an author-driven connect, a template wire must pass the
		// full preflight; a template may reference optional or future
		// slots and a mismatch just means this template predates the
		// current type catalog.
		res := validate.CheckConnection(x.store, x.store.Registry(),
			validate.Endpoint{BlockID: from, Slot: conn.From.Slot},
			validate.Endpoint{BlockID: to, Slot: conn.To.Slot})
		if !res.OK {
			x.logger.Warn("macro skipping connection", "macro", key, "connection", detail, "reason", res.Issues[0].Message)
			report.skip("connection", detail, res.Issues[0].Message)
			continue
		}
		if _, err := b.Connect(
			patch.Endpoint{BlockID: from, Slot: conn.From.Slot},
			patch.Endpoint{BlockID: to, Slot: conn.To.Slot},
		); err != nil {
			x.logger.Warn("macro skipping connection", "macro", key, "connection", detail, "error", err)
			report.skip("connection", detail, err.Error())
		}
	}

	for _, binding := range exp.Publishers {
		detail := fmt.Sprintf("%s.%s -> bus %s", binding.Ref, binding.Slot, binding.Bus)
		id, ok := refs[binding.Ref]
		if !ok {
			report.skip("publisher", detail, "unresolved ref")
			continue
		}
		if _, err := b.BindPublisher(id, binding.Slot, binding.Bus); err != nil {
			x.logger.Warn("macro skipping publisher", "macro", key, "binding", detail, "error", err)
			report.skip("publisher", detail, err.Error())
		}
	}
	for _, binding := range exp.Listeners {
		detail := fmt.Sprintf("bus %s -> %s.%s", binding.Bus, binding.Ref, binding.Slot)
		id, ok := refs[binding.Ref]
		if !ok {
			report.skip("listener", detail, "unresolved ref")
			continue
		}
		if _, err := b.BindListener(id, binding.Slot, binding.Bus); err != nil {
			x.logger.Warn("macro skipping listener", "macro", key, "binding", detail, "error", err)
			report.skip("listener", detail, err.Error())
		}
	}

	b.AfterCommit(event.MacroExpanded{Key: key, BlockIDs: report.BlockIDs})
	b.Commit()

	var root string
	if len(exp.Blocks) > 0 {
		root = refs[exp.Blocks[0].Ref]
	}
	return root, report, nil
}
