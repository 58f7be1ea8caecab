// Package compile drives the pre-flight pass that turns a patch into
// runtime-ready program metadata.
//
// The compiler does not execute anything; it normalizes the graph, runs the
// checks the numeric runtime depends on (bus IR support, dangling wiring),
// and reports the outcome on the event stream so the UI and diagnostics
// tooling see every compile uniformly.
package compile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/event"
	"github.com/waveframe/patchgraph/normalize"
	"github.com/waveframe/patchgraph/patch"
)

// Diagnostic codes reported by the compile pass.
const (
	CodeBusUnsupported  = "E_BUS_UNSUPPORTED_IR_TYPE"
	CodeDanglingWire    = "E_DANGLING_WIRE"
	CodeUnknownType     = "E_BLOCK_TYPE_UNKNOWN"
	CodeUnresolvedSlot  = "E_SLOT_NOT_FOUND"
	CodeEmptyProgram    = "W_EMPTY_PROGRAM"
)

// Result is the outcome of one compile pass.
type Result struct {
	CompileID   string             `json:"compile_id"`
	Revision    uint64             `json:"revision"`
	Success     bool               `json:"success"`
	Diagnostics []event.Diagnostic `json:"diagnostics,omitempty"`
	Program     *event.ProgramInfo `json:"program,omitempty"`
}

// Compiler runs compile passes over one store.
type Compiler struct {
	store  *patch.Store
	norm   *normalize.Normalizer
	logger *slog.Logger

	otel *otelInstruments
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New creates a compiler over a store and its normalizer.
func New(store *patch.Store, norm *normalize.Normalizer, opts ...Option) *Compiler {
	c := &Compiler{store: store, norm: norm}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Compile runs one pass: mint a compile ID, publish CompileStarted, check
// the normalized graph, publish CompileFinished. The returned error covers
// only infrastructure failures (context cancellation); semantic problems
// are diagnostics, not errors.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		CompileID: uuid.NewString(),
		Revision:  c.store.Revision(),
	}
	c.store.Events().Publish(event.CompileStarted{
		CompileID: result.CompileID,
		Revision:  result.Revision,
	})

	ctx, span := c.startSpan(ctx, result)
	start := time.Now()

	g := c.norm.Graph()
	result.Diagnostics = append(result.Diagnostics, c.checkBuses()...)
	result.Diagnostics = append(result.Diagnostics, c.checkGraph(g)...)

	result.Success = true
	for _, d := range result.Diagnostics {
		if d.Severity == event.SeverityError {
			result.Success = false
			break
		}
	}
	if result.Success {
		result.Program = &event.ProgramInfo{
			Revision:   g.Revision,
			BlockCount: len(g.Blocks),
			EdgeCount:  len(g.Edges),
			BusCount:   len(c.store.Buses()),
		}
	}

	c.finishSpan(ctx, span, result, time.Since(start))
	c.logger.Debug("compile finished",
		"compile_id", result.CompileID,
		"revision", result.Revision,
		"success", result.Success,
		"diagnostics", len(result.Diagnostics))

	c.store.Events().Publish(event.CompileFinished{
		CompileID:   result.CompileID,
		Success:     result.Success,
		Diagnostics: result.Diagnostics,
		Program:     result.Program,
	})
	return result, nil
}

// checkBuses verifies that every bus with at least one binding is
// executable by the numeric runtime. Unused buses are left alone; declaring
// a bus the runtime cannot execute is only a problem once something is
// wired to it.
func (c *Compiler) checkBuses() []event.Diagnostic {
	used := make(map[string]bool)
	for _, p := range c.store.Publishers() {
		used[p.BusID] = true
	}
	for _, l := range c.store.Listeners() {
		used[l.BusID] = true
	}

	var diags []event.Diagnostic
	for _, bus := range c.store.Buses() {
		if !used[bus.ID] {
			continue
		}
		if verr := buscontract.ValidateBusIRSupport(bus.Name, bus.Type); verr != nil {
			diags = append(diags, event.Diagnostic{
				Severity: event.SeverityError,
				Code:     CodeBusUnsupported,
				Message:  verr.Message,
				BusName:  bus.Name,
			})
		}
	}
	return diags
}

// checkGraph verifies the normalized graph is self-consistent: every block
// type resolves, every wire endpoint lands on a block and a slot that
// exist. An empty program is flagged as a warning; compiling nothing is
// legal but rarely what the author meant.
func (c *Compiler) checkGraph(g *normalize.Graph) []event.Diagnostic {
	var diags []event.Diagnostic
	reg := c.store.Registry()

	for _, b := range g.Blocks {
		if !reg.IsRegistered(b.Type) {
			diags = append(diags, event.Diagnostic{
				Severity: event.SeverityError,
				Code:     CodeUnknownType,
				Message:  fmt.Sprintf("block type %q is not registered", b.Type),
				BlockID:  b.ID,
			})
		}
	}

	for _, e := range g.Edges {
		for _, ep := range []normalize.Endpoint{e.From, e.To} {
			b := g.Block(ep.BlockID)
			if b == nil {
				diags = append(diags, event.Diagnostic{
					Severity: event.SeverityError,
					Code:     CodeDanglingWire,
					Message:  fmt.Sprintf("wire %s references missing block %q", e.ID, ep.BlockID),
					BlockID:  ep.BlockID,
				})
				continue
			}
			def, err := reg.Lookup(b.Type)
			if err != nil {
				continue // already reported as an unknown type
			}
			if def.Slot(ep.Slot) == nil {
				diags = append(diags, event.Diagnostic{
					Severity: event.SeverityError,
					Code:     CodeUnresolvedSlot,
					Message:  fmt.Sprintf("wire %s references missing slot %s.%s", e.ID, b.Type, ep.Slot),
					BlockID:  ep.BlockID,
				})
			}
		}
	}

	if len(g.Blocks) == 0 {
		diags = append(diags, event.Diagnostic{
			Severity: event.SeverityWarning,
			Code:     CodeEmptyProgram,
			Message:  "the patch has no blocks; the compiled program is empty",
		})
	}
	return diags
}
