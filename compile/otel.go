package compile

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelOptions carries the OpenTelemetry hooks for compile observability.
// Both fields are optional; a nil field disables that side.
type OTelOptions struct {
	// Tracer creates one span per compile pass.
	Tracer trace.Tracer

	// MeterProvider is used to create the compile metric instruments.
	MeterProvider metric.MeterProvider
}

// otelInstruments holds the metric instruments, created once in WithOTel
// and reused for every compile.
type otelInstruments struct {
	tracer trace.Tracer

	// durationHistogram records compile duration in milliseconds.
	durationHistogram metric.Float64Histogram

	// countCounter increments once per compile pass.
	countCounter metric.Int64Counter

	// diagnosticCounter counts emitted diagnostics, labeled by severity.
	diagnosticCounter metric.Int64Counter
}

// WithOTel configures OpenTelemetry tracing and metrics for this compiler.
// OTel failures never fail a compile; instrument creation errors are
// returned here, at configuration time.
func (c *Compiler) WithOTel(opts OTelOptions) (*Compiler, error) {
	inst := &otelInstruments{tracer: opts.Tracer}

	if opts.MeterProvider != nil {
		meter := opts.MeterProvider.Meter("github.com/waveframe/patchgraph/compile")
		var err error

		inst.durationHistogram, err = meter.Float64Histogram(
			"compile.duration",
			metric.WithDescription("Compile pass duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return nil, fmt.Errorf("create duration histogram: %w", err)
		}

		inst.countCounter, err = meter.Int64Counter(
			"compile.count",
			metric.WithDescription("Number of compile passes"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create count counter: %w", err)
		}

		inst.diagnosticCounter, err = meter.Int64Counter(
			"compile.diagnostics",
			metric.WithDescription("Number of compile diagnostics emitted"),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("create diagnostic counter: %w", err)
		}
	}

	c.otel = inst
	return c, nil
}

func (c *Compiler) startSpan(ctx context.Context, result *Result) (context.Context, trace.Span) {
	if c.otel == nil || c.otel.tracer == nil {
		return ctx, nil
	}
	ctx, span := c.otel.tracer.Start(ctx, "compile.run")
	span.SetAttributes(
		attribute.String("compile.id", result.CompileID),
		attribute.Int64("patch.revision", int64(result.Revision)),
	)
	return ctx, span
}

func (c *Compiler) finishSpan(ctx context.Context, span trace.Span, result *Result, elapsed time.Duration) {
	if c.otel == nil {
		return
	}

	if span != nil {
		span.SetAttributes(
			attribute.Bool("compile.success", result.Success),
			attribute.Int("compile.diagnostic_count", len(result.Diagnostics)),
			attribute.Float64("compile.duration_ms", float64(elapsed.Milliseconds())),
		)
		if result.Success {
			span.SetStatus(codes.Ok, "compiled")
		} else {
			span.SetStatus(codes.Error, "compile failed")
		}
		span.End()
	}

	if c.otel.countCounter != nil {
		c.otel.countCounter.Add(ctx, 1)
	}
	if c.otel.durationHistogram != nil {
		c.otel.durationHistogram.Record(ctx, float64(elapsed.Milliseconds()))
	}
	if c.otel.diagnosticCounter != nil {
		for _, d := range result.Diagnostics {
			c.otel.diagnosticCounter.Add(ctx, 1,
				metric.WithAttributes(attribute.String("severity", string(d.Severity))))
		}
	}
}
