package lens

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

// Sentinel errors for transform compilation and evaluation.
var (
	// ErrBadExpression indicates a transform expression that failed CEL
	// compilation or does not produce a numeric value.
	ErrBadExpression = errors.New("bad transform expression")

	// ErrEvalFailed indicates a runtime evaluation failure.
	ErrEvalFailed = errors.New("transform evaluation failed")
)

// Kind distinguishes the two halves of a transform stack. Adapters convert
// between representations and are owned by the wiring layer; lenses are
// user-authored value shaping. The split matters because edits replace one
// half while preserving the other.
type Kind string

const (
	KindAdapter Kind = "adapter"
	KindLens    Kind = "lens"
)

// Transform is one step of a stack: a CEL expression over the input value.
type Transform struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Expr string `json:"expr" yaml:"expr"`
}

// Stack is an ordered transform pipeline, applied first-to-last.
type Stack []Transform

// Adapters returns the adapter steps in order.
func (s Stack) Adapters() Stack { return s.byKind(KindAdapter) }

// Lenses returns the lens steps in order.
func (s Stack) Lenses() Stack { return s.byKind(KindLens) }

func (s Stack) byKind(k Kind) Stack {
	var out Stack
	for _, t := range s {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// Merge rebuilds a stack from an adapter half and a lens half, adapters
// first. This is how SetEdgeLenses/SetEdgeAdapters preserve the untouched
// half of the pipeline.
func Merge(adapters, lenses Stack) Stack {
	merged := make(Stack, 0, len(adapters)+len(lenses))
	merged = append(merged, adapters...)
	merged = append(merged, lenses...)
	return merged
}

// env is the shared CEL environment: one double variable named value.
// Construction cannot fail with a fixed declaration set, but the error is
// kept so init-order bugs surface loudly.
var env = func() *cel.Env {
	e, err := cel.NewEnv(cel.Variable("value", cel.DoubleType))
	if err != nil {
		panic(fmt.Sprintf("lens: cel environment: %v", err))
	}
	return e
}()

// CompiledStack is a validated, executable transform pipeline.
type CompiledStack struct {
	stack    Stack
	programs []cel.Program
}

// Compile type-checks every expression in the stack and returns an
// executable pipeline. Expressions must evaluate to a double (int results
// are accepted and widened).
func Compile(stack Stack) (*CompiledStack, error) {
	compiled := &CompiledStack{stack: stack}
	for i, tr := range stack {
		ast, iss := env.Compile(tr.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("%w: step %d (%s) %q: %v", ErrBadExpression, i, tr.Kind, tr.Expr, iss.Err())
		}
		out := ast.OutputType()
		if !out.IsExactType(cel.DoubleType) && !out.IsExactType(cel.IntType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("%w: step %d (%s) %q: produces %s, want double", ErrBadExpression, i, tr.Kind, tr.Expr, out)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d (%s) %q: %v", ErrBadExpression, i, tr.Kind, tr.Expr, err)
		}
		compiled.programs = append(compiled.programs, prg)
	}
	return compiled, nil
}

// Validate compiles the stack and discards the result. It is the authoring
// gate used by edge and binding edits.
func Validate(stack Stack) error {
	_, err := Compile(stack)
	return err
}

// Len returns the number of steps in the compiled pipeline.
func (c *CompiledStack) Len() int { return len(c.programs) }

// Apply runs the pipeline over a value, first step to last.
func (c *CompiledStack) Apply(value float64) (float64, error) {
	for i, prg := range c.programs {
		out, _, err := prg.Eval(map[string]any{"value": value})
		if err != nil {
			return 0, fmt.Errorf("%w: step %d %q: %v", ErrEvalFailed, i, c.stack[i].Expr, err)
		}
		switch v := out.Value().(type) {
		case float64:
			value = v
		case int64:
			value = float64(v)
		default:
			return 0, fmt.Errorf("%w: step %d %q: produced %T, want double", ErrEvalFailed, i, c.stack[i].Expr, out.Value())
		}
	}
	return value, nil
}
