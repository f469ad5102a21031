package formula

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/midbel/cellkit/layout"
	"github.com/midbel/cellkit/value"
)

// ErrSyntax wraps every parse failure reported by Parse.
var ErrSyntax = errors.New("syntax error")

// Formula is an immutable parsed arithmetic expression over numeric
// literals and cell references.
type Formula struct {
	expr Expr
	refs []layout.Position
}

func Parse(str string) (*Formula, error) {
	p := NewParser(FormulaGrammar())
	expr, err := p.ParseString(str)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, err)
	}
	f := Formula{
		expr: expr,
		refs: collectRefs(expr),
	}
	return &f, nil
}

// Expression returns the canonical reprint of the formula, without the
// leading formula sign.
func (f *Formula) Expression() string {
	return f.expr.String()
}

// Refs returns the valid positions the formula references, deduplicated
// and sorted in row major order. References outside the grid are not
// listed; they stay in the tree and evaluate to a reference error.
func (f *Formula) Refs() []layout.Position {
	return slices.Clone(f.refs)
}

// Eval computes the formula against ctx. Evaluation never fails with a
// Go error: reference, coercion and arithmetic failures come back as
// error values and the first error found wins.
func (f *Formula) Eval(ctx value.Context) value.Value {
	return eval(f.expr, ctx)
}

func eval(expr Expr, ctx value.Context) value.Value {
	switch e := expr.(type) {
	case number:
		return value.Float(e.value)
	case ref:
		return evalRef(e, ctx)
	case unary:
		return evalUnary(e, ctx)
	case binary:
		return evalBinary(e, ctx)
	default:
		return value.ErrValue
	}
}

func evalRef(e ref, ctx value.Context) value.Value {
	if !e.pos.IsValid() {
		return value.ErrRef
	}
	val, err := ctx.At(e.pos)
	if err != nil {
		return value.ErrRef
	}
	return value.ToNumber(val)
}

func evalUnary(e unary, ctx value.Context) value.Value {
	val := eval(e.right, ctx)
	n, ok := val.(value.Float)
	if !ok {
		return val
	}
	if e.op == Sub {
		n = -n
	}
	return n
}

func evalBinary(e binary, ctx value.Context) value.Value {
	left := eval(e.left, ctx)
	n, ok := left.(value.Float)
	if !ok {
		return left
	}
	right := eval(e.right, ctx)
	x, ok := right.(value.Float)
	if !ok {
		return right
	}
	var res float64
	switch e.op {
	case Add:
		res = float64(n) + float64(x)
	case Sub:
		res = float64(n) - float64(x)
	case Mul:
		res = float64(n) * float64(x)
	case Div:
		res = float64(n) / float64(x)
	default:
		return value.ErrValue
	}
	if math.IsInf(res, 0) || math.IsNaN(res) {
		return value.ErrDiv0
	}
	return value.Float(res)
}

func collectRefs(expr Expr) []layout.Position {
	var refs []layout.Position
	Walk(expr, func(e Expr) {
		if r, ok := e.(ref); ok && r.pos.IsValid() {
			refs = append(refs, r.pos)
		}
	})
	slices.SortFunc(refs, layout.Position.Compare)
	return slices.CompactFunc(refs, layout.Position.Equal)
}
