package formula

import (
	"errors"
	"testing"

	"github.com/midbel/cellkit/layout"
	"github.com/midbel/cellkit/value"
)

type fakeContext struct {
	cells map[string]value.Value
}

func (c fakeContext) At(pos layout.Position) (value.Value, error) {
	return c.cells[pos.Addr()], nil
}

func fake() fakeContext {
	ctx := fakeContext{
		cells: make(map[string]value.Value),
	}
	ctx.cells["A1"] = value.Float(2)
	ctx.cells["A2"] = value.Float(5)
	ctx.cells["B1"] = value.Text("7")
	ctx.cells["B2"] = value.Text("7a")
	ctx.cells["C1"] = value.Text("")
	ctx.cells["D1"] = value.ErrDiv0
	return ctx
}

func TestExpression(t *testing.T) {
	tests := []struct {
		Expr string
		Want string
	}{
		{
			Expr: "1+2",
			Want: "1+2",
		},
		{
			Expr: " 1 + 2 ",
			Want: "1+2",
		},
		{
			Expr: "(1+2)",
			Want: "1+2",
		},
		{
			Expr: "1+(2+3)",
			Want: "1+2+3",
		},
		{
			Expr: "1-(2-3)",
			Want: "1-(2-3)",
		},
		{
			Expr: "1-(2+3)",
			Want: "1-(2+3)",
		},
		{
			Expr: "(1-2)-3",
			Want: "1-2-3",
		},
		{
			Expr: "(1+2)*3",
			Want: "(1+2)*3",
		},
		{
			Expr: "1+2*3",
			Want: "1+2*3",
		},
		{
			Expr: "2*(3*4)",
			Want: "2*3*4",
		},
		{
			Expr: "2/(3*4)",
			Want: "2/(3*4)",
		},
		{
			Expr: "(2*3)/4",
			Want: "2*3/4",
		},
		{
			Expr: "2/(3/4)",
			Want: "2/(3/4)",
		},
		{
			Expr: "-(1+2)",
			Want: "-(1+2)",
		},
		{
			Expr: "-(2*3)",
			Want: "-(2*3)",
		},
		{
			Expr: "-(-2)",
			Want: "--2",
		},
		{
			Expr: "+2",
			Want: "+2",
		},
		{
			Expr: "-2+3",
			Want: "-2+3",
		},
		{
			Expr: "1 + a1*b2",
			Want: "1+A1*B2",
		},
		{
			Expr: "1.50",
			Want: "1.5",
		},
		{
			Expr: "1e2",
			Want: "100",
		},
		{
			Expr: "zzzz9999999",
			Want: "ZZZZ9999999",
		},
	}
	for _, c := range tests {
		f, err := Parse(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to parse formula: %s", c.Expr, err)
			continue
		}
		if got := f.Expression(); got != c.Want {
			t.Errorf("%s: expression mismatched! want %s, got %s", c.Expr, c.Want, got)
		}
	}
}

func TestExpressionRoundTrip(t *testing.T) {
	exprs := []string{
		"1+2*3",
		"(1+2)*3",
		"1-(2-3)",
		"2/(3*4)",
		"-(1+2)",
		"--2",
		"A1+B2*C3",
		"1+2-3+4",
	}
	for _, e := range exprs {
		f, err := Parse(e)
		if err != nil {
			t.Errorf("%s: fail to parse formula: %s", e, err)
			continue
		}
		again, err := Parse(f.Expression())
		if err != nil {
			t.Errorf("%s: canonical form does not parse back: %s", f.Expression(), err)
			continue
		}
		if got := again.Expression(); got != f.Expression() {
			t.Errorf("%s: canonical form not stable! want %s, got %s", e, f.Expression(), got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	exprs := []string{
		"",
		"1+",
		"+",
		"(1",
		"1)",
		"1 2",
		"foo",
		"A1B2C",
		"A0",
		"1..2",
		"A1 B2",
		"1=2",
		"'foo'",
	}
	for _, e := range exprs {
		_, err := Parse(e)
		if err == nil {
			t.Errorf("%s: expected syntax error", e)
			continue
		}
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("%s: error not wrapping ErrSyntax: %s", e, err)
		}
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		Expr string
		Want []string
	}{
		{
			Expr: "1+2",
			Want: nil,
		},
		{
			Expr: "B2+A1+B2+A3",
			Want: []string{"A1", "B2", "A3"},
		},
		{
			Expr: "A1+A1",
			Want: []string{"A1"},
		},
		{
			Expr: "ZZZZ9999999+A1",
			Want: []string{"A1"},
		},
	}
	for _, c := range tests {
		f, err := Parse(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to parse formula: %s", c.Expr, err)
			continue
		}
		refs := f.Refs()
		if len(refs) != len(c.Want) {
			t.Errorf("%s: refs count mismatched! want %d, got %d", c.Expr, len(c.Want), len(refs))
			continue
		}
		for i := range refs {
			if got := refs[i].Addr(); got != c.Want[i] {
				t.Errorf("%s: ref %d mismatched! want %s, got %s", c.Expr, i, c.Want[i], got)
			}
		}
	}
}

func TestEval(t *testing.T) {
	ctx := fake()
	tests := []struct {
		Expr string
		Want value.Value
	}{
		{
			Expr: "1+2*3",
			Want: value.Float(7),
		},
		{
			Expr: "-2",
			Want: value.Float(-2),
		},
		{
			Expr: "A1+A2",
			Want: value.Float(7),
		},
		{
			Expr: "B1+1",
			Want: value.Float(8),
		},
		{
			Expr: "C1+1",
			Want: value.Float(1),
		},
		{
			Expr: "E9",
			Want: value.Float(0),
		},
		{
			Expr: "B2+1",
			Want: value.ErrValue,
		},
		{
			Expr: "-B2",
			Want: value.ErrValue,
		},
		{
			Expr: "B2+D1",
			Want: value.ErrValue,
		},
		{
			Expr: "D1+B2",
			Want: value.ErrDiv0,
		},
		{
			Expr: "1/0",
			Want: value.ErrDiv0,
		},
		{
			Expr: "0/0",
			Want: value.ErrDiv0,
		},
		{
			Expr: "ZZZZ9999999",
			Want: value.ErrRef,
		},
		{
			Expr: "A1/ZZZZ9999999",
			Want: value.ErrRef,
		},
	}
	for _, c := range tests {
		f, err := Parse(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to parse formula: %s", c.Expr, err)
			continue
		}
		if got := f.Eval(ctx); got != c.Want {
			t.Errorf("%s: result mismatched! want %s, got %s", c.Expr, c.Want, got)
		}
	}
}
