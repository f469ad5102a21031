package grid

import (
	"math"

	"github.com/midbel/cellkit/formula"
	"github.com/midbel/cellkit/layout"
	"github.com/midbel/cellkit/value"
)

const (
	formulaSign = '='
	escapeSign  = '\''
)

// Cell is a single grid entry. It stores the raw text, the parsed
// formula when the text is one, the memoized result of the last
// evaluation, and both directions of the dependency graph: preds are
// the cells this one reads, succs the cells reading this one.
type Cell struct {
	sheet *Sheet
	pos   layout.Position

	text    string
	formula *formula.Formula
	cache   value.Value

	preds map[layout.Position]*Cell
	succs map[layout.Position]*Cell

	// counted is true while the cell takes part in the printable
	// zone counters of its sheet.
	counted bool
}

func newCell(sheet *Sheet, pos layout.Position) *Cell {
	return &Cell{
		sheet: sheet,
		pos:   pos,
		preds: make(map[layout.Position]*Cell),
		succs: make(map[layout.Position]*Cell),
	}
}

// Pos returns the cell's own coordinate.
func (c *Cell) Pos() layout.Position {
	return c.pos
}

// Text returns the stored text: verbatim input for text cells, the
// formula sign plus the canonical expression for formula cells.
func (c *Cell) Text() string {
	return c.text
}

// Value returns the cell's current value. Formula cells answer from
// the cache when it is warm, otherwise they evaluate and fill it.
// Finite numbers are cached as numbers, non finite results as the
// division error.
func (c *Cell) Value() value.Value {
	if c.formula == nil {
		if len(c.text) > 0 && c.text[0] == escapeSign {
			return value.Text(c.text[1:])
		}
		return value.Text(c.text)
	}
	if c.cache != nil {
		return c.cache
	}
	res := c.formula.Eval(c.sheet)
	if f, ok := res.(value.Float); ok {
		if v := float64(f); math.IsInf(v, 0) || math.IsNaN(v) {
			res = value.ErrDiv0
		}
	}
	c.cache = res
	return res
}

// Refs returns the positions the cell's formula references, sorted in
// row major order; nil for text and empty cells.
func (c *Cell) Refs() []layout.Position {
	if c.formula == nil {
		return nil
	}
	return c.formula.Refs()
}

// Set replaces the cell content with the given raw input. Input that
// does not open with the formula sign, or is the lone sign, becomes
// plain text. Anything else is parsed, checked against the dependency
// graph and committed. Set mutates nothing when it returns an error.
func (c *Cell) Set(input string) error {
	if len(input) < 2 || input[0] != formulaSign {
		c.commitText(input)
		return nil
	}
	expr := input[1:]
	// a second escape sign right after the formula sign is consumed
	// before parsing, as the engine always did
	if expr[0] == escapeSign {
		expr = expr[1:]
	}
	f, err := formula.Parse(expr)
	if err != nil {
		return err
	}
	refs := f.Refs()
	if c.wouldCycle(refs) {
		return ErrCircular
	}
	c.commitFormula(f, refs)
	return nil
}

func (c *Cell) commitText(text string) {
	c.detach()
	c.text = text
	c.formula = nil
	c.invalidate()
}

func (c *Cell) commitFormula(f *formula.Formula, refs []layout.Position) {
	c.detach()
	for _, p := range refs {
		rc := c.sheet.materialize(p)
		c.preds[p] = rc
		rc.succs[c.pos] = c
	}
	c.text = string(formulaSign) + f.Expression()
	c.formula = f
	c.invalidate()
}

// detach removes the cell from the successor set of every predecessor
// and empties its own predecessor set, keeping the adjacency symmetric.
func (c *Cell) detach() {
	for p, pc := range c.preds {
		delete(pc.succs, c.pos)
		delete(c.preds, p)
	}
}

// invalidate drops the cell's own cache and walks the successor edges
// forward. The walk does not descend below a cell that holds no cache:
// in a sound state its successors are already clean.
func (c *Cell) invalidate() {
	c.cache = nil
	for _, s := range c.succs {
		s.invalidateCache()
	}
}

func (c *Cell) invalidateCache() {
	if c.cache == nil {
		return
	}
	c.cache = nil
	for _, s := range c.succs {
		s.invalidateCache()
	}
}

// wouldCycle reports whether wiring the cell to the given referenced
// positions would close a loop: it searches the cells reachable from
// this one over successor edges for any member of the candidate set.
// The search terminates because the current graph is acyclic.
func (c *Cell) wouldCycle(refs []layout.Position) bool {
	if len(refs) == 0 {
		return false
	}
	targets := make(map[*Cell]struct{}, len(refs))
	for _, p := range refs {
		if rc := c.sheet.cells[p]; rc != nil {
			targets[rc] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return false
	}
	var (
		seen  = make(map[*Cell]struct{})
		queue = []*Cell{c}
	)
	for len(queue) > 0 {
		curr := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if _, ok := targets[curr]; ok {
			return true
		}
		seen[curr] = struct{}{}
		for _, s := range curr.succs {
			if _, ok := seen[s]; !ok {
				queue = append(queue, s)
			}
		}
	}
	return false
}
