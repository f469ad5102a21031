package grid

import (
	"bufio"
	"errors"
	"io"

	"github.com/midbel/cellkit/layout"
	"github.com/midbel/cellkit/value"
)

var (
	ErrPosition = errors.New("invalid position")
	ErrCircular = errors.New("circular dependency")
)

// Sheet owns every cell of the grid, keyed by position, plus the row
// and column multiplicity counters the printable zone is derived from.
type Sheet struct {
	cells map[layout.Position]*Cell
	rows  map[int]int
	cols  map[int]int
}

func NewSheet() *Sheet {
	return &Sheet{
		cells: make(map[layout.Position]*Cell),
		rows:  make(map[int]int),
		cols:  make(map[int]int),
	}
}

// SetCell stores the raw input at pos, creating the cell when absent.
// It fails with ErrPosition on an invalid position, a wrapped
// formula.ErrSyntax when the input is a malformed formula, and
// ErrCircular when the input would close a dependency loop. A failed
// call leaves every cell of the sheet exactly as it was, except that a
// freshly created cell stays behind empty and counted, same as one
// materialized by a formula reference.
func (s *Sheet) SetCell(pos layout.Position, text string) error {
	if !pos.IsValid() {
		return ErrPosition
	}
	c, ok := s.cells[pos]
	if !ok {
		c = newCell(s, pos)
		s.cells[pos] = c
		c.counted = true
		s.count(pos)
	}
	if err := c.Set(text); err != nil {
		return err
	}
	if !c.counted {
		c.counted = true
		s.count(pos)
	}
	return nil
}

// ClearCell empties the cell at pos and removes it from the printable
// zone counters. When other formulas still reference the position, an
// empty placeholder stays in the index so the adjacency stays
// symmetric; it is counted again once written to or re-referenced.
func (s *Sheet) ClearCell(pos layout.Position) error {
	if !pos.IsValid() {
		return ErrPosition
	}
	c, ok := s.cells[pos]
	if !ok {
		return nil
	}
	if c.counted {
		c.counted = false
		s.uncount(pos)
	}
	c.detach()
	c.text = ""
	c.formula = nil
	c.invalidate()
	if len(c.succs) == 0 {
		delete(s.cells, pos)
	}
	return nil
}

// Cell returns the cell at pos, nil when the position holds none.
func (s *Sheet) Cell(pos layout.Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, ErrPosition
	}
	return s.cells[pos], nil
}

// At implements value.Context for formula evaluation.
func (s *Sheet) At(pos layout.Position) (value.Value, error) {
	c, ok := s.cells[pos]
	if !ok {
		return nil, nil
	}
	return c.Value(), nil
}

// materialize returns the cell at pos, creating an empty one when the
// position holds none, and makes sure it takes part in the printable
// zone counters. Called while rewiring formula references; pos is
// valid by construction.
func (s *Sheet) materialize(pos layout.Position) *Cell {
	c, ok := s.cells[pos]
	if !ok {
		c = newCell(s, pos)
		s.cells[pos] = c
	}
	if !c.counted {
		c.counted = true
		s.count(pos)
	}
	return c
}

func (s *Sheet) count(pos layout.Position) {
	s.rows[pos.Row]++
	s.cols[pos.Col]++
}

func (s *Sheet) uncount(pos layout.Position) {
	s.rows[pos.Row]--
	if s.rows[pos.Row] == 0 {
		delete(s.rows, pos.Row)
	}
	s.cols[pos.Col]--
	if s.cols[pos.Col] == 0 {
		delete(s.cols, pos.Col)
	}
}

// PrintableSize returns the size of the minimal rectangle anchored at
// A1 that covers every counted cell. Derived from the multiplicity
// counters, not from the occupied positions: clearing the last cell of
// a row but not of its column keeps the box that wide.
func (s *Sheet) PrintableSize() layout.Dimension {
	var dim layout.Dimension
	for r := range s.rows {
		if r+1 > dim.Rows {
			dim.Rows = r + 1
		}
	}
	for c := range s.cols {
		if c+1 > dim.Cols {
			dim.Cols = c + 1
		}
	}
	return dim
}

// PrintValues writes the evaluated printable zone to w: one line per
// row, columns separated by tabs, numbers in plain decimal, errors as
// their mnemonic, absent cells blank.
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		return c.Value().String()
	})
}

// PrintTexts writes the raw printable zone to w in the same layout as
// PrintValues.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		return c.Text()
	})
}

func (s *Sheet) print(w io.Writer, render func(*Cell) string) error {
	var (
		writer = bufio.NewWriter(w)
		dim    = s.PrintableSize()
	)
	for row := 0; row < dim.Rows; row++ {
		for col := 0; col < dim.Cols; col++ {
			if col > 0 {
				writer.WriteByte(tab)
			}
			pos := layout.Position{Row: row, Col: col}
			if c, ok := s.cells[pos]; ok {
				io.WriteString(writer, render(c))
			}
		}
		writer.WriteByte(nl)
	}
	return writer.Flush()
}

const (
	tab = '\t'
	nl  = '\n'
)
