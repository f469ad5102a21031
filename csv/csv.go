package csv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/midbel/cellkit/grid"
	"github.com/midbel/cellkit/layout"
)

// NewReader wraps encoding/csv for sheet input: records may have any
// number of fields.
func NewReader(r io.Reader) *csv.Reader {
	rs := csv.NewReader(r)
	rs.FieldsPerRecord = -1
	return rs
}

// Load builds a sheet from CSV input. Every non empty field goes
// through SetCell, so fields opening with the formula sign become live
// formulas wired into the dependency graph. A zero comma keeps the
// default separator.
func Load(r io.Reader, comma rune) (*grid.Sheet, error) {
	rs := NewReader(r)
	if comma != 0 {
		rs.Comma = comma
	}
	sheet := grid.NewSheet()
	var row int
	for {
		record, err := rs.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for col, field := range record {
			if field == "" {
				continue
			}
			pos := layout.Position{Row: row, Col: col}
			if !pos.IsValid() {
				return nil, fmt.Errorf("row %d, column %d: %w", row+1, col+1, grid.ErrPosition)
			}
			if err := sheet.SetCell(pos, field); err != nil {
				return nil, fmt.Errorf("%s: %w", pos.Addr(), err)
			}
		}
		row++
	}
	return sheet, nil
}

// Open reads the named CSV file, decoding it from the given charset
// when one is set. A name of "" or "-" reads standard input.
func Open(file, charset string, comma rune) (*grid.Sheet, error) {
	enc, err := Encoding(charset)
	if err != nil {
		return nil, err
	}
	var r io.Reader = os.Stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}
	return Load(bufio.NewReader(r), comma)
}

// Encoding resolves a charset name the way browsers do. The empty
// name and the utf-8 aliases resolve to nil, meaning no decoding.
func Encoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(name)
	if name == "" || name == "utf-8" || name == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return enc, nil
}

// Separator maps a human separator name to the rune encoding/csv
// expects.
func Separator(str string) (rune, error) {
	var comma rune
	switch str {
	case "semi", "semicolon", ";":
		comma = ';'
	case "comma", ",", "":
		comma = ','
	case "tab", "\t":
		comma = '\t'
	case "colon", ":":
		comma = ':'
	default:
		return 0, fmt.Errorf("%s: unsupported separator", str)
	}
	return comma, nil
}

// WriteValues encodes the sheet's printable zone as CSV, one record
// per row, every cell rendered through its evaluated value.
func WriteValues(w io.Writer, sheet *grid.Sheet, comma rune) error {
	return write(w, sheet, comma, func(c *grid.Cell) string {
		return c.Value().String()
	})
}

// WriteTexts encodes the sheet's printable zone as CSV with the raw
// cell texts, canonical formula text included.
func WriteTexts(w io.Writer, sheet *grid.Sheet, comma rune) error {
	return write(w, sheet, comma, func(c *grid.Cell) string {
		return c.Text()
	})
}

func write(w io.Writer, sheet *grid.Sheet, comma rune, render func(*grid.Cell) string) error {
	ws := csv.NewWriter(w)
	if comma != 0 {
		ws.Comma = comma
	}
	dim := sheet.PrintableSize()
	record := make([]string, dim.Cols)
	for row := 0; row < dim.Rows; row++ {
		for col := 0; col < dim.Cols; col++ {
			record[col] = ""
			cell, err := sheet.Cell(layout.Position{Row: row, Col: col})
			if err != nil {
				return err
			}
			if cell != nil {
				record[col] = render(cell)
			}
		}
		if err := ws.Write(record); err != nil {
			return err
		}
	}
	ws.Flush()
	return ws.Error()
}
