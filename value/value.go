package value

import (
	"fmt"

	"github.com/midbel/cellkit/layout"
)

// Value is what reading a cell yields: a number, a piece of text or an
// evaluation error.
type Value interface {
	Type() string
	Scalar() any
	fmt.Stringer
}

// Context gives formulas access to the cells they reference. At
// returns a nil Value for a position that holds no cell.
type Context interface {
	At(layout.Position) (Value, error)
}

func IsError(val Value) bool {
	_, ok := val.(Error)
	return ok
}
