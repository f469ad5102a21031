package layout

import (
	"fmt"
)

// Dimension is the size of the printable zone of a sheet. Its origin
// is always A1.
type Dimension struct {
	Rows int
	Cols int
}

func (d Dimension) Empty() bool {
	return d.Rows == 0 || d.Cols == 0
}

func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Rows, d.Cols)
}
