package value

import (
	"strconv"
)

type Float float64

func (Float) Type() string {
	return "number"
}

func (f Float) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

func (f Float) Scalar() any {
	return float64(f)
}

type Text string

func (Text) Type() string {
	return "text"
}

func (t Text) String() string {
	return string(t)
}

func (t Text) Scalar() any {
	return string(t)
}
