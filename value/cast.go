package value

import (
	"math"
	"strconv"
)

// ToNumber coerces the value read from a referenced cell to a number.
// Errors pass through unchanged. Empty text counts as zero, other text
// must parse entirely as a plain decimal number (dot as separator, an
// optional exponent) or the coercion yields ErrValue.
func ToNumber(val Value) Value {
	switch v := val.(type) {
	case nil:
		return Float(0)
	case Float:
		return v
	case Error:
		return v
	case Text:
		return textToNumber(string(v))
	default:
		return ErrValue
	}
}

func textToNumber(str string) Value {
	if str == "" {
		return Float(0)
	}
	for _, c := range str {
		if !isNumeric(c) {
			return ErrValue
		}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return ErrValue
	}
	return Float(f)
}

func isNumeric(c rune) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '+', '-', '.', 'e', 'E':
		return true
	}
	return false
}
