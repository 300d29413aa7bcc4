package types

import (
	"math"
	"strconv"
	"strings"
)

// FormatText converts a value to the text substituted into a partial
// binding: strings as-is, numbers in canonical JSON form, booleans as
// true/false, null and undefined as the empty string, arrays and objects as
// compact JSON.
func FormatText(v Value) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return FormatNumber(v.n)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindArray, KindObject:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// FormatNumber renders n without a trailing ".0" for integral values and
// without exponent notation below 1e21, matching how card hosts print JSON
// numbers.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	if math.Abs(n) >= 1e21 || (n != 0 && math.Abs(n) < 1e-6) {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		// Go writes e+21 / e-07; JSON hosts write e+21 / e-7.
		if i := strings.IndexByte(s, 'e'); i >= 0 && len(s) > i+3 && s[i+2] == '0' {
			s = s[:i+2] + s[i+3:]
		}
		return s
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ToNumber reports the numeric form of v when v is numeric-coercible: a
// number, or a string holding a finite decimal number
// ([+-]digits[.digits][e[+-]digits], surrounding space ignored). NaN,
// Infinity and hex forms are not numeric. Booleans, null and containers are
// not numeric-coercible.
func ToNumber(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		s := strings.TrimSpace(v.s)
		if !isDecimal(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isDecimal reports whether s matches [+-]?digits(.digits)?([eE][+-]?digits)?.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := func() bool {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i > start
	}
	if !digits() {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if !digits() {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if !digits() {
			return false
		}
	}
	return i == len(s)
}

// LooseEqual implements the == operator: null and undefined equal only each
// other, numeric-coercible pairs compare as numbers, values of the same kind
// compare deeply and anything else compares by formatted text.
func LooseEqual(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if x, ok := ToNumber(a); ok {
		if y, ok := ToNumber(b); ok {
			return x == y
		}
	}
	if a.kind == b.kind {
		return a.Equal(b)
	}
	return FormatText(a) == FormatText(b)
}

// Compare orders two values for <, <=, > and >=: numerically when both are
// numeric-coercible, lexically by formatted text otherwise. It returns -1, 0
// or +1.
func Compare(a, b Value) int {
	if x, ok := ToNumber(a); ok {
		if y, ok := ToNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(FormatText(a), FormatText(b))
}
