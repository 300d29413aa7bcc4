// Package extutil provides shared argument helpers for the ext sub-packages.
package extutil

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"

	"github.com/sandrolain/actemplate/pkg/types"
)

// Errorf builds an invalid-argument error prefixed with the function name.
func Errorf(fn, format string, a ...interface{}) error {
	return types.NewError(types.ErrInvalidArgument, fn+": "+fmt.Sprintf(format, a...), -1).WithToken(fn)
}

// Text returns the formatted text of an argument; null is "".
func Text(v types.Value) string {
	return types.FormatText(v)
}

// Number returns the numeric form of a number or numeric string.
func Number(fn string, v types.Value) (float64, error) {
	n, ok := types.ToNumber(v)
	if !ok {
		return 0, types.NewError(types.ErrCannotConvertNumber,
			fmt.Sprintf("%s: cannot convert %q to a number", fn, types.FormatText(v)), -1).WithToken(fn)
	}
	return n, nil
}

// Int returns an argument as an integer, truncating toward zero.
func Int(fn string, v types.Value) (int, error) {
	n, err := Number(fn, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > math.MaxInt32 {
		return 0, Errorf(fn, "%s is out of range", types.FormatNumber(n))
	}
	return int(math.Trunc(n)), nil
}

// Array returns the items of an array argument. Null is an empty array.
func Array(fn string, v types.Value) ([]types.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, types.NewError(types.ErrInvalidTypeOperation,
			fmt.Sprintf("%s: argument must be an array, got %s", fn, v.Kind()), -1).WithToken(fn)
	}
	return items, nil
}

// Object returns an object argument.
func Object(fn string, v types.Value) (*types.Object, error) {
	obj, ok := v.AsObject()
	if !ok {
		return nil, types.NewError(types.ErrInvalidTypeOperation,
			fmt.Sprintf("%s: argument must be an object, got %s", fn, v.Kind()), -1).WithToken(fn)
	}
	return obj, nil
}

// Numbers converts every item of an array argument to a number.
func Numbers(fn string, v types.Value) ([]float64, error) {
	items, err := Array(fn, v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		n, err := Number(fn, item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Finite wraps a numeric result, rejecting NaN and infinities.
func Finite(fn string, n float64) (types.Value, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return types.Undefined(), types.NewError(types.ErrCannotConvertNumber,
			fmt.Sprintf("%s: result is not a finite number", fn), -1).WithToken(fn)
	}
	return types.Number(n), nil
}

// Locale parses an optional BCP 47 locale argument ("en-US" or "en_US").
// A null argument yields the fallback.
func Locale(fn string, v types.Value, fallback language.Tag) (language.Tag, error) {
	if v.IsNull() {
		return fallback, nil
	}
	s := Text(v)
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return language.Und, Errorf(fn, "invalid locale %q", s)
	}
	return tag, nil
}

// Arg returns args[i], or undefined when the optional argument is absent.
func Arg(args []types.Value, i int) types.Value {
	if i < len(args) {
		return args[i]
	}
	return types.Undefined()
}
