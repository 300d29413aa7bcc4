package evaluator

import (
	"fmt"
	"math"

	"github.com/sandrolain/actemplate/pkg/types"
)

// textArg returns the formatted text of a function argument. Null becomes
// the empty string.
func textArg(v types.Value) string {
	return types.FormatText(v)
}

// numberArg coerces a function argument to a number with the same rules as
// the arithmetic operators.
func numberArg(fn string, v types.Value) (float64, error) {
	return arithmeticOperand(v, fn, -1)
}

// intArg coerces a function argument to an integer, truncating toward zero.
func intArg(fn string, v types.Value) (int, error) {
	n, err := numberArg(fn, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, types.NewError(types.ErrInvalidArgument,
			fmt.Sprintf("%s: %s is not a valid integer", fn, types.FormatNumber(n)), -1)
	}
	return int(math.Trunc(n)), nil
}

// optionalText returns the text of args[i], or def when the argument was
// not passed or is null.
func optionalText(args []types.Value, i int, def string) string {
	if i >= len(args) || args[i].IsNull() {
		return def
	}
	return textArg(args[i])
}

// optionalInt returns args[i] as an integer, or def when the argument was
// not passed or is null.
func optionalInt(fn string, args []types.Value, i int, def int) (int, error) {
	if i >= len(args) || args[i].IsNull() {
		return def, nil
	}
	return intArg(fn, args[i])
}

// arrayArg returns the items of an array argument. Null yields an empty
// slice; other kinds are type errors.
func arrayArg(fn string, v types.Value) ([]types.Value, error) {
	if v.IsNull() {
		return nil, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, types.NewError(types.ErrInvalidTypeOperation,
			fmt.Sprintf("%s: expected an array, got %s", fn, v.Kind()), -1)
	}
	return items, nil
}

// invalidArgument builds a T1005 error for a function argument.
func invalidArgument(fn, format string, a ...interface{}) error {
	return types.NewError(types.ErrInvalidArgument, fn+": "+fmt.Sprintf(format, a...), -1).WithToken(fn)
}

// numberResult wraps a float result, rejecting NaN and infinities which
// have no JSON form.
func numberResult(fn string, n float64) (types.Value, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return types.Undefined(), types.NewError(types.ErrCannotConvertNumber,
			fmt.Sprintf("%s: result %s is not a finite number", fn, types.FormatNumber(n)), -1)
	}
	return types.Number(n), nil
}
