package evaluator

import (
	"context"
	"math"

	"github.com/sandrolain/actemplate/pkg/types"
)

// foldNumbers applies op left to right over all arguments.
func foldNumbers(fn string, args []types.Value, op func(a, b float64) float64) (types.Value, error) {
	acc, err := numberArg(fn, args[0])
	if err != nil {
		return types.Undefined(), err
	}
	for _, arg := range args[1:] {
		n, err := numberArg(fn, arg)
		if err != nil {
			return types.Undefined(), err
		}
		acc = op(acc, n)
	}
	return numberResult(fn, acc)
}

func fnAdd(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return foldNumbers("add", args, func(a, b float64) float64 { return a + b })
}

func fnSub(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return foldNumbers("sub", args, func(a, b float64) float64 { return a - b })
}

func fnMul(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return foldNumbers("mul", args, func(a, b float64) float64 { return a * b })
}

func fnDiv(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return binaryArithmetic("div", "/", args)
}

func fnMod(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return binaryArithmetic("mod", "%", args)
}

func binaryArithmetic(fn, op string, args []types.Value) (types.Value, error) {
	l, err := numberArg(fn, args[0])
	if err != nil {
		return types.Undefined(), err
	}
	r, err := numberArg(fn, args[1])
	if err != nil {
		return types.Undefined(), err
	}
	n, err := applyArithmetic(op, l, r, -1)
	if err != nil {
		return types.Undefined(), err
	}
	return numberResult(fn, n)
}

// numbersOf flattens the arguments of min and max: a single array argument
// contributes its items.
func numbersOf(fn string, args []types.Value) ([]float64, error) {
	if len(args) == 1 {
		if items, ok := args[0].AsArray(); ok {
			args = items
		}
	}
	out := make([]float64, 0, len(args))
	for _, arg := range args {
		n, err := numberArg(fn, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func fnMin(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	nums, err := numbersOf("min", args)
	if err != nil {
		return types.Undefined(), err
	}
	if len(nums) == 0 {
		return types.Null(), nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Min(m, n)
	}
	return types.Number(m), nil
}

func fnMax(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	nums, err := numbersOf("max", args)
	if err != nil {
		return types.Undefined(), err
	}
	if len(nums) == 0 {
		return types.Null(), nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Max(m, n)
	}
	return types.Number(m), nil
}

// roundBankers implements banker's rounding (round half to even).
func roundBankers(num float64, decimals int) float64 {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return num
	}

	shift := math.Pow(10, float64(decimals))
	shifted := num * shift

	// Get the integer and fractional parts
	floor := math.Floor(shifted)
	frac := shifted - floor

	// Check if we're exactly at 0.5
	if math.Abs(frac-0.5) < 1e-10 {
		// Round to nearest even
		if int64(floor)%2 == 0 {
			return floor / shift
		}
		return (floor + 1) / shift
	}

	return math.Round(shifted) / shift
}

// fnRound rounds half to even, optionally to a number of decimals.
func fnRound(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("round", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	decimals, err := optionalInt("round", args, 1, 0)
	if err != nil {
		return types.Undefined(), err
	}
	if decimals < 0 || decimals > 15 {
		return types.Undefined(), invalidArgument("round", "decimals must be between 0 and 15, got %d", decimals)
	}
	return types.Number(roundBankers(n, decimals)), nil
}

func fnFloor(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("floor", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Number(math.Floor(n)), nil
}

func fnCeil(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("ceil", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Number(math.Ceil(n)), nil
}

func fnAbs(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("abs", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Number(math.Abs(n)), nil
}
