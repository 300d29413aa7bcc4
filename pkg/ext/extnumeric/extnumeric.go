// Package extnumeric provides numeric and statistics functions for card
// templates beyond the built-in math family.
package extnumeric

import (
	"context"
	"math"
	"sort"

	"github.com/sandrolain/actemplate/pkg/ext/extutil"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// All returns all extended numeric function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Log(),
		Pow(),
		Sqrt(),
		Sign(),
		Trunc(),
		Clamp(),
		Sum(),
		Average(),
		Median(),
		Variance(),
		Stddev(),
		Percentile(),
		Mode(),
	}
}

// Log returns the definition for log(n [, base]).
// Without base, returns the natural logarithm.
func Log() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "log",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			n, err := extutil.Number("log", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			if n <= 0 {
				return types.Undefined(), extutil.Errorf("log", "argument must be positive")
			}
			if b := extutil.Arg(args, 1); !b.IsNull() {
				base, err := extutil.Number("log", b)
				if err != nil {
					return types.Undefined(), err
				}
				if base <= 0 || base == 1 {
					return types.Undefined(), extutil.Errorf("log", "base must be positive and not 1")
				}
				return extutil.Finite("log", math.Log(n)/math.Log(base))
			}
			return extutil.Finite("log", math.Log(n))
		},
	}
}

// Pow returns the definition for pow(base, exponent).
func Pow() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "pow",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			base, err := extutil.Number("pow", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			exp, err := extutil.Number("pow", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			return extutil.Finite("pow", math.Pow(base, exp))
		},
	}
}

// Sqrt returns the definition for sqrt(n).
func Sqrt() functions.CustomFunctionDef {
	return mathFunc1("sqrt", math.Sqrt)
}

// Sign returns the definition for sign(n).
// Returns -1, 0, or 1.
func Sign() functions.CustomFunctionDef {
	return mathFunc1("sign", func(n float64) float64 {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		default:
			return 0
		}
	})
}

// Trunc returns the definition for trunc(n).
// Truncates toward zero.
func Trunc() functions.CustomFunctionDef {
	return mathFunc1("trunc", math.Trunc)
}

// Clamp returns the definition for clamp(n, min, max).
func Clamp() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "clamp",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			var nums [3]float64
			for i := range nums {
				n, err := extutil.Number("clamp", args[i])
				if err != nil {
					return types.Undefined(), err
				}
				nums[i] = n
			}
			n, lo, hi := nums[0], nums[1], nums[2]
			if lo > hi {
				return types.Undefined(), extutil.Errorf("clamp", "min must not exceed max")
			}
			return types.Number(math.Min(math.Max(n, lo), hi)), nil
		},
	}
}

// Sum returns the definition for sum(array).
func Sum() functions.CustomFunctionDef {
	return aggregate("sum", func(nums []float64) float64 {
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total
	}, true)
}

// Average returns the definition for average(array). An empty array yields null.
func Average() functions.CustomFunctionDef {
	return aggregate("average", func(nums []float64) float64 {
		return mean(nums)
	}, false)
}

// Median returns the definition for median(array).
func Median() functions.CustomFunctionDef {
	return aggregate("median", func(nums []float64) float64 {
		sorted := sortedCopy(nums)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	}, false)
}

// Variance returns the definition for variance(array), the population variance.
func Variance() functions.CustomFunctionDef {
	return aggregate("variance", variance, false)
}

// Stddev returns the definition for stddev(array).
func Stddev() functions.CustomFunctionDef {
	return aggregate("stddev", func(nums []float64) float64 {
		return math.Sqrt(variance(nums))
	}, false)
}

// Percentile returns the definition for percentile(array, p).
// p is in range [0, 100]; values between ranks are interpolated.
func Percentile() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "percentile",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			nums, err := extutil.Numbers("percentile", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			p, err := extutil.Number("percentile", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			if p < 0 || p > 100 {
				return types.Undefined(), extutil.Errorf("percentile", "p must be between 0 and 100")
			}
			if len(nums) == 0 {
				return types.Null(), nil
			}
			sorted := sortedCopy(nums)
			idx := p / 100 * float64(len(sorted)-1)
			lo := int(math.Floor(idx))
			hi := int(math.Ceil(idx))
			if lo == hi {
				return types.Number(sorted[lo]), nil
			}
			frac := idx - float64(lo)
			return types.Number(sorted[lo]*(1-frac) + sorted[hi]*frac), nil
		},
	}
}

// Mode returns the definition for mode(array).
// Returns the most frequent value; if multiple values have the same
// frequency, returns all of them as an array in first-seen order.
func Mode() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "mode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			nums, err := extutil.Numbers("mode", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			if len(nums) == 0 {
				return types.Null(), nil
			}
			counts := make(map[float64]int)
			maxCount := 0
			for _, n := range nums {
				counts[n]++
				if counts[n] > maxCount {
					maxCount = counts[n]
				}
			}
			var modes []types.Value
			for _, n := range nums {
				if counts[n] == maxCount {
					modes = append(modes, types.Number(n))
					counts[n] = 0
				}
			}
			if len(modes) == 1 {
				return modes[0], nil
			}
			return types.Array(modes...), nil
		},
	}
}

func mathFunc1(name string, fn func(float64) float64) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			n, err := extutil.Number(name, args[0])
			if err != nil {
				return types.Undefined(), err
			}
			return extutil.Finite(name, fn(n))
		},
	}
}

// aggregate builds a function over an array of numbers. Unless emptyOK is
// set, an empty array yields null instead of calling fn.
func aggregate(name string, fn func([]float64) float64, emptyOK bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			nums, err := extutil.Numbers(name, args[0])
			if err != nil {
				return types.Undefined(), err
			}
			if len(nums) == 0 && !emptyOK {
				return types.Null(), nil
			}
			return extutil.Finite(name, fn(nums))
		},
	}
}

func sortedCopy(nums []float64) []float64 {
	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)
	return sorted
}

func mean(nums []float64) float64 {
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum / float64(len(nums))
}

func variance(nums []float64) float64 {
	m := mean(nums)
	v := 0.0
	for _, n := range nums {
		diff := n - m
		v += diff * diff
	}
	return v / float64(len(nums))
}
