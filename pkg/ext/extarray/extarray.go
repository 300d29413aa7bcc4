// Package extarray provides array functions for card templates beyond the
// built-in collection family.
//
// Expressions have no lambdas, so the grouping and projection helpers take
// a property name where a callback would otherwise go:
//
//	${join(pluck(sortBy(people, 'age'), 'name'), ', ')}
package extarray

import (
	"context"
	"math"
	"sort"

	"github.com/sandrolain/actemplate/pkg/ext/extutil"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// maxRangeItems bounds the output of range().
const maxRangeItems = 100000

// All returns all extended array function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Take(),
		Skip(),
		Slice(),
		Chunk(),
		Window(),
		Distinct(),
		Difference(),
		SymmetricDifference(),
		Range(),
		Zip(),
		Pluck(),
		GroupBy(),
		CountBy(),
		SumBy(),
		SortBy(),
	}
}

// Take returns the definition for take(array, n).
func Take() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "take",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, n, err := arrayAndCount("take", args)
			if err != nil {
				return types.Undefined(), err
			}
			return types.Array(arr[:n]...), nil
		},
	}
}

// Skip returns the definition for skip(array, n).
func Skip() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "skip",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, n, err := arrayAndCount("skip", args)
			if err != nil {
				return types.Undefined(), err
			}
			return types.Array(arr[n:]...), nil
		},
	}
}

// arrayAndCount reads (array, n) with n clamped to [0, len(array)].
func arrayAndCount(fn string, args []types.Value) ([]types.Value, int, error) {
	arr, err := extutil.Array(fn, args[0])
	if err != nil {
		return nil, 0, err
	}
	n, err := extutil.Int(fn, args[1])
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(arr) {
		n = len(arr)
	}
	return arr, n, nil
}

// Slice returns the definition for slice(array, start [, end]).
// start/end are 0-based; negative values count from the end.
func Slice() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "slice",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("slice", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			n := len(arr)
			start, err := extutil.Int("slice", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			start = normaliseIndex(start, n)
			end := n
			if e := extutil.Arg(args, 2); !e.IsNull() {
				end, err = extutil.Int("slice", e)
				if err != nil {
					return types.Undefined(), err
				}
				end = normaliseIndex(end, n)
			}
			if start >= end {
				return types.Array(), nil
			}
			return types.Array(arr[start:end]...), nil
		},
	}
}

// Chunk returns the definition for chunk(array, size).
func Chunk() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "chunk",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return windows("chunk", args[0], args[1], args[1], true)
		},
	}
}

// Window returns the definition for window(array, size, step).
// Only full windows are returned.
func Window() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "window",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return windows("window", args[0], args[1], args[2], false)
		},
	}
}

func windows(fn string, arrArg, sizeArg, stepArg types.Value, partial bool) (types.Value, error) {
	arr, err := extutil.Array(fn, arrArg)
	if err != nil {
		return types.Undefined(), err
	}
	size, err := extutil.Int(fn, sizeArg)
	if err != nil {
		return types.Undefined(), err
	}
	step, err := extutil.Int(fn, stepArg)
	if err != nil {
		return types.Undefined(), err
	}
	if size <= 0 || step <= 0 {
		return types.Undefined(), extutil.Errorf(fn, "size and step must be positive")
	}
	var result []types.Value
	for i := 0; i < len(arr); i += step {
		end := i + size
		if end > len(arr) {
			if !partial {
				break
			}
			end = len(arr)
		}
		result = append(result, types.Array(arr[i:end]...))
	}
	return types.Array(result...), nil
}

// Distinct returns the definition for distinct(array).
// Items are compared by their JSON form; the first occurrence wins.
func Distinct() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "distinct",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("distinct", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			seen := make(map[string]bool, len(arr))
			var result []types.Value
			for _, item := range arr {
				key := item.String()
				if !seen[key] {
					seen[key] = true
					result = append(result, item)
				}
			}
			return types.Array(result...), nil
		},
	}
}

// Difference returns the definition for difference(arr1, arr2).
// Elements in arr1 but not in arr2.
func Difference() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "difference",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			a1, a2, err := twoArrays("difference", args)
			if err != nil {
				return types.Undefined(), err
			}
			exclude := keySet(a2)
			seen := make(map[string]bool)
			var result []types.Value
			for _, item := range a1 {
				key := item.String()
				if !exclude[key] && !seen[key] {
					seen[key] = true
					result = append(result, item)
				}
			}
			return types.Array(result...), nil
		},
	}
}

// SymmetricDifference returns the definition for symmetricDifference(arr1, arr2).
// Elements in either arr1 or arr2 but not both.
func SymmetricDifference() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "symmetricDifference",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			a1, a2, err := twoArrays("symmetricDifference", args)
			if err != nil {
				return types.Undefined(), err
			}
			set1, set2 := keySet(a1), keySet(a2)
			seen := make(map[string]bool)
			var result []types.Value
			for _, item := range append(append([]types.Value{}, a1...), a2...) {
				key := item.String()
				if !seen[key] && set1[key] != set2[key] {
					seen[key] = true
					result = append(result, item)
				}
			}
			return types.Array(result...), nil
		},
	}
}

func twoArrays(fn string, args []types.Value) ([]types.Value, []types.Value, error) {
	a1, err := extutil.Array(fn, args[0])
	if err != nil {
		return nil, nil, err
	}
	a2, err := extutil.Array(fn, args[1])
	if err != nil {
		return nil, nil, err
	}
	return a1, a2, nil
}

func keySet(items []types.Value) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item.String()] = true
	}
	return set
}

// Range returns the definition for range(start, end [, step]).
// end is inclusive when reached exactly; fractional steps are allowed.
func Range() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "range",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			start, err := extutil.Number("range", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			end, err := extutil.Number("range", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			step := 1.0
			if s := extutil.Arg(args, 2); !s.IsNull() {
				step, err = extutil.Number("range", s)
				if err != nil {
					return types.Undefined(), err
				}
				if step == 0 {
					return types.Undefined(), extutil.Errorf("range", "step must not be zero")
				}
			}
			var result []types.Value
			for i := 0; ; i++ {
				v := start + float64(i)*step
				if (step > 0 && v > end) || (step < 0 && v < end) {
					break
				}
				if i >= maxRangeItems {
					return types.Undefined(), extutil.Errorf("range", "would produce more than %d items", maxRangeItems)
				}
				// Round away floating-point accumulation.
				result = append(result, types.Number(math.Round(v*1e10)/1e10))
			}
			return types.Array(result...), nil
		},
	}
}

// Zip returns the definition for zip(arr1, arr2 [, fill]).
// The shorter array is padded with fill (default null).
func Zip() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "zip",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			a1, a2, err := twoArrays("zip", args)
			if err != nil {
				return types.Undefined(), err
			}
			fill := types.Null()
			if f := extutil.Arg(args, 2); !f.IsUndefined() {
				fill = f
			}
			length := len(a1)
			if len(a2) > length {
				length = len(a2)
			}
			result := make([]types.Value, length)
			for i := range result {
				v1, v2 := fill, fill
				if i < len(a1) {
					v1 = a1[i]
				}
				if i < len(a2) {
					v2 = a2[i]
				}
				result[i] = types.Array(v1, v2)
			}
			return types.Array(result...), nil
		},
	}
}

// Pluck returns the definition for pluck(array, key).
// Objects lacking the key are skipped.
func Pluck() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "pluck",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("pluck", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			key := extutil.Text(args[1])
			var result []types.Value
			for _, item := range arr {
				if v, ok := property(item, key); ok {
					result = append(result, v)
				}
			}
			return types.Array(result...), nil
		},
	}
}

// GroupBy returns the definition for groupBy(array, key).
// The result maps the text of each key value to the items sharing it, in
// first-seen order.
func GroupBy() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "groupBy",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("groupBy", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			key := extutil.Text(args[1])
			var order []string
			groups := make(map[string][]types.Value)
			for _, item := range arr {
				v, _ := property(item, key)
				k := types.FormatText(v)
				if _, ok := groups[k]; !ok {
					order = append(order, k)
				}
				groups[k] = append(groups[k], item)
			}
			obj := types.NewObject()
			for _, k := range order {
				obj.Set(k, types.Array(groups[k]...))
			}
			return types.ObjectValue(obj), nil
		},
	}
}

// CountBy returns the definition for countBy(array, key).
func CountBy() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "countBy",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("countBy", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			key := extutil.Text(args[1])
			obj := types.NewObject()
			for _, item := range arr {
				v, _ := property(item, key)
				k := types.FormatText(v)
				count := 0.0
				if prev, ok := obj.Get(k); ok {
					count, _ = prev.AsNumber()
				}
				obj.Set(k, types.Number(count+1))
			}
			return types.ObjectValue(obj), nil
		},
	}
}

// SumBy returns the definition for sumBy(array, key).
// Items whose key is missing or null contribute nothing.
func SumBy() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "sumBy",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("sumBy", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			key := extutil.Text(args[1])
			total := 0.0
			for _, item := range arr {
				v, ok := property(item, key)
				if !ok || v.IsNull() {
					continue
				}
				n, err := extutil.Number("sumBy", v)
				if err != nil {
					return types.Undefined(), err
				}
				total += n
			}
			return extutil.Finite("sumBy", total)
		},
	}
}

// SortBy returns the definition for sortBy(array, key [, descending]).
// The sort is stable; numbers order numerically and everything else by text.
func SortBy() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "sortBy",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("sortBy", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			key := extutil.Text(args[1])
			desc := extutil.Arg(args, 2).Truthy()
			sorted := make([]types.Value, len(arr))
			copy(sorted, arr)
			sort.SliceStable(sorted, func(i, j int) bool {
				va, _ := property(sorted[i], key)
				vb, _ := property(sorted[j], key)
				if desc {
					return types.Compare(vb, va) < 0
				}
				return types.Compare(va, vb) < 0
			})
			return types.Array(sorted...), nil
		},
	}
}

// property reads key from an object item.
func property(item types.Value, key string) (types.Value, bool) {
	obj, ok := item.AsObject()
	if !ok {
		return types.Undefined(), false
	}
	return obj.Get(key)
}

func normaliseIndex(idx, length int) int {
	if idx < 0 {
		idx = length + idx
		if idx < 0 {
			idx = 0
		}
	}
	if idx > length {
		idx = length
	}
	return idx
}
