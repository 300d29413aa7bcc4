package evaluator

import (
	"context"
	"sort"

	"github.com/sandrolain/actemplate/pkg/types"
)

// fnCount returns the number of items of an array, members of an object or
// runes of a string. Anything else counts 0.
func fnCount(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Int(args[0].Len()), nil
}

func fnFirst(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	items, err := arrayArg("first", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	if len(items) == 0 {
		return types.Null(), nil
	}
	return items[0], nil
}

func fnLast(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	items, err := arrayArg("last", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	if len(items) == 0 {
		return types.Null(), nil
	}
	return items[len(items)-1], nil
}

// fnFilter drops null and empty-string items.
func fnFilter(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	items, err := arrayArg("filter", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	out := make([]types.Value, 0, len(items))
	for _, item := range items {
		if item.IsNull() {
			continue
		}
		if s, ok := item.AsString(); ok && s == "" {
			continue
		}
		out = append(out, item)
	}
	return types.Array(out...), nil
}

// fnSort orders items numerically when every item is numeric-coercible and
// by formatted text otherwise. The sort is stable.
func fnSort(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	items, err := arrayArg("sort", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	out := make([]types.Value, len(items))
	copy(out, items)

	numeric := true
	for _, item := range out {
		if _, ok := types.ToNumber(item); !ok {
			numeric = false
			break
		}
	}
	if numeric {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := types.ToNumber(out[i])
			b, _ := types.ToNumber(out[j])
			return a < b
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return textArg(out[i]) < textArg(out[j])
		})
	}
	return types.Array(out...), nil
}

// fnReverse reverses an array or the runes of a string.
func fnReverse(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	if s, ok := args[0].AsString(); ok {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return types.String(string(runes)), nil
	}
	items, err := arrayArg("reverse", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	out := make([]types.Value, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return types.Array(out...), nil
}

// fnFlatten flattens one level of nesting.
func fnFlatten(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	items, err := arrayArg("flatten", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	out := make([]types.Value, 0, len(items))
	for _, item := range items {
		if inner, ok := item.AsArray(); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, item)
	}
	return types.Array(out...), nil
}

// fnUnion returns the distinct items of all arrays in first-seen order.
// Items are compared by their JSON form.
func fnUnion(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	seen := make(map[string]struct{})
	var out []types.Value
	for _, arg := range args {
		items, err := arrayArg("union", arg)
		if err != nil {
			return types.Undefined(), err
		}
		for _, item := range items {
			key := item.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return types.Array(out...), nil
}

// fnIntersection returns the distinct items of the first array that are
// present in every other array.
func fnIntersection(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	sets := make([]map[string]struct{}, 0, len(args)-1)
	for _, arg := range args[1:] {
		items, err := arrayArg("intersection", arg)
		if err != nil {
			return types.Undefined(), err
		}
		set := make(map[string]struct{}, len(items))
		for _, item := range items {
			set[item.String()] = struct{}{}
		}
		sets = append(sets, set)
	}

	first, err := arrayArg("intersection", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	seen := make(map[string]struct{})
	var out []types.Value
outer:
	for _, item := range first {
		key := item.String()
		if _, dup := seen[key]; dup {
			continue
		}
		for _, set := range sets {
			if _, ok := set[key]; !ok {
				continue outer
			}
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return types.Array(out...), nil
}

func fnCreateArray(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	out := make([]types.Value, len(args))
	copy(out, args)
	return types.Array(out...), nil
}
