// Package extobject provides object functions for card templates. Results
// keep the member order of their inputs.
package extobject

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/sandrolain/actemplate/pkg/ext/extutil"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// All returns all extended object function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Keys(),
		Values(),
		Pairs(),
		FromPairs(),
		Pick(),
		Omit(),
		Merge(),
		Invert(),
		Size(),
		Rename(),
		Get(),
	}
}

// Keys returns the definition for keys(object).
func Keys() functions.CustomFunctionDef {
	return objectFunc("keys", func(obj *types.Object) types.Value {
		keys := obj.Keys()
		out := make([]types.Value, len(keys))
		for i, k := range keys {
			out[i] = types.String(k)
		}
		return types.Array(out...)
	})
}

// Values returns the definition for values(object).
func Values() functions.CustomFunctionDef {
	return objectFunc("values", func(obj *types.Object) types.Value {
		members := obj.Members()
		out := make([]types.Value, len(members))
		for i, m := range members {
			out[i] = m.Value
		}
		return types.Array(out...)
	})
}

// Pairs returns the definition for pairs(object).
// Returns [[key, value], ...] for each member.
func Pairs() functions.CustomFunctionDef {
	return objectFunc("pairs", func(obj *types.Object) types.Value {
		members := obj.Members()
		out := make([]types.Value, len(members))
		for i, m := range members {
			out[i] = types.Array(types.String(m.Key), m.Value)
		}
		return types.Array(out...)
	})
}

// Size returns the definition for size(object).
func Size() functions.CustomFunctionDef {
	return objectFunc("size", func(obj *types.Object) types.Value {
		return types.Int(obj.Len())
	})
}

// Invert returns the definition for invert(object).
// Swaps keys and values; values are converted to text.
func Invert() functions.CustomFunctionDef {
	return objectFunc("invert", func(obj *types.Object) types.Value {
		out := types.NewObject()
		for _, m := range obj.Members() {
			out.Set(types.FormatText(m.Value), types.String(m.Key))
		}
		return types.ObjectValue(out)
	})
}

func objectFunc(name string, fn func(*types.Object) types.Value) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			obj, err := extutil.Object(name, args[0])
			if err != nil {
				return types.Undefined(), err
			}
			return fn(obj), nil
		},
	}
}

// FromPairs returns the definition for fromPairs(array).
// Converts [[key, value], ...] into an object.
func FromPairs() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "fromPairs",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("fromPairs", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			out := types.NewObject()
			for i, item := range arr {
				pair, ok := item.AsArray()
				if !ok || len(pair) != 2 {
					return types.Undefined(), extutil.Errorf("fromPairs", "element %d must be a [key, value] pair", i)
				}
				out.Set(types.FormatText(pair[0]), pair[1])
			}
			return types.ObjectValue(out), nil
		},
	}
}

// Pick returns the definition for pick(object, keys).
// Returns a new object containing only the listed keys.
func Pick() functions.CustomFunctionDef {
	return filterKeys("pick", true)
}

// Omit returns the definition for omit(object, keys).
// Returns a new object without the listed keys.
func Omit() functions.CustomFunctionDef {
	return filterKeys("omit", false)
}

func filterKeys(name string, keep bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			obj, err := extutil.Object(name, args[0])
			if err != nil {
				return types.Undefined(), err
			}
			listed := make(map[string]bool)
			if k, ok := args[1].AsString(); ok {
				listed[k] = true
			} else {
				keys, err := extutil.Array(name, args[1])
				if err != nil {
					return types.Undefined(), err
				}
				for _, k := range keys {
					listed[types.FormatText(k)] = true
				}
			}
			out := types.NewObject()
			for _, m := range obj.Members() {
				if listed[m.Key] == keep {
					out.Set(m.Key, m.Value)
				}
			}
			return types.ObjectValue(out), nil
		},
	}
}

// Merge returns the definition for merge(obj1, obj2, ...).
// Objects are merged recursively; later arguments override earlier ones.
// Null arguments are ignored.
func Merge() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "merge",
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			out := types.NewObject()
			for _, arg := range args {
				if arg.IsNull() {
					continue
				}
				src, err := extutil.Object("merge", arg)
				if err != nil {
					return types.Undefined(), err
				}
				deepMergeInto(out, src)
			}
			return types.ObjectValue(out), nil
		},
	}
}

func deepMergeInto(dst, src *types.Object) {
	for _, m := range src.Members() {
		srcObj, srcIsObj := m.Value.AsObject()
		if existing, ok := dst.Get(m.Key); ok && srcIsObj {
			if dstObj, ok := existing.AsObject(); ok {
				merged := types.NewObject(dstObj.Members()...)
				deepMergeInto(merged, srcObj)
				dst.Set(m.Key, types.ObjectValue(merged))
				continue
			}
		}
		dst.Set(m.Key, m.Value)
	}
}

// Rename returns the definition for rename(object, mapping).
// Keys found in mapping are renamed in place; the rest are kept.
func Rename() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "rename",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			obj, err := extutil.Object("rename", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			mapping, err := extutil.Object("rename", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			out := types.NewObject()
			for _, m := range obj.Members() {
				key := m.Key
				if to, ok := mapping.Get(key); ok {
					key = types.FormatText(to)
				}
				out.Set(key, m.Value)
			}
			return types.ObjectValue(out), nil
		},
	}
}

// Get returns the definition for get(value, path [, fallback]).
// path uses GJSON syntax ("items.0.name", "tags.#", "items.#.id"); a path
// that matches nothing yields the fallback, or null.
func Get() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "get",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			path := extutil.Text(args[1])
			res := gjson.Get(args[0].String(), path)
			if !res.Exists() {
				if fb := extutil.Arg(args, 2); !fb.IsUndefined() {
					return fb, nil
				}
				return types.Null(), nil
			}
			v, err := types.ParseJSON([]byte(res.Raw))
			if err != nil {
				return types.Undefined(), extutil.Errorf("get", "%v", err)
			}
			return v, nil
		},
	}
}
