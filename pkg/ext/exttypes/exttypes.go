// Package exttypes provides type predicate and fallback functions for card
// templates.
//
// Every function here accepts unresolved arguments, so `isUndefined(user.nickname)`
// reports true instead of being skipped by the evaluator.
package exttypes

import (
	"context"

	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// All returns all extended type/control function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		IsString(),
		IsNumber(),
		IsBoolean(),
		IsArray(),
		IsObject(),
		IsNull(),
		IsUndefined(),
		IsEmpty(),
		TypeOf(),
		Default(),
		Coalesce(),
		Identity(),
	}
}

func kindPredicate(name string, kinds ...types.Kind) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:             name,
		MinArgs:          1,
		MaxArgs:          1,
		AcceptsUndefined: true,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			for _, k := range kinds {
				if args[0].Kind() == k {
					return types.Bool(true), nil
				}
			}
			return types.Bool(false), nil
		},
	}
}

// IsString returns the definition for isString(v).
func IsString() functions.CustomFunctionDef { return kindPredicate("isString", types.KindString) }

// IsNumber returns the definition for isNumber(v).
func IsNumber() functions.CustomFunctionDef { return kindPredicate("isNumber", types.KindNumber) }

// IsBoolean returns the definition for isBoolean(v).
func IsBoolean() functions.CustomFunctionDef { return kindPredicate("isBoolean", types.KindBool) }

// IsArray returns the definition for isArray(v).
func IsArray() functions.CustomFunctionDef { return kindPredicate("isArray", types.KindArray) }

// IsObject returns the definition for isObject(v).
func IsObject() functions.CustomFunctionDef { return kindPredicate("isObject", types.KindObject) }

// IsNull returns the definition for isNull(v).
// An unresolved reference counts as null.
func IsNull() functions.CustomFunctionDef {
	return kindPredicate("isNull", types.KindNull, types.KindUndefined)
}

// IsUndefined returns the definition for isUndefined(v).
func IsUndefined() functions.CustomFunctionDef {
	return kindPredicate("isUndefined", types.KindUndefined)
}

// IsEmpty returns the definition for isEmpty(v).
// Returns true for null, undefined, "", [] and {}.
func IsEmpty() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:             "isEmpty",
		MinArgs:          1,
		MaxArgs:          1,
		AcceptsUndefined: true,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			v := args[0]
			switch v.Kind() {
			case types.KindUndefined, types.KindNull:
				return types.Bool(true), nil
			case types.KindString, types.KindArray, types.KindObject:
				return types.Bool(v.Len() == 0), nil
			default:
				return types.Bool(false), nil
			}
		},
	}
}

// TypeOf returns the definition for typeOf(v).
// The result is one of "undefined", "null", "boolean", "number", "string",
// "array" or "object".
func TypeOf() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:             "typeOf",
		MinArgs:          1,
		MaxArgs:          1,
		AcceptsUndefined: true,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.String(args[0].Kind().String()), nil
		},
	}
}

// Default returns the definition for default(v, fallback).
// Returns fallback when v is null or unresolved.
func Default() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:             "default",
		MinArgs:          2,
		MaxArgs:          2,
		AcceptsUndefined: true,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			if args[0].IsNull() {
				return args[1], nil
			}
			return args[0], nil
		},
	}
}

// Coalesce returns the definition for coalesce(v1, v2, ...).
// Returns the first argument that is neither null nor unresolved, or null.
func Coalesce() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:             "coalesce",
		MinArgs:          1,
		MaxArgs:          -1,
		AcceptsUndefined: true,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			for _, a := range args {
				if !a.IsNull() {
					return a, nil
				}
			}
			return types.Null(), nil
		},
	}
}

// Identity returns the definition for identity(v).
func Identity() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "identity",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return args[0], nil
		},
	}
}
