// Package functions provides types for registering custom template functions.
//
// Custom functions are called from binding expressions by bare name, the
// same way as built-ins, and shadow a built-in of the same name.
//
// # Example
//
//	engine := actemplate.New(
//	    template.WithFunctions(functions.CustomFunctionDef{
//	        Name:    "greet",
//	        MinArgs: 1,
//	        MaxArgs: 1,
//	        Fn: func(ctx context.Context, args ...types.Value) (types.Value, error) {
//	            return types.String("Hello, " + types.FormatText(args[0]) + "!"), nil
//	        },
//	    }),
//	)
//	// "${greet(name)}" with {"name": "World"} resolves to "Hello, World!"
package functions

import (
	"context"

	"github.com/sandrolain/actemplate/pkg/types"
)

// CustomFunc is the signature for user-defined custom functions.
// args contains the evaluated function arguments in order.
type CustomFunc func(ctx context.Context, args ...types.Value) (types.Value, error)

// CustomFunctionDef describes a user-defined function together with its
// accepted argument count.
type CustomFunctionDef struct {
	// Name is the function name as it appears inside expressions.
	Name string
	// MinArgs is the minimum number of arguments.
	MinArgs int
	// MaxArgs is the maximum number of arguments, -1 for unlimited.
	// A zero MaxArgs together with a zero MinArgs also means unlimited.
	MaxArgs int
	// AcceptsUndefined passes unresolved references to Fn as undefined
	// values (IsNull reports true for them). When false, a call with an
	// unresolved argument is skipped and the binding reports the missing
	// reference instead.
	AcceptsUndefined bool
	// Fn is the implementation.
	Fn CustomFunc
}

// Arity returns the effective argument bounds of the definition.
func (d CustomFunctionDef) Arity() (minArgs, maxArgs int) {
	if d.MinArgs == 0 && d.MaxArgs == 0 {
		return 0, -1
	}
	return d.MinArgs, d.MaxArgs
}
