// Package ext provides optional extension functions for card templates that
// go beyond the built-in function catalog.
//
// The extension functions live in sub-packages grouped by category:
//   - extstring  – capitalize, titleCase, camelCase, padLeft, truncate, base64Encode, …
//   - extnumeric – log, pow, sqrt, clamp, sum, average, median, percentile, …
//   - extarray   – take, skip, slice, chunk, distinct, pluck, groupBy, sortBy, …
//   - extobject  – keys, values, pairs, pick, omit, merge, rename, get
//   - exttypes   – isString, isArray, isEmpty, typeOf, default, coalesce, …
//   - extformat  – csv, toCsv, formatCurrency, formatPercent, formatBytes, …
//   - extcrypto  – uuid, hash, hmac
//
// Extensions are registered as custom functions, so an extension shadows a
// built-in of the same name.
//
// # Integration – all extensions at once
//
//	engine := actemplate.New(template.WithFunctions(ext.All()...))
//
// # Integration – by category
//
//	engine := actemplate.New(template.WithEvalOptions(
//	    ext.WithString(),
//	    ext.WithArray(),
//	))
//
// # Integration – single function from a sub-package
//
//	import "github.com/sandrolain/actemplate/pkg/ext/extstring"
//
//	engine := actemplate.New(template.WithFunctions(extstring.Capitalize()))
package ext

import (
	"github.com/sandrolain/actemplate/pkg/evaluator"
	"github.com/sandrolain/actemplate/pkg/ext/extarray"
	"github.com/sandrolain/actemplate/pkg/ext/extcrypto"
	"github.com/sandrolain/actemplate/pkg/ext/extformat"
	"github.com/sandrolain/actemplate/pkg/ext/extnumeric"
	"github.com/sandrolain/actemplate/pkg/ext/extobject"
	"github.com/sandrolain/actemplate/pkg/ext/extstring"
	"github.com/sandrolain/actemplate/pkg/ext/exttypes"
	"github.com/sandrolain/actemplate/pkg/functions"
)

// categories maps a category name to its function set. The names are the
// ones accepted by ByCategory and the CLI configuration.
var categories = map[string]func() []functions.CustomFunctionDef{
	"string":  extstring.All,
	"numeric": extnumeric.All,
	"array":   extarray.All,
	"object":  extobject.All,
	"types":   exttypes.All,
	"format":  extformat.All,
	"crypto":  extcrypto.All,
}

// All returns every extension function definition.
func All() []functions.CustomFunctionDef {
	var all []functions.CustomFunctionDef
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extarray.All()...)
	all = append(all, extobject.All()...)
	all = append(all, exttypes.All()...)
	all = append(all, extformat.All()...)
	all = append(all, extcrypto.All()...)
	return all
}

// ByCategory returns the functions of the named categories. Unknown names
// are reported through the second return value.
func ByCategory(names ...string) ([]functions.CustomFunctionDef, []string) {
	var (
		defs    []functions.CustomFunctionDef
		unknown []string
	)
	for _, name := range names {
		if name == "all" {
			defs = append(defs, All()...)
			continue
		}
		fn, ok := categories[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		defs = append(defs, fn()...)
	}
	return defs, unknown
}

// WithAll returns an EvalOption that registers all extension functions.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(All()...)
}

// WithString returns an EvalOption for the extended string functions.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.All()...)
}

// WithNumeric returns an EvalOption for the extended numeric functions.
func WithNumeric() evaluator.EvalOption {
	return evaluator.WithFunctions(extnumeric.All()...)
}

// WithArray returns an EvalOption for the extended array functions.
func WithArray() evaluator.EvalOption {
	return evaluator.WithFunctions(extarray.All()...)
}

// WithObject returns an EvalOption for the extended object functions.
func WithObject() evaluator.EvalOption {
	return evaluator.WithFunctions(extobject.All()...)
}

// WithTypes returns an EvalOption for the type predicate functions.
func WithTypes() evaluator.EvalOption {
	return evaluator.WithFunctions(exttypes.All()...)
}

// WithFormat returns an EvalOption for the formatting functions (CSV,
// currency, percent, bytes, ordinals, relative time).
func WithFormat() evaluator.EvalOption {
	return evaluator.WithFunctions(extformat.All()...)
}

// WithCrypto returns an EvalOption for the identifier and hashing functions.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.All()...)
}
