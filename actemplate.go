// Package actemplate expands card templates: JSON documents whose string
// values carry ${...} bindings and whose objects may carry the $when and
// $data control keys.
//
// Expansion is fail-soft. A broken or unresolved binding never aborts the
// transform; it is replaced (kept verbatim, null or empty text) and reported
// as a diagnostic next to the output.
//
// # Quick Start
//
//	// One-shot expansion of raw JSON
//	out, diags, err := actemplate.ExpandJSON(tmplJSON, dataJSON)
//
//	// Build an engine once, expand many times
//	engine := actemplate.New(template.WithLocale("it-IT"))
//	res := engine.Expand(tmpl, data)
//	for _, d := range res.Diagnostics {
//	    log.Println(d)
//	}
//
// # More Information
//
//   - Parser: github.com/sandrolain/actemplate/pkg/parser
//   - Evaluator: github.com/sandrolain/actemplate/pkg/evaluator
//   - Template walker: github.com/sandrolain/actemplate/pkg/template
//   - Extension functions: github.com/sandrolain/actemplate/pkg/ext
//   - JSON and YAML documents: github.com/sandrolain/actemplate/pkg/codec
package actemplate

import (
	"fmt"

	"github.com/sandrolain/actemplate/pkg/parser"
	"github.com/sandrolain/actemplate/pkg/template"
	"github.com/sandrolain/actemplate/pkg/types"
)

// Version returns the current version of actemplate.
func Version() string {
	return "v0.1.0-dev"
}

// New creates a template engine. It is safe for concurrent use.
func New(opts ...template.Option) *template.Engine {
	return template.New(opts...)
}

// Expand transforms tmpl against data with a default engine.
func Expand(tmpl, data types.Value, opts ...template.Option) *template.Result {
	return template.New(opts...).Expand(tmpl, data)
}

// ExpandJSON decodes a template and its data, expands it and encodes the
// result as compact JSON. Empty data is treated as null.
//
// Invalid input JSON is an error. Diagnostics are always returned; in
// strict mode (template.WithStrict) they are also returned joined as the
// error, together with the best-effort output.
func ExpandJSON(tmplJSON, dataJSON []byte, opts ...template.Option) ([]byte, types.Diagnostics, error) {
	tmpl, err := types.ParseJSON(tmplJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("template: %w", err)
	}
	data := types.Null()
	if len(dataJSON) > 0 {
		if data, err = types.ParseJSON(dataJSON); err != nil {
			return nil, nil, fmt.Errorf("data: %w", err)
		}
	}

	engine := template.New(opts...)
	res := engine.Expand(tmpl, data)
	out, err := res.Output.MarshalJSON()
	if err != nil {
		return nil, res.Diagnostics, err
	}
	if engine.Strict() {
		return out, res.Diagnostics, res.Err()
	}
	return out, res.Diagnostics, nil
}

// Compile compiles a single expression, without the ${} markers.
func Compile(src string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(src, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(src string) *types.Expression {
	expr, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("actemplate: Compile(%q): %v", src, err))
	}
	return expr
}
