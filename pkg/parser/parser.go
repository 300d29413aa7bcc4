// Package parser turns binding expressions into expression trees.
//
// The parser is a hand-written Pratt parser over a Pike-style lexer. It
// understands the expression language embedded in card templates:
// literals, names (including $root, $data and $index), property and index
// access, function calls, unary ! and -, arithmetic, comparison, && and ||
// and the ternary ?: operator.
//
// The package also scans template strings for ${...} regions, see
// ScanTemplate.
//
// # Example
//
//	expr, err := parser.Parse("if(user.isVip, 'Gold', 'Standard')")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/sandrolain/actemplate/pkg/types"
)

// DefaultMaxDepth is the nesting limit applied when no WithMaxDepth option
// is given.
const DefaultMaxDepth = 100

// Parse parses a binding expression (without the ${ } markers) and returns
// the compiled Expression.
//
// If parsing fails, it returns a *types.Error with the position of the
// offending token.
//
// Example:
//
//	expr, err := parser.Parse("$root.title")
//	if err != nil {
//	    var te *types.Error
//	    if errors.As(err, &te) {
//	        fmt.Printf("Parse error at position %d\n", te.Position)
//	    }
//	    return
//	}
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile parses query with the given options.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow. Zero or
	// negative disables the limit.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
