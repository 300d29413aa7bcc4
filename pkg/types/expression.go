// Package types defines the value model shared by the templating engine.
//
// This package contains type definitions for:
//   - Value: tagged JSON-like variant used for templates, data and results
//   - Object: insertion-ordered mapping
//   - Expression: a parsed binding expression
//   - ASTNode: Abstract Syntax Tree nodes
//   - Error and Diagnostic: structured errors with codes
//
// Coercion rules (truthiness, numeric coercion, comparison, text
// formatting) are explicit functions on Value so they can be tested in
// isolation.
package types

// Expression represents a parsed binding expression.
//
// An Expression is immutable once parsed and can be evaluated any number of
// times against different context stacks. It is safe for concurrent use by
// multiple goroutines, which is what makes it cacheable by source text.
type Expression struct {
	ast    *ASTNode
	source string
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source code of the expression, without the
// ${ } markers.
func (e *Expression) Source() string {
	return e.source
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
