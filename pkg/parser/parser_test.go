package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandrolain/actemplate/pkg/parser"
	"github.com/sandrolain/actemplate/pkg/types"
)

// Helper functions

func parseExpr(t *testing.T, input string) *types.ASTNode {
	t.Helper()
	expr, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", input, err)
	}
	return expr.AST()
}

func expectError(t *testing.T, input string, code types.ErrorCode) {
	t.Helper()
	_, err := parser.Parse(input)
	if err == nil {
		t.Fatalf("Expected error parsing %q but got none", input)
	}
	var te *types.Error
	if !errors.As(err, &te) {
		t.Fatalf("Expected *types.Error, got %T", err)
	}
	if code != "" && te.Code != code {
		t.Errorf("Expected code %s for %q, got %s (%v)", code, input, te.Code, err)
	}
}

// sexpr renders an AST compactly so tree shapes can be compared as strings.
func sexpr(n *types.ASTNode) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case types.NodeLiteral:
		return n.Literal.String()
	case types.NodeName:
		return n.StrValue
	case types.NodeProperty:
		return "(. " + sexpr(n.LHS) + " " + n.StrValue + ")"
	case types.NodeIndex:
		return "([] " + sexpr(n.LHS) + " " + sexpr(n.RHS) + ")"
	case types.NodeUnary:
		return "(" + n.StrValue + " " + sexpr(n.LHS) + ")"
	case types.NodeBinary, types.NodeAnd, types.NodeOr:
		return "(" + n.StrValue + " " + sexpr(n.LHS) + " " + sexpr(n.RHS) + ")"
	case types.NodeCondition:
		return "(? " + sexpr(n.LHS) + " " + sexpr(n.RHS) + " " + sexpr(n.Else) + ")"
	case types.NodeFunction:
		args := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = sexpr(a)
		}
		return "(" + n.StrValue + " " + strings.Join(args, " ") + ")"
	default:
		return "?"
	}
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Value
	}{
		{"single quoted", `'hello'`, types.String("hello")},
		{"double quoted", `"hello"`, types.String("hello")},
		{"escapes", `'it\'s\n'`, types.String("it's\n")},
		{"unicode escape", `'\u00e9'`, types.String("é")},
		{"surrogate pair", `'\ud83d\ude00'`, types.String("\U0001F600")},
		{"integer", "42", types.Number(42)},
		{"float", "3.14", types.Number(3.14)},
		{"scientific", "1e10", types.Number(1e10)},
		{"negative folded", "-5", types.Number(-5)},
		{"true", "true", types.Bool(true)},
		{"false", "false", types.Bool(false)},
		{"null", "null", types.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseExpr(t, tt.input)
			if node.Type != types.NodeLiteral {
				t.Fatalf("Expected literal, got %s", node.Type)
			}
			if !node.Literal.Equal(tt.want) || node.Literal.Kind() != tt.want.Kind() {
				t.Errorf("Expected %v, got %v", tt.want, node.Literal)
			}
		})
	}
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a", "a"},
		{"$root.title", "(. $root title)"},
		{"$data", "$data"},
		{"$index + 1", "(+ $index 1)"},
		{"data.missing.deeper", "(. (. data missing) deeper)"},
		{"items[0].name", "(. ([] items 0) name)"},
		{"a[b.c]", "([] a (. b c))"},
		{"x.null", "(. x null)"},
		{"1 + 2 * 3", `(+ 1 (* 2 3))`},
		{"(1 + 2) * 3", `(* (+ 1 2) 3)`},
		{"a - b - c", "(- (- a b) c)"},
		{"a == b && c < d || e", "(|| (&& (== a b) (< c d)) e)"},
		{"a || b && c", "(|| a (&& b c))"},
		{"!a && b", "(&& (! a) b)"},
		{"!a.b", "(! (. a b))"},
		{"-a.b", "(- (. a b))"},
		{"a < b == c > d", "(== (< a b) (> c d))"},
		{"a ? b : c", "(? a b c)"},
		{"a ? b : c ? d : e", "(? a b (? c d e))"},
		{"a || b ? 1 : 2", "(? (|| a b) 1 2)"},
		{"if(x.y, 'a', 'b')", `(if (. x y) "a" "b")`},
		{"utcNow()", "(utcNow )"},
		{"count(items) > 0", "(> (count items) 0)"},
		{"toUpper(name)[0]", "([] (toUpper name) 0)"},
		{"  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := sexpr(parseExpr(t, tt.input)); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  types.ErrorCode
	}{
		{"", types.ErrEmptyExpression},
		{"   ", types.ErrEmptyExpression},
		{"a +", types.ErrUnexpectedEnd},
		{"(a", types.ErrUnexpectedEnd},
		{"a[0", types.ErrUnexpectedEnd},
		{"f(a,", types.ErrUnexpectedEnd},
		{"f(a b)", types.ErrExpectedToken},
		{"a b", types.ErrSyntaxError},
		{"a.", types.ErrUnexpectedEnd},
		{"a.1", types.ErrExpectedToken},
		{"a ? b", types.ErrUnexpectedEnd},
		{"a.b(c)", types.ErrSyntaxError},
		{"'open", types.ErrStringNotClosed},
		{`'\x'`, types.ErrUnsupportedEscape},
		{"a = b", types.ErrUnexpectedCharacter},
		{")", types.ErrSyntaxError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectError(t, tt.input, tt.code)
		})
	}
}

func TestParseMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)

	if _, err := parser.Compile(deep, parser.WithMaxDepth(10)); err == nil {
		t.Fatal("expected max depth error")
	} else {
		var te *types.Error
		if !errors.As(err, &te) || te.Code != types.ErrMaxDepthExceeded {
			t.Fatalf("expected %s, got %v", types.ErrMaxDepthExceeded, err)
		}
	}

	if _, err := parser.Compile(deep); err != nil {
		t.Fatalf("default depth should accept 50 levels: %v", err)
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.Parse("a + )")
	var te *types.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *types.Error, got %v", err)
	}
	if te.Position != 4 {
		t.Errorf("expected position 4, got %d", te.Position)
	}
}

func TestExpressionSource(t *testing.T) {
	expr, err := parser.Parse("a.b")
	if err != nil {
		t.Fatal(err)
	}
	if expr.Source() != "a.b" || expr.String() != "a.b" {
		t.Errorf("unexpected source %q", expr.Source())
	}
}
