package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/sandrolain/actemplate/pkg/types"
)

// Parser implements a recursive descent parser for binding expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence correctly.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	arena   *types.NodeArena
	depth   int
	opts    CompileOptions
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		arena: types.NewNodeArena(),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the compiled Expression.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrEmptyExpression, "Empty expression")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	switch p.current.Type {
	case TokenEOF:
	case TokenError:
		return nil, p.lexer.Error()
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", p.current.Value))
	}

	return types.NewExpression(node, p.lexer.input), nil
}

// Operator precedence table (binding power)
// Higher values bind more tightly
var precedence = map[TokenType]int{
	TokenCondition:    10, // ?:
	TokenOr:           20, // ||
	TokenAnd:          30, // &&
	TokenEqual:        40, // ==
	TokenNotEqual:     40, // !=
	TokenLess:         45, // <
	TokenLessEqual:    45, // <=
	TokenGreater:      45, // >
	TokenGreaterEqual: 45, // >=
	TokenPlus:         50, // +
	TokenMinus:        50, // -
	TokenMult:         60, // *
	TokenDiv:          60, // /
	TokenMod:          60, // %
	TokenDot:          80, // .
	TokenBracketOpen:  80, // [
	TokenParenOpen:    80, // (
}

// unaryPrecedence binds prefix ! and - tighter than any binary operator but
// looser than member access, so -a.b negates a.b.
const unaryPrecedence = 70

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type == TokenError {
		return p.lexer.Error()
	}
	if p.current.Type != tt {
		if p.current.Type == TokenEOF {
			return p.error(types.ErrUnexpectedEnd, fmt.Sprintf("Expected %s but reached end of expression", tt.String()))
		}
		return p.error(types.ErrExpectedToken, fmt.Sprintf("Expected %s but got %s", tt.String(), p.current.Type.String()))
	}
	p.advance()
	return nil
}

// error creates a parser error.
func (p *Parser) error(code types.ErrorCode, message string) error {
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// node allocates an AST node from the parser's arena.
func (p *Parser) node(nodeType types.NodeType, position int) *types.ASTNode {
	return p.arena.Alloc(nodeType, position)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(types.ErrMaxDepthExceeded, fmt.Sprintf("Expression nesting exceeds %d levels", p.opts.MaxDepth))
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		return p.parseString()
	case TokenNumber:
		return p.parseNumber()
	case TokenBoolean:
		return p.parseBoolean()
	case TokenNull:
		return p.parseNull()
	case TokenName:
		return p.parseName()
	case TokenNot, TokenMinus:
		return p.parseUnary()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenError:
		return nil, p.lexer.Error()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "Unexpected end of expression")
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", token.Value))
	}
}

// parseInfix parses an infix expression (led - left denotation).
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenDot:
		return p.parseProperty(left)
	case TokenBracketOpen:
		return p.parseIndex(left)
	case TokenParenOpen:
		return p.parseFunctionCall(left)
	case TokenCondition:
		return p.parseConditional(left)
	case TokenAnd, TokenOr:
		return p.parseLogical(left)
	case TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenMod,
		TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual:
		return p.parseBinaryOp(left)
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected infix token: %s", token.Type.String()))
	}
}

// unescapeString processes escape sequences in a string literal.
// Handles standard escapes (\n, \t, etc.) and Unicode escapes (\uXXXX).
// Also handles UTF-16 surrogate pairs for characters outside the BMP.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			result.WriteByte(s[i])
			continue
		}

		i++ // Skip backslash
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape sequence at end of string")
		}

		switch s[i] {
		case 'n':
			result.WriteByte('\n')
		case 't':
			result.WriteByte('\t')
		case 'r':
			result.WriteByte('\r')
		case 'b':
			result.WriteByte('\b')
		case 'f':
			result.WriteByte('\f')
		case '\\':
			result.WriteByte('\\')
		case '"':
			result.WriteByte('"')
		case '\'':
			result.WriteByte('\'')
		case '/':
			result.WriteByte('/')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("invalid \\u escape: not enough characters")
			}
			hex := s[i+1 : i+5]
			codePoint, err := strconv.ParseUint(hex, 16, 16)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape: %s", hex)
			}
			i += 4

			r := rune(codePoint)
			if !utf16.IsSurrogate(r) {
				result.WriteRune(r)
				continue
			}

			// High surrogate: try to combine with a following \uXXXX low surrogate
			if i+6 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
				if low, err := strconv.ParseUint(s[i+3:i+7], 16, 16); err == nil {
					if dec := utf16.DecodeRune(r, rune(low)); dec != unicode.ReplacementChar {
						result.WriteRune(dec)
						i += 6
						continue
					}
				}
			}
			result.WriteRune(unicode.ReplacementChar)
		default:
			return "", fmt.Errorf("invalid escape sequence: \\%c", s[i])
		}
	}

	return result.String(), nil
}

// parseString parses a string literal.
func (p *Parser) parseString() (*types.ASTNode, error) {
	node := p.node(types.NodeLiteral, p.current.Position)

	unescaped, err := unescapeString(p.current.Value)
	if err != nil {
		return nil, p.error(types.ErrUnsupportedEscape, fmt.Sprintf("Invalid string literal: %v", err))
	}

	node.Literal = types.String(unescaped)
	p.advance()
	return node, nil
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := p.node(types.NodeLiteral, p.current.Position)

	val, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return nil, p.error(types.ErrNumberOutOfRange, fmt.Sprintf("Invalid number: %s", p.current.Value))
	}

	node.Literal = types.Number(val)
	p.advance()
	return node, nil
}

// parseBoolean parses a boolean literal.
func (p *Parser) parseBoolean() (*types.ASTNode, error) {
	node := p.node(types.NodeLiteral, p.current.Position)
	node.Literal = types.Bool(p.current.Value == "true")
	p.advance()
	return node, nil
}

// parseNull parses a null literal.
func (p *Parser) parseNull() (*types.ASTNode, error) {
	node := p.node(types.NodeLiteral, p.current.Position)
	node.Literal = types.Null()
	p.advance()
	return node, nil
}

// parseName parses an identifier or one of the reserved $ names.
func (p *Parser) parseName() (*types.ASTNode, error) {
	node := p.node(types.NodeName, p.current.Position)
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

// parseUnary parses ! and unary minus.
func (p *Parser) parseUnary() (*types.ASTNode, error) {
	op := p.current
	p.advance()

	operand, err := p.parseExpression(unaryPrecedence)
	if err != nil {
		return nil, err
	}

	// Fold negative number literals
	if op.Type == TokenMinus && operand.Type == types.NodeLiteral {
		if n, ok := operand.Literal.AsNumber(); ok {
			operand.Literal = types.Number(-n)
			operand.Position = op.Position
			return operand, nil
		}
	}

	node := p.node(types.NodeUnary, op.Position)
	node.StrValue = op.Value
	node.LHS = operand
	return node, nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	p.advance() // Skip '('

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseProperty parses base.name. Keywords are accepted as property
// names so that data keys like "null" or "true" stay reachable.
func (p *Parser) parseProperty(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '.'

	switch p.current.Type {
	case TokenName, TokenBoolean, TokenNull:
	case TokenError:
		return nil, p.lexer.Error()
	case TokenEOF:
		return nil, p.error(types.ErrUnexpectedEnd, "Expected property name after '.'")
	default:
		return nil, p.error(types.ErrExpectedToken, fmt.Sprintf("Expected property name but got %s", p.current.Type.String()))
	}

	node := p.node(types.NodeProperty, pos)
	node.LHS = left
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

// parseIndex parses base[expr].
func (p *Parser) parseIndex(left *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '['

	index, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}

	node := p.node(types.NodeIndex, pos)
	node.LHS = left
	node.RHS = index
	return node, nil
}

// parseLogical parses && and ||, which get their own node types because
// they short-circuit.
func (p *Parser) parseLogical(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	nodeType := types.NodeAnd
	if op.Type == TokenOr {
		nodeType = types.NodeOr
	}
	node := p.node(nodeType, op.Position)
	node.StrValue = op.Value
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseBinaryOp parses a binary operator expression.
func (p *Parser) parseBinaryOp(left *types.ASTNode) (*types.ASTNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	// Parse the right-hand side with appropriate precedence
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	node := p.node(types.NodeBinary, op.Position)
	node.StrValue = op.Value
	node.LHS = left
	node.RHS = right

	return node, nil
}

// parseFunctionCall parses a function call expression.
// Called when we see name followed by '('. Only bare names are callable.
func (p *Parser) parseFunctionCall(nameNode *types.ASTNode) (*types.ASTNode, error) {
	if nameNode.Type != types.NodeName {
		return nil, p.error(types.ErrSyntaxError, "Only a function name can be called")
	}

	pos := nameNode.Position
	p.advance() // Skip '('

	node := p.node(types.NodeFunction, pos)
	node.StrValue = nameNode.StrValue

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.Arguments = append(node.Arguments, arg)

			if p.current.Type == TokenParenClose {
				break
			}

			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	return node, nil
}

// parseConditional parses a conditional (ternary) expression.
// Syntax: condition ? then_expr : else_expr
func (p *Parser) parseConditional(condition *types.ASTNode) (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '?'

	thenExpr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	// Right-associative: a ? b : c ? d : e
	elseExpr, err := p.parseExpression(precedence[TokenCondition] - 1)
	if err != nil {
		return nil, err
	}

	node := p.node(types.NodeCondition, pos)
	node.LHS = condition
	node.RHS = thenExpr
	node.Else = elseExpr
	return node, nil
}
