package evaluator

import (
	"fmt"
	"math"

	"github.com/sandrolain/actemplate/pkg/types"
)

// evalUnary evaluates ! and unary minus.
func (e *Evaluator) evalUnary(st *evalState, node *types.ASTNode) (types.Value, error) {
	operand, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}

	switch node.StrValue {
	case "!":
		return types.Bool(!operand.Truthy()), nil
	case "-":
		if operand.IsUndefined() {
			return operand, nil
		}
		n, err := arithmeticOperand(operand, "-", node.Position)
		if err != nil {
			return types.Undefined(), err
		}
		return types.Number(-n), nil
	default:
		return types.Undefined(), types.NewError(types.ErrSyntaxError,
			fmt.Sprintf("unknown unary operator: %s", node.StrValue), node.Position)
	}
}

// evalBinary evaluates comparison and arithmetic operators.
func (e *Evaluator) evalBinary(st *evalState, node *types.ASTNode) (types.Value, error) {
	left, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}
	right, err := e.evalNode(st, node.RHS)
	if err != nil {
		return types.Undefined(), err
	}

	op := node.StrValue
	switch op {
	case "==":
		return types.Bool(types.LooseEqual(left, right)), nil
	case "!=":
		return types.Bool(!types.LooseEqual(left, right)), nil
	case "<":
		return types.Bool(types.Compare(left, right) < 0), nil
	case "<=":
		return types.Bool(types.Compare(left, right) <= 0), nil
	case ">":
		return types.Bool(types.Compare(left, right) > 0), nil
	case ">=":
		return types.Bool(types.Compare(left, right) >= 0), nil
	case "+", "-", "*", "/", "%":
		return e.evalArithmetic(op, left, right, node.Position)
	default:
		return types.Undefined(), types.NewError(types.ErrSyntaxError,
			fmt.Sprintf("unknown binary operator: %s", op), node.Position)
	}
}

// evalArithmetic applies an arithmetic operator. An undefined operand keeps
// the result undefined; "+" concatenates when either side is a string.
func (e *Evaluator) evalArithmetic(op string, left, right types.Value, pos int) (types.Value, error) {
	if left.IsUndefined() {
		return left, nil
	}
	if right.IsUndefined() {
		return right, nil
	}

	if op == "+" && (left.Kind() == types.KindString || right.Kind() == types.KindString) {
		buf := acquireBuf()
		defer releaseBuf(buf)
		buf.WriteString(types.FormatText(left))
		buf.WriteString(types.FormatText(right))
		return types.String(buf.String()), nil
	}

	l, err := arithmeticOperand(left, op, pos)
	if err != nil {
		return types.Undefined(), err
	}
	r, err := arithmeticOperand(right, op, pos)
	if err != nil {
		return types.Undefined(), err
	}
	n, err := applyArithmetic(op, l, r, pos)
	if err != nil {
		return types.Undefined(), err
	}
	return numberResult(op, n)
}

// applyArithmetic computes l op r on plain numbers.
func applyArithmetic(op string, l, r float64, pos int) (float64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, types.NewError(types.ErrDivisionByZero, "division by zero", pos)
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, types.NewError(types.ErrDivisionByZero, "modulo by zero", pos)
		}
		return math.Mod(l, r), nil
	}
	return 0, types.NewError(types.ErrSyntaxError, fmt.Sprintf("unknown arithmetic operator: %s", op), pos)
}

// arithmeticOperand coerces an operand to a number: null is 0, booleans are
// 1 or 0 and numeric strings are parsed. Other strings and containers are
// type errors.
func arithmeticOperand(v types.Value, op string, pos int) (float64, error) {
	switch v.Kind() {
	case types.KindNull:
		return 0, nil
	case types.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, nil
		}
		return 0, nil
	case types.KindNumber, types.KindString:
		if n, ok := types.ToNumber(v); ok {
			return n, nil
		}
		return 0, types.NewError(types.ErrCannotConvertNumber,
			fmt.Sprintf("%s: cannot convert %q to a number", op, types.FormatText(v)), pos)
	default:
		return 0, types.NewError(types.ErrInvalidTypeOperation,
			fmt.Sprintf("%s: cannot apply to %s", op, v.Kind()), pos)
	}
}
