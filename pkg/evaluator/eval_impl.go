package evaluator

import (
	"errors"
	"fmt"
	"math"

	"github.com/sandrolain/actemplate/pkg/types"
)

// evalNode is the main evaluation dispatcher.
func (e *Evaluator) evalNode(st *evalState, node *types.ASTNode) (types.Value, error) {
	if node == nil {
		return types.Undefined(), nil
	}

	switch node.Type {
	case types.NodeLiteral:
		return node.Literal, nil

	case types.NodeName:
		return e.evalName(st, node)

	case types.NodeProperty:
		return e.evalProperty(st, node)

	case types.NodeIndex:
		return e.evalIndex(st, node)

	case types.NodeUnary:
		return e.evalUnary(st, node)

	case types.NodeBinary:
		return e.evalBinary(st, node)

	case types.NodeAnd:
		return e.evalAnd(st, node)

	case types.NodeOr:
		return e.evalOr(st, node)

	case types.NodeCondition:
		return e.evalCondition(st, node)

	case types.NodeFunction:
		return e.evalFunction(st, node)

	default:
		return types.Undefined(), types.NewError(types.ErrSyntaxError,
			fmt.Sprintf("unsupported node type: %s", node.Type), node.Position)
	}
}

// evalName resolves a bare identifier or one of the reserved names.
func (e *Evaluator) evalName(st *evalState, node *types.ASTNode) (types.Value, error) {
	switch node.StrValue {
	case types.NameRoot:
		return st.stack.Root(), nil
	case types.NameData:
		return st.stack.Data(), nil
	case types.NameIndex:
		if idx, ok := st.stack.Index(); ok {
			return types.Int(idx), nil
		}
		st.markUnresolved(node)
		return types.Undefined(), nil
	}

	if v, ok := st.stack.Lookup(node.StrValue); ok {
		return v, nil
	}
	st.markUnresolved(node)
	return types.Undefined(), nil
}

// evalProperty evaluates base.key. A missing key, or a base that is not an
// object, yields undefined.
func (e *Evaluator) evalProperty(st *evalState, node *types.ASTNode) (types.Value, error) {
	base, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}
	if base.IsUndefined() {
		return base, nil
	}
	if obj, ok := base.AsObject(); ok {
		if v, ok := obj.Get(node.StrValue); ok {
			return v, nil
		}
	}
	st.markUnresolved(node)
	return types.Undefined(), nil
}

// evalIndex evaluates base[expr]. Arrays take a number truncated toward
// zero; objects take a string key. Anything out of range is undefined.
func (e *Evaluator) evalIndex(st *evalState, node *types.ASTNode) (types.Value, error) {
	base, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}
	if base.IsUndefined() {
		return base, nil
	}
	key, err := e.evalNode(st, node.RHS)
	if err != nil {
		return types.Undefined(), err
	}
	if key.IsUndefined() {
		return key, nil
	}

	switch base.Kind() {
	case types.KindArray:
		items, _ := base.AsArray()
		if n, ok := key.AsNumber(); ok && !math.IsNaN(n) {
			i := int(math.Trunc(n))
			if i >= 0 && i < len(items) {
				return items[i], nil
			}
		}
	case types.KindObject:
		obj, _ := base.AsObject()
		if s, ok := key.AsString(); ok {
			if v, ok := obj.Get(s); ok {
				return v, nil
			}
		}
	}

	st.markUnresolved(node)
	return types.Undefined(), nil
}

// evalCondition evaluates cond ? then : else, evaluating only the chosen
// branch.
func (e *Evaluator) evalCondition(st *evalState, node *types.ASTNode) (types.Value, error) {
	cond, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}
	if cond.Truthy() {
		return e.evalNode(st, node.RHS)
	}
	return e.evalNode(st, node.Else)
}

// evalAnd evaluates a && b with short-circuit. The result is always a
// boolean.
func (e *Evaluator) evalAnd(st *evalState, node *types.ASTNode) (types.Value, error) {
	left, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}
	if !left.Truthy() {
		return types.Bool(false), nil
	}
	right, err := e.evalNode(st, node.RHS)
	if err != nil {
		return types.Undefined(), err
	}
	return types.Bool(right.Truthy()), nil
}

// evalOr evaluates a || b with short-circuit. The result is always a
// boolean.
func (e *Evaluator) evalOr(st *evalState, node *types.ASTNode) (types.Value, error) {
	left, err := e.evalNode(st, node.LHS)
	if err != nil {
		return types.Undefined(), err
	}
	if left.Truthy() {
		return types.Bool(true), nil
	}
	right, err := e.evalNode(st, node.RHS)
	if err != nil {
		return types.Undefined(), err
	}
	return types.Bool(right.Truthy()), nil
}

// evalFunction evaluates a function call. Custom functions shadow
// built-ins; "if" is evaluated lazily unless shadowed.
func (e *Evaluator) evalFunction(st *evalState, node *types.ASTNode) (types.Value, error) {
	name := node.StrValue

	fnDef, ok := e.getCustomFunction(name)
	if !ok {
		fnDef, ok = GetFunction(name)
		if !ok {
			return types.Undefined(), types.NewError(types.ErrUndefinedFunction,
				fmt.Sprintf("unknown function %q", name), node.Position).WithToken(name)
		}
		if name == "if" {
			return e.evalIf(st, node, fnDef)
		}
	}

	if err := checkArity(fnDef, len(node.Arguments), node.Position); err != nil {
		return types.Undefined(), err
	}

	args := make([]types.Value, len(node.Arguments))
	for i, argNode := range node.Arguments {
		v, err := e.evalNode(st, argNode)
		if err != nil {
			return types.Undefined(), err
		}
		if v.IsUndefined() && !fnDef.AcceptsUndefined {
			return types.Undefined(), nil
		}
		args[i] = v
	}

	return e.callFunction(st, fnDef, args, node.Position)
}

// evalIf evaluates if(cond, a, b) evaluating only the selected branch.
func (e *Evaluator) evalIf(st *evalState, node *types.ASTNode, fnDef *FunctionDef) (types.Value, error) {
	if err := checkArity(fnDef, len(node.Arguments), node.Position); err != nil {
		return types.Undefined(), err
	}
	cond, err := e.evalNode(st, node.Arguments[0])
	if err != nil {
		return types.Undefined(), err
	}
	if cond.Truthy() {
		return e.evalNode(st, node.Arguments[1])
	}
	return e.evalNode(st, node.Arguments[2])
}

// callFunction invokes a resolved function and normalizes its error.
func (e *Evaluator) callFunction(st *evalState, fnDef *FunctionDef, args []types.Value, pos int) (types.Value, error) {
	if st.ctx != nil {
		if err := st.ctx.Err(); err != nil {
			return types.Undefined(), types.NewError(types.ErrFunctionFailed,
				fmt.Sprintf("%s: evaluation cancelled", fnDef.Name), pos).WithCause(err)
		}
	}

	result, err := fnDef.Impl(st.ctx, e, args)
	if err != nil {
		var te *types.Error
		if errors.As(err, &te) {
			if te.Position >= 0 {
				return types.Undefined(), te
			}
			located := *te
			located.Position = pos
			return types.Undefined(), &located
		}
		return types.Undefined(), types.NewError(types.ErrFunctionFailed,
			fmt.Sprintf("%s: %v", fnDef.Name, err), pos).WithToken(fnDef.Name).WithCause(err)
	}
	return result, nil
}

// checkArity validates the argument count of a call.
func checkArity(fnDef *FunctionDef, n, pos int) error {
	if n < fnDef.MinArgs || (fnDef.MaxArgs >= 0 && n > fnDef.MaxArgs) {
		return types.NewError(types.ErrArgumentCountMismatch,
			fmt.Sprintf("%s expects %s, got %d", fnDef.Name, arityText(fnDef.MinArgs, fnDef.MaxArgs), n),
			pos).WithToken(fnDef.Name)
	}
	return nil
}

func arityText(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d argument(s)", minArgs)
	case minArgs == maxArgs:
		return fmt.Sprintf("%d argument(s)", minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", minArgs, maxArgs)
	}
}
