package evaluator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/sandrolain/actemplate/pkg/types"
)

// fnIf serves direct (non-lazy) calls, used when "if" is invoked through a
// custom function table.
func fnIf(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	if args[0].Truthy() {
		return args[1], nil
	}
	return args[2], nil
}

func fnEquals(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(types.LooseEqual(args[0], args[1])), nil
}

func fnNot(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(!args[0].Truthy()), nil
}

func fnAnd(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	for _, arg := range args {
		if !arg.Truthy() {
			return types.Bool(false), nil
		}
	}
	return types.Bool(true), nil
}

func fnOr(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	for _, arg := range args {
		if arg.Truthy() {
			return types.Bool(true), nil
		}
	}
	return types.Bool(false), nil
}

func fnGreaterThan(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(types.Compare(args[0], args[1]) > 0), nil
}

func fnGreaterThanOrEquals(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(types.Compare(args[0], args[1]) >= 0), nil
}

func fnLessThan(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(types.Compare(args[0], args[1]) < 0), nil
}

func fnLessThanOrEquals(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(types.Compare(args[0], args[1]) <= 0), nil
}

// fnExists reports whether the argument resolved to a non-null value.
func fnExists(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(!args[0].IsNull()), nil
}

// fnEmpty reports whether the argument is null, an empty string, an empty
// array or an empty object.
func fnEmpty(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	v := args[0]
	switch v.Kind() {
	case types.KindUndefined, types.KindNull:
		return types.Bool(true), nil
	case types.KindString, types.KindArray, types.KindObject:
		return types.Bool(v.Len() == 0), nil
	default:
		return types.Bool(false), nil
	}
}

// fnIsMatch reports whether the whole text matches the regular expression.
// The pattern is validated on its own before anchoring so that unbalanced
// groups cannot escape the anchors.
func fnIsMatch(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	pattern := textArg(args[1])
	re, err := e.regexps.GetOrCompile(pattern, func() (*regexp.Regexp, error) {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, err
		}
		return regexp.Compile("^(?:" + pattern + ")$")
	})
	if err != nil {
		return types.Undefined(), types.NewError(types.ErrInvalidRegex,
			fmt.Sprintf("isMatch: invalid pattern %q", pattern), -1).WithToken(pattern).WithCause(err)
	}
	return types.Bool(re.MatchString(textArg(args[0]))), nil
}
