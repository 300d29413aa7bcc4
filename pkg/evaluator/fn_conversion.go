package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sandrolain/actemplate/pkg/types"
)

// fnParseInt converts to an integer, truncating toward zero. Strings may
// hold any decimal number.
func fnParseInt(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("parseInt", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return numberResult("parseInt", math.Trunc(n))
}

func fnParseFloat(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("parseFloat", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return numberResult("parseFloat", n)
}

func fnToNumber(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("toNumber", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return numberResult("toNumber", n)
}

func fnToString(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.String(textArg(args[0])), nil
}

// fnToBool recognizes "true"/"1"/"yes" and "false"/"0"/"no" (any case).
// Other strings are true when non-empty, arrays when non-empty.
func fnToBool(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	v := args[0]
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return types.Bool(true), nil
		case "false", "0", "no", "":
			return types.Bool(false), nil
		}
		return types.Bool(true), nil
	case types.KindArray:
		return types.Bool(v.Len() > 0), nil
	default:
		return types.Bool(v.Truthy()), nil
	}
}

// fnJSON parses a JSON document held in a string, keeping object key order.
func fnJSON(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	s, ok := args[0].AsString()
	if !ok {
		return types.Undefined(), types.NewError(types.ErrCannotConvertString,
			fmt.Sprintf("json: expected a string, got %s", args[0].Kind()), -1)
	}
	v, err := types.ParseJSON([]byte(s))
	if err != nil {
		return types.Undefined(), types.NewError(types.ErrInvalidJSON,
			"json: invalid JSON document", -1).WithCause(err)
	}
	return v, nil
}
