package evaluator

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/actemplate/pkg/types"
)

func fnToLower(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.String(strings.ToLower(textArg(args[0]))), nil
}

func fnToUpper(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.String(strings.ToUpper(textArg(args[0]))), nil
}

// fnSubstring returns the runes [start, start+length). A start outside the
// text returns the text unchanged; the length is clamped to the end.
func fnSubstring(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	runes := []rune(textArg(args[0]))
	start, err := intArg("substring", args[1])
	if err != nil {
		return types.Undefined(), err
	}
	if start < 0 || start >= len(runes) {
		return types.String(string(runes)), nil
	}
	end := len(runes)
	if len(args) > 2 && !args[2].IsNull() {
		length, err := intArg("substring", args[2])
		if err != nil {
			return types.Undefined(), err
		}
		if length < 0 {
			length = 0
		}
		if length < end-start {
			end = start + length
		}
	}
	return types.String(string(runes[start:end])), nil
}

// fnIndexOf returns the rune offset of the first occurrence, or -1.
func fnIndexOf(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	s, sub := textArg(args[0]), textArg(args[1])
	i := strings.Index(s, sub)
	if i < 0 {
		return types.Int(-1), nil
	}
	return types.Int(utf8.RuneCountInString(s[:i])), nil
}

// fnLastIndexOf returns the rune offset of the last occurrence, or -1.
func fnLastIndexOf(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	s, sub := textArg(args[0]), textArg(args[1])
	i := strings.LastIndex(s, sub)
	if i < 0 {
		return types.Int(-1), nil
	}
	return types.Int(utf8.RuneCountInString(s[:i])), nil
}

// fnLength returns the number of runes of a string or items of an array.
// Null has length 0.
func fnLength(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	v := args[0]
	switch v.Kind() {
	case types.KindString, types.KindArray, types.KindObject:
		return types.Int(v.Len()), nil
	case types.KindNull:
		return types.Int(0), nil
	default:
		return types.Int(utf8.RuneCountInString(textArg(v))), nil
	}
}

// fnReplace replaces every occurrence of a literal substring.
func fnReplace(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	s, old, repl := textArg(args[0]), textArg(args[1]), textArg(args[2])
	if old == "" {
		return types.String(s), nil
	}
	return types.String(strings.ReplaceAll(s, old, repl)), nil
}

// fnSplit splits a string on a literal separator. A non-string argument is
// returned wrapped in a one-item array.
func fnSplit(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	s, ok := args[0].AsString()
	if !ok {
		if args[0].IsNull() {
			return types.Array(), nil
		}
		return types.Array(args[0]), nil
	}
	parts := strings.Split(s, textArg(args[1]))
	items := make([]types.Value, len(parts))
	for i, p := range parts {
		items[i] = types.String(p)
	}
	return types.Array(items...), nil
}

// fnJoin joins array items with a separator (default ""). A non-array
// yields the empty string.
func fnJoin(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	items, ok := args[0].AsArray()
	if !ok {
		return types.String(""), nil
	}
	sep := optionalText(args, 1, "")

	buf := acquireBuf()
	defer releaseBuf(buf)
	for i, item := range items {
		if i > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(textArg(item))
	}
	return types.String(buf.String()), nil
}

func fnTrim(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.String(strings.TrimSpace(textArg(args[0]))), nil
}

func fnStartsWith(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(strings.HasPrefix(textArg(args[0]), textArg(args[1]))), nil
}

func fnEndsWith(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.Bool(strings.HasSuffix(textArg(args[0]), textArg(args[1]))), nil
}

// fnContains tests substring membership for strings and item membership
// (loose equality) for arrays.
func fnContains(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	switch args[0].Kind() {
	case types.KindArray:
		items, _ := args[0].AsArray()
		for _, item := range items {
			if types.LooseEqual(item, args[1]) {
				return types.Bool(true), nil
			}
		}
		return types.Bool(false), nil
	case types.KindObject:
		obj, _ := args[0].AsObject()
		return types.Bool(obj.Has(textArg(args[1]))), nil
	case types.KindNull:
		return types.Bool(false), nil
	default:
		return types.Bool(strings.Contains(textArg(args[0]), textArg(args[1]))), nil
	}
}

// fnFormat substitutes {0}, {1}, ... placeholders with the remaining
// arguments. Placeholders without a matching argument are kept verbatim.
func fnFormat(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	tmpl := textArg(args[0])
	params := args[1:]

	buf := acquireBuf()
	defer releaseBuf(buf)
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '{' {
			buf.WriteByte(c)
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			buf.WriteString(tmpl[i:])
			break
		}
		n, err := strconv.Atoi(tmpl[i+1 : i+end])
		if err != nil || n < 0 || n >= len(params) {
			buf.WriteString(tmpl[i : i+end+1])
		} else {
			buf.WriteString(textArg(params[n]))
		}
		i += end
	}
	return types.String(buf.String()), nil
}

func fnConcat(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	buf := acquireBuf()
	defer releaseBuf(buf)
	for _, arg := range args {
		buf.WriteString(textArg(arg))
	}
	return types.String(buf.String()), nil
}
