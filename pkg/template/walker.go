package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandrolain/actemplate/pkg/evaluator"
	"github.com/sandrolain/actemplate/pkg/parser"
	"github.com/sandrolain/actemplate/pkg/types"
)

// walker carries the state of one expansion.
type walker struct {
	e     *Engine
	ctx   context.Context
	stack *evaluator.ContextStack
	diags types.Diagnostics
}

func (e *Engine) newWalker(ctx context.Context, data types.Value) *walker {
	if data.IsUndefined() {
		data = types.Null()
	}
	return &walker{
		e:     e,
		ctx:   ctx,
		stack: evaluator.NewContextStack(data),
	}
}

// expansion is what one template node turns into: no node (pruned), one
// node, or the repetitions of an array-bound $data.
type expansion struct {
	nodes []types.Value
	// spread marks repetitions, which splice into an enclosing array.
	spread bool
}

func single(v types.Value) expansion {
	return expansion{nodes: []types.Value{v}}
}

// root transforms the document root. A pruned root becomes null and
// repetitions become an array.
func (w *walker) root(tmpl types.Value) types.Value {
	v, ok := w.value(tmpl, "")
	if !ok {
		return types.Null()
	}
	return v
}

// value transforms a node that sits outside an array. ok is false when the
// node was pruned.
func (w *walker) value(v types.Value, path string) (types.Value, bool) {
	x := w.node(v, path)
	if x.spread {
		return types.Array(x.nodes...), true
	}
	if len(x.nodes) == 0 {
		return types.Undefined(), false
	}
	return x.nodes[0], true
}

func (w *walker) node(v types.Value, path string) expansion {
	switch v.Kind() {
	case types.KindObject:
		obj, _ := v.AsObject()
		return w.object(obj, path)
	case types.KindArray:
		items, _ := v.AsArray()
		return single(w.array(items, path))
	case types.KindString:
		s, _ := v.AsString()
		return single(w.str(s, path))
	case types.KindUndefined:
		return single(types.Null())
	default:
		return single(v)
	}
}

// array transforms each item and splices repetitions in place.
func (w *walker) array(items []types.Value, path string) types.Value {
	out := make([]types.Value, 0, len(items))
	for i, item := range items {
		x := w.node(item, fmt.Sprintf("%s/%d", path, i))
		out = append(out, x.nodes...)
	}
	return types.Array(out...)
}

// object applies $data and $when, then transforms the remaining members.
//
// $data is evaluated first. For an array each item gets its own scope, and
// $when is evaluated inside that scope, so it filters repetitions.
func (w *walker) object(obj *types.Object, path string) expansion {
	whenRaw, hasWhen := obj.Get(KeyWhen)
	dataRaw, hasData := obj.Get(KeyData)

	if !hasData {
		if hasWhen && !w.when(whenRaw, path) {
			return expansion{}
		}
		return single(w.members(obj, path))
	}

	data, ok := w.data(dataRaw, path)
	if !ok {
		// Treated as absent: the node stays in the current scope.
		if hasWhen && !w.when(whenRaw, path) {
			return expansion{}
		}
		return single(w.members(obj, path))
	}

	if items, isArray := data.AsArray(); isArray {
		x := expansion{spread: true, nodes: make([]types.Value, 0, len(items))}
		for i, item := range items {
			w.stack.PushIndexed(item, i)
			if !hasWhen || w.when(whenRaw, path) {
				x.nodes = append(x.nodes, w.members(obj, path))
			}
			w.stack.Pop()
		}
		return x
	}

	w.stack.Push(data)
	defer w.stack.Pop()
	if hasWhen && !w.when(whenRaw, path) {
		return expansion{}
	}
	return single(w.members(obj, path))
}

// members copies every non-control member, transformed, in key order.
// Pruned values drop their key.
func (w *walker) members(obj *types.Object, path string) types.Value {
	out := types.NewObject()
	for _, m := range obj.Members() {
		if m.Key == KeyWhen || m.Key == KeyData {
			continue
		}
		if v, ok := w.value(m.Value, path+"/"+escapePointer(m.Key)); ok {
			out.Set(m.Key, v)
		}
	}
	return types.ObjectValue(out)
}

// when evaluates a $when value in the current scope.
func (w *walker) when(raw types.Value, path string) bool {
	p := path + "/" + escapePointer(KeyWhen)
	v, err := w.control(raw, p)
	if err != nil {
		w.structural(p, raw, types.ErrWhenFailed, "$when could not be evaluated", err)
		return false
	}
	switch v.Kind() {
	case types.KindArray, types.KindObject:
		w.structural(p, raw, types.ErrWhenNotBoolean,
			fmt.Sprintf("$when must evaluate to a boolean-coercible value, got %s", v.Kind()), nil)
		return false
	}
	return v.Truthy()
}

// data evaluates a $data value. ok is false when the value cannot bind a
// scope, in which case a diagnostic has been recorded.
func (w *walker) data(raw types.Value, path string) (types.Value, bool) {
	p := path + "/" + escapePointer(KeyData)
	v, err := w.control(raw, p)
	if err != nil {
		w.structural(p, raw, types.ErrDataFailed, "$data could not be evaluated", err)
		return types.Undefined(), false
	}
	switch v.Kind() {
	case types.KindArray, types.KindObject:
		return v, true
	}
	w.structural(p, raw, types.ErrDataNotIterable,
		fmt.Sprintf("$data must evaluate to an array or object, got %s", v.Kind()), nil)
	return types.Undefined(), false
}

// control resolves a $when or $data value. Strings are either bindings or
// raw expressions without markers; inline arrays and objects are expanded
// first; other literals are used as they are.
func (w *walker) control(raw types.Value, path string) (types.Value, error) {
	switch raw.Kind() {
	case types.KindString:
		s, _ := raw.AsString()
		if !parser.HasBinding(s) {
			return w.eval(strings.TrimSpace(s))
		}
		regions, err := parser.ScanTemplate(s)
		if err != nil {
			return types.Null(), err
		}
		if r, ok := parser.IsFullBinding(regions); ok {
			return w.eval(r.Text)
		}
		var b strings.Builder
		for _, r := range regions {
			if !r.Binding {
				b.WriteString(r.Text)
				continue
			}
			v, err := w.eval(r.Text)
			if err != nil {
				return types.Null(), err
			}
			b.WriteString(types.FormatText(v))
		}
		return types.String(b.String()), nil
	case types.KindArray, types.KindObject:
		v, ok := w.value(raw, path)
		if !ok {
			return types.Null(), nil
		}
		return v, nil
	default:
		return raw, nil
	}
}

// eval compiles and evaluates an expression source in the current scope.
func (w *walker) eval(src string) (types.Value, error) {
	expr, err := w.e.ev.Compile(src)
	if err != nil {
		return types.Null(), err
	}
	return w.e.ev.Eval(w.ctx, expr, w.stack)
}

// str expands the bindings of a string value.
//
// A full binding keeps the native type of its result. Anything else yields
// a string: literal text is copied, bindings are formatted as text, a
// binding that does not parse is copied verbatim and one that fails to
// evaluate contributes nothing.
func (w *walker) str(s, path string) types.Value {
	if !parser.HasBinding(s) {
		return types.String(s)
	}

	regions, scanErr := parser.ScanTemplate(s)
	if scanErr != nil {
		w.diagnose(types.DiagnosticParse, path, tokenOf(scanErr, s), scanErr)
	} else if r, ok := parser.IsFullBinding(regions); ok {
		v, ok := w.binding(r, path)
		if !ok {
			if v.IsUndefined() {
				return types.String(s)
			}
			return types.Null()
		}
		return v
	}

	var buf strings.Builder
	buf.Grow(len(s))
	for _, r := range regions {
		if !r.Binding {
			buf.WriteString(r.Text)
			continue
		}
		v, ok := w.binding(r, path)
		switch {
		case ok:
			buf.WriteString(types.FormatText(v))
		case v.IsUndefined():
			buf.WriteString(r.Raw)
		}
	}
	return types.String(buf.String())
}

// binding evaluates one ${...} region. On failure ok is false and the
// returned value tells the two failure modes apart: undefined when the
// region did not parse, null when it did not evaluate.
func (w *walker) binding(r parser.Region, path string) (types.Value, bool) {
	expr, err := w.e.ev.Compile(r.Text)
	if err != nil {
		w.diagnose(types.DiagnosticParse, path, r.Raw, err)
		return types.Undefined(), false
	}
	v, err := w.e.ev.Eval(w.ctx, expr, w.stack)
	if err != nil {
		w.diagnose(types.DiagnosticEvaluation, path, r.Raw, err)
		return types.Null(), false
	}
	return v, true
}

func (w *walker) diagnose(kind types.DiagnosticKind, path, expr string, err error) {
	w.diags.Add(types.NewDiagnostic(kind, path, expr, err))
}

func (w *walker) structural(path string, raw types.Value, code types.ErrorCode, msg string, cause error) {
	te := types.NewError(code, msg, -1)
	if cause != nil {
		te = te.WithCause(cause)
		te.Message = msg + ": " + causeMessage(cause)
	}
	w.diags.Add(types.NewDiagnostic(types.DiagnosticStructural, path, controlSource(raw), te))
}

// controlSource is the text recorded as the expression of a control key.
func controlSource(raw types.Value) string {
	if s, ok := raw.AsString(); ok {
		return s
	}
	return raw.String()
}

func causeMessage(err error) string {
	if te, ok := err.(*types.Error); ok {
		return te.Message
	}
	return err.Error()
}

// tokenOf returns the offending text recorded on a scan error.
func tokenOf(err error, fallback string) string {
	if te, ok := err.(*types.Error); ok && te.Token != "" {
		return te.Token
	}
	return fallback
}

// escapePointer escapes a key for use as a JSON pointer segment.
func escapePointer(key string) string {
	if !strings.ContainsAny(key, "~/") {
		return key
	}
	return strings.ReplaceAll(strings.ReplaceAll(key, "~", "~0"), "/", "~1")
}
