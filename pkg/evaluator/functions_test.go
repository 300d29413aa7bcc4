package evaluator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/actemplate/pkg/evaluator"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

func strs(items ...string) types.Value {
	out := make([]types.Value, len(items))
	for i, s := range items {
		out[i] = types.String(s)
	}
	return types.Array(out...)
}

func nums(items ...float64) types.Value {
	out := make([]types.Value, len(items))
	for i, n := range items {
		out[i] = types.Number(n)
	}
	return types.Array(out...)
}

func TestLogicFunctions(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"equals(1, '1')", types.Bool(true)},
		{"equals(user.name, 'Bob')", types.Bool(false)},
		{"not(0)", types.Bool(true)},
		{"not(missing)", types.Bool(true)},
		{"and(true, 1, 'x')", types.Bool(true)},
		{"and(true, empty)", types.Bool(false)},
		{"or(false, 0)", types.Bool(false)},
		{"or(false, user)", types.Bool(true)},
		{"greaterThan(3, 2)", types.Bool(true)},
		{"greaterThanOrEquals(2, 3)", types.Bool(false)},
		{"lessThan('a', 'b')", types.Bool(true)},
		{"lessThanOrEquals(2, 2)", types.Bool(true)},
		{"exists(missing)", types.Bool(false)},
		{"exists(nothing)", types.Bool(false)},
		{"exists(user)", types.Bool(true)},
		{"empty('')", types.Bool(true)},
		{"empty(createArray())", types.Bool(true)},
		{"empty(missing)", types.Bool(true)},
		{"empty(0)", types.Bool(false)},
		{"empty(user)", types.Bool(false)},
		{"isMatch('abc123', '[a-z]+[0-9]+')", types.Bool(true)},
		{"isMatch('abc123x', '[a-z]+[0-9]+')", types.Bool(false)},
		{"isMatch('abc', 'b')", types.Bool(false)},
		{"isMatch('abc', 'x|abc')", types.Bool(true)},
		{"isMatch('abcd', 'x|abc')", types.Bool(false)},
	})
}

func TestStringFunctions(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"toLower('ABC')", types.String("abc")},
		{"toUpper(user.name)", types.String("ADA")},
		{"toUpper(nothing)", types.String("")},
		{"substring('hello', 1, 3)", types.String("ell")},
		{"substring('hello', 2)", types.String("llo")},
		{"substring('hello', 3, 10)", types.String("lo")},
		{"substring('hello', 10)", types.String("hello")},
		{"substring('héllo', 1, 2)", types.String("él")},
		{"indexOf('hello', 'l')", types.Int(2)},
		{"indexOf('hello', 'z')", types.Int(-1)},
		{"indexOf('héllo', 'l')", types.Int(2)},
		{"lastIndexOf('hello', 'l')", types.Int(3)},
		{"length('héllo')", types.Int(5)},
		{"length(user.tags)", types.Int(2)},
		{"length(nothing)", types.Int(0)},
		{"replace('a-b-c', '-', '+')", types.String("a+b+c")},
		{"split('a,b', ',')", strs("a", "b")},
		{"split(zero, ',')", types.Array(types.Int(0))},
		{"join(user.tags, '|')", types.String("a|b")},
		{"join(user.tags)", types.String("ab")},
		{"join('x', ',')", types.String("")},
		{"trim('  x ')", types.String("x")},
		{"startsWith('hello', 'he')", types.Bool(true)},
		{"endsWith('hello', 'lo')", types.Bool(true)},
		{"contains('hello', 'ell')", types.Bool(true)},
		{"contains(user.tags, 'b')", types.Bool(true)},
		{"contains(user.tags, 'z')", types.Bool(false)},
		{"contains(user, 'age')", types.Bool(true)},
		{"format('{0} is {1}', user.name, user.age)", types.String("Ada is 36")},
		{"format('{2} {x}', 1)", types.String("{2} {x}")},
		{"concat('a', 1, true, nothing)", types.String("a1true")},
	})
}

func TestCollectionFunctions(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"count(user.tags)", types.Int(2)},
		{"count(user)", types.Int(4)},
		{"count('abc')", types.Int(3)},
		{"first(user.tags)", types.String("a")},
		{"first(createArray())", types.Null()},
		{"last(user.tags)", types.String("b")},
		{"last(createArray())", types.Null()},
		{"filter(createArray(1, nothing, '', 'x'))", types.Array(types.Int(1), types.String("x"))},
		{"sort(createArray(10, 2, 1))", nums(1, 2, 10)},
		{"sort(createArray('b', 'a', 'c'))", strs("a", "b", "c")},
		{"reverse(createArray(1, 2))", nums(2, 1)},
		{"reverse('abc')", types.String("cba")},
		{"flatten(createArray(createArray(1, 2), 3))", nums(1, 2, 3)},
		{"union(createArray(1, 2), createArray(2, 3))", nums(1, 2, 3)},
		{"intersection(createArray(1, 2, 3, 2), createArray(2, 3, 4))", nums(2, 3)},
		{"createArray(user.name, 1)", types.Array(types.String("Ada"), types.Int(1))},
	})
}

func TestMathFunctions(t *testing.T) {
	runEvalCases(t, []evalCase{
		{"add(1, 2, 3)", types.Int(6)},
		{"add(price, 1)", types.Number(13.5)},
		{"sub(5, 2)", types.Int(3)},
		{"mul(2, 3, 4)", types.Int(24)},
		{"div(7, 2)", types.Number(3.5)},
		{"mod(7, 2)", types.Int(1)},
		{"min(3, 1, 2)", types.Int(1)},
		{"max(createArray(1, 5, 3))", types.Int(5)},
		{"round(2.5)", types.Int(2)},
		{"round(3.5)", types.Int(4)},
		{"round(-2.5)", types.Int(-2)},
		{"round(2.345, 2)", types.Number(2.34)},
		{"round(1.26, 1)", types.Number(1.3)},
		{"floor(2.7)", types.Int(2)},
		{"ceil(2.1)", types.Int(3)},
		{"abs(-3)", types.Int(3)},
	})
}

func TestConversionFunctions(t *testing.T) {
	ordered := types.ObjectValue(types.NewObject(
		types.Member{Key: "b", Value: types.Int(1)},
		types.Member{Key: "a", Value: types.Int(2)},
	))
	runEvalCases(t, []evalCase{
		{"parseInt('42.9')", types.Int(42)},
		{"int(7.8)", types.Int(7)},
		{"int(nothing)", types.Int(0)},
		{"parseFloat('3.5')", types.Number(3.5)},
		{"float(true)", types.Int(1)},
		{"toString(3)", types.String("3")},
		{"string(nothing)", types.String("")},
		{"string(user.tags)", types.String(`["a","b"]`)},
		{"toNumber('1e3')", types.Int(1000)},
		{"toBool('yes')", types.Bool(true)},
		{"toBool('No')", types.Bool(false)},
		{"toBool('maybe')", types.Bool(true)},
		{"toBool(createArray())", types.Bool(false)},
		{"toBool(missing)", types.Bool(false)},
		{`json('{"b":1,"a":2}')`, ordered},
		{`json('[1,2]')[1]`, types.Int(2)},
	})

	if te := evalError(t, "parseInt('abc')"); te.Code != types.ErrCannotConvertNumber {
		t.Errorf("expected %s, got %s", types.ErrCannotConvertNumber, te.Code)
	}
	if te := evalError(t, "json(1)"); te.Code != types.ErrCannotConvertString {
		t.Errorf("expected %s, got %s", types.ErrCannotConvertString, te.Code)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		query  string
		locale string
		want   string
	}{
		{"formatNumber(1234.5, 2)", "", "1,234.50"},
		{"formatNumber(1234567)", "", "1,234,567"},
		{"formatNumber(1234.5, 2, 'de-DE')", "", "1.234,50"},
		{"formatNumber(1234.5, 2, 'de_DE')", "", "1.234,50"},
		{"formatNumber(1234.5, 2)", "de-DE", "1.234,50"},
	}
	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.locale, func(t *testing.T) {
			var opts []evaluator.EvalOption
			if tt.locale != "" {
				opts = append(opts, evaluator.WithLocale(tt.locale))
			}
			ev := evaluator.New(opts...)
			got, err := ev.EvalString(context.Background(), tt.query, nil)
			if err != nil {
				t.Fatal(err)
			}
			if s, _ := got.AsString(); s != tt.want {
				t.Errorf("expected %q, got %q", tt.want, s)
			}
		})
	}

	ev := evaluator.New()
	_, err := ev.EvalString(context.Background(), "formatNumber(1, 2, 'not a locale!')", nil)
	var te *types.Error
	if !errors.As(err, &te) || te.Code != types.ErrInvalidArgument {
		t.Fatalf("expected %s, got %v", types.ErrInvalidArgument, err)
	}
}

func TestDateFunctions(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	ev := evaluator.New(evaluator.WithClock(func() time.Time { return now }))

	tests := []evalCase{
		{"formatDateTime('2024-03-05T14:07:09Z')", types.String("2024-03-05")},
		{"formatDateTime('2024-03-05T14:07:09Z', 'yyyy-MM-dd HH:mm')", types.String("2024-03-05 14:07")},
		{"formatDateTime('2024-03-05T14:07:09.250Z', 'H:m:s.SSS')", types.String("14:7:9.250")},
		{"formatDateTime('2024-03-05', 'EEEE d MMMM yyyy')", types.String("Tuesday 5 March 2024")},
		{"formatDateTime('2024-03-05', 'EEE, MMM d yy')", types.String("Tue, Mar 5 24")},
		{"formatDateTime('2024-03-05', 'EEEE d MMMM', 'de-DE')", types.String("Dienstag 5 März")},
		{`formatDateTime('2024-03-05', "'Day' d")`, types.String("Day 5")},
		{"formatDateTime('2024-03-05T15:00:00Z', 'hh a')", types.String("03 PM")},
		{"formatDateTime('01/15/2024', 'dd.MM.yyyy')", types.String("15.01.2024")},
		{"addDays('2024-01-30T10:00:00Z', 2)", types.String("2024-02-01T10:00:00Z")},
		{"addDays('2024-03-01', -1)", types.String("2024-02-29T00:00:00Z")},
		{"addHours('2024-01-01', 25)", types.String("2024-01-02T01:00:00Z")},
		{"getYear('2024-03-05')", types.Int(2024)},
		{"getMonth('2024-03-05')", types.Int(3)},
		{"getDay('2024-03-05')", types.Int(5)},
		{"getYear(0)", types.Int(1970)},
		{"dateDiff('2024-01-01', '2024-01-31')", types.Int(30)},
		{"dateDiff('2024-01-02', '2024-01-01T12:00:00Z')", types.Int(0)},
		{"dateDiff('2024-01-03', '2024-01-01')", types.Int(-2)},
		{"utcNow()", types.String("2024-05-06T07:08:09Z")},
		{"getDay(utcNow())", types.Int(6)},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ev.EvalString(context.Background(), tt.query, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, query := range []string{"formatDateTime('garbage')", "addDays(user, 1)", "getYear(true)"} {
		_, err := ev.EvalString(context.Background(), query, evaluator.NewContextStack(types.MustParseJSON(fixture)))
		var te *types.Error
		if !errors.As(err, &te) || te.Code != types.ErrCannotConvertDate {
			t.Errorf("%s: expected %s, got %v", query, types.ErrCannotConvertDate, err)
		}
	}
}

func TestCustomFunctions(t *testing.T) {
	greet := func(ctx context.Context, args ...types.Value) (types.Value, error) {
		return types.String("Hello, " + types.FormatText(args[0]) + "!"), nil
	}
	fail := func(ctx context.Context, args ...types.Value) (types.Value, error) {
		return types.Undefined(), fmt.Errorf("intentional error")
	}
	shout := func(ctx context.Context, args ...types.Value) (types.Value, error) {
		return types.String("custom"), nil
	}
	seen := func(ctx context.Context, args ...types.Value) (types.Value, error) {
		return types.Bool(args[0].IsUndefined()), nil
	}

	ev := evaluator.New(
		evaluator.WithCustomFunction("greet", greet),
		evaluator.WithCustomFunction("fail", fail),
		evaluator.WithCustomFunction("toUpper", shout),
		evaluator.WithFunctions(functions.CustomFunctionDef{
			Name:             "isMissing",
			MinArgs:          1,
			MaxArgs:          1,
			AcceptsUndefined: true,
			Fn:               seen,
		}),
	)
	stack := evaluator.NewContextStack(types.MustParseJSON(fixture))

	got, err := evalWith(t, ev, "greet(user.name)", stack)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "Hello, Ada!" {
		t.Errorf(`expected "Hello, Ada!", got %q`, s)
	}

	got, err = evalWith(t, ev, "toUpper('x')", stack)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "custom" {
		t.Errorf("custom function should shadow the built-in, got %q", s)
	}

	got, err = evalWith(t, ev, "isMissing(missing)", stack)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := got.AsBool(); !b {
		t.Error("custom functions should receive unresolved arguments as undefined")
	}

	// Without AcceptsUndefined the call is skipped and the reference is
	// reported.
	_, err = evalWith(t, ev, "greet(missing)", stack)
	var te *types.Error
	if !errors.As(err, &te) || te.Code != types.ErrUnresolvedReference || te.Token != "missing" {
		t.Fatalf("expected unresolved missing, got %v", err)
	}

	_, err = evalWith(t, ev, "fail()", stack)
	if !errors.As(err, &te) || te.Code != types.ErrFunctionFailed {
		t.Fatalf("expected %s, got %v", types.ErrFunctionFailed, err)
	}

	_, err = evalWith(t, ev, "isMissing(1, 2)", stack)
	if !errors.As(err, &te) || te.Code != types.ErrArgumentCountMismatch {
		t.Fatalf("expected %s, got %v", types.ErrArgumentCountMismatch, err)
	}
}

func TestFunctionNames(t *testing.T) {
	names := evaluator.FunctionNames()
	for _, want := range []string{"if", "formatDateTime", "isMatch", "json", "createArray"} {
		if _, ok := evaluator.GetFunction(want); !ok {
			t.Errorf("missing built-in %q", want)
		}
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %q >= %q", names[i-1], names[i])
		}
	}
}
