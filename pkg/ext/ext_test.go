package ext_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/actemplate/pkg/evaluator"
	"github.com/sandrolain/actemplate/pkg/ext"
	"github.com/sandrolain/actemplate/pkg/ext/extformat"
	"github.com/sandrolain/actemplate/pkg/ext/extstring"
	"github.com/sandrolain/actemplate/pkg/types"
)

const fixture = `{
	"title": "hello world",
	"nums": [1, 2, 3, 4, 5],
	"dupes": [3, 1, 3, 2, 1],
	"other": [4, 5, 6],
	"people": [
		{"name": "Ada", "team": "core", "age": 36, "hours": 10},
		{"name": "Bob", "team": "web", "age": 28, "hours": 5},
		{"name": "Cy", "team": "core", "age": 41}
	],
	"profile": {"name": "Ada", "role": "admin", "meta": {"a": 1, "b": 2}},
	"patch": {"role": "owner", "meta": {"b": 3}},
	"renames": {"name": "fullName"},
	"pairs": [["x", 1], ["y", 2]],
	"csv": "name,qty\nApples,3\nPears,5",
	"nothing": null
}`

func eval(t *testing.T, expr string, opts ...evaluator.EvalOption) types.Value {
	t.Helper()
	got, err := evalErr(expr, opts...)
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", expr, err)
	}
	return got
}

func evalErr(expr string, opts ...evaluator.EvalOption) (types.Value, error) {
	ev := evaluator.New(opts...)
	stack := evaluator.NewContextStack(types.MustParseJSON(fixture))
	return ev.EvalString(context.Background(), expr, stack)
}

type extCase struct {
	expr string
	want types.Value
}

func runCases(t *testing.T, tests []extCase, opts ...evaluator.EvalOption) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := eval(t, tt.expr, opts...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ── WithAll ────────────────────────────────────────────────────────────────

func TestWithAll_StringFunctions(t *testing.T) {
	runCases(t, []extCase{
		{`capitalize("hELLO world")`, types.String("Hello world")},
		{`titleCase(title)`, types.String("Hello World")},
		{`camelCase("hello_world")`, types.String("helloWorld")},
		{`snakeCase("helloWorld")`, types.String("hello_world")},
		{`kebabCase("hello World")`, types.String("hello-world")},
		{`padLeft("7", 3, "0")`, types.String("007")},
		{`padRight("ab", 4)`, types.String("ab  ")},
		{`padLeft("long", 2)`, types.String("long")},
		{`repeat("ab", 3)`, types.String("ababab")},
		{`truncate("abcdefgh", 5)`, types.String("abcd…")},
		{`truncate("abcdefgh", 5, "...")`, types.String("ab...")},
		{`truncate("abc", 5)`, types.String("abc")},
		{`words("  a b   c ")`, types.Array(types.String("a"), types.String("b"), types.String("c"))},
		{`template("Hi {{name}}, {{missing}}", profile)`, types.String("Hi Ada, {{missing}}")},
		{`regexReplace("a1b22", "[0-9]+", "#")`, types.String("a#b#")},
		{`regexReplace("John Smith", "(\\w+) (\\w+)", "$2 $1")`, types.String("Smith John")},
		{`base64Encode("hi there")`, types.String("aGkgdGhlcmU=")},
		{`base64Decode("aGkgdGhlcmU=")`, types.String("hi there")},
		{`encodeUriComponent("a b&c")`, types.String("a%20b%26c")},
		{`decodeUriComponent("a%20b%26c")`, types.String("a b&c")},
	}, ext.WithAll())
}

func TestWithAll_NumericFunctions(t *testing.T) {
	runCases(t, []extCase{
		{`sign(-5)`, types.Int(-1)},
		{`sign(0)`, types.Int(0)},
		{`trunc(-3.7)`, types.Int(-3)},
		{`clamp(150, 0, 100)`, types.Int(100)},
		{`clamp(-5, 0, 100)`, types.Int(0)},
		{`log(100, 10)`, types.Int(2)},
		{`pow(2, 10)`, types.Int(1024)},
		{`sqrt(16)`, types.Int(4)},
		{`sum(nums)`, types.Int(15)},
		{`average(nums)`, types.Int(3)},
		{`median(dupes)`, types.Int(2)},
		{`median(createArray(1, 2, 3, 4))`, types.Number(2.5)},
		{`variance(createArray(2, 4, 4, 4, 5, 5, 7, 9))`, types.Int(4)},
		{`stddev(createArray(2, 4, 4, 4, 5, 5, 7, 9))`, types.Int(2)},
		{`percentile(nums, 50)`, types.Int(3)},
		{`percentile(nums, 25)`, types.Int(2)},
		{`mode(dupes)`, types.Array(types.Int(3), types.Int(1))},
		{`mode(createArray(1, 2, 2))`, types.Int(2)},
		{`average(createArray())`, types.Null()},
		{`sum(createArray())`, types.Int(0)},
	}, ext.WithAll())
}

func TestWithAll_ArrayFunctions(t *testing.T) {
	ints := func(ns ...int) types.Value {
		out := make([]types.Value, len(ns))
		for i, n := range ns {
			out[i] = types.Int(n)
		}
		return types.Array(out...)
	}
	runCases(t, []extCase{
		{`take(nums, 2)`, ints(1, 2)},
		{`take(nums, 99)`, ints(1, 2, 3, 4, 5)},
		{`skip(nums, 3)`, ints(4, 5)},
		{`slice(nums, 1, 3)`, ints(2, 3)},
		{`slice(nums, -2)`, ints(4, 5)},
		{`slice(nums, 3, 1)`, ints()},
		{`chunk(nums, 2)`, types.Array(ints(1, 2), ints(3, 4), ints(5))},
		{`window(nums, 3, 2)`, types.Array(ints(1, 2, 3), ints(3, 4, 5))},
		{`distinct(dupes)`, ints(3, 1, 2)},
		{`difference(nums, other)`, ints(1, 2, 3)},
		{`symmetricDifference(nums, other)`, ints(1, 2, 3, 6)},
		{`range(1, 4)`, ints(1, 2, 3, 4)},
		{`range(10, 0, -5)`, ints(10, 5, 0)},
		{`zip(take(nums, 2), other)`, types.Array(ints(1, 4), ints(2, 5), types.Array(types.Null(), types.Int(6)))},
		{`pluck(people, 'name')`, types.Array(types.String("Ada"), types.String("Bob"), types.String("Cy"))},
		{`join(pluck(sortBy(people, 'age'), 'name'), ',')`, types.String("Bob,Ada,Cy")},
		{`join(pluck(sortBy(people, 'age', true), 'name'), ',')`, types.String("Cy,Ada,Bob")},
		{`sumBy(people, 'hours')`, types.Int(15)},
		{`countBy(people, 'team')`, types.MustParseJSON(`{"core": 2, "web": 1}`)},
		{`count(groupBy(people, 'team').core)`, types.Int(2)},
	}, ext.WithAll())
}

func TestWithAll_ObjectFunctions(t *testing.T) {
	runCases(t, []extCase{
		{`keys(profile)`, types.MustParseJSON(`["name", "role", "meta"]`)},
		{`values(renames)`, types.MustParseJSON(`["fullName"]`)},
		{`pairs(renames)`, types.MustParseJSON(`[["name", "fullName"]]`)},
		{`fromPairs(pairs)`, types.MustParseJSON(`{"x": 1, "y": 2}`)},
		{`pick(profile, 'role')`, types.MustParseJSON(`{"role": "admin"}`)},
		{`omit(profile, createArray('meta', 'role'))`, types.MustParseJSON(`{"name": "Ada"}`)},
		{`merge(profile, patch)`, types.MustParseJSON(`{"name": "Ada", "role": "owner", "meta": {"a": 1, "b": 3}}`)},
		{`merge(profile, patch).meta.b * 10 + profile.meta.b`, types.Int(32)},
		{`merge(profile, nothing).role`, types.String("admin")},
		{`invert(renames)`, types.MustParseJSON(`{"fullName": "name"}`)},
		{`size(profile)`, types.Int(3)},
		{`keys(rename(profile, renames))`, types.MustParseJSON(`["fullName", "role", "meta"]`)},
		{`get(profile, 'meta.b')`, types.Int(2)},
		{`get(people, '#.name')`, types.MustParseJSON(`["Ada", "Bob", "Cy"]`)},
		{`get(profile, 'meta.zzz', 'none')`, types.String("none")},
		{`get(profile, 'meta.zzz')`, types.Null()},
	}, ext.WithAll())
}

func TestWithAll_TypePredicates(t *testing.T) {
	runCases(t, []extCase{
		{`isString(title)`, types.Bool(true)},
		{`isNumber(nums[0])`, types.Bool(true)},
		{`isBoolean(true)`, types.Bool(true)},
		{`isArray(nums)`, types.Bool(true)},
		{`isObject(profile)`, types.Bool(true)},
		{`isNull(nothing)`, types.Bool(true)},
		{`isNull(missing)`, types.Bool(true)},
		{`isUndefined(missing)`, types.Bool(true)},
		{`isUndefined(nothing)`, types.Bool(false)},
		{`isEmpty(take(nums, 0))`, types.Bool(true)},
		{`isEmpty(title)`, types.Bool(false)},
		{`typeOf(profile)`, types.String("object")},
		{`typeOf(missing.deeper)`, types.String("undefined")},
		{`default(profile.nickname, 'n/a')`, types.String("n/a")},
		{`default(profile.name, 'n/a')`, types.String("Ada")},
		{`coalesce(missing, nothing, title)`, types.String("hello world")},
		{`coalesce(missing)`, types.Null()},
		{`identity(3)`, types.Int(3)},
	}, ext.WithAll())
}

func TestWithAll_Format(t *testing.T) {
	runCases(t, []extCase{
		{`csv(csv)`, types.MustParseJSON(`[{"name": "Apples", "qty": "3"}, {"name": "Pears", "qty": "5"}]`)},
		{`toCsv(csv(csv))`, types.String("name,qty\nApples,3\nPears,5\n")},
		{`toCsv(people, createArray('name', 'hours'))`, types.String("name,hours\nAda,10\nBob,5\nCy,\n")},
		{`formatPercent(0.25)`, types.String("25%")},
		{`formatBytes(82854982)`, types.String("83 MB")},
		{`formatBytes(82854982, true)`, types.String("79 MiB")},
		{`ordinal(1)`, types.String("1st")},
		{`ordinal(22)`, types.String("22nd")},
		{`ordinal(13)`, types.String("13th")},
	}, ext.WithAll())

	got := eval(t, `formatCurrency(1234.5, 'USD')`, ext.WithAll())
	s, _ := got.AsString()
	if !strings.Contains(s, "1,234.50") || !strings.Contains(s, "$") {
		t.Errorf("formatCurrency: got %q", s)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	opt := evaluator.WithFunctions(extformat.RelativeTime(func() time.Time { return now }))

	runCases(t, []extCase{
		{`relativeTime('2024-05-03T12:00:00Z')`, types.String("3 days ago")},
		{`relativeTime('2024-05-06T14:00:00Z')`, types.String("2 hours from now")},
	}, opt)

	_, err := evalErr(`relativeTime('yesterday')`, opt)
	var te *types.Error
	if !errors.As(err, &te) || te.Code != types.ErrCannotConvertDate {
		t.Errorf("expected %s, got %v", types.ErrCannotConvertDate, err)
	}
}

func TestWithAll_Crypto(t *testing.T) {
	uuidRe := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	got, _ := eval(t, `uuid()`, ext.WithAll()).AsString()
	if !uuidRe.MatchString(got) {
		t.Errorf("uuid() = %q, not a v4 UUID", got)
	}

	a := eval(t, `uuid('card-1')`, ext.WithAll())
	b := eval(t, `uuid('card-1')`, ext.WithAll())
	if !a.Equal(b) {
		t.Errorf("named uuid must be deterministic: %v vs %v", a, b)
	}

	runCases(t, []extCase{
		{`hash("abc", "sha256")`, types.String("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")},
		{`hash("abc")`, types.String("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")},
		{`hash("abc", "md5")`, types.String("900150983cd24fb0d6963f7d28e17f72")},
	}, ext.WithCrypto())
}

func TestExtensionErrors(t *testing.T) {
	tests := []struct {
		expr string
		code types.ErrorCode
	}{
		{`repeat("a", -1)`, types.ErrInvalidArgument},
		{`log(-1)`, types.ErrInvalidArgument},
		{`sum(title)`, types.ErrInvalidTypeOperation},
		{`sum(csv(csv))`, types.ErrCannotConvertNumber},
		{`keys(nums)`, types.ErrInvalidTypeOperation},
		{`chunk(nums, 0)`, types.ErrInvalidArgument},
		{`range(1, 2, 0)`, types.ErrInvalidArgument},
		{`hash("a", "crc32")`, types.ErrInvalidArgument},
		{`regexReplace("a", "(", "")`, types.ErrInvalidRegex},
		{`formatCurrency(1, 'NOPE')`, types.ErrInvalidArgument},
		{`titleCase("a", "!!")`, types.ErrInvalidArgument},
		{`base64Decode("%%%")`, types.ErrInvalidArgument},
		{`fromPairs(nums)`, types.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalErr(tt.expr, ext.WithAll())
			var te *types.Error
			if !errors.As(err, &te) {
				t.Fatalf("expected *types.Error, got %T %v (result %#v)", err, err, got)
			}
			if te.Code != tt.code {
				t.Errorf("expected %s, got %s (%v)", tt.code, te.Code, te)
			}
			if !got.IsNull() {
				t.Errorf("failed evaluation must yield null, got %#v", got)
			}
		})
	}
}

func TestCategoryOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  evaluator.EvalOption
		expr string
	}{
		{"string", ext.WithString(), `capitalize("x")`},
		{"numeric", ext.WithNumeric(), `sqrt(4)`},
		{"array", ext.WithArray(), `take(nums, 1)`},
		{"object", ext.WithObject(), `keys(profile)`},
		{"types", ext.WithTypes(), `typeOf(1)`},
		{"format", ext.WithFormat(), `ordinal(2)`},
		{"crypto", ext.WithCrypto(), `hash("x")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := evalErr(tt.expr, tt.opt); err != nil {
				t.Errorf("%s: %v", tt.expr, err)
			}
		})
	}

	// Without the option the function is unknown.
	_, err := evalErr(`capitalize("x")`)
	var te *types.Error
	if !errors.As(err, &te) || te.Code != types.ErrUndefinedFunction {
		t.Errorf("expected %s without extensions, got %v", types.ErrUndefinedFunction, err)
	}
}

func TestByCategory(t *testing.T) {
	defs, unknown := ext.ByCategory("string", "bogus", "crypto")
	if diff := cmp.Diff([]string{"bogus"}, unknown); diff != "" {
		t.Errorf("unknown mismatch (-want +got):\n%s", diff)
	}
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{"capitalize", "uuid", "hmac"} {
		if !names[want] {
			t.Errorf("expected %q in selection", want)
		}
	}
	if names["sum"] {
		t.Error("numeric functions must not be selected")
	}

	all, _ := ext.ByCategory("all")
	if len(all) != len(ext.All()) {
		t.Errorf("all: got %d defs, want %d", len(all), len(ext.All()))
	}
}

func TestAllNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range ext.All() {
		if seen[d.Name] {
			t.Errorf("duplicate extension name %q", d.Name)
		}
		seen[d.Name] = true
	}
}

func TestSingleFunctionRegistration(t *testing.T) {
	got := eval(t, `capitalize(title)`, evaluator.WithFunctions(extstring.Capitalize()))
	if diff := cmp.Diff(types.String("Hello world"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMixExtAndCustomFunctions(t *testing.T) {
	custom := evaluator.WithCustomFunction("shout", func(_ context.Context, args ...types.Value) (types.Value, error) {
		return types.String(strings.ToUpper(types.FormatText(args[0])) + "!"), nil
	})
	got := eval(t, `shout(capitalize(title))`, ext.WithString(), custom)
	if diff := cmp.Diff(types.String("HELLO WORLD!"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
