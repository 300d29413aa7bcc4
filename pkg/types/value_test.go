package types_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/actemplate/pkg/types"
)

func TestParseJSONKeepsOrder(t *testing.T) {
	v, err := types.ParseJSON([]byte(`{"z": 1, "a": [true, null, "x"], "m": {"b": 2, "a": 1}, "z": 3}`))
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := v.AsObject()
	if !ok {
		t.Fatalf("kind = %s, want object", v.Kind())
	}
	if diff := cmp.Diff([]string{"z", "a", "m"}, obj.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"z":3,"a":[true,null,"x"],"m":{"b":2,"a":1}}`, v.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := types.ParseJSON([]byte(`{"a": `))
	var te *types.Error
	if !errors.As(err, &te) || te.Code != types.ErrInvalidJSON {
		t.Fatalf("err = %v, want %s", err, types.ErrInvalidJSON)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
		{3.5, "3.5"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := types.FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		in   types.Value
		want string
	}{
		{"undefined", types.Undefined(), ""},
		{"null", types.Null(), ""},
		{"true", types.Bool(true), "true"},
		{"number", types.Number(2.50), "2.5"},
		{"string", types.String(`a "b"`), `a "b"`},
		{"array", types.Array(types.Int(1), types.String("x")), `[1,"x"]`},
		{"object", types.MustParseJSON(`{"k": null}`), `{"k":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := types.FormatText(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	falsy := []types.Value{
		types.Undefined(), types.Null(), types.Bool(false),
		types.Int(0), types.Number(math.NaN()), types.String(""),
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%#v must be falsy", v)
		}
	}
	truthy := []types.Value{
		types.Bool(true), types.Int(-1), types.String("false"),
		types.Array(), types.ObjectValue(types.NewObject()),
	}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%#v must be truthy", v)
		}
	}
}

func TestEqual(t *testing.T) {
	a := types.MustParseJSON(`{"x": 1, "y": [1, 2]}`)
	b := types.MustParseJSON(`{"y": [1, 2], "x": 1.0}`)
	if !a.Equal(b) {
		t.Error("objects must compare regardless of key order")
	}
	if !types.Null().Equal(types.Undefined()) {
		t.Error("null and undefined must be equal")
	}
	if types.Int(1).Equal(types.String("1")) {
		t.Error("Equal must not coerce")
	}
	if !types.LooseEqual(types.Int(1), types.String("1")) {
		t.Error("LooseEqual must coerce numeric strings")
	}
	if types.LooseEqual(types.Null(), types.Bool(false)) {
		t.Error("null must only loosely equal null")
	}

	for _, s := range []string{"NaN", "Inf", "+Inf", "infinity", "0x1p4", "1e999", "1.", ".5"} {
		v := types.String(s)
		if !types.LooseEqual(v, v) {
			t.Errorf("%q must loosely equal itself", s)
		}
	}
	if types.LooseEqual(types.String("inf"), types.String("Infinity")) {
		t.Error("non-decimal strings must compare as text")
	}
	if types.LooseEqual(types.String("0x10"), types.Int(16)) {
		t.Error("hex strings are not numeric")
	}
	if !types.LooseEqual(types.String(" -2.5e1 "), types.Int(-25)) {
		t.Error("decimal strings with exponent must be numeric")
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"-0.5", -0.5, true},
		{"+3", 3, true},
		{"1E3", 1000, true},
		{" 7 ", 7, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"-Inf", 0, false},
		{"infinity", 0, false},
		{"0x1p4", 0, false},
		{"1_000", 0, false},
		{"1e", 0, false},
		{"1e999", 0, false},
	}
	for _, tt := range tests {
		got, ok := types.ToNumber(types.String(tt.in))
		if ok != tt.ok || got != tt.want {
			t.Errorf("ToNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b types.Value
		want int
	}{
		{types.Int(2), types.Int(10), -1},
		{types.String("10"), types.Int(2), 1},
		{types.String("b"), types.String("a"), 1},
		{types.Int(3), types.Number(3), 0},
		{types.String("NaN"), types.Int(5), 1},
		{types.Int(5), types.String("NaN"), -1},
		{types.String("NaN"), types.String("NaN"), 0},
	}
	for _, tt := range tests {
		if got := types.Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%#v, %#v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromGo(t *testing.T) {
	type item struct {
		Name string `json:"name"`
		Qty  int    `json:"qty"`
	}
	v, err := types.FromGo(map[string]interface{}{
		"b":     []interface{}{1, "two", nil},
		"a":     true,
		"items": []item{{"pen", 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":true,"b":[1,"two",null],"items":[{"name":"pen","qty":2}]}`
	if diff := cmp.Diff(want, v.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := types.FromGo(make(chan int)); err == nil {
		t.Error("channel: want error")
	}
}

func TestObjectSet(t *testing.T) {
	obj := types.NewObject(
		types.Member{Key: "a", Value: types.Int(1)},
		types.Member{Key: "b", Value: types.Int(2)},
		types.Member{Key: "a", Value: types.Int(3)},
	)
	obj.Set("c", types.Int(4))
	if diff := cmp.Diff(`{"a":3,"b":2,"c":4}`, types.ObjectValue(obj).String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if !obj.Has("b") || obj.Has("z") {
		t.Error("Has")
	}
	var nilObj *types.Object
	if nilObj.Len() != 0 || nilObj.Keys() != nil {
		t.Error("nil object must be empty")
	}
}

func TestMarshalEscapes(t *testing.T) {
	got := types.String("a\"b\\c\n\u0001<&>\u2028é").String()
	want := `"a\"b\\c\n\u0001<&>\u2028é"`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDiagnostics(t *testing.T) {
	var ds types.Diagnostics
	if ds.Err() != nil {
		t.Fatal("empty diagnostics must have a nil error")
	}
	cause := types.NewError(types.ErrUnresolvedReference, "unresolved reference", 2).WithToken("name")
	ds.Add(types.NewDiagnostic(types.DiagnosticEvaluation, "/body/0/text", "${name}", cause))
	ds.Add(types.NewDiagnostic(types.DiagnosticParse, "", "${", errors.New("boom")))

	if ds.Count(types.DiagnosticEvaluation) != 1 || ds.Count(types.DiagnosticStructural) != 0 {
		t.Errorf("Count: %+v", ds)
	}
	if ds[0].Code != types.ErrUnresolvedReference || ds[0].Message != "unresolved reference" {
		t.Errorf("code/message not taken from *Error: %+v", ds[0])
	}
	if ds[1].Code != "" || ds[1].Message != "boom" {
		t.Errorf("plain error: %+v", ds[1])
	}

	err := ds.Err()
	var te *types.Error
	if !errors.As(err, &te) || te.Token != "name" {
		t.Errorf("joined error must unwrap to the cause, got %v", err)
	}
	if !strings.Contains(err.Error(), `evaluation U1001 in "${name}" at /body/0/text`) {
		t.Errorf("message %q", err.Error())
	}
	if !strings.Contains(err.Error(), "parse  in \"${\" at /: boom") {
		t.Errorf("message %q", err.Error())
	}
}
