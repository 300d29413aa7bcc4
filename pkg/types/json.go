package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ParseJSON decodes a JSON document into a Value, preserving object key
// order. Duplicate keys keep their first position and last value.
func ParseJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, NewError(ErrInvalidJSON, "invalid JSON document", -1)
	}
	return fromGJSON(gjson.ParseBytes(data)), nil
}

// MustParseJSON is like ParseJSON but panics on invalid input. It simplifies
// building fixtures and package-level templates.
func MustParseJSON(data string) Value {
	v, err := ParseJSON([]byte(data))
	if err != nil {
		panic(fmt.Sprintf("types: MustParseJSON(%q): %v", data, err))
	}
	return v
}

func fromGJSON(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(r.Num)
	case gjson.String:
		return String(r.Str)
	}
	if r.IsArray() {
		items := make([]Value, 0)
		r.ForEach(func(_, item gjson.Result) bool {
			items = append(items, fromGJSON(item))
			return true
		})
		return Array(items...)
	}
	obj := NewObject()
	r.ForEach(func(key, item gjson.Result) bool {
		obj.Set(key.Str, fromGJSON(item))
		return true
	})
	return ObjectValue(obj)
}

// UnmarshalJSON implements json.Unmarshaler with key order preserved.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Object members are written in
// insertion order, undefined is written as null and non-finite numbers as
// null.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.appendJSON(&buf)
	return buf.Bytes(), nil
}

// String returns the compact JSON text of v.
func (v Value) String() string {
	b, _ := v.MarshalJSON()
	return string(b)
}

func (v Value) appendJSON(buf *bytes.Buffer) {
	switch v.kind {
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			buf.WriteString("null")
			return
		}
		buf.WriteString(FormatNumber(v.n))
	case KindString:
		appendQuoted(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.appendJSON(buf)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.obj.Members() {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendQuoted(buf, m.Key)
			buf.WriteByte(':')
			m.Value.appendJSON(buf)
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
}

const hexDigits = "0123456789abcdef"

// appendQuoted writes s as a JSON string literal. Unlike encoding/json it
// does not HTML-escape <, > and &, which card text uses freely.
func appendQuoted(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				buf.WriteByte('\\')
				buf.WriteByte(c)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hexDigits[c>>4])
					buf.WriteByte(hexDigits[c&0xf])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			buf.WriteString(`\ufffd`)
		case r == '\u2028' || r == '\u2029':
			buf.WriteString(`\u202`)
			buf.WriteByte(hexDigits[r&0xf])
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// FromGo converts plain Go data into a Value. Maps are converted with keys
// in sorted order since Go maps carry no order; use ParseJSON or build an
// Object directly when order matters. Values of other types (structs,
// typed slices) are converted through encoding/json.
func FromGo(x interface{}) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Object:
		return ObjectValue(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, NewError(ErrInvalidJSON, "invalid number "+v.String(), -1).WithCause(err)
		}
		return Number(f), nil
	case []interface{}:
		items := make([]Value, len(v))
		for i, item := range v {
			conv, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = conv
		}
		return Array(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			conv, err := FromGo(v[k])
			if err != nil {
				return Value{}, err
			}
			obj.Set(k, conv)
		}
		return ObjectValue(obj), nil
	}

	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return Null(), nil
	}
	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, NewError(ErrInvalidJSON, fmt.Sprintf("cannot convert %T", x), -1).WithCause(err)
	}
	return ParseJSON(data)
}

// MustFromGo is like FromGo but panics on error.
func MustFromGo(x interface{}) Value {
	v, err := FromGo(x)
	if err != nil {
		panic(fmt.Sprintf("types: MustFromGo(%T): %v", x, err))
	}
	return v
}
