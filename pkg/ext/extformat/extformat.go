// Package extformat provides data-format and human-readable formatting
// functions for card templates: CSV, currency, percentages, byte sizes,
// ordinals and relative times.
package extformat

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sandrolain/actemplate/pkg/ext/extutil"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// All returns all extended format function definitions. relativeTime
// measures against the wall clock.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		ParseCSV(),
		ToCSV(),
		FormatCurrency(),
		FormatPercent(),
		FormatBytes(),
		Ordinal(),
		RelativeTime(time.Now),
	}
}

// ParseCSV returns the definition for csv(str [, options]).
// Parses a CSV string into an array of objects using the first row as headers.
//
// options object (all optional):
//   - "separator": field delimiter character (default ",")
//   - "comment":   comment character (default none)
func ParseCSV() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "csv",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			separator := ','
			var comment rune

			if opt := extutil.Arg(args, 1); !opt.IsNull() {
				opts, err := extutil.Object("csv", opt)
				if err != nil {
					return types.Undefined(), err
				}
				if sep, ok := opts.Get("separator"); ok && extutil.Text(sep) != "" {
					separator = []rune(extutil.Text(sep))[0]
				}
				if c, ok := opts.Get("comment"); ok && extutil.Text(c) != "" {
					comment = []rune(extutil.Text(c))[0]
				}
			}

			r := csv.NewReader(strings.NewReader(extutil.Text(args[0])))
			r.Comma = separator
			if comment != 0 {
				r.Comment = comment
			}
			r.TrimLeadingSpace = true
			r.FieldsPerRecord = -1

			records, err := r.ReadAll()
			if err != nil {
				return types.Undefined(), extutil.Errorf("csv", "parse error: %v", err)
			}
			if len(records) < 2 {
				return types.Array(), nil
			}

			headers := records[0]
			result := make([]types.Value, 0, len(records)-1)
			for _, row := range records[1:] {
				members := make([]types.Member, len(headers))
				for i, h := range headers {
					cell := ""
					if i < len(row) {
						cell = row[i]
					}
					members[i] = types.Member{Key: h, Value: types.String(cell)}
				}
				result = append(result, types.ObjectValue(types.NewObject(members...)))
			}
			return types.Array(result...), nil
		},
	}
}

// ToCSV returns the definition for toCsv(array [, columns]).
// Converts an array of objects to a CSV string with a header row.
//
// columns is an optional array of column names. When omitted, keys of the first
// object are used in document order.
func ToCSV() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "toCsv",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			arr, err := extutil.Array("toCsv", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			if len(arr) == 0 {
				return types.String(""), nil
			}

			var columns []string
			if cols := extutil.Arg(args, 1); !cols.IsNull() {
				colsRaw, err := extutil.Array("toCsv", cols)
				if err != nil {
					return types.Undefined(), err
				}
				for _, c := range colsRaw {
					columns = append(columns, extutil.Text(c))
				}
			}
			if len(columns) == 0 {
				if first, ok := arr[0].AsObject(); ok {
					columns = first.Keys()
				}
			}
			if len(columns) == 0 {
				return types.Undefined(), extutil.Errorf("toCsv", "cannot determine columns")
			}

			var buf bytes.Buffer
			w := csv.NewWriter(&buf)
			if err := w.Write(columns); err != nil {
				return types.Undefined(), extutil.Errorf("toCsv", "%v", err)
			}
			for _, item := range arr {
				obj, err := extutil.Object("toCsv", item)
				if err != nil {
					return types.Undefined(), err
				}
				row := make([]string, len(columns))
				for i, col := range columns {
					if v, ok := obj.Get(col); ok {
						row[i] = types.FormatText(v)
					}
				}
				if err := w.Write(row); err != nil {
					return types.Undefined(), extutil.Errorf("toCsv", "%v", err)
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return types.Undefined(), extutil.Errorf("toCsv", "%v", err)
			}
			return types.String(buf.String()), nil
		},
	}
}

// FormatCurrency returns the definition for formatCurrency(amount, code [, locale]).
// code is an ISO 4217 currency code; the locale defaults to en-US.
func FormatCurrency() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "formatCurrency",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			value, err := extutil.Number("formatCurrency", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			code := extutil.Text(args[1])
			cur, err := currency.ParseISO(code)
			if err != nil {
				return types.Undefined(), extutil.Errorf("formatCurrency", "invalid currency code %q", code)
			}
			tag, err := extutil.Locale("formatCurrency", extutil.Arg(args, 2), language.AmericanEnglish)
			if err != nil {
				return types.Undefined(), err
			}
			p := message.NewPrinter(tag)
			return types.String(p.Sprintf("%v", currency.Symbol(cur.Amount(value)))), nil
		},
	}
}

// FormatPercent returns the definition for formatPercent(ratio [, decimals [, locale]]).
// A ratio of 0.25 renders as "25%".
func FormatPercent() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "formatPercent",
		MinArgs: 1,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			value, err := extutil.Number("formatPercent", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			var opts []number.Option
			if d := extutil.Arg(args, 1); !d.IsNull() {
				decimals, err := extutil.Int("formatPercent", d)
				if err != nil {
					return types.Undefined(), err
				}
				if decimals < 0 || decimals > 15 {
					return types.Undefined(), extutil.Errorf("formatPercent", "decimals must be between 0 and 15")
				}
				opts = append(opts, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals))
			}
			tag, err := extutil.Locale("formatPercent", extutil.Arg(args, 2), language.AmericanEnglish)
			if err != nil {
				return types.Undefined(), err
			}
			p := message.NewPrinter(tag)
			return types.String(p.Sprintf("%v", number.Percent(value, opts...))), nil
		},
	}
}

// FormatBytes returns the definition for formatBytes(n [, binary]).
// Decimal units by default ("82 MB"); binary units when the second argument
// is true ("78 MiB").
func FormatBytes() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "formatBytes",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			n, err := extutil.Number("formatBytes", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			if n < 0 || math.IsInf(n, 0) || math.IsNaN(n) {
				return types.Undefined(), extutil.Errorf("formatBytes", "size must be a non-negative number")
			}
			if extutil.Arg(args, 1).Truthy() {
				return types.String(humanize.IBytes(uint64(n))), nil
			}
			return types.String(humanize.Bytes(uint64(n))), nil
		},
	}
}

// Ordinal returns the definition for ordinal(n): 1 becomes "1st", 22 "22nd".
func Ordinal() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "ordinal",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			n, err := extutil.Int("ordinal", args[0])
			if err != nil {
				return types.Undefined(), err
			}
			return types.String(humanize.Ordinal(n)), nil
		},
	}
}

// relativeLayouts are the timestamp forms accepted by relativeTime.
var relativeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RelativeTime returns the definition for relativeTime(timestamp), which
// describes the timestamp relative to now(): "3 days ago", "2 hours from now".
func RelativeTime(now func() time.Time) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "relativeTime",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			s := extutil.Text(args[0])
			for _, layout := range relativeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return types.String(humanize.RelTime(t, now(), "ago", "from now")), nil
				}
			}
			return types.Undefined(), types.NewError(types.ErrCannotConvertDate,
				fmt.Sprintf("relativeTime: cannot parse %q as a timestamp", s), -1).WithToken("relativeTime")
		},
	}
}
