package evaluator

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sandrolain/actemplate/pkg/types"
)

// ParseLocale parses a BCP 47 locale, accepting "_" as a separator
// ("de_DE").
func ParseLocale(locale string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

// localeArg returns the locale passed at args[i], or the evaluator default.
func (e *Evaluator) localeArg(fn string, args []types.Value, i int) (language.Tag, error) {
	if i >= len(args) || args[i].IsNull() {
		return e.locale, nil
	}
	s := textArg(args[i])
	tag, err := ParseLocale(s)
	if err != nil {
		return language.Und, invalidArgument(fn, "invalid locale %q", s)
	}
	return tag, nil
}

// fnFormatNumber formats a number with locale grouping and separators.
// The optional decimals argument fixes the number of fraction digits.
func fnFormatNumber(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	n, err := numberArg("formatNumber", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	tag, err := e.localeArg("formatNumber", args, 2)
	if err != nil {
		return types.Undefined(), err
	}

	var opts []number.Option
	if len(args) > 1 && !args[1].IsNull() {
		decimals, err := intArg("formatNumber", args[1])
		if err != nil {
			return types.Undefined(), err
		}
		if decimals < 0 || decimals > 15 {
			return types.Undefined(), invalidArgument("formatNumber", "decimals must be between 0 and 15, got %d", decimals)
		}
		opts = append(opts, number.MinFractionDigits(decimals), number.MaxFractionDigits(decimals))
	}

	p := message.NewPrinter(tag)
	return types.String(p.Sprintf("%v", number.Decimal(n, opts...))), nil
}
