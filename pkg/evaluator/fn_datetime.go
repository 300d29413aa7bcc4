package evaluator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"

	"github.com/sandrolain/actemplate/pkg/types"
)

// DefaultDatePattern is the formatDateTime pattern used when none is given.
const DefaultDatePattern = "yyyy-MM-dd"

// dateLayouts are tried in order when a string is converted to a date.
// Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"01/02/2006",
}

// parseDate converts a date argument: an ISO 8601 string, one of the
// dateLayouts, or a number of milliseconds since the Unix epoch.
func parseDate(fn string, v types.Value) (time.Time, error) {
	switch v.Kind() {
	case types.KindNumber:
		n, _ := v.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			break
		}
		return time.UnixMilli(int64(n)).UTC(), nil
	case types.KindString:
		s, _ := v.AsString()
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, types.NewError(types.ErrCannotConvertDate,
		fmt.Sprintf("%s: cannot convert %q to a date", fn, types.FormatText(v)), -1)
}

// isoInstant renders t the way the date arithmetic functions return it.
func isoInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// fnFormatDateTime formats a date with a yyyy-MM-dd style pattern. Month
// and weekday names follow the locale argument or the evaluator default.
func fnFormatDateTime(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	t, err := parseDate("formatDateTime", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	pattern := optionalText(args, 1, DefaultDatePattern)
	tag, err := e.localeArg("formatDateTime", args, 2)
	if err != nil {
		return types.Undefined(), err
	}
	return types.String(formatDatePattern(t, pattern, mondayLocale(tag))), nil
}

func fnAddDays(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	t, err := parseDate("addDays", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	days, err := intArg("addDays", args[1])
	if err != nil {
		return types.Undefined(), err
	}
	return types.String(isoInstant(t.AddDate(0, 0, days))), nil
}

func fnAddHours(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	t, err := parseDate("addHours", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	hours, err := intArg("addHours", args[1])
	if err != nil {
		return types.Undefined(), err
	}
	return types.String(isoInstant(t.Add(time.Duration(hours) * time.Hour))), nil
}

func fnGetYear(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	t, err := parseDate("getYear", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Int(t.Year()), nil
}

// fnGetMonth returns the month number, 1 for January.
func fnGetMonth(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	t, err := parseDate("getMonth", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Int(int(t.Month())), nil
}

func fnGetDay(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	t, err := parseDate("getDay", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Int(t.Day()), nil
}

// fnDateDiff returns the number of whole days from the first date to the
// second, truncated toward zero.
func fnDateDiff(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	from, err := parseDate("dateDiff", args[0])
	if err != nil {
		return types.Undefined(), err
	}
	to, err := parseDate("dateDiff", args[1])
	if err != nil {
		return types.Undefined(), err
	}
	return types.Int(int(to.Sub(from) / (24 * time.Hour))), nil
}

func fnUtcNow(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error) {
	return types.String(isoInstant(e.Now())), nil
}

// formatDatePattern renders t with a pattern of letter runs (yyyy, MM,
// dd, HH, mm, ss, SSS, EEEE, a, Z...) and quoted literals. Each run is
// rendered separately so literal text never collides with Go's reference
// layout.
func formatDatePattern(t time.Time, pattern string, locale monday.Locale) string {
	buf := acquireBuf()
	defer releaseBuf(buf)

	for i := 0; i < len(pattern); {
		c := pattern[i]

		if c == '\'' {
			// '' is a literal quote; 'text' is literal text.
			if i+1 < len(pattern) && pattern[i+1] == '\'' {
				buf.WriteByte('\'')
				i += 2
				continue
			}
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				buf.WriteString(pattern[i+1:])
				break
			}
			buf.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}

		if !isPatternLetter(c) {
			buf.WriteByte(c)
			i++
			continue
		}

		n := 1
		for i+n < len(pattern) && pattern[i+n] == c {
			n++
		}
		buf.WriteString(formatDateField(t, c, n, locale))
		i += n
	}
	return buf.String()
}

func isPatternLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// formatDateField renders one run of n pattern letters c.
func formatDateField(t time.Time, c byte, n int, locale monday.Locale) string {
	switch c {
	case 'y':
		if n == 2 {
			return t.Format("06")
		}
		return t.Format("2006")
	case 'M':
		switch n {
		case 1:
			return strconv.Itoa(int(t.Month()))
		case 2:
			return t.Format("01")
		case 3:
			return monday.Format(t, "Jan", locale)
		default:
			return monday.Format(t, "January", locale)
		}
	case 'd':
		if n == 1 {
			return strconv.Itoa(t.Day())
		}
		return t.Format("02")
	case 'E':
		if n <= 3 {
			return monday.Format(t, "Mon", locale)
		}
		return monday.Format(t, "Monday", locale)
	case 'H':
		if n == 1 {
			return strconv.Itoa(t.Hour())
		}
		return t.Format("15")
	case 'h':
		if n == 1 {
			return t.Format("3")
		}
		return t.Format("03")
	case 'm':
		if n == 1 {
			return strconv.Itoa(t.Minute())
		}
		return t.Format("04")
	case 's':
		if n == 1 {
			return strconv.Itoa(t.Second())
		}
		return t.Format("05")
	case 'S':
		frac := fmt.Sprintf("%09d", t.Nanosecond())
		if n > len(frac) {
			return frac + strings.Repeat("0", n-len(frac))
		}
		return frac[:n]
	case 'a':
		return monday.Format(t, "PM", locale)
	case 'z':
		return t.Format("MST")
	case 'Z':
		return t.Format("-0700")
	case 'X':
		switch n {
		case 1:
			return t.Format("Z07")
		case 2:
			return t.Format("Z0700")
		default:
			return t.Format("Z07:00")
		}
	default:
		return strings.Repeat(string(c), n)
	}
}

// mondayLocales maps lowercase language and language_region keys to the
// locales known to monday.
var mondayLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_us": monday.LocaleEnUS,
	"en_gb": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"de_de": monday.LocaleDeDE,
	"de_at": monday.LocaleDeDE,
	"de_ch": monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_fr": monday.LocaleFrFR,
	"fr_ca": monday.LocaleFrCA,
	"fr_be": monday.LocaleFrFR,
	"es":    monday.LocaleEsES,
	"es_es": monday.LocaleEsES,
	"es_mx": monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"it_it": monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_pt": monday.LocalePtPT,
	"pt_br": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"nl_nl": monday.LocaleNlNL,
	"nl_be": monday.LocaleNlBE,
	"ru":    monday.LocaleRuRU,
	"pl":    monday.LocalePlPL,
	"cs":    monday.LocaleCsCZ,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"sv":    monday.LocaleSvSE,
	"nb":    monday.LocaleNbNO,
	"nn":    monday.LocaleNnNO,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_cn": monday.LocaleZhCN,
	"zh_tw": monday.LocaleZhTW,
	"ko":    monday.LocaleKoKR,
	"tr":    monday.LocaleTrTR,
	"uk":    monday.LocaleUkUA,
	"el":    monday.LocaleElGR,
	"ro":    monday.LocaleRoRO,
	"hu":    monday.LocaleHuHU,
	"bg":    monday.LocaleBgBG,
	"id":    monday.LocaleIdID,
	"th":    monday.LocaleThTH,
}

// mondayLocale picks the monday locale for a language tag: exact
// language_region first, then the language alone, then en_US.
func mondayLocale(tag language.Tag) monday.Locale {
	base, _ := tag.Base()
	lang := strings.ToLower(base.String())
	if region, conf := tag.Region(); conf != language.No {
		if loc, ok := mondayLocales[lang+"_"+strings.ToLower(region.String())]; ok {
			return loc
		}
	}
	if loc, ok := mondayLocales[lang]; ok {
		return loc
	}
	return monday.LocaleEnUS
}
