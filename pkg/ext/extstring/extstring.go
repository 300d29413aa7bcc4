// Package extstring provides extended string functions for card templates.
// Register them via template.WithFunctions or via the top-level
// ext.WithString() helper.
package extstring

import (
	"context"
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sandrolain/actemplate/pkg/cache"
	"github.com/sandrolain/actemplate/pkg/ext/extutil"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// All returns all extended string function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		Capitalize(),
		TitleCase(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		PadLeft(),
		PadRight(),
		Repeat(),
		Truncate(),
		Words(),
		Template(),
		RegexReplace(),
		Base64Encode(),
		Base64Decode(),
		EncodeURIComponent(),
		DecodeURIComponent(),
	}
}

// Capitalize returns the definition for capitalize(str).
// Uppercases the first character, lowercases the rest.
func Capitalize() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "capitalize",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			str := extutil.Text(args[0])
			if str == "" {
				return types.String(str), nil
			}
			runes := []rune(str)
			runes[0] = unicode.ToUpper(runes[0])
			for i := 1; i < len(runes); i++ {
				runes[i] = unicode.ToLower(runes[i])
			}
			return types.String(string(runes)), nil
		},
	}
}

// TitleCase returns the definition for titleCase(str [, locale]).
// Uppercases the first letter of each word using the locale's casing rules.
func TitleCase() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "titleCase",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			tag, err := extutil.Locale("titleCase", extutil.Arg(args, 1), language.Und)
			if err != nil {
				return types.Undefined(), err
			}
			return types.String(cases.Title(tag).String(extutil.Text(args[0]))), nil
		},
	}
}

// splitWordsRe splits a string into words by camelCase, snake_case, kebab-case, and spaces.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(str string) []string {
	// Insert space before uppercase letters following lowercase letters (camelCase)
	expanded := splitWordsRe.ReplaceAllStringFunc(str, func(s string) string {
		if len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' {
			return string(s[0]) + " " + string(s[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns the definition for camelCase(str).
func CamelCase() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "camelCase",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			words := splitIntoWords(extutil.Text(args[0]))
			if len(words) == 0 {
				return types.String(""), nil
			}
			var b strings.Builder
			b.WriteString(strings.ToLower(words[0]))
			for _, w := range words[1:] {
				runes := []rune(strings.ToLower(w))
				runes[0] = unicode.ToUpper(runes[0])
				b.WriteString(string(runes))
			}
			return types.String(b.String()), nil
		},
	}
}

// SnakeCase returns the definition for snakeCase(str).
func SnakeCase() functions.CustomFunctionDef {
	return joinedCase("snakeCase", "_")
}

// KebabCase returns the definition for kebabCase(str).
func KebabCase() functions.CustomFunctionDef {
	return joinedCase("kebabCase", "-")
}

func joinedCase(name, sep string) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			words := splitIntoWords(extutil.Text(args[0]))
			for i, w := range words {
				words[i] = strings.ToLower(w)
			}
			return types.String(strings.Join(words, sep)), nil
		},
	}
}

// PadLeft returns the definition for padLeft(str, width [, pad]).
// The pad string defaults to a space.
func PadLeft() functions.CustomFunctionDef {
	return pad("padLeft", true)
}

// PadRight returns the definition for padRight(str, width [, pad]).
func PadRight() functions.CustomFunctionDef {
	return pad("padRight", false)
}

func pad(name string, left bool) functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			str := extutil.Text(args[0])
			width, err := extutil.Int(name, args[1])
			if err != nil {
				return types.Undefined(), err
			}
			fill := " "
			if len(args) > 2 && !args[2].IsNull() {
				fill = extutil.Text(args[2])
			}
			missing := width - utf8.RuneCountInString(str)
			if missing <= 0 || fill == "" {
				return types.String(str), nil
			}
			fillRunes := []rune(fill)
			padding := make([]rune, missing)
			for i := range padding {
				padding[i] = fillRunes[i%len(fillRunes)]
			}
			if left {
				return types.String(string(padding) + str), nil
			}
			return types.String(str + string(padding)), nil
		},
	}
}

// Repeat returns the definition for repeat(str, n).
func Repeat() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "repeat",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			n, err := extutil.Int("repeat", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			if n < 0 || n > 10000 {
				return types.Undefined(), extutil.Errorf("repeat", "count must be between 0 and 10000, got %d", n)
			}
			return types.String(strings.Repeat(extutil.Text(args[0]), n)), nil
		},
	}
}

// Truncate returns the definition for truncate(str, max [, suffix]).
// Strings longer than max runes are cut and the suffix (default "…") is
// appended within the limit.
func Truncate() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "truncate",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			runes := []rune(extutil.Text(args[0]))
			limit, err := extutil.Int("truncate", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			if limit < 0 {
				return types.Undefined(), extutil.Errorf("truncate", "max must not be negative")
			}
			if len(runes) <= limit {
				return types.String(string(runes)), nil
			}
			suffix := []rune("…")
			if len(args) > 2 && !args[2].IsNull() {
				suffix = []rune(extutil.Text(args[2]))
			}
			keep := limit - len(suffix)
			if keep < 0 {
				return types.String(string(runes[:limit])), nil
			}
			return types.String(string(runes[:keep]) + string(suffix)), nil
		},
	}
}

// Words returns the definition for words(str).
// Splits on whitespace into a list of non-empty words.
func Words() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "words",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			parts := strings.Fields(extutil.Text(args[0]))
			result := make([]types.Value, len(parts))
			for i, p := range parts {
				result[i] = types.String(p)
			}
			return types.Array(result...), nil
		},
	}
}

var templateRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template returns the definition for template(str, bindings).
// Replaces {{key}} placeholders with values from the bindings object.
func Template() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "template",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			bindings, err := extutil.Object("template", args[1])
			if err != nil {
				return types.Undefined(), err
			}
			result := templateRe.ReplaceAllStringFunc(extutil.Text(args[0]), func(match string) string {
				if val, ok := bindings.Get(match[2 : len(match)-2]); ok {
					return types.FormatText(val)
				}
				return match
			})
			return types.String(result), nil
		},
	}
}

// RegexReplace returns the definition for regexReplace(str, pattern, replacement).
// The replacement may reference groups as $1 or ${name}. Each definition
// keeps its own bounded pattern cache.
func RegexReplace() functions.CustomFunctionDef {
	patterns := cache.NewRegexps(0)
	return functions.CustomFunctionDef{
		Name:    "regexReplace",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			pattern := extutil.Text(args[1])
			re, err := patterns.Compile(pattern)
			if err != nil {
				return types.Undefined(), types.NewError(types.ErrInvalidRegex,
					"regexReplace: invalid pattern "+pattern, -1).WithCause(err)
			}
			return types.String(re.ReplaceAllString(extutil.Text(args[0]), extutil.Text(args[2]))), nil
		},
	}
}

// Base64Encode returns the definition for base64Encode(str).
func Base64Encode() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "base64Encode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.String(base64.StdEncoding.EncodeToString([]byte(extutil.Text(args[0])))), nil
		},
	}
}

// Base64Decode returns the definition for base64Decode(str).
func Base64Decode() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "base64Decode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			decoded, err := base64.StdEncoding.DecodeString(extutil.Text(args[0]))
			if err != nil {
				return types.Undefined(), extutil.Errorf("base64Decode", "invalid base64 string")
			}
			return types.String(string(decoded)), nil
		},
	}
}

// EncodeURIComponent returns the definition for encodeUriComponent(str).
// Spaces are encoded as %20, as in a URL path or query value.
func EncodeURIComponent() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "encodeUriComponent",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			escaped := url.QueryEscape(extutil.Text(args[0]))
			return types.String(strings.ReplaceAll(escaped, "+", "%20")), nil
		},
	}
}

// DecodeURIComponent returns the definition for decodeUriComponent(str).
func DecodeURIComponent() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "decodeUriComponent",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			decoded, err := url.PathUnescape(extutil.Text(args[0]))
			if err != nil {
				return types.Undefined(), extutil.Errorf("decodeUriComponent", "invalid escape sequence")
			}
			return types.String(decoded), nil
		},
	}
}
