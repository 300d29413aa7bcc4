package parser

import (
	"strings"

	"github.com/sandrolain/actemplate/pkg/types"
)

// Binding markers.
const (
	BindingOpen  = "${"
	BindingClose = "}"
)

// Region is one piece of a template string: either literal text or a
// ${...} binding.
type Region struct {
	// Text is the literal text, or for a binding the expression source
	// without the markers.
	Text string
	// Raw is the region as written. For a binding it includes the markers.
	Raw string
	// Binding reports whether the region is an expression.
	Binding bool
	// Offset is the byte offset of Raw in the scanned string.
	Offset int
}

// HasBinding reports whether s contains a binding marker at all.
func HasBinding(s string) bool {
	return strings.Contains(s, BindingOpen)
}

// ScanTemplate splits s into literal and binding regions, in order.
//
// A binding ends at the } that balances its opening ${, ignoring braces
// inside quoted string literals. When a binding is never closed, the text
// from the last region boundary to the end of s is returned as a single
// literal region together with an ErrUnterminatedBinding error; all regions
// before it are still returned.
func ScanTemplate(s string) ([]Region, error) {
	var regions []Region
	lit, i := 0, 0

	for {
		j := strings.Index(s[i:], BindingOpen)
		if j < 0 {
			break
		}
		start := i + j
		end, ok := matchBinding(s, start+len(BindingOpen))
		if !ok {
			regions = appendLiteral(regions, s, lit, len(s))
			return regions, types.NewError(types.ErrUnterminatedBinding, "Unterminated binding, missing '}'", start).WithToken(s[start:])
		}
		regions = appendLiteral(regions, s, lit, start)
		regions = append(regions, Region{
			Text:    s[start+len(BindingOpen) : end],
			Raw:     s[start : end+1],
			Binding: true,
			Offset:  start,
		})
		i = end + 1
		lit = i
	}

	return appendLiteral(regions, s, lit, len(s)), nil
}

// IsFullBinding reports whether regions hold exactly one binding and nothing
// else but whitespace, and returns that binding.
func IsFullBinding(regions []Region) (Region, bool) {
	var found Region
	n := 0
	for _, r := range regions {
		if r.Binding {
			found = r
			n++
			continue
		}
		if strings.TrimSpace(r.Text) != "" {
			return Region{}, false
		}
	}
	return found, n == 1
}

func appendLiteral(regions []Region, s string, from, to int) []Region {
	if from >= to {
		return regions
	}
	return append(regions, Region{Text: s[from:to], Raw: s[from:to], Offset: from})
}

// matchBinding returns the index of the } closing a binding whose body
// starts at from.
func matchBinding(s string, from int) (int, bool) {
	depth := 1
	for k := from; k < len(s); k++ {
		switch s[k] {
		case '\'', '"':
			q := s[k]
			k++
			for k < len(s) && s[k] != q {
				if s[k] == '\\' {
					k++
				}
				k++
			}
			if k >= len(s) {
				return -1, false
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return k, true
			}
		}
	}
	return -1, false
}
