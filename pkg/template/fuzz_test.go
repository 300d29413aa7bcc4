package template_test

import (
	"strings"
	"testing"

	"github.com/sandrolain/actemplate/pkg/template"
	"github.com/sandrolain/actemplate/pkg/types"
)

// FuzzExpandString checks that any field value expands without panicking
// and that a string without markers is returned unchanged.
func FuzzExpandString(f *testing.F) {
	seeds := []string{
		"plain",
		"${title}",
		"Total: ${count} items",
		"${unterminated",
		"${'}'} and ${\"{\"}",
		"${items[0].name}${$index}",
		"${if(vip, 'a', nope())}",
		"$${x}}",
		"${}",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	engine := template.New()
	data := types.MustParseJSON(cardData)

	f.Fuzz(func(t *testing.T, input string) {
		got, _ := engine.ExpandString(input, data)
		if !strings.Contains(input, "${") && got != input {
			t.Fatalf("%q changed without bindings: %q", input, got)
		}
	})
}

// FuzzExpand feeds arbitrary JSON templates through the walker.
func FuzzExpand(f *testing.F) {
	seeds := []string{
		`{"$data": "${items}", "$when": "${qty > 0}", "n": "${name}"}`,
		`[{"$when": "${customer}"}, {"$data": 3}]`,
		`{"a": {"$data": {"x": "${title}"}, "b": "${x}"}}`,
		`"${unterminated"`,
		`[[[{"$data": "${groups}", "r": [{"$data": "${rows}", "v": "${v}"}]}]]]`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	engine := template.New()
	data := types.MustParseJSON(cardData)

	f.Fuzz(func(t *testing.T, input string) {
		tmpl, err := types.ParseJSON([]byte(input))
		if err != nil {
			return
		}
		res := engine.Expand(tmpl, data)
		if res.Output.IsUndefined() {
			t.Fatal("undefined output")
		}
		for _, d := range res.Diagnostics {
			if d.Kind == types.DiagnosticParse && d.Code == "" {
				t.Fatalf("parse diagnostic without code: %v", d)
			}
		}
	})
}
