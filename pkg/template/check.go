package template

import (
	"fmt"
	"strings"

	"github.com/sandrolain/actemplate/pkg/parser"
	"github.com/sandrolain/actemplate/pkg/types"
)

// Check reports the parse diagnostics of tmpl without evaluating anything.
// It visits every string, including the $when and $data control values,
// so authoring tools can lint a template before any data is available.
func (e *Engine) Check(tmpl types.Value) types.Diagnostics {
	c := &checker{e: e}
	c.walk(tmpl, "")
	e.report(c.diags)
	return c.diags
}

type checker struct {
	e     *Engine
	diags types.Diagnostics
}

func (c *checker) walk(v types.Value, path string) {
	switch v.Kind() {
	case types.KindObject:
		obj, _ := v.AsObject()
		for _, m := range obj.Members() {
			p := path + "/" + escapePointer(m.Key)
			if m.Key == KeyWhen || m.Key == KeyData {
				c.control(m.Value, p)
				continue
			}
			c.walk(m.Value, p)
		}
	case types.KindArray:
		items, _ := v.AsArray()
		for i, item := range items {
			c.walk(item, fmt.Sprintf("%s/%d", path, i))
		}
	case types.KindString:
		s, _ := v.AsString()
		c.str(s, path)
	}
}

// control checks a $when or $data value. A string without markers is a raw
// expression and must compile as a whole.
func (c *checker) control(v types.Value, path string) {
	s, ok := v.AsString()
	if !ok {
		c.walk(v, path)
		return
	}
	if parser.HasBinding(s) {
		c.str(s, path)
		return
	}
	src := strings.TrimSpace(s)
	if _, err := c.e.ev.Compile(src); err != nil {
		c.diags.Add(types.NewDiagnostic(types.DiagnosticParse, path, s, err))
	}
}

func (c *checker) str(s, path string) {
	if !parser.HasBinding(s) {
		return
	}
	regions, err := parser.ScanTemplate(s)
	if err != nil {
		c.diags.Add(types.NewDiagnostic(types.DiagnosticParse, path, tokenOf(err, s), err))
	}
	for _, r := range regions {
		if !r.Binding {
			continue
		}
		if _, err := c.e.ev.Compile(r.Text); err != nil {
			c.diags.Add(types.NewDiagnostic(types.DiagnosticParse, path, r.Raw, err))
		}
	}
}
