//go:build js && wasm

// Command actemplate-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `actemplate` object with the following API:
//
//	actemplate.version()                      → string
//	actemplate.expand(templateJSON, dataJSON) → { result: JSON string, diagnostics: JSON string }
//	actemplate.check(templateJSON)            → diagnostics JSON string
//	actemplate.compile(templateJSON)          → { expand(dataJSON) → { result, diagnostics } }
//
// Invalid input JSON throws.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o actemplate.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const out = actemplate.expand(JSON.stringify(card), JSON.stringify({name: 'Alice'}))
//	console.log(JSON.parse(out.result))
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/actemplate"
	"github.com/sandrolain/actemplate/pkg/template"
	"github.com/sandrolain/actemplate/pkg/types"
)

// engine is shared by every call; its binding cache pays off when a page
// re-renders the same card with fresh data.
var engine = actemplate.New()

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	panic(js.Global().Get("Error").New(msg))
}

func parseArg(fn, what, src string) types.Value {
	if src == "" {
		return types.Null()
	}
	v, err := types.ParseJSON([]byte(src))
	if err != nil {
		jsThrow(fmt.Sprintf("%s: invalid %s JSON: %v", fn, what, err))
	}
	return v
}

func result(res *template.Result) interface{} {
	out, err := res.Output.MarshalJSON()
	if err != nil {
		jsThrow(fmt.Sprintf("marshal result: %v", err))
	}
	return js.ValueOf(map[string]interface{}{
		"result":      string(out),
		"diagnostics": diagnosticsJSON(res.Diagnostics),
	})
}

func diagnosticsJSON(diags types.Diagnostics) string {
	if diags == nil {
		diags = types.Diagnostics{}
	}
	b, _ := json.Marshal(diags)
	return string(b)
}

// jsExpand implements actemplate.expand(templateJSON, dataJSON).
func jsExpand(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("actemplate.expand requires a template (JSON string) and optional data (JSON string)")
	}
	tmpl := parseArg("actemplate.expand", "template", args[0].String())
	data := types.Null()
	if len(args) > 1 && args[1].Type() == js.TypeString {
		data = parseArg("actemplate.expand", "data", args[1].String())
	}
	return result(engine.Expand(tmpl, data))
}

// jsCheck implements actemplate.check(templateJSON).
func jsCheck(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("actemplate.check requires 1 argument: template (JSON string)")
	}
	tmpl := parseArg("actemplate.check", "template", args[0].String())
	return diagnosticsJSON(engine.Check(tmpl))
}

// jsCompile implements actemplate.compile(templateJSON): the template is
// decoded once and expanded per call.
func jsCompile(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("actemplate.compile requires 1 argument: template (JSON string)")
	}
	tmpl := parseArg("actemplate.compile", "template", args[0].String())

	expandFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		data := types.Null()
		if len(innerArgs) > 0 && innerArgs[0].Type() == js.TypeString {
			data = parseArg("compiled.expand", "data", innerArgs[0].String())
		}
		return result(engine.Expand(tmpl, data))
	})

	return js.ValueOf(map[string]interface{}{"expand": expandFn})
}

func main() {
	api := map[string]interface{}{
		"expand":  js.FuncOf(jsExpand),
		"check":   js.FuncOf(jsCheck),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return actemplate.Version()
		}),
	}
	js.Global().Set("actemplate", js.ValueOf(api))

	// Block forever; the JS event loop owns execution from here.
	select {}
}
