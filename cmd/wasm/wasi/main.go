//go:build wasip1

// Command actemplate-wasm-wasi is the WASI (wasip1) entrypoint for use from
// any language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "template": <card JSON>, "data": <any JSON value>, "strict": false }
//	stdout: { "result": <card JSON>, "diagnostics": [ ... ] }  on success
//	        { "error": "<message>", ... }                     on failure (exit code 1)
//
// In strict mode any diagnostic is a failure; the best-effort result and the
// diagnostics are still written.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o actemplate.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"template":{"text":"${name}"},"data":{"name":"Alice"}}' | wasmtime actemplate.wasm
package main

import (
	"encoding/json"
	"os"

	"github.com/sandrolain/actemplate"
	"github.com/sandrolain/actemplate/pkg/template"
	"github.com/sandrolain/actemplate/pkg/types"
)

type request struct {
	Template json.RawMessage `json:"template"`
	Data     json.RawMessage `json:"data"`
	Strict   bool            `json:"strict"`
}

type response struct {
	Result      json.RawMessage   `json:"result,omitempty"`
	Diagnostics types.Diagnostics `json:"diagnostics,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}
	if len(req.Template) == 0 {
		writeResponse(response{Error: "missing template"}, 1)
	}

	// The module runs one request per instance, so the cache is not worth it.
	out, diags, err := actemplate.ExpandJSON(req.Template, req.Data,
		template.WithCaching(false),
		template.WithStrict(req.Strict),
	)
	if err != nil {
		writeResponse(response{Result: out, Diagnostics: diags, Error: err.Error()}, 1)
	}

	writeResponse(response{Result: out, Diagnostics: diags}, 0)
}
