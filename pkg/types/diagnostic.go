package types

import (
	"errors"
	"fmt"
)

// DiagnosticKind classifies a diagnostic recorded while expanding a template.
type DiagnosticKind uint8

const (
	// DiagnosticParse: malformed expression syntax; the source text is kept.
	DiagnosticParse DiagnosticKind = iota + 1
	// DiagnosticEvaluation: the expression parsed but did not resolve.
	DiagnosticEvaluation
	// DiagnosticStructural: a $when or $data value had the wrong type.
	DiagnosticStructural
)

// String returns the name of the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticParse:
		return "parse"
	case DiagnosticEvaluation:
		return "evaluation"
	case DiagnosticStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Diagnostic is a non-fatal problem found while expanding a template.
type Diagnostic struct {
	Kind DiagnosticKind `json:"kind"`
	// Path is the JSON pointer of the template node the problem belongs to.
	Path string `json:"path"`
	// Expression is the source of the binding region, markers included.
	Expression string    `json:"expression,omitempty"`
	Code       ErrorCode `json:"code,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

// NewDiagnostic builds a diagnostic from an error. Code and message are
// taken from a *Error when err is (or wraps) one.
func NewDiagnostic(kind DiagnosticKind, path, expression string, err error) Diagnostic {
	d := Diagnostic{
		Kind:       kind,
		Path:       path,
		Expression: expression,
		Err:        err,
	}
	var te *Error
	if errors.As(err, &te) {
		d.Code = te.Code
		d.Message = te.Message
	} else if err != nil {
		d.Message = err.Error()
	}
	return d
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	loc := d.Path
	if loc == "" {
		loc = "/"
	}
	if d.Expression != "" {
		return fmt.Sprintf("%s %s in %q at %s: %s", d.Kind, d.Code, d.Expression, loc, d.Message)
	}
	return fmt.Sprintf("%s %s at %s: %s", d.Kind, d.Code, loc, d.Message)
}

// Unwrap returns the underlying error.
func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Diagnostics is the ordered list of problems collected during one
// expansion.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (ds *Diagnostics) Add(d Diagnostic) {
	*ds = append(*ds, d)
}

// Count returns the number of diagnostics of the given kind.
func (ds Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Err joins all diagnostics into a single error, or returns nil when there
// are none.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errors.Join(errs...)
}
