// Package template expands card templates: JSON-like documents whose string
// values carry ${...} bindings and whose objects may carry the $when and
// $data control keys.
//
// Expansion never fails as a whole. Malformed or unresolved bindings are
// replaced fail-soft and reported as diagnostics next to the output:
//
//	engine := template.New()
//	res := engine.Expand(tmpl, data)
//	for _, d := range res.Diagnostics {
//	    log.Println(d)
//	}
//	out, _ := json.Marshal(res.Output)
//
// An Engine is immutable after New and safe for concurrent use; every call
// owns its context stack and diagnostics.
package template

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandrolain/actemplate/pkg/cache"
	"github.com/sandrolain/actemplate/pkg/evaluator"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// Control keys consumed during expansion.
const (
	KeyWhen = "$when"
	KeyData = "$data"
)

// Options configures an Engine.
type Options struct {
	// Strict makes any diagnostic a failure for callers that honor it
	// (the facade's ExpandJSON and the CLI). Expansion itself is unaffected.
	Strict bool
	// Debug logs every diagnostic at debug level.
	Debug bool
	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
	// Caching caches compiled bindings by source text. Enabled by default.
	Caching bool
	// EvalOptions are passed through to the evaluator.
	EvalOptions []evaluator.EvalOption
}

// Option configures an Engine.
type Option func(*Options)

// WithStrict sets strict mode.
func WithStrict(strict bool) Option {
	return func(o *Options) {
		o.Strict = strict
	}
}

// WithDebug enables debug logging of diagnostics.
func WithDebug(enabled bool) Option {
	return func(o *Options) {
		o.Debug = enabled
	}
}

// WithLogger sets the logger used by the engine and its evaluator.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCaching enables or disables the binding cache.
func WithCaching(enabled bool) Option {
	return func(o *Options) {
		o.Caching = enabled
	}
}

// WithCacheSize sets the capacity of the binding cache.
func WithCacheSize(size int) Option {
	return WithEvalOptions(evaluator.WithCacheSize(size))
}

// WithCacheTTL expires cached bindings after ttl.
func WithCacheTTL(ttl time.Duration) Option {
	return WithEvalOptions(evaluator.WithCacheTTL(ttl))
}

// WithCache shares an existing cache, for example between engines that
// differ only in their functions.
func WithCache(c *cache.Cache) Option {
	return WithEvalOptions(evaluator.WithCache(c))
}

// WithLocale sets the default locale of the formatting functions.
func WithLocale(locale string) Option {
	return WithEvalOptions(evaluator.WithLocale(locale))
}

// WithClock sets the clock read by utcNow() and the relative date helpers.
func WithClock(now func() time.Time) Option {
	return WithEvalOptions(evaluator.WithClock(now))
}

// WithFunctions registers custom or extension functions.
func WithFunctions(defs ...functions.CustomFunctionDef) Option {
	return WithEvalOptions(evaluator.WithFunctions(defs...))
}

// WithEvalOptions passes options straight to the evaluator.
func WithEvalOptions(opts ...evaluator.EvalOption) Option {
	return func(o *Options) {
		o.EvalOptions = append(o.EvalOptions, opts...)
	}
}

// Engine expands templates.
type Engine struct {
	opts   Options
	logger *slog.Logger
	ev     *evaluator.Evaluator
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	options := Options{
		Caching: true,
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	evalOpts := []evaluator.EvalOption{
		evaluator.WithCaching(options.Caching),
		evaluator.WithDebug(options.Debug),
		evaluator.WithLogger(options.Logger),
	}
	evalOpts = append(evalOpts, options.EvalOptions...)

	return &Engine{
		opts:   options,
		logger: options.Logger,
		ev:     evaluator.New(evalOpts...),
	}
}

// Evaluator returns the engine's expression evaluator.
func (e *Engine) Evaluator() *evaluator.Evaluator {
	return e.ev
}

// Strict reports whether the engine was built in strict mode.
func (e *Engine) Strict() bool {
	return e.opts.Strict
}

// Result is the outcome of one expansion.
type Result struct {
	// Output is the expanded document. It contains no bindings and no
	// control keys.
	Output types.Value
	// Diagnostics lists the problems met, in walk order.
	Diagnostics types.Diagnostics
}

// Err joins the diagnostics into one error, or returns nil when there are
// none.
func (r *Result) Err() error {
	return r.Diagnostics.Err()
}

// Expand transforms tmpl against data.
func (e *Engine) Expand(tmpl, data types.Value) *Result {
	return e.ExpandContext(context.Background(), tmpl, data)
}

// ExpandContext is like Expand but passes ctx to function calls, which
// observe its cancellation.
func (e *Engine) ExpandContext(ctx context.Context, tmpl, data types.Value) *Result {
	w := e.newWalker(ctx, data)
	out := w.root(tmpl)
	e.report(w.diags)
	return &Result{Output: out, Diagnostics: w.diags}
}

// ExpandString expands the bindings of a single string. A full binding is
// rendered as text, so "${count}" yields "3".
func (e *Engine) ExpandString(s string, data types.Value) (string, types.Diagnostics) {
	w := e.newWalker(context.Background(), data)
	out := w.str(s, "")
	e.report(w.diags)
	return types.FormatText(out), w.diags
}

func (e *Engine) report(diags types.Diagnostics) {
	if !e.opts.Debug {
		return
	}
	for _, d := range diags {
		e.logger.Debug("template diagnostic",
			"kind", d.Kind.String(),
			"path", d.Path,
			"code", string(d.Code),
			"expr", d.Expression,
			"message", d.Message,
		)
	}
	e.logger.Debug("template expanded", "diagnostics", len(diags))
}
