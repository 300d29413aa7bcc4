// Package evaluator implements the binding expression evaluation engine.
//
// The evaluator receives a parsed expression from the parser and evaluates
// it against a ContextStack of data scopes. It supports:
//   - Identifier resolution through nested $data scopes
//   - $root, $data and $index pseudo-bindings
//   - Property and index access tolerant of sparse data
//   - Built-in, extension and custom functions
//
// # Example
//
//	ev := evaluator.New()
//	expr, _ := ev.Compile("if(user.isVip, 'Gold', 'Standard')")
//	result, err := ev.Eval(ctx, expr, evaluator.NewContextStack(data))
//
// Evaluation is pure: the same expression evaluated against the same stack
// state always yields the same result. The only ambient input, the current
// time used by the date functions, is injectable with WithClock.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/sandrolain/actemplate/pkg/cache"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/parser"
	"github.com/sandrolain/actemplate/pkg/types"
)

// Evaluator evaluates binding expressions against a ContextStack.
// It is immutable after New and safe for concurrent use.
type Evaluator struct {
	opts      EvalOptions
	logger    *slog.Logger
	cache     *cache.Cache            // non-nil when Caching is enabled
	customFns map[string]*FunctionDef // user-registered custom functions
	locale    language.Tag
	regexps   *cache.Regexps
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables expression compilation caching.
	// When true, compiled expressions are cached by source text.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	CacheSize int
	// CacheTTL expires cached expressions after the given duration.
	CacheTTL time.Duration
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth limits expression nesting at parse time.
	MaxDepth int
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Clock supplies the current time to utcNow and friends.
	Clock func() time.Time
	// Locale is the default BCP 47 locale for formatNumber and formatDateTime.
	Locale string
	// RegexCacheSize bounds the compiled patterns kept for isMatch.
	// Non-positive means cache.DefaultRegexCapacity.
	RegexCacheSize int
	// CustomFunctions holds user-defined functions to register with the evaluator.
	CustomFunctions []functions.CustomFunctionDef
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Caching:  false,
		MaxDepth: parser.DefaultMaxDepth,
		Locale:   "en-US",
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	tag, err := ParseLocale(options.Locale)
	if err != nil {
		options.Logger.Warn("invalid locale, falling back to en-US", "locale", options.Locale, "error", err)
		tag = language.AmericanEnglish
	}

	// Initialise expression cache when caching is enabled.
	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		var copts []cache.Option
		if options.CacheTTL > 0 {
			copts = append(copts, cache.WithTTL(options.CacheTTL))
		}
		c = cache.New(options.CacheSize, copts...)
	}

	// Build custom function lookup map.
	customFns := make(map[string]*FunctionDef, len(options.CustomFunctions))
	for _, cfd := range options.CustomFunctions {
		cfd := cfd
		minArgs, maxArgs := cfd.Arity()
		customFns[cfd.Name] = &FunctionDef{
			Name:             cfd.Name,
			MinArgs:          minArgs,
			MaxArgs:          maxArgs,
			AcceptsUndefined: cfd.AcceptsUndefined,
			Impl: func(ctx context.Context, _ *Evaluator, args []types.Value) (types.Value, error) {
				return cfd.Fn(ctx, args...)
			},
		}
	}

	return &Evaluator{
		opts:      options,
		logger:    options.Logger,
		cache:     c,
		customFns: customFns,
		locale:    tag,
		regexps:   cache.NewRegexps(options.RegexCacheSize),
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Regexps returns the evaluator's compiled pattern cache.
func (e *Evaluator) Regexps() *cache.Regexps {
	return e.regexps
}

// Logger returns the configured logger.
func (e *Evaluator) Logger() *slog.Logger {
	return e.logger
}

// Debug reports whether debug logging is enabled.
func (e *Evaluator) Debug() bool {
	return e.opts.Debug
}

// Locale returns the default locale.
func (e *Evaluator) Locale() language.Tag {
	return e.locale
}

// Now returns the current time from the configured clock.
func (e *Evaluator) Now() time.Time {
	return e.opts.Clock()
}

// getCustomFunction returns a user-defined custom function by name, or (nil, false).
func (e *Evaluator) getCustomFunction(name string) (*FunctionDef, bool) {
	if len(e.customFns) == 0 {
		return nil, false
	}
	fn, ok := e.customFns[name]
	return fn, ok
}

// Compile parses an expression source, going through the cache when one is
// configured.
func (e *Evaluator) Compile(src string) (*types.Expression, error) {
	compile := func() (*types.Expression, error) {
		return parser.Compile(src, parser.WithMaxDepth(e.opts.MaxDepth))
	}
	if e.cache == nil {
		return compile()
	}
	return e.cache.GetOrCompile(src, compile)
}

// Eval evaluates an expression against the given scopes.
//
// When the expression does not resolve (its value is undefined), Eval
// returns null together with an ErrUnresolvedReference error naming the
// first reference that failed to resolve. Any other failure returns null
// and a *types.Error.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, stack *ContextStack) (types.Value, error) {
	if expr == nil || expr.AST() == nil {
		return types.Null(), fmt.Errorf("invalid expression")
	}
	if stack == nil {
		stack = NewContextStack(types.Null())
	}

	st := &evalState{ctx: ctx, stack: stack}
	result, err := e.evalNode(st, expr.AST())
	if err != nil {
		return types.Null(), err
	}

	if result.IsUndefined() {
		ref := st.unresolved
		if ref == "" {
			ref = expr.Source()
		}
		return types.Null(), types.NewError(types.ErrUnresolvedReference,
			fmt.Sprintf("%q did not resolve to a value", ref), -1).WithToken(ref)
	}

	return result, nil
}

// EvalString compiles and evaluates src in one step.
func (e *Evaluator) EvalString(ctx context.Context, src string, stack *ContextStack) (types.Value, error) {
	expr, err := e.Compile(src)
	if err != nil {
		return types.Null(), err
	}
	return e.Eval(ctx, expr, stack)
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables expression compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCacheTTL expires cached expressions after d.
// Only effective when combined with WithCaching(true).
func WithCacheTTL(d time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheTTL = d
	}
}

// WithRegexCacheSize bounds the compiled patterns the evaluator keeps for
// isMatch.
func WithRegexCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.RegexCacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithClock sets the time source used by the date functions.
func WithClock(now func() time.Time) EvalOption {
	return func(opts *EvalOptions) {
		opts.Clock = now
	}
}

// WithLocale sets the default BCP 47 locale (for example "de-DE") used by
// the formatting functions when no locale argument is given.
func WithLocale(locale string) EvalOption {
	return func(opts *EvalOptions) {
		opts.Locale = locale
	}
}

// WithCustomFunction registers a user-defined function with the evaluator.
// It accepts any number of arguments; use WithFunctions for arity checks.
//
// Example:
//
//	evaluator.WithCustomFunction("greet", func(ctx context.Context, args ...types.Value) (types.Value, error) {
//	    return types.String("Hello, " + types.FormatText(args[0]) + "!"), nil
//	})
func WithCustomFunction(name string, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, functions.CustomFunctionDef{
			Name:    name,
			MaxArgs: -1,
			Fn:      fn,
		})
	}
}

// WithFunctions registers several custom function definitions at once.
func WithFunctions(defs ...functions.CustomFunctionDef) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, defs...)
	}
}

// evalState carries per-call state through the recursive evaluation.
type evalState struct {
	ctx   context.Context
	stack *ContextStack
	// unresolved is the source of the first reference that came back
	// undefined.
	unresolved string
}

// markUnresolved remembers the first reference that failed to resolve.
func (st *evalState) markUnresolved(node *types.ASTNode) {
	if st.unresolved == "" {
		st.unresolved = refText(node)
	}
}

// refText renders a reference chain back to source form for messages.
func refText(node *types.ASTNode) string {
	if node == nil {
		return ""
	}
	switch node.Type {
	case types.NodeName:
		return node.StrValue
	case types.NodeProperty:
		return refText(node.LHS) + "." + node.StrValue
	case types.NodeIndex:
		var b strings.Builder
		b.WriteString(refText(node.LHS))
		b.WriteByte('[')
		if node.RHS != nil && node.RHS.Type == types.NodeLiteral {
			b.WriteString(node.RHS.Literal.String())
		} else {
			b.WriteString(refText(node.RHS))
		}
		b.WriteByte(']')
		return b.String()
	case types.NodeFunction:
		return node.StrValue + "(...)"
	case types.NodeLiteral:
		return node.Literal.String()
	default:
		return "(" + string(node.Type) + ")"
	}
}
