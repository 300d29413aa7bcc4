package evaluator

import (
	"context"
	"sort"
	"sync"

	"github.com/sandrolain/actemplate/pkg/types"
)

// FunctionDef defines a built-in function.
type FunctionDef struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for unlimited
	// AcceptsUndefined lets unresolved arguments reach Impl. When false, an
	// undefined argument short-circuits the call and the result stays
	// undefined, so the region reports the missing reference.
	AcceptsUndefined bool
	Impl             FunctionImpl
}

// FunctionImpl is the implementation of a function.
type FunctionImpl func(ctx context.Context, e *Evaluator, args []types.Value) (types.Value, error)

var (
	builtinFunctions     map[string]*FunctionDef
	builtinFunctionsOnce sync.Once
)

// initBuiltinFunctions initializes the built-in function registry.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		builtinFunctions = map[string]*FunctionDef{
			// Logic functions. "if" is evaluated lazily by evalFunction; the
			// entry here serves arity checks and direct calls.
			"if":                  {Name: "if", MinArgs: 3, MaxArgs: 3, AcceptsUndefined: true, Impl: fnIf},
			"equals":              {Name: "equals", MinArgs: 2, MaxArgs: 2, AcceptsUndefined: true, Impl: fnEquals},
			"not":                 {Name: "not", MinArgs: 1, MaxArgs: 1, AcceptsUndefined: true, Impl: fnNot},
			"and":                 {Name: "and", MinArgs: 2, MaxArgs: -1, AcceptsUndefined: true, Impl: fnAnd},
			"or":                  {Name: "or", MinArgs: 2, MaxArgs: -1, AcceptsUndefined: true, Impl: fnOr},
			"greaterThan":         {Name: "greaterThan", MinArgs: 2, MaxArgs: 2, Impl: fnGreaterThan},
			"greaterThanOrEquals": {Name: "greaterThanOrEquals", MinArgs: 2, MaxArgs: 2, Impl: fnGreaterThanOrEquals},
			"lessThan":            {Name: "lessThan", MinArgs: 2, MaxArgs: 2, Impl: fnLessThan},
			"lessThanOrEquals":    {Name: "lessThanOrEquals", MinArgs: 2, MaxArgs: 2, Impl: fnLessThanOrEquals},
			"exists":              {Name: "exists", MinArgs: 1, MaxArgs: 1, AcceptsUndefined: true, Impl: fnExists},
			"empty":               {Name: "empty", MinArgs: 1, MaxArgs: 1, AcceptsUndefined: true, Impl: fnEmpty},
			"isMatch":             {Name: "isMatch", MinArgs: 2, MaxArgs: 2, Impl: fnIsMatch},

			// String functions
			"toLower":     {Name: "toLower", MinArgs: 1, MaxArgs: 1, Impl: fnToLower},
			"toUpper":     {Name: "toUpper", MinArgs: 1, MaxArgs: 1, Impl: fnToUpper},
			"substring":   {Name: "substring", MinArgs: 2, MaxArgs: 3, Impl: fnSubstring},
			"indexOf":     {Name: "indexOf", MinArgs: 2, MaxArgs: 2, Impl: fnIndexOf},
			"lastIndexOf": {Name: "lastIndexOf", MinArgs: 2, MaxArgs: 2, Impl: fnLastIndexOf},
			"length":      {Name: "length", MinArgs: 1, MaxArgs: 1, Impl: fnLength},
			"replace":     {Name: "replace", MinArgs: 3, MaxArgs: 3, Impl: fnReplace},
			"split":       {Name: "split", MinArgs: 2, MaxArgs: 2, Impl: fnSplit},
			"join":        {Name: "join", MinArgs: 1, MaxArgs: 2, Impl: fnJoin},
			"trim":        {Name: "trim", MinArgs: 1, MaxArgs: 1, Impl: fnTrim},
			"startsWith":  {Name: "startsWith", MinArgs: 2, MaxArgs: 2, Impl: fnStartsWith},
			"endsWith":    {Name: "endsWith", MinArgs: 2, MaxArgs: 2, Impl: fnEndsWith},
			"contains":    {Name: "contains", MinArgs: 2, MaxArgs: 2, Impl: fnContains},
			"format":      {Name: "format", MinArgs: 1, MaxArgs: -1, Impl: fnFormat},
			"concat":      {Name: "concat", MinArgs: 1, MaxArgs: -1, Impl: fnConcat},

			// Collection functions
			"count":        {Name: "count", MinArgs: 1, MaxArgs: 1, Impl: fnCount},
			"first":        {Name: "first", MinArgs: 1, MaxArgs: 1, Impl: fnFirst},
			"last":         {Name: "last", MinArgs: 1, MaxArgs: 1, Impl: fnLast},
			"filter":       {Name: "filter", MinArgs: 1, MaxArgs: 1, Impl: fnFilter},
			"sort":         {Name: "sort", MinArgs: 1, MaxArgs: 1, Impl: fnSort},
			"reverse":      {Name: "reverse", MinArgs: 1, MaxArgs: 1, Impl: fnReverse},
			"flatten":      {Name: "flatten", MinArgs: 1, MaxArgs: 1, Impl: fnFlatten},
			"union":        {Name: "union", MinArgs: 2, MaxArgs: -1, Impl: fnUnion},
			"intersection": {Name: "intersection", MinArgs: 2, MaxArgs: -1, Impl: fnIntersection},
			"createArray":  {Name: "createArray", MinArgs: 0, MaxArgs: -1, Impl: fnCreateArray},

			// Math functions
			"add":   {Name: "add", MinArgs: 2, MaxArgs: -1, Impl: fnAdd},
			"sub":   {Name: "sub", MinArgs: 2, MaxArgs: 2, Impl: fnSub},
			"mul":   {Name: "mul", MinArgs: 2, MaxArgs: -1, Impl: fnMul},
			"div":   {Name: "div", MinArgs: 2, MaxArgs: 2, Impl: fnDiv},
			"mod":   {Name: "mod", MinArgs: 2, MaxArgs: 2, Impl: fnMod},
			"min":   {Name: "min", MinArgs: 1, MaxArgs: -1, Impl: fnMin},
			"max":   {Name: "max", MinArgs: 1, MaxArgs: -1, Impl: fnMax},
			"round": {Name: "round", MinArgs: 1, MaxArgs: 2, Impl: fnRound},
			"floor": {Name: "floor", MinArgs: 1, MaxArgs: 1, Impl: fnFloor},
			"ceil":  {Name: "ceil", MinArgs: 1, MaxArgs: 1, Impl: fnCeil},
			"abs":   {Name: "abs", MinArgs: 1, MaxArgs: 1, Impl: fnAbs},

			// Conversion functions
			"parseInt":   {Name: "parseInt", MinArgs: 1, MaxArgs: 1, Impl: fnParseInt},
			"int":        {Name: "int", MinArgs: 1, MaxArgs: 1, Impl: fnParseInt},
			"parseFloat": {Name: "parseFloat", MinArgs: 1, MaxArgs: 1, Impl: fnParseFloat},
			"float":      {Name: "float", MinArgs: 1, MaxArgs: 1, Impl: fnParseFloat},
			"toString":   {Name: "toString", MinArgs: 1, MaxArgs: 1, Impl: fnToString},
			"string":     {Name: "string", MinArgs: 1, MaxArgs: 1, Impl: fnToString},
			"toNumber":   {Name: "toNumber", MinArgs: 1, MaxArgs: 1, Impl: fnToNumber},
			"toBool":     {Name: "toBool", MinArgs: 1, MaxArgs: 1, AcceptsUndefined: true, Impl: fnToBool},
			"json":       {Name: "json", MinArgs: 1, MaxArgs: 1, Impl: fnJSON},

			// Formatting functions
			"formatNumber": {Name: "formatNumber", MinArgs: 1, MaxArgs: 3, Impl: fnFormatNumber},

			// Date/Time functions
			"formatDateTime": {Name: "formatDateTime", MinArgs: 1, MaxArgs: 3, Impl: fnFormatDateTime},
			"addDays":        {Name: "addDays", MinArgs: 2, MaxArgs: 2, Impl: fnAddDays},
			"addHours":       {Name: "addHours", MinArgs: 2, MaxArgs: 2, Impl: fnAddHours},
			"getYear":        {Name: "getYear", MinArgs: 1, MaxArgs: 1, Impl: fnGetYear},
			"getMonth":       {Name: "getMonth", MinArgs: 1, MaxArgs: 1, Impl: fnGetMonth},
			"getDay":         {Name: "getDay", MinArgs: 1, MaxArgs: 1, Impl: fnGetDay},
			"dateDiff":       {Name: "dateDiff", MinArgs: 2, MaxArgs: 2, Impl: fnDateDiff},
			"utcNow":         {Name: "utcNow", MinArgs: 0, MaxArgs: 0, Impl: fnUtcNow},
		}
	})
}

// GetFunction returns a function definition by name.
func GetFunction(name string) (*FunctionDef, bool) {
	initBuiltinFunctions()
	fn, ok := builtinFunctions[name]
	return fn, ok
}

// FunctionNames returns the sorted names of all built-in functions.
func FunctionNames() []string {
	initBuiltinFunctions()
	names := make([]string, 0, len(builtinFunctions))
	for name := range builtinFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
