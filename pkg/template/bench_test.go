package template_test

import (
	"fmt"
	"testing"

	"github.com/sandrolain/actemplate/pkg/template"
	"github.com/sandrolain/actemplate/pkg/types"
)

// Run with:
//
//	go test -bench=Expand -benchmem ./pkg/template/...

const benchTemplate = `{
	"type": "AdaptiveCard",
	"version": "1.5",
	"body": [
		{"type": "TextBlock", "text": "${title}", "size": "Large"},
		{"type": "TextBlock", "$when": "${count > 0}", "text": "${count} users"},
		{
			"type": "Container",
			"$data": "${users}",
			"items": [
				{"type": "TextBlock", "text": "#${$index + 1} ${name} (${department})"},
				{"type": "TextBlock", "$when": "${active}", "text": "Salary: ${formatNumber(salary, 2)}"},
				{"type": "FactSet", "facts": [{"$data": "${projects}", "title": "${$data}", "value": "${$root.title}"}]}
			]
		}
	]
}`

func benchData(n int) types.Value {
	departments := []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}
	users := make([]any, n)
	for i := range users {
		users[i] = map[string]any{
			"name":       fmt.Sprintf("User%d", i+1),
			"department": departments[i%len(departments)],
			"salary":     70000 + i*1000,
			"active":     i%2 == 0,
			"projects":   []any{fmt.Sprintf("Project%d", i), fmt.Sprintf("Project%d", i+1)},
		}
	}
	return types.MustFromGo(map[string]any{
		"title": "Directory",
		"count": n,
		"users": users,
	})
}

func benchmarkExpand(b *testing.B, caching bool, n int) {
	engine := template.New(template.WithCaching(caching))
	tmpl := types.MustParseJSON(benchTemplate)
	data := benchData(n)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res := engine.Expand(tmpl, data)
		if len(res.Diagnostics) != 0 {
			b.Fatal(res.Diagnostics.Err())
		}
	}
}

func BenchmarkExpandCached10(b *testing.B)    { benchmarkExpand(b, true, 10) }
func BenchmarkExpandUncached10(b *testing.B)  { benchmarkExpand(b, false, 10) }
func BenchmarkExpandCached100(b *testing.B)   { benchmarkExpand(b, true, 100) }
func BenchmarkExpandUncached100(b *testing.B) { benchmarkExpand(b, false, 100) }

func BenchmarkExpandParallel(b *testing.B) {
	engine := template.New()
	tmpl := types.MustParseJSON(benchTemplate)
	data := benchData(10)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			engine.Expand(tmpl, data)
		}
	})
}
