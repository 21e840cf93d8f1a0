package renderer

import (
	"strings"
	"testing"

	"text2sql-context/internal/graph"
)

func sampleInput() ContextInput {
	return ContextInput{
		Similar: []graph.SimilarQuery{
			{QueryText: "What is total revenue?", SQLText: "SELECT SUM(sale_price) FROM order_items", Score: 1.0},
			{QueryText: "Show me total sales", SQLText: "SELECT SUM(sale_price) FROM order_items", Score: 1.0 / 3.0},
		},
		SchemaContext: "Table: users\n  - id (int, primary key)",
		RelatedTables: []string{"orders", "products"},
		Suggestions: []graph.JoinSuggestion{
			{
				From:       "users",
				To:         "products",
				Path:       []string{"users", "orders", "order_items", "products"},
				Conditions: []string{"orders.user_id = users.id", "order_items.order_id = orders.id", "order_items.product_id = products.id"},
			},
		},
	}
}

func TestRenderFullBlock(t *testing.T) {
	r := NewContextRenderer()

	got := r.Render(sampleInput())
	expected := strings.Join([]string{
		"=== Similar Past Queries ===",
		"1. Query: What is total revenue?",
		"   SQL: SELECT SUM(sale_price) FROM order_items",
		"   Similarity: 1.00",
		"2. Query: Show me total sales",
		"   SQL: SELECT SUM(sale_price) FROM order_items",
		"   Similarity: 0.33",
		"",
		"=== Schema Context ===",
		"Table: users",
		"  - id (int, primary key)",
		"Related tables: orders, products",
		"",
		"=== Join Suggestions ===",
		"JOIN path: users -> orders -> order_items -> products",
		"  ON orders.user_id = users.id",
		"  ON order_items.order_id = orders.id",
		"  ON order_items.product_id = products.id",
	}, "\n")
	if got != expected {
		t.Errorf("unexpected block:\n%s\n--- expected ---\n%s", got, expected)
	}
}

func TestRenderSectionOrder(t *testing.T) {
	r := NewContextRenderer()
	got := r.Render(sampleInput())

	iSim := strings.Index(got, HeaderSimilarQueries)
	iSchema := strings.Index(got, HeaderSchemaContext)
	iJoin := strings.Index(got, HeaderJoinSuggestions)
	if iSim < 0 || iSchema < 0 || iJoin < 0 {
		t.Fatalf("missing section header:\n%s", got)
	}
	if !(iSim < iSchema && iSchema < iJoin) {
		t.Errorf("sections out of order:\n%s", got)
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	r := NewContextRenderer()

	tests := []struct {
		name    string
		in      ContextInput
		want    []string
		notWant []string
	}{
		{
			name:    "similar_only",
			in:      ContextInput{Similar: sampleInput().Similar},
			want:    []string{HeaderSimilarQueries},
			notWant: []string{HeaderSchemaContext, HeaderJoinSuggestions},
		},
		{
			name:    "schema_only",
			in:      ContextInput{SchemaContext: "Table: users"},
			want:    []string{HeaderSchemaContext},
			notWant: []string{HeaderSimilarQueries, HeaderJoinSuggestions},
		},
		{
			name:    "schema_without_related",
			in:      ContextInput{SchemaContext: "Table: users"},
			notWant: []string{"Related tables:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("missing %q in:\n%s", w, got)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("unexpected %q in:\n%s", nw, got)
				}
			}
		})
	}
}

func TestRenderEmptyInput(t *testing.T) {
	r := NewContextRenderer()

	if got := r.Render(ContextInput{}); got != "" {
		t.Errorf("expected empty block, got %q", got)
	}
}

func TestRenderDegraded(t *testing.T) {
	r := NewContextRenderer()

	in := sampleInput()
	in.Degraded = true
	got := r.Render(in)

	if !strings.Contains(got, HeaderSchemaContext+"\n"+DegradedSchemaLine) {
		t.Errorf("degraded marker missing:\n%s", got)
	}
	if strings.Contains(got, "Table: users") {
		t.Errorf("degraded block must not render schema details:\n%s", got)
	}
	if strings.Contains(got, HeaderJoinSuggestions) {
		t.Errorf("degraded block must not render join suggestions:\n%s", got)
	}
	// 相似查询段不依赖模式，仍应保留
	if !strings.Contains(got, HeaderSimilarQueries) {
		t.Errorf("similar queries must survive degraded mode:\n%s", got)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := NewContextRenderer()

	first := r.Render(sampleInput())
	for i := 0; i < 10; i++ {
		if got := r.Render(sampleInput()); got != first {
			t.Fatal("render must be deterministic for identical input")
		}
	}
}
