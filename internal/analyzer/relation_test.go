package analyzer

import (
	"testing"

	"text2sql-context/internal/adapter"
	"text2sql-context/internal/graph"
)

func TestTableNameSimilarity(t *testing.T) {
	tests := []struct {
		base     string
		table    string
		expected float64
	}{
		{"user", "user", 1.0},
		{"user", "users", 0.95},
		{"order", "orders", 0.95},
		{"category", "categories", 0.95},
		{"center", "distribution_centers", 0.8},
		{"status", "state", 0.0},
		{"user", "products", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.base+"_"+tt.table, func(t *testing.T) {
			score := tableNameSimilarity(tt.base, tt.table)
			if score != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, score)
			}
		})
	}
}

func TestIsTypeCompatible(t *testing.T) {
	r := NewRelationshipInferer()

	tests := []struct {
		type1    string
		type2    string
		expected bool
	}{
		{"varchar", "varchar", true},
		{"varchar", "nvarchar", true},
		{"int", "bigint", true},
		{"integer", "int", true},
		{"varchar", "int", false},
		{"text", "varchar", true},
	}

	for _, tt := range tests {
		t.Run(tt.type1+"_"+tt.type2, func(t *testing.T) {
			result := r.isTypeCompatible(tt.type1, tt.type2)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestCalculateTypeMatch(t *testing.T) {
	r := NewRelationshipInferer()

	tests := []struct {
		name     string
		col1     adapter.Column
		col2     adapter.Column
		expected float64
	}{
		{"same_length", adapter.Column{DataType: "varchar", Length: 50}, adapter.Column{DataType: "varchar", Length: 50}, 1.0},
		{"close_length", adapter.Column{DataType: "varchar", Length: 50}, adapter.Column{DataType: "varchar", Length: 45}, 0.8},
		{"no_length", adapter.Column{DataType: "int"}, adapter.Column{DataType: "bigint"}, 0.6},
		{"incompatible", adapter.Column{DataType: "varchar", Length: 50}, adapter.Column{DataType: "int"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := r.calculateTypeMatch(tt.col1, tt.col2)
			if score != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, score)
			}
		})
	}
}

func TestInfer(t *testing.T) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{Name: "users", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "first_name", DataType: "varchar", Length: 50},
				{Name: "state", DataType: "varchar", Length: 50},
			}},
			{Name: "orders", Columns: []adapter.Column{
				{Name: "order_id", DataType: "int", IsPrimaryKey: true},
				{Name: "user_id", DataType: "int"},
				{Name: "status", DataType: "varchar", Length: 20},
			}},
			{Name: "order_items", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "order_id", DataType: "int"},
				{Name: "user_id", DataType: "int"},
				{Name: "product_id", DataType: "int"},
			}},
			{Name: "products", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "name", DataType: "varchar", Length: 100},
				{Name: "category", DataType: "varchar", Length: 50},
			}},
		},
	}
	declared := []adapter.ForeignKey{
		{FromTable: "order_items", FromColumn: "order_id", ToTable: "orders", ToColumn: "order_id"},
	}

	r := NewRelationshipInferer()
	edges := r.Infer(meta, declared)

	if len(edges) != 3 {
		t.Fatalf("expected 3 inferred edges, got %d: %+v", len(edges), edges)
	}

	var found *graph.SchemaEdge
	for _, e := range edges {
		if e.From == "orders" && e.FromColumn == "user_id" {
			found = e
		}
		if e.From == "order_items" && e.FromColumn == "order_id" {
			t.Errorf("declared foreign key column should be skipped, got %+v", e)
		}
		if e.From == e.To {
			t.Errorf("self reference should be skipped, got %+v", e)
		}
		if e.Confidence <= 0.3 || e.Confidence >= 1.0 {
			t.Errorf("confidence out of range: %+v", e)
		}
		if e.Type != graph.EdgeTypeImplicitJoin {
			t.Errorf("expected implicit_join type, got %s", e.Type)
		}
	}

	if found == nil {
		t.Fatal("expected orders.user_id -> users edge")
	}
	if found.To != "users" || found.ToColumn != "id" {
		t.Errorf("expected target users.id, got %s.%s", found.To, found.ToColumn)
	}
}

func TestInferPrimaryKeyColumnSkipped(t *testing.T) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{Name: "orders", Columns: []adapter.Column{
				{Name: "order_id", DataType: "int", IsPrimaryKey: true},
			}},
			{Name: "order_items", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
			}},
		},
	}

	r := NewRelationshipInferer()
	if edges := r.Infer(meta, nil); len(edges) != 0 {
		t.Errorf("primary key columns must not produce edges, got %+v", edges)
	}
}
