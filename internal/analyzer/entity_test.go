package analyzer

import (
	"reflect"
	"testing"
)

var lookTables = []string{
	"users", "orders", "order_items", "products",
	"inventory_items", "events", "distribution_centers",
}

func TestLexicalExtractor(t *testing.T) {
	e := NewLexicalExtractor(lookTables, nil)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "tables_and_keyword",
			text:     "Which users bought products last month?",
			expected: []string{"products", "users", "month"},
		},
		{
			name:     "underscore_table",
			text:     "revenue by distribution center",
			expected: []string{"distribution_centers", "revenue"},
		},
		{
			name:     "keyword_only",
			text:     "What is total revenue?",
			expected: []string{"revenue"},
		},
		{
			name:     "keyword_covered_by_table",
			text:     "show all users",
			expected: []string{"users"},
		},
		{
			name:     "singular_form",
			text:     "orders per user by state",
			expected: []string{"orders", "users", "state"},
		},
		{
			name:     "no_match",
			text:     "hello there",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLexicalExtractorNoTables(t *testing.T) {
	e := NewLexicalExtractor(nil, nil)

	got := e.Extract("total sales per customer")
	expected := []string{"sales", "customer"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestLexicalExtractorCustomKeywords(t *testing.T) {
	e := NewLexicalExtractor([]string{"shipments"}, []string{"carrier", "route"})

	got := e.Extract("shipments per carrier on each route")
	expected := []string{"shipments", "carrier", "route"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}
