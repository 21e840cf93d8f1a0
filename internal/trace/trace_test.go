package trace

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "fenced_block",
			text:     "Here is the query:\n```sql\nSELECT * FROM users;\n```\nDone.",
			expected: []string{"SELECT * FROM users"},
		},
		{
			name:     "multiple_fenced",
			text:     "```sql\nSELECT 1\n```\ntext\n```sql\nSELECT 2\n```",
			expected: []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:     "bare_select",
			text:     "The answer is SELECT COUNT(*) FROM orders; hope that helps",
			expected: []string{"SELECT COUNT(*) FROM orders"},
		},
		{
			name:     "with_clause",
			text:     "WITH top AS (SELECT 1) SELECT * FROM top",
			expected: []string{"WITH top AS (SELECT 1) SELECT * FROM top"},
		},
		{
			name: "fence_wins_over_bare",
			text: "SELECT ignored FROM noise\n```sql\nSELECT kept FROM fenced\n```",
			expected: []string{
				"SELECT kept FROM fenced",
			},
		},
		{
			name:     "no_sql",
			text:     "I could not produce a statement for that question.",
			expected: nil,
		},
		{
			name:     "empty",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSQL(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTraceLifecycle(t *testing.T) {
	tr := New("What is total revenue?")

	if !strings.HasPrefix(tr.ID, "trace_") {
		t.Errorf("unexpected id: %q", tr.ID)
	}
	if tr.Question != "What is total revenue?" {
		t.Errorf("unexpected question: %q", tr.Question)
	}

	start := time.Now()
	tr.AddStep("find_similar", "1 match", start)
	tr.AddStep("schema_context", "", start)
	tr.AddSQL("SELECT SUM(sale_price) FROM order_items")
	tr.AddError(errors.New("schema introspection skipped"))
	tr.AddError(nil)
	tr.Finish()

	if len(tr.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(tr.Steps))
	}
	if tr.Steps[0].Name != "find_similar" || tr.Steps[0].Detail != "1 match" {
		t.Errorf("unexpected first step: %+v", tr.Steps[0])
	}
	if tr.Steps[0].DurationMS < 0 {
		t.Errorf("negative duration: %+v", tr.Steps[0])
	}
	if len(tr.SQL) != 1 {
		t.Errorf("expected 1 sql entry, got %d", len(tr.SQL))
	}
	if len(tr.Errors) != 1 {
		t.Errorf("nil error must be ignored, got %v", tr.Errors)
	}
	if tr.ElapsedMS < 0 {
		t.Errorf("negative elapsed: %f", tr.ElapsedMS)
	}
}
