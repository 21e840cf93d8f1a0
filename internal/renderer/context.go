package renderer

import (
	"fmt"
	"strings"

	"text2sql-context/internal/graph"
)

// 上下文块的固定段落标题，顺序不变
const (
	HeaderSimilarQueries  = "=== Similar Past Queries ==="
	HeaderSchemaContext   = "=== Schema Context ==="
	HeaderJoinSuggestions = "=== Join Suggestions ==="
)

// DegradedSchemaLine 降级状态下模式段的占位内容
const DegradedSchemaLine = "schema context unavailable (degraded mode)"

// ContextInput 渲染上下文块所需的全部内容
type ContextInput struct {
	Similar       []graph.SimilarQuery
	SchemaContext string
	RelatedTables []string
	Suggestions   []graph.JoinSuggestion
	Degraded      bool
}

// ContextRenderer 纯文本上下文块渲染器
type ContextRenderer struct{}

// NewContextRenderer 创建渲染器
func NewContextRenderer() *ContextRenderer {
	return &ContextRenderer{}
}

// Render 渲染三段式上下文块。空段落整段省略，段落间以空行分隔；
// 降级状态下模式段渲染为固定的占位行，连接建议段省略。
func (r *ContextRenderer) Render(in ContextInput) string {
	var sections []string

	if len(in.Similar) > 0 {
		var sb strings.Builder
		sb.WriteString(HeaderSimilarQueries + "\n")
		for i, s := range in.Similar {
			sb.WriteString(fmt.Sprintf("%d. Query: %s\n", i+1, s.QueryText))
			sb.WriteString(fmt.Sprintf("   SQL: %s\n", s.SQLText))
			sb.WriteString(fmt.Sprintf("   Similarity: %.2f\n", s.Score))
		}
		sections = append(sections, strings.TrimRight(sb.String(), "\n"))
	}

	if in.Degraded {
		sections = append(sections, HeaderSchemaContext+"\n"+DegradedSchemaLine)
	} else if in.SchemaContext != "" {
		var sb strings.Builder
		sb.WriteString(HeaderSchemaContext + "\n")
		sb.WriteString(in.SchemaContext)
		if len(in.RelatedTables) > 0 {
			sb.WriteString("\nRelated tables: " + strings.Join(in.RelatedTables, ", "))
		}
		sections = append(sections, sb.String())
	}

	if !in.Degraded && len(in.Suggestions) > 0 {
		var sb strings.Builder
		sb.WriteString(HeaderJoinSuggestions + "\n")
		for _, s := range in.Suggestions {
			sb.WriteString("JOIN path: " + strings.Join(s.Path, " -> ") + "\n")
			for _, cond := range s.Conditions {
				sb.WriteString("  ON " + cond + "\n")
			}
		}
		sections = append(sections, strings.TrimRight(sb.String(), "\n"))
	}

	return strings.Join(sections, "\n\n")
}
