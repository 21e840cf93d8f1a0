package renderer

import (
	"fmt"
	"strings"

	"text2sql-context/internal/graph"
)

// MarkdownRenderer Markdown 数据字典渲染器
type MarkdownRenderer struct{}

// NewMarkdownRenderer 创建渲染器
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render 渲染为 Markdown 格式
func (m *MarkdownRenderer) Render(g *graph.SchemaGraph) string {
	var sb strings.Builder

	sb.WriteString("# 数据库结构文档\n\n")
	sb.WriteString(fmt.Sprintf("共 %d 个表，%d 条关系。\n\n", g.TableCount(), g.EdgeCount()))
	sb.WriteString("## 表结构\n\n")

	for _, name := range g.Tables() {
		node := g.Table(name)
		sb.WriteString(fmt.Sprintf("### %s\n\n", name))

		sb.WriteString("| 列名 | 类型 | 长度 | 可空 | 主键 |\n")
		sb.WriteString("|------|------|------|------|------|\n")

		for _, col := range node.Columns {
			nullable := "否"
			if col.Nullable {
				nullable = "是"
			}
			pk := ""
			if col.IsPrimaryKey {
				pk = "✓"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
				col.Name, col.DataType, col.Length, nullable, pk))
		}

		sb.WriteString("\n")

		m.renderTableRelations(&sb, g, name)
	}

	return sb.String()
}

// renderTableRelations 渲染表关系
func (m *MarkdownRenderer) renderTableRelations(sb *strings.Builder, g *graph.SchemaGraph, tableName string) {
	var relations []*graph.SchemaEdge

	for _, edge := range g.Edges() {
		if edge.From == tableName || edge.To == tableName {
			relations = append(relations, edge)
		}
	}

	if len(relations) == 0 {
		return
	}

	sb.WriteString("#### 关系\n\n")

	for _, rel := range relations {
		relType := "外键"
		if rel.Type == graph.EdgeTypeImplicitJoin {
			relType = "推断连接"
		}

		sb.WriteString(fmt.Sprintf("- **%s** `%s.%s` → `%s.%s` (置信度: %.2f)\n",
			relType, rel.From, rel.FromColumn, rel.To, rel.ToColumn, rel.Confidence))
	}

	sb.WriteString("\n")
}
