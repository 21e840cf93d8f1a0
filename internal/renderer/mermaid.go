package renderer

import (
	"fmt"
	"strings"

	"text2sql-context/internal/graph"
)

// MermaidRenderer Mermaid ER 图渲染器
type MermaidRenderer struct{}

// NewMermaidRenderer 创建渲染器
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Render 渲染为 Mermaid 格式
func (m *MermaidRenderer) Render(g *graph.SchemaGraph) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	// 表定义按表名排序输出
	for _, name := range g.Tables() {
		node := g.Table(name)
		sb.WriteString(fmt.Sprintf("    %s {\n", name))
		for _, col := range node.Columns {
			pk := ""
			if col.IsPrimaryKey {
				pk = " PK"
			}
			fk := ""
			if col.IsForeignKey {
				fk = " FK"
			}
			sb.WriteString(fmt.Sprintf("        %s %s%s%s\n", col.Name, col.DataType, pk, fk))
		}
		sb.WriteString("    }\n")
	}

	sb.WriteString("\n")

	// 渲染关系
	for _, edge := range g.Edges() {
		// 实线表示声明外键，虚线表示推断连接
		relType := "||--o{"
		if edge.Type == graph.EdgeTypeImplicitJoin {
			relType = "||..o{"
		}

		label := fmt.Sprintf("\"%.2f\"", edge.Confidence)
		sb.WriteString(fmt.Sprintf("    %s %s %s : %s\n",
			edge.To, relType, edge.From, label))
	}

	return sb.String()
}
