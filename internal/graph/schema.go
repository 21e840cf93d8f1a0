package graph

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"

	"text2sql-context/internal/adapter"
)

// SchemaGraph 模式关系图。构建完成后只读，可被并发读取；
// 元数据变更时整体重建，不做增量修改。
type SchemaGraph struct {
	tables     map[string]*TableNode
	tableNames []string
	edges      []*SchemaEdge
	adjacency  map[string][]neighbor
	checksum   string
}

// neighbor 无向邻接项
type neighbor struct {
	table string
	edge  *SchemaEdge
}

// BuildSchemaGraph 从元数据、声明外键和推断连接构建模式图
func BuildSchemaGraph(meta *adapter.SchemaMetadata, fks []adapter.ForeignKey, inferred []*SchemaEdge) *SchemaGraph {
	if meta == nil {
		meta = &adapter.SchemaMetadata{}
	}

	g := &SchemaGraph{
		tables:    make(map[string]*TableNode),
		adjacency: make(map[string][]neighbor),
	}

	for _, t := range meta.Tables {
		if g.tables[t.Name] != nil {
			continue // 表名唯一
		}
		node := &TableNode{Name: t.Name, Schema: t.Schema}
		for _, c := range t.Columns {
			node.Columns = append(node.Columns, &ColumnNode{
				Name:         c.Name,
				DataType:     c.DataType,
				Length:       c.Length,
				Nullable:     c.Nullable,
				IsPrimaryKey: c.IsPrimaryKey,
			})
		}
		g.tables[t.Name] = node
		g.tableNames = append(g.tableNames, t.Name)
	}
	sort.Strings(g.tableNames)

	// 声明外键：标记来源列并建边
	declared := make(map[string]bool)
	seen := make(map[string]bool)
	for _, fk := range fks {
		if g.tables[fk.FromTable] == nil || g.tables[fk.ToTable] == nil {
			continue
		}
		declared[fk.FromTable+"."+fk.FromColumn] = true
		if col := g.column(fk.FromTable, fk.FromColumn); col != nil {
			col.IsForeignKey = true
			col.References = &ColumnRef{Table: fk.ToTable, Column: fk.ToColumn}
		}

		key := fk.FromTable + "." + fk.FromColumn + ">" + fk.ToTable + "." + fk.ToColumn
		if seen[key] {
			continue
		}
		seen[key] = true
		g.addEdge(&SchemaEdge{
			Type:       EdgeTypeForeignKey,
			From:       fk.FromTable,
			To:         fk.ToTable,
			FromColumn: fk.FromColumn,
			ToColumn:   fk.ToColumn,
			Weight:     1,
			Confidence: 1,
		})
	}

	// 推断连接：声明外键已覆盖的列不再加边
	for _, e := range inferred {
		if g.tables[e.From] == nil || g.tables[e.To] == nil {
			continue
		}
		if declared[e.From+"."+e.FromColumn] {
			continue
		}
		g.addEdge(e)
	}

	g.sortAdjacency()
	g.checksum = ComputeChecksum(meta, fks)
	return g
}

func (g *SchemaGraph) addEdge(e *SchemaEdge) {
	g.edges = append(g.edges, e)
	g.adjacency[e.From] = append(g.adjacency[e.From], neighbor{table: e.To, edge: e})
	g.adjacency[e.To] = append(g.adjacency[e.To], neighbor{table: e.From, edge: e})
}

func (g *SchemaGraph) column(table, name string) *ColumnNode {
	node := g.tables[table]
	if node == nil {
		return nil
	}
	for _, col := range node.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// sortAdjacency 邻接表按 (表名, 边类型, 列名) 排序，声明外键优先
func (g *SchemaGraph) sortAdjacency() {
	for _, list := range g.adjacency {
		sort.Slice(list, func(i, j int) bool {
			if list[i].table != list[j].table {
				return list[i].table < list[j].table
			}
			ri, rj := edgeRank(list[i].edge.Type), edgeRank(list[j].edge.Type)
			if ri != rj {
				return ri < rj
			}
			if list[i].edge.FromColumn != list[j].edge.FromColumn {
				return list[i].edge.FromColumn < list[j].edge.FromColumn
			}
			return list[i].edge.ToColumn < list[j].edge.ToColumn
		})
	}
}

func edgeRank(t EdgeType) int {
	if t == EdgeTypeForeignKey {
		return 0
	}
	return 1
}

// ComputeChecksum 结构校验和，用于检测模式元数据变更
func ComputeChecksum(meta *adapter.SchemaMetadata, fks []adapter.ForeignKey) string {
	if meta == nil {
		meta = &adapter.SchemaMetadata{}
	}

	var lines []string
	for _, t := range meta.Tables {
		lines = append(lines, "table|"+t.Name)
		for _, c := range t.Columns {
			lines = append(lines, fmt.Sprintf("column|%s|%s|%s|%d|%t|%t",
				t.Name, c.Name, c.DataType, c.Length, c.Nullable, c.IsPrimaryKey))
		}
	}
	for _, fk := range fks {
		lines = append(lines, fmt.Sprintf("fk|%s.%s>%s.%s",
			fk.FromTable, fk.FromColumn, fk.ToTable, fk.ToColumn))
	}
	sort.Strings(lines)

	sum := md5.Sum([]byte(strings.Join(lines, "\n")))
	return fmt.Sprintf("%x", sum)
}

// Checksum 模式结构校验和
func (g *SchemaGraph) Checksum() string {
	return g.checksum
}

// Tables 排序后的全部表名
func (g *SchemaGraph) Tables() []string {
	out := make([]string, len(g.tableNames))
	copy(out, g.tableNames)
	return out
}

// Table 取表节点
func (g *SchemaGraph) Table(name string) *TableNode {
	return g.tables[name]
}

// HasTable 表是否存在
func (g *SchemaGraph) HasTable(name string) bool {
	return g.tables[name] != nil
}

// Edges 全部关系边
func (g *SchemaGraph) Edges() []*SchemaEdge {
	out := make([]*SchemaEdge, len(g.edges))
	copy(out, g.edges)
	return out
}

// TableCount 表数量
func (g *SchemaGraph) TableCount() int {
	return len(g.tableNames)
}

// EdgeCount 关系边数量
func (g *SchemaGraph) EdgeCount() int {
	return len(g.edges)
}

// RelatedTables 宽度优先遍历 maxHops 跳内的关联表，不含起点。
// 距离近的排前，同距离按表名字母序。maxHops 为 0 时恒为空。
func (g *SchemaGraph) RelatedTables(table string, maxHops int) []string {
	if maxHops <= 0 || g.tables[table] == nil {
		return nil
	}

	visited := map[string]bool{table: true}
	frontier := []string{table}

	var result []string
	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, cur := range frontier {
			for _, nb := range g.adjacency[cur] {
				if !visited[nb.table] {
					visited[nb.table] = true
					next = append(next, nb.table)
				}
			}
		}
		sort.Strings(next)
		result = append(result, next...)
		frontier = next
	}
	return result
}

// JoinPath 两表间按边数最短的连接路径，含两端表名。
// 等长路径取表名序列字典序最小的一条；字典序在规范端点顺序
// (min(a,b) → max(a,b)) 上计算，保证 (A,B) 与 (B,A) 的结果互逆。
// 不连通时返回 nil，表示无可用连接而非故障。
func (g *SchemaGraph) JoinPath(a, b string) []string {
	if g.tables[a] == nil || g.tables[b] == nil {
		return nil
	}
	if a == b {
		return []string{a}
	}

	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	path := g.lexMinShortestPath(lo, hi)
	if path == nil {
		return nil
	}
	if a != lo {
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
	}
	return path
}

// lexMinShortestPath 等长最短路径中字典序最小的一条：
// 先算各表到终点的距离，再从起点贪心走距离递减的最小邻居。
func (g *SchemaGraph) lexMinShortestPath(from, to string) []string {
	dist := g.distancesFrom(to)
	total, ok := dist[from]
	if !ok {
		return nil
	}

	path := make([]string, 0, total+1)
	path = append(path, from)

	cur := from
	for cur != to {
		want := dist[cur] - 1
		next := ""
		for _, nb := range g.adjacency[cur] {
			if d, ok := dist[nb.table]; ok && d == want {
				next = nb.table // 邻接表已排序，首个命中即字典序最小
				break
			}
		}
		if next == "" {
			return nil
		}
		path = append(path, next)
		cur = next
	}
	return path
}

func (g *SchemaGraph) distancesFrom(src string) map[string]int {
	dist := map[string]int{src: 0}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.adjacency[cur] {
			if _, ok := dist[nb.table]; !ok {
				dist[nb.table] = dist[cur] + 1
				queue = append(queue, nb.table)
			}
		}
	}
	return dist
}

// JoinSuggestion 连接建议：把 To 表接入已连通集合所需的路径与条件
type JoinSuggestion struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Path       []string `json:"path"`
	Conditions []string `json:"conditions"`
}

// JoinSuggestions 贪心合并两两最短路径，近似连接全部输入表的
// 最小连通子图（Steiner 树近似，不保证最优）。
func (g *SchemaGraph) JoinSuggestions(tables []string) []JoinSuggestion {
	known := make([]string, 0, len(tables))
	seen := make(map[string]bool)
	for _, t := range tables {
		if g.tables[t] != nil && !seen[t] {
			seen[t] = true
			known = append(known, t)
		}
	}
	if len(known) < 2 {
		return nil
	}
	sort.Strings(known)

	connected := map[string]bool{known[0]: true}
	anchors := []string{known[0]}
	remaining := known[1:]

	var suggestions []JoinSuggestion
	for len(remaining) > 0 {
		bestIdx := -1
		bestFrom := ""
		var bestPath []string
		for i, cand := range remaining {
			for _, anchor := range anchors {
				path := g.JoinPath(anchor, cand)
				if path == nil {
					continue
				}
				if bestPath == nil || len(path) < len(bestPath) ||
					(len(path) == len(bestPath) && lexLess(path, bestPath)) {
					bestIdx, bestFrom, bestPath = i, anchor, path
				}
			}
		}
		if bestIdx < 0 {
			break // 剩余表与已连通集合不相通
		}

		suggestions = append(suggestions, JoinSuggestion{
			From:       bestFrom,
			To:         remaining[bestIdx],
			Path:       bestPath,
			Conditions: g.pathConditions(bestPath),
		})
		for _, t := range bestPath {
			if !connected[t] {
				connected[t] = true
				anchors = append(anchors, t)
			}
		}
		sort.Strings(anchors)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return suggestions
}

func (g *SchemaGraph) pathConditions(path []string) []string {
	var conds []string
	for i := 0; i+1 < len(path); i++ {
		if e := g.edgeBetween(path[i], path[i+1]); e != nil {
			conds = append(conds, fmt.Sprintf("%s.%s = %s.%s",
				e.From, e.FromColumn, e.To, e.ToColumn))
		}
	}
	return conds
}

// edgeBetween 两表间优先级最高的关系边，声明外键优先
func (g *SchemaGraph) edgeBetween(a, b string) *SchemaEdge {
	for _, nb := range g.adjacency[a] {
		if nb.table == b {
			return nb.edge
		}
	}
	return nil
}

// SchemaContext 渲染表结构上下文。请求的表按输入顺序在前，
// 并自动带上一跳内与连接相关的邻居表（按表名排序），
// 让生成器看到写出正确 JOIN 所需的结构。
func (g *SchemaGraph) SchemaContext(tables []string) string {
	ordered := make([]string, 0, len(tables))
	seen := make(map[string]bool)
	for _, t := range tables {
		if g.tables[t] != nil && !seen[t] {
			seen[t] = true
			ordered = append(ordered, t)
		}
	}

	var neighbors []string
	for _, t := range ordered {
		for _, nb := range g.adjacency[t] {
			if !seen[nb.table] {
				seen[nb.table] = true
				neighbors = append(neighbors, nb.table)
			}
		}
	}
	sort.Strings(neighbors)
	ordered = append(ordered, neighbors...)

	var lines []string
	for _, name := range ordered {
		node := g.tables[name]
		lines = append(lines, "Table: "+name)
		for _, col := range node.Columns {
			suffix := ""
			if col.IsPrimaryKey {
				suffix = ", primary key"
			}
			lines = append(lines, fmt.Sprintf("  - %s (%s%s)", col.Name, col.DataType, suffix))
		}
		for _, e := range g.outgoing(name) {
			lines = append(lines, fmt.Sprintf("  - References %s via %s", e.To, e.FromColumn))
		}
	}
	return strings.Join(lines, "\n")
}

// outgoing 按 (目标表, 来源列) 排序的出边
func (g *SchemaGraph) outgoing(table string) []*SchemaEdge {
	var out []*SchemaEdge
	for _, e := range g.edges {
		if e.From == table {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].FromColumn < out[j].FromColumn
	})
	return out
}

func lexLess(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
