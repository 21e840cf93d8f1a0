package analyzer

import (
	"sort"
	"strings"
)

// EntityExtractor 从自然语言问题中抽取被提及的业务实体
type EntityExtractor interface {
	// Extract 返回命中的实体词，顺序稳定且已去重
	Extract(text string) []string
}

// DefaultKeywords 电商分析场景的常见业务词
var DefaultKeywords = []string{
	"user", "order", "product", "revenue", "sales", "customer",
	"category", "brand", "state", "city", "month", "year",
}

// LexicalExtractor 基于词面匹配的抽取器。
// 表名命中在前（字典序），关键词按声明顺序跟随；
// 被已命中表名覆盖的关键词不再重复输出。
type LexicalExtractor struct {
	tables   []string
	keywords []string
}

// NewLexicalExtractor 创建词面抽取器，keywords 为 nil 时使用 DefaultKeywords
func NewLexicalExtractor(tables, keywords []string) *LexicalExtractor {
	sorted := make([]string, len(tables))
	copy(sorted, tables)
	sort.Strings(sorted)
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &LexicalExtractor{tables: sorted, keywords: keywords}
}

// Extract 返回文本中命中的表名与业务关键词
func (e *LexicalExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)

	var out []string
	var hitTables []string
	seen := make(map[string]bool)

	for _, table := range e.tables {
		if seen[table] || !matchesTableName(lower, table) {
			continue
		}
		seen[table] = true
		hitTables = append(hitTables, strings.ToLower(table))
		out = append(out, table)
	}

	for _, kw := range e.keywords {
		if seen[kw] || !strings.Contains(lower, kw) {
			continue
		}
		if coveredByTable(hitTables, kw) {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// matchesTableName 匹配表名本身、下划线转空格的写法以及去掉复数 s 的单数形式
func matchesTableName(lower, table string) bool {
	name := strings.ToLower(table)
	candidates := []string{name, strings.ReplaceAll(name, "_", " ")}
	if singular := strings.TrimSuffix(name, "s"); singular != name && singular != "" {
		candidates = append(candidates, singular, strings.ReplaceAll(singular, "_", " "))
	}
	for _, c := range candidates {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

func coveredByTable(hitTables []string, keyword string) bool {
	for _, table := range hitTables {
		if strings.Contains(table, keyword) {
			return true
		}
	}
	return false
}
