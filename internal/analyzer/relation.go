package analyzer

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"text2sql-context/internal/adapter"
	"text2sql-context/internal/graph"
	"text2sql-context/internal/logger"
)

// RelationshipInferer 基于命名约定与类型兼容性推断隐式连接关系
type RelationshipInferer struct {
	threshold float64
}

// NewRelationshipInferer 创建推断器
func NewRelationshipInferer() *RelationshipInferer {
	return &RelationshipInferer{threshold: 0.3}
}

// Infer 推断未声明的表间连接。
// 只考察 *_id 形式的非主键列，把名字主干与目标表名做匹配，
// 已声明外键覆盖的列不参与推断。
func (r *RelationshipInferer) Infer(meta *adapter.SchemaMetadata, declared []adapter.ForeignKey) []*graph.SchemaEdge {
	declaredCols := make(map[string]bool)
	for _, fk := range declared {
		declaredCols[fk.FromTable+"."+fk.FromColumn] = true
	}

	var edges []*graph.SchemaEdge
	for _, fromTable := range meta.Tables {
		for _, fromCol := range fromTable.Columns {
			if fromCol.IsPrimaryKey || declaredCols[fromTable.Name+"."+fromCol.Name] {
				continue
			}
			base, ok := strings.CutSuffix(strings.ToLower(fromCol.Name), "_id")
			if !ok || base == "" {
				continue
			}

			// 每列只保留得分最高的候选表，避免一列连出多条推断边
			var best *graph.SchemaEdge
			for _, toTable := range meta.Tables {
				if toTable.Name == fromTable.Name {
					continue
				}
				pk := primaryKeyColumn(toTable)
				if pk == nil {
					continue
				}

				nameScore := tableNameSimilarity(base, strings.ToLower(toTable.Name))
				if nameScore == 0 {
					continue
				}
				typeScore := r.calculateTypeMatch(fromCol, *pk)
				if typeScore == 0 {
					continue
				}

				confidence := nameScore*0.7 + typeScore*0.3
				if confidence <= r.threshold {
					continue
				}
				// 声明外键的置信度固定为 1.0，推断结果封顶在其下
				if confidence > 0.99 {
					confidence = 0.99
				}

				if best == nil || confidence > best.Confidence ||
					(confidence == best.Confidence && toTable.Name < best.To) {
					best = &graph.SchemaEdge{
						Type:       graph.EdgeTypeImplicitJoin,
						From:       fromTable.Name,
						To:         toTable.Name,
						FromColumn: fromCol.Name,
						ToColumn:   pk.Name,
						Weight:     1,
						Confidence: confidence,
					}
				}
			}
			if best != nil {
				edges = append(edges, best)
			}
		}
	}

	logger.Debug("关系推断完成", "tables", len(meta.Tables), "inferred", len(edges))
	return edges
}

// tableNameSimilarity 计算列名主干与表名的匹配程度，兼容常见复数形式
func tableNameSimilarity(base, table string) float64 {
	// 完全匹配
	if base == table {
		return 1.0
	}

	// 复数形式
	if isPluralOf(base, table) {
		return 0.95
	}

	// 包含关系
	if strings.Contains(base, table) || strings.Contains(table, base) {
		return 0.8
	}

	// Levenshtein 距离
	maxLen := max(len(base), len(table))
	if maxLen == 0 {
		return 0
	}
	distance := levenshtein.DistanceForStrings([]rune(base), []rune(table), levenshtein.DefaultOptions)
	similarity := 1.0 - float64(distance)/float64(maxLen)

	if similarity > 0.7 {
		return similarity
	}

	return 0
}

// isPluralOf 判断 table 是否为 base 的常见英文复数形式
func isPluralOf(base, table string) bool {
	if base+"s" == table || base+"es" == table {
		return true
	}
	if strings.HasSuffix(base, "y") && strings.TrimSuffix(base, "y")+"ies" == table {
		return true
	}
	return false
}

// calculateTypeMatch 计算类型匹配度
func (r *RelationshipInferer) calculateTypeMatch(col1, col2 adapter.Column) float64 {
	// 类型必须兼容
	if !r.isTypeCompatible(col1.DataType, col2.DataType) {
		return 0
	}

	// 长度匹配
	if col1.Length > 0 && col2.Length > 0 {
		if col1.Length == col2.Length {
			return 1.0
		}
		// 长度接近
		ratio := float64(min(col1.Length, col2.Length)) / float64(max(col1.Length, col2.Length))
		if ratio > 0.8 {
			return 0.8
		}
	}

	return 0.6 // 类型兼容但长度不确定
}

// isTypeCompatible 判断类型是否兼容
func (r *RelationshipInferer) isTypeCompatible(type1, type2 string) bool {
	t1 := strings.ToLower(type1)
	t2 := strings.ToLower(type2)

	// 完全匹配
	if t1 == t2 {
		return true
	}

	// 字符串类型组
	stringTypes := map[string]bool{
		"varchar": true, "nvarchar": true, "char": true, "nchar": true, "text": true,
	}
	if stringTypes[t1] && stringTypes[t2] {
		return true
	}

	// 整数类型组
	intTypes := map[string]bool{
		"int": true, "integer": true, "bigint": true, "smallint": true, "tinyint": true,
	}
	if intTypes[t1] && intTypes[t2] {
		return true
	}

	return false
}

// primaryKeyColumn 返回表的首个主键列，缺主键时回退到名为 id 的列
func primaryKeyColumn(t adapter.Table) *adapter.Column {
	for i := range t.Columns {
		if t.Columns[i].IsPrimaryKey {
			return &t.Columns[i]
		}
	}
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, "id") {
			return &t.Columns[i]
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
