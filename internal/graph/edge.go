package graph

// EdgeType 边类型
type EdgeType string

const (
	EdgeTypeForeignKey   EdgeType = "foreign_key"   // 声明外键
	EdgeTypeImplicitJoin EdgeType = "implicit_join" // 命名约定推断的连接
	EdgeTypeProduces     EdgeType = "produces"      // 查询 → SQL → 结果
	EdgeTypeSimilarTo    EdgeType = "similar_to"    // 查询间相似
	EdgeTypeMentions     EdgeType = "mentions"      // 查询提及模式对象
)

// SchemaEdge 表间关系边，方向为引用方 → 被引用方
type SchemaEdge struct {
	Type       EdgeType `json:"type"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	FromColumn string   `json:"from_column"`
	ToColumn   string   `json:"to_column"`
	Weight     float64  `json:"weight"`
	Confidence float64  `json:"confidence"` // 置信度 0-1，声明外键恒为 1
}

// SimilarityEdge 查询相似边（无向），仅在得分达到阈值时物化
type SimilarityEdge struct {
	A     int64   `json:"a"`
	B     int64   `json:"b"`
	Score float64 `json:"score"`
}

// MentionEdge 查询到模式对象的提及边
// Target 形如 table:users / column:users.id / entity:revenue
type MentionEdge struct {
	QueryID int64  `json:"query_id"`
	Target  string `json:"target"`
}
