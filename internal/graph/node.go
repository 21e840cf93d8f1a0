package graph

import (
	"time"

	"text2sql-context/internal/textproc"
)

// TableNode 表节点
type TableNode struct {
	Name    string        `json:"name"`
	Schema  string        `json:"schema,omitempty"`
	Columns []*ColumnNode `json:"columns"`
}

// ColumnNode 列节点
type ColumnNode struct {
	Name         string     `json:"name"`
	DataType     string     `json:"data_type"`
	Length       int        `json:"length,omitempty"`
	Nullable     bool       `json:"nullable"`
	IsPrimaryKey bool       `json:"is_primary_key"`
	IsForeignKey bool       `json:"is_foreign_key"`
	References   *ColumnRef `json:"references,omitempty"`
}

// ColumnRef 外键引用目标
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// QueryNode 查询节点，创建后不可变
type QueryNode struct {
	ID             int64             `json:"id"`
	RawText        string            `json:"raw_text"`
	NormalizedText string            `json:"normalized_text"`
	Features       textproc.Features `json:"features"`
	CreatedAt      time.Time         `json:"created_at"`
}

// SQLNode 生成语句节点，与查询节点一一对应
type SQLNode struct {
	QueryID     int64  `json:"query_id"`
	Statement   string `json:"statement"`
	Fingerprint string `json:"fingerprint"`
}

// ResultNode 结果摘要节点，与查询节点一一对应
type ResultNode struct {
	QueryID int64  `json:"query_id"`
	Summary string `json:"summary"`
}
