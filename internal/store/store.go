package store

import (
	"text2sql-context/internal/graph"
)

// Store 图文档存取接口
type Store interface {
	// Save 把文档写到目标位置，整体替换既往内容
	Save(path string, doc *graph.Document) error

	// Load 读取最近一次保存的文档。
	// 目标不存在时返回的错误满足 errors.Is(err, os.ErrNotExist)。
	Load(path string) (*graph.Document, error)
}
