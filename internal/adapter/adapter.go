package adapter

// SchemaSource 模式元数据来源（数据库自省器或静态描述）
type SchemaSource interface {
	// IntrospectSchema 获取表和列元数据
	IntrospectSchema() (*SchemaMetadata, error)

	// GetForeignKeys 获取声明的外键约束
	GetForeignKeys() ([]ForeignKey, error)

	// Close 关闭连接
	Close() error
}

// SchemaMetadata 元数据
type SchemaMetadata struct {
	Tables []Table
}

// Table 表信息
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Column 列信息
type Column struct {
	Name         string
	DataType     string
	Length       int
	Nullable     bool
	IsPrimaryKey bool
}

// ForeignKey 外键
type ForeignKey struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}
