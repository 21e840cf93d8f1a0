package adapter

// StaticSource 静态内存模式来源，供测试和演示使用
type StaticSource struct {
	meta *SchemaMetadata
	fks  []ForeignKey
}

// NewStaticSource 创建静态来源
func NewStaticSource(meta *SchemaMetadata, fks []ForeignKey) *StaticSource {
	return &StaticSource{meta: meta, fks: fks}
}

// IntrospectSchema 返回静态元数据
func (s *StaticSource) IntrospectSchema() (*SchemaMetadata, error) {
	return s.meta, nil
}

// GetForeignKeys 返回静态外键列表
func (s *StaticSource) GetForeignKeys() ([]ForeignKey, error) {
	return s.fks, nil
}

// Close 无资源可释放
func (s *StaticSource) Close() error {
	return nil
}
