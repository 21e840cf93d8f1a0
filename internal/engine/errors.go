package engine

import "errors"

// 引擎错误类别。自省失败与持久化失败不终止进程：前者使引擎进入
// 降级状态，后者由调用方决定是否重试。格式不符触发丢弃快照。
var (
	// ErrSchemaIntrospection 模式自省失败
	ErrSchemaIntrospection = errors.New("schema introspection failed")

	// ErrPersistenceIO 快照读写失败
	ErrPersistenceIO = errors.New("persistence io failed")

	// ErrFormatMismatch 快照文档版本与当前格式不符
	ErrFormatMismatch = errors.New("snapshot format mismatch")

	// ErrEngineClosed 引擎已关闭，不再接受任何操作
	ErrEngineClosed = errors.New("engine is closed")
)
