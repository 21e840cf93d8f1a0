package engine

import (
	"os"
	"strconv"

	"text2sql-context/internal/adapter"
	"text2sql-context/internal/analyzer"
	"text2sql-context/internal/store"
)

// 默认参数
const (
	DefaultSimilarityThreshold = 0.3
	DefaultTopK                = 3
	DefaultMaxHops             = 2
)

// Config 引擎配置
type Config struct {
	// Source 模式元数据来源，必填
	Source adapter.SchemaSource

	// Store 快照存储，缺省为文件存储
	Store store.Store

	// Extractor 实体抽取器，缺省为基于表名和关键词的词法抽取
	Extractor analyzer.EntityExtractor

	// SimilarityThreshold 相似边入图阈值
	SimilarityThreshold float64

	// TopK 相似查询返回条数上限
	TopK int

	// MaxHops 相关表检索的跳数上限
	MaxHops int

	// SnapshotPath 非空时 Close 会把图刷写到该路径
	SnapshotPath string
}

// DefaultConfig 返回带默认参数的配置
func DefaultConfig(source adapter.SchemaSource) Config {
	return Config{
		Source:              source,
		SimilarityThreshold: DefaultSimilarityThreshold,
		TopK:                DefaultTopK,
		MaxHops:             DefaultMaxHops,
	}
}

// LoadConfigFromEnv 用环境变量覆盖配置项，未设置或非法的变量忽略。
// 支持 SIMILARITY_THRESHOLD / CONTEXT_TOP_K / CONTEXT_MAX_HOPS / GRAPH_SNAPSHOT_PATH。
func LoadConfigFromEnv(cfg Config) Config {
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("CONTEXT_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("CONTEXT_MAX_HOPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxHops = n
		}
	}
	if v := os.Getenv("GRAPH_SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	return cfg
}

// withDefaults 填补未设置的配置项
func (c Config) withDefaults() Config {
	if c.Store == nil {
		c.Store = store.NewFileStore()
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxHops <= 0 {
		c.MaxHops = DefaultMaxHops
	}
	return c
}
