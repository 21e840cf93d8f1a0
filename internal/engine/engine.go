package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"text2sql-context/internal/adapter"
	"text2sql-context/internal/analyzer"
	"text2sql-context/internal/graph"
	"text2sql-context/internal/logger"
	"text2sql-context/internal/renderer"
	"text2sql-context/internal/store"
	"text2sql-context/internal/textproc"
)

// State 引擎状态
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateDegraded      State = "degraded"
	StateClosed        State = "closed"
)

// Engine 上下文检索引擎。持有一张只读模式图和一张追加式查询图，
// 对外提供 SQL 生成所需的检索与记录操作。
//
// 状态机：Uninitialized → Ready（模式图构建成功）或
// Uninitialized → Degraded（自省失败，仅查询历史可用）→ Closed。
// Closed 为终态，之后的操作返回 ErrEngineClosed。
type Engine struct {
	mu      sync.RWMutex
	state   State
	schema  *graph.SchemaGraph // Degraded 时为 nil，重建时整体替换
	queries *graph.QueryGraph

	source    adapter.SchemaSource
	snapshots store.Store
	extractor analyzer.EntityExtractor
	// defaultExtractor 表示抽取器由引擎按表名生成，模式图重建后随之更新
	defaultExtractor bool

	processor *textproc.Processor
	renderer  *renderer.ContextRenderer
	threshold float64
	topK      int
	maxHops   int

	snapshotPath string
}

// New 按配置构建引擎。自省失败不算构建失败：引擎进入降级状态，
// 继续提供相似查询检索。
func New(cfg Config) (*Engine, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("schema source is required")
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		state:        StateUninitialized,
		source:       cfg.Source,
		snapshots:    cfg.Store,
		processor:    textproc.NewProcessor(),
		renderer:     renderer.NewContextRenderer(),
		threshold:    cfg.SimilarityThreshold,
		topK:         cfg.TopK,
		maxHops:      cfg.MaxHops,
		snapshotPath: cfg.SnapshotPath,
	}
	e.queries = graph.NewQueryGraph(e.processor, e.threshold)

	schema, err := introspectAndBuild(e.source)
	if err != nil {
		logger.Warn("模式自省失败，引擎进入降级状态", "error", err)
		e.state = StateDegraded
	} else {
		e.schema = schema
		e.state = StateReady
		logger.Info("模式图构建完成", "tables", schema.TableCount(), "edges", schema.EdgeCount())
	}

	e.extractor = cfg.Extractor
	if e.extractor == nil {
		e.defaultExtractor = true
		e.extractor = analyzer.NewLexicalExtractor(e.tableNames(), nil)
	}
	return e, nil
}

// introspectAndBuild 自省实时来源并构建模式图
func introspectAndBuild(source adapter.SchemaSource) (*graph.SchemaGraph, error) {
	meta, err := source.IntrospectSchema()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaIntrospection, err)
	}
	fks, err := source.GetForeignKeys()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaIntrospection, err)
	}
	inferred := analyzer.NewRelationshipInferer().Infer(meta, fks)
	return graph.BuildSchemaGraph(meta, fks, inferred), nil
}

func (e *Engine) tableNames() []string {
	if e.schema == nil {
		return nil
	}
	return e.schema.Tables()
}

// ContextPayload 一次上下文检索的结果。Text 是按固定格式渲染的
// 上下文块，三个命名段落同时以结构化形式给出。
type ContextPayload struct {
	SimilarQueries  []graph.SimilarQuery   `json:"similar_queries"`
	SchemaContext   string                 `json:"schema_context"`
	JoinSuggestions []graph.JoinSuggestion `json:"join_suggestions"`
	MentionedTables []string               `json:"mentioned_tables,omitempty"`
	RelatedTables   []string               `json:"related_tables,omitempty"`
	State           State                  `json:"state"`
	Text            string                 `json:"text"`
}

// GetContextForQuery 为一条自然语言查询检索生成上下文：
// 相似历史查询、提及表的结构上下文、多表连接建议。
// 空白输入返回空载荷，不算错误。降级状态下模式段标记为不可用，
// 相似查询照常返回。
func (e *Engine) GetContextForQuery(queryText string) (*ContextPayload, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == StateClosed {
		return nil, ErrEngineClosed
	}

	payload := &ContextPayload{State: e.state}
	if strings.TrimSpace(queryText) == "" {
		return payload, nil
	}

	payload.SimilarQueries = e.queries.FindSimilar(queryText, e.topK)

	in := renderer.ContextInput{Similar: payload.SimilarQueries}
	if e.state == StateDegraded {
		in.Degraded = true
	} else {
		e.fillSchemaSections(queryText, payload, &in)
	}

	payload.Text = e.renderer.Render(in)
	return payload, nil
}

// fillSchemaSections 抽取提及的表并填充模式相关段落
func (e *Engine) fillSchemaSections(queryText string, payload *ContextPayload, in *renderer.ContextInput) {
	var mentioned []string
	for _, term := range e.extractor.Extract(queryText) {
		if e.schema.HasTable(term) {
			mentioned = append(mentioned, term)
		}
	}
	if len(mentioned) == 0 {
		return
	}
	payload.MentionedTables = mentioned
	payload.SchemaContext = e.schema.SchemaContext(mentioned)
	if len(mentioned) >= 2 {
		payload.JoinSuggestions = e.schema.JoinSuggestions(mentioned)
	}

	// 结构段已含提及表及其一跳邻居，相关表只列更远的
	shown := make(map[string]bool)
	related := make(map[string]bool)
	for _, t := range mentioned {
		shown[t] = true
		for _, r := range e.schema.RelatedTables(t, 1) {
			shown[r] = true
		}
		for _, r := range e.schema.RelatedTables(t, e.maxHops) {
			related[r] = true
		}
	}
	var beyond []string
	for t := range related {
		if !shown[t] {
			beyond = append(beyond, t)
		}
	}
	sort.Strings(beyond)
	payload.RelatedTables = beyond

	in.SchemaContext = payload.SchemaContext
	in.RelatedTables = payload.RelatedTables
	in.Suggestions = payload.JoinSuggestions
}

// AddQueryResult 把一次成功的生成结果记入查询历史。
// entities 为 nil 时用引擎的抽取器从查询文本补全，
// 实体词按模式图归类为 table:/column:/entity: 提及目标。
func (e *Engine) AddQueryResult(queryText, sqlText, resultSummary string, entities []string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == StateClosed {
		return ErrEngineClosed
	}
	if entities == nil {
		entities = e.extractor.Extract(queryText)
	}
	e.queries.AddQuery(queryText, sqlText, resultSummary, e.resolveTargets(entities))
	return nil
}

// resolveTargets 把实体词映射为提及目标标识
func (e *Engine) resolveTargets(entities []string) []string {
	targets := make([]string, 0, len(entities))
	for _, term := range entities {
		switch {
		case strings.Contains(term, ":"):
			targets = append(targets, term) // 已带前缀
		case strings.Contains(term, "."):
			targets = append(targets, "column:"+term)
		case e.schema != nil && e.schema.HasTable(term):
			targets = append(targets, "table:"+term)
		default:
			targets = append(targets, "entity:"+term)
		}
	}
	return targets
}

// SaveGraph 把两张图编码为版本化文档写入存储
func (e *Engine) SaveGraph(path string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == StateClosed {
		return ErrEngineClosed
	}
	return e.saveLocked(path)
}

func (e *Engine) saveLocked(path string) error {
	doc, err := graph.Encode(e.schema, e.queries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceIO, err)
	}
	if err := e.snapshots.Save(path, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceIO, err)
	}
	logger.Info("图快照已保存", "path", path, "queries", e.queries.QueryCount())
	return nil
}

// LoadGraph 从存储恢复图。快照不存在视为首次启动，直接跳过。
// 文档版本不符或解码失败返回 ErrFormatMismatch，现有图原样保留。
// 模式校验和不符时从实时来源重建模式图，过期的模式数据不会被使用，
// 查询历史照常恢复。
func (e *Engine) LoadGraph(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return ErrEngineClosed
	}

	doc, err := e.snapshots.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("快照不存在，跳过恢复", "path", path)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistenceIO, err)
	}

	if doc.Version != graph.FormatVersion {
		logger.Warn("快照版本不符，丢弃快照",
			"path", path, "version", doc.Version, "expected", graph.FormatVersion)
		return fmt.Errorf("%w: version %d, expected %d", ErrFormatMismatch, doc.Version, graph.FormatVersion)
	}

	restored := graph.NewQueryGraph(e.processor, e.threshold)
	if err := graph.DecodeQuerySection(doc, restored); err != nil {
		logger.Warn("快照解码失败，丢弃快照", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrFormatMismatch, err)
	}

	if e.schema == nil || doc.SchemaChecksum != e.schema.Checksum() {
		rebuilt, err := introspectAndBuild(e.source)
		if err != nil {
			logger.Warn("模式校验和不符且重建失败，保留现有模式图", "error", err)
		} else {
			e.schema = rebuilt
			e.state = StateReady
			if e.defaultExtractor {
				e.extractor = analyzer.NewLexicalExtractor(rebuilt.Tables(), nil)
			}
			logger.Info("模式校验和不符，已从实时来源重建模式图",
				"tables", rebuilt.TableCount(), "edges", rebuilt.EdgeCount())
		}
	}

	e.queries = restored
	logger.Info("图快照已恢复", "path", path, "queries", restored.QueryCount())
	return nil
}

// Close 关闭引擎并释放模式来源。配置了快照路径时先刷写两张图。
// 重复关闭无害。
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return nil
	}

	var err error
	if e.snapshotPath != "" {
		err = e.saveLocked(e.snapshotPath)
	}
	if cerr := e.source.Close(); cerr != nil && err == nil {
		err = cerr
	}
	e.state = StateClosed
	logger.Info("引擎已关闭")
	return err
}

// State 当前状态
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Schema 当前模式图，降级状态下为 nil。图本身只读，可安全共享。
func (e *Engine) Schema() *graph.SchemaGraph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema
}

// Stats 图规模统计
type Stats struct {
	State           State `json:"state"`
	Tables          int   `json:"tables"`
	SchemaEdges     int   `json:"schema_edges"`
	Queries         int   `json:"queries"`
	QueryNodes      int   `json:"query_nodes"`
	SimilarityEdges int   `json:"similarity_edges"`
	MentionEdges    int   `json:"mention_edges"`
}

// Stats 汇总两张图的规模，关闭后仍可读取
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{State: e.state}
	if e.schema != nil {
		s.Tables = e.schema.TableCount()
		s.SchemaEdges = e.schema.EdgeCount()
	}
	s.Queries = e.queries.QueryCount()
	s.QueryNodes = e.queries.NodeCount()
	s.SimilarityEdges = e.queries.SimilarityEdgeCount()
	s.MentionEdges = e.queries.MentionEdgeCount()
	return s
}
