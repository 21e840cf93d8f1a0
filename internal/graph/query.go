package graph

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"text2sql-context/internal/textproc"
)

// SimilarQuery 相似查询条目
type SimilarQuery struct {
	QueryText     string  `json:"query_text"`
	SQLText       string  `json:"sql_text"`
	ResultSummary string  `json:"result_summary"`
	Score         float64 `json:"similarity_score"`
}

// QueryGraph 查询历史图。只追加：进程生命周期内节点和边不修改、
// 不删除。写入彼此串行，读取并发进行。
type QueryGraph struct {
	mu        sync.RWMutex
	processor *textproc.Processor
	threshold float64

	nextID       int64
	queries      []*QueryNode
	sqls         map[int64]*SQLNode
	results      map[int64]*ResultNode
	similarities []*SimilarityEdge
	mentions     []*MentionEdge
}

// NewQueryGraph 创建空查询图
func NewQueryGraph(processor *textproc.Processor, threshold float64) *QueryGraph {
	return &QueryGraph{
		processor: processor,
		threshold: threshold,
		sqls:      make(map[int64]*SQLNode),
		results:   make(map[int64]*ResultNode),
	}
}

// AddQuery 追加一条查询记录：创建查询/SQL/结果三元组、记录提及边，
// 并与全部既有查询重算相似边（O(n)，接受的规模上限）。
// 提及目标形如 table:users / column:users.id / entity:revenue。
// 写锁贯穿节点插入与连边，读者不会看到连边未完成的节点。
func (g *QueryGraph) AddQuery(queryText, sqlText, resultSummary string, mentionTargets []string) *QueryNode {
	features := g.processor.Extract(queryText)
	normalized := g.processor.Normalize(queryText)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	node := &QueryNode{
		ID:             g.nextID,
		RawText:        queryText,
		NormalizedText: normalized,
		Features:       features,
		CreatedAt:      time.Now(),
	}
	g.queries = append(g.queries, node)
	g.sqls[node.ID] = &SQLNode{
		QueryID:     node.ID,
		Statement:   sqlText,
		Fingerprint: sqlFingerprint(sqlText),
	}
	g.results[node.ID] = &ResultNode{QueryID: node.ID, Summary: resultSummary}

	seen := make(map[string]bool)
	for _, target := range mentionTargets {
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		g.mentions = append(g.mentions, &MentionEdge{QueryID: node.ID, Target: target})
	}

	for _, other := range g.queries[:len(g.queries)-1] {
		score := textproc.Similarity(features, other.Features)
		if score >= g.threshold {
			g.similarities = append(g.similarities, &SimilarityEdge{
				A:     other.ID,
				B:     node.ID,
				Score: score,
			})
		}
	}

	return node
}

// FindSimilar 对输入文本打分并返回前 topK 条相似查询，不插入节点。
// 得分降序，平分时较新的排前。图为空时返回空，不报错。
func (g *QueryGraph) FindSimilar(queryText string, topK int) []SimilarQuery {
	if topK <= 0 {
		return nil
	}
	features := g.processor.Extract(queryText)

	g.mu.RLock()
	defer g.mu.RUnlock()

	type scored struct {
		node  *QueryNode
		score float64
	}
	var candidates []scored
	for _, node := range g.queries {
		score := textproc.Similarity(features, node.Features)
		if score > 0 {
			candidates = append(candidates, scored{node: node, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].node.CreatedAt.Equal(candidates[j].node.CreatedAt) {
			return candidates[i].node.CreatedAt.After(candidates[j].node.CreatedAt)
		}
		return candidates[i].node.ID > candidates[j].node.ID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]SimilarQuery, len(candidates))
	for i, c := range candidates {
		out[i] = SimilarQuery{
			QueryText: c.node.RawText,
			Score:     c.score,
		}
		if s := g.sqls[c.node.ID]; s != nil {
			out[i].SQLText = s.Statement
		}
		if r := g.results[c.node.ID]; r != nil {
			out[i].ResultSummary = r.Summary
		}
	}
	return out
}

// QueryCount 查询节点数量
func (g *QueryGraph) QueryCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.queries)
}

// NodeCount 节点总数（查询 + SQL + 结果）
func (g *QueryGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.queries) + len(g.sqls) + len(g.results)
}

// SimilarityEdgeCount 相似边数量
func (g *QueryGraph) SimilarityEdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.similarities)
}

// MentionEdgeCount 提及边数量
func (g *QueryGraph) MentionEdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.mentions)
}

// Similarities 相似边副本
func (g *QueryGraph) Similarities() []*SimilarityEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*SimilarityEdge, len(g.similarities))
	copy(out, g.similarities)
	return out
}

// snapshot 持久化编码用的一致视图。元素不可变，持锁复制容器即可。
func (g *QueryGraph) snapshot() (queries []*QueryNode, sqls map[int64]*SQLNode, results map[int64]*ResultNode, sims []*SimilarityEdge, mentions []*MentionEdge) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	queries = make([]*QueryNode, len(g.queries))
	copy(queries, g.queries)
	sims = make([]*SimilarityEdge, len(g.similarities))
	copy(sims, g.similarities)
	mentions = make([]*MentionEdge, len(g.mentions))
	copy(mentions, g.mentions)

	sqls = make(map[int64]*SQLNode, len(g.sqls))
	for id, node := range g.sqls {
		sqls[id] = node
	}
	results = make(map[int64]*ResultNode, len(g.results))
	for id, node := range g.results {
		results[id] = node
	}
	return queries, sqls, results, sims, mentions
}

// restore 从持久化文档整体替换图内容
func (g *QueryGraph) restore(queries []*QueryNode, sqls map[int64]*SQLNode, results map[int64]*ResultNode, sims []*SimilarityEdge, mentions []*MentionEdge) {
	if sqls == nil {
		sqls = make(map[int64]*SQLNode)
	}
	if results == nil {
		results = make(map[int64]*ResultNode)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.queries = queries
	g.sqls = sqls
	g.results = results
	g.similarities = sims
	g.mentions = mentions

	g.nextID = 0
	for _, q := range queries {
		if q.ID > g.nextID {
			g.nextID = q.ID
		}
	}
}

// sqlFingerprint 规范化语句的短指纹
func sqlFingerprint(sql string) string {
	normalized := strings.Join(strings.Fields(strings.ToUpper(sql)), " ")
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("%x", sum)[:8]
}
