package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FormatVersion 持久化文档格式版本
const FormatVersion = 1

// Document 图持久化文档：版本号、模式校验和，以及两个图的节点与边
type Document struct {
	Version        int       `json:"version"`
	SchemaChecksum string    `json:"schema_checksum"`
	SavedAt        time.Time `json:"saved_at"`
	SchemaGraph    Section   `json:"schema_graph"`
	QueryGraph     Section   `json:"query_graph"`
}

// Section 节点与边列表
type Section struct {
	Nodes []DocNode `json:"nodes"`
	Edges []DocEdge `json:"edges"`
}

// DocNode 文档节点
type DocNode struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// DocEdge 文档边
type DocEdge struct {
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Type       string          `json:"type"`
	Weight     float64         `json:"weight"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

type schemaEdgeAttrs struct {
	FromColumn string  `json:"from_column"`
	ToColumn   string  `json:"to_column"`
	Confidence float64 `json:"confidence"`
}

// Encode 把两个图编码为持久化文档
func Encode(schema *SchemaGraph, queries *QueryGraph) (*Document, error) {
	doc := &Document{
		Version: FormatVersion,
		SavedAt: time.Now(),
	}

	if schema != nil {
		doc.SchemaChecksum = schema.Checksum()
		section, err := encodeSchemaSection(schema)
		if err != nil {
			return nil, err
		}
		doc.SchemaGraph = section
	}
	if queries != nil {
		section, err := encodeQuerySection(queries)
		if err != nil {
			return nil, err
		}
		doc.QueryGraph = section
	}
	return doc, nil
}

func encodeSchemaSection(g *SchemaGraph) (Section, error) {
	var section Section

	for _, name := range g.tableNames {
		attrs, err := json.Marshal(g.tables[name])
		if err != nil {
			return section, err
		}
		section.Nodes = append(section.Nodes, DocNode{
			ID:         "table:" + name,
			Type:       "table",
			Attributes: attrs,
		})
	}

	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		if edges[i].FromColumn != edges[j].FromColumn {
			return edges[i].FromColumn < edges[j].FromColumn
		}
		return edges[i].ToColumn < edges[j].ToColumn
	})
	for _, e := range edges {
		attrs, err := json.Marshal(schemaEdgeAttrs{
			FromColumn: e.FromColumn,
			ToColumn:   e.ToColumn,
			Confidence: e.Confidence,
		})
		if err != nil {
			return section, err
		}
		section.Edges = append(section.Edges, DocEdge{
			Source:     "table:" + e.From,
			Target:     "table:" + e.To,
			Type:       string(e.Type),
			Weight:     e.Weight,
			Attributes: attrs,
		})
	}
	return section, nil
}

func encodeQuerySection(g *QueryGraph) (Section, error) {
	queries, sqls, results, sims, mentions := g.snapshot()

	var section Section
	for _, q := range queries {
		attrs, err := json.Marshal(q)
		if err != nil {
			return section, err
		}
		section.Nodes = append(section.Nodes, DocNode{
			ID:         queryNodeID(q.ID),
			Type:       "query",
			Attributes: attrs,
		})

		if s := sqls[q.ID]; s != nil {
			attrs, err := json.Marshal(s)
			if err != nil {
				return section, err
			}
			section.Nodes = append(section.Nodes, DocNode{
				ID:         fmt.Sprintf("sql:%d", q.ID),
				Type:       "sql",
				Attributes: attrs,
			})
			section.Edges = append(section.Edges, DocEdge{
				Source: queryNodeID(q.ID),
				Target: fmt.Sprintf("sql:%d", q.ID),
				Type:   string(EdgeTypeProduces),
				Weight: 1,
			})
		}
		if r := results[q.ID]; r != nil {
			attrs, err := json.Marshal(r)
			if err != nil {
				return section, err
			}
			section.Nodes = append(section.Nodes, DocNode{
				ID:         fmt.Sprintf("result:%d", q.ID),
				Type:       "result",
				Attributes: attrs,
			})
			section.Edges = append(section.Edges, DocEdge{
				Source: fmt.Sprintf("sql:%d", q.ID),
				Target: fmt.Sprintf("result:%d", q.ID),
				Type:   string(EdgeTypeProduces),
				Weight: 1,
			})
		}
	}

	for _, s := range sims {
		section.Edges = append(section.Edges, DocEdge{
			Source: queryNodeID(s.A),
			Target: queryNodeID(s.B),
			Type:   string(EdgeTypeSimilarTo),
			Weight: s.Score,
		})
	}
	for _, m := range mentions {
		section.Edges = append(section.Edges, DocEdge{
			Source: queryNodeID(m.QueryID),
			Target: m.Target,
			Type:   string(EdgeTypeMentions),
			Weight: 1,
		})
	}
	return section, nil
}

// DecodeQuerySection 从文档恢复查询图内容，整体替换现有状态。
// 调用方负责先校验文档版本。
func DecodeQuerySection(doc *Document, g *QueryGraph) error {
	var queries []*QueryNode
	sqls := make(map[int64]*SQLNode)
	results := make(map[int64]*ResultNode)

	for _, n := range doc.QueryGraph.Nodes {
		switch n.Type {
		case "query":
			var q QueryNode
			if err := json.Unmarshal(n.Attributes, &q); err != nil {
				return fmt.Errorf("failed to decode query node %s: %w", n.ID, err)
			}
			queries = append(queries, &q)
		case "sql":
			var s SQLNode
			if err := json.Unmarshal(n.Attributes, &s); err != nil {
				return fmt.Errorf("failed to decode sql node %s: %w", n.ID, err)
			}
			sqls[s.QueryID] = &s
		case "result":
			var r ResultNode
			if err := json.Unmarshal(n.Attributes, &r); err != nil {
				return fmt.Errorf("failed to decode result node %s: %w", n.ID, err)
			}
			results[r.QueryID] = &r
		}
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].ID < queries[j].ID })

	var sims []*SimilarityEdge
	var mentions []*MentionEdge
	for _, e := range doc.QueryGraph.Edges {
		switch EdgeType(e.Type) {
		case EdgeTypeSimilarTo:
			a, err := parseQueryNodeID(e.Source)
			if err != nil {
				return err
			}
			b, err := parseQueryNodeID(e.Target)
			if err != nil {
				return err
			}
			sims = append(sims, &SimilarityEdge{A: a, B: b, Score: e.Weight})
		case EdgeTypeMentions:
			id, err := parseQueryNodeID(e.Source)
			if err != nil {
				return err
			}
			mentions = append(mentions, &MentionEdge{QueryID: id, Target: e.Target})
		}
	}

	g.restore(queries, sqls, results, sims, mentions)
	return nil
}

func queryNodeID(id int64) string {
	return fmt.Sprintf("query:%d", id)
}

func parseQueryNodeID(nodeID string) (int64, error) {
	raw, ok := strings.CutPrefix(nodeID, "query:")
	if !ok {
		return 0, fmt.Errorf("not a query node id: %s", nodeID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid query node id %s: %w", nodeID, err)
	}
	return id, nil
}
