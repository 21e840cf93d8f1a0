package graph

import (
	"reflect"
	"strings"
	"testing"

	"text2sql-context/internal/adapter"
)

// chainMeta 四表链式模型：users -> orders -> order_items -> products
func chainMeta() (*adapter.SchemaMetadata, []adapter.ForeignKey) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{Name: "users", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
			}},
			{Name: "orders", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "user_id", DataType: "int"},
			}},
			{Name: "order_items", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "order_id", DataType: "int"},
				{Name: "product_id", DataType: "int"},
			}},
			{Name: "products", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
			}},
		},
	}
	fks := []adapter.ForeignKey{
		{FromTable: "orders", FromColumn: "user_id", ToTable: "users", ToColumn: "id"},
		{FromTable: "order_items", FromColumn: "order_id", ToTable: "orders", ToColumn: "id"},
		{FromTable: "order_items", FromColumn: "product_id", ToTable: "products", ToColumn: "id"},
	}
	return meta, fks
}

// lookMeta 电商模型，列裁剪到结构相关的部分
func lookMeta() (*adapter.SchemaMetadata, []adapter.ForeignKey) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{Name: "distribution_centers", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "name", DataType: "varchar", Length: 255},
			}},
			{Name: "events", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "user_id", DataType: "int"},
				{Name: "event_type", DataType: "varchar", Length: 255},
			}},
			{Name: "inventory_items", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "product_id", DataType: "int"},
				{Name: "product_distribution_center_id", DataType: "int"},
			}},
			{Name: "order_items", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "order_id", DataType: "int"},
				{Name: "user_id", DataType: "int"},
				{Name: "product_id", DataType: "int"},
				{Name: "inventory_item_id", DataType: "int"},
			}},
			{Name: "orders", Columns: []adapter.Column{
				{Name: "order_id", DataType: "int", IsPrimaryKey: true},
				{Name: "user_id", DataType: "int"},
				{Name: "status", DataType: "varchar", Length: 255},
			}},
			{Name: "products", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "category", DataType: "varchar", Length: 255},
				{Name: "distribution_center_id", DataType: "int"},
			}},
			{Name: "users", Columns: []adapter.Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "state", DataType: "varchar", Length: 255},
			}},
		},
	}
	fks := []adapter.ForeignKey{
		{FromTable: "events", FromColumn: "user_id", ToTable: "users", ToColumn: "id"},
		{FromTable: "inventory_items", FromColumn: "product_id", ToTable: "products", ToColumn: "id"},
		{FromTable: "inventory_items", FromColumn: "product_distribution_center_id", ToTable: "distribution_centers", ToColumn: "id"},
		{FromTable: "order_items", FromColumn: "order_id", ToTable: "orders", ToColumn: "order_id"},
		{FromTable: "order_items", FromColumn: "user_id", ToTable: "users", ToColumn: "id"},
		{FromTable: "order_items", FromColumn: "product_id", ToTable: "products", ToColumn: "id"},
		{FromTable: "order_items", FromColumn: "inventory_item_id", ToTable: "inventory_items", ToColumn: "id"},
		{FromTable: "orders", FromColumn: "user_id", ToTable: "users", ToColumn: "id"},
		{FromTable: "products", FromColumn: "distribution_center_id", ToTable: "distribution_centers", ToColumn: "id"},
	}
	return meta, fks
}

func chainGraph() *SchemaGraph {
	meta, fks := chainMeta()
	return BuildSchemaGraph(meta, fks, nil)
}

func lookGraph() *SchemaGraph {
	meta, fks := lookMeta()
	return BuildSchemaGraph(meta, fks, nil)
}

func TestJoinPathChain(t *testing.T) {
	g := chainGraph()

	path := g.JoinPath("users", "products")
	expected := []string{"users", "orders", "order_items", "products"}
	if !reflect.DeepEqual(path, expected) {
		t.Fatalf("expected %v, got %v", expected, path)
	}
}

func TestJoinPathReversal(t *testing.T) {
	graphs := map[string]*SchemaGraph{
		"chain": chainGraph(),
		"look":  lookGraph(),
	}

	for name, g := range graphs {
		t.Run(name, func(t *testing.T) {
			tables := g.Tables()
			for _, a := range tables {
				for _, b := range tables {
					forward := g.JoinPath(a, b)
					backward := g.JoinPath(b, a)
					if len(forward) != len(backward) {
						t.Fatalf("length mismatch for (%s,%s): %v vs %v", a, b, forward, backward)
					}
					for i := range forward {
						if forward[i] != backward[len(backward)-1-i] {
							t.Fatalf("not reversed for (%s,%s): %v vs %v", a, b, forward, backward)
						}
					}
				}
			}
		})
	}
}

func TestJoinPathEdgeCases(t *testing.T) {
	g := chainGraph()

	tests := []struct {
		name     string
		a, b     string
		expected []string
	}{
		{"same_table", "users", "users", []string{"users"}},
		{"unknown_left", "ghost", "users", nil},
		{"unknown_right", "users", "ghost", nil},
		{"adjacent", "orders", "users", []string{"orders", "users"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.JoinPath(tt.a, tt.b)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestJoinPathDisconnected(t *testing.T) {
	meta, fks := chainMeta()
	meta.Tables = append(meta.Tables, adapter.Table{
		Name:    "audit_log",
		Columns: []adapter.Column{{Name: "id", DataType: "int", IsPrimaryKey: true}},
	})
	g := BuildSchemaGraph(meta, fks, nil)

	if path := g.JoinPath("users", "audit_log"); path != nil {
		t.Errorf("expected nil for disconnected tables, got %v", path)
	}
}

func TestRelatedTables(t *testing.T) {
	chain := chainGraph()
	look := lookGraph()

	tests := []struct {
		name     string
		g        *SchemaGraph
		table    string
		maxHops  int
		expected []string
	}{
		{"zero_hops", chain, "users", 0, nil},
		{"negative_hops", chain, "users", -1, nil},
		{"unknown_table", chain, "ghost", 2, nil},
		{"one_hop", chain, "users", 1, []string{"orders"}},
		{"two_hops", chain, "users", 2, []string{"orders", "order_items"}},
		{"beyond_diameter", chain, "users", 10, []string{"orders", "order_items", "products"}},
		{"look_one_hop", look, "users", 1, []string{"events", "order_items", "orders"}},
		{"look_two_hops", look, "users", 2, []string{"events", "order_items", "orders", "inventory_items", "products"}},
		{"look_three_hops", look, "users", 3, []string{"events", "order_items", "orders", "inventory_items", "products", "distribution_centers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.g.RelatedTables(tt.table, tt.maxHops)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestJoinSuggestions(t *testing.T) {
	g := lookGraph()

	suggestions := g.JoinSuggestions([]string{"users", "products", "distribution_centers"})
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d: %+v", len(suggestions), suggestions)
	}

	first := suggestions[0]
	if first.From != "distribution_centers" || first.To != "products" {
		t.Errorf("unexpected first suggestion: %+v", first)
	}
	if !reflect.DeepEqual(first.Path, []string{"distribution_centers", "products"}) {
		t.Errorf("unexpected first path: %v", first.Path)
	}
	if !reflect.DeepEqual(first.Conditions, []string{"products.distribution_center_id = distribution_centers.id"}) {
		t.Errorf("unexpected first conditions: %v", first.Conditions)
	}

	second := suggestions[1]
	if second.From != "products" || second.To != "users" {
		t.Errorf("unexpected second suggestion: %+v", second)
	}
	if !reflect.DeepEqual(second.Path, []string{"products", "order_items", "users"}) {
		t.Errorf("unexpected second path: %v", second.Path)
	}
	expectedConds := []string{
		"order_items.product_id = products.id",
		"order_items.user_id = users.id",
	}
	if !reflect.DeepEqual(second.Conditions, expectedConds) {
		t.Errorf("unexpected second conditions: %v", second.Conditions)
	}
}

func TestJoinSuggestionsEdgeCases(t *testing.T) {
	g := chainGraph()

	tests := []struct {
		name   string
		tables []string
	}{
		{"empty", nil},
		{"single", []string{"users"}},
		{"duplicates_collapse", []string{"users", "users"}},
		{"unknown_filtered", []string{"users", "ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.JoinSuggestions(tt.tables); got != nil {
				t.Errorf("expected nil, got %+v", got)
			}
		})
	}
}

func TestJoinSuggestionsDisconnected(t *testing.T) {
	meta, fks := chainMeta()
	meta.Tables = append(meta.Tables, adapter.Table{
		Name:    "audit_log",
		Columns: []adapter.Column{{Name: "id", DataType: "int", IsPrimaryKey: true}},
	})
	g := BuildSchemaGraph(meta, fks, nil)

	// audit_log 不可达，贪心合并到无候选为止
	suggestions := g.JoinSuggestions([]string{"audit_log", "users", "products"})
	for _, s := range suggestions {
		if s.To == "audit_log" || s.From == "audit_log" {
			t.Errorf("disconnected table must not appear in suggestions: %+v", s)
		}
	}
}

func TestSchemaContext(t *testing.T) {
	g := chainGraph()

	got := g.SchemaContext([]string{"orders"})
	expected := strings.Join([]string{
		"Table: orders",
		"  - id (int, primary key)",
		"  - user_id (int)",
		"  - References users via user_id",
		"Table: order_items",
		"  - id (int, primary key)",
		"  - order_id (int)",
		"  - product_id (int)",
		"  - References orders via order_id",
		"  - References products via product_id",
		"Table: users",
		"  - id (int, primary key)",
	}, "\n")
	if got != expected {
		t.Errorf("unexpected context:\n%s\n--- expected ---\n%s", got, expected)
	}
}

func TestSchemaContextRequestedOrder(t *testing.T) {
	g := chainGraph()

	got := g.SchemaContext([]string{"products", "users", "products", "ghost"})
	if !strings.HasPrefix(got, "Table: products") {
		t.Errorf("requested tables must come first:\n%s", got)
	}
	if strings.Count(got, "Table: products") != 1 {
		t.Errorf("duplicate input must render once:\n%s", got)
	}
	if strings.Contains(got, "ghost") {
		t.Errorf("unknown table must be ignored:\n%s", got)
	}
}

func TestSchemaContextEmpty(t *testing.T) {
	g := chainGraph()

	if got := g.SchemaContext(nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

func TestComputeChecksum(t *testing.T) {
	meta, fks := chainMeta()

	first := ComputeChecksum(meta, fks)
	second := ComputeChecksum(meta, fks)
	if first != second {
		t.Error("checksum must be deterministic")
	}

	// 表顺序无关
	shuffled := &adapter.SchemaMetadata{
		Tables: []adapter.Table{meta.Tables[3], meta.Tables[0], meta.Tables[2], meta.Tables[1]},
	}
	if ComputeChecksum(shuffled, fks) != first {
		t.Error("checksum must not depend on table order")
	}

	// 结构变更可检测
	extended := &adapter.SchemaMetadata{Tables: append([]adapter.Table{}, meta.Tables...)}
	extended.Tables[0] = adapter.Table{
		Name: "users",
		Columns: append(append([]adapter.Column{}, meta.Tables[0].Columns...),
			adapter.Column{Name: "email", DataType: "varchar", Length: 255}),
	}
	if ComputeChecksum(extended, fks) == first {
		t.Error("column change must alter checksum")
	}
	if ComputeChecksum(meta, fks[:2]) == first {
		t.Error("foreign key change must alter checksum")
	}
}

func TestBuildSchemaGraph(t *testing.T) {
	meta, fks := chainMeta()
	inferred := []*SchemaEdge{
		// 已声明外键覆盖的列不再加推断边
		{Type: EdgeTypeImplicitJoin, From: "orders", To: "users", FromColumn: "user_id", ToColumn: "id", Weight: 1, Confidence: 0.8},
		// 未知表的推断边被忽略
		{Type: EdgeTypeImplicitJoin, From: "orders", To: "ghost", FromColumn: "ghost_id", ToColumn: "id", Weight: 1, Confidence: 0.8},
	}
	g := BuildSchemaGraph(meta, fks, inferred)

	if g.TableCount() != 4 {
		t.Errorf("expected 4 tables, got %d", g.TableCount())
	}
	if g.EdgeCount() != 3 {
		t.Errorf("expected 3 edges, got %d", g.EdgeCount())
	}

	col := g.Table("orders").Columns[1]
	if col.Name != "user_id" || !col.IsForeignKey {
		t.Errorf("user_id must be marked as foreign key: %+v", col)
	}
	if col.References == nil || col.References.Table != "users" || col.References.Column != "id" {
		t.Errorf("unexpected reference: %+v", col.References)
	}

	if !g.HasTable("users") || g.HasTable("ghost") {
		t.Error("table lookup mismatch")
	}
}

func TestBuildSchemaGraphInferredEdge(t *testing.T) {
	meta, _ := chainMeta()
	inferred := []*SchemaEdge{
		{Type: EdgeTypeImplicitJoin, From: "orders", To: "users", FromColumn: "user_id", ToColumn: "id", Weight: 1, Confidence: 0.845},
	}
	g := BuildSchemaGraph(meta, nil, inferred)

	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
	path := g.JoinPath("orders", "users")
	if !reflect.DeepEqual(path, []string{"orders", "users"}) {
		t.Errorf("inferred edge must be traversable, got %v", path)
	}
}
