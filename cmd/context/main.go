package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"text2sql-context/internal/adapter"
	"text2sql-context/internal/demo"
	"text2sql-context/internal/engine"
	"text2sql-context/internal/renderer"
)

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "text2sql-context",
		Short: "SQL 生成上下文检索引擎",
		Long:  "基于模式关系图和查询历史图，为自然语言转 SQL 检索生成上下文",
	}

	rootCmd.AddCommand(newScanCmd(), newDemoCmd(), newAskCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newScanCmd() *cobra.Command {
	var (
		dbType    string
		dsn       string
		dbSchema  string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "扫描数据库，构建模式图并导出",
		Run: func(cmd *cobra.Command, args []string) {
			runScan(dbType, dsn, dbSchema, outputDir)
		},
	}
	cmd.Flags().StringVar(&dbType, "type", "sqlite", "数据库类型 (sqlite/mysql/sqlserver)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "连接串（SQLite 为文件路径）")
	cmd.Flags().StringVar(&dbSchema, "schema", "", "数据库 schema (MySQL 必需)")
	cmd.Flags().StringVar(&outputDir, "output", "./output", "输出目录")
	cmd.MarkFlagRequired("dsn")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		question  string
		graphPath string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "用内置 theLook 模式演示端到端流程",
		Run: func(cmd *cobra.Command, args []string) {
			runDemo(question, graphPath)
		},
	}
	cmd.Flags().StringVar(&question, "question", "show me total revenue by user state", "演示问题")
	cmd.Flags().StringVar(&graphPath, "graph", "", "非空时把图快照保存到该路径")
	return cmd
}

func newAskCmd() *cobra.Command {
	var (
		dbType    string
		dsn       string
		dbSchema  string
		question  string
		graphPath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "加载图快照，检索一条问题的上下文",
		Run: func(cmd *cobra.Command, args []string) {
			runAsk(dbType, dsn, dbSchema, question, graphPath, asJSON)
		},
	}
	cmd.Flags().StringVar(&dbType, "type", "sqlite", "数据库类型 (sqlite/mysql/sqlserver)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "连接串，留空时使用内置 theLook 模式")
	cmd.Flags().StringVar(&dbSchema, "schema", "", "数据库 schema (MySQL 必需)")
	cmd.Flags().StringVar(&question, "question", "", "自然语言问题")
	cmd.Flags().StringVar(&graphPath, "graph", "graph.json", "图快照路径")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出完整载荷")
	cmd.MarkFlagRequired("question")
	return cmd
}

// newSource 按参数创建模式来源，连接串留空时回退到内置演示模式
func newSource(dbType, dsn, dbSchema string) (adapter.SchemaSource, error) {
	if dsn == "" {
		return demo.TheLookSource(), nil
	}
	switch dbType {
	case "sqlite":
		return adapter.NewSQLiteAdapter(dsn)
	case "mysql":
		if dbSchema == "" {
			return nil, fmt.Errorf("mysql 需要指定 --schema 参数")
		}
		return adapter.NewMySQLAdapter(dsn, dbSchema)
	case "sqlserver":
		return adapter.NewSQLServerAdapter(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}

func runScan(dbType, dsn, dbSchema, outputDir string) {
	fmt.Println("🔍 开始扫描数据库...")

	source, err := newSource(dbType, dsn, dbSchema)
	if err != nil {
		log.Fatalf("创建模式来源失败: %v", err)
	}

	cfg := engine.LoadConfigFromEnv(engine.DefaultConfig(source))
	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("创建引擎失败: %v", err)
	}
	defer eng.Close()

	if eng.State() != engine.StateReady {
		log.Fatalf("模式自省失败，无法完成扫描")
	}

	schema := eng.Schema()
	fmt.Printf("✓ 发现 %d 个表，%d 条关系\n", schema.TableCount(), schema.EdgeCount())

	fmt.Println("\n📝 生成输出文件...")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("创建输出目录失败: %v", err)
	}

	mdContent := renderer.NewMarkdownRenderer().Render(schema)
	reportPath := filepath.Join(outputDir, "schema_report.md")
	if err := os.WriteFile(reportPath, []byte(mdContent), 0644); err != nil {
		log.Fatalf("写入 %s 失败: %v", reportPath, err)
	}
	fmt.Printf("✓ %s\n", reportPath)

	mermaidContent := renderer.NewMermaidRenderer().Render(schema)
	mermaidPath := filepath.Join(outputDir, "schema_graph.mmd")
	if err := os.WriteFile(mermaidPath, []byte(mermaidContent), 0644); err != nil {
		log.Fatalf("写入 %s 失败: %v", mermaidPath, err)
	}
	fmt.Printf("✓ %s\n", mermaidPath)

	snapshotPath := filepath.Join(outputDir, "graph.json")
	if err := eng.SaveGraph(snapshotPath); err != nil {
		log.Fatalf("保存图快照失败: %v", err)
	}
	fmt.Printf("✓ %s\n", snapshotPath)

	fmt.Println("\n✅ 扫描完成！")
}

func runDemo(question, graphPath string) {
	fmt.Println("🔨 构建 theLook 模式图...")

	cfg := engine.LoadConfigFromEnv(engine.DefaultConfig(demo.TheLookSource()))
	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("创建引擎失败: %v", err)
	}
	defer eng.Close()

	schema := eng.Schema()
	fmt.Printf("✓ %d 个表，%d 条推断关系\n", schema.TableCount(), schema.EdgeCount())

	fmt.Println("\n📚 回放示例查询历史...")
	for _, h := range demo.History() {
		if err := eng.AddQueryResult(h.Question, h.SQL, h.Result, nil); err != nil {
			log.Fatalf("写入查询历史失败: %v", err)
		}
	}
	stats := eng.Stats()
	fmt.Printf("✓ %d 条查询，%d 条相似边，%d 条提及边\n",
		stats.Queries, stats.SimilarityEdges, stats.MentionEdges)

	fmt.Printf("\n💬 问题: %s\n\n", question)
	payload, err := eng.GetContextForQuery(question)
	if err != nil {
		log.Fatalf("检索上下文失败: %v", err)
	}
	fmt.Println(payload.Text)

	if graphPath != "" {
		if err := eng.SaveGraph(graphPath); err != nil {
			log.Fatalf("保存图快照失败: %v", err)
		}
		fmt.Printf("\n✓ 图快照已保存到 %s\n", graphPath)
	}

	fmt.Println("\n✅ 演示完成！")
}

func runAsk(dbType, dsn, dbSchema, question, graphPath string, asJSON bool) {
	source, err := newSource(dbType, dsn, dbSchema)
	if err != nil {
		log.Fatalf("创建模式来源失败: %v", err)
	}

	cfg := engine.LoadConfigFromEnv(engine.DefaultConfig(source))
	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("创建引擎失败: %v", err)
	}
	defer eng.Close()

	if graphPath != "" {
		if err := eng.LoadGraph(graphPath); err != nil {
			log.Printf("加载图快照失败: %v", err)
		}
	}

	payload, err := eng.GetContextForQuery(question)
	if err != nil {
		log.Fatalf("检索上下文失败: %v", err)
	}

	if asJSON {
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			log.Fatalf("序列化载荷失败: %v", err)
		}
		fmt.Println(string(out))
		return
	}
	if payload.Text == "" {
		fmt.Println("（无可用上下文）")
		return
	}
	fmt.Println(payload.Text)
}
