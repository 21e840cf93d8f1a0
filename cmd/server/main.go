package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"text2sql-context/internal/adapter"
	"text2sql-context/internal/demo"
	"text2sql-context/internal/engine"
	"text2sql-context/internal/ratelimit"
	"text2sql-context/internal/renderer"
	"text2sql-context/internal/trace"
	"text2sql-context/internal/validate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

var (
	eng     *engine.Engine
	limiter *ratelimit.Limiter
)

// QueryRequest 上下文检索请求
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse 上下文检索响应
type QueryResponse struct {
	TraceID string                 `json:"trace_id"`
	Context *engine.ContextPayload `json:"context"`
	Trace   *trace.Trace           `json:"trace"`
}

// FeedbackRequest 生成结果回写请求。SQL 为空时从 RawOutput 提取语句。
type FeedbackRequest struct {
	Question      string   `json:"question"`
	SQL           string   `json:"sql"`
	RawOutput     string   `json:"raw_output"`
	ResultSummary string   `json:"result_summary"`
	Entities      []string `json:"entities"`
}

func main() {
	godotenv.Load()

	source, err := newSource()
	if err != nil {
		log.Fatalf("创建模式来源失败: %v", err)
	}

	cfg := engine.LoadConfigFromEnv(engine.DefaultConfig(source))
	eng, err = engine.New(cfg)
	if err != nil {
		log.Fatalf("创建引擎失败: %v", err)
	}

	if cfg.SnapshotPath != "" {
		if err := eng.LoadGraph(cfg.SnapshotPath); err != nil {
			log.Printf("加载图快照失败: %v", err)
		}
	}

	limiter = ratelimit.NewLimiter(
		envInt("RATE_LIMIT_MAX", ratelimit.DefaultMaxRequests),
		time.Duration(envInt("RATE_LIMIT_WINDOW", 60))*time.Second,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", handleQuery)
	mux.HandleFunc("/api/feedback", handleFeedback)
	mux.HandleFunc("/api/state", handleState)
	mux.HandleFunc("/api/stats", handleStats)
	mux.HandleFunc("/api/schema/mermaid", handleSchemaMermaid)
	mux.HandleFunc("/api/schema/report", handleSchemaReport)
	mux.HandleFunc("/ws/watch", handleWatch)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		fmt.Printf("🚀 Text2SQL Context Server\n")
		fmt.Printf("📡 服务地址: http://localhost:%s\n", port)
		fmt.Printf("📊 引擎状态: %s\n\n", eng.State())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	fmt.Println("\n⏳ 正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP 服务关闭出错: %v", err)
	}
	if err := eng.Close(); err != nil {
		log.Printf("引擎关闭出错: %v", err)
	}
	fmt.Println("✅ 已退出")
}

// newSource 按环境变量创建模式来源，未配置连接串时使用内置演示模式
func newSource() (adapter.SchemaSource, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return demo.TheLookSource(), nil
	}

	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}
	switch dbType {
	case "sqlite":
		return adapter.NewSQLiteAdapter(dsn)
	case "mysql":
		schema := os.Getenv("DB_SCHEMA")
		if schema == "" {
			return nil, fmt.Errorf("mysql 需要设置 DB_SCHEMA")
		}
		return adapter.NewMySQLAdapter(dsn, schema)
	case "sqlserver":
		return adapter.NewSQLServerAdapter(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// handleQuery 检索一条问题的生成上下文
func handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if allowed, wait := limiter.Allow(clientKey(r)); !allowed {
		msg := fmt.Sprintf(
			"Rate limit exceeded. Please wait %d seconds before making another request. (Limit: %d requests per %d seconds)",
			int(wait.Seconds()), limiter.MaxRequests(), int(limiter.Window().Seconds()))
		writeError(w, http.StatusTooManyRequests, msg)
		return
	}

	question := validate.Sanitize(req.Question)
	tr := trace.New(question)

	start := time.Now()
	if err := validate.ValidateQuestion(question); err != nil {
		tr.AddError(err)
		tr.Finish()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tr.AddStep("validate_input", "", start)

	start = time.Now()
	payload, err := eng.GetContextForQuery(question)
	if err != nil {
		tr.AddError(err)
		tr.Finish()
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	tr.AddStep("retrieve_context",
		fmt.Sprintf("%d similar, %d tables", len(payload.SimilarQueries), len(payload.MentionedTables)),
		start)
	tr.Finish()

	writeJSON(w, http.StatusOK, QueryResponse{
		TraceID: tr.ID,
		Context: payload,
		Trace:   tr,
	})
}

// handleFeedback 把确认过的生成结果写回查询历史
func handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	question := validate.Sanitize(req.Question)
	if err := validate.ValidateQuestion(question); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sqlText := strings.TrimSpace(req.SQL)
	if sqlText == "" && req.RawOutput != "" {
		if stmts := trace.ExtractSQL(req.RawOutput); len(stmts) > 0 {
			sqlText = stmts[0]
		}
	}
	if sqlText == "" {
		writeError(w, http.StatusBadRequest, "no SQL statement found in feedback")
		return
	}

	if err := eng.AddQueryResult(question, sqlText, req.ResultSummary, req.Entities); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "recorded",
		"queries": eng.Stats().Queries,
	})
}

// handleState 引擎状态
func handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"state": eng.State()})
}

// handleStats 图规模统计
func handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, eng.Stats())
}

// handleSchemaMermaid 模式图的 Mermaid ER 描述
func handleSchemaMermaid(w http.ResponseWriter, r *http.Request) {
	schema := eng.Schema()
	if schema == nil {
		writeError(w, http.StatusServiceUnavailable, "schema graph unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, renderer.NewMermaidRenderer().Render(schema))
}

// handleSchemaReport 模式结构的 Markdown 报告
func handleSchemaReport(w http.ResponseWriter, r *http.Request) {
	schema := eng.Schema()
	if schema == nil {
		writeError(w, http.StatusServiceUnavailable, "schema graph unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, renderer.NewMarkdownRenderer().Render(schema))
}

// handleWatch 通过 WebSocket 持续推送图统计
func handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		stats := eng.Stats()
		if err := conn.WriteJSON(stats); err != nil {
			break
		}
		if stats.State == engine.StateClosed {
			break
		}
	}
}

// clientKey 请求方的限流标识，优先取转发头里的源地址
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
