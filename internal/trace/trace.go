package trace

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Step 单个处理阶段的记录
type Step struct {
	Name       string    `json:"name"`
	Detail     string    `json:"detail,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
}

// Trace 一次问题处理的执行轨迹。单请求单协程使用，不加锁。
type Trace struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	StartedAt time.Time `json:"started_at"`
	Steps     []Step    `json:"steps"`
	SQL       []string  `json:"sql_queries,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

// New 开始一条轨迹
func New(question string) *Trace {
	return &Trace{
		ID:        fmt.Sprintf("trace_%d", time.Now().UnixNano()),
		Question:  question,
		StartedAt: time.Now(),
	}
}

// AddStep 记录一个从 start 开始、现在结束的阶段
func (t *Trace) AddStep(name, detail string, start time.Time) {
	t.Steps = append(t.Steps, Step{
		Name:       name,
		Detail:     detail,
		StartedAt:  start,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// AddSQL 记录提取到的 SQL 语句
func (t *Trace) AddSQL(sql string) {
	t.SQL = append(t.SQL, sql)
}

// AddError 记录处理中的错误
func (t *Trace) AddError(err error) {
	if err != nil {
		t.Errors = append(t.Errors, err.Error())
	}
}

// Finish 结束轨迹并计入总耗时
func (t *Trace) Finish() {
	t.ElapsedMS = float64(time.Since(t.StartedAt).Microseconds()) / 1000
}

var (
	fencedSQL = regexp.MustCompile("(?is)```sql\\s*(.*?)```")
	bareSQL   = regexp.MustCompile(`(?is)(?:SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|WITH)\s+[^;]+(?:;|$)`)
)

// ExtractSQL 从自由文本中提取 SQL 语句。
// 优先取 markdown 代码块内容，没有代码块时回退到裸语句匹配。
func ExtractSQL(text string) []string {
	var out []string
	for _, m := range fencedSQL.FindAllStringSubmatch(text, -1) {
		if sql := trimStatement(m[1]); sql != "" {
			out = append(out, sql)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, m := range bareSQL.FindAllString(text, -1) {
		if sql := trimStatement(m); sql != "" {
			out = append(out, sql)
		}
	}
	return out
}

func trimStatement(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}
