package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/imattdu/fntrace/logx"
	"github.com/imattdu/fntrace/tracex"
)

type logEntry struct {
	level string
	tag   string
	msg   any
	kv    []any
}

type recordLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordLogger) add(level, tag string, msg any, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, tag: tag, msg: msg, kv: kv})
}

func (l *recordLogger) Debug(_ context.Context, tag string, msg any, kv ...any) {
	l.add("debug", tag, msg, kv)
}
func (l *recordLogger) Info(_ context.Context, tag string, msg any, kv ...any) {
	l.add("info", tag, msg, kv)
}
func (l *recordLogger) Warn(_ context.Context, tag string, msg any, kv ...any) {
	l.add("warn", tag, msg, kv)
}
func (l *recordLogger) Error(_ context.Context, tag string, msg any, kv ...any) {
	l.add("error", tag, msg, kv)
}

func (l *recordLogger) byTag(tag string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.tag == tag {
			out = append(out, e)
		}
	}
	return out
}

var _ logx.Logger = (*recordLogger)(nil)

// env 一个测试用的 gin 路由 + 内存 span 记录
type env struct {
	router   *gin.Engine
	recorder *tracetest.SpanRecorder
	provider *tracex.Provider
	logger   *recordLogger
	metrics  *Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := tracex.DefaultConfig()
	cfg.Disabled = true
	cfg.LogSpans = false

	e := &env{
		router:   gin.New(),
		recorder: tracetest.NewSpanRecorder(),
		logger:   &recordLogger{},
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	e.provider = tracex.NewProvider(cfg,
		tracex.WithSpanProcessor(e.recorder),
		tracex.WithLogger(e.logger))
	t.Cleanup(func() { _ = e.provider.Shutdown(context.Background()) })
	return e
}

func (e *env) options() []Option {
	return []Option{WithProvider(e.provider), WithLogger(e.logger), WithMetrics(e.metrics)}
}

func (e *env) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
