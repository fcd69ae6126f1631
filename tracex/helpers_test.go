package tracex

import (
	"context"
	"sync"

	"github.com/imattdu/fntrace/logx"
)

type logEntry struct {
	level string
	tag   string
	msg   any
	kv    []any
}

// recordLogger 记录所有日志，测试断言用
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

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Disabled = true
	return cfg
}
