package httpclient

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/logx"
	"github.com/imattdu/fntrace/tracex"
)

// WithTracePropagation 每次请求带上 ctx 中的 GeneratedHeaders；
// ctx 里没有时用 otel 全局 propagator 注入当前 span。
func WithTracePropagation() Option {
	return func(c *Config) { c.PropagateTrace = true }
}

func propagateTrace(ctx context.Context, req *http.Request) {
	headers := tracex.GeneratedHeadersFromContext(ctx)
	if len(headers) == 0 {
		if trace.SpanContextFromContext(ctx).IsValid() {
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
		}
		return
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// LogStats 调用结果写日志：成功 http_success，失败 http_failure。l 为 nil 时用 logx.L()
func LogStats(l logx.Logger) StatsHook {
	return func(ctx context.Context, s *CallStats) {
		logger := l
		if logger == nil {
			logger = logx.L()
		}
		kv := []any{
			logx.Method, s.Method,
			logx.URL, s.URL,
			logx.Status, s.Status,
			logx.Cost, s.Cost.Milliseconds(),
			logx.Attempts, s.Attempts,
			logx.MaxAttempts, s.MaxAttempts,
		}
		if s.Body != "" {
			kv = append(kv, logx.Body, s.Body)
		}
		if len(s.TraceHeaders) > 0 {
			kv = append(kv, "trace_headers", s.TraceHeaders)
		}
		if s.Failed() {
			kv = append(kv, "attempts_log", s.AttemptsLog)
			logger.Warn(ctx, logx.TagHttpFailure, s.Err, kv...)
			return
		}
		logger.Info(ctx, logx.TagHttpSuccess, "ok", kv...)
	}
}
