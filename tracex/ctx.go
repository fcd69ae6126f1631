package tracex

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/cctx"
)

const (
	functionNameKey     = "function_name"
	generatedHeadersKey = "generated_headers"
)

// SpanFromContext 取当前 ctx 中的 span，没有时返回 no-op span
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// TraceIDFromContext 直接取 TraceID（没有则返回空串）
func TraceIDFromContext(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// WithRequest 把函数名和 GeneratedHeaders 写入 ctx，供 handler 和下游调用使用
func WithRequest(ctx context.Context, functionName string, headers map[string]string) context.Context {
	return cctx.WithMany(ctx, map[string]any{
		functionNameKey:     functionName,
		generatedHeadersKey: headers,
	})
}

// FunctionNameFromContext 当前请求的函数名
func FunctionNameFromContext(ctx context.Context) string {
	name, _ := cctx.GetAs[string](ctx, functionNameKey)
	return name
}

// GeneratedHeadersFromContext 当前 span 注入得到的 header（副本），没有时为 nil
func GeneratedHeadersFromContext(ctx context.Context) map[string]string {
	h, ok := cctx.GetAs[map[string]string](ctx, generatedHeadersKey)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
