package logx

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/cctx"
	"github.com/imattdu/fntrace/errorx"
)

// encodeLog 把 ctx / tag / msg / kv 整合成一组 slog.Attr
func encodeLog(ctx context.Context, tag string, msg any, kv ...any) []slog.Attr {
	attrs := make([]slog.Attr, 0, 16)

	if tag != "" {
		attrs = append(attrs, slog.String("tag", tag))
	}

	// caller
	c := getCaller()
	attrs = append(attrs,
		slog.String("file", c.file),
		slog.Int("line", c.line),
		slog.String("func", c.funcName),
	)

	// trace：取 ctx 中当前 span 的 SpanContext
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			attrs = append(attrs,
				slog.String(TraceID, sc.TraceID().String()),
				slog.String(SpanID, sc.SpanID().String()),
			)
		}
	}

	switch v := msg.(type) {
	case *errorx.Error:
		attrs = append(attrs,
			slog.Int("code", v.Code.Code),
			slog.String("code_msg", v.Code.Message),
			slog.String("err_type", v.Type.Message),
			slog.String("service", v.Service.Message),
		)
		for k, vv := range v.Fields {
			attrs = append(attrs, slog.Any(k, vv))
		}
		if v.Message != "" {
			attrs = append(attrs, slog.String("msg", v.Message))
		}
		if v.Cause != nil {
			attrs = append(attrs, slog.String("error", v.Cause.Error()))
		}
	case error:
		attrs = append(attrs, slog.String("error", v.Error()))
	default:
		attrs = append(attrs, slog.Any("msg", v))
	}

	// cctx 中的通用字段（function_name 等）
	if ctx != nil {
		for k, v := range cctx.All(ctx) {
			attrs = append(attrs, slog.Any(k, v))
		}
	}

	// 额外 kv（必须是偶数个）
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(k, kv[i+1]))
	}

	return attrs
}
