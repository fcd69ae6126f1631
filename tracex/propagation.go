package tracex

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel/propagation"

	"github.com/imattdu/fntrace/errorx"
)

const (
	PropagatorJaeger       = "jaeger"       // uber-trace-id
	PropagatorTraceContext = "tracecontext" // traceparent / tracestate
	PropagatorBaggage      = "baggage"
	PropagatorOT           = "ot" // ot-tracer-*
)

// NewPropagator 按名字组装复合 propagator；Extract 时后面的覆盖前面的
func NewPropagator(names ...string) (propagation.TextMapPropagator, error) {
	ps := make([]propagation.TextMapPropagator, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || name == "none" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case PropagatorJaeger:
			ps = append(ps, jaeger.Jaeger{})
		case PropagatorTraceContext:
			ps = append(ps, propagation.TraceContext{})
		case PropagatorBaggage:
			ps = append(ps, propagation.Baggage{})
		case PropagatorOT:
			ps = append(ps, ot.OT{})
		default:
			return nil, errorx.New(errorx.ErrPropagator,
				errorx.WithService(errorx.ServiceTracer),
				errorx.WithField("propagator", raw))
		}
	}
	return propagation.NewCompositeTextMapPropagator(ps...), nil
}

// Extract 从入站 header 解析上游 SpanContext，没有则原样返回 ctx
func (t *Tracer) Extract(ctx context.Context, h http.Header) context.Context {
	if h == nil {
		return ctx
	}
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(h))
}

// Inject 把 ctx 中当前 span 编码成一组新的 header（GeneratedHeaders）
func (t *Tracer) Inject(ctx context.Context) map[string]string {
	headers := make(map[string]string, 4)
	t.propagator.Inject(ctx, propagation.MapCarrier(headers))
	return headers
}
