package tracex

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/imattdu/fntrace/logx"
)

// SpanHook span 结束时回调，例如打日志、统计
type SpanHook func(span sdktrace.ReadOnlySpan)

// hookProcessor 把结束的 span 交给日志和 hooks；不做导出
type hookProcessor struct {
	logger logx.Logger
	hooks  []SpanHook
}

var _ sdktrace.SpanProcessor = (*hookProcessor)(nil)

func (p *hookProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *hookProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.logger != nil {
		sc := s.SpanContext()
		kv := []any{
			logx.SpanName, s.Name(),
			logx.TraceID, sc.TraceID().String(),
			logx.SpanID, sc.SpanID().String(),
			logx.Cost, s.EndTime().Sub(s.StartTime()).Milliseconds(),
		}
		if parent := s.Parent(); parent.IsValid() {
			kv = append(kv, logx.ParentSpanID, parent.SpanID().String())
		}
		if svc, ok := s.Resource().Set().Value(semconv.ServiceNameKey); ok {
			kv = append(kv, logx.Service, svc.AsString())
		}
		p.logger.Info(context.Background(), logx.TagSpanFinish, "span reported", kv...)
	}
	for _, h := range p.hooks {
		h(s)
	}
}

func (p *hookProcessor) Shutdown(context.Context) error   { return nil }
func (p *hookProcessor) ForceFlush(context.Context) error { return nil }
