package tracex

import (
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/errorx"
)

// TraceIDFromEventID 把 UUID 形式的 eventID 转成 128 bit TraceID（大端，即 UUID 的整数值）
//
//	e8400000-e29b-41d4-a716-446655440000 -> e8400000e29b41d4a716446655440000
func TraceIDFromEventID(eventID string) (trace.TraceID, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return trace.TraceID{}, errorx.NewBiz(errorx.ErrEventIDMissing, errorx.WithService(errorx.ServiceTracer))
	}

	u, err := uuid.Parse(eventID)
	if err != nil {
		return trace.TraceID{}, errorx.NewBiz(errorx.ErrEventIDMalformed,
			errorx.WithService(errorx.ServiceTracer),
			errorx.WithCause(err),
			errorx.WithField("event_id", eventID))
	}

	id := trace.TraceID(u)
	if !id.IsValid() {
		// 全 0 的 UUID 不是合法 TraceID
		return trace.TraceID{}, errorx.NewBiz(errorx.ErrEventIDMalformed,
			errorx.WithService(errorx.ServiceTracer),
			errorx.WithMessage("nil uuid"),
			errorx.WithField("event_id", eventID))
	}
	return id, nil
}
