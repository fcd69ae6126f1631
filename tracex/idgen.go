package tracex

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand/v2"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type traceIDKeyType struct{}

var traceIDKey traceIDKeyType

// ContextWithTraceID 指定下一个 root span 使用的 TraceID；对 child span 无效
func ContextWithTraceID(ctx context.Context, id trace.TraceID) context.Context {
	if !id.IsValid() {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey, id)
}

// ContextWithoutTraceID 清除 ContextWithTraceID 指定的 TraceID，之后的 root span 随机生成
func ContextWithoutTraceID(ctx context.Context) context.Context {
	if _, ok := traceIDFromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey, trace.TraceID{})
}

func traceIDFromContext(ctx context.Context) (trace.TraceID, bool) {
	id, ok := ctx.Value(traceIDKey).(trace.TraceID)
	return id, ok && id.IsValid()
}

// idGenerator root span 优先用 ctx 里指定的 TraceID，否则随机 128 bit
type idGenerator struct{}

var _ sdktrace.IDGenerator = idGenerator{}

func (idGenerator) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	tid, ok := traceIDFromContext(ctx)
	if !ok {
		tid = newTraceID()
	}
	return tid, newSpanID()
}

func (idGenerator) NewSpanID(_ context.Context, _ trace.TraceID) trace.SpanID {
	return newSpanID()
}

// newTraceID 随机 128 bit，crypto/rand 失败时退化到 math/rand
func newTraceID() trace.TraceID {
	var id trace.TraceID
	for !id.IsValid() {
		if _, err := rand.Read(id[:]); err != nil {
			binary.BigEndian.PutUint64(id[:8], mrand.Uint64())
			binary.BigEndian.PutUint64(id[8:], mrand.Uint64())
		}
	}
	return id
}

func newSpanID() trace.SpanID {
	var id trace.SpanID
	for !id.IsValid() {
		if _, err := rand.Read(id[:]); err != nil {
			binary.BigEndian.PutUint64(id[:], mrand.Uint64N(math.MaxUint64)+1)
		}
	}
	return id
}
