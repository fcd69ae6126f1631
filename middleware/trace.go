package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/logx"
	"github.com/imattdu/fntrace/tracex"
)

const (
	// HeaderFunctionName 由 router 带上的函数名，同时作为 service name
	HeaderFunctionName  = "X-Fission-Function-Name"
	DefaultFunctionName = "name"

	// gin.Context 上暴露给 handler 的 key
	KeySpan             = "span"
	KeyGeneratedHeaders = "generated_headers"

	AttrGeneratedBy      = "generated-by"
	GeneratedBy          = "lib.tracing"
	AttrSamplingPriority = "sampling.priority"
)

// Func 被包装的用户函数。返回值支持 nil / string / []byte / *Response / map[string]any。
// ctx 中带有当前 span（tracex.SpanFromContext）和 GeneratedHeaders（tracex.GeneratedHeadersFromContext），
// r 为入站请求，body 可再次读取。
type Func func(ctx context.Context, r *http.Request) (any, error)

type Option func(*options)

type options struct {
	provider *tracex.Provider
	logger   logx.Logger
	metrics  *Metrics
}

// WithProvider 指定 tracer provider，默认 tracex.Default()
func WithProvider(p *tracex.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithLogger 默认 logx.L()
func WithLogger(l logx.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics 不设置则不统计
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) log() logx.Logger {
	if o.logger != nil {
		return o.logger
	}
	return logx.L()
}

func (o *options) tracerProvider() *tracex.Provider {
	if o.provider != nil {
		return o.provider
	}
	return tracex.Default()
}

// Wrap 把 fn 包装成 gin handler：每次请求创建一个 span，fn 返回后把
// 返回值转成响应，合并 GeneratedHeaders，最后关闭 span。
func Wrap(fn Func, opts ...Option) gin.HandlerFunc {
	o := newOptions(opts)
	return func(c *gin.Context) {
		o.serve(c, func(ctx context.Context) error {
			v, err := fn(ctx, c.Request)
			if err != nil {
				return err
			}
			return writeResponse(c, v)
		})
	}
}

// Trace 中间件形式：span 覆盖后续所有 handler，GeneratedHeaders 在响应头
// 下发前写入，覆盖后续 handler 设置的同名 header。
func Trace(opts ...Option) gin.HandlerFunc {
	o := newOptions(opts)
	return func(c *gin.Context) {
		o.serve(c, func(context.Context) error {
			c.Next()
			return nil
		})
	}
}

func (o *options) serve(c *gin.Context, run func(ctx context.Context) error) {
	// header 缺失或为空都用默认名，避免空的 service name 和 "-span"
	name := c.GetHeader(HeaderFunctionName)
	if name == "" {
		name = DefaultFunctionName
	}

	ctx := c.Request.Context()
	tr, err := o.tracerProvider().Tracer(ctx, name)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// 上游 SpanContext；没有时是 root，尝试用 eventID 作为 TraceID
	ctx = tr.Extract(ctx, c.Request.Header)
	root := !trace.SpanContextFromContext(ctx).IsValid()
	if root {
		if tid, ok := o.eventTraceID(ctx, c); ok {
			ctx = tracex.ContextWithTraceID(ctx, tid)
		}
	}

	ctx, span := tr.Start(ctx, name+"-span",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrGeneratedBy, GeneratedBy),
			attribute.Int(AttrSamplingPriority, 1),
			attribute.String("faas.name", name),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.target", c.Request.URL.Path),
		))
	defer span.End()
	// eventID 只用于本次 root span，handler 里再开的 root span 随机生成
	ctx = tracex.ContextWithoutTraceID(ctx)
	o.metrics.spanStarted(root)

	headers := tr.Inject(ctx)
	ctx = tracex.WithRequest(ctx, name, headers)
	c.Request = c.Request.WithContext(ctx)
	c.Set(KeySpan, span)
	c.Set(KeyGeneratedHeaders, headers)

	w := &traceWriter{ResponseWriter: c.Writer, headers: headers}
	c.Writer = w

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r), trace.WithStackTrace(true))
			span.SetStatus(codes.Error, "panic")
			o.metrics.handlerDone(name, http.StatusInternalServerError, time.Since(start), true)
			w.apply()
			panic(r)
		}
	}()

	if err := run(ctx); err != nil {
		o.log().Error(ctx, logx.TagHandlerFailure, err, logx.SpanName, name+"-span")
		w.apply()
		_ = c.AbortWithError(http.StatusInternalServerError, err)
	}
	w.apply()

	status := c.Writer.Status()
	span.SetAttributes(attribute.Int("http.status_code", status))
	failed := len(c.Errors) > 0
	if failed {
		last := c.Errors.Last()
		span.RecordError(last.Err)
		span.SetStatus(codes.Error, last.Error())
	} else if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	o.metrics.handlerDone(name, status, time.Since(start), failed)
}

// traceWriter 在响应头下发前写入 GeneratedHeaders
type traceWriter struct {
	gin.ResponseWriter
	headers map[string]string
}

func (w *traceWriter) apply() {
	if w.ResponseWriter.Written() {
		return
	}
	h := w.ResponseWriter.Header()
	for k, v := range w.headers {
		h.Set(k, v)
	}
}

func (w *traceWriter) WriteHeaderNow() {
	w.apply()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *traceWriter) Write(b []byte) (int, error) {
	w.apply()
	return w.ResponseWriter.Write(b)
}

func (w *traceWriter) WriteString(s string) (int, error) {
	w.apply()
	return w.ResponseWriter.WriteString(s)
}

func (w *traceWriter) Flush() {
	w.apply()
	w.ResponseWriter.Flush()
}
