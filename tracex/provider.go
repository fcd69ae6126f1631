package tracex

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/errorx"
	"github.com/imattdu/fntrace/logx"
)

const instrumentationName = "github.com/imattdu/fntrace/tracex"

// Tracer 进程内唯一的 tracer，绑定第一次使用时的 service name
type Tracer struct {
	service    string
	provider   *sdktrace.TracerProvider
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// ServiceName 创建时绑定的 service name
func (t *Tracer) ServiceName() string { return t.service }

// Propagator 当前使用的 propagator
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Start 开启 span：ctx 中有有效 SpanContext 时为其 child，否则为 root；
// root span 若 ctx 带了 ContextWithTraceID 则使用该 TraceID。
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// -------------------- Provider --------------------

type Option func(*options)

type options struct {
	logger     logx.Logger
	hooks      []SpanHook
	processors []sdktrace.SpanProcessor
	global     bool
}

// WithLogger span 日志 / 初始化日志使用的 logger，默认取 logx.L()
func WithLogger(l logx.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSpanHook span 结束时的回调
func WithSpanHook(h ...SpanHook) Option {
	return func(o *options) { o.hooks = append(o.hooks, h...) }
}

// WithSpanProcessor 替换默认的 OTLP 上报，测试里用 tracetest.SpanRecorder
func WithSpanProcessor(sp ...sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp...) }
}

// WithGlobal 创建 tracer 后注册到 otel 全局 TracerProvider / Propagator
func WithGlobal() Option {
	return func(o *options) { o.global = true }
}

// Provider 懒加载、只创建一次的 Tracer 持有者。
// 第一个调用 Tracer 的 service name 胜出，之后其它 name 复用同一个 Tracer。
type Provider struct {
	opts    options
	loadCfg func() (Config, error)

	mu     sync.Mutex
	tracer atomic.Pointer[Tracer]
}

// NewProvider 使用给定配置
func NewProvider(cfg Config, opts ...Option) *Provider {
	return newProvider(func() (Config, error) { return cfg, nil }, opts...)
}

// NewEnvProvider 第一次创建 Tracer 时才读环境变量
func NewEnvProvider(opts ...Option) *Provider {
	return newProvider(ConfigFromEnv, opts...)
}

func newProvider(load func() (Config, error), opts ...Option) *Provider {
	p := &Provider{loadCfg: load}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

func (p *Provider) logger() logx.Logger {
	if p.opts.logger != nil {
		return p.opts.logger
	}
	return logx.L()
}

var (
	defaultOnce     sync.Once
	defaultProvider *Provider
)

// Default 进程级 Provider：配置来自环境变量，创建后注册为 otel 全局
func Default() *Provider {
	defaultOnce.Do(func() {
		defaultProvider = NewEnvProvider(WithGlobal())
	})
	return defaultProvider
}

// Current 已创建的 Tracer，未创建时为 nil
func (p *Provider) Current() *Tracer {
	return p.tracer.Load()
}

// Tracer 返回进程内唯一的 Tracer，没有则以 service 创建。
// 创建失败不会缓存，下次调用重试。
func (p *Provider) Tracer(ctx context.Context, service string) (*Tracer, error) {
	if t := p.tracer.Load(); t != nil {
		return t, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if t := p.tracer.Load(); t != nil {
		return t, nil
	}

	t, err := p.build(ctx, service)
	if err != nil {
		// 外层 ErrTracerInit，具体原因（ErrConfig / ErrPropagator / ErrExporterInit）在 Cause 链上
		err = errorx.New(errorx.ErrTracerInit,
			errorx.WithService(errorx.ServiceTracer),
			errorx.WithCause(err),
			errorx.WithField(logx.Service, service))
		p.logger().Error(ctx, logx.TagTracerInit, err, logx.Service, service)
		return nil, err
	}
	p.tracer.Store(t)
	p.logger().Info(ctx, logx.TagTracerInit, "tracer created", logx.Service, service)
	return t, nil
}

func (p *Provider) build(ctx context.Context, service string) (*Tracer, error) {
	cfg, err := p.loadCfg()
	if err != nil {
		return nil, err
	}

	prop, err := NewPropagator(cfg.Propagators...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(service)))
	if err != nil {
		// 合并失败退回只带 service.name 的 resource
		p.logger().Warn(ctx, logx.TagTracerInit, err, logx.Service, service)
		res = resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(service))
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithIDGenerator(idGenerator{}),
	}

	switch {
	case len(p.opts.processors) > 0:
		for _, sp := range p.opts.processors {
			tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
		}
	case !cfg.Disabled:
		exp, err := newExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}

	if cfg.LogSpans || len(p.opts.hooks) > 0 {
		hp := &hookProcessor{hooks: p.opts.hooks}
		if cfg.LogSpans {
			hp.logger = p.logger()
		}
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(hp))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	if p.opts.global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	}

	return &Tracer{
		service:    service,
		provider:   tp,
		tracer:     tp.Tracer(instrumentationName),
		propagator: prop,
	}, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			return nil, errorx.Wrap(err, errorx.ErrConfig,
				errorx.WithService(errorx.ServiceCollector),
				errorx.WithField("endpoint", cfg.Endpoint))
		}
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.AgentAddr()))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.ErrExporterInit,
			errorx.WithService(errorx.ServiceCollector),
			errorx.WithField("agent", cfg.AgentAddr()))
	}
	return exp, nil
}

// Shutdown 刷出未上报的 span 并关闭 exporter；Tracer 不会被重建
func (p *Provider) Shutdown(ctx context.Context) error {
	t := p.tracer.Load()
	if t == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		return errorx.Wrap(err, errorx.ErrTracerShutdown, errorx.WithService(errorx.ServiceCollector))
	}
	return nil
}

// ForceFlush 立即上报缓冲中的 span
func (p *Provider) ForceFlush(ctx context.Context) error {
	t := p.tracer.Load()
	if t == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}
