package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/imattdu/fntrace/errorx"
	"github.com/imattdu/fntrace/logx"
)

type BeforeFunc func(ctx context.Context, req *http.Request)
type AfterFunc func(ctx context.Context, req *http.Request, resp *http.Response, err error)

// Config 下游调用客户端配置
type Config struct {
	BaseURL string

	// per-request 没设 Timeout 时使用
	DefaultTimeout time.Duration

	DialTimeout           time.Duration
	DialKeepAlive         time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	ReadWriteTimeout      time.Duration // 每次 Read/Write 的 deadline

	RetryMaxAttempts int
	RetryDecider     RetryDecider
	RetryBackoff     BackoffFunc

	BizErrDecoder BizErrorDecoder

	Before []BeforeFunc
	After  []AfterFunc

	// 把 ctx 中的 trace header 带给下游
	PropagateTrace bool

	// StatsHook 为空且 Logger 不为空时用 LogStats(Logger)
	StatsHook StatsHook
	Logger    logx.Logger
}

func defaultConfig() Config {
	return Config{
		DefaultTimeout:        5 * time.Second,
		DialTimeout:           3 * time.Second,
		DialKeepAlive:         60 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ReadWriteTimeout:      5 * time.Second,
		RetryMaxAttempts:      1,
	}
}

type Option func(*Config)

func WithBaseURL(s string) Option {
	return func(c *Config) { c.BaseURL = s }
}

func WithDefaultTimeout(t time.Duration) Option {
	return func(c *Config) { c.DefaultTimeout = t }
}

func WithReadWriteTimeout(t time.Duration) Option {
	return func(c *Config) { c.ReadWriteTimeout = t }
}

func WithBeforeHooks(h ...BeforeFunc) Option {
	return func(c *Config) { c.Before = append(c.Before, h...) }
}

func WithAfterHooks(h ...AfterFunc) Option {
	return func(c *Config) { c.After = append(c.After, h...) }
}

// WithRetry decider / backoff 为 nil 时用默认：网络错误和 5xx 重试，指数退避
func WithRetry(attempts int, decider RetryDecider, backoff BackoffFunc) Option {
	return func(c *Config) {
		c.RetryMaxAttempts = attempts
		c.RetryDecider = decider
		c.RetryBackoff = backoff
	}
}

func WithBizErrorDecoder(dec BizErrorDecoder) Option {
	return func(c *Config) { c.BizErrDecoder = dec }
}

func WithStatsHook(h StatsHook) Option {
	return func(c *Config) { c.StatsHook = h }
}

// WithLogger 每次调用写 http_success / http_failure 日志
func WithLogger(l logx.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Client 并发安全，创建后配置不再修改
type Client struct {
	hc      *http.Client
	baseURL *url.URL

	before []BeforeFunc
	after  []AfterFunc

	defaultTimeout   time.Duration
	retryMaxAttempts int
	retryDecider     RetryDecider
	backoff          BackoffFunc
	bizErrDecoder    BizErrorDecoder
	propagate        bool
	statsHook        StatsHook
}

func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Client{
		hc:               &http.Client{Transport: buildTransport(&cfg)},
		before:           append([]BeforeFunc(nil), cfg.Before...),
		after:            append([]AfterFunc(nil), cfg.After...),
		defaultTimeout:   cfg.DefaultTimeout,
		retryMaxAttempts: max(cfg.RetryMaxAttempts, 1),
		retryDecider:     cfg.RetryDecider,
		backoff:          cfg.RetryBackoff,
		bizErrDecoder:    cfg.BizErrDecoder,
		propagate:        cfg.PropagateTrace,
		statsHook:        cfg.StatsHook,
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, errorx.Wrap(err, errorx.ErrConfig,
				errorx.WithService(errorx.ServiceDownstream),
				errorx.WithField("base_url", cfg.BaseURL))
		}
		c.baseURL = u
	}
	if c.retryDecider == nil {
		c.retryDecider = defaultRetryDecider
	}
	if c.backoff == nil {
		c.backoff = defaultBackoff
	}
	if c.statsHook == nil && cfg.Logger != nil {
		c.statsHook = LogStats(cfg.Logger)
	}
	return c, nil
}
