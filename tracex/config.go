package tracex

import (
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/imattdu/fntrace/errorx"
)

// Config tracer 后端连接配置，字段均可由环境变量覆盖
type Config struct {
	// Jaeger collector 地址，OTLP/HTTP 上报
	AgentHost string `env:"JAEGER_AGENT_HOST" envDefault:"jaeger-agent.fission.svc.cluster.local"`
	AgentPort int    `env:"JAEGER_AGENT_PORT" envDefault:"4318"`
	// 完整 URL，设置后忽略 AgentHost/AgentPort
	Endpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	Insecure bool   `env:"JAEGER_INSECURE" envDefault:"true"`

	Propagators []string `env:"OTEL_PROPAGATORS" envSeparator:"," envDefault:"jaeger,tracecontext,baggage"`

	LogSpans bool `env:"JAEGER_REPORTER_LOG_SPANS" envDefault:"true"`
	// Disabled 不上报，但 span / header 透传照常
	Disabled bool `env:"JAEGER_DISABLED"`

	ShutdownTimeout time.Duration `env:"JAEGER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig 不读环境变量的默认值
func DefaultConfig() Config {
	cfg, _ := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	return cfg
}

// ConfigFromEnv 读取环境变量
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errorx.Wrap(err, errorx.ErrConfig, errorx.WithService(errorx.ServiceTracer))
	}
	return cfg, nil
}

// AgentAddr host:port
func (c Config) AgentAddr() string {
	return net.JoinHostPort(c.AgentHost, strconv.Itoa(c.AgentPort))
}
