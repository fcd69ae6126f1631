package config

import (
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"

	"github.com/imattdu/fntrace/errorx"
	"github.com/imattdu/fntrace/logx"
	"github.com/imattdu/fntrace/tracex"
)

// Config fntrace serve 的全部配置，均来自环境变量
type Config struct {
	Addr string `env:"FNTRACE_ADDR" envDefault:":8888"`
	Mode string `env:"GIN_MODE" envDefault:"release"`

	// 设置后 greeter 会带着 trace header 调用该地址
	DownstreamURL string `env:"FNTRACE_DOWNSTREAM_URL"`

	Log Log `envPrefix:"FNTRACE_LOG_"`

	tracex.Config
}

// Log 日志配置
type Log struct {
	App        string          `env:"APP" envDefault:"fntrace"`
	Level      slog.Level      `env:"LEVEL" envDefault:"info"`
	Dir        string          `env:"DIR" envDefault:"./log"`
	Console    bool            `env:"CONSOLE" envDefault:"true"`
	MaxBackups int             `env:"MAX_BACKUPS" envDefault:"72"`
	// hourly / size；size 时超过 MaxSizeMB 切新文件
	Rotate     logx.RotateMode `env:"ROTATE" envDefault:"hourly"`
	MaxSizeMB  int             `env:"MAX_SIZE_MB" envDefault:"100"`
}

// Load 读取环境变量，失败返回 ErrConfig
func Load() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errorx.Wrap(err, errorx.ErrConfig)
	}
	switch cfg.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return Config{}, errorx.New(errorx.ErrConfig,
			errorx.WithMessage("unknown GIN_MODE"),
			errorx.WithField("mode", cfg.Mode))
	}
	return cfg, nil
}

// Logx 转成 logx.Config
func (c Config) Logx() logx.Config {
	return logx.Config{
		AppName:        c.Log.App,
		Level:          c.Log.Level,
		LogDir:         c.Log.Dir,
		ConsoleEnabled: c.Log.Console,
		ConsoleColored: c.Mode == gin.DebugMode,
		Rotate:         c.Log.Rotate,
		MaxFileSizeMB:  c.Log.MaxSizeMB,
		MaxBackups:     c.Log.MaxBackups,
	}
}
