package logx

import (
	"context"
	"log/slog"
	"time"
)

// Logger 对外暴露给业务 / 组件使用的接口
type Logger interface {
	Debug(ctx context.Context, tag string, msg any, kv ...any)
	Info(ctx context.Context, tag string, msg any, kv ...any)
	Warn(ctx context.Context, tag string, msg any, kv ...any)
	Error(ctx context.Context, tag string, msg any, kv ...any)
}

type loggerImpl struct {
	slog *slog.Logger
	h    *handler
}

func (l *loggerImpl) Debug(ctx context.Context, tag string, msg any, kv ...any) {
	l.log(ctx, slog.LevelDebug, tag, msg, kv...)
}

func (l *loggerImpl) Info(ctx context.Context, tag string, msg any, kv ...any) {
	l.log(ctx, slog.LevelInfo, tag, msg, kv...)
}

func (l *loggerImpl) Warn(ctx context.Context, tag string, msg any, kv ...any) {
	l.log(ctx, slog.LevelWarn, tag, msg, kv...)
}

func (l *loggerImpl) Error(ctx context.Context, tag string, msg any, kv ...any) {
	l.log(ctx, slog.LevelError, tag, msg, kv...)
}

func (l *loggerImpl) log(ctx context.Context, level slog.Level, tag string, msg any, kv ...any) {
	if l == nil || l.slog == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.slog.Enabled(ctx, level) {
		return
	}

	rec := slog.NewRecord(time.Now(), level, "", 0)
	rec.AddAttrs(encodeLog(ctx, tag, msg, kv...)...)

	// 直接交给 handler（异步、切分）
	_ = l.slog.Handler().Handle(ctx, rec)
}

// Close 等待队列写完并关闭文件
func (l *loggerImpl) Close() error {
	if l == nil || l.h == nil {
		return nil
	}
	return l.h.close()
}

// -------------------- nop --------------------

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, any, ...any) {}
func (nopLogger) Info(context.Context, string, any, ...any)  {}
func (nopLogger) Warn(context.Context, string, any, ...any)  {}
func (nopLogger) Error(context.Context, string, any, ...any) {}

// Nop 丢弃所有日志
func Nop() Logger { return nopLogger{} }

// -------------------- 全局默认 logger --------------------

var defaultLogger *loggerImpl

// Init 根据 Config 初始化全局 logger（在 main 里调用一次）
func Init(cfg Config) error {
	l, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defaultLogger = l
	return nil
}

// New 创建一个独立的 Logger 实例
func New(cfg Config) (Logger, error) {
	l, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func newLogger(cfg Config) (*loggerImpl, error) {
	h, err := newHandler(cfg)
	if err != nil {
		return nil, err
	}
	return &loggerImpl{slog: slog.New(h), h: h}, nil
}

// Close 关闭全局 logger，进程退出前调用
func Close() error {
	l := defaultLogger
	if l == nil {
		return nil
	}
	defaultLogger = nil
	return l.Close()
}

// L 返回全局 logger，未 Init 时返回 Nop
func L() Logger {
	if defaultLogger == nil {
		return Nop()
	}
	return defaultLogger
}

// 方便业务直接调用的快捷函数

func Debug(ctx context.Context, tag string, msg any, kv ...any) {
	L().Debug(ctx, tag, msg, kv...)
}

func Info(ctx context.Context, tag string, msg any, kv ...any) {
	L().Info(ctx, tag, msg, kv...)
}

func Warn(ctx context.Context, tag string, msg any, kv ...any) {
	L().Warn(ctx, tag, msg, kv...)
}

func Error(ctx context.Context, tag string, msg any, kv ...any) {
	L().Error(ctx, tag, msg, kv...)
}
