package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// handler 异步落盘的 slog.Handler：Handle 只入队，writeLoop 负责编码、切分、写文件
type handler struct {
	cfg Config

	mu    sync.Mutex
	file  *os.File
	size  int64
	curHr time.Time // RotateHourly 使用：当前小时
	seq   int       // RotateSize 使用：同一秒内多次切分时区分文件名

	// qmu 保护 closed 和对 entries 的发送，close 后的记录直接丢弃
	qmu       sync.RWMutex
	closed    bool
	entries   chan slog.Record
	done      chan struct{}
	closeOnce sync.Once
}

func newHandler(cfg Config) (*handler, error) {
	if cfg.AppName == "" {
		cfg.AppName = "app"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "."
	}
	if cfg.Console == nil {
		cfg.Console = os.Stdout
	}

	h := &handler{
		cfg:     cfg,
		entries: make(chan slog.Record, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	if err := h.rotateIfNeeded(time.Now()); err != nil {
		return nil, err
	}

	go h.writeLoop()
	return h, nil
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.Level
}

// Handle 队列满或已关闭则丢，不阻塞业务
func (h *handler) Handle(_ context.Context, r slog.Record) error {
	h.qmu.RLock()
	defer h.qmu.RUnlock()
	if h.closed {
		return nil
	}
	select {
	case h.entries <- r.Clone():
	default:
		log.Println("log queue full, drop log")
	}
	return nil
}

// WithAttrs / WithGroup 忽略：所有 Attr 都由上层 encodeLog 提供
func (h *handler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *handler) WithGroup(_ string) slog.Handler { return h }

// close 停止接收并等待队列写完
func (h *handler) close() error {
	h.closeOnce.Do(func() {
		h.qmu.Lock()
		h.closed = true
		close(h.entries)
		h.qmu.Unlock()
		<-h.done
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

func (h *handler) writeLoop() {
	defer close(h.done)
	for rec := range h.entries {
		if err := h.writeRecord(rec); err != nil {
			log.Println("write log failed:", err)
		}
	}
}

// writeRecord 把 Record 编码成一行 JSON，写文件 + 控制台
func (h *handler) writeRecord(r slog.Record) error {
	if err := h.rotateIfNeeded(time.Now()); err != nil {
		return err
	}

	data := make(map[string]any, 16)
	data["ts"] = r.Time.Format(time.RFC3339Nano)
	data["level"] = r.Level.String()
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Resolve().Any()
		return true
	})

	lineBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	line := string(lineBytes) + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file != nil {
		n, err := h.file.WriteString(line)
		if err != nil {
			return err
		}
		h.size += int64(n)
	}

	if h.cfg.ConsoleEnabled {
		if h.cfg.ConsoleColored {
			line = colorLine(r.Level, line)
		}
		_, _ = io.WriteString(h.cfg.Console, line)
	}
	return nil
}

// needRotate 判断当前文件是否需要切分；调用方持锁
func (h *handler) needRotate(now time.Time) bool {
	if h.file == nil {
		return true
	}
	if h.cfg.Rotate == RotateSize {
		if h.cfg.MaxFileSizeMB <= 0 {
			return false
		}
		return h.size >= int64(h.cfg.MaxFileSizeMB)*1024*1024
	}
	return !now.Truncate(time.Hour).Equal(h.curHr)
}

func (h *handler) rotateIfNeeded(now time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.needRotate(now) {
		return nil
	}
	if h.file != nil {
		_ = h.file.Close()
		h.file = nil
	}
	h.curHr = now.Truncate(time.Hour)
	h.size = 0

	if err := os.MkdirAll(h.cfg.LogDir, 0o755); err != nil {
		return err
	}
	filename := h.buildFilename(now)
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	h.file = f

	// {AppName}.log -> 当前文件
	linkPath := filepath.Join(h.cfg.LogDir, h.cfg.AppName+".log")
	_ = os.Remove(linkPath)
	_ = os.Symlink(filepath.Base(filename), linkPath)

	if h.cfg.MaxBackups > 0 {
		h.cleanupOldFiles()
	}
	return nil
}

// buildFilename 调用方持锁
func (h *handler) buildFilename(now time.Time) string {
	if h.cfg.Rotate == RotateSize {
		h.seq++
		return filepath.Join(h.cfg.LogDir, fmt.Sprintf("%s-%s.%d.log", h.cfg.AppName, now.Format("20060102150405"), h.seq))
	}
	return filepath.Join(h.cfg.LogDir, fmt.Sprintf("%s-%s.log", h.cfg.AppName, now.Format("2006010215")))
}

// cleanupOldFiles 按修改时间排序，只保留最新 MaxBackups 个
func (h *handler) cleanupOldFiles() {
	entries, err := os.ReadDir(h.cfg.LogDir)
	if err != nil {
		log.Println("cleanupOldFiles ReadDir error:", err)
		return
	}

	prefix := h.cfg.AppName + "-"
	type fi struct {
		name string
		t    time.Time
	}
	files := make([]fi, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fi{name: filepath.Join(h.cfg.LogDir, name), t: info.ModTime()})
	}
	if len(files) <= h.cfg.MaxBackups {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].t.After(files[j].t) // 新的在前
	})
	for _, f := range files[h.cfg.MaxBackups:] {
		_ = os.Remove(f.name)
	}
}

func colorLine(level slog.Level, line string) string {
	switch level {
	case slog.LevelDebug:
		return "\033[36m[DEBUG]\033[0m " + line
	case slog.LevelInfo:
		return "\033[32m[INFO ]\033[0m " + line
	case slog.LevelWarn:
		return "\033[33m[WARN ]\033[0m " + line
	case slog.LevelError:
		return "\033[31m[ERROR]\033[0m " + line
	default:
		return "[" + level.String() + "] " + line
	}
}
