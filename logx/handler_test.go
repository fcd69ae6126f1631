package logx

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logFiles(t *testing.T, dir, app string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), app+"-") && strings.HasSuffix(e.Name(), ".log") {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestRotateMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RotateMode
		wantErr bool
	}{
		{in: "hourly", want: RotateHourly},
		{in: "", want: RotateHourly},
		{in: " SIZE ", want: RotateSize},
		{in: "daily", wantErr: true},
	}
	for _, tt := range tests {
		var m RotateMode
		err := m.UnmarshalText([]byte(tt.in))
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, m, tt.in)
	}
}

func TestRotateBySize(t *testing.T) {
	dir := t.TempDir()
	h, err := newHandler(Config{AppName: "svc", LogDir: dir, Rotate: RotateSize, MaxFileSizeMB: 1, MaxBackups: 2})
	require.NoError(t, err)
	defer h.close()

	now := time.Now()
	// 未超过大小不切
	require.NoError(t, h.rotateIfNeeded(now))
	assert.Len(t, logFiles(t, dir, "svc"), 1)

	for i := 0; i < 3; i++ {
		h.mu.Lock()
		h.size = 1 << 20
		h.mu.Unlock()
		require.NoError(t, h.rotateIfNeeded(now))
	}

	// 同一秒内切分文件名不冲突，只保留 MaxBackups 个
	files := logFiles(t, dir, "svc")
	assert.Len(t, files, 2)

	link, err := os.Readlink(filepath.Join(dir, "svc.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(h.file.Name()), link)
}

func TestRotateHourlyIgnoresSize(t *testing.T) {
	dir := t.TempDir()
	h, err := newHandler(Config{AppName: "svc", LogDir: dir, Rotate: RotateHourly, MaxFileSizeMB: 1})
	require.NoError(t, err)
	defer h.close()

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.Local)
	require.NoError(t, h.rotateIfNeeded(base))
	n := len(logFiles(t, dir, "svc"))

	h.mu.Lock()
	h.size = 10 << 20
	h.mu.Unlock()
	require.NoError(t, h.rotateIfNeeded(base.Add(10*time.Minute)))
	assert.Len(t, logFiles(t, dir, "svc"), n)

	require.NoError(t, h.rotateIfNeeded(base.Add(time.Hour)))
	assert.Len(t, logFiles(t, dir, "svc"), n+1)
}

func TestHandleAfterCloseDropsRecord(t *testing.T) {
	h, err := newHandler(Config{AppName: "svc", LogDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, h.close())

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "", 0)
	assert.NotPanics(t, func() {
		assert.NoError(t, h.Handle(context.Background(), rec))
	})
}
