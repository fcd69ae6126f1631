package logx

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

type caller struct {
	file     string
	line     int
	funcName string
}

// 本包函数名前缀，如 github.com/imattdu/fntrace/logx.
var pkgPrefix = reflect.TypeOf(caller{}).PkgPath() + "."

// -------------------- 调用方信息 --------------------

// getCaller 跳过 logx 自身的栈帧，返回第一个业务调用方
func getCaller() caller {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLogxFrame(frame) {
			return caller{
				file:     trimFilePath(frame.File),
				line:     frame.Line,
				funcName: trimFuncName(frame.Function),
			}
		}
		if !more {
			break
		}
	}
	return caller{funcName: "unknown"}
}

func isLogxFrame(f runtime.Frame) bool {
	if !strings.HasPrefix(f.Function, pkgPrefix) {
		return false
	}
	return !strings.HasSuffix(f.File, "_test.go")
}

var (
	modRootOnce sync.Once
	modRoot     string
)

func getModRoot(fullPath string) string {
	modRootOnce.Do(func() {
		m, err := findGoModRoot(fullPath)
		if err == nil {
			modRoot = m
		}
	})
	return modRoot
}

// /Users/xxx/project/fntrace/tracex/provider.go -> tracex/provider.go
func trimFilePath(fullPath string) string {
	if fullPath == "" {
		return ""
	}
	if root := getModRoot(fullPath); root != "" {
		if rel, err := filepath.Rel(root, fullPath); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	_, short := filepath.Split(fullPath)
	return short
}

func findGoModRoot(start string) (string, error) {
	dir := filepath.Dir(start)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("go.mod not found")
}

// github.com/imattdu/fntrace/logx.Info -> Info
// github.com/imattdu/fntrace/middleware.(*options).trace -> (*options).trace
func trimFuncName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.Index(name, "."); idx >= 0 && idx+1 < len(name) {
		name = name[idx+1:]
	}
	return name
}
