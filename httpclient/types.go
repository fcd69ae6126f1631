package httpclient

import (
	"context"
	"net/http"
	"time"
)

// CallAttempt 单次尝试信息
type CallAttempt struct {
	Attempt   int           `json:"attempt"`
	Status    int           `json:"status"`
	Err       string        `json:"err,omitempty"`
	Cost      time.Duration `json:"cost"`
	WillRetry bool          `json:"will_retry"`
}

// CallStats 一次完整调用信息
type CallStats struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Path   string `json:"path"`
	Query  string `json:"query"`

	// body 信息（可选）
	Body     string `json:"body,omitempty"`
	BodySize int    `json:"body_size,omitempty"`

	// 透传给下游的 trace header
	TraceHeaders map[string]string `json:"trace_headers,omitempty"`

	MaxAttempts int           `json:"max_attempts"`
	Attempts    int           `json:"attempts"`
	AttemptsLog []CallAttempt `json:"attempts_log,omitempty"`

	// 最终结果
	Status int           `json:"status"`
	Err    string        `json:"err,omitempty"`
	Cost   time.Duration `json:"cost"`
}

// Failed 网络错误或非 2xx/3xx
func (s *CallStats) Failed() bool {
	return s.Err != "" || s.Status == 0 || s.Status >= http.StatusBadRequest
}

// BizErrorDecoder 业务错误解析函数
type BizErrorDecoder func(statusCode int, body []byte) error

// StatsHook 统计上报 Hook（例如打日志）
type StatsHook func(ctx context.Context, stats *CallStats)

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// []byte 深拷贝
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	dst := make([]byte, len(b))
	copy(dst, b)
	return dst
}
