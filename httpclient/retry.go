package httpclient

import (
	"math/rand/v2"
	"net/http"
	"slices"
	"time"
)

// RetryDecider 决定某次响应是否需要重试
type RetryDecider func(resp *http.Response, err error) bool

// BackoffFunc 返回第 attempt 次重试前需要 sleep 的时间
type BackoffFunc func(attempt int) time.Duration

// 网络错误 + 5xx
func defaultRetryDecider(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && resp.StatusCode >= http.StatusInternalServerError
}

// RetryOnStatus 网络错误或指定状态码时重试
func RetryOnStatus(codes ...int) RetryDecider {
	return func(resp *http.Response, err error) bool {
		if err != nil {
			return true
		}
		return resp != nil && slices.Contains(codes, resp.StatusCode)
	}
}

// ExponentialBackoff base, 2*base, 4*base ... 不超过 limit，带 ±20% 抖动
func ExponentialBackoff(base, limit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base << attempt
		if d <= 0 || d > limit {
			d = limit
		}
		if d <= 0 {
			return 0
		}
		jitter := time.Duration(rand.Int64N(int64(d)/5 + 1))
		if rand.IntN(2) == 0 {
			return d - jitter
		}
		return d + jitter
	}
}

var defaultBackoff = ExponentialBackoff(100*time.Millisecond, 2*time.Second)
