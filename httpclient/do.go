package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/imattdu/fntrace/errorx"
	"github.com/imattdu/fntrace/tracex"
)

// Do 发起请求：带重试、统计、业务错误解析
// respBody：
//   - nil       ：调用方自己处理 resp.Body（需自行 Close）
//   - io.Writer ：把响应体复制到 writer
//   - *[]byte   ：填充原始字节
//   - 其他      ：按 JSON 进行 Unmarshal
//
// 返回的错误都是 *errorx.Error，非 errorx 错误包装为 ErrDownstream。
func (c *Client) Do(ctx context.Context, reqCfg *Request, respBody any) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := reqCfg.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	u, err := c.buildURL(reqCfg.Path, reqCfg.Query)
	if err != nil {
		return nil, downstreamErr(err, reqCfg.Path, 0)
	}

	// ---------- Body 预处理（为了支持重试） ----------
	var bodyBytes []byte
	var bodyReader io.Reader
	var bodyIsReader bool

	headers := reqCfg.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}

	switch v := reqCfg.Body.(type) {
	case nil:
	case io.Reader:
		bodyIsReader = true
		bodyReader = v
	default:
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(v); err != nil {
			return nil, downstreamErr(err, u, 0)
		}
		bodyBytes = cloneBytes(buf.Bytes())
		if headers.Get("Content-Type") == "" {
			headers.Set("Content-Type", "application/json")
		}
	}

	attempts := c.retryMaxAttempts
	if bodyIsReader {
		// io.Reader 不能重放，只能尝试一次
		attempts = 1
	}
	if attempts < 1 {
		attempts = 1
	}

	stats := &CallStats{
		Method:      reqCfg.Method,
		URL:         u,
		Query:       reqCfg.Query.Encode(),
		MaxAttempts: attempts,
	}
	if c.propagate {
		stats.TraceHeaders = tracex.GeneratedHeadersFromContext(ctx)
	}
	if bodyBytes != nil {
		stats.BodySize = len(bodyBytes)
		if len(bodyBytes) <= 1024 {
			stats.Body = string(bodyBytes)
		}
	}

	var lastResp *http.Response
	var lastErr error
	begin := time.Now()

retry:
	for attempt := 0; attempt < attempts; attempt++ {
		// 每次重试重建 body reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		httpReq, err := http.NewRequestWithContext(ctx, reqCfg.Method, u, bodyReader)
		if err != nil {
			return nil, downstreamErr(err, u, 0)
		}
		httpReq.Header = headers.Clone()

		if stats.Path == "" && httpReq.URL != nil {
			stats.Path = httpReq.URL.Path
		}

		for _, h := range c.before {
			h(ctx, httpReq)
		}

		attemptStart := time.Now()
		resp, err := c.hc.Do(httpReq)
		elapsed := time.Since(attemptStart)

		for _, h := range c.after {
			h(ctx, httpReq, resp, err)
		}

		lastResp, lastErr = resp, err

		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}

		willRetry := attempt < attempts-1 && c.retryDecider(resp, err)

		stats.AttemptsLog = append(stats.AttemptsLog, CallAttempt{
			Attempt:   attempt + 1,
			Status:    statusCode,
			Err:       errString(err),
			Cost:      elapsed,
			WillRetry: willRetry,
		})

		if !willRetry {
			break
		}

		// 丢弃剩余 body，方便复用连接
		if resp != nil && resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		lastResp = nil

		// 退避等待，ctx 取消直接结束
		if sleep := c.backoff(attempt); sleep > 0 {
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				lastErr = ctx.Err()
				break retry
			}
		}
	}

	stats.Cost = time.Since(begin)
	stats.Attempts = len(stats.AttemptsLog)
	if lastResp != nil {
		stats.Status = lastResp.StatusCode
	}
	stats.Err = errString(lastErr)

	if c.statsHook != nil {
		c.statsHook(ctx, stats)
	}

	if lastResp == nil {
		return nil, downstreamErr(lastErr, u, 0)
	}
	resp := lastResp

	// 调用方自己处理 body
	if respBody == nil {
		return resp, nil
	}
	defer resp.Body.Close()

	if w, ok := respBody.(io.Writer); ok {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return resp, downstreamErr(err, u, resp.StatusCode)
		}
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, downstreamErr(err, u, resp.StatusCode)
	}

	if c.bizErrDecoder != nil {
		if berr := c.bizErrDecoder(resp.StatusCode, data); berr != nil {
			return resp, downstreamErr(berr, u, resp.StatusCode)
		}
	}

	if p, ok := respBody.(*[]byte); ok {
		*p = data
		return resp, nil
	}

	if err := json.Unmarshal(data, respBody); err != nil {
		return resp, downstreamErr(err, u, resp.StatusCode)
	}
	return resp, nil
}

// StatusErrorDecoder 非 2xx 视为失败
func StatusErrorDecoder(statusCode int, body []byte) error {
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return errorx.NewBiz(errorx.ErrDownstream,
		errorx.WithService(errorx.ServiceDownstream),
		errorx.WithMessage(http.StatusText(statusCode)),
		errorx.WithField("body", string(body)))
}

func downstreamErr(err error, url string, status int) error {
	if err == nil {
		err = errorx.New(errorx.ErrDownstream, errorx.WithMessage("no response"))
	}
	// 已是 *errorx.Error 时保留原 code，只补字段
	opts := []errorx.Option{errorx.WithService(errorx.ServiceDownstream), errorx.WithField("url", url)}
	if status > 0 {
		opts = append(opts, errorx.WithField("status", status))
	}
	return errorx.Wrap(err, errorx.ErrDownstream, opts...)
}

// -------- 便捷方法 --------

func (c *Client) GetJSON(ctx context.Context, path string, out any, opts ...RequestOption) (*http.Response, error) {
	req := &Request{Method: http.MethodGet, Path: path}
	for _, opt := range opts {
		opt(req)
	}
	return c.Do(ctx, req, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in any, out any, opts ...RequestOption) (*http.Response, error) {
	req := &Request{Method: http.MethodPost, Path: path}
	opts = append(opts, WithJSONBody(in))
	for _, opt := range opts {
		opt(req)
	}
	return c.Do(ctx, req, out)
}
