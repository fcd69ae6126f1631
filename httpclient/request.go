package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request 一次下游请求
type Request struct {
	Method  string
	Path    string // 基于 BaseURL 的相对路径，或完整 URL
	Query   url.Values
	Headers http.Header
	Body    any // nil / io.Reader / 其它按 JSON 编码

	Timeout time.Duration // 优先于 Config.DefaultTimeout
}

type RequestOption func(*Request)

func WithQuery(q url.Values) RequestOption {
	return func(r *Request) { r.Query = q }
}

func WithHeader(k, v string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(http.Header)
		}
		r.Headers.Add(k, v)
	}
}

// WithFunctionName 调用另一个函数时带上函数名 header
func WithFunctionName(name string) RequestOption {
	return WithHeader("X-Fission-Function-Name", name)
}

func WithJSONBody(body any) RequestOption {
	return func(r *Request) { r.Body = body }
}

func WithTimeout(t time.Duration) RequestOption {
	return func(r *Request) { r.Timeout = t }
}

func WithPathTemplate(format string, args ...any) RequestOption {
	return func(r *Request) { r.Path = fmt.Sprintf(format, args...) }
}

// buildURL 完整 URL 直接用；相对路径拼到 BaseURL 后面。额外 query 追加在原有 query 之后
func (c *Client) buildURL(path string, q url.Values) (string, error) {
	pu, err := url.Parse(path)
	if err != nil {
		return "", err
	}

	u := pu
	if !(pu.Scheme != "" && pu.Host != "") && c.baseURL != nil {
		base := *c.baseURL
		base.Path = joinPath(c.baseURL.Path, pu.Path)
		u = &base
	}
	u.RawQuery = mergeQuery(pu.Query(), q).Encode()
	return u.String(), nil
}

func mergeQuery(dst, src url.Values) url.Values {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	return dst
}

func joinPath(a, b string) string {
	switch {
	case a == "" || a == "/":
		return b
	case b == "":
		return a
	}
	aSlash, bSlash := a[len(a)-1] == '/', b[0] == '/'
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	default:
		return a + b
	}
}
