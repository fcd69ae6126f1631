package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imattdu/fntrace/errorx"
)

const (
	contentTypeHTML   = "text/html; charset=utf-8"
	contentTypeJSON   = "application/json; charset=utf-8"
	contentTypeBinary = "application/octet-stream"
)

// Response handler 可直接返回的完整响应
type Response struct {
	Status int // 0 视为 200
	Header http.Header
	Body   []byte
}

// NewResponse status + body，Content-Type 为 text/html
func NewResponse(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body)}
}

// normalize 把 handler 返回值转成 *Response（副本，不改调用方的对象）
func normalize(v any) (*Response, error) {
	switch x := v.(type) {
	case nil:
		return withDefaults(&Response{}, contentTypeHTML), nil
	case string:
		return withDefaults(&Response{Body: []byte(x)}, contentTypeHTML), nil
	case []byte:
		return withDefaults(&Response{Body: x}, contentTypeBinary), nil
	case *Response:
		if x == nil {
			return withDefaults(&Response{}, contentTypeHTML), nil
		}
		cp := *x
		cp.Header = x.Header.Clone()
		return withDefaults(&cp, contentTypeHTML), nil
	case Response:
		x.Header = x.Header.Clone()
		return withDefaults(&x, contentTypeHTML), nil
	case gin.H:
		return jsonResponse(map[string]any(x))
	case map[string]any:
		return jsonResponse(x)
	default:
		return nil, errorx.New(errorx.ErrUnsupportedResponse,
			errorx.WithService(errorx.ServiceHandler),
			errorx.WithField("type", fmt.Sprintf("%T", v)))
	}
}

func jsonResponse(v map[string]any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.ErrUnsupportedResponse, errorx.WithService(errorx.ServiceHandler))
	}
	return withDefaults(&Response{Body: body}, contentTypeJSON), nil
}

func withDefaults(r *Response, contentType string) *Response {
	if r.Status == 0 {
		r.Status = http.StatusOK
	}
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

// writeResponse 先写 handler 的 header，GeneratedHeaders 由 traceWriter 在下发前覆盖
func writeResponse(c *gin.Context, v any) error {
	resp, err := normalize(v)
	if err != nil {
		return err
	}

	h := c.Writer.Header()
	for k, vs := range resp.Header {
		h.Del(k)
		for _, s := range vs {
			h.Add(k, s)
		}
	}
	c.Data(resp.Status, resp.Header.Get("Content-Type"), resp.Body)
	return nil
}
