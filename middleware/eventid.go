package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/imattdu/fntrace/errorx"
	"github.com/imattdu/fntrace/logx"
	"github.com/imattdu/fntrace/tracex"
)

// EventIDField 请求 JSON body 中用作 TraceID 的字段
const EventIDField = "eventID"

const (
	fallbackMissing   = "missing"
	fallbackMalformed = "malformed"
)

// eventTraceID 读 body 中的 eventID 转成 TraceID；失败只打 warning，由 tracer 随机生成
func (o *options) eventTraceID(ctx context.Context, c *gin.Context) (trace.TraceID, bool) {
	var raw []byte
	if c.Request.Body != nil {
		b, err := c.GetRawData()
		if err != nil {
			o.log().Warn(ctx, logx.TagEventIDFallback, err, logx.Msg, "GetRawData failed")
		}
		raw = b
		// 重置 body，handler 还要读
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	}

	id, err := eventIDFromBody(raw)
	if err == nil {
		var tid trace.TraceID
		if tid, err = tracex.TraceIDFromEventID(id); err == nil {
			return tid, true
		}
	}

	reason := fallbackMalformed
	if errorx.HasCode(err, errorx.ErrEventIDMissing) {
		reason = fallbackMissing
	}
	o.log().Warn(ctx, logx.TagEventIDFallback, err, logx.Msg, "use random trace id", "reason", reason)
	o.metrics.eventIDFallback(reason)
	return trace.TraceID{}, false
}

// eventIDFromBody 非 JSON 对象或没有该字段视为 missing，字段不是字符串视为 malformed
func eventIDFromBody(raw []byte) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", errorx.NewBiz(errorx.ErrEventIDMissing, errorx.WithMessage("empty body"))
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", errorx.NewBiz(errorx.ErrEventIDMissing,
			errorx.WithMessage("body is not a JSON object"),
			errorx.WithCause(err))
	}
	field, ok := payload[EventIDField]
	if !ok || string(field) == "null" {
		return "", errorx.NewBiz(errorx.ErrEventIDMissing)
	}

	var id string
	if err := json.Unmarshal(field, &id); err != nil {
		return "", errorx.NewBiz(errorx.ErrEventIDMalformed,
			errorx.WithMessage("eventID is not a string"),
			errorx.WithCause(err),
			errorx.WithField(logx.EventID, string(field)))
	}
	return id, nil
}
