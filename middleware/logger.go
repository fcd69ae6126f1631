package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imattdu/fntrace/logx"
)

// 响应体超过该长度只记录长度
const maxLoggedBody = 4096

type responseWriter struct {
	body *bytes.Buffer
	gin.ResponseWriter
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Access 访问日志：request_in / request_out，放在 Trace / Wrap 之前，
// request_out 会带上本次请求的 trace_id。logger 为 nil 时用 logx.L()。
func Access(logger logx.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		l := logger
		if l == nil {
			l = logx.L()
		}

		req := ctx.Request
		logMap := map[string]any{
			logx.Remote: req.RemoteAddr,
			logx.Method: req.Method,
			logx.Path:   req.URL.Path,
			logx.Query:  req.URL.RawQuery,
		}

		var reqBodyBytes []byte
		if req.Body != nil {
			b, err := ctx.GetRawData()
			if err != nil {
				_ = ctx.AbortWithError(http.StatusInternalServerError, err)
				logMap[logx.Err] = err.Error()
				logMap[logx.Msg] = "GetRawData failed"
				l.Warn(req.Context(), logx.TagUndef, logMap)
				return
			}
			reqBodyBytes = b
			// 重置 body，后续 handler 还要读
			ctx.Request.Body = io.NopCloser(bytes.NewReader(reqBodyBytes))
		}

		var reqBody any
		if json.Unmarshal(reqBodyBytes, &reqBody) != nil && len(reqBodyBytes) > 0 {
			reqBody = string(reqBodyBytes)
		}
		logMap[logx.Body] = reqBody
		// handler 异步落盘，传副本
		l.Info(req.Context(), logx.TagRequestIn, maps.Clone(logMap))

		writer := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: ctx.Writer}
		ctx.Writer = writer
		start := time.Now()
		ctx.Next()

		if writer.body.Len() <= maxLoggedBody {
			logMap[logx.Response] = writer.body.String()
		} else {
			logMap[logx.Response] = writer.body.Len()
		}
		logMap[logx.Status] = ctx.Writer.Status()
		logMap[logx.Cost] = time.Since(start).Milliseconds()
		if len(ctx.Errors) > 0 {
			logMap[logx.Err] = ctx.Errors.String()
		}
		// Trace / Wrap 已把 span 写进 ctx.Request
		l.Info(ctx.Request.Context(), logx.TagRequestOut, logMap)
	}
}
