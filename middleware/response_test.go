package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imattdu/fntrace/errorx"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          any
		status      int
		body        string
		contentType string
	}{
		{name: "nil", in: nil, status: http.StatusOK, body: "", contentType: contentTypeHTML},
		{name: "string", in: "hello", status: http.StatusOK, body: "hello", contentType: contentTypeHTML},
		{name: "bytes", in: []byte{0x01, 0x02}, status: http.StatusOK, body: "\x01\x02", contentType: contentTypeBinary},
		{name: "nil response", in: (*Response)(nil), status: http.StatusOK, body: "", contentType: contentTypeHTML},
		{name: "response zero status", in: &Response{Body: []byte("x")}, status: http.StatusOK, body: "x", contentType: contentTypeHTML},
		{name: "response", in: NewResponse(http.StatusTeapot, "tea"), status: http.StatusTeapot, body: "tea", contentType: contentTypeHTML},
		{name: "response value", in: Response{Status: http.StatusAccepted}, status: http.StatusAccepted, body: "", contentType: contentTypeHTML},
		{
			name:        "response content type",
			in:          &Response{Header: http.Header{"Content-Type": {"text/plain"}}, Body: []byte("p")},
			status:      http.StatusOK,
			body:        "p",
			contentType: "text/plain",
		},
		{name: "gin.H", in: gin.H{"a": 1}, status: http.StatusOK, body: `{"a":1}`, contentType: contentTypeJSON},
		{name: "map", in: map[string]any{"b": "c"}, status: http.StatusOK, body: `{"b":"c"}`, contentType: contentTypeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.body, string(resp.Body))
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
		})
	}
}

func TestNormalizeDoesNotMutateCaller(t *testing.T) {
	in := &Response{Header: http.Header{"X-A": {"1"}}}
	resp, err := normalize(in)
	require.NoError(t, err)

	resp.Header.Set("X-A", "2")
	assert.Equal(t, 0, in.Status)
	assert.Equal(t, "1", in.Header.Get("X-A"))
	assert.Empty(t, in.Header.Get("Content-Type"))
}

func TestNormalizeUnsupported(t *testing.T) {
	for _, v := range []any{42, struct{}{}, []string{"a"}, map[string]any{"f": func() {}}} {
		_, err := normalize(v)
		require.Error(t, err)
		assert.True(t, errorx.HasCode(err, errorx.ErrUnsupportedResponse), "%T", v)
	}
}

func TestEventIDFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		code errorx.CodeEntry
	}{
		{name: "ok", body: `{"eventID":"abc"}`, want: "abc"},
		{name: "extra fields", body: `{"x":[1,2],"eventID":"` + testEventID + `"}`, want: testEventID},
		{name: "empty", body: "  ", code: errorx.ErrEventIDMissing},
		{name: "array", body: `["eventID"]`, code: errorx.ErrEventIDMissing},
		{name: "not json", body: "eventID=abc", code: errorx.ErrEventIDMissing},
		{name: "no field", body: `{"event_id":"abc"}`, code: errorx.ErrEventIDMissing},
		{name: "null", body: `{"eventID":null}`, code: errorx.ErrEventIDMissing},
		{name: "number", body: `{"eventID":12}`, code: errorx.ErrEventIDMalformed},
		{name: "object", body: `{"eventID":{"id":"abc"}}`, code: errorx.ErrEventIDMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eventIDFromBody([]byte(tt.body))
			if tt.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.True(t, errorx.HasCode(err, tt.code))
			assert.True(t, errorx.IsBiz(err))
		})
	}
}
