package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"
)

func buildTransport(cfg *Config) http.RoundTripper {
	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           makeDialContext(cfg.DialTimeout, cfg.DialKeepAlive, cfg.ReadWriteTimeout),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
	}
	if cfg.PropagateTrace {
		rt = &traceTransport{base: rt}
	}
	return rt
}

// traceTransport 在发出前把 trace header 写到请求副本上
type traceTransport struct {
	base http.RoundTripper
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTripper 不能改原请求
	out := req.Clone(req.Context())
	propagateTrace(req.Context(), out)
	return t.base.RoundTrip(out)
}

// timeoutConn 每次 Read/Write 前设置 deadline
type timeoutConn struct {
	net.Conn
	rw time.Duration
}

func (c *timeoutConn) Read(b []byte) (int, error) {
	_ = c.SetReadDeadline(time.Now().Add(c.rw))
	return c.Conn.Read(b)
}

func (c *timeoutConn) Write(b []byte) (int, error) {
	_ = c.SetWriteDeadline(time.Now().Add(c.rw))
	return c.Conn.Write(b)
}

func makeDialContext(dial, keepAlive, rw time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: dial, KeepAlive: keepAlive}
	if rw <= 0 {
		return d.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &timeoutConn{Conn: conn, rw: rw}, nil
	}
}
