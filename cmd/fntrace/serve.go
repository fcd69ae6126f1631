package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imattdu/fntrace/config"
	"github.com/imattdu/fntrace/httpclient"
	"github.com/imattdu/fntrace/logx"
	"github.com/imattdu/fntrace/middleware"
	"github.com/imattdu/fntrace/tracex"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the traced greeter function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides FNTRACE_ADDR")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	if err := logx.Init(cfg.Logx()); err != nil {
		return err
	}
	defer logx.Close()

	gin.SetMode(cfg.Mode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider := tracex.NewProvider(cfg.Config, tracex.WithGlobal())
	h, err := newGreeter(cfg.DownstreamURL)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Access(nil))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.Any("/", middleware.Wrap(h.handle,
		middleware.WithProvider(provider),
		middleware.WithMetrics(middleware.NewMetrics(reg))))

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		logx.Info(ctx, logx.TagUndef, "listening", logx.Remote, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error(shutdownCtx, logx.TagUndef, err, logx.Msg, "http shutdown")
	}
	// 刷出还没上报的 span
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logx.Error(shutdownCtx, logx.TagTracerInit, err)
		return err
	}
	return nil
}

// greeter 示例函数：返回 hello，配置了下游时带 trace header 调用一次
type greeter struct {
	downstream string
	client     *httpclient.Client
}

func newGreeter(downstream string) (*greeter, error) {
	g := &greeter{downstream: downstream}
	if downstream == "" {
		return g, nil
	}
	c, err := httpclient.New(
		httpclient.WithTracePropagation(),
		httpclient.WithStatsHook(httpclient.LogStats(nil)),
		httpclient.WithBizErrorDecoder(httpclient.StatusErrorDecoder),
	)
	if err != nil {
		return nil, err
	}
	g.client = c
	return g, nil
}

func (g *greeter) handle(ctx context.Context, r *http.Request) (any, error) {
	span := tracex.SpanFromContext(ctx)

	var in struct {
		Name string `json:"name"`
	}
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, &in)
	}
	if in.Name != "" {
		span.SetAttributes(attribute.String("greeter.name", in.Name))
	}

	if g.client != nil {
		var out []byte
		if _, err := g.client.GetJSON(ctx, g.downstream, &out); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("greeter.downstream_bytes", len(out)))
	}

	if in.Name != "" {
		return "hello " + in.Name, nil
	}
	return "hello", nil
}
