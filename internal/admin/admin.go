package admin

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	monitor "github.com/hertz-contrib/monitor-prometheus"

	"github.com/tgifai/sessiond/internal/config"
	"github.com/tgifai/sessiond/internal/pkg/logs"
	"github.com/tgifai/sessiond/internal/pkg/prometheus"
)

const (
	requestTimeout = 5 * time.Second
	metricsPath    = "/metrics"
)

// Flusher asks the daemon to sweep expired sessions. The admin server never
// touches the store itself; it goes through the daemon socket like any
// other client.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Server exposes health and flush endpoints over HTTP, and optionally a
// Prometheus scrape endpoint on its own listener.
type Server struct {
	httpServer *hzServer.Hertz
	flusher    Flusher
	bind       string
}

func New(cfg config.AdminConfig, flusher Flusher) *Server {
	hlog.SetLogger(logs.NewHlogLogger(logs.DefaultLogger()))

	hzOpts := []hzconfig.Option{
		hzServer.WithHostPorts(cfg.Bind),
		hzServer.WithReadTimeout(requestTimeout),
		hzServer.WithWriteTimeout(requestTimeout),
		hzServer.WithExitWaitTime(time.Second),
		hzServer.WithDisablePrintRoute(true),
	}
	if cfg.MetricsBind != "" {
		hzOpts = append(hzOpts, hzServer.WithTracer(
			monitor.NewServerTracer(cfg.MetricsBind, metricsPath, monitor.WithRegistry(prometheus.GetRegistry())),
		))
	}

	s := &Server{
		httpServer: hzServer.New(hzOpts...),
		flusher:    flusher,
		bind:       cfg.Bind,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.httpServer.GET("/healthz", s.health)
	s.httpServer.POST("/flush", s.flush)
}

func (s *Server) health(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

func (s *Server) flush(ctx context.Context, c *app.RequestContext) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if err := s.flusher.Flush(ctx); err != nil {
		logs.CtxWarn(ctx, "[admin] flush failed: %v", err)
		c.JSON(consts.StatusBadGateway, utils.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

func (s *Server) Start(ctx context.Context) {
	logs.CtxInfo(ctx, "[admin] serving on %s", s.bind)
	go s.httpServer.Spin()
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logs.CtxWarn(ctx, "[admin] shutdown error: %v", err)
	}
}
