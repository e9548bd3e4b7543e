package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stackrun/internal/metrics"
	"stackrun/internal/supervisor"
)

// StatusSource provides read-only snapshots of the managed processes.
type StatusSource interface {
	Statuses() []supervisor.ServiceStatus
}

// Router exposes the supervisor's read-only observability surface:
//
//	GET /healthz  liveness of the supervisor itself
//	GET /status   registry snapshot in startup order
//	GET /metrics  Prometheus metrics
//
// The managed services' own HTTP traffic is never inspected or proxied.
type Router struct {
	src StatusSource
}

func NewRouter(src StatusSource) *Router { return &Router{src: src} }

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/healthz", r.handleHealthz)
	g.GET("/status", r.handleStatus)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Close the returned server to stop serving.
func NewServer(addr string, src StatusSource) *http.Server {
	r := NewRouter(src)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.src.Statuses())
}
