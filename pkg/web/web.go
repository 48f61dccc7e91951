// Package web exposes the operational HTTP surface: health, session counters,
// Prometheus metrics and static pack media.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/packs"
	"github.com/voltwrench/faultbot/pkg/schema"
	"github.com/voltwrench/faultbot/pkg/session"
)

// Config wires the HTTP server.
type Config struct {
	Addr     string
	Repo     *packs.Repository
	Sessions *session.Memory
	Bound    *session.BoundCache
	Registry *prometheus.Registry
	// MediaDir serves pack reference images under /media when set.
	MediaDir string
	Log      *zap.Logger
}

// Server is the ops HTTP server. It never serves chat traffic.
type Server struct {
	cfg  Config
	http *http.Server
}

func New(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg}
	r.GET("/healthz", s.healthz)
	r.GET("/debug/sessions", s.debugSessions)
	if cfg.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}
	if cfg.MediaDir != "" {
		r.Static("/media", cfg.MediaDir)
	}

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.cfg.Log.Info("http server listening", zap.String("addr", s.cfg.Addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) healthz(c *gin.Context) {
	pc := map[string]int{}
	if s.cfg.Repo != nil {
		for m, n := range s.cfg.Repo.Counts() {
			pc[string(m)] = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "packs": pc})
}

func (s *Server) debugSessions(c *gin.Context) {
	out := gin.H{
		"manufacturers": schema.Manufacturers(),
	}
	if s.cfg.Sessions != nil {
		out["active_sessions"] = s.cfg.Sessions.Len()
	}
	if s.cfg.Bound != nil {
		out["bound_states"] = s.cfg.Bound.Len()
	}
	c.JSON(http.StatusOK, out)
}
