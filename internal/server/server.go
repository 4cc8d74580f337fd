// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/engine"
	"github.com/abhisek/adaptiq/internal/metrics"
)

// Config controls the listener.
type Config struct {
	Addr string
	// Mode is passed to gin.SetMode when non-empty.
	Mode            string
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on :8080.
func DefaultConfig() Config {
	return Config{Addr: ":8080", Mode: gin.ReleaseMode, ShutdownTimeout: 5 * time.Second}
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger *zap.Logger
	// Metrics instruments requests when set. Gatherer serves /metrics.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Server routes HTTP requests to an Engine.
type Server struct {
	engine *engine.Engine
	cfg    Config
	logger *zap.Logger
	router *gin.Engine
}

// New builds the router.
func New(eng *engine.Engine, cfg Config, opts Options) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{engine: eng, cfg: cfg, logger: opts.Logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		success(c, gin.H{"status": "ok", "sessions": len(eng.Sessions())})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(opts.Gatherer))
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/sessions", s.listSessions)
		v1.POST("/sessions", s.startSession)
		v1.DELETE("/sessions/:id", s.endSession)
		v1.GET("/sessions/:id/question", s.nextQuestion)
		v1.POST("/sessions/:id/answers", s.submitAnswer)
		v1.GET("/sessions/:id/metrics", s.sessionMetrics)
		v1.PUT("/sessions/:id/engagement", s.setEngagement)
		v1.GET("/sessions/:id/plan", s.phasePlan)
		v1.POST("/sessions/:id/advance", s.shouldAdvance)
	}
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// engineError maps engine errors to HTTP status codes.
func (s *Server) engineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownSession),
		errors.Is(err, engine.ErrUnknownQuestion),
		errors.Is(err, engine.ErrCatalogMiss):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrSessionExists):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
