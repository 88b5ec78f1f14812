// Package http serves the operational endpoints of a running secretstore:
// liveness, database readiness and Prometheus metrics.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/secretstore/internal/metrics"
)

// Pinger reports whether the database accepts connections.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsServer is the HTTP server for health checks and metrics scraping.
type OpsServer struct {
	server *http.Server
	db     Pinger
	logger *slog.Logger
}

// NewOpsServer creates an OpsServer. /metrics is only mounted when
// metricsProvider is non-nil.
func NewOpsServer(
	host string,
	port int,
	db Pinger,
	logger *slog.Logger,
	metricsProvider *metrics.Provider,
) *OpsServer {
	s := &OpsServer{db: db, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)
	if metricsProvider != nil {
		router.GET("/metrics", gin.WrapH(metricsProvider.Handler()))
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *OpsServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *OpsServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *OpsServer) readinessHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("database ping failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Start serves until Shutdown is called.
func (s *OpsServer) Start(ctx context.Context) error {
	s.logger.Info("starting ops server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start ops server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *OpsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ops server")
	return s.server.Shutdown(ctx)
}
