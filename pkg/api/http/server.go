package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/sparqlproxy/internal/application/proxy"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router  *gin.Engine
	server  *http.Server
	service *proxy.Service
	logger  *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Addr    string
	Service *proxy.Service
	Logger  *zap.Logger

	// MetricsHandler is mounted on /metrics when set
	MetricsHandler http.Handler
}

// StreamHandler serves the WebSocket query channel
type StreamHandler interface {
	HandleQueryStream(*gin.Context)
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:  router,
		service: cfg.Service,
		logger:  logger,
	}

	s.setupRoutes(cfg.MetricsHandler)

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// DefaultMetricsHandler exposes the default Prometheus registry
func DefaultMetricsHandler() http.Handler {
	return promhttp.Handler()
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(metrics http.Handler) {
	// Health check
	s.router.GET("/", s.handleHealth)

	if metrics != nil {
		s.router.GET("/metrics", gin.WrapH(metrics))
	}

	s.router.GET("/sparql", s.handleQueryGet)
	s.router.POST("/sparql", s.handleQueryPost)
}

// SetupWebSocket adds the WebSocket query channel to the server
func (s *Server) SetupWebSocket(handler StreamHandler) {
	s.router.GET("/sparql/ws", handler.HandleQueryStream)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)

		// RawQuery is omitted: it holds the SPARQL text
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)))
	}
}
