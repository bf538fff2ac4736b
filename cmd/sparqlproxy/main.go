package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/sparqlproxy/internal/application/monitor"
	"github.com/aescanero/sparqlproxy/internal/application/proxy"
	"github.com/aescanero/sparqlproxy/internal/config"
	"github.com/aescanero/sparqlproxy/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/sparqlproxy/pkg/adapters/sparql"
	"github.com/aescanero/sparqlproxy/pkg/api/grpc"
	"github.com/aescanero/sparqlproxy/pkg/api/http"
	"github.com/aescanero/sparqlproxy/pkg/api/websocket"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.EffectiveLogLevel())
	defer logger.Sync()

	logger.Info("starting SPARQL proxy",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("fuseki_url", cfg.Upstream.URL),
		zap.Bool("debug", bool(cfg.Debug)))

	// Initialize adapters
	sparqlClient, err := sparql.NewClient(&sparql.Config{
		Endpoint: cfg.Upstream.URL,
		Method:   cfg.Upstream.Method,
		Timeout:  cfg.Upstream.Timeout,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to create SPARQL client", zap.Error(err))
	}

	metricsCollector := prometheus.NewCollector(nil)

	// Initialize application components
	service := proxy.NewService(sparqlClient, metricsCollector, logger)

	// Initialize API servers
	httpCfg := &http.Config{
		Addr:    cfg.GetHTTPAddr(),
		Service: service,
		Logger:  logger,
	}
	if cfg.MetricsEnabled {
		httpCfg.MetricsHandler = http.DefaultMetricsHandler()
	}
	httpServer := http.NewServer(httpCfg)

	// Add WebSocket handler to HTTP server
	httpServer.SetupWebSocket(websocket.NewHandler(service, logger))

	var grpcServer *grpc.Server
	var sinks []monitor.StatusSink
	if cfg.GRPCPort > 0 {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Addr:   cfg.GetGRPCAddr(),
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("failed to create gRPC server", zap.Error(err))
		}
		sinks = append(sinks, grpcServer)
	}

	var healthMonitor *monitor.HealthMonitor
	if cfg.Upstream.ProbeInterval > 0 {
		healthMonitor = monitor.NewHealthMonitor(
			sparqlClient,
			cfg.Upstream.ProbeInterval,
			metricsCollector,
			logger,
			sinks...,
		)
		healthMonitor.Start()
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Start(); err != nil {
				logger.Fatal("gRPC server failed", zap.Error(err))
			}
		}()
	}

	logger.Info("SPARQL proxy started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Duration("upstream_timeout", cfg.Upstream.Timeout),
		zap.Duration("probe_interval", cfg.Upstream.ProbeInterval))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if healthMonitor != nil {
		healthMonitor.Stop()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	logger.Info("SPARQL proxy stopped")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
