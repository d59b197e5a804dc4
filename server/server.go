// Package server exposes the generation service over HTTP: job submission,
// status polling, result download, and model management.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config configures the HTTP server.
type Config struct {
	// Host to bind to.
	Host string

	// Port to listen on.
	Port int

	// ReadTimeout for HTTP requests (default: 30s).
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses. Result downloads can be large, so
	// the default is generous (default: 5m).
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s).
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s).
	ShutdownTimeout time.Duration

	// LogSkipPaths are paths excluded from request logging.
	LogSkipPaths []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8765,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		LogSkipPaths:    []string{"/health"},
	}
}

// Server is the HTTP front of the generation service. It wires the API
// handlers and logging middleware onto one mux and manages the listener
// lifecycle.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     Config
	logger     *zap.Logger
	api        *API
}

// New creates a Server serving the given API.
func New(config Config, api *API, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Minute
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 120 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	loggingMw := NewLoggingMiddleware(logger, config.LogSkipPaths)

	s := &Server{
		mux:    mux,
		config: config,
		logger: logger,
		api:    api,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      loggingMw.Handler(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler returns the fully wired handler, useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening for HTTP requests and blocks until the server is
// shut down.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
