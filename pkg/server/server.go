package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/guard"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/strikes"
	"trainerpass/guardian/pkg/telemetry/health"
	"trainerpass/guardian/pkg/telemetry/tracing"
)

// Checker checks submissions.
type Checker interface {
	Check(ctx context.Context, sub guard.Submission) (*guard.Verdict, error)
}

// StrikeService reads and resets author standings.
type StrikeService interface {
	Standing(ctx context.Context, author string) (*strikes.Standing, error)
	Reset(ctx context.Context, author string) (int64, error)
}

// Options wires the server to the rest of the service. Moderator and Rules
// are required; endpoints whose dependency is nil respond 503.
type Options struct {
	Moderator Checker
	Rules     guard.Rules
	Records   moderation.Storage
	Strikes   StrikeService

	Query  config.QueryConfig
	Export config.ExportConfig

	Health       *health.Checker
	HealthConfig config.HealthConfig
	Version      health.VersionInfo

	Metrics     http.Handler
	MetricsPath string

	Tracer *tracing.Tracer
}

// Server is the HTTP front end of the moderation service.
type Server struct {
	config     config.ServerConfig
	opts       Options
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.RWMutex
	isRunning bool
	addr      net.Addr
}

// New creates a server. It does not start listening.
func New(cfg config.ServerConfig, opts Options) (*Server, error) {
	if opts.Moderator == nil {
		return nil, errors.New("moderator is required")
	}
	if opts.Rules == nil {
		return nil, errors.New("rules source is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = config.DefaultShutdownTimeout
	}
	if opts.Query.DefaultLimit <= 0 {
		opts.Query.DefaultLimit = config.DefaultModerationQueryDefaultLimit
	}
	if opts.Query.MaxLimit <= 0 {
		opts.Query.MaxLimit = config.DefaultModerationQueryMaxLimit
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = config.DefaultPrometheusPath
	}

	s := &Server{
		config: cfg,
		opts:   opts,
		logger: slog.Default().With("component", "server"),
	}
	s.handler = s.setupRoutes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting guardian server", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.setStopped()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	httpServer := s.httpServer
	running := s.isRunning
	s.mu.RUnlock()

	if !running || httpServer == nil {
		return nil
	}

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}
	s.setStopped()
	s.logger.Info("guardian server stopped")
	return shutdownErr
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server is listening on, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("GET /v1/rules", s.handleRules)
	mux.HandleFunc("GET /v1/moderation/records", s.handleRecords)
	mux.HandleFunc("GET /v1/authors/{author}/standing", s.handleStanding)
	mux.HandleFunc("DELETE /v1/authors/{author}/strikes", s.handleResetStrikes)

	if s.opts.Health != nil {
		s.opts.Health.Mount(mux, s.opts.HealthConfig, s.opts.Version)
	}
	if s.opts.Metrics != nil {
		mux.Handle("GET "+s.opts.MetricsPath, s.opts.Metrics)
	}

	var handler http.Handler = mux
	if s.opts.Tracer != nil {
		handler = s.opts.Tracer.HTTPMiddleware(handler)
	}
	handler = RequestIDMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

// requestTimeout bounds storage calls made by handlers.
func (s *Server) requestTimeout() time.Duration {
	if s.opts.Query.Timeout > 0 {
		return s.opts.Query.Timeout
	}
	return config.DefaultModerationQueryTimeout
}
