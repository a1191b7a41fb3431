// Package http exposes the analysis, chat and health endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/eduplatform/insight-hub/internal/application/query"
	"github.com/eduplatform/insight-hub/internal/interface/http/handlers"
	"github.com/eduplatform/insight-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8000).
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestTimeout bounds each request context (0 = none).
	RequestTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of a JSON request body.
	MaxBodyBytes int64

	// AllowedOrigins - allowed origins for CORS, "*" for any.
	AllowedOrigins []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8000,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   120 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 110 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the handlers call.
type Dependencies struct {
	// Analysis is required.
	Analysis *query.GetStudentAnalysisHandler

	// Chat is optional; nil leaves /chat/message unmounted.
	Chat *query.StudentChatHandler

	// Health runs component checks for GET /health.
	Health *handlers.HealthChecker

	// AIConfigured reports whether the reasoning collaborator has credentials.
	AIConfigured func() bool

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	mu      sync.RWMutex
	running bool
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.Health == nil {
		deps.Health = handlers.NewHealthChecker("")
	}
	if deps.AIConfigured == nil {
		deps.AIConfigured = func() bool { return false }
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger.With(logger.Component("http")),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.Handler(),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("POST /ia/analyze/student", s.handleAnalyzeStudent)

	if s.deps.Chat != nil {
		s.router.HandleFunc("POST /chat/message", s.handleChatMessage)
	}
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return handlers.Chain(s.router,
		handlers.CORS(s.config.AllowedOrigins),
		handlers.RequestID(s.deps.Logger),
		handlers.Logging(),
		handlers.Recovery(),
		handlers.Timeout(s.config.RequestTimeout),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		logger.String("address", s.config.Address()),
		logger.Bool("chat_enabled", s.deps.Chat != nil),
	)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}
