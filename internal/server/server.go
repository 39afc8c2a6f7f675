package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/subscription-intake-service/internal/lifecycle"
	"github.com/kjstillabower/subscription-intake-service/internal/listener"
)

var (
	// ErrAlreadyRunning is returned by Run when the server is already serving.
	ErrAlreadyRunning = errors.New("server already running")
	// ErrStopped is returned by Run after Shutdown.
	ErrStopped = errors.New("server stopped")
)

// Option adjusts the underlying http.Server before it serves.
type Option func(*http.Server)

// WithTimeouts overrides the read, write and idle timeouts. Zero leaves a value unchanged.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *http.Server) {
		if read > 0 {
			s.ReadTimeout = read
		}
		if write > 0 {
			s.WriteTimeout = write
		}
		if idle > 0 {
			s.IdleTimeout = idle
		}
	}
}

// Server serves an http.Handler on a pre-bound listener. Its address is fixed
// at construction; only its state changes.
type Server struct {
	listener   *listener.Listener
	httpServer *http.Server
	logger     *zap.Logger
	state      lifecycle.Tracker
}

// New builds a Server in the Constructed state. On error the listener is closed
// so the port is not leaked.
func New(l *listener.Listener, handler http.Handler, logger *zap.Logger, opts ...Option) (*Server, error) {
	if l == nil {
		return nil, errors.New("server: nil listener")
	}
	if handler == nil {
		_ = l.Close()
		return nil, errors.New("server: nil handler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("addr", l.Address()))

	errorLog, err := zap.NewStdLogAt(logger.Named("http"), zap.WarnLevel)
	if err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("server: error log: %w", err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          errorLog,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return &Server{listener: l, httpServer: srv, logger: logger}, nil
}

// Address returns host:port with the concretely assigned port.
func (s *Server) Address() string {
	return s.listener.Address()
}

// Port returns the concretely assigned port.
func (s *Server) Port() int {
	return s.listener.Port()
}

// URL returns the base http URL of the server.
func (s *Server) URL() string {
	return "http://" + s.listener.Address()
}

// State returns the current lifecycle state.
func (s *Server) State() lifecycle.State {
	return s.state.Load()
}

// Run accepts connections until Shutdown is called, then returns nil.
// Each connection is served on its own goroutine; a failing connection does
// not stop the loop. Callers usually start Run with `go`.
func (s *Server) Run() error {
	if !s.state.Advance(lifecycle.Constructed, lifecycle.Running) {
		if s.state.Load() == lifecycle.Stopped {
			return ErrStopped
		}
		return ErrAlreadyRunning
	}
	s.logger.Info("server starting")
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		s.logger.Info("server stopped")
		return nil
	}
	s.state.Stop()
	return fmt.Errorf("serve %s: %w", s.Address(), err)
}

// Shutdown stops accepting connections and waits for active requests until ctx is done.
// Safe to call before Run and more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	if prev := s.state.Stop(); prev == lifecycle.Constructed {
		// Serve never took ownership of the listener.
		_ = s.listener.Close()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown %s: %w", s.Address(), err)
	}
	return nil
}
