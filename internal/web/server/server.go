// Package server runs the restbind HTTP API
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server serves one handler on one address
type Server struct {
	http     *http.Server
	addr     string
	listener net.Listener
	logger   *zap.Logger
}

// Option tunes the underlying http.Server
type Option func(*http.Server)

// WithTimeouts overrides the read, write and idle timeouts. Zero keeps the
// default.
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

// New prepares a server for addr. Nothing is bound until Listen or Start.
func New(addr string, handler http.Handler, logger *zap.Logger, opts ...Option) (*Server, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}
	for _, opt := range opts {
		opt(hs)
	}

	return &Server{http: hs, addr: addr, logger: logger}, nil
}

// Listen binds the address. Addr reports the bound address afterwards,
// which matters when the port is 0.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = l
	return nil
}

// Start listens if needed and serves until the server is shut down
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Info("server listening", zap.String("address", s.Addr()))
	return s.http.Serve(s.listener)
}

// Shutdown stops accepting connections and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
