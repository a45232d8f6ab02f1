package view

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dirmetrics/src/util"
)

// Server serves the view API
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server for handlers on addr
func NewServer(addr string, handlers *Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(handlers),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Error("View server stopped: %v", err)
		}
	}()

	util.Info("View server listening on http://%s", ln.Addr())
	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
