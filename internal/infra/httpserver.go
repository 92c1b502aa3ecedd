package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer owns the listening socket for the API. WriteTimeout applies to
// plain HTTP responses only; hijacked WebSocket connections clear their
// deadlines on upgrade and manage their own ping cycle.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds a server bound to cfg.Port with the configured
// read, write and idle timeouts.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
	}
}

// Start binds the address and serves until Shutdown. A shutdown-initiated
// stop returns nil; only bind and serve failures surface as errors.
func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
