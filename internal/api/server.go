package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Server owns the HTTP listener and the broadcast hub.
type Server struct {
	httpServer *http.Server
	hub        *WebSocketHub
	limiter    *IPRateLimiter
}

// NewServer assembles the public API server. The hub inside cfg is
// started here; callers only provide the wiring.
func NewServer(port int, cfg RouterConfig) *Server {
	if cfg.Hub == nil {
		cfg.Hub = NewWebSocketHub()
	}
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	}

	router := NewRouter(cfg)
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		hub:     cfg.Hub,
		limiter: cfg.RateLimiter,
	}
}

// Hub returns the broadcast hub so the caller can push updates.
func (s *Server) Hub() *WebSocketHub { return s.hub }

// Start runs the hub and listens. Blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	go s.hub.Run()
	log.Printf("🚀 API server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
