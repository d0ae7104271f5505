// Package server hosts the HTTP edge: the Cloud API webhook routes and a
// health endpoint. All coalescing happens behind the bus.Ingress it hands
// deliveries to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/turngate/internal/bus"
	"github.com/nextlevelbuilder/turngate/internal/config"
	"github.com/nextlevelbuilder/turngate/internal/kv"
)

// Server is the webhook HTTP server.
type Server struct {
	cfg       config.ServerConfig
	appSecret string
	ingress   bus.Ingress
	store     kv.Store
	limiter   *SenderLimiter

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates the webhook server. The kv store is only used for the
// health endpoint's connectivity probe.
func NewServer(cfg config.ServerConfig, appSecret string, ingress bus.Ingress, store kv.Store) *Server {
	s := &Server{
		cfg:       cfg,
		appSecret: appSecret,
		ingress:   ingress,
		store:     store,
		limiter:   NewSenderLimiter(cfg.RateLimitRPM),
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /webhook", s.handleVerify)
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	return s
}

// Start begins listening. Blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("webhook server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("webhook server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Warn("health check store ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
