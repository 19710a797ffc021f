// Package api provides the HTTP server for RecipeDesk.
//
// It exposes the Twilio inbound webhook, a read-only recipe surface, stored
// media for outbound attachment delivery, and health and metrics endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recipedesk/RecipeDesk/internal/media"
	"github.com/recipedesk/RecipeDesk/internal/session"
	"github.com/recipedesk/RecipeDesk/internal/store"
)

// Default server timeouts.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	Addr    string
	Webhook http.HandlerFunc
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithWebhook mounts the transport's inbound webhook handler.
func WithWebhook(h http.HandlerFunc) Option {
	return func(o *Opts) { o.Webhook = h }
}

// Server is the RecipeDesk HTTP server.
type Server struct {
	records  store.Store
	sessions session.Store
	media    *media.Store
	srv      *http.Server
	started  time.Time
}

// NewServer builds the server and its routes.
func NewServer(records store.Store, sessions session.Store, mediaStore *media.Store, opts ...Option) *Server {
	cfg := Opts{Addr: ":8080"}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		records:  records,
		sessions: sessions,
		media:    mediaStore,
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/recipes", s.recipesHandler)
	mux.HandleFunc("GET /v1/recipes/{id}", s.recipeHandler)
	mux.HandleFunc("GET /v1/stats", s.statsHandler)
	mux.HandleFunc("GET /v1/media/{kind}/{ref}", s.mediaHandler)
	if cfg.Webhook != nil {
		mux.HandleFunc("POST /v1/twilio/webhook", cfg.Webhook)
	}

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
	return s
}

// Handler returns the server's route handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	slog.Info("API server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	if err != nil {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
