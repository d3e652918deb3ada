// Package server exposes the usage and sources API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m-ruiz/codex-usage-tui/internal/config"
	"github.com/m-ruiz/codex-usage-tui/internal/logger"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

// Server is the HTTP API host for serve mode.
type Server struct {
	router  *chi.Mux
	manager *services.Manager
	cfg     *config.Config
	server  *http.Server
}

// New creates a server over the service manager.
func New(cfg *config.Config, manager *services.Manager) *Server {
	s := &Server{
		manager: manager,
		cfg:     cfg,
	}

	router := chi.NewRouter()
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	h := newHandler(manager)
	router.Route("/api", func(r chi.Router) {
		r.Get("/usage", h.GetUsage)
		r.Get("/sources", h.ListSources)
		r.Post("/sources", h.AddSource)
		r.Delete("/sources/{id}", h.DeleteSource)
		r.Post("/sources/{id}/sync", h.SyncSource)
	})
	router.Get("/healthz", h.Health)

	s.router = router
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the configured address, walking forward through the port
// range when the port is taken, and returns the listener bound.
func (s *Server) Listen() (net.Listener, error) {
	attempts := s.cfg.PortRetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		addr := fmt.Sprintf("%s:%d", s.cfg.ServerHost, s.cfg.ServerPort+i)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		lastErr = err
		logger.Warn("address unavailable, trying next port", "addr", addr, "error", err)
	}
	return nil, fmt.Errorf("no free port in %d attempts from %s:%d: %w",
		attempts, s.cfg.ServerHost, s.cfg.ServerPort, lastErr)
}

// Serve runs the API on the listener until the context is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving usage API", "addr", ln.Addr().String())
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			return s.server.Close()
		}
		return nil
	}
}

// requestLogger logs each request with method, path, and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		logger.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"remote_ip", req.RemoteAddr,
		)
	})
}
