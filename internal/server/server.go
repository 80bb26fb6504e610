// Package server owns the HTTP surface: routing, middleware, and lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/handler"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/openapi"
	"github.com/tabletalk/tabletalk/internal/server/middleware"
	"github.com/tabletalk/tabletalk/internal/service"
	"github.com/tabletalk/tabletalk/internal/session"
)

// Server is the top-level HTTP server. It owns the chi router, the connector
// registry, the session manager, and the auth service.
type Server struct {
	cfg        config.ServerSettings
	router     chi.Router
	registry   *connector.Registry
	httpServer *http.Server
	logger     *slog.Logger
}

// New wires up all routes and middleware and returns a server ready to
// listen.
func New(cfg config.ServerSettings, sessions *session.Manager, registry *connector.Registry, authSvc *service.AuthService, client llm.Client, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}

	h := handler.New(sessions, registry, authSvc, client, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if cfg.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
	}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", openapi.Handler(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/connect", h.Connect)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authSvc))

			r.Post("/disconnect", h.Disconnect)
			r.Get("/status", h.Status)
			r.Get("/schema", h.Schema)

			r.Post("/chat", h.Chat)
			r.Get("/chat/history", h.History)
			r.Delete("/chat/history", h.ClearHistory)

			r.Get("/directive", h.GetDirective)
			r.Post("/directive", h.SetDirective)
			r.Delete("/directive", h.ClearDirective)
		})
	})

	s.router = r
	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Connections are per conversation, so
// readiness only reports that the process is able to serve.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then drains in-flight requests and closes every database connection.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.registry.CloseAll()
	s.logger.Info("server stopped")
	return nil
}
