// Package api provides the HTTP REST API for BondTrack.
//
// It exposes the merged asset view, the quality report, the benchmark
// curve, traded-volume rankings and market headlines to the dashboard.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/claudiormpaes/BondTrack/internal/config"
	"github.com/claudiormpaes/BondTrack/internal/curve"
	"github.com/claudiormpaes/BondTrack/internal/merge"
	"github.com/claudiormpaes/BondTrack/internal/providers/news"
	"github.com/claudiormpaes/BondTrack/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	store  store.Store
	engine *merge.Engine
	curves *curve.Accessor
	news   *news.Client
	logger *zap.Logger
}

// NewServer creates a configured API server with all routes and middleware.
// The news client may be nil; the endpoint then serves an empty list.
func NewServer(cfg *config.Config, st store.Store, engine *merge.Engine, nc *news.Client, logger *zap.Logger) *Server {
	srv := &Server{
		cfg:    cfg,
		store:  st,
		engine: engine,
		curves: curve.NewAccessor(st, logger),
		news:   nc,
		logger: logger.Named("api"),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/dates", s.handleDates)
		r.Get("/assets", s.handleAssets)
		r.Get("/assets/top-volume", s.handleTopVolume)
		r.Get("/assets/{code}/scenarios", s.handleScenarios)
		r.Get("/quality", s.handleQuality)
		r.Get("/curve", s.handleCurve)
		r.Get("/news", s.handleNews)
	})

	return r
}

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
