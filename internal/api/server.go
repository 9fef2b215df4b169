// Copyright (c) 2026 Kurso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/kurso/internal/asset"
	"github.com/taibuivan/kurso/internal/content"
	"github.com/taibuivan/kurso/internal/platform/config"
	"github.com/taibuivan/kurso/internal/platform/constants"
	"github.com/taibuivan/kurso/internal/platform/middleware"
	"github.com/taibuivan/kurso/internal/plugintype"
	"github.com/taibuivan/kurso/internal/publish"
	"github.com/taibuivan/kurso/internal/translate"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Content handles course listing, retrieval and duplication.
	Content *content.Handler

	// PluginType handles the plugin registry and menu activation.
	PluginType *plugintype.Handler

	// Asset handles the orphaned course-asset cleanup.
	Asset *asset.Handler

	// Publish handles build, poll, download and preview triggers.
	Publish *publish.Handler

	// Translate handles text, language-list and whole-course translation.
	Translate *translate.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Route shapes mirror the legacy authoring tool so existing front ends
	// keep working unchanged.
	r.Route("/api", func(api chi.Router) {
		api.Group(func(timed chi.Router) {
			timed.Use(chimw.Timeout(constants.GlobalRequestTimeout))
			timed.Mount("/courses", h.Content.Routes())
			timed.Mount("/duplicatecourse", h.Content.DuplicateRoutes())
			timed.Mount("/plugintype", h.PluginType.Routes())
			timed.Mount("/menu", h.PluginType.MenuRoutes())
			timed.Mount("/cleanassets", h.Asset.Routes())
			timed.Mount("/output", h.Publish.Routes())
			timed.Mount("/build", h.Publish.BuildRoutes())
		})

		// Whole-course translation answers synchronously and takes as long
		// as its unit count times the upstream latency; no request deadline.
		api.Mount("/translate", h.Translate.Routes())
	})

	// Archive downloads sit outside /api; the path is baked into the
	// pollUrl/zipName contract handed to clients.
	r.Mount("/download", h.Publish.DownloadRoutes())

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
