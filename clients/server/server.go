// Package server provides the CoverStencil editor HTTP API and web page.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/xob0t/CoverStencil/internal/config"
	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/preview"
	"github.com/xob0t/CoverStencil/pkg/renderclient"
)

//go:embed web/*
var webContent embed.FS

// Deps are the collaborators a Server is built from. Nil fields get defaults:
// an empty chain, embedded fonts and a render client built from the config.
type Deps struct {
	Chain  *assets.Chain
	Fonts  *preview.FontManager
	Render *renderclient.Client
	Logger *zap.Logger
}

// Server hosts editor sessions over HTTP.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *sessionStore
	assets   *assetManager
	chain    *assets.Chain
	renderer *preview.Renderer
	render   *renderclient.Client
	router   chi.Router
	reaper   *cron.Cron
}

// New wires a server. Uploaded assets are placed in front of the chain's
// sources so an uploaded logo wins over configured ones.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("server")

	chain := deps.Chain
	if chain == nil {
		chain = assets.NewChain(logger)
	}
	memory := assets.NewMemorySource()
	chain.Prepend(memory)

	fonts := deps.Fonts
	if fonts == nil {
		var err error
		fonts, err = preview.NewFontManager(cfg.Assets.FontPath, logger)
		if err != nil {
			return nil, fmt.Errorf("load fonts: %w", err)
		}
	}

	render := deps.Render
	if render == nil {
		render = renderclient.New(renderclient.Config{
			Endpoint:   cfg.Render.Endpoint,
			Timeout:    cfg.Render.Timeout,
			RatePerSec: cfg.Render.RatePerSec,
			Burst:      cfg.Render.Burst,
		}, nil, logger)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: newSessionStore(logger.Named("sessions")),
		assets:   newAssetManager(memory),
		chain:    chain,
		renderer: preview.NewRenderer(fonts, chain, logger),
		render:   render,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return fmt.Errorf("embed web: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/themes", s.handleThemes)
		r.Get("/templates", s.handleTemplates)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/actions", s.handleAction)
				r.Get("/payload", s.handlePayload)
				r.Get("/preview/{template}", s.handlePreview)
				r.Post("/photo", s.handlePhoto)
				r.Post("/submit", s.handleSubmit)
			})
		})

		r.Post("/upload/image", s.handleUploadImage)
		r.Get("/assets", s.handleListAssets)
		r.Get("/assets/{id}", s.handleGetAsset)
		r.Delete("/assets/{id}", s.handleDeleteAsset)
	})

	r.Handle("/*", http.FileServer(http.FS(webFS)))
	s.router = r
	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start schedules the idle-session reaper.
func (s *Server) Start() error {
	c, err := s.sessions.startReaper(s.cfg.Server.SessionSweep, s.cfg.Server.SessionTTL)
	if err != nil {
		return err
	}
	s.reaper = c
	return nil
}

// Stop halts the reaper and waits for a running sweep to finish.
func (s *Server) Stop() {
	if s.reaper != nil {
		<-s.reaper.Stop().Done()
		s.reaper = nil
	}
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	httpServer := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("editor listening", zap.String("url", "http://localhost"+httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
