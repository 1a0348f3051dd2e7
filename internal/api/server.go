// Package api exposes the agent's HTTP surface: project and asset
// CRUD, editing session control, media serving, export jobs, and the
// websocket endpoint. The server binds to loopback only.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/session"
	"github.com/cutroom/cutroom-agent/internal/ws"
)

type Server struct {
	cfg      config.Config
	logger   *slog.Logger
	router   chi.Router
	http     *http.Server
	token    string
	assets   *library.Service
	media    *media.Handler
	projects *project.Repository
	sessions *session.Manager
	exports  *export.JobRepository
	runner   *export.Runner
	hub      *ws.Hub
}

type Deps struct {
	Config   config.Config
	Logger   *slog.Logger
	Token    string
	Assets   *library.Service
	Media    *media.Handler
	Projects *project.Repository
	Sessions *session.Manager
	Exports  *export.JobRepository
	Runner   *export.Runner
	Hub      *ws.Hub
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      d.Config,
		logger:   logging.WithComponent(logger, "api"),
		token:    d.Token,
		assets:   d.Assets,
		media:    d.Media,
		projects: d.Projects,
		sessions: d.Sessions,
		exports:  d.Exports,
		runner:   d.Runner,
		hub:      d.Hub,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", d.Config.Port()),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/status", s.handleStatus)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/{projectID}", s.handleGetProject)
			r.Delete("/{projectID}", s.handleDeleteProject)
			r.Get("/{projectID}/exports", s.handleListExports)
			r.Post("/{projectID}/exports", s.handleCreateExport)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleOpenSession)
			r.Get("/{sessionID}", s.handleGetSession)
			r.Delete("/{sessionID}", s.handleCloseSession)
			r.Post("/{sessionID}/save", s.handleSaveSession)
			r.Post("/{sessionID}/items", s.handleAddItem)
			r.Patch("/{sessionID}/items/{itemID}", s.handleUpdateItem)
			r.Delete("/{sessionID}/items/{itemID}", s.handleRemoveItem)
			r.Post("/{sessionID}/select", s.handleSelect)
			r.Post("/{sessionID}/transport", s.handleTransport)
			r.Get("/{sessionID}/ws", s.handleSessionWS)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", s.handleListAssets)
			r.Post("/", s.handleUploadAsset)
			r.Delete("/{assetID}", s.handleDeleteAsset)
		})

		r.Get("/media/{assetID}", s.handleServeMedia)

		r.Get("/exports/{jobID}", s.handleGetExport)
		r.Post("/exports/pause", s.handlePauseExports)
		r.Post("/exports/resume", s.handleResumeExports)
	})

	return r
}
