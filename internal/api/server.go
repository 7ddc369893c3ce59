package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/roomroster/internal/config"
	"github.com/dgallion1/roomroster/internal/pipeline"
	"github.com/dgallion1/roomroster/internal/upload"
)

// Server is the HTTP API server for roster imports.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	validator    *upload.Validator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	policy := upload.DefaultPolicy()
	if cfg.MaxUploadBytes > 0 {
		policy.MaxBytes = cfg.MaxUploadBytes
	}
	s := &Server{
		orchestrator: orch,
		validator:    upload.New(policy),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/rosters", s.handleUpload)
		r.Post("/api/rosters/batch", s.handleBatchUpload)
		r.Get("/api/rosters/{jobID}/status", s.handleStatus)
		r.Get("/api/rosters/{jobID}/rooms", s.handleRooms)
		r.Get("/api/rosters/{jobID}/report", s.handleReport)
		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
