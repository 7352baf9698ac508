package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/jobs"
	"github.com/docpipe/docpipe/internal/sink"
	"github.com/docpipe/docpipe/internal/stats"
)

// Server is the HTTP API server for docpipe.
type Server struct {
	router       chi.Router
	importer     *importer.Importer
	orchestrator *jobs.Orchestrator
	sink         *sink.Client
	stats        *stats.ImportStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. The sink client
// may be nil when no downstream store is configured.
func NewServer(imp *importer.Importer, orch *jobs.Orchestrator, sc *sink.Client, st *stats.ImportStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		importer:     imp,
		orchestrator: orch,
		sink:         sc,
		stats:        st,
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

		r.Post("/api/import", s.handleImport)
		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/documents", s.handleGetDocument)
		r.Get("/api/stats/imports", s.handleImportStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
