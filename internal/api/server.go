package api

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/dgallion1/bookplay/internal/chat"
	"github.com/dgallion1/bookplay/internal/config"
	"github.com/dgallion1/bookplay/internal/game"
	"github.com/dgallion1/bookplay/internal/library"
	"github.com/dgallion1/bookplay/internal/llm"
	"github.com/dgallion1/bookplay/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

//go:embed static/index.html
var staticFS embed.FS

// Server is the HTTP API server for bookplay.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	repo         library.Repository
	games        *game.Service
	chats        *chat.Service
	stats        *llm.LLMStats
	validate     *validator.Validate
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, repo library.Repository, games *game.Service, chats *chat.Service, stats *llm.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		repo:         repo,
		games:        games,
		chats:        chats,
		stats:        stats,
		validate:     validator.New(),
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

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Post("/generate", s.handleGenerate)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/select", s.handleSelect)

		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{docID}", s.handleGetDocument)
		r.Get("/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/stats/llm", s.handleLLMStats)

		// Writes need the API key when one is configured.
		r.Group(func(r chi.Router) {
			if s.cfg.APIKey != "" {
				r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
			}
			r.Post("/documents", s.handleUpload)
			r.Post("/documents/batch", s.handleBatchUpload)
			r.Delete("/documents/{docID}", s.handleDeleteDocument)
		})
	})

	s.router = r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		jsonError(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
