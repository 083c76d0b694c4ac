// Package web is the browser-facing HTTP server: marketing pages, the drug
// lookup and the document assistant.
package web

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/medilink-health/medilink-web/internal/assistant"
	"github.com/medilink-health/medilink-web/internal/backend"
	"github.com/medilink-health/medilink-web/internal/config"
	"github.com/medilink-health/medilink-web/internal/content"
)

// Drugs is the drug database the lookup pages read from.
type Drugs interface {
	SearchDrugs(ctx context.Context, q backend.DrugQuery) (*backend.DrugPage, error)
	GetDrug(ctx context.Context, id string) (*backend.Drug, error)
}

// Server is the HTTP server for the MediLink site.
type Server struct {
	router    chi.Router
	views     *assistant.Store
	drugs     Drugs
	stats     *backend.Stats
	exporter  assistant.Exporter
	catalogue *content.Catalogue
	pages     map[string]*template.Template
	log       *slog.Logger
	cfg       config.Config

	// searches coalesces identical in-flight drug searches.
	searches singleflight.Group
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(views *assistant.Store, drugs Drugs, stats *backend.Stats, exp assistant.Exporter, cat *content.Catalogue, log *slog.Logger, cfg config.Config) (*Server, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		views:     views,
		drugs:     drugs,
		stats:     stats,
		exporter:  exp,
		catalogue: cat,
		pages:     pages,
		log:       log,
		cfg:       cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.NotFound(s.handleNotFound)

	r.Get("/health", s.handleHealth)

	// Pages.
	r.Get("/", s.handleHome)
	r.Get("/features/{slug}", s.handleFeature)
	r.Get("/contact", s.handleContact)
	r.Post("/language", s.handleLanguage)

	// Drug lookup.
	r.Get("/drug-db", s.handleDrugPage)
	r.Get("/drug-db/results", s.handleDrugResults)
	r.Get("/api/drugs", s.handleAPIDrugs)
	r.Get("/api/drugs/{drugID}", s.handleAPIDrug)

	// Document assistant.
	r.Get("/medilink-ai", s.handleAssistantPage)
	r.Route("/medilink-ai/{viewID}", func(r chi.Router) {
		r.Post("/file", s.handleSelectFile)
		r.Post("/submit", s.handleSubmit)
		r.Post("/chat", s.handleChat)
		r.Post("/sections/{section}/toggle", s.handleToggleSection)
		r.Get("/export", s.handleExport)
	})

	r.Get("/api/views/{viewID}", s.handleViewSnapshot)
	r.Get("/api/stats/backend", s.handleBackendStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
