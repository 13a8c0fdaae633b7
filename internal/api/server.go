// Package api exposes the lead browser over HTTP: results, search,
// export, city autocomplete, database checks, and scraper job control.
// It is a thin layer over the leads, cities, and jobs services.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/internal/cities"
	"github.com/veda-group/leadgen-cli/internal/jobs"
	"github.com/veda-group/leadgen-cli/internal/leads"
	"github.com/veda-group/leadgen-cli/pkg/scraperapi"
)

// Server wires the HTTP handlers to the underlying services.
type Server struct {
	leads   *leads.Service
	cities  *cities.Service
	tracker *jobs.Tracker
	scraper scraperapi.Client
	log     *zap.Logger
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
}

// NewServer creates a Server.
func NewServer(leadSvc *leads.Service, citySvc *cities.Service, tracker *jobs.Tracker, scraper scraperapi.Client) *Server {
	return &Server{
		leads:   leadSvc,
		cities:  citySvc,
		tracker: tracker,
		scraper: scraper,
		log:     zap.L().With(zap.String("component", "api")),
	}
}

// Router builds the chi router with CORS and request logging.
func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.logRequests)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/results", s.handleResults)
		r.Get("/search", s.handleResults)
		r.Get("/export", s.handleExport)
		r.Get("/cities", s.handleCities)
		r.Get("/check-database", s.handleCheckDatabase)
		r.Post("/scrape", s.handleScrape)
		r.Get("/scraper/status", s.handleScraperStatus)
		r.Get("/scraper/status/{id}", s.handleScraperStatus)
		r.Post("/scraper/terminate/{id}", s.handleTerminate)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "scraper": "ok"}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.scraper.Health(ctx); err != nil {
		resp["scraper"] = "unreachable"
	}
	writeJSON(w, http.StatusOK, resp)
}
