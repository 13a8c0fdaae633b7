package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/internal/leadfilter"
	"github.com/veda-group/leadgen-cli/internal/model"
)

// resultsResponse is the payload for /api/results and /api/search. A
// failed store read still renders as a valid (empty) page with Message
// set, so the front end never sees a 5xx for a missing collection.
type resultsResponse struct {
	Results    []model.Lead     `json:"results"`
	Pagination model.Pagination `json:"pagination"`
	Message    string           `json:"message,omitempty"`
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	dbName := r.URL.Query().Get("db")
	collection := r.URL.Query().Get("collection")
	if dbName == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: db")
		return
	}
	if collection == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: collection")
		return
	}

	query := r.URL.Query().Get("q")
	sort := leadfilter.ParseSortKey(r.URL.Query().Get("sort"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	result, err := s.leads.Results(r.Context(), dbName, collection, query, page, sort)
	if err != nil {
		s.log.Warn("results lookup failed",
			zap.String("db", dbName),
			zap.String("collection", collection),
			zap.Error(err))
		writeJSON(w, http.StatusOK, resultsResponse{
			Results:    []model.Lead{},
			Pagination: model.Pagination{CurrentPage: page},
			Message:    "failed to load leads; check the database and collection names",
		})
		return
	}

	writeJSON(w, http.StatusOK, resultsResponse{
		Results:    result.Items,
		Pagination: result.Pagination,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	dbName := r.URL.Query().Get("db")
	collection := r.URL.Query().Get("collection")
	if dbName == "" || collection == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters: db and collection")
		return
	}

	query := r.URL.Query().Get("q")
	sort := leadfilter.ParseSortKey(r.URL.Query().Get("sort"))

	filename, payload, err := s.leads.ExportCSV(r.Context(), dbName, collection, query, sort)
	if err != nil {
		s.log.Warn("export failed",
			zap.String("db", dbName),
			zap.String("collection", collection),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write([]byte(payload))
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: q")
		return
	}

	result, err := s.cities.Search(r.Context(), query)
	if err != nil {
		s.log.Warn("city search failed", zap.String("query", query), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{
			"cities":  []model.City{},
			"message": "city search unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": result})
}

func (s *Server) handleCheckDatabase(w http.ResponseWriter, r *http.Request) {
	dbName := r.URL.Query().Get("db")
	if dbName == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: db")
		return
	}

	exists, err := s.leads.DatabaseExists(r.Context(), dbName)
	if err != nil {
		s.log.Warn("database check failed", zap.String("db", dbName), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{"exists": false, "message": "store unavailable"})
		return
	}

	resp := map[string]any{"exists": exists}
	if exists {
		if cols, err := s.leads.Collections(r.Context(), dbName); err == nil {
			resp["collections"] = cols
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// scrapeRequest selects which scraper job to start.
type scrapeRequest struct {
	Type        string `json:"type"` // "city", "maps", or "email"
	City        string `json:"city,omitempty"`
	Keyword     string `json:"keyword,omitempty"`
	DBName      string `json:"db_name,omitempty"`
	Collection  string `json:"collection,omitempty"`
	AutoRunMaps bool   `json:"auto_run_gmaps,omitempty"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		job any
		err error
	)
	switch req.Type {
	case "city", "":
		if req.City == "" {
			writeError(w, http.StatusBadRequest, "missing required parameter: city")
			return
		}
		job, err = s.tracker.StartCityScrape(r.Context(), req.City, req.Keyword, req.AutoRunMaps)
	case "maps":
		if req.DBName == "" || req.Collection == "" {
			writeError(w, http.StatusBadRequest, "missing required parameters: db_name and collection")
			return
		}
		job, err = s.tracker.StartMapsScrape(r.Context(), req.DBName, req.Collection)
	case "email":
		if req.DBName == "" || req.Collection == "" {
			writeError(w, http.StatusBadRequest, "missing required parameters: db_name and collection")
			return
		}
		job, err = s.tracker.StartEmailScrape(r.Context(), req.DBName, req.Collection)
	default:
		writeError(w, http.StatusBadRequest, "unknown scrape type: "+req.Type)
		return
	}

	if err != nil {
		s.log.Warn("scrape start failed", zap.String("type", req.Type), zap.Error(err))
		writeError(w, http.StatusBadGateway, "scraper service unavailable")
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleScraperStatus(w http.ResponseWriter, r *http.Request) {
	if id := chi.URLParam(r, "id"); id != "" {
		job, ok := s.tracker.Job(id)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown job: "+id)
			return
		}
		writeJSON(w, http.StatusOK, job)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.tracker.Jobs()})
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tracker.Terminate(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "unknown or unterminable job: "+id)
		return
	}
	job, _ := s.tracker.Job(id)
	writeJSON(w, http.StatusOK, job)
}
