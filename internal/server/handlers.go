package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/wordsearch/internal/models"
	"github.com/hyperjump/wordsearch/internal/search"
	"github.com/hyperjump/wordsearch/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, &query)
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	// A missing q is a malformed request; q= with blank or punctuation-only
	// text is a valid query that matches nothing.
	if !v.Has("q") {
		s.respondErr(w, "search failed", models.ErrEmptyQuery)
		return
	}
	query := models.SearchQuery{Query: v.Get("q")}
	var err error
	if query.Limit, err = intParam(v, "limit"); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if query.Offset, err = intParam(v, "offset"); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	s.search(w, r, &query)
}

func intParam(v url.Values, name string) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, query *models.SearchQuery) {
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.respondErr(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.engine.Document(id)
	if err != nil {
		s.respondErr(w, "get document failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	// The rebuild outlives a client that disconnects early.
	snap, err := s.engine.Rebuild(context.WithoutCancel(r.Context()))
	if err != nil {
		s.respondErr(w, "reindex failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.engine.Snapshot() == nil {
		status = "building"
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"version":     s.version,
		"directories": s.directories,
	}
	if snap := s.engine.Snapshot(); snap != nil {
		resp["snapshot"] = snap.Status()
	}
	if s.storage != nil {
		n, err := s.storage.CountDocuments(r.Context())
		if err != nil {
			s.logger.Error("status: count documents failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["cached_documents"] = n
		if p, ok := s.storage.(interface{ Path() string }); ok {
			if bytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(p.Path())...); err == nil {
				resp["disk_usage_bytes"] = bytes
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondErr maps engine errors to a status code.
func (s *Server) respondErr(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, search.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, search.ErrNotReady):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
