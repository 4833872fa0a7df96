package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"cinereads/internal/api"
	"cinereads/internal/cachekey"
	"cinereads/internal/logging"
	"cinereads/internal/metadata"
	"cinereads/internal/recommend"
	"cinereads/internal/services"
)

const maxRequestBody = 1 << 20

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.RecommendationsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.recs.Recommend(r.Context(), req.Movies, req.Preferences.ToPreferences(), recommend.Kind(req.RecommendationType), req.Refresh)
	if err != nil {
		s.writeServiceError(w, r.Context(), "recommendations failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResult(result))
}

func (s *Server) handleTasteProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.TasteProfileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	profile, err := s.recs.TasteProfile(r.Context(), req.Movies, req.Preferences.ToPreferences())
	if err != nil {
		s.writeServiceError(w, r.Context(), "taste profile failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TasteProfileResponse{TasteProfile: *profile})
}

// handleLookup resolves one book. A clean miss is a 200 with found=false so
// clients can distinguish "no such book" from transport failures.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	title := strings.TrimSpace(query.Get("title"))
	author := strings.TrimSpace(query.Get("author"))
	raw := strings.TrimSpace(query.Get("q"))
	if title == "" && raw == "" {
		s.writeError(w, http.StatusBadRequest, "title or q parameter required")
		return
	}

	var (
		book *metadata.Book
		err  error
	)
	if title != "" {
		book, err = s.books.LookupTitleAuthor(r.Context(), title, author)
	} else {
		book, err = s.books.Lookup(r.Context(), raw)
	}
	if metadata.IsNotFound(err) {
		s.writeJSON(w, http.StatusOK, api.LookupResponse{Found: false})
		return
	}
	if err != nil {
		s.writeServiceError(w, r.Context(), "lookup failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.LookupResponse{Found: true, Book: book})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.CacheStatsResponse{Cache: s.cache.Stats()})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ns := strings.TrimSpace(r.URL.Query().Get("namespace"))
	if ns == "" {
		if err := s.cache.ClearAll(); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClearCacheResponse{Cleared: true})
		return
	}

	namespace := cachekey.Namespace(ns)
	if !namespace.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown cache namespace "+ns)
		return
	}
	if err := s.cache.Clear(namespace); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearCacheResponse{Cleared: true, Namespace: ns})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Version: s.version})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, ctx context.Context, message string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(ctx, s.logger).Error(message, logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

// statusForError maps service sentinels onto HTTP statuses. Upstream auth
// and configuration failures surface as 500 because they are deployment
// problems, not client ones.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrTransient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
