package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"cinereads/internal/diskcache"
	"cinereads/internal/logging"
	"cinereads/internal/metadata"
	"cinereads/internal/recommend"
	"cinereads/internal/services"
)

// Recommender is the recommendation surface the HTTP layer depends on.
type Recommender interface {
	Recommend(ctx context.Context, movies []string, prefs *recommend.Preferences, kind recommend.Kind, refresh bool) (*recommend.Result, error)
	TasteProfile(ctx context.Context, movies []string, prefs *recommend.Preferences) (*recommend.TasteProfile, error)
}

// BookFinder is the catalog lookup surface the HTTP layer depends on.
type BookFinder interface {
	Lookup(ctx context.Context, raw string) (*metadata.Book, error)
	LookupTitleAuthor(ctx context.Context, title, author string) (*metadata.Book, error)
}

// Server hosts the JSON API.
type Server struct {
	bind    string
	logger  *slog.Logger
	recs    Recommender
	books   BookFinder
	cache   *diskcache.Store
	version string

	listener net.Listener
	server   *http.Server
}

// New wires the API server. The cache is required so the stats and clear
// endpoints always have a concrete store to act on.
func New(bind string, recs Recommender, books BookFinder, cache *diskcache.Store, version string, logger *slog.Logger) (*Server, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "bind address required", nil)
	}
	if recs == nil || books == nil || cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "recommender, book finder, and cache required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		recs:    recs,
		books:   books,
		cache:   cache,
		version: version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/recommendations", srv.handleRecommendations)
	mux.HandleFunc("/api/taste-profile", srv.handleTasteProfile)
	mux.HandleFunc("/api/books/lookup", srv.handleLookup)
	mux.HandleFunc("/api/cache/stats", srv.handleCacheStats)
	mux.HandleFunc("/api/cache", srv.handleCacheClear)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           srv.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// withRequestID tags each request with a correlation identifier, echoed in
// the X-Request-ID response header and attached to the request context.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
