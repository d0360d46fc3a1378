package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamfinder/internal/api"
	"streamfinder/internal/config"
	"streamfinder/internal/history"
	"streamfinder/internal/logging"
	"streamfinder/internal/metrics"
	"streamfinder/internal/services"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	requestIDHeader     = "X-Request-ID"
)

// Server exposes StreamService over HTTP.
type Server struct {
	bind    string
	token   string
	policy  string
	logger  *slog.Logger
	svc     *api.StreamService
	metrics *metrics.Recorder

	listener net.Listener
	server   *http.Server
}

// New builds a Server bound to cfg.Paths.APIBind.
func New(cfg *config.Config, svc *api.StreamService, recorder *metrics.Recorder, logger *slog.Logger) (*Server, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("server requires config and service")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("paths.api_bind is empty")
	}
	srv := &Server{
		bind:    bind,
		token:   cfg.Paths.APIToken,
		policy:  cfg.Streams.MissingStreamPolicy,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		svc:     svc,
		metrics: recorder,
	}
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the routed handler. Health and metrics are unauthenticated.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/streams/{type}/{id}", authMiddleware(s.token, s.handleStreams))
	mux.HandleFunc("GET /api/search", authMiddleware(s.token, s.handleSearch))
	mux.HandleFunc("GET /api/history", authMiddleware(s.token, s.handleHistory))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.withRequestID(mux)
}

// Start listens on the configured address and serves until ctx is done.
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

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth_required", s.token != ""),
	)
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
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

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), requestID)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:         "ok",
		TMDBConfigured: s.svc.HasCanonicalLookup(),
		Policy:         s.policy,
		HistoryEnabled: s.svc.HasHistory(),
	})
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := api.ResolveRequest{
		MediaType:     r.PathValue("type"),
		ID:            r.PathValue("id"),
		Title:         query.Get("title"),
		OriginalTitle: query.Get("original_title"),
		Origin:        history.OriginAPI,
	}
	if value := strings.TrimSpace(query.Get("year")); value != "" {
		year, err := strconv.Atoi(value)
		if err != nil || year < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		req.Year = year
	}

	res, err := s.svc.Resolve(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResolution(res))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		s.writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}
	candidates, err := s.svc.Search(r.Context(), keyword)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, api.ErrSearchUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SearchResponse{Keyword: keyword, Candidates: api.FromCandidates(candidates)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	entries, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: api.FromHistoryEntries(entries)})
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

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
