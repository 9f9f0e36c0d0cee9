// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teamlens/teamlens/internal/apperrors"
	"github.com/teamlens/teamlens/internal/config"
	"github.com/teamlens/teamlens/internal/domain"
	"github.com/teamlens/teamlens/internal/service"
	"github.com/teamlens/teamlens/internal/validation"
	"github.com/teamlens/teamlens/pkg/logger/sl"
)

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log          *slog.Logger
	syncService  service.SyncService
	queryService service.QueryService
	cfg          *config.Config
}

// NewServer creates a new instance of the HTTP server. cfg is only used for
// the health endpoint's config-presence report and may be nil.
func NewServer(log *slog.Logger, syncs service.SyncService, qs service.QueryService, cfg *config.Config) *Server {
	return &Server{
		log:          log,
		syncService:  syncs,
		queryService: qs,
		cfg:          cfg,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Get("/api/health", s.GetHealth)

	mux.Route("/api/dashboard", func(r chi.Router) {
		r.Get("/data", s.GetDashboardData)
		r.Get("/members/{username}", s.GetMember)
		r.Post("/sync", s.PostSync)
		r.Get("/sync/status", s.GetSyncStatus)
		r.Get("/sync/stream", s.GetSyncStream)
	})

	return mux
}

// GetHealth reports liveness plus whether each source is configured, so a
// broken deployment is visible before the first sync attempt.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	githubConfigured := s.cfg != nil && s.cfg.GitHub.Token != "" && s.cfg.GitHub.Repos != ""
	jiraConfigured := s.cfg != nil && s.cfg.Jira.Token != "" && s.cfg.Jira.BaseURL != ""

	s.respond(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"github": githubConfigured,
		"jira":   jiraConfigured,
	})
}

func (s *Server) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetDashboardData"

	data, err := s.queryService.DashboardData(r.Context())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, data)
}

func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetMember"

	username := chi.URLParam(r, "username")

	member, err := s.queryService.Member(r.Context(), username)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.MemberStats{"member": member})
}

// PostSync kicks off a refresh and returns immediately: a sync can take
// minutes, so the work continues in the background. An empty body (or an
// empty source) means every source. Triggering a source that is already
// being refreshed is a no-op inside the sync guard, never an error.
func (s *Server) PostSync(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostSync"

	var req triggerSyncRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	sources := domain.Sources
	if req.Source != "" {
		sources = []domain.Source{domain.Source(req.Source)}
	}

	for _, source := range sources {
		s.syncService.TriggerBackground(source)
	}

	s.respond(w, http.StatusAccepted, map[string]interface{}{
		"message": "sync started",
		"syncing": s.syncingMap(),
	})
}

func (s *Server) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"syncing": s.syncingMap(),
		"sources": s.syncService.StatusAll(r.Context()),
	})
}

// syncingMap snapshots the in-flight flag for every known source.
func (s *Server) syncingMap() map[domain.Source]bool {
	syncing := make(map[domain.Source]bool, len(domain.Sources))
	for _, source := range domain.Sources {
		syncing[source] = s.syncService.Syncing(source)
	}

	return syncing
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// decodeAndValidate is a helper that deserializes a JSON request body into a struct
// and then runs validation checks on it. An empty body is allowed and leaves
// the struct zero-valued.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
func (s *Server) handleServiceError(w http.ResponseWriter, _ *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op))
	log.Error("service error occurred", sl.Err(err))

	var validationErr *validation.ValidationError

	switch {
	case errors.As(err, &validationErr):
		s.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request body")
	case errors.Is(err, apperrors.ErrInvalidSource):
		s.respondError(w, http.StatusBadRequest, apperrors.ErrInvalidSource.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
