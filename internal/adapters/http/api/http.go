// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/meetscore/internal/adapters/repository"
	service "github.com/okian/meetscore/internal/app"
	"github.com/okian/meetscore/internal/domain/aggregate"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/reconcile"
	"github.com/okian/meetscore/internal/domain/roster"
	"github.com/okian/meetscore/internal/domain/scoring"
	"github.com/okian/meetscore/internal/domain/sensitivity"
	"github.com/okian/meetscore/internal/domain/timecodec"
	"github.com/okian/meetscore/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	CreateMeet(ctx context.Context, m model.Meet) (model.Meet, error)
	GetMeet(ctx context.Context, id string) (model.Meet, uint64, error)
	Recompute(ctx context.Context, meetID, requestID string) (service.RecomputeAck, error)
	Standings(ctx context.Context, meetID string) (service.StandingsView, error)
	Progression(ctx context.Context, meetID string, cumulative bool) ([]aggregate.Step, error)
	SaveRoster(ctx context.Context, meetID, teamID string, sel model.RosterSelection) (uint64, error)
	SaveRelays(ctx context.Context, meetID, teamID string, relays []model.RelayEntry) (uint64, error)
	Sensitivity(ctx context.Context, meetID, teamID string, req service.SensitivityRequest) ([]sensitivity.Outcome, error)
	Reconcile(ctx context.Context, meetID string, rows []reconcile.Row, apply bool) (service.ReconcileReport, error)
	ScoringTable(places, startPoints int, relayMultiplier float64) (scoring.Table, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	maxBodyBytes  int64
	logger        logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies. Values <= 0 keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		maxBodyBytes:  8 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /meets", MetricsMiddleware(s.handleCreateMeet, "create_meet"))
	mux.HandleFunc("GET /meets/{id}", MetricsMiddleware(s.handleGetMeet, "get_meet"))
	mux.HandleFunc("POST /meets/{id}/recompute", MetricsMiddleware(s.handleRecompute, "recompute"))
	mux.HandleFunc("GET /meets/{id}/standings", MetricsMiddleware(s.handleStandings, "standings"))
	mux.HandleFunc("GET /meets/{id}/progression", MetricsMiddleware(s.handleProgression, "progression"))
	mux.HandleFunc("PUT /meets/{id}/rosters/{team}", MetricsMiddleware(s.handleSaveRoster, "save_roster"))
	mux.HandleFunc("PUT /meets/{id}/relays/{team}", MetricsMiddleware(s.handleSaveRelays, "save_relays"))
	mux.HandleFunc("POST /meets/{id}/sensitivity/{team}", MetricsMiddleware(s.handleSensitivity, "sensitivity"))
	mux.HandleFunc("POST /meets/{id}/reconcile", MetricsMiddleware(s.handleReconcile, "reconcile"))
	mux.HandleFunc("GET /scoring-table", MetricsMiddleware(s.handleScoringTable, "scoring_table"))
}

type versionResponse struct {
	Version uint64 `json:"version"`
}

type errorResponse struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Violations []model.Violation `json:"violations,omitempty"`
}

// decodeJSON reads a bounded JSON body into v. An empty body is allowed
// when optional is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	var tooBig *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case optional && errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooBig):
		return ErrBodyTooBig
	default:
		return badRequest("decode body: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var le *model.LimitError
	if errors.As(err, &le) {
		resp.Violations = le.Violations
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain and service errors to a status code and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrNoResult):
		return http.StatusNotFound, "not_scored"
	case errors.Is(err, repository.ErrExists):
		return http.StatusConflict, "exists"
	case errors.Is(err, ErrBodyTooBig):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, model.ErrLimitExceeded):
		return http.StatusUnprocessableEntity, "limit_exceeded"
	case errors.Is(err, service.ErrNoRoster):
		return http.StatusUnprocessableEntity, "no_roster"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidMeet),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, scoring.ErrConfiguration),
		errors.Is(err, roster.ErrInvalidDiverRatio),
		errors.Is(err, timecodec.ErrFormat),
		errors.Is(err, sensitivity.ErrInvalidPercent),
		errors.Is(err, sensitivity.ErrTooManyAthletes),
		errors.Is(err, sensitivity.ErrAthleteNotOnTeam):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, wrap(op, err))
}
