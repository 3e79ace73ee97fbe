// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/passlog/internal/domain/model"
	"github.com/okian/passlog/internal/domain/types"
)

// callerHeader carries the pre-resolved caller identity. Authentication
// happens upstream; the value here is trusted as-is.
const callerHeader = "X-Caller"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Record runs one Out or Back transition for the caller.
	Record(ctx context.Context, caller string, req types.TransitionRequest) (types.TransitionResult, error)

	// Migrate drains both working partitions into the archive.
	Migrate(ctx context.Context) (int, error)

	// ListEvents returns up to limit events from a partition, oldest first.
	ListEvents(ctx context.Context, partition string, limit int) ([]model.Event, error)

	// IsMemberNotFound and IsRetryable classify Record errors.
	IsMemberNotFound(err error) bool
	IsRetryable(err error) bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	transitionsHandler *TransitionsHandler
	migrateHandler     *MigrateHandler
	eventsHandler      *EventsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		transitionsHandler: NewTransitionsHandler(deps),
		migrateHandler:     NewMigrateHandler(deps),
		eventsHandler:      NewEventsHandler(deps, maxListLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/transitions", MetricsMiddleware(s.transitionsHandler.HandlePostTransition, "transitions"))
	mux.HandleFunc("/migrate", MetricsMiddleware(s.migrateHandler.HandlePostMigrate, "migrate"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
}

// transitionRequest mirrors the JSON schema for POST /transitions.
type transitionRequest struct {
	RequestID     string `json:"request_id"`
	MemberID      string `json:"member_id"`
	Category      string `json:"category"`
	Action        string `json:"action"`
	ForceOverride bool   `json:"force_override"`
	Period        string `json:"period"`
	Notes         string `json:"notes"`
}

func (t transitionRequest) validate() error {
	switch {
	case strings.TrimSpace(t.MemberID) == "":
		return errors.New("missing member_id")
	case strings.TrimSpace(t.Action) == "":
		return errors.New("missing action")
	case t.Action != string(model.ActionOut) && t.Action != string(model.ActionBack):
		return errors.New(`invalid action; must be "Out" or "Back"`)
	}
	return nil
}

// errorResponse is the only failure shape returned to callers.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// NewKind tags a sentinel kind with the operation that raised it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel kind and the underlying cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}

// Wrap tags an error with the operation that raised it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
