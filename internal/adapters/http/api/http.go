// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/domain/alignment"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/participation"
	"github.com/okian/rollcall/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SnapshotDependencies
	AnalyticsDependencies
}

// SnapshotDependencies manages the stored snapshots.
type SnapshotDependencies interface {
	Ingest(ctx context.Context, id string, snap model.Snapshot) (types.SnapshotInfo, error)
	Remove(ctx context.Context, id string) error
	Snapshots(ctx context.Context) []types.SnapshotInfo
}

// AnalyticsDependencies serves read-only analytics over one snapshot.
type AnalyticsDependencies interface {
	VoteSummary(ctx context.Context, id string) (participation.Summary, error)
	Alignment(ctx context.Context, id string) (types.Alignment, error)
	MemberProfile(ctx context.Context, id, name string) (alignment.Profile, error)
	AgendaItems(ctx context.Context, id string) ([]participation.Meeting, error)
	AgendaItem(ctx context.Context, id, itemID string) (participation.AgendaItemDetail, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	snapshotsHandler *SnapshotsHandler
	analyticsHandler *AnalyticsHandler

	maxUploadBytes int64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.snapshotsHandler = NewSnapshotsHandler(deps, s.maxUploadBytes)
	s.analyticsHandler = NewAnalyticsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /snapshots", MetricsMiddleware(s.snapshotsHandler.HandleList, "snapshots_list"))
	mux.HandleFunc("POST /snapshots", MetricsMiddleware(s.snapshotsHandler.HandleUpload, "snapshots_upload"))
	mux.HandleFunc("DELETE /snapshots/{id}", MetricsMiddleware(s.snapshotsHandler.HandleDelete, "snapshots_delete"))

	mux.HandleFunc("GET /snapshots/{id}/summary", MetricsMiddleware(s.analyticsHandler.HandleSummary, "summary"))
	mux.HandleFunc("GET /snapshots/{id}/alignment", MetricsMiddleware(s.analyticsHandler.HandleAlignment, "alignment"))
	mux.HandleFunc("GET /snapshots/{id}/members/{name}", MetricsMiddleware(s.analyticsHandler.HandleMember, "member"))
	mux.HandleFunc("GET /snapshots/{id}/agenda", MetricsMiddleware(s.analyticsHandler.HandleAgenda, "agenda"))
	mux.HandleFunc("GET /snapshots/{id}/agenda/{item_id}", MetricsMiddleware(s.analyticsHandler.HandleAgendaItem, "agenda_item"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSnapshotNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrAgendaItemNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrInvalidSnapshotID):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
