// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/compass/internal/domain/audit"
	"github.com/okian/compass/internal/domain/manager"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	DashboardDependencies
	CycleDependencies
	AuditDependencies
	MappingDependencies
	ImportDependencies
}

// DefaultMaxBodyBytes caps request bodies, matching the source fetch cap.
const DefaultMaxBodyBytes int64 = 64 << 20

// Server wires HTTP routes for the business API.
type Server struct {
	maxBodyBytes int64

	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
	cyclesHandler    *CyclesHandler
	auditsHandler    *AuditsHandler
	mappingsHandler  *MappingsHandler
	importHandler    *ImportHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxBodyBytes overrides the request body cap. Non-positive values are
// ignored.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// limit query parameter of ranking endpoints.
func NewServer(deps Dependencies, maxLimit int, opts ...ServerOption) *Server {
	s := &Server{
		maxBodyBytes:     DefaultMaxBodyBytes,
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		dashboardHandler: NewDashboardHandler(deps, maxLimit),
		cyclesHandler:    NewCyclesHandler(deps),
		auditsHandler:    NewAuditsHandler(deps),
		mappingsHandler:  NewMappingsHandler(deps),
		importHandler:    NewImportHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withBody caps the body of routes that decode one.
func (s *Server) withBody(next http.HandlerFunc) http.HandlerFunc {
	return LimitBody(next, s.maxBodyBytes)
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	d := s.dashboardHandler
	mux.HandleFunc("GET /dashboard/summary", MetricsMiddleware(d.HandleSummary, "dashboard_summary"))
	mux.HandleFunc("GET /dashboard/rankings/{dimension}", MetricsMiddleware(d.HandleRanking, "dashboard_rankings"))
	mux.HandleFunc("GET /dashboard/matrix", MetricsMiddleware(d.HandleMatrix, "dashboard_matrix"))
	mux.HandleFunc("GET /dashboard/test-activities", MetricsMiddleware(d.HandleTestActivities, "dashboard_test_activities"))

	c := s.cyclesHandler
	mux.HandleFunc("GET /cycles", MetricsMiddleware(c.HandleList, "cycles"))
	mux.HandleFunc("GET /cycles/rankings/rework", MetricsMiddleware(c.HandleReworkRanking, "cycles_rankings_rework"))
	mux.HandleFunc("GET /cycles/rankings/duration", MetricsMiddleware(c.HandleDurationRanking, "cycles_rankings_duration"))
	mux.HandleFunc("GET /cycles/summary", MetricsMiddleware(c.HandleSummary, "cycles_summary"))

	a := s.auditsHandler
	mux.HandleFunc("GET /audits", MetricsMiddleware(a.HandleList, "audits"))
	mux.HandleFunc("POST /audits", MetricsMiddleware(s.withBody(a.HandleCreate), "audits"))
	mux.HandleFunc("GET /audits/kpis", MetricsMiddleware(a.HandleKPIs, "audits_kpis"))
	mux.HandleFunc("GET /audits/export", MetricsMiddleware(a.HandleExport, "audits_export"))
	mux.HandleFunc("GET /audits/criteria", MetricsMiddleware(a.HandleCriteria, "audits_criteria"))
	mux.HandleFunc("POST /audits/generate", MetricsMiddleware(a.HandleGenerate, "audits_generate"))
	mux.HandleFunc("DELETE /audits/generate/marker", MetricsMiddleware(a.HandleResetGeneration, "audits_generate_marker"))
	mux.HandleFunc("GET /audits/{id}", MetricsMiddleware(a.HandleGet, "audits_item"))
	mux.HandleFunc("PUT /audits/{id}", MetricsMiddleware(s.withBody(a.HandleUpdate), "audits_item"))
	mux.HandleFunc("DELETE /audits/{id}", MetricsMiddleware(a.HandleDelete, "audits_item"))

	m := s.mappingsHandler
	mux.HandleFunc("GET /mappings", MetricsMiddleware(m.HandleList, "mappings"))
	mux.HandleFunc("PUT /mappings", MetricsMiddleware(s.withBody(m.HandleReplace), "mappings"))
	mux.HandleFunc("POST /mappings", MetricsMiddleware(s.withBody(m.HandleAdd), "mappings"))
	mux.HandleFunc("POST /mappings/reset", MetricsMiddleware(m.HandleReset, "mappings_reset"))
	mux.HandleFunc("PUT /mappings/{client}", MetricsMiddleware(s.withBody(m.HandleSetManager), "mappings_item"))
	mux.HandleFunc("DELETE /mappings/{client}", MetricsMiddleware(m.HandleRemove, "mappings_item"))
	mux.HandleFunc("GET /managers/{client}", MetricsMiddleware(m.HandleResolve, "managers"))

	i := s.importHandler
	mux.HandleFunc("PUT /import/worklogs", MetricsMiddleware(s.withBody(i.HandleWorkLogs), "import_worklogs"))
	mux.HandleFunc("PUT /import/cycles", MetricsMiddleware(s.withBody(i.HandleCycles), "import_cycles"))
	mux.HandleFunc("DELETE /import/{collection}", MetricsMiddleware(i.HandleClear, "import_item"))
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

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, audit.ErrValidation), errors.Is(err, manager.ErrInvalidMapping):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, audit.ErrNotFound), errors.Is(err, manager.ErrClientNotFound), errors.Is(err, ErrUnknownImport):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, manager.ErrDuplicateClient):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// parseLimit reads ?limit. Absent means 0 (no limit); otherwise it must be
// within [1, maxLimit].
func parseLimit(r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidLimit
	}
	if maxLimit > 0 && n > maxLimit {
		return 0, ErrLimitExceeded
	}
	return n, nil
}

// parseBool reads a boolean query parameter, false when absent or invalid.
func parseBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
