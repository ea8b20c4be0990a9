package api

import (
	"net/http"

	"github.com/okian/compass/internal/domain/cycles"
	"github.com/okian/compass/internal/domain/model"
)

// CycleDependencies supplies test cycles with resolved managers.
type CycleDependencies interface {
	Cycles() []model.TestCycle
}

// CyclesHandler serves test-cycle metrics.
type CyclesHandler struct {
	deps CycleDependencies
}

// NewCyclesHandler creates a new cycles handler.
func NewCyclesHandler(deps CycleDependencies) *CyclesHandler {
	return &CyclesHandler{deps: deps}
}

type cycleListResponse struct {
	Rows          []cycles.Row `json:"rows"`
	MaxCycleCount int          `json:"maxCycleCount"`
}

// selected applies ?client, ?project, ?manager and ?status equality filters.
func (h *CyclesHandler) selected(r *http.Request) []model.TestCycle {
	q := r.URL.Query()
	return cycles.Select(h.deps.Cycles(), cycles.Filter{
		Client:  q.Get("client"),
		Project: q.Get("project"),
		Manager: q.Get("manager"),
		Status:  q.Get("status"),
	})
}

// HandleList handles GET /cycles.
func (h *CyclesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	selected := h.selected(r)
	writeJSON(w, http.StatusOK, cycleListResponse{
		Rows:          cycles.Rows(selected),
		MaxCycleCount: cycles.MaxCycleCount(selected),
	})
}

// HandleReworkRanking handles GET /cycles/rankings/rework.
func (h *CyclesHandler) HandleReworkRanking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cycles.RankByReworkPerProjectAverage(h.selected(r)))
}

// HandleDurationRanking handles GET /cycles/rankings/duration.
func (h *CyclesHandler) HandleDurationRanking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cycles.RankByDuration(h.selected(r)))
}

// HandleSummary handles GET /cycles/summary.
func (h *CyclesHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cycles.Summarize(h.selected(r)))
}
