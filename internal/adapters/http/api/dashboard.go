// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	"github.com/okian/compass/internal/domain/aggregate"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/types"
)

// DashboardDependencies supplies the work-log collection.
type DashboardDependencies interface {
	WorkLogs() []model.WorkLog
}

// DashboardHandler serves work-log aggregates.
type DashboardHandler struct {
	deps     DashboardDependencies
	maxLimit int
	now      func() time.Time
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies, maxLimit int) *DashboardHandler {
	return &DashboardHandler{deps: deps, maxLimit: maxLimit, now: time.Now}
}

type summaryResponse struct {
	aggregate.Summary
	Periods []string `json:"periods"`
}

type rankingResponse struct {
	Dimension string        `json:"dimension"`
	Entries   []types.Entry `json:"entries"`
}

type matrixResponse struct {
	Collaborators []string              `json:"collaborators"`
	Projects      []string              `json:"projects"`
	Rows          []aggregate.MatrixRow `json:"rows"`
	Max           float64               `json:"max"`
}

// filterFrom reads ?collaborator, ?project, ?from, ?to and ?range. A range
// preset fills whichever date bound is not given explicitly.
func filterFrom(r *http.Request, now time.Time) (aggregate.Filter, error) {
	q := r.URL.Query()
	f := aggregate.Filter{
		Collaborator: q.Get("collaborator"),
		Project:      q.Get("project"),
		DateFrom:     q.Get("from"),
		DateTo:       q.Get("to"),
	}
	if preset := q.Get("range"); preset != "" {
		ranged, ok := f.WithRange(preset, now)
		if !ok {
			return aggregate.Filter{}, ErrUnknownRange
		}
		f = ranged
	}
	return f, nil
}

func (h *DashboardHandler) filtered(r *http.Request) ([]model.WorkLog, error) {
	f, err := filterFrom(r, h.now())
	if err != nil {
		return nil, err
	}
	return aggregate.FilterRecords(h.deps.WorkLogs(), f), nil
}

// HandleSummary handles GET /dashboard/summary.
func (h *DashboardHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	records, err := h.filtered(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: aggregate.Summarize(records),
		Periods: aggregate.Periods(h.deps.WorkLogs()),
	})
}

// HandleRanking handles GET /dashboard/rankings/{dimension}?limit=N.
func (h *DashboardHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	dimension := r.PathValue("dimension")
	key, ok := aggregate.KeyFor(dimension)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrUnknownDimension)
		return
	}
	limit, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	records, err := h.filtered(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	entries := aggregate.RankHoursBy(records, key)
	if limit > 0 {
		entries = aggregate.Top(entries, limit)
	}
	writeJSON(w, http.StatusOK, rankingResponse{Dimension: dimension, Entries: entries})
}

// HandleMatrix handles GET /dashboard/matrix?limit=N. With a limit the axes
// are the top N collaborators and projects by hours.
func (h *DashboardHandler) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	records, err := h.filtered(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var m *aggregate.AllocationMatrix
	if limit > 0 {
		m = aggregate.TopAllocationMatrix(records, limit)
	} else {
		m = aggregate.BuildAllocationMatrix(records, nil, nil)
	}
	writeJSON(w, http.StatusOK, matrixResponse{
		Collaborators: m.Collaborators,
		Projects:      m.Projects,
		Rows:          m.Rows(),
		Max:           m.Max(),
	})
}

// HandleTestActivities handles GET /dashboard/test-activities.
func (h *DashboardHandler) HandleTestActivities(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate.TestActivities(h.deps.WorkLogs(), f))
}
