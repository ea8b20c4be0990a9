package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/compass/internal/domain/audit"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/scoring"
	"github.com/okian/compass/internal/export"
)

// AuditDependencies exposes the audit service and generation.
type AuditDependencies interface {
	Audits() *audit.Service
	Cycles() []model.TestCycle
	GenerateAudits(ctx context.Context, force bool) (audit.GenerateResult, error)
	ResetGeneration(ctx context.Context) error
}

// AuditsHandler serves audit CRUD, KPIs and generation.
type AuditsHandler struct {
	deps AuditDependencies
}

// NewAuditsHandler creates a new audits handler.
func NewAuditsHandler(deps AuditDependencies) *AuditsHandler {
	return &AuditsHandler{deps: deps}
}

// auditFilterFrom reads the list filters from the query string.
func auditFilterFrom(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	f := audit.Filter{
		Project:  q.Get("project"),
		Status:   q.Get("status"),
		Manager:  q.Get("manager"),
		Sprint:   q.Get("sprint"),
		Auditor:  q.Get("auditor"),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
	}
	if raw := q.Get("minScore"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return audit.Filter{}, fmt.Errorf("%w: minScore must be a number", ErrBadRequest)
		}
		f.MinScore = &v
	}
	return f, nil
}

// HandleList handles GET /audits. ?enrich=true fills hour figures from the
// matching test cycles.
func (h *AuditsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := h.deps.Audits().List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if parseBool(r, "enrich") {
		list = audit.Enrich(list, h.deps.Cycles())
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /audits.
func (h *AuditsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in audit.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	created, err := h.deps.Audits().Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /audits/{id}.
func (h *AuditsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.Audits().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleUpdate handles PUT /audits/{id}.
func (h *AuditsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in audit.Input
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := h.deps.Audits().Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /audits/{id}.
func (h *AuditsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Audits().Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGenerate handles POST /audits/generate?force=true.
func (h *AuditsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.GenerateAudits(r.Context(), parseBool(r, "force"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleResetGeneration handles DELETE /audits/generate/marker.
func (h *AuditsHandler) HandleResetGeneration(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ResetGeneration(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleKPIs handles GET /audits/kpis. The list filters apply.
func (h *AuditsHandler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := h.deps.Audits().List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audit.ComputeKPIs(list))
}

// HandleCriteria handles GET /audits/criteria.
func (h *AuditsHandler) HandleCriteria(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scoring.Criteria)
}

// HandleExport handles GET /audits/export?format=csv|json. The list filters
// apply; the format defaults to csv.
func (h *AuditsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := export.FormatCSV
	if raw := r.URL.Query().Get("format"); raw != "" {
		parsed, err := export.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
		format = parsed
	}
	f, err := auditFilterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	list, err := h.deps.Audits().List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == export.FormatJSON {
		contentType = "application/json; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="auditorias.%s"`, format))
	w.WriteHeader(http.StatusOK)
	_ = export.Write(w, format, list, time.Now().UTC())
}
