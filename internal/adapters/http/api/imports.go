package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/compass/internal/domain/model"
)

// ImportDependencies accepts already-parsed collections that override the
// configured sources.
type ImportDependencies interface {
	ImportWorkLogs(ctx context.Context, records []model.WorkLog) error
	ImportCycles(ctx context.Context, records []model.TestCycle) error
	ClearImport(ctx context.Context, collection string) error
}

// Import collection path segments.
const (
	importWorkLogs = "worklogs"
	importCycles   = "cycles"
)

// ImportHandler stores override collections.
type ImportHandler struct {
	deps ImportDependencies
}

// NewImportHandler creates a new import handler.
func NewImportHandler(deps ImportDependencies) *ImportHandler {
	return &ImportHandler{deps: deps}
}

type importResponse struct {
	Records int `json:"records"`
}

// HandleWorkLogs handles PUT /import/worklogs.
func (h *ImportHandler) HandleWorkLogs(w http.ResponseWriter, r *http.Request) {
	var records []model.WorkLog
	if err := decodeJSON(r, &records); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deps.ImportWorkLogs(r.Context(), records); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Records: len(records)})
}

// HandleCycles handles PUT /import/cycles.
func (h *ImportHandler) HandleCycles(w http.ResponseWriter, r *http.Request) {
	var records []model.TestCycle
	if err := decodeJSON(r, &records); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deps.ImportCycles(r.Context(), records); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Records: len(records)})
}

// HandleClear handles DELETE /import/{collection}. The collection falls back
// to its configured source.
func (h *ImportHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	if collection != importWorkLogs && collection != importCycles {
		writeDomainError(w, fmt.Errorf("%w: %q", ErrUnknownImport, collection))
		return
	}
	if err := h.deps.ClearImport(r.Context(), collection); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
