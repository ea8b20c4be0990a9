package api

import (
	"context"
	"net/http"

	"github.com/okian/compass/internal/domain/manager"
	"github.com/okian/compass/internal/domain/model"
)

// MappingDependencies exposes the manager resolver.
type MappingDependencies interface {
	Managers() *manager.Resolver
	RefreshManagers(ctx context.Context)
}

// MappingsHandler serves the client to manager table.
type MappingsHandler struct {
	deps MappingDependencies
}

// NewMappingsHandler creates a new mappings handler.
func NewMappingsHandler(deps MappingDependencies) *MappingsHandler {
	return &MappingsHandler{deps: deps}
}

type mappingsResponse struct {
	Mappings []model.ManagerMapping `json:"mappings"`
	Saved    bool                   `json:"saved"`
}

type resolveResponse struct {
	Client  string `json:"cliente"`
	Manager string `json:"gerente"`
}

type setManagerRequest struct {
	Manager string `json:"gerente"`
}

func (h *MappingsHandler) table(ctx context.Context) mappingsResponse {
	m := h.deps.Managers()
	return mappingsResponse{Mappings: m.All(ctx), Saved: m.Saved(ctx)}
}

// HandleList handles GET /mappings.
func (h *MappingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.table(r.Context()))
}

// HandleReplace handles PUT /mappings with a full table body.
func (h *MappingsHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var in []model.ManagerMapping
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := h.deps.Managers().Replace(r.Context(), in); err != nil {
		writeDomainError(w, err)
		return
	}
	h.deps.RefreshManagers(r.Context())
	writeJSON(w, http.StatusOK, h.table(r.Context()))
}

// HandleAdd handles POST /mappings.
func (h *MappingsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var in model.ManagerMapping
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	added, err := h.deps.Managers().Add(r.Context(), in.Client, in.Manager)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.deps.RefreshManagers(r.Context())
	writeJSON(w, http.StatusCreated, added)
}

// HandleSetManager handles PUT /mappings/{client}.
func (h *MappingsHandler) HandleSetManager(w http.ResponseWriter, r *http.Request) {
	var in setManagerRequest
	if err := decodeJSON(r, &in); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := h.deps.Managers().SetManager(r.Context(), r.PathValue("client"), in.Manager)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.deps.RefreshManagers(r.Context())
	writeJSON(w, http.StatusOK, updated)
}

// HandleRemove handles DELETE /mappings/{client}.
func (h *MappingsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Managers().Remove(r.Context(), r.PathValue("client")); err != nil {
		writeDomainError(w, err)
		return
	}
	h.deps.RefreshManagers(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset handles POST /mappings/reset.
func (h *MappingsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.Managers().Reset(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	h.deps.RefreshManagers(r.Context())
	writeJSON(w, http.StatusOK, h.table(r.Context()))
}

// HandleResolve handles GET /managers/{client}.
func (h *MappingsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	client := r.PathValue("client")
	writeJSON(w, http.StatusOK, resolveResponse{
		Client:  client,
		Manager: h.deps.Managers().Resolve(r.Context(), client),
	})
}
