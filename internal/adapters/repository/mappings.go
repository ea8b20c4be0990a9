package repository

import (
	"context"

	"github.com/okian/compass/internal/domain/model"
)

// MappingRepository stores the client to manager table.
type MappingRepository struct {
	kv KV
}

// NewMappingRepository binds a MappingRepository to kv.
func NewMappingRepository(kv KV) *MappingRepository {
	return &MappingRepository{kv: kv}
}

// LoadMappings returns the saved table; ok is false when none is saved.
func (r *MappingRepository) LoadMappings(ctx context.Context) ([]model.ManagerMapping, bool, error) {
	var mappings []model.ManagerMapping
	ok, err := loadJSON(ctx, r.kv, KeyMappings, &mappings)
	if err != nil || !ok {
		return nil, false, err
	}
	if mappings == nil {
		mappings = []model.ManagerMapping{}
	}
	return mappings, true, nil
}

// SaveMappings replaces the saved table.
func (r *MappingRepository) SaveMappings(ctx context.Context, mappings []model.ManagerMapping) error {
	if mappings == nil {
		mappings = []model.ManagerMapping{}
	}
	return saveJSON(ctx, r.kv, KeyMappings, mappings)
}
