package repository

import (
	"context"

	"github.com/okian/compass/internal/domain/model"
)

// AuditRepository stores the audit collection as one blob.
type AuditRepository struct {
	kv KV
}

// NewAuditRepository binds an AuditRepository to kv.
func NewAuditRepository(kv KV) *AuditRepository {
	return &AuditRepository{kv: kv}
}

// Load returns the stored audits, empty when none are stored.
func (r *AuditRepository) Load(ctx context.Context) ([]model.Audit, error) {
	var audits []model.Audit
	if _, err := loadJSON(ctx, r.kv, KeyAudits, &audits); err != nil {
		return []model.Audit{}, err
	}
	if audits == nil {
		audits = []model.Audit{}
	}
	return audits, nil
}

// Save replaces the stored collection.
func (r *AuditRepository) Save(ctx context.Context, audits []model.Audit) error {
	if audits == nil {
		audits = []model.Audit{}
	}
	return saveJSON(ctx, r.kv, KeyAudits, audits)
}
