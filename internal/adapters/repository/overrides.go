package repository

import (
	"context"

	"github.com/okian/compass/internal/domain/model"
)

// Overrides caches imported collections that take precedence over the
// configured sources.
type Overrides struct {
	kv KV
}

// NewOverrides binds an Overrides cache to kv.
func NewOverrides(kv KV) *Overrides {
	return &Overrides{kv: kv}
}

// WorkLogs returns the imported work logs; ok is false when none are cached.
func (o *Overrides) WorkLogs(ctx context.Context) ([]model.WorkLog, bool, error) {
	var records []model.WorkLog
	ok, err := loadJSON(ctx, o.kv, KeyWorkLogOverride, &records)
	return records, ok, err
}

// Cycles returns the imported test cycles; ok is false when none are cached.
func (o *Overrides) Cycles(ctx context.Context) ([]model.TestCycle, bool, error) {
	var records []model.TestCycle
	ok, err := loadJSON(ctx, o.kv, KeyCycleOverride, &records)
	return records, ok, err
}

// PutWorkLogs replaces the imported work logs.
func (o *Overrides) PutWorkLogs(ctx context.Context, records []model.WorkLog) error {
	if records == nil {
		records = []model.WorkLog{}
	}
	return saveJSON(ctx, o.kv, KeyWorkLogOverride, records)
}

// PutCycles replaces the imported test cycles.
func (o *Overrides) PutCycles(ctx context.Context, records []model.TestCycle) error {
	if records == nil {
		records = []model.TestCycle{}
	}
	return saveJSON(ctx, o.kv, KeyCycleOverride, records)
}

// ClearWorkLogs drops the imported work logs so the configured source
// applies again.
func (o *Overrides) ClearWorkLogs(ctx context.Context) error {
	return o.kv.Delete(ctx, KeyWorkLogOverride)
}

// ClearCycles drops the imported test cycles.
func (o *Overrides) ClearCycles(ctx context.Context) error {
	return o.kv.Delete(ctx, KeyCycleOverride)
}
