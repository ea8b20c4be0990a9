package repository

import (
	"context"
	"time"
)

type generationMark struct {
	Done bool      `json:"done"`
	At   time.Time `json:"at"`
}

// GenerationMarker records that pending audits were generated once.
type GenerationMarker struct {
	kv  KV
	now func() time.Time
}

// NewGenerationMarker binds a GenerationMarker to kv.
func NewGenerationMarker(kv KV) *GenerationMarker {
	return &GenerationMarker{kv: kv, now: time.Now}
}

// Done reports whether the marker is set. An unreadable marker reports false
// together with ErrCorrupt so callers can log it and carry on as if unset.
func (m *GenerationMarker) Done(ctx context.Context) (bool, error) {
	var mark generationMark
	ok, err := loadJSON(ctx, m.kv, KeyGenerationMarker, &mark)
	if err != nil || !ok {
		return false, err
	}
	return mark.Done, nil
}

// Mark sets the marker.
func (m *GenerationMarker) Mark(ctx context.Context) error {
	return saveJSON(ctx, m.kv, KeyGenerationMarker, generationMark{Done: true, At: m.now().UTC()})
}

// Clear removes the marker.
func (m *GenerationMarker) Clear(ctx context.Context) error {
	return m.kv.Delete(ctx, KeyGenerationMarker)
}
