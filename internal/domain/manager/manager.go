// Package manager resolves the responsible manager of a client and owns the
// editable client to manager mapping table.
package manager

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/pkg/logger"
)

// Unassigned is returned when no mapping names the client.
const Unassigned = "Não atribuído"

// Store persists the mapping table. Load reports ok=false when no table has
// been saved yet.
type Store interface {
	LoadMappings(ctx context.Context) (mappings []model.ManagerMapping, ok bool, err error)
	SaveMappings(ctx context.Context, mappings []model.ManagerMapping) error
}

// Defaults returns a copy of the built-in mapping table.
func Defaults() []model.ManagerMapping {
	return []model.ManagerMapping{
		{Client: "SEFAZ", Manager: "Luiz"},
		{Client: "SEMOB", Manager: "Luiz"},
		{Client: "SEMED", Manager: "Leidiane"},
		{Client: "SMED", Manager: "Leidiane"},
		{Client: "TRANSALVADOR", Manager: "Leidiane"},
		{Client: "SEDUR", Manager: "Fabíola"},
		{Client: "SEMPRE", Manager: "Wellington"},
	}
}

// Resolver answers client to manager lookups over a Store.
type Resolver struct {
	mu     sync.Mutex
	store  Store
	logger logger.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report unreadable mapping tables.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver builds a Resolver. A nil store resolves against the defaults
// only and rejects edits.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{store: store, logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the manager of client, or Unassigned. Matching is
// case-insensitive and the first matching row wins. Once a table has been
// saved it is the only source consulted.
func (r *Resolver) Resolve(ctx context.Context, client string) string {
	mappings, _ := r.table(ctx)
	return lookup(mappings, client)
}

// All returns the saved table, or the defaults when none is saved.
func (r *Resolver) All(ctx context.Context) []model.ManagerMapping {
	mappings, _ := r.table(ctx)
	return mappings
}

// Saved reports whether a table has been persisted.
func (r *Resolver) Saved(ctx context.Context) bool {
	_, saved := r.table(ctx)
	return saved
}

// Add appends a mapping. The client is stored upper-cased and must not
// already be present.
func (r *Resolver) Add(ctx context.Context, client, manager string) (model.ManagerMapping, error) {
	m, err := normalize(client, manager)
	if err != nil {
		return model.ManagerMapping{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mappings, _ := r.table(ctx)
	if indexOf(mappings, m.Client) >= 0 {
		return model.ManagerMapping{}, &MappingError{Client: m.Client, Err: ErrDuplicateClient}
	}
	mappings = append(mappings, m)
	if err := r.save(ctx, mappings); err != nil {
		return model.ManagerMapping{}, err
	}
	return m, nil
}

// Remove deletes the mapping for client.
func (r *Resolver) Remove(ctx context.Context, client string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mappings, _ := r.table(ctx)
	i := indexOf(mappings, client)
	if i < 0 {
		return &MappingError{Client: client, Err: ErrClientNotFound}
	}
	mappings = append(mappings[:i:i], mappings[i+1:]...)
	return r.save(ctx, mappings)
}

// SetManager changes the manager of an existing client.
func (r *Resolver) SetManager(ctx context.Context, client, manager string) (model.ManagerMapping, error) {
	manager = strings.TrimSpace(manager)
	if manager == "" {
		return model.ManagerMapping{}, &MappingError{Client: client, Err: ErrInvalidMapping}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	mappings, _ := r.table(ctx)
	i := indexOf(mappings, client)
	if i < 0 {
		return model.ManagerMapping{}, &MappingError{Client: client, Err: ErrClientNotFound}
	}
	mappings[i].Manager = manager
	if err := r.save(ctx, mappings); err != nil {
		return model.ManagerMapping{}, err
	}
	return mappings[i], nil
}

// Replace validates and saves a whole table.
func (r *Resolver) Replace(ctx context.Context, mappings []model.ManagerMapping) ([]model.ManagerMapping, error) {
	out := make([]model.ManagerMapping, 0, len(mappings))
	for _, in := range mappings {
		m, err := normalize(in.Client, in.Manager)
		if err != nil {
			return nil, err
		}
		if indexOf(out, m.Client) >= 0 {
			return nil, &MappingError{Client: m.Client, Err: ErrDuplicateClient}
		}
		out = append(out, m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset saves the default table.
func (r *Resolver) Reset(ctx context.Context) ([]model.ManagerMapping, error) {
	return r.Replace(ctx, Defaults())
}

func (r *Resolver) table(ctx context.Context) ([]model.ManagerMapping, bool) {
	if r.store == nil {
		return Defaults(), false
	}
	mappings, ok, err := r.store.LoadMappings(ctx)
	if err != nil {
		r.logger.Warn(ctx, "mapping table unreadable, using defaults", logger.Error(err))
		return Defaults(), false
	}
	if !ok {
		return Defaults(), false
	}
	return mappings, true
}

func (r *Resolver) save(ctx context.Context, mappings []model.ManagerMapping) error {
	if r.store == nil {
		return ErrReadOnly
	}
	if err := r.store.SaveMappings(ctx, mappings); err != nil {
		r.logger.Error(ctx, "saving mapping table failed", logger.Error(err))
		return err
	}
	r.logger.Info(ctx, "mapping table saved", logger.Int("mappings", len(mappings)))
	return nil
}

func lookup(mappings []model.ManagerMapping, client string) string {
	if i := indexOf(mappings, client); i >= 0 && mappings[i].Manager != "" {
		return mappings[i].Manager
	}
	return Unassigned
}

func indexOf(mappings []model.ManagerMapping, client string) int {
	key := strings.ToUpper(strings.TrimSpace(client))
	for i, m := range mappings {
		if strings.ToUpper(m.Client) == key {
			return i
		}
	}
	return -1
}

func normalize(client, manager string) (model.ManagerMapping, error) {
	client = strings.ToUpper(strings.TrimSpace(client))
	manager = strings.TrimSpace(manager)
	if client == "" || manager == "" {
		return model.ManagerMapping{}, &MappingError{Client: client, Err: ErrInvalidMapping}
	}
	return model.ManagerMapping{Client: client, Manager: manager}, nil
}
