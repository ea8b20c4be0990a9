// Package service wires the domain engine to its adapters and implements the
// dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/compass/internal/adapters/repository"
	"github.com/okian/compass/internal/adapters/source"
	"github.com/okian/compass/internal/domain/audit"
	"github.com/okian/compass/internal/domain/cycles"
	"github.com/okian/compass/internal/domain/manager"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/scoring"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// Service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Service holds the loaded collections and the stateful domain services.
type Service struct {
	mu sync.RWMutex

	// Core components
	kv        repository.KV
	ownsKV    bool
	overrides *repository.Overrides
	marker    *repository.GenerationMarker
	loader    *source.Loader
	managers  *manager.Resolver
	audits    *audit.Service

	// Configuration
	dbPath          string
	workLogSource   string
	testCycleSource string
	loadTimeout     time.Duration
	busyTimeout     time.Duration
	approvedMin     float64
	reservationsMin float64
	autoGenerate    bool
	httpClient      *http.Client
	now             func() time.Time

	// State
	started  bool
	workLogs []model.WorkLog
	cycles   []model.TestCycle
	origins  map[string]string
	loadErrs map[string]error
	loadedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database file opened by Start.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithKV injects an already opened store. The service does not close it.
func WithKV(kv repository.KV) Option {
	return func(s *Service) { s.kv = kv }
}

// WithSources sets the work-log and test-cycle sources.
func WithSources(workLogs, testCycles string) Option {
	return func(s *Service) {
		s.workLogSource = workLogs
		s.testCycleSource = testCycles
	}
}

// WithLoadTimeout bounds each HTTP source fetch.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithBusyTimeout sets how long the SQLite store opened by Start waits on a
// locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithThresholds sets the lower score bounds of the Aprovado and Aprovado com
// Ressalvas tiers. Invalid pairs keep the standard 80/60.
func WithThresholds(approvedMin, reservationsMin float64) Option {
	return func(s *Service) {
		s.approvedMin = approvedMin
		s.reservationsMin = reservationsMin
	}
}

// WithAutoGenerate toggles pending-audit generation at Start.
func WithAutoGenerate(enabled bool) Option {
	return func(s *Service) { s.autoGenerate = enabled }
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithClock overrides the clock used for audit dates and IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:       "data/compass.db",
		loadTimeout:  10 * time.Second,
		busyTimeout:  5 * time.Second,
		autoGenerate: true,
		httpClient:   http.DefaultClient,
		now:          time.Now,
		origins:      map[string]string{},
		loadErrs:     map[string]error{},
		logger:       nil, // replaced in Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, loads both collections and, when enabled, runs
// pending-audit generation once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting compass service...")

	if s.kv == nil {
		kv, err := repository.NewSQLiteKV(ctx, s.dbPath,
			repository.WithBusyTimeout(s.busyTimeout),
			repository.WithClock(s.now),
		)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("open store: %w", err)
		}
		s.kv, s.ownsKV = kv, true
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	s.overrides = repository.NewOverrides(s.kv)
	s.marker = repository.NewGenerationMarker(s.kv)
	s.managers = manager.NewResolver(repository.NewMappingRepository(s.kv),
		manager.WithLogger(s.logger.Named("managers")),
	)
	s.audits = audit.NewService(repository.NewAuditRepository(s.kv),
		audit.WithMarker(s.marker),
		audit.WithResolver(s.managers),
		audit.WithScorer(scoring.NewChecklistScorer(
			scoring.WithThresholds(s.approvedMin, s.reservationsMin),
		)),
		audit.WithClock(s.now),
		audit.WithLogger(s.logger.Named("audits")),
	)
	s.loader = source.NewLoader(
		source.WithHTTPClient(s.httpClient),
		source.WithOverrides(s.overrides),
		source.WithTimeout(s.loadTimeout),
		source.WithLogger(s.logger.Named("source")),
	)
	s.started = true
	s.mu.Unlock()

	s.Reload(ctx)

	if s.autoGenerate {
		if _, err := s.GenerateAudits(ctx, false); err != nil {
			s.logger.Error(ctx, "pending audit generation failed", logger.Error(err))
			metrics.RecordErrorByComponent("service", "generate")
		}
	}

	s.logger.Info(ctx, "compass service started",
		logger.Int("workLogs", len(s.WorkLogs())),
		logger.Int("cycles", len(s.Cycles())),
		logger.Bool("autoGenerate", s.autoGenerate),
	)
	return nil
}

// Stop releases the store when the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping compass service...")

	if s.ownsKV {
		if closer, ok := s.kv.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
			}
		}
		s.kv, s.ownsKV = nil, false
	}

	s.started = false
	s.logger.Info(context.Background(), "compass service stopped")
}

// Reload fetches both collections again. Failing collections degrade to
// empty and are reported in the returned dataset.
func (s *Service) Reload(ctx context.Context) source.Dataset {
	s.mu.RLock()
	loader, resolver := s.loader, s.managers
	s.mu.RUnlock()
	if loader == nil {
		return source.Dataset{Errors: map[string]error{}}
	}

	ds := loader.LoadAll(ctx, s.workLogSource, s.testCycleSource)
	ds.Cycles = cycles.AssignManagers(ctx, ds.Cycles, resolver)

	s.mu.Lock()
	s.workLogs = ds.WorkLogs
	s.cycles = ds.Cycles
	s.origins = map[string]string{
		source.CollectionWorkLogs: ds.WorkLogOrigin,
		source.CollectionCycles:   ds.CycleOrigin,
	}
	s.loadErrs = ds.Errors
	s.loadedAt = s.now()
	s.mu.Unlock()

	metrics.UpdateDatasetSize(source.CollectionWorkLogs, len(ds.WorkLogs))
	metrics.UpdateDatasetSize(source.CollectionCycles, len(ds.Cycles))
	return ds
}

// WorkLogs returns the loaded work-log collection.
func (s *Service) WorkLogs() []model.WorkLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workLogs
}

// Cycles returns the loaded test cycles with managers resolved against the
// current mapping table.
func (s *Service) Cycles() []model.TestCycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

// RefreshManagers recomputes the manager of every loaded cycle. Called after
// the mapping table changes.
func (s *Service) RefreshManagers(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.managers == nil {
		return
	}
	s.cycles = cycles.AssignManagers(ctx, s.cycles, s.managers)
}

// Audits returns the audit service. Nil before Start.
func (s *Service) Audits() *audit.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audits
}

// Managers returns the manager resolver. Nil before Start.
func (s *Service) Managers() *manager.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers
}

// GenerateAudits creates pending audits for the loaded cycles.
func (s *Service) GenerateAudits(ctx context.Context, force bool) (audit.GenerateResult, error) {
	svc := s.Audits()
	if svc == nil {
		return audit.GenerateResult{}, ErrNotStarted
	}
	return svc.GeneratePending(ctx, s.Cycles(), audit.GenerateOptions{Force: force})
}

// ResetGeneration clears the persisted generation marker so the next
// unforced generation runs again.
func (s *Service) ResetGeneration(ctx context.Context) error {
	s.mu.RLock()
	marker := s.marker
	s.mu.RUnlock()
	if marker == nil {
		return ErrNotStarted
	}
	if err := marker.Clear(ctx); err != nil {
		return fmt.Errorf("clear generation marker: %w", err)
	}
	s.logger.Info(ctx, "generation marker cleared")
	return nil
}

// ClearImport drops the override stored for collection and reloads it from
// its configured source.
func (s *Service) ClearImport(ctx context.Context, collection string) error {
	s.mu.RLock()
	overrides := s.overrides
	s.mu.RUnlock()
	if overrides == nil {
		return ErrNotStarted
	}

	var err error
	switch collection {
	case source.CollectionWorkLogs:
		err = overrides.ClearWorkLogs(ctx)
	case source.CollectionCycles:
		err = overrides.ClearCycles(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if err != nil {
		return fmt.Errorf("clear %s override: %w", collection, err)
	}

	s.logger.Info(ctx, "import override cleared", logger.String("collection", collection))
	s.Reload(ctx)
	return nil
}

// ImportWorkLogs stores records in the override cache and makes them the
// active work-log collection.
func (s *Service) ImportWorkLogs(ctx context.Context, records []model.WorkLog) error {
	s.mu.RLock()
	overrides := s.overrides
	s.mu.RUnlock()
	if overrides == nil {
		return ErrNotStarted
	}
	if records == nil {
		records = []model.WorkLog{}
	}
	if err := overrides.PutWorkLogs(ctx, records); err != nil {
		return err
	}

	s.mu.Lock()
	s.workLogs = records
	s.origins[source.CollectionWorkLogs] = source.OriginOverride
	delete(s.loadErrs, source.CollectionWorkLogs)
	s.mu.Unlock()

	metrics.RecordSourceLoad(source.CollectionWorkLogs, source.OriginOverride)
	metrics.UpdateDatasetSize(source.CollectionWorkLogs, len(records))
	s.logger.Info(ctx, "work logs imported", logger.Int("records", len(records)))
	return nil
}

// ImportCycles stores records in the override cache and makes them the
// active test-cycle collection.
func (s *Service) ImportCycles(ctx context.Context, records []model.TestCycle) error {
	s.mu.RLock()
	overrides, resolver := s.overrides, s.managers
	s.mu.RUnlock()
	if overrides == nil {
		return ErrNotStarted
	}
	if records == nil {
		records = []model.TestCycle{}
	}
	if err := overrides.PutCycles(ctx, records); err != nil {
		return err
	}
	resolved := cycles.AssignManagers(ctx, records, resolver)

	s.mu.Lock()
	s.cycles = resolved
	s.origins[source.CollectionCycles] = source.OriginOverride
	delete(s.loadErrs, source.CollectionCycles)
	s.mu.Unlock()

	metrics.RecordSourceLoad(source.CollectionCycles, source.OriginOverride)
	metrics.UpdateDatasetSize(source.CollectionCycles, len(resolved))
	s.logger.Info(ctx, "test cycles imported", logger.Int("records", len(resolved)))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"workLogSource":   s.workLogSource,
		"testCycleSource": s.testCycleSource,
		"autoGenerate":    s.autoGenerate,
	}
	if !s.started {
		return stats
	}

	stats["workLogs"] = len(s.workLogs)
	stats["cycles"] = len(s.cycles)
	origins := make(map[string]string, len(s.origins))
	for k, v := range s.origins {
		origins[k] = v
	}
	stats["origins"] = origins
	if !s.loadedAt.IsZero() {
		stats["loadedAt"] = s.loadedAt.UTC().Format(time.RFC3339)
	}
	if len(s.loadErrs) > 0 {
		errs := make(map[string]string, len(s.loadErrs))
		for k, err := range s.loadErrs {
			errs[k] = err.Error()
		}
		stats["loadErrors"] = errs
	}
	if stamps := s.storeStamps(context.Background()); len(stamps) > 0 {
		stats["store"] = stamps
	}
	return stats
}

// storeStamps maps each stored key to its last write time. Caller holds mu.
func (s *Service) storeStamps(ctx context.Context) map[string]string {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		s.logger.Warn(ctx, "listing store keys failed", logger.Error(err))
		return nil
	}
	stamps := make(map[string]string, len(keys))
	for _, k := range keys {
		at, err := s.kv.UpdatedAt(ctx, k)
		if err != nil {
			continue
		}
		stamps[k] = at.UTC().Format(time.RFC3339)
	}
	return stamps
}
