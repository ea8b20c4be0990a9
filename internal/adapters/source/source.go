// Package source loads the work-log and test-cycle collections from local
// files or HTTP endpoints, preferring imported overrides when present.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Collection names, used in logs and metrics.
const (
	CollectionWorkLogs = "worklogs"
	CollectionCycles   = "cycles"
)

// Origins of a loaded collection.
const (
	OriginOverride = "override"
	OriginFile     = "file"
	OriginHTTP     = "http"
	OriginNone     = "none"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 64 << 20
)

// Overrides supplies imported collections that win over the configured
// sources.
type Overrides interface {
	WorkLogs(ctx context.Context) ([]model.WorkLog, bool, error)
	Cycles(ctx context.Context) ([]model.TestCycle, bool, error)
}

// Dataset is the result of loading both collections.
type Dataset struct {
	WorkLogs      []model.WorkLog
	Cycles        []model.TestCycle
	WorkLogOrigin string
	CycleOrigin   string
	// Errors holds the failure of each collection that degraded to empty.
	Errors map[string]error
}

// Loader fetches collections.
type Loader struct {
	client    *http.Client
	overrides Overrides
	timeout   time.Duration
	logger    logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithOverrides enables the override cache.
func WithOverrides(o Overrides) Option {
	return func(l *Loader) { l.overrides = o }
}

// WithTimeout bounds each collection load.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoader builds a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client:  http.DefaultClient,
		timeout: defaultTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadWorkLogs loads the work-log collection.
func (l *Loader) LoadWorkLogs(ctx context.Context, src string) ([]model.WorkLog, string, error) {
	if l.overrides != nil {
		records, ok, err := l.overrides.WorkLogs(ctx)
		if err != nil {
			l.logger.Warn(ctx, "work-log override unreadable, using source", logger.Error(err))
		} else if ok {
			return records, OriginOverride, nil
		}
	}
	return fetch[model.WorkLog](ctx, l, src)
}

// LoadCycles loads the test-cycle collection.
func (l *Loader) LoadCycles(ctx context.Context, src string) ([]model.TestCycle, string, error) {
	if l.overrides != nil {
		records, ok, err := l.overrides.Cycles(ctx)
		if err != nil {
			l.logger.Warn(ctx, "test-cycle override unreadable, using source", logger.Error(err))
		} else if ok {
			return records, OriginOverride, nil
		}
	}
	return fetch[model.TestCycle](ctx, l, src)
}

// LoadAll loads both collections concurrently. A failing collection is
// logged and comes back empty; LoadAll itself never fails.
func (l *Loader) LoadAll(ctx context.Context, workLogSrc, cycleSrc string) Dataset {
	ds := Dataset{
		WorkLogs: []model.WorkLog{},
		Cycles:   []model.TestCycle{},
		Errors:   make(map[string]error),
	}
	var mu sync.Mutex
	fail := func(collection string, err error) {
		mu.Lock()
		defer mu.Unlock()
		ds.Errors[collection] = err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		records, origin, err := l.LoadWorkLogs(egCtx, workLogSrc)
		if err != nil {
			l.degrade(egCtx, CollectionWorkLogs, err)
			fail(CollectionWorkLogs, err)
			return nil
		}
		l.loaded(egCtx, CollectionWorkLogs, origin, len(records))
		ds.WorkLogs, ds.WorkLogOrigin = records, origin
		return nil
	})
	eg.Go(func() error {
		records, origin, err := l.LoadCycles(egCtx, cycleSrc)
		if err != nil {
			l.degrade(egCtx, CollectionCycles, err)
			fail(CollectionCycles, err)
			return nil
		}
		l.loaded(egCtx, CollectionCycles, origin, len(records))
		ds.Cycles, ds.CycleOrigin = records, origin
		return nil
	})
	_ = eg.Wait()

	if ds.WorkLogOrigin == "" {
		ds.WorkLogOrigin = OriginNone
	}
	if ds.CycleOrigin == "" {
		ds.CycleOrigin = OriginNone
	}
	return ds
}

func (l *Loader) loaded(ctx context.Context, collection, origin string, n int) {
	metrics.RecordSourceLoad(collection, origin)
	metrics.UpdateSourceRecords(collection, n)
	l.logger.Info(ctx, "collection loaded",
		logger.String("collection", collection),
		logger.String("origin", origin),
		logger.Int("records", n),
	)
}

func (l *Loader) degrade(ctx context.Context, collection string, err error) {
	metrics.RecordSourceFailure(collection)
	metrics.RecordErrorByComponent("source", collection)
	l.logger.Error(ctx, "collection load failed, continuing with empty collection",
		logger.String("collection", collection),
		logger.Error(err),
	)
}

func fetch[T any](ctx context.Context, l *Loader, src string) ([]T, string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return []T{}, OriginNone, nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		raw    []byte
		origin string
		err    error
	)
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		origin = OriginHTTP
		raw, err = l.get(ctx, src)
	case strings.Contains(src, "://"):
		return nil, "", fmt.Errorf("%w: %w: %s", ErrLoad, ErrUnsupported, src)
	default:
		origin = OriginFile
		raw, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrLoad, src, err)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, "", fmt.Errorf("%w: decode %s: %w", ErrLoad, src, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, origin, nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
