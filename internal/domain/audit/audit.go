// Package audit implements the sprint audit lifecycle: validation, scoring,
// persistence, querying and generation of pending audits from test cycles.
package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/okian/compass/internal/adapters/repository"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/scoring"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// Repository persists the whole audit collection.
type Repository interface {
	Load(ctx context.Context) ([]model.Audit, error)
	Save(ctx context.Context, audits []model.Audit) error
}

// Marker records that automatic generation already ran.
type Marker interface {
	Done(ctx context.Context) (bool, error)
	Mark(ctx context.Context) error
}

// ManagerResolver maps a client to its manager.
type ManagerResolver interface {
	Resolve(ctx context.Context, client string) string
}

// Input is the user-editable part of an audit. Score and status are always
// derived from the checklist.
type Input struct {
	Manager           string          `json:"gerente,omitempty"`
	Project           string          `json:"projeto"`
	Sprint            string          `json:"sprint"`
	SprintStart       string          `json:"dataInicio"`
	SprintEnd         string          `json:"dataFim"`
	DurationDays      int             `json:"duracao"`
	AuditDate         string          `json:"data"`
	Auditor           string          `json:"auditor"`
	Checklist         model.Checklist `json:"checklist"`
	Notes             string          `json:"observacoes"`
	CorrectiveActions string          `json:"acoesCorretivas"`
	EstimatedHours    *float64        `json:"tempoPrevisto,omitempty"`
	TotalHoursSpent   *float64        `json:"totalHoras,omitempty"`
}

// InputFrom extracts the editable fields of an audit.
func InputFrom(a model.Audit) Input {
	return Input{
		Manager:           a.Manager,
		Project:           a.Project,
		Sprint:            a.Sprint,
		SprintStart:       a.SprintStart,
		SprintEnd:         a.SprintEnd,
		DurationDays:      a.DurationDays,
		AuditDate:         a.AuditDate,
		Auditor:           a.Auditor,
		Checklist:         a.Checklist,
		Notes:             a.Notes,
		CorrectiveActions: a.CorrectiveActions,
		EstimatedHours:    a.EstimatedHours,
		TotalHoursSpent:   a.TotalHoursSpent,
	}
}

// Service owns the audit collection.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	marker   Marker
	resolver ManagerResolver
	scorer   scoring.Scorer
	now      func() time.Time
	newID    func(time.Time) string
	logger   logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMarker enables the persisted one-shot generation guard.
func WithMarker(m Marker) Option {
	return func(s *Service) { s.marker = m }
}

// WithResolver sets the manager resolver used by generation.
func WithResolver(r ManagerResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithScorer replaces the default checklist scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides ID generation.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds a Service over repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		scorer: scoring.NewChecklistScorer(),
		now:    time.Now,
		newID:  NewID,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in, derives score, status and duration, assigns an ID
// and appends the audit.
func (s *Service) Create(ctx context.Context, in Input) (model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.build(in)
	if err != nil {
		return model.Audit{}, err
	}
	a.ID = s.newID(s.now())

	audits, err := s.load(ctx)
	if err != nil {
		return model.Audit{}, err
	}
	if err := s.repo.Save(ctx, append(audits, a)); err != nil {
		return model.Audit{}, err
	}

	metrics.RecordAuditCreated()
	metrics.RecordAuditScore(a.ScoreTotal)
	s.logger.Info(ctx, "audit created",
		logger.String("id", a.ID),
		logger.String("project", a.Project),
		logger.String("sprint", a.Sprint),
		logger.Float64("score", a.ScoreTotal),
	)
	return a, nil
}

// Update replaces the audit with id. Manager and hour fields left empty in
// in keep their stored values.
func (s *Service) Update(ctx context.Context, id string, in Input) (model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.build(in)
	if err != nil {
		return model.Audit{}, err
	}

	audits, err := s.load(ctx)
	if err != nil {
		return model.Audit{}, err
	}
	i := indexOf(audits, id)
	if i < 0 {
		return model.Audit{}, ErrNotFound
	}

	prev := audits[i]
	a.ID = prev.ID
	if a.Manager == "" {
		a.Manager = prev.Manager
	}
	if a.EstimatedHours == nil {
		a.EstimatedHours = prev.EstimatedHours
	}
	if a.TotalHoursSpent == nil {
		a.TotalHoursSpent = prev.TotalHoursSpent
	}
	a.HoursDelta = hoursDelta(a.EstimatedHours, a.TotalHoursSpent)
	audits[i] = a

	if err := s.repo.Save(ctx, audits); err != nil {
		return model.Audit{}, err
	}

	metrics.RecordAuditUpdated()
	metrics.RecordAuditScore(a.ScoreTotal)
	s.logger.Info(ctx, "audit updated", logger.String("id", id), logger.Float64("score", a.ScoreTotal))
	return a, nil
}

// Delete removes the audit with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	audits, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(audits, id)
	if i < 0 {
		return ErrNotFound
	}
	audits = append(audits[:i], audits[i+1:]...)
	if err := s.repo.Save(ctx, audits); err != nil {
		return err
	}

	metrics.RecordAuditDeleted()
	s.logger.Info(ctx, "audit deleted", logger.String("id", id))
	return nil
}

// Get returns the audit with id.
func (s *Service) Get(ctx context.Context, id string) (model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	audits, err := s.load(ctx)
	if err != nil {
		return model.Audit{}, err
	}
	i := indexOf(audits, id)
	if i < 0 {
		return model.Audit{}, ErrNotFound
	}
	return audits[i], nil
}

// All returns the stored collection in storage order.
func (s *Service) All(ctx context.Context) ([]model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// List returns the audits matching f, newest audit date first.
func (s *Service) List(ctx context.Context, f Filter) ([]model.Audit, error) {
	audits, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return Query(audits, f), nil
}

// load reads the collection. An unreadable blob is logged and treated as
// empty; other errors are returned.
func (s *Service) load(ctx context.Context) ([]model.Audit, error) {
	audits, err := s.repo.Load(ctx)
	if errors.Is(err, repository.ErrCorrupt) {
		s.logger.Error(ctx, "stored audits unreadable, starting from empty collection", logger.Error(err))
		metrics.RecordErrorByComponent("audit", "corrupt_state")
		return []model.Audit{}, nil
	}
	if err != nil {
		return nil, err
	}
	metrics.UpdateDatasetSize("audits", len(audits))
	return audits, nil
}

// build validates in and produces an audit with derived fields set.
func (s *Service) build(in Input) (model.Audit, error) {
	var missing []string
	project := strings.TrimSpace(in.Project)
	sprint := strings.TrimSpace(in.Sprint)
	auditor := strings.TrimSpace(in.Auditor)
	if project == "" {
		missing = append(missing, "projeto")
	}
	if sprint == "" {
		missing = append(missing, "sprint")
	}
	if auditor == "" {
		missing = append(missing, "auditor")
	}

	start, ok := normalizeDate(in.SprintStart)
	if !ok {
		missing = append(missing, "dataInicio")
	}
	end, ok := normalizeDate(in.SprintEnd)
	if !ok {
		missing = append(missing, "dataFim")
	}
	auditDate, ok := normalizeDate(in.AuditDate)
	if !ok {
		missing = append(missing, "data")
	}
	if in.DurationDays < 0 {
		missing = append(missing, "duracao")
	}

	if len(missing) > 0 {
		metrics.RecordValidationFailure("audit")
		return model.Audit{}, &ValidationError{Fields: missing}
	}

	if auditDate == "" {
		auditDate = model.Today(s.now())
	}
	duration := in.DurationDays
	if d, ok := model.DurationDays(start, end); ok {
		duration = d
	}

	res := s.scorer.Evaluate(in.Checklist)
	return model.Audit{
		Manager:           strings.TrimSpace(in.Manager),
		Project:           project,
		Sprint:            sprint,
		SprintStart:       start,
		SprintEnd:         end,
		DurationDays:      duration,
		AuditDate:         auditDate,
		Auditor:           auditor,
		Checklist:         in.Checklist,
		ScoreTotal:        res.Score,
		Status:            res.Status,
		Notes:             in.Notes,
		CorrectiveActions: in.CorrectiveActions,
		EstimatedHours:    in.EstimatedHours,
		TotalHoursSpent:   in.TotalHoursSpent,
		HoursDelta:        hoursDelta(in.EstimatedHours, in.TotalHoursSpent),
	}, nil
}

// normalizeDate accepts empty, ISO or DD/MM/YYYY input.
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	iso := model.ToISODate(s)
	return iso, iso != ""
}

func hoursDelta(estimated, spent *float64) *float64 {
	if estimated == nil || spent == nil {
		return nil
	}
	d := *spent - *estimated
	return &d
}

func indexOf(audits []model.Audit, id string) int {
	for i, a := range audits {
		if a.ID == id {
			return i
		}
	}
	return -1
}
