package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/compass/internal/adapters/repository"
	"github.com/okian/compass/internal/domain/dedupe"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// GenerateOptions tunes GeneratePending.
type GenerateOptions struct {
	// Force ignores the persisted marker. Existing (project, sprint) pairs
	// are still skipped.
	Force bool
}

// GenerateResult reports what a generation run did.
type GenerateResult struct {
	Created     []model.Audit `json:"created"`
	Skipped     int           `json:"skipped"`
	AlreadyDone bool          `json:"alreadyDone"`
}

// GeneratePending creates one pending audit per ended test cycle whose
// (project, sprint) pair has no audit yet. The marker is set once a run over
// a non-empty cycle list completes, and later runs become no-ops unless
// forced.
func (s *Service) GeneratePending(ctx context.Context, cycles []model.TestCycle, opts GenerateOptions) (GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.marker != nil && !opts.Force {
		done, err := s.marker.Done(ctx)
		switch {
		case errors.Is(err, repository.ErrCorrupt):
			s.logger.Error(ctx, "generation marker unreadable, treating as unset", logger.Error(err))
			metrics.RecordErrorByComponent("audit", "corrupt_state")
			done = false
		case err != nil:
			return GenerateResult{}, fmt.Errorf("read generation marker: %w", err)
		}
		if done {
			s.logger.Debug(ctx, "pending audits already generated")
			return GenerateResult{AlreadyDone: true}, nil
		}
	}

	audits, err := s.load(ctx)
	if err != nil {
		return GenerateResult{}, err
	}

	keys := make([]string, 0, len(audits))
	for _, a := range audits {
		keys = append(keys, model.SprintKey(a.Project, a.Sprint))
	}
	seen := dedupe.Seed(keys, dedupe.WithCapacity(len(audits)+len(cycles)))

	res := GenerateResult{Created: []model.Audit{}}
	today := model.Today(s.now())
	for _, c := range cycles {
		if !c.Ended() || seen.SeenAndRecord(model.SprintKey(c.Project, c.Sprint)) {
			res.Skipped++
			continue
		}
		res.Created = append(res.Created, s.pending(ctx, c, today))
	}

	if len(res.Created) > 0 {
		if err := s.repo.Save(ctx, append(audits, res.Created...)); err != nil {
			return GenerateResult{}, err
		}
	}
	if s.marker != nil && len(cycles) > 0 {
		if err := s.marker.Mark(ctx); err != nil {
			return res, fmt.Errorf("set generation marker: %w", err)
		}
	}

	metrics.RecordAuditsGenerated(len(res.Created))
	s.logger.Info(ctx, "pending audits generated",
		logger.Int("created", len(res.Created)),
		logger.Int("skipped", res.Skipped),
		logger.Bool("forced", opts.Force),
	)
	return res, nil
}

// pending builds the placeholder audit for an ended cycle.
func (s *Service) pending(ctx context.Context, c model.TestCycle, today string) model.Audit {
	manager := c.Manager
	if s.resolver != nil {
		manager = s.resolver.Resolve(ctx, c.Client)
	}

	start, end := model.ToISODate(c.StartDate), model.ToISODate(c.EndDate)
	duration := c.DurationDays
	if d, ok := model.DurationDays(start, end); ok {
		duration = d
	}

	var checklist model.Checklist
	res := s.scorer.Evaluate(checklist)
	a := model.Audit{
		ID:           s.newID(s.now()),
		Manager:      manager,
		Project:      c.Project,
		Sprint:       c.Sprint,
		SprintStart:  start,
		SprintEnd:    end,
		DurationDays: duration,
		AuditDate:    today,
		Auditor:      model.PendingAuditor,
		Checklist:    checklist,
		ScoreTotal:   res.Score,
		Status:       res.Status,
	}
	applyCycleHours(&a, c)
	return a
}
