// Package scoring computes checklist scores and quality tiers for sprint audits.
package scoring

import (
	"math"

	"github.com/okian/compass/internal/domain/model"
)

// Default tier thresholds, inclusive on the lower bound.
const (
	defaultApprovedMin     = 80.0
	defaultReservationsMin = 60.0
	maxScoreValue          = 100.0
)

// Criterion describes one checklist item.
type Criterion struct {
	Number int    `json:"number"`
	Key    string `json:"key"`
	Label  string `json:"label"`
}

// Criteria lists the checklist items in canonical order. Number is the
// 1-based position used for numbered display.
var Criteria = []Criterion{
	{1, "makerCompass", "Maker Compass"},
	{2, "especificacaoRequisitos", "Especificação de Requisitos"},
	{3, "planejamentSprint", "Planejamento da Sprint (Planning)"},
	{4, "cardsCriados", "Cards criados no SIG"},
	{5, "estimativasPlanningPoker", "Estimativas feitas via Planning Poker"},
	{6, "tempoMaximoCard", "Tempo máximo por card ≤ 420 min (7h)"},
	{7, "playPauseRegistro", "Devs utilizam Play/Pause no SIG e registram % de evolução"},
	{8, "impedimentosRegistrados", "Impedimentos registrados no SIG"},
	{9, "dailyEquipe", "Daily-E (Equipe)"},
	{10, "dailyCliente", "Daily-C (Cliente)"},
	{11, "contagemPF", "Contagem de PF realizada com o plugin"},
	{12, "qaTestou100", "QA testou 100% da Sprint antes da entrega"},
	{13, "reviewRealizada", "Review realizada com cliente e time completo"},
	{14, "retrospectiva", "Retrospectiva realizada ao final da Sprint"},
	{15, "sprintQuinzenal", "Sprint Quinzenal (≤ 15 dias)"},
}

// Result is the evaluation of one checklist.
type Result struct {
	Score  float64           `json:"score"`
	Status model.AuditStatus `json:"status"`
	Met    int               `json:"met"`
	Total  int               `json:"total"`
}

// Scorer evaluates checklists.
type Scorer interface {
	Evaluate(c model.Checklist) Result
}

// Option applies a configuration option to the ChecklistScorer.
type Option func(*ChecklistScorer)

// WithThresholds overrides the lower bounds of the Approved and
// ApprovedWithReservations tiers. Invalid pairs are ignored.
func WithThresholds(approvedMin, reservationsMin float64) Option {
	return func(s *ChecklistScorer) {
		if reservationsMin > 0 && approvedMin > reservationsMin && approvedMin <= maxScoreValue {
			s.approvedMin = approvedMin
			s.reservationsMin = reservationsMin
		}
	}
}

// ChecklistScorer implements Scorer over the 15-item checklist.
type ChecklistScorer struct {
	approvedMin     float64
	reservationsMin float64
}

// NewChecklistScorer creates a scorer with the standard 80/60 tiers.
func NewChecklistScorer(opts ...Option) *ChecklistScorer {
	s := &ChecklistScorer{
		approvedMin:     defaultApprovedMin,
		reservationsMin: defaultReservationsMin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate scores the checklist and classifies it.
func (s *ChecklistScorer) Evaluate(c model.Checklist) Result {
	met := c.Met()
	score := percent(met)
	return Result{
		Score:  score,
		Status: s.Classify(score),
		Met:    met,
		Total:  model.ChecklistSize,
	}
}

// Classify maps a score to its tier.
func (s *ChecklistScorer) Classify(score float64) model.AuditStatus {
	switch {
	case score >= s.approvedMin:
		return model.StatusApproved
	case score >= s.reservationsMin:
		return model.StatusApprovedWithReservations
	default:
		return model.StatusRejected
	}
}

var defaultScorer = NewChecklistScorer()

// ComputeScore returns the percentage of met criteria rounded to one decimal.
func ComputeScore(c model.Checklist) float64 {
	return percent(c.Met())
}

// Classify maps a score to its tier using the standard thresholds.
func Classify(score float64) model.AuditStatus {
	return defaultScorer.Classify(score)
}

// Evaluate scores and classifies with the standard thresholds.
func Evaluate(c model.Checklist) Result {
	return defaultScorer.Evaluate(c)
}

// percent computes met/15*100 at one decimal, working in tenths so that
// exact tiers such as 12/15 land on 80.0 rather than 80.00000000000001.
func percent(met int) float64 {
	if met <= 0 {
		return 0
	}
	if met >= model.ChecklistSize {
		return maxScoreValue
	}
	tenths := math.Round(float64(met) * maxScoreValue * 10 / model.ChecklistSize)
	return tenths / 10
}
