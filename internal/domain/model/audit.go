package model

// AuditStatus is the quality tier derived from an audit score.
type AuditStatus string

// Audit status tiers, stored with their display values.
const (
	StatusApproved                 AuditStatus = "Aprovado"
	StatusApprovedWithReservations AuditStatus = "Aprovado com Ressalvas"
	StatusRejected                 AuditStatus = "Reprovado"
)

// Valid reports whether s is one of the three tiers.
func (s AuditStatus) Valid() bool {
	switch s {
	case StatusApproved, StatusApprovedWithReservations, StatusRejected:
		return true
	}
	return false
}

// PendingAuditor marks audits synthesised from test cycles.
const PendingAuditor = "Pendente"

// Checklist is the 15-item sprint quality checklist, in canonical order.
type Checklist struct {
	MakerCompass              bool `json:"makerCompass"`
	RequirementsSpecification bool `json:"especificacaoRequisitos"`
	SprintPlanning            bool `json:"planejamentSprint"`
	CardsCreated              bool `json:"cardsCriados"`
	PlanningPokerEstimates    bool `json:"estimativasPlanningPoker"`
	MaxCardDuration           bool `json:"tempoMaximoCard"`
	PlayPauseTracking         bool `json:"playPauseRegistro"`
	ImpedimentsLogged         bool `json:"impedimentosRegistrados"`
	DailyTeam                 bool `json:"dailyEquipe"`
	DailyClient               bool `json:"dailyCliente"`
	FunctionPointCounting     bool `json:"contagemPF"`
	QAFullCoverage            bool `json:"qaTestou100"`
	ReviewWithClient          bool `json:"reviewRealizada"`
	Retrospective             bool `json:"retrospectiva"`
	SprintAtMost15Days        bool `json:"sprintQuinzenal"`
}

// ChecklistSize is the number of criteria in a Checklist.
const ChecklistSize = 15

// Values returns the criteria in canonical order.
func (c Checklist) Values() [ChecklistSize]bool {
	return [ChecklistSize]bool{
		c.MakerCompass,
		c.RequirementsSpecification,
		c.SprintPlanning,
		c.CardsCreated,
		c.PlanningPokerEstimates,
		c.MaxCardDuration,
		c.PlayPauseTracking,
		c.ImpedimentsLogged,
		c.DailyTeam,
		c.DailyClient,
		c.FunctionPointCounting,
		c.QAFullCoverage,
		c.ReviewWithClient,
		c.Retrospective,
		c.SprintAtMost15Days,
	}
}

// ChecklistFromValues builds a Checklist from canonical-order values.
func ChecklistFromValues(v [ChecklistSize]bool) Checklist {
	return Checklist{
		MakerCompass:              v[0],
		RequirementsSpecification: v[1],
		SprintPlanning:            v[2],
		CardsCreated:              v[3],
		PlanningPokerEstimates:    v[4],
		MaxCardDuration:           v[5],
		PlayPauseTracking:         v[6],
		ImpedimentsLogged:         v[7],
		DailyTeam:                 v[8],
		DailyClient:               v[9],
		FunctionPointCounting:     v[10],
		QAFullCoverage:            v[11],
		ReviewWithClient:          v[12],
		Retrospective:             v[13],
		SprintAtMost15Days:        v[14],
	}
}

// Met counts the satisfied criteria.
func (c Checklist) Met() int {
	n := 0
	for _, v := range c.Values() {
		if v {
			n++
		}
	}
	return n
}

// Audit is a persisted sprint audit.
type Audit struct {
	ID                string      `json:"id"`
	Manager           string      `json:"gerente,omitempty"`
	Project           string      `json:"projeto"`
	Sprint            string      `json:"sprint"`
	SprintStart       string      `json:"dataInicio"`
	SprintEnd         string      `json:"dataFim"`
	DurationDays      int         `json:"duracao"`
	AuditDate         string      `json:"data"`
	Auditor           string      `json:"auditor"`
	Checklist         Checklist   `json:"checklist"`
	ScoreTotal        float64     `json:"scoreTotal"`
	Status            AuditStatus `json:"status"`
	Notes             string      `json:"observacoes"`
	CorrectiveActions string      `json:"acoesCorretivas"`
	EstimatedHours    *float64    `json:"tempoPrevisto,omitempty"`
	TotalHoursSpent   *float64    `json:"totalHoras,omitempty"`
	HoursDelta        *float64    `json:"diferencaHoras,omitempty"`
}

// ManagerMapping assigns a responsible manager to a client.
type ManagerMapping struct {
	Client  string `json:"cliente"`
	Manager string `json:"gerente"`
}
