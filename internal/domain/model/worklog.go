// Package model contains domain models passed between layers.
//
// JSON tags mirror the keys of the source data files and of the persisted
// blobs, so they must not be renamed.
package model

// StatusCompleted is the work-log status that counts as done.
const StatusCompleted = "Concluído"

// WorkLog is one row of the imported work-log sheet.
type WorkLog struct {
	Collaborator   string  `json:"Colaborador"`
	Project        string  `json:"Projeto"`
	Activity       string  `json:"Atividade"`
	Type           string  `json:"Tipo"`
	Status         string  `json:"Status"`
	StartDate      string  `json:"Início"`
	EndDate        string  `json:"Fim"`
	HoursWorkedRaw string  `json:"Hrs Trab."`
	HoursWorked    float64 `json:"Horas_Trabalhadas"`
	FunctionPoints float64 `json:"PF"`
}

// StartDay returns the YYYY-MM-DD prefix of the start date.
func (w WorkLog) StartDay() string {
	if len(w.StartDate) < 10 {
		return w.StartDate
	}
	return w.StartDate[:10]
}

// Completed reports whether the entry is in the completed status.
func (w WorkLog) Completed() bool {
	return w.Status == StatusCompleted
}
