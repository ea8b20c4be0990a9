package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MaxCycles bounds the positional cicloN columns of a test cycle.
const MaxCycles = 10

// Known test-cycle statuses. Anything else is carried as free text.
const (
	CycleReleased         = "Liberada"
	CycleCorrectionLate   = "Correção/Atrasada"
	CycleReleasedLate     = "Liberada/Atrasada"
	CycleReleasedNoTest   = "Liberada/Sem teste"
	cycleKeyPrefix        = "ciclo"
	missingCycleDateValue = "-"
)

// CycleDate is one populated positional test-cycle date (Index is 1-based).
type CycleDate struct {
	Index int    `json:"index"`
	Date  string `json:"date"`
}

// TestCycle is one sprint row of the test-cycle report.
type TestCycle struct {
	Manager         string      `json:"gerente"`
	Client          string      `json:"cliente"`
	Project         string      `json:"projeto"`
	Sprint          string      `json:"sprint"`
	StartDate       string      `json:"inicio"`
	EndDate         string      `json:"fim"`
	DurationDays    int         `json:"duracao"`
	CycleDates      []CycleDate `json:"-"`
	Status          string      `json:"status"`
	CorrectionHours float64     `json:"correcoes_horas"`
	CorrectionCards float64     `json:"correcoes_cards"`
	TotalHours      float64     `json:"total_horas"`
	TotalCards      float64     `json:"total_cards"`
	EstimatedHours  float64     `json:"tempo_previsto"`
	ReworkPercent   float64     `json:"retrabalho"`
}

// cycleFields avoids recursion into TestCycle's own (un)marshalers.
type cycleFields TestCycle

// UnmarshalJSON decodes the fixed fields and the sparse ciclo1..cicloN
// columns into CycleDates, ordered by index.
func (c *TestCycle) UnmarshalJSON(data []byte) error {
	var f cycleFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.CycleDates = nil
	for i := 1; i <= MaxCycles; i++ {
		msg, ok := raw[cycleKey(i)]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || s == missingCycleDateValue {
			continue
		}
		f.CycleDates = append(f.CycleDates, CycleDate{Index: i, Date: s})
	}
	*c = TestCycle(f)
	return nil
}

// MarshalJSON writes the cycle back with its positional cicloN keys.
func (c TestCycle) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(cycleFields(c))
	if err != nil {
		return nil, err
	}
	if len(c.CycleDates) == 0 {
		return base, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(base, &out); err != nil {
		return nil, err
	}
	for _, cd := range c.CycleDates {
		if cd.Index < 1 || cd.Index > MaxCycles {
			continue
		}
		v, err := json.Marshal(cd.Date)
		if err != nil {
			return nil, err
		}
		out[cycleKey(cd.Index)] = v
	}
	return json.Marshal(out)
}

// CycleDate returns the date at the 1-based position, or "" when absent.
func (c TestCycle) CycleDate(index int) string {
	for _, cd := range c.CycleDates {
		if cd.Index == index {
			return cd.Date
		}
	}
	return ""
}

// HighestCycle returns the largest populated cycle index, 0 if none.
func (c TestCycle) HighestCycle() int {
	highest := 0
	for _, cd := range c.CycleDates {
		if cd.Index > highest && cd.Index <= MaxCycles {
			highest = cd.Index
		}
	}
	return highest
}

// Ended reports whether the sprint has an end date and can be audited.
func (c TestCycle) Ended() bool {
	return strings.TrimSpace(c.EndDate) != ""
}

// SprintKey identifies a (project, sprint) pair.
func SprintKey(project, sprint string) string {
	return project + "\x00" + sprint
}

func cycleKey(i int) string {
	return cycleKeyPrefix + strconv.Itoa(i)
}
