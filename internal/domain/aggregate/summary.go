package aggregate

import (
	"sort"
	"strings"

	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/types"
)

// Summary is the KPI card set for a filtered work-log collection.
type Summary struct {
	TotalHours          float64      `json:"totalHours"`
	Activities          int          `json:"activities"`
	Collaborators       int          `json:"collaborators"`
	Projects            int          `json:"projects"`
	AverageHours        float64      `json:"averageHours"`
	Completed           int          `json:"completed"`
	CompletionRate      float64      `json:"completionRate"`
	FunctionPoints      float64      `json:"functionPoints"`
	TopProject          *types.Entry `json:"topProject,omitempty"`
	TopCollaborator     *types.Entry `json:"topCollaborator,omitempty"`
	TopType             *types.Entry `json:"topType,omitempty"`
	TopTypeSharePercent float64      `json:"topTypeSharePercent"`
}

// Summarize computes the KPI card set.
func Summarize(records []model.WorkLog) Summary {
	s := Summary{
		TotalHours:     SumHours(records),
		Activities:     len(records),
		Collaborators:  len(DistinctCollaborators(records)),
		Projects:       len(DistinctProjects(records)),
		AverageHours:   AverageHours(records),
		Completed:      CompletedCount(records),
		CompletionRate: CompletionRate(records),
		FunctionPoints: SumFunctionPoints(records),
	}
	s.TopProject = first(RankHoursBy(records, ByProject))
	s.TopCollaborator = first(RankHoursBy(records, ByCollaborator))
	s.TopType = first(Rank(GroupCountBy(records, ByType)))
	if s.TopType != nil {
		s.TopTypeSharePercent = Rate(int(s.TopType.Value), len(records))
	}
	return s
}

func first(entries []types.Entry) *types.Entry {
	if len(entries) == 0 {
		return nil
	}
	e := entries[0]
	return &e
}

// Test-activity cycle states.
const (
	TestCycleDone       = "concluido"
	TestCycleInProgress = "em_andamento"
	TestCyclePending    = "pendente"
)

var (
	testMarkers     = []string{"teste", "bug", "correção", "correcao"}
	bugMarkers      = []string{"bug", "correção", "correcao"}
	activityMarkers = []string{"teste", "bug"}
)

// TestActivity summarises the test-related work of one project.
type TestActivity struct {
	Project        string  `json:"project"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Bugs           int     `json:"bugs"`
	Hours          float64 `json:"hours"`
	Collaborators  int     `json:"collaborators"`
	CompletionRate float64 `json:"completionRate"`
	Period         string  `json:"period"`
	Status         string  `json:"status"`
}

// IsTestRecord reports whether a record is test, bug or correction work.
func IsTestRecord(r model.WorkLog) bool {
	return containsAny(r.Type, testMarkers) || containsAny(r.Activity, activityMarkers)
}

// TestActivities groups test-related records by project, ordered by
// ascending completion rate (then project name).
func TestActivities(records []model.WorkLog, f Filter) []TestActivity {
	byProject := make(map[string][]model.WorkLog)
	for _, r := range records {
		if !IsTestRecord(r) || !f.Match(r) {
			continue
		}
		byProject[r.Project] = append(byProject[r.Project], r)
	}

	out := make([]TestActivity, 0, len(byProject))
	for project, rs := range byProject {
		a := TestActivity{
			Project:       project,
			Total:         len(rs),
			Completed:     CompletedCount(rs),
			Hours:         SumHours(rs),
			Collaborators: len(DistinctCollaborators(rs)),
			Period:        period(rs),
		}
		a.Pending = a.Total - a.Completed
		for _, r := range rs {
			if containsAny(r.Type, bugMarkers) {
				a.Bugs++
			}
		}
		a.CompletionRate = Rate(a.Completed, a.Total)
		switch {
		case a.Completed == a.Total:
			a.Status = TestCycleDone
		case a.Completed == 0:
			a.Status = TestCyclePending
		default:
			a.Status = TestCycleInProgress
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate < out[j].CompletionRate
		}
		return out[i].Project < out[j].Project
	})
	return out
}

func period(records []model.WorkLog) string {
	months := Periods(records)
	switch len(months) {
	case 0:
		return ""
	case 1:
		return months[0]
	default:
		return months[0] + " a " + months[len(months)-1]
	}
}

func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
