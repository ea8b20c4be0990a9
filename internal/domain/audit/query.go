package audit

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/compass/internal/domain/model"
)

// allValues are selector values meaning "no constraint".
var allValues = map[string]struct{}{"": {}, "all": {}, "todos": {}}

// Filter narrows an audit list.
type Filter struct {
	Project  string
	Status   string
	Manager  string
	Sprint   string // case-insensitive substring
	Auditor  string // case-insensitive substring
	DateFrom string // inclusive, YYYY-MM-DD
	DateTo   string // inclusive, YYYY-MM-DD
	MinScore *float64
}

// Match reports whether a passes the filter.
func (f Filter) Match(a model.Audit) bool {
	if !isAll(f.Project) && a.Project != f.Project {
		return false
	}
	if !isAll(f.Status) && string(a.Status) != f.Status {
		return false
	}
	if !isAll(f.Manager) && a.Manager != f.Manager {
		return false
	}
	if f.Sprint != "" && !containsFold(a.Sprint, f.Sprint) {
		return false
	}
	if f.Auditor != "" && !containsFold(a.Auditor, f.Auditor) {
		return false
	}
	if f.DateFrom != "" && a.AuditDate < f.DateFrom {
		return false
	}
	if f.DateTo != "" && a.AuditDate > f.DateTo {
		return false
	}
	if f.MinScore != nil && a.ScoreTotal < *f.MinScore {
		return false
	}
	return true
}

// Query filters audits and orders them by audit date descending, then ID
// descending. The input is not modified.
func Query(audits []model.Audit, f Filter) []model.Audit {
	out := make([]model.Audit, 0, len(audits))
	for _, a := range audits {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	SortByDate(out)
	return out
}

// SortByDate orders audits newest first. Unparseable dates sort last.
func SortByDate(audits []model.Audit) {
	sort.SliceStable(audits, func(i, j int) bool {
		ti, _ := model.ParseISODate(audits[i].AuditDate)
		tj, _ := model.ParseISODate(audits[j].AuditDate)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return audits[i].ID > audits[j].ID
	})
}

// KPIs are the audit headline figures.
type KPIs struct {
	Total           int     `json:"total"`
	Approved        int     `json:"approved"`
	ConformanceRate float64 `json:"conformanceRate"`
	Critical        int     `json:"critical"`
	Pending         int     `json:"pending"`
	LastAuditDate   string  `json:"lastAuditDate"`
}

// criticalBelow is the score under which an audit counts as critical.
const criticalBelow = 60.0

// ComputeKPIs summarises a collection. The conformance rate is the approved
// share rounded to one decimal, 0 for an empty collection.
func ComputeKPIs(audits []model.Audit) KPIs {
	k := KPIs{Total: len(audits)}
	for _, a := range audits {
		if a.Status == model.StatusApproved {
			k.Approved++
		}
		if a.ScoreTotal < criticalBelow {
			k.Critical++
		}
		if a.Auditor == model.PendingAuditor {
			k.Pending++
		}
		if a.AuditDate > k.LastAuditDate {
			k.LastAuditDate = a.AuditDate
		}
	}
	if k.Total > 0 {
		k.ConformanceRate = math.Round(float64(k.Approved)/float64(k.Total)*100*10) / 10
	}
	return k
}

// Enrich returns a copy of audits with the hour figures of the matching
// test cycle (same project and sprint) filled in. Audits without a match are
// returned unchanged.
func Enrich(audits []model.Audit, cycles []model.TestCycle) []model.Audit {
	byKey := make(map[string]model.TestCycle, len(cycles))
	for _, c := range cycles {
		k := model.SprintKey(c.Project, c.Sprint)
		if _, ok := byKey[k]; !ok {
			byKey[k] = c
		}
	}

	out := make([]model.Audit, len(audits))
	for i, a := range audits {
		if c, ok := byKey[model.SprintKey(a.Project, a.Sprint)]; ok {
			applyCycleHours(&a, c)
			if a.Manager == "" {
				a.Manager = c.Manager
			}
		}
		out[i] = a
	}
	return out
}

func applyCycleHours(a *model.Audit, c model.TestCycle) {
	estimated, spent := c.EstimatedHours, c.TotalHours
	a.EstimatedHours = &estimated
	a.TotalHoursSpent = &spent
	a.HoursDelta = hoursDelta(a.EstimatedHours, a.TotalHoursSpent)
}

func isAll(v string) bool {
	_, ok := allValues[strings.ToLower(v)]
	return ok
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
