// Package aggregate computes dashboard metrics over work-log records.
//
// Every function is pure and total: empty input yields zero values or empty
// slices, never an error.
package aggregate

import (
	"sort"

	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/internal/domain/types"
)

// AllValues are selector values meaning "no constraint".
var AllValues = []string{"", "all", "todos"}

// Filter narrows a work-log collection. Dates are YYYY-MM-DD.
type Filter struct {
	Collaborator string
	Project      string
	DateFrom     string
	DateTo       string
}

// IsAll reports whether a selector value means "no constraint".
func IsAll(v string) bool {
	for _, a := range AllValues {
		if v == a {
			return true
		}
	}
	return false
}

// Match reports whether r passes the filter. The date bounds are compared
// against the first ten characters of the start date and are inclusive.
func (f Filter) Match(r model.WorkLog) bool {
	if !IsAll(f.Collaborator) && r.Collaborator != f.Collaborator {
		return false
	}
	if !IsAll(f.Project) && r.Project != f.Project {
		return false
	}
	day := r.StartDay()
	if f.DateFrom != "" && day < f.DateFrom {
		return false
	}
	if f.DateTo != "" && day > f.DateTo {
		return false
	}
	return true
}

// FilterRecords returns the records matching f, preserving order.
func FilterRecords(records []model.WorkLog, f Filter) []model.WorkLog {
	out := make([]model.WorkLog, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SumHours totals the canonical hours.
func SumHours(records []model.WorkLog) float64 {
	total := 0.0
	for _, r := range records {
		total += r.HoursWorked
	}
	return total
}

// SumFunctionPoints totals the function points.
func SumFunctionPoints(records []model.WorkLog) float64 {
	total := 0.0
	for _, r := range records {
		total += r.FunctionPoints
	}
	return total
}

// Count returns the number of records.
func Count(records []model.WorkLog) int {
	return len(records)
}

// CountByStatus counts records with the exact status.
func CountByStatus(records []model.WorkLog, status string) int {
	n := 0
	for _, r := range records {
		if r.Status == status {
			n++
		}
	}
	return n
}

// CompletedCount counts records in the completed status.
func CompletedCount(records []model.WorkLog) int {
	return CountByStatus(records, model.StatusCompleted)
}

// Rate returns part/total*100, or 0 when total is 0.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// CompletionRate is the completed share of records as a percentage.
func CompletionRate(records []model.WorkLog) float64 {
	return Rate(CompletedCount(records), len(records))
}

// AverageHours is the mean hours per record, 0 on empty input.
func AverageHours(records []model.WorkLog) float64 {
	if len(records) == 0 {
		return 0
	}
	return SumHours(records) / float64(len(records))
}

// KeyFunc extracts a grouping key from a record.
type KeyFunc func(model.WorkLog) string

// Common grouping keys.
var (
	ByProject      KeyFunc = func(r model.WorkLog) string { return r.Project }
	ByCollaborator KeyFunc = func(r model.WorkLog) string { return r.Collaborator }
	ByType         KeyFunc = func(r model.WorkLog) string { return r.Type }
	ByStatus       KeyFunc = func(r model.WorkLog) string { return r.Status }
)

// Dimensions lists the names accepted by KeyFor, in display order.
var Dimensions = []string{"project", "collaborator", "type", "status"}

// KeyFor returns the grouping key for a dimension name.
func KeyFor(dimension string) (KeyFunc, bool) {
	switch dimension {
	case "project":
		return ByProject, true
	case "collaborator":
		return ByCollaborator, true
	case "type":
		return ByType, true
	case "status":
		return ByStatus, true
	}
	return nil, false
}

// GroupHoursBy sums hours per key.
func GroupHoursBy(records []model.WorkLog, key KeyFunc) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		out[key(r)] += r.HoursWorked
	}
	return out
}

// GroupCountBy counts records per key.
func GroupCountBy(records []model.WorkLog, key KeyFunc) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		out[key(r)]++
	}
	return out
}

// Rank orders grouped values descending and numbers them from 1.
// Equal values are ordered by name.
func Rank(groups map[string]float64) []types.Entry {
	out := make([]types.Entry, 0, len(groups))
	for name, v := range groups {
		out = append(out, types.Entry{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankHoursBy groups hours by key and ranks the groups.
func RankHoursBy(records []model.WorkLog, key KeyFunc) []types.Entry {
	return Rank(GroupHoursBy(records, key))
}

// Top returns at most n leading entries; n <= 0 returns all.
func Top(entries []types.Entry, n int) []types.Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}

// Names returns the entry names in order.
func Names(entries []types.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// DistinctCollaborators returns the sorted distinct collaborators.
func DistinctCollaborators(records []model.WorkLog) []string {
	return distinct(records, ByCollaborator)
}

// DistinctProjects returns the sorted distinct projects.
func DistinctProjects(records []model.WorkLog) []string {
	return distinct(records, ByProject)
}

// Periods returns the sorted distinct YYYY-MM months of the start dates.
func Periods(records []model.WorkLog) []string {
	return distinct(records, func(r model.WorkLog) string {
		if len(r.StartDate) < 7 {
			return ""
		}
		return r.StartDate[:7]
	})
}

func distinct(records []model.WorkLog, key KeyFunc) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
