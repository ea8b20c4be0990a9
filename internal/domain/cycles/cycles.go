// Package cycles derives rankings and summaries from sprint test-cycle rows.
package cycles

import (
	"context"
	"sort"

	"github.com/okian/compass/internal/domain/model"
)

// MinCycleColumns is the floor returned by MaxCycleCount.
const MinCycleColumns = 3

// Severity grades a rework percentage.
type Severity string

// Rework severity tiers.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rework thresholds, exclusive.
const (
	highReworkAbove   = 20.0
	mediumReworkAbove = 10.0
)

// ManagerResolver maps a client to its manager.
type ManagerResolver interface {
	Resolve(ctx context.Context, client string) string
}

// ReworkEntry is one (client, project) row of the rework ranking.
type ReworkEntry struct {
	Rank          int      `json:"rank"`
	Client        string   `json:"client"`
	Project       string   `json:"project"`
	AverageRework float64  `json:"averageRework"`
	Sprints       int      `json:"sprints"`
	Severity      Severity `json:"severity"`
}

// DurationEntry is one sprint of the duration ranking.
type DurationEntry struct {
	Rank         int    `json:"rank"`
	Client       string `json:"client"`
	Project      string `json:"project"`
	Sprint       string `json:"sprint"`
	DurationDays int    `json:"durationDays"`
	Status       string `json:"status"`
}

// Row is a test cycle decorated for listing.
type Row struct {
	Cycle    model.TestCycle `json:"cycle"`
	Severity Severity        `json:"severity"`
}

// Summary aggregates a cycle collection.
type Summary struct {
	Cycles          int            `json:"cycles"`
	ByStatus        map[string]int `json:"byStatus"`
	CorrectionHours float64        `json:"correctionHours"`
	CorrectionCards float64        `json:"correctionCards"`
	TotalHours      float64        `json:"totalHours"`
	TotalCards      float64        `json:"totalCards"`
	AverageRework   float64        `json:"averageRework"`
	MaxCycleCount   int            `json:"maxCycleCount"`
}

// ClassifyReworkSeverity grades a rework percentage: >20 high, >10 medium,
// otherwise low.
func ClassifyReworkSeverity(percent float64) Severity {
	switch {
	case percent > highReworkAbove:
		return SeverityHigh
	case percent > mediumReworkAbove:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type projectKey struct {
	client  string
	project string
}

// RankByReworkPerProjectAverage averages the rework percentage per
// (client, project) and ranks the groups descending. Ties are ordered by
// client, then project.
func RankByReworkPerProjectAverage(cycles []model.TestCycle) []ReworkEntry {
	sums := make(map[projectKey]float64)
	counts := make(map[projectKey]int)
	for _, c := range cycles {
		k := projectKey{c.Client, c.Project}
		sums[k] += c.ReworkPercent
		counts[k]++
	}

	out := make([]ReworkEntry, 0, len(sums))
	for k, sum := range sums {
		avg := sum / float64(counts[k])
		out = append(out, ReworkEntry{
			Client:        k.client,
			Project:       k.project,
			AverageRework: avg,
			Sprints:       counts[k],
			Severity:      ClassifyReworkSeverity(avg),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AverageRework != b.AverageRework {
			return a.AverageRework > b.AverageRework
		}
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		return a.Project < b.Project
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankByDuration ranks every cycle by duration descending. Ties are ordered
// by project, then sprint.
func RankByDuration(cycles []model.TestCycle) []DurationEntry {
	out := make([]DurationEntry, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, DurationEntry{
			Client:       c.Client,
			Project:      c.Project,
			Sprint:       c.Sprint,
			DurationDays: c.DurationDays,
			Status:       c.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DurationDays != b.DurationDays {
			return a.DurationDays > b.DurationDays
		}
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		return a.Sprint < b.Sprint
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// MaxCycleCount returns the highest populated cycle position across the
// collection, never less than MinCycleColumns.
func MaxCycleCount(cycles []model.TestCycle) int {
	highest := MinCycleColumns
	for _, c := range cycles {
		if h := c.HighestCycle(); h > highest {
			highest = h
		}
	}
	return highest
}

// AssignManagers returns a copy of cycles with the manager recomputed from
// the client.
func AssignManagers(ctx context.Context, cycles []model.TestCycle, resolver ManagerResolver) []model.TestCycle {
	out := make([]model.TestCycle, len(cycles))
	for i, c := range cycles {
		c.Manager = resolver.Resolve(ctx, c.Client)
		out[i] = c
	}
	return out
}

// Rows decorates cycles with their rework severity.
func Rows(cycles []model.TestCycle) []Row {
	out := make([]Row, len(cycles))
	for i, c := range cycles {
		out[i] = Row{Cycle: c, Severity: ClassifyReworkSeverity(c.ReworkPercent)}
	}
	return out
}

// Find returns the first cycle for (project, sprint).
func Find(cycles []model.TestCycle, project, sprint string) (model.TestCycle, bool) {
	for _, c := range cycles {
		if c.Project == project && c.Sprint == sprint {
			return c, true
		}
	}
	return model.TestCycle{}, false
}

// Summarize aggregates status counts and totals.
func Summarize(cycles []model.TestCycle) Summary {
	s := Summary{
		Cycles:        len(cycles),
		ByStatus:      make(map[string]int),
		MaxCycleCount: MaxCycleCount(cycles),
	}
	rework := 0.0
	for _, c := range cycles {
		s.ByStatus[c.Status]++
		s.CorrectionHours += c.CorrectionHours
		s.CorrectionCards += c.CorrectionCards
		s.TotalHours += c.TotalHours
		s.TotalCards += c.TotalCards
		rework += c.ReworkPercent
	}
	if len(cycles) > 0 {
		s.AverageRework = rework / float64(len(cycles))
	}
	return s
}
