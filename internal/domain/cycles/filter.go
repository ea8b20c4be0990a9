package cycles

import (
	"github.com/okian/compass/internal/domain/aggregate"
	"github.com/okian/compass/internal/domain/model"
)

// Filter narrows test cycles by exact field values. Empty, "all" and
// "todos" mean no constraint.
type Filter struct {
	Client  string
	Project string
	Manager string
	Status  string
}

// Match reports whether c passes the filter.
func (f Filter) Match(c model.TestCycle) bool {
	return matches(f.Client, c.Client) &&
		matches(f.Project, c.Project) &&
		matches(f.Manager, c.Manager) &&
		matches(f.Status, c.Status)
}

func matches(want, got string) bool {
	return aggregate.IsAll(want) || want == got
}

// Select returns the cycles matching f, preserving order.
func Select(cycles []model.TestCycle, f Filter) []model.TestCycle {
	out := make([]model.TestCycle, 0, len(cycles))
	for _, c := range cycles {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
