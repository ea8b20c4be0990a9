package cycles_test

import (
	"context"
	"strings"
	"testing"

	"github.com/okian/compass/internal/domain/cycles"
	"github.com/okian/compass/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, client string) string {
	if m, ok := r[strings.ToUpper(client)]; ok {
		return m
	}
	return "Não atribuído"
}

func sampleCycles() []model.TestCycle {
	return []model.TestCycle{
		{Client: "SEFAZ", Project: "Portal", Sprint: "S1", DurationDays: 14, ReworkPercent: 30, Status: model.CycleReleased, CorrectionHours: 5, TotalHours: 50},
		{Client: "SEFAZ", Project: "Portal", Sprint: "S2", DurationDays: 10, ReworkPercent: 10, Status: model.CycleCorrectionLate, CorrectionHours: 2, TotalHours: 20},
		{Client: "SEMED", Project: "App", Sprint: "S1", DurationDays: 14, ReworkPercent: 20, Status: model.CycleReleased,
			CycleDates: []model.CycleDate{{Index: 1, Date: "01/02/2024"}, {Index: 5, Date: "09/02/2024"}}},
		{Client: "ACME", Project: "Zeta", Sprint: "S9", DurationDays: 3, ReworkPercent: 5, Status: "Em teste"},
	}
}

func TestClassifyReworkSeverity(t *testing.T) {
	Convey("Given rework percentages", t, func() {
		So(cycles.ClassifyReworkSeverity(25), ShouldEqual, cycles.SeverityHigh)
		So(cycles.ClassifyReworkSeverity(20), ShouldEqual, cycles.SeverityMedium)
		So(cycles.ClassifyReworkSeverity(10.5), ShouldEqual, cycles.SeverityMedium)
		So(cycles.ClassifyReworkSeverity(10), ShouldEqual, cycles.SeverityLow)
		So(cycles.ClassifyReworkSeverity(0), ShouldEqual, cycles.SeverityLow)
	})
}

func TestRankByReworkPerProjectAverage(t *testing.T) {
	Convey("Given cycles for three projects", t, func() {
		ranked := cycles.RankByReworkPerProjectAverage(sampleCycles())

		Convey("Then averages are ranked descending with ties by client", func() {
			So(ranked, ShouldHaveLength, 3)
			So(ranked[0].Client, ShouldEqual, "SEFAZ")
			So(ranked[0].AverageRework, ShouldEqual, 20)
			So(ranked[0].Sprints, ShouldEqual, 2)
			So(ranked[0].Severity, ShouldEqual, cycles.SeverityMedium)
			So(ranked[2].AverageRework, ShouldEqual, 5)
		})
	})

	Convey("Given tied averages", t, func() {
		ranked := cycles.RankByReworkPerProjectAverage(sampleCycles())

		Convey("Then the client name breaks the tie", func() {
			So(ranked[0].Client, ShouldEqual, "SEFAZ")
			So(ranked[1].Client, ShouldEqual, "SEMED")
			So(ranked[2].Client, ShouldEqual, "ACME")
			So([]int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank}, ShouldResemble, []int{1, 2, 3})
		})
	})

	Convey("Given no cycles", t, func() {
		So(cycles.RankByReworkPerProjectAverage(nil), ShouldBeEmpty)
	})
}

func TestRankByDuration(t *testing.T) {
	Convey("Given cycles with equal durations", t, func() {
		ranked := cycles.RankByDuration(sampleCycles())

		Convey("Then they are ordered by duration, then project and sprint", func() {
			So(ranked, ShouldHaveLength, 4)
			So(ranked[0].Project, ShouldEqual, "App")
			So(ranked[1].Project, ShouldEqual, "Portal")
			So(ranked[1].Sprint, ShouldEqual, "S1")
			So(ranked[3].DurationDays, ShouldEqual, 3)
			So(ranked[3].Rank, ShouldEqual, 4)
		})
	})
}

func TestMaxCycleCount(t *testing.T) {
	Convey("Given cycles with sparse positional dates", t, func() {
		So(cycles.MaxCycleCount(sampleCycles()), ShouldEqual, 5)
	})

	Convey("Given cycles with fewer than three dates", t, func() {
		few := []model.TestCycle{{CycleDates: []model.CycleDate{{Index: 1, Date: "x"}}}}
		So(cycles.MaxCycleCount(few), ShouldEqual, cycles.MinCycleColumns)
		So(cycles.MaxCycleCount(nil), ShouldEqual, cycles.MinCycleColumns)
	})
}

func TestAssignManagersAndFind(t *testing.T) {
	Convey("Given a resolver", t, func() {
		in := sampleCycles()
		out := cycles.AssignManagers(context.Background(), in, staticResolver{"SEFAZ": "Luiz", "SEMED": "Leidiane"})

		Convey("Then managers are derived from clients", func() {
			So(out[0].Manager, ShouldEqual, "Luiz")
			So(out[2].Manager, ShouldEqual, "Leidiane")
			So(out[3].Manager, ShouldEqual, "Não atribuído")
		})

		Convey("Then the input is left untouched", func() {
			So(in[0].Manager, ShouldBeEmpty)
		})

		Convey("Then Find locates a sprint", func() {
			c, ok := cycles.Find(out, "Portal", "S2")
			So(ok, ShouldBeTrue)
			So(c.DurationDays, ShouldEqual, 10)

			_, ok = cycles.Find(out, "Portal", "S7")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given a cycle collection", t, func() {
		s := cycles.Summarize(sampleCycles())

		So(s.Cycles, ShouldEqual, 4)
		So(s.ByStatus[model.CycleReleased], ShouldEqual, 2)
		So(s.ByStatus["Em teste"], ShouldEqual, 1)
		So(s.CorrectionHours, ShouldEqual, 7)
		So(s.TotalHours, ShouldEqual, 70)
		So(s.AverageRework, ShouldEqual, 16.25)
		So(s.MaxCycleCount, ShouldEqual, 5)
	})

	Convey("Given no cycles", t, func() {
		s := cycles.Summarize(nil)
		So(s.AverageRework, ShouldEqual, 0)
		So(s.ByStatus, ShouldBeEmpty)
	})

	Convey("Given rows", t, func() {
		rows := cycles.Rows(sampleCycles())
		So(rows[0].Severity, ShouldEqual, cycles.SeverityHigh)
		So(rows[3].Severity, ShouldEqual, cycles.SeverityLow)
	})
}

func TestSelect(t *testing.T) {
	Convey("Given cycles across clients and statuses", t, func() {
		all := []model.TestCycle{
			{Client: "SEFAZ", Project: "A", Manager: "Luiz", Status: "Concluído"},
			{Client: "SEDUR", Project: "B", Manager: "Fabíola", Status: "Em andamento"},
			{Client: "SEFAZ", Project: "C", Manager: "Luiz", Status: "Em andamento"},
		}

		Convey("Then an empty filter keeps everything in order", func() {
			So(cycles.Select(all, cycles.Filter{}), ShouldResemble, all)
			So(cycles.Select(all, cycles.Filter{Client: "todos", Status: "all"}), ShouldHaveLength, 3)
		})

		Convey("Then fields combine as equality constraints", func() {
			got := cycles.Select(all, cycles.Filter{Client: "SEFAZ", Status: "Em andamento"})
			So(got, ShouldHaveLength, 1)
			So(got[0].Project, ShouldEqual, "C")
		})

		Convey("Then a manager filter matches resolved managers", func() {
			So(cycles.Select(all, cycles.Filter{Manager: "Fabíola"}), ShouldHaveLength, 1)
		})

		Convey("Then no match yields an empty slice", func() {
			got := cycles.Select(all, cycles.Filter{Project: "Z"})
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}
