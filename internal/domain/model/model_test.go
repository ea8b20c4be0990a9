package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/compass/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTestCycle_JSON(t *testing.T) {
	Convey("Given a test-cycle row with sparse cycle columns", t, func() {
		raw := `{
			"gerente": "Luiz",
			"cliente": "SEFAZ",
			"projeto": "Portal",
			"sprint": "S1",
			"inicio": "01/01/2024",
			"fim": "10/01/2024",
			"duracao": 9,
			"ciclo1": "03/01/2024",
			"ciclo2": "-",
			"ciclo3": "",
			"ciclo5": "08/01/2024",
			"status": "Liberada",
			"correcoes_horas": 4.5,
			"correcoes_cards": 2,
			"total_horas": 55,
			"total_cards": 10,
			"tempo_previsto": 40,
			"retrabalho": 8.2
		}`

		var c model.TestCycle
		err := json.Unmarshal([]byte(raw), &c)

		Convey("Then fixed fields decode by their source keys", func() {
			So(err, ShouldBeNil)
			So(c.Client, ShouldEqual, "SEFAZ")
			So(c.Project, ShouldEqual, "Portal")
			So(c.DurationDays, ShouldEqual, 9)
			So(c.CorrectionCards, ShouldEqual, 2)
			So(c.EstimatedHours, ShouldEqual, 40)
			So(c.ReworkPercent, ShouldEqual, 8.2)
		})

		Convey("And only populated cycle dates are kept, in order", func() {
			So(c.CycleDates, ShouldResemble, []model.CycleDate{
				{Index: 1, Date: "03/01/2024"},
				{Index: 5, Date: "08/01/2024"},
			})
			So(c.CycleDate(5), ShouldEqual, "08/01/2024")
			So(c.CycleDate(2), ShouldEqual, "")
			So(c.HighestCycle(), ShouldEqual, 5)
			So(c.Ended(), ShouldBeTrue)
		})

		Convey("When encoding it again", func() {
			out, err := json.Marshal(c)
			So(err, ShouldBeNil)

			var back map[string]any
			So(json.Unmarshal(out, &back), ShouldBeNil)

			Convey("Then positional keys are written back", func() {
				So(back["ciclo1"], ShouldEqual, "03/01/2024")
				So(back["ciclo5"], ShouldEqual, "08/01/2024")
				So(back, ShouldNotContainKey, "ciclo2")
				So(back["projeto"], ShouldEqual, "Portal")
			})
		})
	})

	Convey("Given a cycle whose cycle column is not a string", t, func() {
		var c model.TestCycle
		err := json.Unmarshal([]byte(`{"projeto":"P","ciclo1":42}`), &c)

		Convey("Then the column is ignored", func() {
			So(err, ShouldBeNil)
			So(c.CycleDates, ShouldBeEmpty)
			So(c.Ended(), ShouldBeFalse)
		})
	})
}

func TestDates(t *testing.T) {
	Convey("Given source date strings", t, func() {
		So(model.ToISODate("10/01/2024"), ShouldEqual, "2024-01-10")
		So(model.ToISODate("2024-01-10"), ShouldEqual, "2024-01-10")
		So(model.ToISODate(" "), ShouldEqual, "")
		So(model.ToISODate("Jan 10"), ShouldEqual, "")
	})

	Convey("Given two ISO dates", t, func() {
		Convey("Then the span is whole days", func() {
			d, ok := model.DurationDays("2024-01-01", "2024-01-15")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, 14)
		})

		Convey("Then a reversed span clamps to zero", func() {
			d, ok := model.DurationDays("2024-01-15", "2024-01-01")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, 0)
		})

		Convey("Then a missing date is reported", func() {
			_, ok := model.DurationDays("", "2024-01-01")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Today formats in UTC", t, func() {
		now := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
		So(model.Today(now), ShouldEqual, "2024-03-05")
	})
}

func TestChecklist(t *testing.T) {
	Convey("Given a checklist", t, func() {
		var v [model.ChecklistSize]bool
		v[0], v[14] = true, true
		c := model.ChecklistFromValues(v)

		So(c.MakerCompass, ShouldBeTrue)
		So(c.SprintAtMost15Days, ShouldBeTrue)
		So(c.Met(), ShouldEqual, 2)
		So(c.Values(), ShouldResemble, v)
	})

	Convey("Given the audit statuses", t, func() {
		So(model.StatusApproved.Valid(), ShouldBeTrue)
		So(model.AuditStatus("x").Valid(), ShouldBeFalse)
	})
}
