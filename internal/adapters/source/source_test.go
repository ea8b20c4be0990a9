package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/compass/internal/adapters/source"
	"github.com/okian/compass/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const workLogJSON = `[
  {"Colaborador":"Ana","Projeto":"Portal","Atividade":"Login","Tipo":"Desenvolvimento","Status":"Concluído","Início":"2024-01-05 09:00","Fim":"2024-01-05 15:00","Hrs Trab.":"06:00","Horas_Trabalhadas":6,"PF":3}
]`

const cycleJSON = `[
  {"cliente":"SEFAZ","projeto":"X","sprint":"S1","inicio":"01/01/2024","fim":"10/01/2024","duracao":9,"ciclo1":"03/01/2024","ciclo2":"-","ciclo4":"08/01/2024","status":"Liberada","tempo_previsto":40,"total_horas":55,"retrabalho":12.5}
]`

type fakeOverrides struct {
	logs   []model.WorkLog
	cycles []model.TestCycle
	err    error
}

func (f fakeOverrides) WorkLogs(context.Context) ([]model.WorkLog, bool, error) {
	return f.logs, f.logs != nil, f.err
}

func (f fakeOverrides) Cycles(context.Context) ([]model.TestCycle, bool, error) {
	return f.cycles, f.cycles != nil, f.err
}

func writeFile(dir, name, body string) string {
	p := filepath.Join(dir, name)
	_ = os.WriteFile(p, []byte(body), 0o600)
	return p
}

func TestLoadFromFile(t *testing.T) {
	Convey("Given collections on disk", t, func() {
		dir := t.TempDir()
		logs := writeFile(dir, "dados.json", workLogJSON)
		cycles := writeFile(dir, "ciclos.json", cycleJSON)
		l := source.NewLoader()

		Convey("When loading work logs", func() {
			records, origin, err := l.LoadWorkLogs(context.Background(), logs)

			Convey("Then the accented keys are decoded", func() {
				So(err, ShouldBeNil)
				So(origin, ShouldEqual, source.OriginFile)
				So(records, ShouldHaveLength, 1)
				So(records[0].StartDate, ShouldEqual, "2024-01-05 09:00")
				So(records[0].HoursWorkedRaw, ShouldEqual, "06:00")
				So(records[0].HoursWorked, ShouldEqual, 6)
			})
		})

		Convey("When loading test cycles", func() {
			records, _, err := l.LoadCycles(context.Background(), cycles)

			Convey("Then positional cycle dates skip missing values", func() {
				So(err, ShouldBeNil)
				So(records[0].CycleDates, ShouldResemble, []model.CycleDate{
					{Index: 1, Date: "03/01/2024"},
					{Index: 4, Date: "08/01/2024"},
				})
				So(records[0].ReworkPercent, ShouldEqual, 12.5)
			})
		})

		Convey("When the source is empty", func() {
			records, origin, err := l.LoadWorkLogs(context.Background(), "")

			So(err, ShouldBeNil)
			So(origin, ShouldEqual, source.OriginNone)
			So(records, ShouldBeEmpty)
		})

		Convey("When the file is missing or malformed", func() {
			_, _, errMissing := l.LoadWorkLogs(context.Background(), filepath.Join(dir, "nope.json"))
			_, _, errBad := l.LoadWorkLogs(context.Background(), writeFile(dir, "bad.json", `{"not":"an array"}`))

			So(errors.Is(errMissing, source.ErrLoad), ShouldBeTrue)
			So(errors.Is(errBad, source.ErrLoad), ShouldBeTrue)
		})

		Convey("When the scheme is unknown", func() {
			_, _, err := l.LoadCycles(context.Background(), "s3://bucket/ciclos.json")
			So(errors.Is(err, source.ErrUnsupported), ShouldBeTrue)
		})
	})
}

func TestLoadFromHTTP(t *testing.T) {
	Convey("Given an HTTP endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/dados.json":
				_, _ = w.Write([]byte(workLogJSON))
			case "/slow.json":
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`[]`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		l := source.NewLoader(source.WithHTTPClient(srv.Client()), source.WithTimeout(50*time.Millisecond))

		Convey("Then a JSON array is fetched", func() {
			records, origin, err := l.LoadWorkLogs(context.Background(), srv.URL+"/dados.json")
			So(err, ShouldBeNil)
			So(origin, ShouldEqual, source.OriginHTTP)
			So(records[0].Collaborator, ShouldEqual, "Ana")
		})

		Convey("Then a non-200 status fails", func() {
			_, _, err := l.LoadWorkLogs(context.Background(), srv.URL+"/missing.json")
			So(errors.Is(err, source.ErrLoad), ShouldBeTrue)
		})

		Convey("Then a slow endpoint hits the timeout", func() {
			_, _, err := l.LoadWorkLogs(context.Background(), srv.URL+"/slow.json")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestOverridesAndLoadAll(t *testing.T) {
	Convey("Given an override cache", t, func() {
		dir := t.TempDir()
		logs := writeFile(dir, "dados.json", workLogJSON)
		override := fakeOverrides{cycles: []model.TestCycle{{Project: "Imported", Sprint: "S1"}}}
		l := source.NewLoader(source.WithOverrides(override))

		Convey("When loading both collections", func() {
			ds := l.LoadAll(context.Background(), logs, filepath.Join(dir, "absent.json"))

			Convey("Then the override wins and the file source is used otherwise", func() {
				So(ds.Errors, ShouldBeEmpty)
				So(ds.WorkLogOrigin, ShouldEqual, source.OriginFile)
				So(ds.CycleOrigin, ShouldEqual, source.OriginOverride)
				So(ds.Cycles[0].Project, ShouldEqual, "Imported")
			})
		})
	})

	Convey("Given a failing source", t, func() {
		l := source.NewLoader(source.WithOverrides(fakeOverrides{err: errors.New("corrupt")}))
		ds := l.LoadAll(context.Background(), "/definitely/missing.json", "")

		Convey("Then the collection degrades to empty", func() {
			So(ds.WorkLogs, ShouldNotBeNil)
			So(ds.WorkLogs, ShouldBeEmpty)
			So(ds.WorkLogOrigin, ShouldEqual, source.OriginNone)
			So(errors.Is(ds.Errors[source.CollectionWorkLogs], source.ErrLoad), ShouldBeTrue)
			So(ds.CycleOrigin, ShouldEqual, source.OriginNone)
		})
	})
}
