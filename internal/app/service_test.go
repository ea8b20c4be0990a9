package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/compass/internal/app"
	"github.com/okian/compass/internal/adapters/repository"
	"github.com/okian/compass/internal/adapters/source"
	"github.com/okian/compass/internal/domain/audit"
	"github.com/okian/compass/internal/domain/model"
	"github.com/okian/compass/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

const (
	workLogsJSON = `[
  {"Colaborador":"Ana","Projeto":"Portal","Atividade":"Login","Tipo":"Desenvolvimento","Status":"Concluído","Início":"2024-01-05 09:00","Horas_Trabalhadas":6,"PF":3},
  {"Colaborador":"Bruno","Projeto":"App","Atividade":"Teste login","Tipo":"Teste","Status":"Em andamento","Início":"2024-01-06 09:00","Horas_Trabalhadas":2,"PF":0}
]`
	cyclesJSON = `[
  {"cliente":"SEFAZ","projeto":"X","sprint":"S1","inicio":"01/01/2024","fim":"10/01/2024","duracao":9,"ciclo1":"03/01/2024","status":"Liberada","tempo_previsto":40,"total_horas":55,"retrabalho":12},
  {"cliente":"SEMED","projeto":"Y","sprint":"S4","inicio":"05/01/2024","fim":"","duracao":0,"status":"Correção/Atrasada","retrabalho":25}
]`
)

var fixedNow = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

func writeSources(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	logs := filepath.Join(dir, "dados.json")
	cycles := filepath.Join(dir, "ciclos.json")
	if err := os.WriteFile(logs, []byte(workLogsJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cycles, []byte(cyclesJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return logs, cycles
}

func newService(t *testing.T, kv repository.KV, opts ...service.Option) *service.Service {
	logs, cycles := writeSources(t)
	base := []service.Option{
		service.WithKV(kv),
		service.WithSources(logs, cycles),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithLogger(logger.Nop()),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports as not started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Audits(), ShouldBeNil)
		})

		Convey("Then store-backed operations fail", func() {
			_, err := svc.GenerateAudits(context.Background(), false)
			So(err, ShouldEqual, service.ErrNotStarted)
			So(svc.ImportWorkLogs(context.Background(), nil), ShouldEqual, service.ErrNotStarted)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service over local sources", t, func() {
		ctx := context.Background()
		kv := repository.NewMemoryKV()
		svc := newService(t, kv)
		defer svc.Stop()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then both collections are loaded", func() {
				So(svc.WorkLogs(), ShouldHaveLength, 2)
				So(svc.Cycles(), ShouldHaveLength, 2)

				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["workLogs"], ShouldEqual, 2)
				So(stats["origins"], ShouldResemble, map[string]string{
					source.CollectionWorkLogs: source.OriginFile,
					source.CollectionCycles:   source.OriginFile,
				})
			})

			Convey("Then stats report when each stored key was written", func() {
				store, ok := svc.GetStats()["store"].(map[string]string)
				So(ok, ShouldBeTrue)
				So(store, ShouldContainKey, repository.KeyAudits)
				So(store, ShouldContainKey, repository.KeyGenerationMarker)
			})

			Convey("Then cycle managers are resolved", func() {
				So(svc.Cycles()[0].Manager, ShouldEqual, "Luiz")
				So(svc.Cycles()[1].Manager, ShouldEqual, "Leidiane")
			})

			Convey("Then one pending audit is generated for the ended sprint", func() {
				all, err := svc.Audits().All(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 1)
				So(all[0].Project, ShouldEqual, "X")
				So(all[0].Manager, ShouldEqual, "Luiz")
				So(all[0].AuditDate, ShouldEqual, "2024-02-01")
			})

			Convey("Then starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				all, _ := svc.Audits().All(ctx)
				So(all, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given auto-generation is disabled", t, func() {
		ctx := context.Background()
		svc := newService(t, repository.NewMemoryKV(), service.WithAutoGenerate(false))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then no audits exist until generation is requested", func() {
			all, _ := svc.Audits().All(ctx)
			So(all, ShouldBeEmpty)

			res, err := svc.GenerateAudits(ctx, false)
			So(err, ShouldBeNil)
			So(res.Created, ShouldHaveLength, 1)
		})
	})

	Convey("Given a missing source", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithKV(repository.NewMemoryKV()),
			service.WithSources(filepath.Join(t.TempDir(), "absent.json"), ""),
			service.WithLogger(logger.Nop()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the collection degrades to empty and the error is reported", func() {
			So(svc.WorkLogs(), ShouldBeEmpty)
			errs, ok := svc.GetStats()["loadErrors"].(map[string]string)
			So(ok, ShouldBeTrue)
			So(errs, ShouldContainKey, source.CollectionWorkLogs)
		})
	})
}

func TestService_Imports(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		kv := repository.NewMemoryKV()
		svc := newService(t, kv, service.WithAutoGenerate(false))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When test cycles are imported", func() {
			err := svc.ImportCycles(ctx, []model.TestCycle{
				{Client: "sedur", Project: "Z", Sprint: "S9", StartDate: "01/03/2024", EndDate: "12/03/2024"},
			})

			Convey("Then they replace the loaded cycles with managers resolved", func() {
				So(err, ShouldBeNil)
				So(svc.Cycles(), ShouldHaveLength, 1)
				So(svc.Cycles()[0].Manager, ShouldEqual, "Fabíola")
				So(svc.GetStats()["origins"].(map[string]string)[source.CollectionCycles], ShouldEqual, source.OriginOverride)
			})

			Convey("Then the override survives a reload", func() {
				ds := svc.Reload(ctx)
				So(ds.CycleOrigin, ShouldEqual, source.OriginOverride)
				So(ds.Cycles[0].Project, ShouldEqual, "Z")
			})

			Convey("Then generation uses the imported cycles", func() {
				res, err := svc.GenerateAudits(ctx, false)
				So(err, ShouldBeNil)
				So(res.Created, ShouldHaveLength, 1)
				So(res.Created[0].Sprint, ShouldEqual, "S9")
				So(res.Created[0].DurationDays, ShouldEqual, 11)
			})
		})

		Convey("When work logs are imported", func() {
			So(svc.ImportWorkLogs(ctx, []model.WorkLog{{Collaborator: "Caio", Project: "Portal", HoursWorked: 3}}), ShouldBeNil)

			Convey("Then they become the active collection", func() {
				So(svc.WorkLogs(), ShouldHaveLength, 1)
				So(svc.WorkLogs()[0].Collaborator, ShouldEqual, "Caio")
			})
		})

		Convey("When the mapping table changes", func() {
			_, err := svc.Managers().SetManager(ctx, "SEFAZ", "Marta")
			So(err, ShouldBeNil)
			svc.RefreshManagers(ctx)

			Convey("Then loaded cycles pick up the new manager", func() {
				So(svc.Cycles()[0].Manager, ShouldEqual, "Marta")
			})
		})
	})
}

func TestService_Generate(t *testing.T) {
	Convey("Given a service that already generated audits", t, func() {
		ctx := context.Background()
		svc := newService(t, repository.NewMemoryKV())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When generation runs again", func() {
			res, err := svc.GenerateAudits(ctx, false)

			Convey("Then the persisted marker makes it a no-op", func() {
				So(err, ShouldBeNil)
				So(res.AlreadyDone, ShouldBeTrue)
			})
		})

		Convey("When the pending audit is deleted and generation is forced", func() {
			all, _ := svc.Audits().List(ctx, audit.Filter{})
			So(svc.Audits().Delete(ctx, all[0].ID), ShouldBeNil)
			res, err := svc.GenerateAudits(ctx, true)

			Convey("Then it is recreated", func() {
				So(err, ShouldBeNil)
				So(res.Created, ShouldHaveLength, 1)
			})
		})
	})
}

func TestService_SQLiteStore(t *testing.T) {
	Convey("Given a service that opens its own SQLite store", t, func() {
		ctx := context.Background()
		logs, cycles := writeSources(t)
		svc := service.New(
			service.WithDBPath(filepath.Join(t.TempDir(), "compass.db")),
			service.WithBusyTimeout(250*time.Millisecond),
			service.WithSources(logs, cycles),
			service.WithClock(func() time.Time { return fixedNow }),
			service.WithLogger(logger.Nop()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then store stamps come from the service clock", func() {
			store, ok := svc.GetStats()["store"].(map[string]string)
			So(ok, ShouldBeTrue)
			So(store[repository.KeyGenerationMarker], ShouldEqual, "2024-02-01T09:00:00Z")
		})
	})
}

func TestService_Thresholds(t *testing.T) {
	// 11 of 15 criteria met scores 73.3.
	checklist := model.Checklist{
		MakerCompass: true, RequirementsSpecification: true, SprintPlanning: true,
		CardsCreated: true, PlanningPokerEstimates: true, MaxCardDuration: true,
		PlayPauseTracking: true, ImpedimentsLogged: true, DailyTeam: true,
		DailyClient: true, FunctionPointCounting: true,
	}
	in := audit.Input{Project: "X", Sprint: "S1", Auditor: "Ana", Checklist: checklist}

	Convey("Given the standard tiers", t, func() {
		ctx := context.Background()
		svc := newService(t, repository.NewMemoryKV(), service.WithAutoGenerate(false))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		created, err := svc.Audits().Create(ctx, in)
		So(err, ShouldBeNil)
		So(created.Status, ShouldEqual, model.StatusApprovedWithReservations)
	})

	Convey("Given lowered tiers", t, func() {
		ctx := context.Background()
		svc := newService(t, repository.NewMemoryKV(),
			service.WithAutoGenerate(false),
			service.WithThresholds(70, 50),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		created, err := svc.Audits().Create(ctx, in)
		So(err, ShouldBeNil)
		So(created.Status, ShouldEqual, model.StatusApproved)
	})

	Convey("Given an inverted tier pair", t, func() {
		ctx := context.Background()
		svc := newService(t, repository.NewMemoryKV(),
			service.WithAutoGenerate(false),
			service.WithThresholds(50, 70),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		created, err := svc.Audits().Create(ctx, in)
		So(err, ShouldBeNil)
		So(created.Status, ShouldEqual, model.StatusApprovedWithReservations)
	})
}

func TestService_Resets(t *testing.T) {
	Convey("Given a started service with generated audits and an import", t, func() {
		ctx := context.Background()
		svc := newService(t, repository.NewMemoryKV())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.ImportWorkLogs(ctx, []model.WorkLog{{Collaborator: "Caio", HoursWorked: 3}}), ShouldBeNil)

		Convey("When the generation marker is reset", func() {
			So(svc.ResetGeneration(ctx), ShouldBeNil)
			all, _ := svc.Audits().List(ctx, audit.Filter{})
			So(svc.Audits().Delete(ctx, all[0].ID), ShouldBeNil)
			res, err := svc.GenerateAudits(ctx, false)

			Convey("Then unforced generation runs again", func() {
				So(err, ShouldBeNil)
				So(res.AlreadyDone, ShouldBeFalse)
				So(res.Created, ShouldHaveLength, 1)
			})
		})

		Convey("When the work-log import is cleared", func() {
			So(svc.ClearImport(ctx, source.CollectionWorkLogs), ShouldBeNil)

			Convey("Then the configured source is active again", func() {
				So(svc.WorkLogs(), ShouldHaveLength, 2)
				So(svc.GetStats()["origins"].(map[string]string)[source.CollectionWorkLogs], ShouldEqual, source.OriginFile)
			})
		})

		Convey("When an unknown collection is cleared", func() {
			err := svc.ClearImport(ctx, "sprints")
			So(errors.Is(err, service.ErrUnknownCollection), ShouldBeTrue)
			So(svc.WorkLogs(), ShouldHaveLength, 1)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		So(svc.ResetGeneration(context.Background()), ShouldEqual, service.ErrNotStarted)
		So(svc.ClearImport(context.Background(), source.CollectionCycles), ShouldEqual, service.ErrNotStarted)
	})
}
