package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered on it", func() {
				So(m, ShouldNotBeNil)
				m.auditsCreated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_audits_created_total")
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When audits are created and generated", func() {
			before := testutil.ToFloat64(globalManager.auditsCreated)
			generated := testutil.ToFloat64(globalManager.auditsGenerated)

			RecordAuditCreated()
			RecordAuditsGenerated(3)
			RecordAuditsGenerated(0)

			Convey("Then the counters move accordingly", func() {
				So(testutil.ToFloat64(globalManager.auditsCreated), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.auditsGenerated), ShouldEqual, generated+3)
			})
		})

		Convey("When a collection is loaded", func() {
			RecordSourceLoad("worklogs", "file")
			UpdateSourceRecords("worklogs", 42)

			Convey("Then the gauge holds the last count", func() {
				So(testutil.ToFloat64(globalManager.sourceRecords.WithLabelValues("worklogs")), ShouldEqual, 42)
			})
		})

		Convey("When recording the remaining series", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordHTTPRequest("/audits", "GET", 200)
					RecordHTTPRequestDuration("/audits", "GET", 200, 1.5)
					RecordHTTPError("/audits", "POST", "validation_error")
					RecordAuditUpdated()
					RecordAuditDeleted()
					RecordValidationFailure("audit")
					RecordAuditScore(53.3)
					RecordSourceFailure("cycles")
					RecordStoreReadLatency(0.2)
					RecordStoreWriteLatency(0.4)
					RecordStoreError("put")
					UpdateDatasetSize("audits", 7)
					RecordErrorByComponent("source", "load")
				}, ShouldNotPanic)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
